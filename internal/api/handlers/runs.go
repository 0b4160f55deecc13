package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/ports"
)

// RunsHandler exposes stored optimization runs.
type RunsHandler struct {
	Repo ports.RunRepository
}

type runResponse struct {
	ID            string          `json:"id"`
	Mode          string          `json:"mode"`
	Status        string          `json:"status"`
	Input         json.RawMessage `json:"input"`
	Output        json.RawMessage `json:"output,omitempty"`
	SolutionFound bool            `json:"solution_found"`
	ErrorLog      string          `json:"error_log,omitempty"`
	Created       time.Time       `json:"created"`
	Updated       time.Time       `json:"updated"`
}

func newRunResponse(run *domain.OptimizationRun) runResponse {
	return runResponse{
		ID:            run.ID,
		Mode:          string(run.Mode),
		Status:        run.Status,
		Input:         run.Input,
		Output:        run.Output,
		SolutionFound: run.SolutionFound,
		ErrorLog:      run.ErrorLog,
		Created:       run.Created,
		Updated:       run.Updated,
	}
}

func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.Repo.List(r.Context(), limit)
	if err != nil {
		log.Printf("list runs failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		res = append(res, newRunResponse(run))
	}
	writeJSON(w, r, http.StatusOK, map[string][]runResponse{"runs": res})
}

func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "run id is required")
		return
	}

	run, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, r, http.StatusOK, newRunResponse(run))
}
