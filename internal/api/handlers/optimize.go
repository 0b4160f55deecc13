package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/ports"
	"fleet-route-service/internal/services"
)

// OptimizeHandler serves single solves and grid-search escalations over a
// caller-supplied model. Runs is optional; when configured, every request is
// recorded as an optimization run.
type OptimizeHandler struct {
	Solver              ports.RouteSolver
	Runs                ports.RunRepository
	VehiclePenalty      int64
	GridSearchTimeLimit time.Duration
}

func (h *OptimizeHandler) optimizer(w http.ResponseWriter, r *http.Request) (*services.RouteOptimizer, dto.OptimizeRequest, bool) {
	var req dto.OptimizeRequest
	if !decodeBody(w, r, &req) {
		return nil, req, false
	}

	optimizer, err := services.NewRouteOptimizer(
		req.Input(),
		h.Solver,
		services.WithVehiclePenalty(h.VehiclePenalty),
		services.WithGridSearchTimeLimit(h.GridSearchTimeLimit),
	)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, req, false
	}
	return optimizer, req, true
}

// Optimize runs a single best-effort solve. An infeasible problem is a 200
// response with empty routes, not an error.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	optimizer, req, ok := h.optimizer(w, r)
	if !ok {
		return
	}

	runID := h.createRun(r.Context(), domain.RouteMode(req.Mode), req)

	maxTime := time.Duration(req.MaxTimeSecs) * time.Second
	if maxTime <= 0 {
		maxTime = time.Hour
	}

	output, err := optimizer.OptimizerSolver(r.Context(), req.LocalSearch, maxTime)
	if err != nil {
		h.finishRun(r.Context(), runID, domain.RunStatusFailed, nil, false, err.Error())
		log.Printf("optimize failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	status := domain.RunStatusSolved
	if len(output.Routes) == 0 {
		status = domain.RunStatusNoRoute
	}
	h.finishRun(r.Context(), runID, status, output, status == domain.RunStatusSolved, "")

	writeJSON(w, r, http.StatusOK, dto.OptimizeResponse{RunID: runID, RouteOptimizerOutput: output})
}

// GridSearch escalates an infeasible problem through bounded time and
// vehicle relaxations.
func (h *OptimizeHandler) GridSearch(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	optimizer, req, ok := h.optimizer(w, r)
	if !ok {
		return
	}

	runID := h.createRun(r.Context(), domain.RouteMode(req.Mode), req)

	output, err := optimizer.GridSearch(r.Context())
	if err != nil {
		h.finishRun(r.Context(), runID, domain.RunStatusFailed, nil, false, err.Error())
		log.Printf("grid search failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	solved := output.ExtraTime == 0 && output.ExtraVehicles.NumberOfVehicles == 0 &&
		output.Message == "Solution found without grid search"
	h.finishRun(r.Context(), runID, domain.RunStatusSolved, output, solved, "")

	writeJSON(w, r, http.StatusOK, dto.GridSearchResponse{RunID: runID, GridSearchOutput: output})
}

func (h *OptimizeHandler) createRun(ctx context.Context, mode domain.RouteMode, input any) string {
	if h.Runs == nil {
		return ""
	}

	payload, err := json.Marshal(input)
	if err != nil {
		log.Printf("run create skipped: encode input: %v", err)
		return ""
	}

	run := &domain.OptimizationRun{
		ID:    uuid.NewString(),
		Mode:  mode,
		Input: payload,
	}
	if err := h.Runs.Create(ctx, run); err != nil {
		log.Printf("run create failed: %v", err)
		return ""
	}
	return run.ID
}

func (h *OptimizeHandler) finishRun(ctx context.Context, id, status string, output any, solved bool, errorLog string) {
	if h.Runs == nil || id == "" {
		return
	}

	var payload json.RawMessage
	if output != nil {
		encoded, err := json.Marshal(output)
		if err != nil {
			log.Printf("run finish: encode output: %v", err)
		} else {
			payload = encoded
		}
	}

	run := &domain.OptimizationRun{
		ID:            id,
		Status:        status,
		Output:        payload,
		SolutionFound: solved,
		ErrorLog:      errorLog,
	}
	if err := h.Runs.Finish(ctx, run); err != nil {
		log.Printf("run finish failed: %v", err)
	}
}
