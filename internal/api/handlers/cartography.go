package handlers

import (
	"log"
	"net/http"

	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/ports"
)

// CartographyHandler exposes the gateway's matrix and route capabilities as
// passthrough endpoints.
type CartographyHandler struct {
	Cartographer ports.Cartographer
}

func (h *CartographyHandler) Matrix(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.MatrixRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Stops) == 0 {
		writeError(w, r, http.StatusBadRequest, "at least one stop is required")
		return
	}

	result, err := h.Cartographer.GetMatrix(r.Context(), dto.Coordinates(req.Stops), req.Costing)
	if err != nil {
		log.Printf("get matrix failed: %v", err)
		writeError(w, r, http.StatusBadGateway, "matrix request failed")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.MatrixResponse{
		TimeMatrix:     result.TimeMatrix,
		DistanceMatrix: result.DistanceMatrix,
	})
}

func (h *CartographyHandler) Route(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.RouteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Stops) < 2 {
		writeError(w, r, http.StatusBadRequest, "at least two stops are required")
		return
	}

	route, err := h.Cartographer.GetRoute(r.Context(), dto.Coordinates(req.Stops), req.Costing)
	if err != nil {
		log.Printf("get route failed: %v", err)
		writeError(w, r, http.StatusBadGateway, "route request failed")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(route))
}
