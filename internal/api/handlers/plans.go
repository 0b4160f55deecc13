package handlers

import (
	"log"
	"net/http"
	"time"

	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/ports"
	"fleet-route-service/internal/services"
)

// PlanHandler runs the full planning pipeline: stops in, a fetched matrix,
// an optimized plan, and optionally route geometry out.
type PlanHandler struct {
	Cartographer   ports.Cartographer
	Solver         ports.RouteSolver
	VehiclePenalty int64
}

func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.PlanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Stops) < 2 {
		writeError(w, r, http.StatusBadRequest, "at least two stops are required")
		return
	}

	maxTime := time.Duration(req.MaxTimeSecs) * time.Second
	if maxTime <= 0 {
		maxTime = time.Hour
	}

	svcReq := services.PlanRoutesRequest{
		Mode:            domain.RouteMode(req.Mode),
		Stops:           dto.Coordinates(req.Stops),
		Demands:         req.Demands,
		Fleet:           domain.Fleet(req.Fleet),
		MaxTravelTime:   req.MaxTravelTime,
		SlackTime:       req.SlackTime,
		Costing:         req.Costing,
		LocalSearch:     req.LocalSearch,
		SolveTime:       maxTime,
		IncludeGeometry: req.IncludeGeometry,
	}

	result, err := services.PlanRoutes(
		r.Context(), svcReq, h.Cartographer, h.Solver,
		services.WithVehiclePenalty(h.VehiclePenalty),
	)
	if err != nil {
		log.Printf("plan routes failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.PlanResponse{
		MaxTravelTime: result.Output.MaxTravelTime,
		SlackTime:     result.Output.SlackTime,
		Routes:        make([]dto.PlanRouteResponse, 0, len(result.Routes)),
	}
	for _, planned := range result.Routes {
		route := dto.PlanRouteResponse{
			Route:           planned.Route,
			StopCoordinates: make([][2]float64, 0, len(planned.StopCoordinates)),
		}
		for _, c := range planned.StopCoordinates {
			route.StopCoordinates = append(route.StopCoordinates, [2]float64{c.Lat, c.Lon})
		}
		if planned.Geometry != nil {
			geometry := dto.NewRouteResponse(*planned.Geometry)
			route.Geometry = &geometry
		}
		res.Routes = append(res.Routes, route)
	}

	writeJSON(w, r, http.StatusOK, res)
}
