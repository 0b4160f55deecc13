package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleet-route-service/internal/api/handlers"
	"fleet-route-service/internal/platform/metrics"
	"fleet-route-service/internal/ports"
)

// Deps are the capabilities the HTTP surface is wired with. Runs is
// optional; when nil the run endpoints are not registered and solves are
// not persisted.
type Deps struct {
	Cartographer        ports.Cartographer
	Solver              ports.RouteSolver
	Runs                ports.RunRepository
	VehiclePenalty      int64
	GridSearchTimeLimit time.Duration
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	optimizeHandler := &handlers.OptimizeHandler{
		Solver:              deps.Solver,
		Runs:                deps.Runs,
		VehiclePenalty:      deps.VehiclePenalty,
		GridSearchTimeLimit: deps.GridSearchTimeLimit,
	}
	cartographyHandler := &handlers.CartographyHandler{Cartographer: deps.Cartographer}
	planHandler := &handlers.PlanHandler{
		Cartographer:   deps.Cartographer,
		Solver:         deps.Solver,
		VehiclePenalty: deps.VehiclePenalty,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/optimize", optimizeHandler.Optimize)
	mux.HandleFunc("/optimize/grid", optimizeHandler.GridSearch)
	mux.HandleFunc("/plans", planHandler.Plan)
	mux.HandleFunc("/matrix", cartographyHandler.Matrix)
	mux.HandleFunc("/route", cartographyHandler.Route)

	if deps.Runs != nil {
		runsHandler := &handlers.RunsHandler{Repo: deps.Runs}
		mux.HandleFunc("/runs", runsHandler.List)
		mux.HandleFunc("/runs/{id}", runsHandler.Get)
	}

	return loggingMiddleware(mux)
}
