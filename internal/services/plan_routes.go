package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
)

// PlanRoutesRequest describes a full planning run: raw stops in, optimized
// routes out. Stops[0] is the depot and Demands is aligned with Stops.
type PlanRoutesRequest struct {
	Mode            domain.RouteMode
	Stops           []domain.Coordinates
	Demands         []int64
	Fleet           domain.Fleet
	MaxTravelTime   int64
	SlackTime       int64
	Costing         string
	LocalSearch     bool
	SolveTime       time.Duration
	IncludeGeometry bool
}

// PlannedRoute pairs an optimized route with its stop coordinates and,
// when requested, the drivable geometry connecting them.
type PlannedRoute struct {
	domain.Route
	StopCoordinates []domain.Coordinates
	Geometry        *domain.CartographyRoute
}

type PlanRoutesResult struct {
	Output domain.RouteOptimizerOutput
	Routes []PlannedRoute
}

// PlanRoutes runs the full pipeline: fetch the travel-time matrix from the
// cartographer, solve the optimization problem, and optionally fetch per-route
// geometry for every route that visits at least one stop.
func PlanRoutes(
	ctx context.Context,
	req PlanRoutesRequest,
	cartographer ports.Cartographer,
	routeSolver ports.RouteSolver,
	opts ...RouteOptimizerOption,
) (_ *PlanRoutesResult, err error) {
	defer obs.Time(ctx, "services.PlanRoutes")(&err)

	if cartographer == nil {
		return nil, errors.New("plan routes: cartographer is required")
	}
	if len(req.Stops) < 2 {
		return nil, errors.New("plan routes: at least two stops are required")
	}
	if len(req.Demands) != len(req.Stops) {
		return nil, fmt.Errorf(
			"plan routes: %d demands for %d stops", len(req.Demands), len(req.Stops),
		)
	}

	matrix, err := cartographer.GetMatrix(ctx, req.Stops, req.Costing)
	if err != nil {
		return nil, fmt.Errorf("plan routes: get matrix: %w", err)
	}

	input := domain.RouteOptimizerInput{
		Mode:          req.Mode,
		TimeMatrix:    roundMatrix(matrix.TimeMatrix),
		Fleet:         req.Fleet,
		Demands:       req.Demands,
		MaxTravelTime: req.MaxTravelTime,
		SlackTime:     req.SlackTime,
	}

	optimizer, err := NewRouteOptimizer(input, routeSolver, opts...)
	if err != nil {
		return nil, fmt.Errorf("plan routes: %w", err)
	}

	output, err := optimizer.OptimizerSolver(ctx, req.LocalSearch, req.SolveTime)
	if err != nil {
		return nil, fmt.Errorf("plan routes: %w", err)
	}

	result := &PlanRoutesResult{Output: output, Routes: make([]PlannedRoute, 0, len(output.Routes))}
	for i, route := range output.Routes {
		planned := PlannedRoute{Route: route}
		for _, stop := range route.RouteStops {
			planned.StopCoordinates = append(planned.StopCoordinates, req.Stops[stop.StopID])
		}

		if req.IncludeGeometry && len(planned.StopCoordinates) >= 2 {
			geometry, err := cartographer.GetRoute(ctx, planned.StopCoordinates, req.Costing)
			if err != nil {
				// Geometry is decoration; the optimized route is still usable.
				log.Printf("plan routes: geometry for vehicle %d failed: %v", i, err)
			} else {
				planned.Geometry = &geometry
			}
		}

		result.Routes = append(result.Routes, planned)
	}

	return result, nil
}

// roundMatrix converts provider float seconds to the whole seconds the
// optimizer works in.
func roundMatrix(matrix [][]float64) [][]int64 {
	out := make([][]int64, len(matrix))
	for i, row := range matrix {
		out[i] = make([]int64, len(row))
		for j, v := range row {
			out[i][j] = int64(math.Round(v))
		}
	}
	return out
}
