package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/metrics"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
)

const (
	defaultVehiclePenalty       = 10000
	defaultGridSearchTimeLimit  = 30 * time.Second
	defaultGridSearchIterations = 3
)

// RouteOptimizer drives a routing solver over one optimization problem.
//
// The caller's time matrix is copied on construction and adjusted once for
// the depot convention of the mode: inbound sets row 0 to -SlackTime so the
// realized depot-to-anywhere cost is exactly zero after the per-stop slack is
// added, outbound does the same to column 0. Escalation rebuilds reuse the
// adjusted matrix; the adjustment is never reapplied.
//
// A RouteOptimizer is not safe for concurrent use: grid search mutates the
// internal model and routing handle between attempts. Use one instance per
// logical optimization request.
type RouteOptimizer struct {
	mode          domain.RouteMode
	timeMatrix    [][]int64
	fleet         domain.Fleet
	demands       []int64
	maxTravelTime int64
	slackTime     int64

	vehiclePenalty       int64
	gridSearchTimeLimit  time.Duration
	gridSearchIterations int

	solver ports.RouteSolver
	model  ports.SolverModel
	handle ports.RoutingHandle
}

type RouteOptimizerOption func(*RouteOptimizer)

// WithVehiclePenalty overrides the fixed cost charged per used vehicle.
// Near zero, the solver prioritizes finishing fastest with the full fleet
// instead of minimizing vehicle count.
func WithVehiclePenalty(penalty int64) RouteOptimizerOption {
	return func(r *RouteOptimizer) { r.vehiclePenalty = penalty }
}

// WithGridSearchTimeLimit overrides the per-attempt solve budget used by
// grid search.
func WithGridSearchTimeLimit(limit time.Duration) RouteOptimizerOption {
	return func(r *RouteOptimizer) { r.gridSearchTimeLimit = limit }
}

// WithGridSearchIterations overrides the per-phase escalation cap.
func WithGridSearchIterations(iterations int) RouteOptimizerOption {
	return func(r *RouteOptimizer) { r.gridSearchIterations = iterations }
}

func NewRouteOptimizer(
	input domain.RouteOptimizerInput,
	routeSolver ports.RouteSolver,
	opts ...RouteOptimizerOption,
) (*RouteOptimizer, error) {
	if routeSolver == nil {
		return nil, errors.New("route optimizer: solver is required")
	}
	if err := validateInput(input); err != nil {
		return nil, fmt.Errorf("route optimizer: %w", err)
	}

	r := &RouteOptimizer{
		mode:                 input.Mode,
		timeMatrix:           adjustDepotAxis(input),
		fleet:                input.Fleet,
		demands:              input.Demands,
		maxTravelTime:        input.MaxTravelTime,
		slackTime:            input.SlackTime,
		vehiclePenalty:       defaultVehiclePenalty,
		gridSearchTimeLimit:  defaultGridSearchTimeLimit,
		gridSearchIterations: defaultGridSearchIterations,
		solver:               routeSolver,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.vehiclePenalty < 0 {
		return nil, fmt.Errorf("route optimizer: vehicle penalty must be non-negative, got %d", r.vehiclePenalty)
	}
	if r.gridSearchIterations < 1 {
		return nil, fmt.Errorf("route optimizer: grid search iterations must be positive, got %d", r.gridSearchIterations)
	}

	if err := r.rebuild(0, 0); err != nil {
		return nil, err
	}
	return r, nil
}

func validateInput(input domain.RouteOptimizerInput) error {
	if err := input.Mode.Validate(); err != nil {
		return err
	}

	n := len(input.TimeMatrix)
	if n == 0 {
		return errors.New("time matrix is empty")
	}
	for i, row := range input.TimeMatrix {
		if len(row) != n {
			return fmt.Errorf("time matrix is not square: row %d has %d columns, expected %d", i, len(row), n)
		}
	}

	if len(input.Demands) != n {
		return fmt.Errorf("demands length %d does not match matrix dimension %d", len(input.Demands), n)
	}
	if input.Demands[0] != 0 {
		return fmt.Errorf("depot demand must be zero, got %d", input.Demands[0])
	}
	for i, d := range input.Demands {
		if d < 0 {
			return fmt.Errorf("demand at stop %d must be non-negative, got %d", i, d)
		}
	}

	if err := input.Fleet.Validate(); err != nil {
		return err
	}
	if input.SlackTime < 0 {
		return fmt.Errorf("slack time must be non-negative, got %d", input.SlackTime)
	}
	if input.MaxTravelTime <= 0 {
		return fmt.Errorf("max travel time must be positive, got %d", input.MaxTravelTime)
	}
	return nil
}

// adjustDepotAxis copies the input matrix and applies the depot convention:
// the depot-adjacent axis is set to -SlackTime so the realized transit cost
// of those arcs, slack included, is exactly zero. The depot then acts as a
// free start (outbound end) without a dummy duplicate node.
func adjustDepotAxis(input domain.RouteOptimizerInput) [][]int64 {
	n := len(input.TimeMatrix)
	matrix := make([][]int64, n)
	for i, row := range input.TimeMatrix {
		matrix[i] = make([]int64, n)
		copy(matrix[i], row)
	}

	if input.Mode == domain.RouteModeInbound {
		for j := range matrix[0] {
			matrix[0][j] = -input.SlackTime
		}
	} else {
		for i := range matrix {
			matrix[i][0] = -input.SlackTime
		}
	}
	return matrix
}

// rebuild assembles the solver model and routing handle, optionally relaxed
// with extra vehicles or extra travel time. Extra vehicles are assigned the
// maximum capacity of the configured fleet so escalation never starves them.
func (r *RouteOptimizer) rebuild(extraVehicles int, extraMaxTravelTime int64) error {
	capacities := r.fleet.VehicleCapacities()
	maxCapacity := r.fleet.MaxCapacity()
	for i := 0; i < extraVehicles; i++ {
		capacities = append(capacities, maxCapacity)
	}

	r.model = ports.SolverModel{
		NumNodes:          len(r.timeMatrix),
		Demands:           r.demands,
		VehicleCapacities: capacities,
		NumVehicles:       len(capacities),
		Depot:             0,
		MaxTravelTime:     r.maxTravelTime + extraMaxTravelTime,
	}

	arcCost := func(from, to int) int64 {
		return r.timeMatrix[from][to] + r.slackTime
	}
	demand := func(node int) int64 {
		return r.demands[node]
	}

	handle, err := r.solver.Build(r.model, arcCost, demand, r.vehiclePenalty)
	if err != nil {
		return fmt.Errorf("route optimizer: build model: %w", err)
	}
	r.handle = handle
	return nil
}

// OptimizerSolver runs a single best-effort solve. Infeasibility is reported
// as an output with no routes and zero max travel time, never as an error.
// maxTime only bounds the search when local search is enabled.
func (r *RouteOptimizer) OptimizerSolver(
	ctx context.Context,
	localSearch bool,
	maxTime time.Duration,
) (_ domain.RouteOptimizerOutput, err error) {
	defer obs.Time(ctx, "optimizer.Solve")(&err)

	cfg := ports.SearchConfig{
		FirstSolution: ports.PathCheapestArc,
		LocalSearch:   localSearch,
		Metaheuristic: ports.GuidedLocalSearch,
		TimeLimit:     maxTime,
	}

	solution, err := r.solveAttempt(ctx, "single", cfg)
	if err != nil {
		return domain.RouteOptimizerOutput{}, err
	}
	if solution == nil {
		log.Printf("op=optimizer.Solve mode=%s result=infeasible", r.mode)
		return domain.RouteOptimizerOutput{MaxTravelTime: 0, SlackTime: 0, Routes: []domain.Route{}}, nil
	}
	return r.extractOutput(solution), nil
}

// extractOutput reconstructs domain routes from a solver solution. It walks
// each vehicle from its start marker, recording per-stop arrival times from
// the time dimension and summing traversed arc costs. The vehicle penalty was
// folded into the arc objective, so a positive route time has it subtracted
// once to recover the true travel time. Inbound routes move the leading depot
// stop to the tail as a synthetic arrival carrying the final occupancy.
func (r *RouteOptimizer) extractOutput(solution ports.SolverSolution) domain.RouteOptimizerOutput {
	routes := make([]domain.Route, 0, r.model.NumVehicles)

	for vehicle := 0; vehicle < r.model.NumVehicles; vehicle++ {
		index := solution.Start(vehicle)
		var stops []domain.RouteStop
		var routeTime, routeLoad int64

		for !solution.IsEnd(index) {
			node := solution.Node(index)
			arrival := solution.CumulativeTime(index)
			routeLoad += r.demands[node]

			previous := index
			index = solution.Next(index)
			routeTime += solution.ArcCost(previous, index, vehicle)

			stops = append(stops, domain.RouteStop{
				StopID:     node,
				StopDemand: r.demands[node],
				TravelTime: arrival,
			})
		}

		// A used vehicle carries the folded vehicle penalty in its arc costs.
		if routeTime > 0 {
			routeTime -= r.vehiclePenalty
		}

		if r.mode == domain.RouteModeInbound {
			depotStop := domain.RouteStop{
				StopID:           0,
				StopDemand:       0,
				VehicleOccupancy: routeLoad,
				TravelTime:       routeTime,
			}
			stops = append(stops[1:], depotStop)
		}

		routes = append(routes, domain.Route{
			VehicleCapacity:        r.model.VehicleCapacities[vehicle],
			VehicleTravelOccupancy: routeLoad,
			VehicleTravelTime:      routeTime,
			RouteStops:             stops,
		})
	}

	return domain.RouteOptimizerOutput{
		MaxTravelTime: r.model.MaxTravelTime,
		SlackTime:     r.slackTime,
		Routes:        routes,
	}
}

// GridSearch escalates an infeasible problem through bounded relaxations:
// first extra travel time in one-minute steps, then extra vehicles from the
// original non-relaxed state. The two phases run independently so the caller
// gets two minimal-change remediation options rather than one compound
// change. The baseline model is rebuilt before returning, leaving the
// optimizer consistent for later solves.
func (r *RouteOptimizer) GridSearch(ctx context.Context) (_ domain.GridSearchOutput, err error) {
	defer obs.Time(ctx, "optimizer.GridSearch")(&err)

	cfg := ports.SearchConfig{
		FirstSolution: ports.PathCheapestArc,
		TimeLimit:     r.gridSearchTimeLimit,
	}

	solution, err := r.solveAttempt(ctx, "baseline", cfg)
	if err != nil {
		return domain.GridSearchOutput{}, err
	}
	if solution != nil {
		return domain.GridSearchOutput{
			ExtraTime:     0,
			ExtraVehicles: domain.FleetEntry{},
			Message:       "Solution found without grid search",
		}, nil
	}

	log.Printf("op=optimizer.GridSearch mode=%s baseline=infeasible", r.mode)
	return r.gridSearchSolver(ctx, cfg)
}

func (r *RouteOptimizer) gridSearchSolver(
	ctx context.Context,
	cfg ports.SearchConfig,
) (domain.GridSearchOutput, error) {
	var messages []string
	var extraTime int64
	var extraVehicles domain.FleetEntry

	for i := 1; i <= r.gridSearchIterations; i++ {
		if err := r.rebuild(0, int64(i*60)); err != nil {
			return domain.GridSearchOutput{}, err
		}
		solution, err := r.solveAttempt(ctx, "extra_time", cfg)
		if err != nil {
			return domain.GridSearchOutput{}, err
		}
		if solution != nil {
			extraTime = int64(i * 60)
			messages = append(messages, fmt.Sprintf("Solution can be found with %d minutes more of extra time", i))
			break
		}
	}

	// Vehicle escalation restarts from the original, non-time-relaxed state.
	for i := 1; i <= r.gridSearchIterations; i++ {
		if err := r.rebuild(i, 0); err != nil {
			return domain.GridSearchOutput{}, err
		}
		solution, err := r.solveAttempt(ctx, "extra_vehicles", cfg)
		if err != nil {
			return domain.GridSearchOutput{}, err
		}
		if solution != nil {
			extraVehicles = domain.FleetEntry{
				NumberOfVehicles: i,
				Capacity:         r.fleet.MaxCapacity(),
			}
			messages = append(messages, fmt.Sprintf("Solution can be found with %d vehicle/s more", i))
			break
		}
	}

	if len(messages) == 0 {
		messages = append(messages, "No solution found with extra vehicles or extra time.")
	}

	if err := r.rebuild(0, 0); err != nil {
		return domain.GridSearchOutput{}, err
	}

	return domain.GridSearchOutput{
		ExtraTime:     extraTime,
		ExtraVehicles: extraVehicles,
		Message:       strings.Join(messages, " or "),
	}, nil
}

func (r *RouteOptimizer) solveAttempt(
	ctx context.Context,
	phase string,
	cfg ports.SearchConfig,
) (ports.SolverSolution, error) {
	timer := prometheus.NewTimer(metrics.SolveDuration.WithLabelValues(phase))
	solution, err := r.handle.Solve(ctx, cfg)
	timer.ObserveDuration()

	outcome := "solved"
	switch {
	case err != nil:
		outcome = "error"
	case solution == nil:
		outcome = "infeasible"
	}
	metrics.SolverAttempts.WithLabelValues(phase, outcome).Inc()

	if err != nil {
		return nil, fmt.Errorf("solve attempt (%s): %w", phase, err)
	}
	return solution, nil
}
