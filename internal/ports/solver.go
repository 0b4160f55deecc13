package ports

import (
	"context"
	"time"
)

// ArcCostFunc returns the cost of traveling from one matrix node to another.
type ArcCostFunc func(from, to int) int64

// DemandFunc returns the demand picked up (or dropped off) at a node.
type DemandFunc func(node int) int64

// SolverModel is the solver-ready form of an optimization problem. NumNodes
// counts time-matrix indices, depot included.
type SolverModel struct {
	NumNodes          int
	Demands           []int64
	VehicleCapacities []int64
	NumVehicles       int
	Depot             int
	MaxTravelTime     int64
}

// FirstSolutionStrategy selects the construction heuristic.
type FirstSolutionStrategy int

const (
	// PathCheapestArc extends each route by the cheapest feasible arc.
	PathCheapestArc FirstSolutionStrategy = iota
)

// Metaheuristic selects the improvement search run after construction.
type Metaheuristic int

const (
	// GuidedLocalSearch escapes local optima by penalizing high-utility arcs.
	GuidedLocalSearch Metaheuristic = iota
)

// SearchConfig bounds a single solve attempt. TimeLimit only applies when
// LocalSearch is enabled; a construction-only solve returns as soon as an
// initial solution is found or proven out of reach.
type SearchConfig struct {
	FirstSolution FirstSolutionStrategy
	LocalSearch   bool
	Metaheuristic Metaheuristic
	TimeLimit     time.Duration
}

// RouteSolver is the combinatorial routing solver capability. Build registers
// the cost structure of a model; any conforming engine may be substituted.
type RouteSolver interface {
	// Build prepares a routing handle for the model. The arc cost is charged
	// on every traversed arc; vehicleFixedCost is charged once per vehicle
	// that leaves its start. Two cumulative dimensions constrain the search:
	// demand against per-vehicle capacity and arc cost against MaxTravelTime,
	// both with zero slack and cumul starting at zero.
	Build(model SolverModel, arcCost ArcCostFunc, demand DemandFunc, vehicleFixedCost int64) (RoutingHandle, error)
}

// RoutingHandle is a built model ready to be solved, possibly repeatedly.
type RoutingHandle interface {
	// Solve returns (nil, nil) when no feasible solution exists within the
	// search budget. Infeasibility is an expected outcome, not an error.
	Solve(ctx context.Context, cfg SearchConfig) (SolverSolution, error)
}

// SolverSolution is a read-only view of one feasible assignment, expressed in
// the solver's routing-index space: indices below NumNodes are matrix nodes,
// higher indices are per-vehicle start and end markers.
type SolverSolution interface {
	// Start returns the routing index a vehicle's path begins at.
	Start(vehicle int) int
	// IsEnd reports whether a routing index is a vehicle end marker.
	IsEnd(index int) bool
	// Next returns the routing index following index on its vehicle's path.
	Next(index int) int
	// Node maps a routing index to its time-matrix node.
	Node(index int) int
	// CumulativeTime is the value of the time dimension at a routing index.
	CumulativeTime(index int) int64
	// ArcCost is the objective cost charged for traversing an arc, including
	// the vehicle fixed cost folded into the first arc of a used vehicle.
	// The start-to-end arc of an unused vehicle costs zero.
	ArcCost(from, to, vehicle int) int64
}
