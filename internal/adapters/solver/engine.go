// Package solver provides a native vehicle-routing engine implementing the
// ports.RouteSolver capability: path-cheapest-arc construction followed by an
// optional guided-local-search improvement phase. The engine is fully
// deterministic; ties always break toward the lowest index.
package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-route-service/internal/ports"
)

type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Build validates the model and prepares a reusable routing handle.
func (e *Engine) Build(
	model ports.SolverModel,
	arcCost ports.ArcCostFunc,
	demand ports.DemandFunc,
	vehicleFixedCost int64,
) (ports.RoutingHandle, error) {
	if model.NumNodes < 1 {
		return nil, fmt.Errorf("solver build: model has %d nodes", model.NumNodes)
	}
	if model.Depot < 0 || model.Depot >= model.NumNodes {
		return nil, fmt.Errorf("solver build: depot %d out of range [0,%d)", model.Depot, model.NumNodes)
	}
	if model.NumVehicles < 1 {
		return nil, fmt.Errorf("solver build: model has %d vehicles", model.NumVehicles)
	}
	if len(model.VehicleCapacities) != model.NumVehicles {
		return nil, fmt.Errorf(
			"solver build: %d capacities for %d vehicles",
			len(model.VehicleCapacities), model.NumVehicles,
		)
	}
	if arcCost == nil || demand == nil {
		return nil, errors.New("solver build: arc cost and demand callbacks are required")
	}
	if vehicleFixedCost < 0 {
		return nil, fmt.Errorf("solver build: vehicle fixed cost must be non-negative, got %d", vehicleFixedCost)
	}

	return &handle{
		model:     model,
		arcCost:   arcCost,
		demand:    demand,
		fixedCost: vehicleFixedCost,
	}, nil
}

type handle struct {
	model     ports.SolverModel
	arcCost   ports.ArcCostFunc
	demand    ports.DemandFunc
	fixedCost int64
}

// Solve runs construction and, when enabled, local search. It returns
// (nil, nil) when the construction heuristic cannot place every node.
func (h *handle) Solve(ctx context.Context, cfg ports.SearchConfig) (ports.SolverSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	routes, ok := h.construct()
	if !ok {
		return nil, nil
	}

	if cfg.LocalSearch {
		deadline := time.Now().Add(cfg.TimeLimit)
		routes = h.improve(ctx, routes, deadline)
	}

	return h.newSolution(routes), nil
}

// construct builds an initial assignment with the path-cheapest-arc
// heuristic: each vehicle in turn extends its route by the cheapest feasible
// arc until nothing fits, then a cheapest-insertion repair pass places any
// stranded nodes.
func (h *handle) construct() ([][]int, bool) {
	m := h.model
	visited := make([]bool, m.NumNodes)
	visited[m.Depot] = true

	remaining := m.NumNodes - 1
	routes := make([][]int, m.NumVehicles)

	for v := 0; v < m.NumVehicles && remaining > 0; v++ {
		cur := m.Depot
		var load, elapsed int64

		for {
			best := -1
			var bestCost int64
			for node := 0; node < m.NumNodes; node++ {
				if visited[node] {
					continue
				}
				cost := h.arcCost(cur, node)
				if load+h.demand(node) > m.VehicleCapacities[v] {
					continue
				}
				// The route must remain closable within the time ceiling.
				if elapsed+cost > m.MaxTravelTime ||
					elapsed+cost+h.arcCost(node, m.Depot) > m.MaxTravelTime {
					continue
				}
				if best == -1 || cost < bestCost {
					best, bestCost = node, cost
				}
			}
			if best == -1 {
				break
			}

			routes[v] = append(routes[v], best)
			visited[best] = true
			remaining--
			load += h.demand(best)
			elapsed += bestCost
			cur = best
		}
	}

	if remaining == 0 {
		return routes, true
	}

	// Repair pass: cheapest feasible insertion for every stranded node.
	for node := 0; node < m.NumNodes; node++ {
		if visited[node] {
			continue
		}

		bestVehicle, bestPos := -1, -1
		var bestDelta int64
		for v := 0; v < m.NumVehicles; v++ {
			for pos := 0; pos <= len(routes[v]); pos++ {
				delta, ok := h.insertionDelta(routes[v], v, node, pos)
				if !ok {
					continue
				}
				if bestVehicle == -1 || delta < bestDelta {
					bestVehicle, bestPos, bestDelta = v, pos, delta
				}
			}
		}
		if bestVehicle == -1 {
			return nil, false
		}

		route := routes[bestVehicle]
		route = append(route[:bestPos], append([]int{node}, route[bestPos:]...)...)
		routes[bestVehicle] = route
		visited[node] = true
	}

	return routes, true
}

// insertionDelta returns the cost increase of inserting node at pos, or
// ok=false when the resulting route violates capacity or the time ceiling.
func (h *handle) insertionDelta(route []int, vehicle, node, pos int) (int64, bool) {
	candidate := make([]int, 0, len(route)+1)
	candidate = append(candidate, route[:pos]...)
	candidate = append(candidate, node)
	candidate = append(candidate, route[pos:]...)

	if !h.feasible(candidate, vehicle) {
		return 0, false
	}
	return h.routeCost(candidate) - h.routeCost(route), true
}

// feasible checks capacity and the cumulative time ceiling at every stop,
// including the closing arc back to the depot.
func (h *handle) feasible(route []int, vehicle int) bool {
	m := h.model
	var load, elapsed int64
	cur := m.Depot
	for _, node := range route {
		load += h.demand(node)
		if load > m.VehicleCapacities[vehicle] {
			return false
		}
		elapsed += h.arcCost(cur, node)
		if elapsed > m.MaxTravelTime {
			return false
		}
		cur = node
	}
	if len(route) > 0 && elapsed+h.arcCost(cur, m.Depot) > m.MaxTravelTime {
		return false
	}
	return true
}

// routeCost sums the arc costs of depot -> route -> depot. Empty routes
// cost nothing.
func (h *handle) routeCost(route []int) int64 {
	if len(route) == 0 {
		return 0
	}
	var cost int64
	cur := h.model.Depot
	for _, node := range route {
		cost += h.arcCost(cur, node)
		cur = node
	}
	return cost + h.arcCost(cur, h.model.Depot)
}

// objective is the true solver objective: arc costs plus the fixed cost of
// every vehicle that leaves its start.
func (h *handle) objective(routes [][]int) int64 {
	var total int64
	for _, route := range routes {
		if len(route) == 0 {
			continue
		}
		total += h.fixedCost + h.routeCost(route)
	}
	return total
}
