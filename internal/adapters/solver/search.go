package solver

import (
	"context"
	"slices"
	"time"
)

// guided local search: repeatedly descend to a local optimum of the
// penalty-augmented objective, then penalize the highest-utility arcs of the
// current solution to push the search elsewhere. The best solution by true
// cost is kept throughout.
type glsState struct {
	h         *handle
	penalties [][]int64
	lambda    int64
}

// improve runs guided local search until the deadline or context expires and
// returns the best solution found by true objective.
func (h *handle) improve(ctx context.Context, routes [][]int, deadline time.Time) [][]int {
	best := cloneRoutes(routes)
	bestObj := h.objective(routes)

	n := h.model.NumNodes
	penalties := make([][]int64, n)
	for i := range penalties {
		penalties[i] = make([]int64, n)
	}
	gls := &glsState{h: h, penalties: penalties, lambda: glsLambda(bestObj, routes)}

	for {
		if expired(ctx, deadline) {
			return best
		}

		gls.descend(ctx, routes, deadline)

		if obj := h.objective(routes); obj < bestObj {
			best = cloneRoutes(routes)
			bestObj = obj
		}

		if expired(ctx, deadline) {
			return best
		}
		gls.penalizeMaxUtility(routes)
	}
}

// glsLambda scales penalties to a fraction of the mean arc cost of the
// initial solution.
func glsLambda(objective int64, routes [][]int) int64 {
	arcs := 0
	for _, route := range routes {
		if len(route) > 0 {
			arcs += len(route) + 1
		}
	}
	if arcs == 0 {
		return 1
	}
	lambda := objective / int64(10*arcs)
	if lambda < 1 {
		lambda = 1
	}
	return lambda
}

func (g *glsState) augArc(from, to int) int64 {
	return g.h.arcCost(from, to) + g.lambda*g.penalties[from][to]
}

func (g *glsState) augRouteCost(route []int) int64 {
	if len(route) == 0 {
		return 0
	}
	var cost int64
	cur := g.h.model.Depot
	for _, node := range route {
		cost += g.augArc(cur, node)
		cur = node
	}
	return cost + g.augArc(cur, g.h.model.Depot)
}

func (g *glsState) augObjective(routes [][]int) int64 {
	var total int64
	for _, route := range routes {
		if len(route) == 0 {
			continue
		}
		total += g.h.fixedCost + g.augRouteCost(route)
	}
	return total
}

// descend applies first-improvement moves on the augmented objective until a
// local optimum is reached. Moves are scanned in a fixed order, so the
// descent is deterministic.
func (g *glsState) descend(ctx context.Context, routes [][]int, deadline time.Time) {
	for {
		if expired(ctx, deadline) {
			return
		}
		if g.tryRelocate(routes) {
			continue
		}
		if g.trySwap(routes) {
			continue
		}
		if g.tryTwoOpt(routes) {
			continue
		}
		return
	}
}

// tryRelocate moves one node to another position in any route.
func (g *glsState) tryRelocate(routes [][]int) bool {
	base := g.augObjective(routes)
	for v1 := range routes {
		for i := 0; i < len(routes[v1]); i++ {
			node := routes[v1][i]
			removed := withoutIndex(routes[v1], i)

			for v2 := range routes {
				target := routes[v2]
				if v2 == v1 {
					target = removed
				}
				for pos := 0; pos <= len(target); pos++ {
					if v2 == v1 && pos == i {
						continue
					}
					candidate := withInserted(target, pos, node)
					if !g.h.feasible(candidate, v2) {
						continue
					}

					old1, old2 := routes[v1], routes[v2]
					routes[v1] = removed
					routes[v2] = candidate
					if g.augObjective(routes) < base {
						return true
					}
					routes[v1], routes[v2] = old1, old2
				}
			}
		}
	}
	return false
}

// trySwap exchanges two nodes between distinct routes.
func (g *glsState) trySwap(routes [][]int) bool {
	base := g.augObjective(routes)
	for v1 := range routes {
		for v2 := v1 + 1; v2 < len(routes); v2++ {
			for i := 0; i < len(routes[v1]); i++ {
				for j := 0; j < len(routes[v2]); j++ {
					r1 := cloneRoute(routes[v1])
					r2 := cloneRoute(routes[v2])
					r1[i], r2[j] = r2[j], r1[i]
					if !g.h.feasible(r1, v1) || !g.h.feasible(r2, v2) {
						continue
					}

					old1, old2 := routes[v1], routes[v2]
					routes[v1], routes[v2] = r1, r2
					if g.augObjective(routes) < base {
						return true
					}
					routes[v1], routes[v2] = old1, old2
				}
			}
		}
	}
	return false
}

// tryTwoOpt reverses a segment within a single route.
func (g *glsState) tryTwoOpt(routes [][]int) bool {
	base := g.augObjective(routes)
	for v := range routes {
		route := routes[v]
		for i := 0; i < len(route)-1; i++ {
			for j := i + 1; j < len(route); j++ {
				candidate := cloneRoute(route)
				slices.Reverse(candidate[i : j+1])
				if !g.h.feasible(candidate, v) {
					continue
				}

				routes[v] = candidate
				if g.augObjective(routes) < base {
					return true
				}
				routes[v] = route
			}
		}
	}
	return false
}

// penalizeMaxUtility increments the penalty of every arc in the current
// solution whose utility cost/(1+penalty) is maximal.
func (g *glsState) penalizeMaxUtility(routes [][]int) {
	type arc struct{ from, to int }
	var maxUtil int64 = -1
	var worst []arc

	for _, route := range routes {
		if len(route) == 0 {
			continue
		}
		cur := g.h.model.Depot
		for k := 0; k <= len(route); k++ {
			next := g.h.model.Depot
			if k < len(route) {
				next = route[k]
			}
			util := g.h.arcCost(cur, next) / (1 + g.penalties[cur][next])
			if util > maxUtil {
				maxUtil = util
				worst = worst[:0]
			}
			if util == maxUtil {
				worst = append(worst, arc{cur, next})
			}
			cur = next
		}
	}

	for _, a := range worst {
		g.penalties[a.from][a.to]++
	}
}

func expired(ctx context.Context, deadline time.Time) bool {
	return ctx.Err() != nil || !time.Now().Before(deadline)
}

func cloneRoutes(routes [][]int) [][]int {
	out := make([][]int, len(routes))
	for i, r := range routes {
		out[i] = cloneRoute(r)
	}
	return out
}

func cloneRoute(route []int) []int {
	out := make([]int, len(route))
	copy(out, route)
	return out
}

func withoutIndex(route []int, i int) []int {
	out := make([]int, 0, len(route)-1)
	out = append(out, route[:i]...)
	return append(out, route[i+1:]...)
}

func withInserted(route []int, pos, node int) []int {
	out := make([]int, 0, len(route)+1)
	out = append(out, route[:pos]...)
	out = append(out, node)
	return append(out, route[pos:]...)
}
