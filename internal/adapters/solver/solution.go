package solver

import "fleet-route-service/internal/ports"

// solution is a frozen view of one assignment in the engine's routing-index
// space: indices below NumNodes are matrix nodes; vehicle v starts at
// NumNodes+2v and ends at NumNodes+2v+1.
type solution struct {
	model     ports.SolverModel
	arcCost   ports.ArcCostFunc
	fixedCost int64
	used      []bool
	next      map[int]int
	cumul     map[int]int64
}

func (h *handle) newSolution(routes [][]int) *solution {
	s := &solution{
		model:     h.model,
		arcCost:   h.arcCost,
		fixedCost: h.fixedCost,
		used:      make([]bool, h.model.NumVehicles),
		next:      make(map[int]int),
		cumul:     make(map[int]int64),
	}

	for v, route := range routes {
		s.used[v] = len(route) > 0

		index := s.Start(v)
		s.cumul[index] = 0
		node := h.model.Depot
		var elapsed int64

		for _, stop := range route {
			s.next[index] = stop
			elapsed += h.arcCost(node, stop)
			s.cumul[stop] = elapsed
			index, node = stop, stop
		}

		end := s.Start(v) + 1
		s.next[index] = end
		if len(route) > 0 {
			elapsed += h.arcCost(node, h.model.Depot)
		}
		s.cumul[end] = elapsed
	}

	return s
}

func (s *solution) Start(vehicle int) int {
	return s.model.NumNodes + 2*vehicle
}

func (s *solution) IsEnd(index int) bool {
	return index >= s.model.NumNodes && (index-s.model.NumNodes)%2 == 1
}

func (s *solution) Next(index int) int {
	return s.next[index]
}

func (s *solution) Node(index int) int {
	if index < s.model.NumNodes {
		return index
	}
	return s.model.Depot
}

func (s *solution) CumulativeTime(index int) int64 {
	return s.cumul[index]
}

func (s *solution) ArcCost(from, to, vehicle int) int64 {
	if from == s.Start(vehicle) && !s.used[vehicle] {
		return 0
	}
	cost := s.arcCost(s.Node(from), s.Node(to))
	if from == s.Start(vehicle) {
		cost += s.fixedCost
	}
	return cost
}
