package domain

import "fmt"

// RouteMode distinguishes the two depot conventions of a routing problem.
// Inbound routes converge from many origins to the depot; outbound routes
// diverge from the depot to many destinations.
type RouteMode string

const (
	RouteModeInbound  RouteMode = "inbound"
	RouteModeOutbound RouteMode = "outbound"
)

func (m RouteMode) Validate() error {
	switch m {
	case RouteModeInbound, RouteModeOutbound:
		return nil
	}
	return fmt.Errorf("invalid route mode %q", string(m))
}
