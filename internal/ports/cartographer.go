package ports

import (
	"context"

	"fleet-route-service/internal/domain"
)

// Port: a boundary for retrieving travel-time matrices and route geometry
// from an external cartography provider.
type Cartographer interface {
	// GetMatrix returns the all-pairs time/distance matrices for the stops.
	GetMatrix(ctx context.Context, stops []domain.Coordinates, costing string) (domain.MatrixResult, error)
	// GetRoute returns a drivable route visiting the stops in order.
	GetRoute(ctx context.Context, stops []domain.Coordinates, costing string) (domain.CartographyRoute, error)
}
