package cartography

import (
	"context"

	"fleet-route-service/internal/domain"
)

// Provider is a raw cartography backend. Each call serves one bounded matrix
// rectangle or one bounded route window; chunking and reassembly live in the
// Gateway, above this interface.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// DefaultCosting is the travel-mode profile used when none is given.
	DefaultCosting() string
	// Matrix returns origin-by-destination time and distance matrices.
	Matrix(ctx context.Context, origins, destinations []domain.Coordinates, costing string) (domain.MatrixResult, error)
	// Route returns one route through an ordered window of stops.
	Route(ctx context.Context, stops []domain.Coordinates, costing string) (domain.CartographyRoute, error)
}
