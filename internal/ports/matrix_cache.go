package ports

import (
	"context"

	"fleet-route-service/internal/domain"
)

// Port: a cache for assembled time/distance matrices, keyed by the hashed
// stop set and costing profile.
type MatrixCache interface {
	// Get returns the cached matrices for a key, or ok=false on a miss.
	Get(ctx context.Context, key string) (result domain.MatrixResult, ok bool, err error)
	// Put stores the matrices for a key.
	Put(ctx context.Context, key string, result domain.MatrixResult) error
}
