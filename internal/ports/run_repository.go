package ports

import (
	"context"

	"fleet-route-service/internal/domain"
)

// Port: a boundary for persisting optimization runs.
type RunRepository interface {
	// Create stores a new run in pending state.
	Create(ctx context.Context, run *domain.OptimizationRun) error
	// Finish records the terminal state of a run.
	Finish(ctx context.Context, run *domain.OptimizationRun) error
	// Get retrieves a single run by ID.
	Get(ctx context.Context, id string) (*domain.OptimizationRun, error)
	// List retrieves the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*domain.OptimizationRun, error)
}
