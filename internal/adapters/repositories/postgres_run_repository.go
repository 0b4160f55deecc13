package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
)

// PostgresRunRepository persists optimization runs in Postgres.
type PostgresRunRepository struct {
	DB *sql.DB
}

func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{DB: db}
}

// Create stores a new run in pending state.
func (r *PostgresRunRepository) Create(ctx context.Context, run *domain.OptimizationRun) (err error) {
	defer obs.Time(ctx, "runs.Create")(&err)

	if r.DB == nil {
		return errors.New("run repository: db is nil")
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("create run: id must not be empty")
	}

	q := `
	INSERT INTO optimizer_runs (id, mode, status, input, created, updated)
	VALUES ($1, $2, $3, $4, now(), now());
	`
	if _, err := r.DB.ExecContext(ctx, q, run.ID, string(run.Mode), domain.RunStatusPending, []byte(run.Input)); err != nil {
		return fmt.Errorf("create run %q: %w", run.ID, err)
	}
	return nil
}

// Finish records the terminal state of a run.
func (r *PostgresRunRepository) Finish(ctx context.Context, run *domain.OptimizationRun) (err error) {
	defer obs.Time(ctx, "runs.Finish")(&err)

	if r.DB == nil {
		return errors.New("run repository: db is nil")
	}

	var output any
	if len(run.Output) > 0 {
		output = []byte(run.Output)
	}

	q := `
	UPDATE optimizer_runs
	SET status = $2,
		output = $3,
		solution_found = $4,
		error_log = $5,
		updated = now()
	WHERE id = $1;
	`
	res, err := r.DB.ExecContext(ctx, q, run.ID, run.Status, output, run.SolutionFound, run.ErrorLog)
	if err != nil {
		return fmt.Errorf("finish run %q: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %q: run not found", run.ID)
	}
	return nil
}

// Get retrieves a single run by ID.
func (r *PostgresRunRepository) Get(ctx context.Context, id string) (_ *domain.OptimizationRun, err error) {
	defer obs.Time(ctx, "runs.Get")(&err)

	if r.DB == nil {
		return nil, errors.New("run repository: db is nil")
	}

	q := `
	SELECT id, mode, status, input, COALESCE(output, 'null'), solution_found, COALESCE(error_log, ''), created, updated
	FROM optimizer_runs
	WHERE id = $1;
	`
	run, err := scanRun(r.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %q: not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %q: %w", id, err)
	}
	return run, nil
}

// List retrieves the most recent runs, newest first.
func (r *PostgresRunRepository) List(ctx context.Context, limit int) (_ []*domain.OptimizationRun, err error) {
	defer obs.Time(ctx, "runs.List")(&err)

	if r.DB == nil {
		return nil, errors.New("run repository: db is nil")
	}
	if limit < 1 {
		limit = 50
	}

	q := `
	SELECT id, mode, status, input, COALESCE(output, 'null'), solution_found, COALESCE(error_log, ''), created, updated
	FROM optimizer_runs
	ORDER BY created DESC
	LIMIT $1;
	`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: query optimizer_runs table: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.OptimizationRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: row iteration: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.OptimizationRun, error) {
	var run domain.OptimizationRun
	var mode string
	var input, output []byte
	if err := row.Scan(
		&run.ID, &mode, &run.Status, &input, &output,
		&run.SolutionFound, &run.ErrorLog, &run.Created, &run.Updated,
	); err != nil {
		return nil, err
	}
	run.Mode = domain.RouteMode(mode)
	run.Input = input
	run.Output = output
	return &run, nil
}
