package repositories

import (
	"database/sql"
	"fmt"
)

// InitSchema creates the service's tables if they do not exist.
func InitSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS optimizer_runs (
			id uuid PRIMARY KEY,
			mode text NOT NULL,
			status text NOT NULL,
			input jsonb NOT NULL,
			output jsonb,
			solution_found boolean NOT NULL DEFAULT false,
			error_log text,
			created timestamptz NOT NULL DEFAULT now(),
			updated timestamptz NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS optimizer_runs_created_idx ON optimizer_runs (created DESC);`,
		`CREATE TABLE IF NOT EXISTS matrix_cache (
			cache_key text PRIMARY KEY,
			payload jsonb NOT NULL,
			created timestamptz NOT NULL DEFAULT now(),
			updated timestamptz NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
