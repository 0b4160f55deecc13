package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
)

// SQLMatrixCache is a Postgres-backed cache for assembled time/distance
// matrices. Unlike the Redis cache it has no TTL; stale entries are evicted
// by the dbtool maintenance commands.
type SQLMatrixCache struct {
	DB *sql.DB
}

func NewSQLMatrixCache(db *sql.DB) *SQLMatrixCache {
	return &SQLMatrixCache{DB: db}
}

func (s *SQLMatrixCache) Get(ctx context.Context, key string) (_ domain.MatrixResult, _ bool, err error) {
	defer obs.Time(ctx, "matrix.cache.Get")(&err)

	if s.DB == nil {
		return domain.MatrixResult{}, false, errors.New("matrix cache: db is nil")
	}
	if key == "" {
		return domain.MatrixResult{}, false, errors.New("get matrix cache: key must not be empty")
	}

	var payload []byte
	q := `SELECT payload FROM matrix_cache WHERE cache_key = $1;`
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MatrixResult{}, false, nil
	}
	if err != nil {
		return domain.MatrixResult{}, false, fmt.Errorf("get matrix cache: query matrix_cache table: %w", err)
	}

	var result domain.MatrixResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.MatrixResult{}, false, fmt.Errorf("get matrix cache: decode %q: %w", key, err)
	}
	return result, true, nil
}

func (s *SQLMatrixCache) Put(ctx context.Context, key string, result domain.MatrixResult) error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}
	if key == "" {
		return errors.New("insert matrix cache: key must not be empty")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("insert matrix cache: encode %q: %w", key, err)
	}

	q := `
	INSERT INTO matrix_cache (cache_key, payload)
	VALUES ($1, $2)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		updated = now();
	`
	if _, err := s.DB.ExecContext(ctx, q, key, payload); err != nil {
		return fmt.Errorf("insert matrix cache: upsert key %q: %w", key, err)
	}
	return nil
}
