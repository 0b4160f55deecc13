package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fleet-route-service/internal/adapters/solver"
	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/domain"
)

// memoryRunRepository stores runs in a map for handler tests.
type memoryRunRepository struct {
	runs map[string]*domain.OptimizationRun
}

func newMemoryRunRepository() *memoryRunRepository {
	return &memoryRunRepository{runs: map[string]*domain.OptimizationRun{}}
}

func (m *memoryRunRepository) Create(_ context.Context, run *domain.OptimizationRun) error {
	stored := *run
	stored.Status = domain.RunStatusPending
	stored.Created = time.Now()
	m.runs[run.ID] = &stored
	return nil
}

func (m *memoryRunRepository) Finish(_ context.Context, run *domain.OptimizationRun) error {
	stored, ok := m.runs[run.ID]
	if !ok {
		return fmt.Errorf("run %s not found", run.ID)
	}
	stored.Status = run.Status
	stored.Output = run.Output
	stored.SolutionFound = run.SolutionFound
	stored.ErrorLog = run.ErrorLog
	stored.Updated = time.Now()
	return nil
}

func (m *memoryRunRepository) Get(_ context.Context, id string) (*domain.OptimizationRun, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, nil
}

func (m *memoryRunRepository) List(_ context.Context, limit int) ([]*domain.OptimizationRun, error) {
	var out []*domain.OptimizationRun
	for _, run := range m.runs {
		if len(out) == limit {
			break
		}
		out = append(out, run)
	}
	return out, nil
}

func newOptimizeHandler(repo *memoryRunRepository) *OptimizeHandler {
	return &OptimizeHandler{
		Solver:              solver.NewEngine(),
		Runs:                repo,
		VehiclePenalty:      10000,
		GridSearchTimeLimit: 100 * time.Millisecond,
	}
}

func optimizeBody(t *testing.T, mutate func(*dto.OptimizeRequest)) *bytes.Reader {
	t.Helper()

	req := dto.OptimizeRequest{
		Mode: "outbound",
		TimeMatrix: [][]int64{
			{0, 10, 10, 10},
			{10, 0, 10, 10},
			{10, 10, 0, 10},
			{10, 10, 10, 0},
		},
		Fleet:         []domain.FleetEntry{{Capacity: 50, NumberOfVehicles: 2}},
		Demands:       []int64{0, 10, 20, 15},
		MaxTravelTime: 1000,
	}
	if mutate != nil {
		mutate(&req)
	}

	body, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestOptimizeSolvesAndRecordsRun(t *testing.T) {
	repo := newMemoryRunRepository()
	handler := newOptimizeHandler(repo)

	req := httptest.NewRequest(http.MethodPost, "/optimize", optimizeBody(t, nil))
	rec := httptest.NewRecorder()
	handler.Optimize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res dto.OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.RunID)
	require.Equal(t, int64(1000), res.MaxTravelTime)
	require.Len(t, res.Routes, 2)
	require.Equal(t, int64(30), res.Routes[0].VehicleTravelTime)

	run, err := repo.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusSolved, run.Status)
	require.True(t, run.SolutionFound)
	require.NotEmpty(t, run.Input)
	require.NotEmpty(t, run.Output)
}

func TestOptimizeInfeasibleIsNoRouteNotError(t *testing.T) {
	repo := newMemoryRunRepository()
	handler := newOptimizeHandler(repo)

	body := optimizeBody(t, func(req *dto.OptimizeRequest) {
		req.Fleet = []domain.FleetEntry{{Capacity: 10, NumberOfVehicles: 1}}
	})
	req := httptest.NewRequest(http.MethodPost, "/optimize", body)
	rec := httptest.NewRecorder()
	handler.Optimize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Empty(t, res.Routes)

	run, err := repo.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusNoRoute, run.Status)
	require.False(t, run.SolutionFound)
}

func TestOptimizeWithoutRepositoryStillSolves(t *testing.T) {
	handler := newOptimizeHandler(nil)
	handler.Runs = nil

	req := httptest.NewRequest(http.MethodPost, "/optimize", optimizeBody(t, nil))
	rec := httptest.NewRecorder()
	handler.Optimize(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Empty(t, res.RunID)
	require.Len(t, res.Routes, 2)
}

func TestOptimizeRejectsBadRequests(t *testing.T) {
	handler := newOptimizeHandler(newMemoryRunRepository())

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/optimize", nil)
		rec := httptest.NewRecorder()
		handler.Optimize(rec, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		require.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/optimize", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		handler.Optimize(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/optimize",
			bytes.NewReader([]byte(`{"mode":"outbound","surprise":1}`)))
		rec := httptest.NewRecorder()
		handler.Optimize(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid model", func(t *testing.T) {
		body := optimizeBody(t, func(req *dto.OptimizeRequest) { req.Mode = "sideways" })
		req := httptest.NewRequest(http.MethodPost, "/optimize", body)
		rec := httptest.NewRecorder()
		handler.Optimize(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGridSearchEndpointFeasibleBaseline(t *testing.T) {
	repo := newMemoryRunRepository()
	handler := newOptimizeHandler(repo)

	req := httptest.NewRequest(http.MethodPost, "/optimize/grid", optimizeBody(t, nil))
	rec := httptest.NewRecorder()
	handler.GridSearch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.GridSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "Solution found without grid search", res.Message)
	require.Zero(t, res.ExtraTime)

	run, err := repo.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	require.True(t, run.SolutionFound)
}

func TestGridSearchEndpointReportsEscalation(t *testing.T) {
	handler := newOptimizeHandler(newMemoryRunRepository())

	body := optimizeBody(t, func(req *dto.OptimizeRequest) {
		req.Fleet = []domain.FleetEntry{{Capacity: 10, NumberOfVehicles: 1}}
		req.Demands = []int64{0, 10, 10, 10}
	})
	req := httptest.NewRequest(http.MethodPost, "/optimize/grid", body)
	rec := httptest.NewRecorder()
	handler.GridSearch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.GridSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "Solution can be found with 2 vehicle/s more", res.Message)
	require.Equal(t, domain.FleetEntry{Capacity: 10, NumberOfVehicles: 2}, res.ExtraVehicles)
}
