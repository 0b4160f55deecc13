package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"fleet-route-service/internal/adapters/solver"
	"fleet-route-service/internal/domain"
)

// fakeCartographer serves a fixed matrix and records geometry requests.
type fakeCartographer struct {
	matrix      domain.MatrixResult
	matrixErr   error
	routeErr    error
	routeCalls  [][]domain.Coordinates
	matrixCalls int
}

func (f *fakeCartographer) GetMatrix(
	_ context.Context, stops []domain.Coordinates, _ string,
) (domain.MatrixResult, error) {
	f.matrixCalls++
	if f.matrixErr != nil {
		return domain.MatrixResult{}, f.matrixErr
	}
	return f.matrix, nil
}

func (f *fakeCartographer) GetRoute(
	_ context.Context, stops []domain.Coordinates, _ string,
) (domain.CartographyRoute, error) {
	f.routeCalls = append(f.routeCalls, stops)
	if f.routeErr != nil {
		return domain.CartographyRoute{}, f.routeErr
	}
	return domain.CartographyRoute{
		Coordinates: stops,
		Times:       make([]float64, len(stops)-1),
		Distances:   make([]float64, len(stops)-1),
	}, nil
}

func planStops() []domain.Coordinates {
	return []domain.Coordinates{
		{Lat: 40.0, Lon: -3.0},
		{Lat: 40.1, Lon: -3.1},
		{Lat: 40.2, Lon: -3.2},
		{Lat: 40.3, Lon: -3.3},
	}
}

func planRequest() PlanRoutesRequest {
	return PlanRoutesRequest{
		Mode:          domain.RouteModeOutbound,
		Stops:         planStops(),
		Demands:       []int64{0, 10, 20, 15},
		Fleet:         domain.Fleet{{Capacity: 50, NumberOfVehicles: 2}},
		MaxTravelTime: 1000,
	}
}

func uniformFloatMatrix(n int, cost float64) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = cost
			}
		}
	}
	return m
}

func TestPlanRoutesEndToEnd(t *testing.T) {
	cart := &fakeCartographer{
		matrix: domain.MatrixResult{TimeMatrix: uniformFloatMatrix(4, 9.6)},
	}

	result, err := PlanRoutes(context.Background(), planRequest(), cart, solver.NewEngine())
	require.NoError(t, err)
	require.Equal(t, 1, cart.matrixCalls)
	require.Empty(t, cart.routeCalls)

	// Provider seconds round to 10 per leg: one vehicle chains all three
	// stops for a 30s route, the other stays at the depot.
	require.Len(t, result.Routes, 2)
	loaded := result.Routes[0]
	require.Equal(t, int64(30), loaded.VehicleTravelTime)
	require.Equal(t, int64(45), loaded.VehicleTravelOccupancy)
	require.Equal(t, planStops(), loaded.StopCoordinates)
	require.Nil(t, loaded.Geometry)

	idle := result.Routes[1]
	require.Equal(t, []domain.Coordinates{planStops()[0]}, idle.StopCoordinates)
}

func TestPlanRoutesFetchesGeometryForUsedRoutes(t *testing.T) {
	cart := &fakeCartographer{
		matrix: domain.MatrixResult{TimeMatrix: uniformFloatMatrix(4, 10)},
	}
	req := planRequest()
	req.IncludeGeometry = true

	result, err := PlanRoutes(context.Background(), req, cart, solver.NewEngine())
	require.NoError(t, err)

	// Only the loaded route has two or more stops to draw.
	require.Len(t, cart.routeCalls, 1)
	require.Equal(t, planStops(), cart.routeCalls[0])

	require.NotNil(t, result.Routes[0].Geometry)
	require.Len(t, result.Routes[0].Geometry.Times, 3)
	require.Nil(t, result.Routes[1].Geometry)
}

func TestPlanRoutesGeometryFailureIsNotFatal(t *testing.T) {
	cart := &fakeCartographer{
		matrix:   domain.MatrixResult{TimeMatrix: uniformFloatMatrix(4, 10)},
		routeErr: errors.New("provider down"),
	}
	req := planRequest()
	req.IncludeGeometry = true

	result, err := PlanRoutes(context.Background(), req, cart, solver.NewEngine())
	require.NoError(t, err)
	require.Nil(t, result.Routes[0].Geometry)
	require.Equal(t, int64(30), result.Routes[0].VehicleTravelTime)
}

func TestPlanRoutesMatrixFailureIsFatal(t *testing.T) {
	cart := &fakeCartographer{matrixErr: errors.New("quota exceeded")}

	_, err := PlanRoutes(context.Background(), planRequest(), cart, solver.NewEngine())
	require.ErrorContains(t, err, "get matrix")
}

func TestPlanRoutesValidatesRequest(t *testing.T) {
	cart := &fakeCartographer{
		matrix: domain.MatrixResult{TimeMatrix: uniformFloatMatrix(4, 10)},
	}

	_, err := PlanRoutes(context.Background(), planRequest(), nil, solver.NewEngine())
	require.Error(t, err)

	req := planRequest()
	req.Stops = req.Stops[:1]
	_, err = PlanRoutes(context.Background(), req, cart, solver.NewEngine())
	require.Error(t, err)

	req = planRequest()
	req.Demands = req.Demands[:2]
	_, err = PlanRoutes(context.Background(), req, cart, solver.NewEngine())
	require.Error(t, err)
	require.Zero(t, cart.matrixCalls)
}

func TestRoundMatrix(t *testing.T) {
	got := roundMatrix([][]float64{
		{0, 9.4, 9.5},
		{10.6, 0, 0.2},
		{1.5, 2.5, 0},
	})
	want := [][]int64{
		{0, 9, 10},
		{11, 0, 0},
		{2, 3, 0},
	}
	require.Equal(t, want, got)
}
