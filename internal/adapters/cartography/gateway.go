package cartography

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
)

// maxConcurrentSlices bounds the number of matrix rectangles fetched at once.
const maxConcurrentSlices = 4

// Gateway implements ports.Cartographer on top of a raw Provider.
//
// It coordinates:
//   - Chunking oversized matrix requests into provider-sized rectangles
//   - Splitting long routes into overlapping waypoint windows
//   - Rate limiting and bounded-concurrency dispatch of provider calls
//   - Optional caching of assembled matrices
//
// The gateway is safe for concurrent use.
type Gateway struct {
	provider          Provider
	maxRouteStops     int
	maxMatrixElements int
	limiter           *rate.Limiter
	cache             ports.MatrixCache
}

type GatewayOption func(*Gateway)

// WithMatrixCache enables caching of assembled matrices.
func WithMatrixCache(cache ports.MatrixCache) GatewayOption {
	return func(g *Gateway) { g.cache = cache }
}

// WithRateLimit caps provider calls at rps requests per second.
func WithRateLimit(rps float64) GatewayOption {
	return func(g *Gateway) {
		if rps > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func NewGateway(provider Provider, maxRouteStops, maxMatrixElements int, opts ...GatewayOption) (*Gateway, error) {
	if provider == nil {
		return nil, errors.New("cartography gateway: provider is nil")
	}
	if maxRouteStops < 2 {
		return nil, fmt.Errorf("cartography gateway: maxRouteStops must be at least 2, got %d", maxRouteStops)
	}
	if maxMatrixElements < 1 {
		return nil, fmt.Errorf("cartography gateway: maxMatrixElements must be at least 1, got %d", maxMatrixElements)
	}

	g := &Gateway{
		provider:          provider,
		maxRouteStops:     maxRouteStops,
		maxMatrixElements: maxMatrixElements,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// GetMatrix assembles the all-pairs time/distance matrices for the stops,
// fetching element-capped rectangles from the provider. Rectangles never
// overlap, so each provider result commits into its own region of the
// output matrices.
func (g *Gateway) GetMatrix(
	ctx context.Context,
	stops []domain.Coordinates,
	costing string,
) (_ domain.MatrixResult, err error) {
	defer obs.Time(ctx, "cartography.GetMatrix")(&err)

	if costing == "" {
		costing = g.provider.DefaultCosting()
	}
	if len(stops) == 0 {
		return domain.MatrixResult{}, errors.New("get matrix: at least one stop is required")
	}

	key := matrixCacheKey(stops, costing)
	if g.cache != nil {
		cached, ok, err := g.cache.Get(ctx, key)
		if err != nil {
			log.Printf("matrix cache read failed: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	n := len(stops)
	slices, err := SliceMatrix(0, n, 0, n, g.maxMatrixElements)
	if err != nil {
		return domain.MatrixResult{}, fmt.Errorf("get matrix: %w", err)
	}

	times := newMatrix(n, n)
	distances := newMatrix(n, n)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentSlices)
	for _, s := range slices {
		eg.Go(func() error {
			if err := g.wait(egCtx); err != nil {
				return err
			}

			part, err := g.provider.Matrix(egCtx, stops[s.StartRow:s.EndRow], stops[s.StartCol:s.EndCol], costing)
			if err != nil {
				return fmt.Errorf("matrix slice rows [%d,%d) cols [%d,%d): %w",
					s.StartRow, s.EndRow, s.StartCol, s.EndCol, err)
			}
			if len(part.TimeMatrix) != s.EndRow-s.StartRow || len(part.DistanceMatrix) != s.EndRow-s.StartRow {
				return fmt.Errorf("matrix slice rows [%d,%d) cols [%d,%d): provider returned %dx%d result",
					s.StartRow, s.EndRow, s.StartCol, s.EndCol, len(part.TimeMatrix), len(part.DistanceMatrix))
			}

			for i := s.StartRow; i < s.EndRow; i++ {
				copy(times[i][s.StartCol:s.EndCol], part.TimeMatrix[i-s.StartRow])
				copy(distances[i][s.StartCol:s.EndCol], part.DistanceMatrix[i-s.StartRow])
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return domain.MatrixResult{}, fmt.Errorf("get matrix: %w", err)
	}

	result := domain.MatrixResult{TimeMatrix: times, DistanceMatrix: distances}
	if g.cache != nil {
		if err := g.cache.Put(ctx, key, result); err != nil {
			log.Printf("matrix cache write failed: %v", err)
		}
	}
	return result, nil
}

// GetRoute fetches a route through the stops in order, splitting long stop
// lists into waypoint-capped windows. Consecutive windows share one boundary
// stop, so concatenating their legs yields a continuous route with no
// duplicated leg.
func (g *Gateway) GetRoute(
	ctx context.Context,
	stops []domain.Coordinates,
	costing string,
) (_ domain.CartographyRoute, err error) {
	defer obs.Time(ctx, "cartography.GetRoute")(&err)

	if costing == "" {
		costing = g.provider.DefaultCosting()
	}
	if len(stops) < 2 {
		return domain.CartographyRoute{}, errors.New("get route: at least two stops are required")
	}

	windows, err := RouteWindows(len(stops), g.maxRouteStops)
	if err != nil {
		return domain.CartographyRoute{}, fmt.Errorf("get route: %w", err)
	}

	var route domain.CartographyRoute
	for _, w := range windows {
		if err := g.wait(ctx); err != nil {
			return domain.CartographyRoute{}, err
		}

		part, err := g.provider.Route(ctx, stops[w[0]:w[1]], costing)
		if err != nil {
			return domain.CartographyRoute{}, fmt.Errorf("get route: window [%d,%d): %w", w[0], w[1], err)
		}
		if err := part.Validate(); err != nil {
			return domain.CartographyRoute{}, fmt.Errorf("get route: window [%d,%d): %w", w[0], w[1], err)
		}
		route.Append(part)
	}
	return route, nil
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// matrixCacheKey hashes the stop coordinates and costing profile into a
// stable cache key.
func matrixCacheKey(stops []domain.Coordinates, costing string) string {
	buf := make([]byte, 0, len(stops)*16+len(costing))
	var scratch [8]byte
	for _, s := range stops {
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(s.Lat))
		buf = append(buf, scratch[:]...)
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(s.Lon))
		buf = append(buf, scratch[:]...)
	}
	buf = append(buf, costing...)
	return fmt.Sprintf("matrix:%016x", xxh3.Hash(buf))
}
