package cartography

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/twpayne/go-polyline"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/metrics"
)

// googlePolylineCodec decodes Google's five-decimal polyline encoding.
var googlePolylineCodec = polyline.Codec{Dim: 2, Scale: 1e5}

// GoogleClient talks to the Google Maps Distance Matrix and Directions
// REST APIs. It is safe for concurrent use.
type GoogleClient struct {
	transport *transport
	apiKey    string
	baseURL   string
	// distanceFactor converts the provider's meter distances into the
	// configured distance metric.
	distanceFactor float64
}

func NewGoogleClient(apiKey string, metric domain.DistanceMetric) (*GoogleClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google client: api key is empty")
	}
	if err := metric.Validate(); err != nil {
		return nil, fmt.Errorf("google client: %w", err)
	}

	factor := 1.0
	if metric == domain.DistanceMetricKilometers {
		factor = 1e-3
	}

	return &GoogleClient{
		transport:      newTransport(),
		apiKey:         apiKey,
		baseURL:        "https://maps.googleapis.com/maps/api",
		distanceFactor: factor,
	}, nil
}

func (g *GoogleClient) Name() string           { return "google" }
func (g *GoogleClient) DefaultCosting() string { return "driving" }

type googleValue struct {
	Value *float64 `json:"value"`
}

type googleElement struct {
	Duration *googleValue `json:"duration"`
	Distance *googleValue `json:"distance"`
}

type googleMatrixRow struct {
	Elements []googleElement `json:"elements"`
}

type googleMatrixResponse struct {
	Rows []googleMatrixRow `json:"rows"`
}

// Matrix fetches one rectangle of the time/distance matrix.
func (g *GoogleClient) Matrix(
	ctx context.Context,
	origins, destinations []domain.Coordinates,
	costing string,
) (domain.MatrixResult, error) {
	if costing == "" {
		costing = g.DefaultCosting()
	}
	if len(origins) == 0 || len(destinations) == 0 {
		return domain.MatrixResult{}, errors.New("google matrix: origins and destinations must be non-empty")
	}

	params := url.Values{}
	params.Set("origins", joinStops(origins))
	params.Set("destinations", joinStops(destinations))
	params.Set("mode", costing)
	params.Set("key", g.apiKey)
	endpoint := fmt.Sprintf("%s/distancematrix/json?%s", g.baseURL, params.Encode())

	var mr googleMatrixResponse
	if err := g.call(ctx, "distancematrix", endpoint, &mr); err != nil {
		return domain.MatrixResult{}, err
	}

	if len(mr.Rows) != len(origins) {
		return domain.MatrixResult{}, fmt.Errorf(
			"google matrix: expected %d rows, got %d", len(origins), len(mr.Rows),
		)
	}

	times := make([][]float64, len(origins))
	distances := make([][]float64, len(origins))
	for i, row := range mr.Rows {
		if len(row.Elements) != len(destinations) {
			return domain.MatrixResult{}, fmt.Errorf(
				"google matrix: row %d has %d elements, expected %d", i, len(row.Elements), len(destinations),
			)
		}

		times[i] = make([]float64, len(destinations))
		distances[i] = make([]float64, len(destinations))
		for j, el := range row.Elements {
			if el.Duration == nil || el.Duration.Value == nil {
				return domain.MatrixResult{}, fmt.Errorf("google matrix: 'duration' missing in element [%d][%d]", i, j)
			}
			if el.Distance == nil || el.Distance.Value == nil {
				return domain.MatrixResult{}, fmt.Errorf("google matrix: 'distance' missing in element [%d][%d]", i, j)
			}
			times[i][j] = *el.Duration.Value
			distances[i][j] = *el.Distance.Value * g.distanceFactor
		}
	}

	return domain.MatrixResult{TimeMatrix: times, DistanceMatrix: distances}, nil
}

type googleLeg struct {
	Duration *googleValue `json:"duration"`
	Distance *googleValue `json:"distance"`
}

type googleRoute struct {
	OverviewPolyline *struct {
		Points string `json:"points"`
	} `json:"overview_polyline"`
	Legs []googleLeg `json:"legs"`
}

type googleDirectionsResponse struct {
	Routes []googleRoute `json:"routes"`
}

// Route fetches one route window. The first stop is the origin, the last is
// the destination, and anything in between is sent as waypoints.
func (g *GoogleClient) Route(
	ctx context.Context,
	stops []domain.Coordinates,
	costing string,
) (domain.CartographyRoute, error) {
	if costing == "" {
		costing = g.DefaultCosting()
	}
	if len(stops) < 2 {
		return domain.CartographyRoute{}, errors.New("google route: at least two stops are required")
	}

	params := url.Values{}
	params.Set("origin", formatStop(stops[0]))
	params.Set("destination", formatStop(stops[len(stops)-1]))
	if len(stops) > 2 {
		params.Set("waypoints", joinStops(stops[1:len(stops)-1]))
	}
	params.Set("mode", costing)
	params.Set("key", g.apiKey)
	endpoint := fmt.Sprintf("%s/directions/json?%s", g.baseURL, params.Encode())

	var dr googleDirectionsResponse
	if err := g.call(ctx, "directions", endpoint, &dr); err != nil {
		return domain.CartographyRoute{}, err
	}

	if len(dr.Routes) == 0 {
		return domain.CartographyRoute{}, errors.New("google route: 'routes' missing or empty in response")
	}
	route := dr.Routes[0]
	if route.OverviewPolyline == nil {
		return domain.CartographyRoute{}, errors.New("google route: 'overview_polyline' missing in response")
	}
	if len(route.Legs) == 0 {
		return domain.CartographyRoute{}, errors.New("google route: 'legs' missing in response")
	}

	coords, _, err := googlePolylineCodec.DecodeCoords([]byte(route.OverviewPolyline.Points))
	if err != nil {
		return domain.CartographyRoute{}, fmt.Errorf("google route: decode polyline: %w", err)
	}

	out := domain.CartographyRoute{
		Coordinates: make([]domain.Coordinates, 0, len(coords)),
		Times:       make([]float64, 0, len(route.Legs)),
		Distances:   make([]float64, 0, len(route.Legs)),
	}
	for _, c := range coords {
		out.Coordinates = append(out.Coordinates, domain.Coordinates{Lat: c[0], Lon: c[1]})
	}
	for i, leg := range route.Legs {
		if leg.Duration == nil || leg.Duration.Value == nil {
			return domain.CartographyRoute{}, fmt.Errorf("google route: 'duration' missing in leg %d", i)
		}
		if leg.Distance == nil || leg.Distance.Value == nil {
			return domain.CartographyRoute{}, fmt.Errorf("google route: 'distance' missing in leg %d", i)
		}
		out.Times = append(out.Times, *leg.Duration.Value)
		out.Distances = append(out.Distances, *leg.Distance.Value*g.distanceFactor)
	}

	return out, nil
}

func (g *GoogleClient) call(ctx context.Context, endpoint, rawURL string, v any) error {
	resp, err := g.transport.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		metrics.CartographyRequests.WithLabelValues(g.Name(), endpoint, "error").Inc()
		return fmt.Errorf("google %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		metrics.CartographyRequests.WithLabelValues(g.Name(), endpoint, "error").Inc()
		return fmt.Errorf("decode google %s response: %w", endpoint, err)
	}
	metrics.CartographyRequests.WithLabelValues(g.Name(), endpoint, "ok").Inc()
	return nil
}

func formatStop(c domain.Coordinates) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lon)
}

func joinStops(stops []domain.Coordinates) string {
	parts := make([]string, 0, len(stops))
	for _, s := range stops {
		parts = append(parts, formatStop(s))
	}
	return strings.Join(parts, "|")
}
