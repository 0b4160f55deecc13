package cartography

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/twpayne/go-polyline"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/metrics"
)

// valhallaPolylineCodec decodes Valhalla's six-decimal polyline encoding.
var valhallaPolylineCodec = polyline.Codec{Dim: 2, Scale: 1e6}

// ValhallaClient talks to a Valhalla routing server. It is safe for
// concurrent use.
type ValhallaClient struct {
	transport *transport
	baseURL   string
	// distanceFactor converts Valhalla's kilometer distances into the
	// configured distance metric.
	distanceFactor float64
}

func NewValhallaClient(baseURL string, metric domain.DistanceMetric) (*ValhallaClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("valhalla client: base url is empty")
	}
	if err := metric.Validate(); err != nil {
		return nil, fmt.Errorf("valhalla client: %w", err)
	}

	factor := 1.0
	if metric == domain.DistanceMetricMeters {
		factor = 1000
	}

	return &ValhallaClient{
		transport:      newTransport(),
		baseURL:        strings.TrimRight(baseURL, "/"),
		distanceFactor: factor,
	}, nil
}

func (v *ValhallaClient) Name() string           { return "valhalla" }
func (v *ValhallaClient) DefaultCosting() string { return "bus" }

type valhallaStop struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type valhallaMatrixRequest struct {
	Sources []valhallaStop `json:"sources"`
	Targets []valhallaStop `json:"targets"`
	Costing string         `json:"costing"`
}

type valhallaMatrixCell struct {
	Distance *float64 `json:"distance"`
	Time     *float64 `json:"time"`
}

type valhallaMatrixResponse struct {
	Sources          []valhallaStop         `json:"sources"`
	Targets          []valhallaStop         `json:"targets"`
	SourcesToTargets [][]valhallaMatrixCell `json:"sources_to_targets"`
}

// Matrix fetches one rectangle of the time/distance matrix. Cells the matrix
// service cannot reach come back null; those are filled by routing the pair
// directly, matching the matrix service's fallback semantics.
func (v *ValhallaClient) Matrix(
	ctx context.Context,
	origins, destinations []domain.Coordinates,
	costing string,
) (domain.MatrixResult, error) {
	if costing == "" {
		costing = v.DefaultCosting()
	}
	if len(origins) == 0 || len(destinations) == 0 {
		return domain.MatrixResult{}, errors.New("valhalla matrix: origins and destinations must be non-empty")
	}

	reqBody := valhallaMatrixRequest{
		Sources: prepareValhallaStops(origins),
		Targets: prepareValhallaStops(destinations),
		Costing: costing,
	}

	var mr valhallaMatrixResponse
	if err := v.call(ctx, "sources_to_targets", reqBody, &mr); err != nil {
		return domain.MatrixResult{}, err
	}

	if len(mr.Sources) == 0 {
		return domain.MatrixResult{}, errors.New("valhalla matrix: 'sources' missing in response")
	}
	if len(mr.Targets) == 0 {
		return domain.MatrixResult{}, errors.New("valhalla matrix: 'targets' missing in response")
	}
	if len(mr.SourcesToTargets) != len(origins) {
		return domain.MatrixResult{}, fmt.Errorf(
			"valhalla matrix: expected %d source rows, got %d", len(origins), len(mr.SourcesToTargets),
		)
	}

	times := make([][]float64, len(origins))
	distances := make([][]float64, len(origins))
	for i, row := range mr.SourcesToTargets {
		if len(row) != len(destinations) {
			return domain.MatrixResult{}, fmt.Errorf(
				"valhalla matrix: row %d has %d cells, expected %d", i, len(row), len(destinations),
			)
		}

		times[i] = make([]float64, len(destinations))
		distances[i] = make([]float64, len(destinations))
		for j, cell := range row {
			if cell.Distance == nil || cell.Time == nil {
				route, err := v.Route(ctx, []domain.Coordinates{origins[i], destinations[j]}, costing)
				if err != nil {
					return domain.MatrixResult{}, fmt.Errorf(
						"valhalla matrix: route fallback for cell [%d][%d]: %w", i, j, err,
					)
				}
				times[i][j] = route.Times[0]
				distances[i][j] = route.Distances[0]
				continue
			}
			times[i][j] = *cell.Time
			distances[i][j] = *cell.Distance * v.distanceFactor
		}
	}

	return domain.MatrixResult{TimeMatrix: times, DistanceMatrix: distances}, nil
}

type valhallaLeg struct {
	Shape   string `json:"shape"`
	Summary *struct {
		Time   *float64 `json:"time"`
		Length *float64 `json:"length"`
	} `json:"summary"`
}

type valhallaRouteResponse struct {
	Trip *struct {
		Legs []valhallaLeg `json:"legs"`
	} `json:"trip"`
}

type valhallaRouteRequest struct {
	Locations []valhallaStop `json:"locations"`
	Costing   string         `json:"costing"`
}

// Route fetches one route window through the stops in order.
func (v *ValhallaClient) Route(
	ctx context.Context,
	stops []domain.Coordinates,
	costing string,
) (domain.CartographyRoute, error) {
	if costing == "" {
		costing = v.DefaultCosting()
	}
	if len(stops) < 2 {
		return domain.CartographyRoute{}, errors.New("valhalla route: at least two stops are required")
	}

	reqBody := valhallaRouteRequest{
		Locations: prepareValhallaStops(stops),
		Costing:   costing,
	}

	var rr valhallaRouteResponse
	if err := v.call(ctx, "route", reqBody, &rr); err != nil {
		return domain.CartographyRoute{}, err
	}

	if rr.Trip == nil {
		return domain.CartographyRoute{}, errors.New("valhalla route: 'trip' missing in response")
	}
	if len(rr.Trip.Legs) == 0 {
		return domain.CartographyRoute{}, errors.New("valhalla route: 'legs' missing in response")
	}

	var out domain.CartographyRoute
	for i, leg := range rr.Trip.Legs {
		coords, _, err := valhallaPolylineCodec.DecodeCoords([]byte(leg.Shape))
		if err != nil {
			return domain.CartographyRoute{}, fmt.Errorf("valhalla route: decode leg %d shape: %w", i, err)
		}
		for _, c := range coords {
			out.Coordinates = append(out.Coordinates, domain.Coordinates{Lat: c[0], Lon: c[1]})
		}

		if leg.Summary == nil || leg.Summary.Time == nil || leg.Summary.Length == nil {
			return domain.CartographyRoute{}, fmt.Errorf("valhalla route: 'summary' missing in leg %d", i)
		}
		out.Times = append(out.Times, *leg.Summary.Time)
		out.Distances = append(out.Distances, *leg.Summary.Length*v.distanceFactor)
	}

	return out, nil
}

func (v *ValhallaClient) call(ctx context.Context, service string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal valhalla %s request: %w", service, err)
	}

	endpoint := fmt.Sprintf("%s/%s", v.baseURL, service)
	resp, err := v.transport.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		metrics.CartographyRequests.WithLabelValues(v.Name(), service, "error").Inc()
		return fmt.Errorf("valhalla %s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.CartographyRequests.WithLabelValues(v.Name(), service, "error").Inc()
		return fmt.Errorf("decode valhalla %s response: %w", service, err)
	}
	metrics.CartographyRequests.WithLabelValues(v.Name(), service, "ok").Inc()
	return nil
}

func prepareValhallaStops(stops []domain.Coordinates) []valhallaStop {
	out := make([]valhallaStop, 0, len(stops))
	for _, s := range stops {
		out = append(out, valhallaStop{Lat: s.Lat, Lon: s.Lon})
	}
	return out
}
