package cartography

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"fleet-route-service/internal/domain"
)

func newTestValhallaClient(t *testing.T, handler http.Handler) *ValhallaClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewValhallaClient(server.URL, domain.DistanceMetricKilometers)
	require.NoError(t, err)
	return client
}

func valhallaLegBody(shape string, time, length float64) string {
	return fmt.Sprintf(`{"shape":%q,"summary":{"time":%g,"length":%g}}`, shape, time, length)
}

func TestValhallaMatrixParsesResponse(t *testing.T) {
	client := newTestValhallaClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sources_to_targets", r.URL.Path)

		var req valhallaMatrixRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "bus", req.Costing)
		require.Len(t, req.Sources, 2)

		fmt.Fprint(w, `{
			"sources":[{"lat":0,"lon":0},{"lat":1,"lon":-1}],
			"targets":[{"lat":0,"lon":0},{"lat":1,"lon":-1}],
			"sources_to_targets":[
				[{"distance":0,"time":0},{"distance":1.5,"time":90}],
				[{"distance":1.5,"time":95},{"distance":0,"time":0}]
			]
		}`)
	}))

	stops := testStops(2)
	result, err := client.Matrix(context.Background(), stops, stops, "")
	require.NoError(t, err)
	require.Equal(t, [][]float64{{0, 90}, {95, 0}}, result.TimeMatrix)
	require.Equal(t, [][]float64{{0, 1.5}, {1.5, 0}}, result.DistanceMatrix)
}

func TestValhallaMatrixFallsBackToRouteOnNullCell(t *testing.T) {
	shape := string(valhallaPolylineCodec.EncodeCoords(nil, [][]float64{{0, 0}, {1, -1}}))
	routeCalls := 0

	client := newTestValhallaClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sources_to_targets":
			fmt.Fprint(w, `{
				"sources":[{"lat":0,"lon":0}],
				"targets":[{"lat":0,"lon":0},{"lat":1,"lon":-1}],
				"sources_to_targets":[[{"distance":0,"time":0},{"distance":null,"time":null}]]
			}`)
		case "/route":
			routeCalls++
			fmt.Fprintf(w, `{"trip":{"legs":[%s]}}`, valhallaLegBody(shape, 120, 2.5))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	result, err := client.Matrix(context.Background(), testStops(1), testStops(2), "")
	require.NoError(t, err)
	require.Equal(t, 1, routeCalls)
	require.Equal(t, 120.0, result.TimeMatrix[0][1])
	require.Equal(t, 2.5, result.DistanceMatrix[0][1])
}

func TestValhallaMatrixFailsOnMissingSources(t *testing.T) {
	client := newTestValhallaClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"targets":[{"lat":0,"lon":0}],"sources_to_targets":[[{"distance":0,"time":0}]]}`)
	}))

	_, err := client.Matrix(context.Background(), testStops(1), testStops(1), "")
	require.ErrorContains(t, err, "'sources' missing")
}

func TestValhallaRouteParsesLegs(t *testing.T) {
	shape := string(valhallaPolylineCodec.EncodeCoords(nil, [][]float64{{41.3851, 2.1734}, {41.4, 2.2}}))
	client := newTestValhallaClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/route", r.URL.Path)
		fmt.Fprintf(w, `{"trip":{"legs":[%s,%s]}}`,
			valhallaLegBody(shape, 60, 1.2), valhallaLegBody(shape, 30, 0.4))
	}))

	route, err := client.Route(context.Background(), testStops(3), "")
	require.NoError(t, err)
	require.Equal(t, []float64{60, 30}, route.Times)
	require.Equal(t, []float64{1.2, 0.4}, route.Distances)
	require.Len(t, route.Coordinates, 4)
	require.InDelta(t, 41.3851, route.Coordinates[0].Lat, 1e-6)
}

func TestValhallaRouteFailsOnMissingSummary(t *testing.T) {
	shape := string(valhallaPolylineCodec.EncodeCoords(nil, [][]float64{{1, 1}}))
	client := newTestValhallaClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"trip":{"legs":[{"shape":%q}]}}`, shape)
	}))

	_, err := client.Route(context.Background(), testStops(2), "")
	require.ErrorContains(t, err, "'summary' missing")
}

func TestValhallaMeterConversion(t *testing.T) {
	client := newTestValhallaClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"sources":[{"lat":0,"lon":0}],
			"targets":[{"lat":1,"lon":-1}],
			"sources_to_targets":[[{"distance":1.5,"time":90}]]
		}`)
	}))
	client.distanceFactor = 1000

	result, err := client.Matrix(context.Background(), testStops(1), testStops(1), "")
	require.NoError(t, err)
	require.Equal(t, 1500.0, result.DistanceMatrix[0][0])
}
