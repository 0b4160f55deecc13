package dto

import "fleet-route-service/internal/domain"

type Stop struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func Coordinates(stops []Stop) []domain.Coordinates {
	out := make([]domain.Coordinates, 0, len(stops))
	for _, s := range stops {
		out = append(out, domain.Coordinates{Lat: s.Lat, Lon: s.Lon})
	}
	return out
}

type MatrixRequest struct {
	Stops   []Stop `json:"stops"`
	Costing string `json:"costing"`
}

type MatrixResponse struct {
	TimeMatrix     [][]float64 `json:"time_matrix"`
	DistanceMatrix [][]float64 `json:"distance_matrix"`
}

type RouteRequest struct {
	Stops   []Stop `json:"stops"`
	Costing string `json:"costing"`
}

type RouteResponse struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Times       []float64    `json:"times"`
	Distances   []float64    `json:"distances"`
}

func NewRouteResponse(route domain.CartographyRoute) RouteResponse {
	res := RouteResponse{
		Coordinates: make([][2]float64, 0, len(route.Coordinates)),
		Times:       route.Times,
		Distances:   route.Distances,
	}
	for _, c := range route.Coordinates {
		res.Coordinates = append(res.Coordinates, [2]float64{c.Lat, c.Lon})
	}
	return res
}
