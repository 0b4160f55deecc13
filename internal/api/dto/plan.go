package dto

import "fleet-route-service/internal/domain"

type PlanRequest struct {
	Mode            string              `json:"mode"`
	Stops           []Stop              `json:"stops"`
	Demands         []int64             `json:"demands"`
	Fleet           []domain.FleetEntry `json:"fleet"`
	MaxTravelTime   int64               `json:"max_travel_time"`
	SlackTime       int64               `json:"slack_time"`
	Costing         string              `json:"costing"`
	LocalSearch     bool                `json:"local_search"`
	MaxTimeSecs     int64               `json:"max_time"`
	IncludeGeometry bool                `json:"include_geometry"`
}

type PlanRouteResponse struct {
	domain.Route
	StopCoordinates [][2]float64   `json:"stop_coordinates"`
	Geometry        *RouteResponse `json:"geometry,omitempty"`
}

type PlanResponse struct {
	MaxTravelTime int64               `json:"max_travel_time"`
	SlackTime     int64               `json:"slack_time"`
	Routes        []PlanRouteResponse `json:"routes"`
}
