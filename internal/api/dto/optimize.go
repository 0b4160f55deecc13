package dto

import "fleet-route-service/internal/domain"

type OptimizeRequest struct {
	Mode          string              `json:"mode"`
	TimeMatrix    [][]int64           `json:"time_matrix"`
	Fleet         []domain.FleetEntry `json:"fleet"`
	Demands       []int64             `json:"demands"`
	MaxTravelTime int64               `json:"max_travel_time"`
	SlackTime     int64               `json:"slack_time"`
	LocalSearch   bool                `json:"local_search"`
	MaxTimeSecs   int64               `json:"max_time"`
}

func (r OptimizeRequest) Input() domain.RouteOptimizerInput {
	return domain.RouteOptimizerInput{
		Mode:          domain.RouteMode(r.Mode),
		TimeMatrix:    r.TimeMatrix,
		Fleet:         domain.Fleet(r.Fleet),
		Demands:       r.Demands,
		MaxTravelTime: r.MaxTravelTime,
		SlackTime:     r.SlackTime,
	}
}

type OptimizeResponse struct {
	RunID string `json:"run_id,omitempty"`
	domain.RouteOptimizerOutput
}

type GridSearchResponse struct {
	RunID string `json:"run_id,omitempty"`
	domain.GridSearchOutput
}
