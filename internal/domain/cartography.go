package domain

import "fmt"

// MatrixResult pairs the travel-time and distance matrices for one stop set.
// Both matrices have identical shape and must not be mutated after
// construction.
type MatrixResult struct {
	TimeMatrix     [][]float64 `json:"time_matrix"`
	DistanceMatrix [][]float64 `json:"distance_matrix"`
}

// CartographyRoute is a drivable route through an ordered stop list:
// the decoded geometry plus per-leg travel times and distances.
type CartographyRoute struct {
	Coordinates []Coordinates `json:"coordinates"`
	Times       []float64     `json:"times"`
	Distances   []float64     `json:"distances"`
}

// Append extends the route with the legs of another route, preserving order.
func (r *CartographyRoute) Append(other CartographyRoute) {
	r.Coordinates = append(r.Coordinates, other.Coordinates...)
	r.Times = append(r.Times, other.Times...)
	r.Distances = append(r.Distances, other.Distances...)
}

func (r CartographyRoute) Validate() error {
	if len(r.Times) != len(r.Distances) {
		return fmt.Errorf("route has %d leg times but %d leg distances", len(r.Times), len(r.Distances))
	}
	return nil
}

// DistanceMetric selects the unit distances are reported in.
type DistanceMetric string

const (
	DistanceMetricMeters     DistanceMetric = "meters"
	DistanceMetricKilometers DistanceMetric = "kilometers"
)

func (m DistanceMetric) Validate() error {
	switch m {
	case DistanceMetricMeters, DistanceMetricKilometers:
		return nil
	}
	return fmt.Errorf("invalid distance metric %q", string(m))
}
