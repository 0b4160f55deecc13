package domain

// RouteOptimizerInput carries everything needed to build one optimization
// problem. Times are whole seconds and share units with SlackTime and
// MaxTravelTime. Index 0 of the time matrix is always the depot, and
// Demands is aligned with the matrix index space.
type RouteOptimizerInput struct {
	Mode          RouteMode
	TimeMatrix    [][]int64
	Fleet         Fleet
	Demands       []int64
	MaxTravelTime int64
	SlackTime     int64
}

// RouteStop is one visited stop in a reconstructed route. StopID is the
// time-matrix index of the stop. VehicleOccupancy is only populated on the
// synthetic depot-arrival stop of inbound routes.
type RouteStop struct {
	StopID           int   `json:"stop_id"`
	StopDemand       int64 `json:"stop_demand"`
	VehicleOccupancy int64 `json:"vehicle_occupancy"`
	TravelTime       int64 `json:"travel_time"`
}

// Route is the reconstructed plan for a single vehicle. A vehicle with no
// stops is a valid, unused route.
type Route struct {
	VehicleCapacity        int64       `json:"vehicle_capacity"`
	VehicleTravelOccupancy int64       `json:"vehicle_travel_occupancy"`
	VehicleTravelTime      int64       `json:"vehicle_travel_time"`
	RouteStops             []RouteStop `json:"route_stops"`
}

// RouteOptimizerOutput holds one Route per configured vehicle, idle vehicles
// included. An infeasible solve is reported as zero MaxTravelTime and an
// empty Routes slice, never as an error.
type RouteOptimizerOutput struct {
	MaxTravelTime int64   `json:"max_travel_time"`
	SlackTime     int64   `json:"slack_time"`
	Routes        []Route `json:"routes"`
}

// GridSearchOutput reports the cheapest relaxations under which the problem
// became solvable: extra travel time in seconds, extra vehicles, or neither.
type GridSearchOutput struct {
	ExtraTime     int64      `json:"extra_time"`
	ExtraVehicles FleetEntry `json:"extra_vehicles"`
	Message       string     `json:"message"`
}
