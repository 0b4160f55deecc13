package domain

import "fmt"

// FleetEntry describes a group of identical vehicles.
type FleetEntry struct {
	Capacity         int64 `json:"capacity"`
	NumberOfVehicles int   `json:"number_of_vehicles"`
}

// Fleet is an ordered sequence of vehicle groups.
type Fleet []FleetEntry

// VehicleCapacities expands the fleet into one capacity value per physical
// vehicle, preserving entry order.
func (f Fleet) VehicleCapacities() []int64 {
	capacities := make([]int64, 0, len(f))
	for _, entry := range f {
		for i := 0; i < entry.NumberOfVehicles; i++ {
			capacities = append(capacities, entry.Capacity)
		}
	}
	return capacities
}

// MaxCapacity returns the largest capacity among all configured vehicles.
func (f Fleet) MaxCapacity() int64 {
	var max int64
	for _, entry := range f {
		if entry.Capacity > max {
			max = entry.Capacity
		}
	}
	return max
}

func (f Fleet) Validate() error {
	if len(f) == 0 {
		return fmt.Errorf("fleet must contain at least one entry")
	}
	for i, entry := range f {
		if entry.Capacity <= 0 {
			return fmt.Errorf("fleet entry %d: capacity must be positive, got %d", i, entry.Capacity)
		}
		if entry.NumberOfVehicles <= 0 {
			return fmt.Errorf("fleet entry %d: number_of_vehicles must be positive, got %d", i, entry.NumberOfVehicles)
		}
	}
	return nil
}
