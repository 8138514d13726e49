package opt

import "fmt"

// InputError is fatal to an optimization run: there is nothing to assign or
// nothing to assign it to.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "invalid optimization input: " + e.Reason }

var (
	// ErrEmptyDemand is returned when no demand points were supplied.
	ErrEmptyDemand = &InputError{Reason: "no demand points"}
	// ErrNoActiveVehicles is returned when no vehicle is in an active state.
	ErrNoActiveVehicles = &InputError{Reason: "no active vehicles"}
)

// CapacityError marks a vehicle whose per-trip capacity is unusable. It is
// recorded per vehicle and never aborts the run; the vehicle simply receives
// zero trips.
type CapacityError struct {
	VehicleID string
	Capacity  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("vehicle %s has invalid capacity_per_trip %d", e.VehicleID, e.Capacity)
}
