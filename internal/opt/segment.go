package opt

// segmentCluster splits a cluster's members into capacity-sized trips,
// preserving enumeration order so the split is reproducible. A cluster of 10
// with capacity 4 yields [4 4 2]. Capacity must be positive; anything else is
// a per-vehicle CapacityError.
func segmentCluster(memberIDs []int, vehicleID string, capacity int) ([][]int, error) {
	if capacity <= 0 {
		return nil, &CapacityError{VehicleID: vehicleID, Capacity: capacity}
	}
	if len(memberIDs) == 0 {
		return nil, nil
	}
	trips := make([][]int, 0, (len(memberIDs)+capacity-1)/capacity)
	for start := 0; start < len(memberIDs); start += capacity {
		end := start + capacity
		if end > len(memberIDs) {
			end = len(memberIDs)
		}
		trips = append(trips, memberIDs[start:end])
	}
	return trips, nil
}
