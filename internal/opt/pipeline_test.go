package opt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/roadnet"
)

func pt(id int, lon, lat float64) model.DemandPoint {
	return model.DemandPoint{ID: id, Location: model.Coordinate{Lon: lon, Lat: lat}}
}

func truck(id string, capacity int) model.Vehicle {
	return model.Vehicle{ID: id, Type: "garbage_truck", Status: "ACTIVE", CapacityPerTrip: capacity}
}

// linePoints returns n demand points evenly spaced along the equator.
func linePoints(n int) []model.DemandPoint {
	out := make([]model.DemandPoint, n)
	for i := range out {
		out[i] = pt(i, float64(i)*0.001, 0)
	}
	return out
}

// gridRoad is a single road running under the demand line.
func gridRoad(n int) [][]model.Coordinate {
	line := make([]model.Coordinate, n)
	for i := range line {
		line[i] = model.Coordinate{Lon: float64(i) * 0.001, Lat: 0}
	}
	return [][]model.Coordinate{line}
}

func TestOptimizeEmptyDemand(t *testing.T) {
	_, err := Optimize(nil, []model.Vehicle{truck("V1", 4)}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyDemand)
}

func TestOptimizeNoActiveVehicles(t *testing.T) {
	vehicles := []model.Vehicle{
		{ID: "V1", Status: "inactive", CapacityPerTrip: 4},
		{ID: "V2", Status: "maintenance", CapacityPerTrip: 4},
	}
	_, err := Optimize(linePoints(5), vehicles, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoActiveVehicles)

	var inputErr *InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestOptimizeCoverageAndCapacity(t *testing.T) {
	points := linePoints(23)
	vehicles := []model.Vehicle{truck("V1", 4), truck("V2", 7), truck("V3", 5)}

	out, err := Optimize(points, vehicles, gridRoad(23))
	require.NoError(t, err)

	seen := map[int]int{}
	for _, a := range out.Result.RouteAssignments {
		for _, trip := range a.Trips {
			assert.LessOrEqual(t, trip.HouseCount, a.CapacityPerTrip)
			assert.Equal(t, len(trip.Houses), trip.HouseCount)
			for _, h := range trip.Houses {
				seen[h]++
			}
		}
	}
	// Partition property: every demand point in exactly one trip.
	assert.Len(t, seen, 23)
	for id, n := range seen {
		assert.Equalf(t, 1, n, "point %d assigned %d times", id, n)
	}
	assert.Equal(t, 23, out.Result.TotalHouses)
	assert.Equal(t, 3, out.Result.ActiveVehicles)
}

func TestOptimizeDeterminism(t *testing.T) {
	points := linePoints(30)
	vehicles := []model.Vehicle{truck("V1", 6), truck("V2", 6), truck("V3", 6)}
	roads := gridRoad(30)

	a, err := Optimize(points, vehicles, roads)
	require.NoError(t, err)
	b, err := Optimize(points, vehicles, roads)
	require.NoError(t, err)

	assert.Equal(t, a.Clusters, b.Clusters)
	assert.Equal(t, a.Result, b.Result)
}

func TestSegmentClusterSplit(t *testing.T) {
	ids := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	trips, err := segmentCluster(ids, "V1", 4)
	require.NoError(t, err)
	require.Len(t, trips, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, trips[0])
	assert.Equal(t, []int{4, 5, 6, 7}, trips[1])
	assert.Equal(t, []int{8, 9}, trips[2])
}

func TestSegmentClusterRejectsBadCapacity(t *testing.T) {
	_, err := segmentCluster([]int{1, 2}, "V9", 0)
	require.Error(t, err)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "V9", capErr.VehicleID)
}

func TestOptimizeExcludesZeroCapacityVehicle(t *testing.T) {
	points := linePoints(6)
	vehicles := []model.Vehicle{truck("GOOD", 10), truck("BAD", 0)}

	out, err := Optimize(points, vehicles, gridRoad(6))
	require.NoError(t, err)

	assert.Contains(t, out.Result.ExcludedVehicles, "BAD")
	bad := out.Result.RouteAssignments["BAD"]
	assert.Equal(t, 0, bad.TripsAssigned)
	assert.Empty(t, bad.Trips)
}

func TestOptimizeDisconnectedRoadsDegrade(t *testing.T) {
	// Two road islands far apart, demand on both; stitching must fall back
	// to direct segments without failing.
	roads := [][]model.Coordinate{
		{{Lon: 0, Lat: 0}, {Lon: 0.001, Lat: 0}},
		{{Lon: 1, Lat: 1}, {Lon: 1.001, Lat: 1}},
	}
	points := []model.DemandPoint{
		pt(0, 0, 0),
		pt(1, 1, 1),
	}
	out, err := Optimize(points, []model.Vehicle{truck("V1", 10)}, roads)
	require.NoError(t, err)
	assert.Greater(t, out.Result.DegradedSegments, 0)
	for _, a := range out.Result.RouteAssignments {
		for _, trip := range a.Trips {
			assert.NotEmpty(t, trip.Route)
		}
	}
}

func TestOptimizeEmptyGraphPassthrough(t *testing.T) {
	points := linePoints(4)
	out, err := Optimize(points, []model.Vehicle{truck("V1", 10)}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, out.Result.DegradedSegments)
	a := out.Result.RouteAssignments["V1"]
	require.Len(t, a.Trips, 1)
	trip := a.Trips[0]
	// Route is the stops' own coordinates connected directly.
	require.Len(t, trip.Route, 4)
	for i, h := range trip.Houses {
		assert.Equal(t, points[h].Location, trip.Route[i])
	}
}

func TestOptimizeEndToEndTwoVehicles(t *testing.T) {
	// 10 evenly spaced demand points, 2 vehicles with capacity 4: the
	// partition splits 5/5 and each vehicle runs trips of [4 1].
	points := linePoints(10)
	vehicles := []model.Vehicle{truck("SWM001", 4), truck("SWM002", 4)}

	out, err := Optimize(points, vehicles, gridRoad(10))
	require.NoError(t, err)

	assert.Equal(t, 2, out.Result.ActiveVehicles)
	assert.Equal(t, 10, out.Result.TotalHouses)
	assert.Equal(t, 4, out.Result.TotalTrips)

	for _, id := range []string{"SWM001", "SWM002"} {
		a := out.Result.RouteAssignments[id]
		require.Lenf(t, a.Trips, 2, "vehicle %s", id)
		assert.Equal(t, 5, a.HousesAssigned)
		assert.Equal(t, 4, a.Trips[0].HouseCount)
		assert.Equal(t, 1, a.Trips[1].HouseCount)
		assert.Equal(t, fmt.Sprintf("%s_trip_1", id), a.Trips[0].TripID)
	}
}

func TestSequenceStopsGreedyOrder(t *testing.T) {
	// Stops deliberately out of spatial order; the walk starts at the first
	// member and then always visits the nearest remaining snapped node.
	mk := func(id int, lon float64) tripStop {
		return tripStop{PointID: id, Snap: roadnet.SnapResult{
			Coord:   model.Coordinate{Lon: lon},
			Snapped: true,
		}}
	}
	ordered := sequenceStops([]tripStop{mk(7, 0), mk(8, 5), mk(9, 1), mk(10, 2)})
	got := make([]int, len(ordered))
	for i, s := range ordered {
		got[i] = s.PointID
	}
	assert.Equal(t, []int{7, 9, 10, 8}, got)
}
