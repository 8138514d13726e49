// Package opt implements the capacity-aware route optimization pipeline:
// demand partitioning, capacity segmentation, road snapping, stop sequencing
// and path stitching, aggregated into per-vehicle route assignments.
package opt

import (
	"fmt"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/geo"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/roadnet"
)

// Output bundles the aggregated result with the cluster membership the
// cluster road queries need. Everything here is immutable once returned.
type Output struct {
	Result   model.OptimizeResult
	Clusters [][]int // cluster index -> demand point IDs, enumeration order
}

// Optimize runs the full pipeline over one request's input. The stages form a
// strict producer/consumer chain; no stage starts before its predecessor
// completes and no stage mutates its predecessor's output.
//
// Fatal conditions are only the empty ones: no demand points or no active
// vehicles. Everything else (bad capacities, degenerate geometries,
// disconnected roads) degrades the result instead of aborting it.
func Optimize(points []model.DemandPoint, vehicles []model.Vehicle, roads [][]model.Coordinate) (*Output, error) {
	active := activeVehicles(vehicles)
	if len(points) == 0 {
		return nil, ErrEmptyDemand
	}
	if len(active) == 0 {
		return nil, ErrNoActiveVehicles
	}

	graph := roadnet.Build(roads)
	clusters := partition(points, len(active))

	result := model.OptimizeResult{
		ActiveVehicles:    len(active),
		RouteAssignments:  make(map[string]model.RouteAssignment, len(active)),
		SkippedGeometries: graph.SkippedGeometries(),
	}

	byID := make(map[int]model.DemandPoint, len(points))
	for _, p := range points {
		byID[p.ID] = p
	}

	for ci, vehicle := range active {
		var memberIDs []int
		if ci < len(clusters) {
			memberIDs = clusters[ci]
		}
		assignment := model.RouteAssignment{
			VehicleInfo:     vehicle,
			CapacityPerTrip: vehicle.CapacityPerTrip,
			Trips:           []model.Trip{},
		}

		tripSets, err := segmentCluster(memberIDs, vehicle.ID, vehicle.CapacityPerTrip)
		if err != nil {
			// Unusable capacity: the vehicle stays in the result with zero
			// trips and its demand is left unassigned.
			result.ExcludedVehicles = append(result.ExcludedVehicles, vehicle.ID)
			result.RouteAssignments[vehicle.ID] = assignment
			continue
		}

		for t, ids := range tripSets {
			stops := make([]tripStop, len(ids))
			for i, id := range ids {
				stops[i] = tripStop{PointID: id, Snap: graph.Snap(byID[id].Location)}
			}
			ordered := sequenceStops(stops)
			route, degraded := stitchRoute(graph, ordered)
			result.DegradedSegments += degraded

			houses := make([]int, len(ordered))
			for i, s := range ordered {
				houses[i] = s.PointID
			}
			trip := model.Trip{
				TripID:     fmt.Sprintf("%s_trip_%d", vehicle.ID, t+1),
				VehicleID:  vehicle.ID,
				ClusterID:  ci,
				HouseCount: len(houses),
				Houses:     houses,
				Route:      route,
			}
			assignment.Trips = append(assignment.Trips, trip)
			assignment.HousesAssigned += len(houses)
			result.TotalHouses += len(houses)
			result.TotalTrips++
		}
		assignment.TripsAssigned = len(assignment.Trips)
		result.RouteAssignments[vehicle.ID] = assignment
	}

	return &Output{Result: result, Clusters: clusters}, nil
}

// activeVehicles filters the fleet down to assignable vehicles, preserving
// input order. Pairing of clusters to vehicles is positional, so order
// matters for reproducibility.
func activeVehicles(vehicles []model.Vehicle) []model.Vehicle {
	out := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if model.IsActiveStatus(v.Status) {
			out = append(out, v)
		}
	}
	return out
}

// partition clusters demand points into k = min(activeCount, pointCount)
// cells via deterministic k-means over Web Mercator coordinates. Member IDs
// keep the demand points' enumeration order within each cluster.
func partition(points []model.DemandPoint, activeCount int) [][]int {
	k := activeCount
	if len(points) < k {
		k = len(points)
	}
	labels := kmeansCluster(geo.ProjectMercator(points), k)
	clusters := make([][]int, k)
	for i, p := range points {
		clusters[labels[i]] = append(clusters[labels[i]], p.ID)
	}
	return clusters
}
