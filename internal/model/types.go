// Package model holds the domain types shared across the optimization
// pipeline and API.
package model

import "strings"

// Coordinate is a lon/lat pair in WGS84.
type Coordinate struct {
	Lon float64 `json:"longitude"`
	Lat float64 `json:"latitude"`
}

// DemandPoint is a fixed-location unit of service demand (one household).
// Immutable once loaded from the buildings layer.
type DemandPoint struct {
	ID       int        `json:"id"`
	Location Coordinate `json:"location"`
}

// Vehicle statuses considered available for assignment. Upstream feeds are
// inconsistent about casing and wording, so matching is case-insensitive.
const (
	StatusActive      = "active"
	StatusAvailable   = "available"
	StatusOnline      = "online"
	StatusOperational = "operational"
)

// IsActiveStatus reports whether a raw status string counts as available for
// assignment.
func IsActiveStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusActive, StatusAvailable, StatusOnline, StatusOperational:
		return true
	}
	return false
}

// Vehicle is one collection vehicle as reported by the fleet API.
type Vehicle struct {
	ID              string `json:"vehicle_id"`
	VehicleNo       string `json:"vehicleNo,omitempty"`
	Type            string `json:"vehicle_type"`
	Status          string `json:"status"`
	CapacityPerTrip int    `json:"capacity_per_trip"`
	WardNo          string `json:"ward_no,omitempty"`
	DriverName      string `json:"driverName,omitempty"`
	PhoneNo         string `json:"phoneNo,omitempty"`
	Department      string `json:"department,omitempty"`
}

// Trip is one capacity-bounded visiting round for a single vehicle.
// Stop order and route geometry are fixed at creation.
type Trip struct {
	TripID     string       `json:"trip_id"`
	VehicleID  string       `json:"vehicle_id"`
	ClusterID  int          `json:"cluster_id"`
	HouseCount int          `json:"house_count"`
	Houses     []int        `json:"houses"`
	Route      []Coordinate `json:"route"`
}

// RouteAssignment is the per-vehicle output unit.
type RouteAssignment struct {
	VehicleInfo     Vehicle `json:"vehicle_info"`
	TripsAssigned   int     `json:"trips_assigned"`
	HousesAssigned  int     `json:"houses_assigned"`
	CapacityPerTrip int     `json:"capacity_per_trip"`
	Trips           []Trip  `json:"trips"`
}

// OptimizeResult is the full outcome of one optimization run.
type OptimizeResult struct {
	ActiveVehicles    int                        `json:"active_vehicles"`
	TotalHouses       int                        `json:"total_houses"`
	TotalTrips        int                        `json:"total_trips"`
	RouteAssignments  map[string]RouteAssignment `json:"route_assignments"`
	DegradedSegments  int                        `json:"degraded_segments"`
	SkippedGeometries int                        `json:"skipped_geometries"`
	ExcludedVehicles  []string                   `json:"excluded_vehicles,omitempty"`
}

// Run wraps a stored optimization result with enough of the input retained
// to answer the cluster road queries without re-reading uploaded files.
type Run struct {
	ID           string         `json:"run_id"`
	WardNo       string         `json:"ward_no"`
	CreatedAt    string         `json:"created_at"`
	Result       OptimizeResult `json:"result"`
	DemandPoints []DemandPoint  `json:"demand_points,omitempty"`
	Clusters     [][]int        `json:"clusters,omitempty"` // cluster index -> demand point ids
	Roads        [][]Coordinate `json:"roads,omitempty"`
}

// RoadSegment is one graph edge reported by the cluster road queries.
type RoadSegment struct {
	Start          Coordinate `json:"start_coordinate"`
	End            Coordinate `json:"end_coordinate"`
	DistanceMeters float64    `json:"distance_meters"`
}

// ClusterBounds is the bounding box of a cluster's demand points.
type ClusterBounds struct {
	MinLon float64 `json:"min_longitude"`
	MaxLon float64 `json:"max_longitude"`
	MinLat float64 `json:"min_latitude"`
	MaxLat float64 `json:"max_latitude"`
}

// ClusterRoads is the response unit of the per-cluster road queries,
// consumed by the visualization layer.
type ClusterRoads struct {
	ClusterID      int           `json:"cluster_id"`
	VehicleInfo    Vehicle       `json:"vehicle_info"`
	BuildingsCount int           `json:"buildings_count"`
	Roads          []RoadSegment `json:"roads"`
	TotalSegments  int           `json:"total_road_segments"`
	Bounds         ClusterBounds `json:"cluster_bounds"`
}

// Webhook subscription models.
type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}
