package opt

import (
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/roadnet"
)

// ClusterRoadSegments returns the road segments touched by a cluster's
// snapped stops, deduplicated, plus the bounding box of the cluster's demand
// points. This feeds the per-vehicle overlay rendering.
func ClusterRoadSegments(g *roadnet.Graph, points []model.DemandPoint, memberIDs []int) ([]model.RoadSegment, model.ClusterBounds) {
	byID := make(map[int]model.DemandPoint, len(points))
	for _, p := range points {
		byID[p.ID] = p
	}

	segments := []model.RoadSegment{}
	seen := map[model.RoadSegment]struct{}{}
	var bounds model.ClusterBounds
	first := true

	for _, id := range memberIDs {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if first {
			bounds = model.ClusterBounds{
				MinLon: p.Location.Lon, MaxLon: p.Location.Lon,
				MinLat: p.Location.Lat, MaxLat: p.Location.Lat,
			}
			first = false
		} else {
			if p.Location.Lon < bounds.MinLon {
				bounds.MinLon = p.Location.Lon
			}
			if p.Location.Lon > bounds.MaxLon {
				bounds.MaxLon = p.Location.Lon
			}
			if p.Location.Lat < bounds.MinLat {
				bounds.MinLat = p.Location.Lat
			}
			if p.Location.Lat > bounds.MaxLat {
				bounds.MaxLat = p.Location.Lat
			}
		}

		snap := g.Snap(p.Location)
		if !snap.Snapped {
			continue
		}
		for _, seg := range g.IncidentSegments(snap.Node) {
			if _, dup := seen[seg]; dup {
				continue
			}
			seen[seg] = struct{}{}
			segments = append(segments, seg)
		}
	}
	return segments, bounds
}
