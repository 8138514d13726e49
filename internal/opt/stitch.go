package opt

import (
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/roadnet"
)

// stitchRoute connects an ordered stop list into one continuous route along
// the road graph. Consecutive stops are joined by their shortest path, with
// the shared junction node emitted once. When no path exists between two
// snapped nodes the pair is bridged with a direct segment instead of failing;
// the second return value counts those degraded segments. Unsnapped stops
// (empty graph) always connect directly and are not counted as degraded.
func stitchRoute(g *roadnet.Graph, stops []tripStop) ([]model.Coordinate, int) {
	if len(stops) == 0 {
		return nil, 0
	}
	route := []model.Coordinate{stops[0].Snap.Coord}
	degraded := 0

	for i := 1; i < len(stops); i++ {
		prev, cur := stops[i-1], stops[i]
		if !prev.Snap.Snapped || !cur.Snap.Snapped {
			route = append(route, cur.Snap.Coord)
			continue
		}
		path, _, ok := g.ShortestPath(prev.Snap.Node, cur.Snap.Node)
		if !ok {
			route = append(route, cur.Snap.Coord)
			degraded++
			continue
		}
		for _, n := range path[1:] {
			route = append(route, g.Coord(n))
		}
	}
	return route, degraded
}
