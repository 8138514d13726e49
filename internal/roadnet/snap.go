package roadnet

import "github.com/QuantamAIDevelopment/solid-waste-management/internal/model"

// SnapResult maps a demand point onto the road graph.
type SnapResult struct {
	Node     NodeID
	Coord    model.Coordinate
	Distance float64 // native coordinate units
	Snapped  bool    // false when the graph has no nodes
}

// Snap returns the nearest graph node to the given coordinate by linear scan.
// Ties go to the first-encountered node in insertion order, so results are
// deterministic for identical input. With an empty graph the point passes
// through unsnapped at its own location.
func (g *Graph) Snap(c model.Coordinate) SnapResult {
	if len(g.nodes) == 0 {
		return SnapResult{Node: -1, Coord: c, Snapped: false}
	}
	best := NodeID(0)
	bestDist := euclid(c, g.nodes[0])
	for i := 1; i < len(g.nodes); i++ {
		if d := euclid(c, g.nodes[i]); d < bestDist {
			best = NodeID(i)
			bestDist = d
		}
	}
	return SnapResult{Node: best, Coord: g.nodes[best], Distance: bestDist, Snapped: true}
}
