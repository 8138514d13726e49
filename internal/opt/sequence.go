package opt

import (
	"math"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/roadnet"
)

// tripStop pairs a demand point with its snapped road node for sequencing
// and stitching.
type tripStop struct {
	PointID int
	Snap    roadnet.SnapResult
}

// sequenceStops orders a trip's stops with a greedy nearest-neighbor walk.
// The walk starts at the first member in cluster enumeration order and at
// each step visits the remaining stop whose snapped node is closest to the
// current position, ties going to the lowest remaining index. Not optimal,
// deliberately: predictable and cheap beats perfect here.
func sequenceStops(stops []tripStop) []tripStop {
	if len(stops) <= 1 {
		return stops
	}
	ordered := make([]tripStop, 0, len(stops))
	remaining := append([]tripStop(nil), stops...)

	cur := remaining[0]
	ordered = append(ordered, cur)
	remaining = remaining[1:]

	for len(remaining) > 0 {
		best := 0
		bestD := math.Inf(1)
		for i, s := range remaining {
			if d := euclid(cur.Snap.Coord, s.Snap.Coord); d < bestD {
				best = i
				bestD = d
			}
		}
		cur = remaining[best]
		ordered = append(ordered, cur)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}

func euclid(a, b model.Coordinate) float64 {
	dx := a.Lon - b.Lon
	dy := a.Lat - b.Lat
	return math.Sqrt(dx*dx + dy*dy)
}
