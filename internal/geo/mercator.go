package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

// ProjectMercator converts WGS84 coordinates to Web Mercator meters. The
// clustering stage partitions in projected space so that distance comparisons
// are not skewed by latitude.
func ProjectMercator(points []model.DemandPoint) [][2]float64 {
	out := make([][2]float64, len(points))
	for i, p := range points {
		m := project.Point(orb.Point{p.Location.Lon, p.Location.Lat}, project.WGS84.ToMercator)
		out[i] = [2]float64{m[0], m[1]}
	}
	return out
}
