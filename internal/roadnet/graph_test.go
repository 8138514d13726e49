package roadnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

func c(lon, lat float64) model.Coordinate { return model.Coordinate{Lon: lon, Lat: lat} }

func TestBuildDeduplicatesSharedVertices(t *testing.T) {
	// Two features meeting at (1,0): the junction must be a single node.
	g := Build([][]model.Coordinate{
		{c(0, 0), c(1, 0)},
		{c(1, 0), c(2, 0)},
	})
	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 0, g.SkippedGeometries())
}

func TestBuildSkipsDegenerateGeometries(t *testing.T) {
	g := Build([][]model.Coordinate{
		{},
		{c(0, 0)},
		{c(0, 0), c(1, 0)},
	})
	assert.Equal(t, 2, g.SkippedGeometries())
	assert.Equal(t, 2, g.NumNodes())
}

func TestShortestPathPrefersCheaperRoute(t *testing.T) {
	// Direct long edge vs. two short hops; Dijkstra must take the hops.
	g := Build([][]model.Coordinate{
		{c(0, 0), c(0, 10), c(4, 10), c(4, 0)},        // detour, total 24
		{c(0, 0), c(1, 0), c(2, 0), c(3, 0), c(4, 0)}, // straight, total 4
	})
	src := g.Snap(c(0, 0))
	dst := g.Snap(c(4, 0))
	require.True(t, src.Snapped)
	require.True(t, dst.Snapped)

	path, dist, ok := g.ShortestPath(src.Node, dst.Node)
	require.True(t, ok)
	assert.InDelta(t, 4.0, dist, 1e-9)
	require.Len(t, path, 5)
	assert.Equal(t, c(1, 0), g.Coord(path[1]))
}

func TestShortestPathDisconnected(t *testing.T) {
	g := Build([][]model.Coordinate{
		{c(0, 0), c(1, 0)},
		{c(100, 100), c(101, 100)},
	})
	a := g.Snap(c(0, 0))
	b := g.Snap(c(100, 100))
	_, _, ok := g.ShortestPath(a.Node, b.Node)
	assert.False(t, ok)
}

func TestSnapNearestWithStableTieBreak(t *testing.T) {
	g := Build([][]model.Coordinate{
		{c(0, 0), c(2, 0)}, // both nodes equidistant from (1,0)
	})
	s := g.Snap(c(1, 0))
	require.True(t, s.Snapped)
	// First-encountered node wins the tie.
	assert.Equal(t, c(0, 0), s.Coord)
	assert.InDelta(t, 1.0, s.Distance, 1e-9)
}

func TestSnapEmptyGraphPassesThrough(t *testing.T) {
	g := Build(nil)
	s := g.Snap(c(12.5, 77.5))
	assert.False(t, s.Snapped)
	assert.Equal(t, c(12.5, 77.5), s.Coord)
}

func TestIncidentSegmentsReportMeters(t *testing.T) {
	g := Build([][]model.Coordinate{
		{c(0, 0), c(0.001, 0)},
	})
	s := g.Snap(c(0, 0))
	segs := g.IncidentSegments(s.Node)
	require.Len(t, segs, 1)
	assert.InDelta(t, 0.001*MetersPerDegree, segs[0].DistanceMeters, 1e-6)
}
