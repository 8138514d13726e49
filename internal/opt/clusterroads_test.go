package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/roadnet"
)

func TestClusterRoadSegments(t *testing.T) {
	g := roadnet.Build([][]model.Coordinate{
		{{Lon: 0, Lat: 0}, {Lon: 0.001, Lat: 0}, {Lon: 0.002, Lat: 0}},
	})
	points := []model.DemandPoint{
		pt(0, 0.0011, 0.0001), // snaps to the middle node
		pt(1, 0.0009, 0.0002), // snaps to the middle node too
	}

	segs, bounds := ClusterRoadSegments(g, points, []int{0, 1})
	// Both stops share a snapped node; its two incident edges appear once.
	require.Len(t, segs, 2)
	for _, s := range segs {
		assert.InDelta(t, 0.001*roadnet.MetersPerDegree, s.DistanceMeters, 1e-6)
	}
	assert.InDelta(t, 0.0009, bounds.MinLon, 1e-12)
	assert.InDelta(t, 0.0011, bounds.MaxLon, 1e-12)
	assert.InDelta(t, 0.0001, bounds.MinLat, 1e-12)
	assert.InDelta(t, 0.0002, bounds.MaxLat, 1e-12)
}

func TestClusterRoadSegmentsEmptyGraph(t *testing.T) {
	g := roadnet.Build(nil)
	segs, _ := ClusterRoadSegments(g, linePoints(3), []int{0, 1, 2})
	assert.Empty(t, segs)
}

func TestKmeansBalancedLine(t *testing.T) {
	// Two well separated groups of five; k-means must recover them.
	points := make([][2]float64, 0, 10)
	for i := 0; i < 5; i++ {
		points = append(points, [2]float64{float64(i), 0})
	}
	for i := 0; i < 5; i++ {
		points = append(points, [2]float64{1000 + float64(i), 0})
	}
	labels := kmeansCluster(points, 2)
	require.Len(t, labels, 10)
	first := labels[0]
	for i := 1; i < 5; i++ {
		assert.Equal(t, first, labels[i])
	}
	assert.NotEqual(t, first, labels[5])
	for i := 6; i < 10; i++ {
		assert.Equal(t, labels[5], labels[i])
	}
}
