package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

const roadsFC = `{"type":"FeatureCollection","features":[
{"type":"Feature","geometry":{"type":"LineString","coordinates":[[78.40,17.40],[78.41,17.40]]},"properties":{"name":"A"}},
{"type":"Feature","geometry":{"type":"MultiLineString","coordinates":[[[78.41,17.40],[78.42,17.40]],[[78.42,17.40],[78.43,17.41]]]},"properties":{"name":"B"}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[78.40,17.40]},"properties":{}}]}`

func TestParseRoads(t *testing.T) {
	lines, err := ParseRoads([]byte(roadsFC))
	require.NoError(t, err)
	// one LineString plus two MultiLineString parts; the Point is ignored
	require.Len(t, lines, 3)
	assert.Equal(t, model.Coordinate{Lon: 78.40, Lat: 17.40}, lines[0][0])
	assert.Equal(t, model.Coordinate{Lon: 78.43, Lat: 17.41}, lines[2][1])
}

func TestParseRoadsBadJSON(t *testing.T) {
	_, err := ParseRoads([]byte(`{"type":"Feature`))
	require.Error(t, err)
}

func TestParseBuildings(t *testing.T) {
	fc := `{"type":"FeatureCollection","features":[
{"type":"Feature","geometry":{"type":"Point","coordinates":[78.401,17.401]},"properties":{}},
{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[78.0,17.0],[78.2,17.0],[78.2,17.2],[78.0,17.2],[78.0,17.0]]]},"properties":{}}]}`
	points, err := ParseBuildings([]byte(fc))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 0, points[0].ID)
	assert.Equal(t, model.Coordinate{Lon: 78.401, Lat: 17.401}, points[0].Location)
	// polygon collapses to its centroid
	assert.InDelta(t, 78.1, points[1].Location.Lon, 1e-9)
	assert.InDelta(t, 17.1, points[1].Location.Lat, 1e-9)
}

func TestParseWardBounds(t *testing.T) {
	fc := `{"type":"FeatureCollection","features":[
{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[78.0,17.0],[78.2,17.0],[78.2,17.2],[78.0,17.2],[78.0,17.0]]]},"properties":{}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[78.5,17.5]},"properties":{}}]}`
	b, err := ParseWardBounds([]byte(fc))
	require.NoError(t, err)
	assert.Equal(t, 78.0, b.MinLon)
	assert.Equal(t, 78.5, b.MaxLon)
	assert.Equal(t, 17.0, b.MinLat)
	assert.Equal(t, 17.5, b.MaxLat)
}

func TestParseWardBoundsEmpty(t *testing.T) {
	_, err := ParseWardBounds([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.Error(t, err)
}

func TestProjectMercator(t *testing.T) {
	points := []model.DemandPoint{
		{ID: 0, Location: model.Coordinate{Lon: 0, Lat: 0}},
		{ID: 1, Location: model.Coordinate{Lon: 180, Lat: 0}},
	}
	proj := ProjectMercator(points)
	require.Len(t, proj, 2)
	assert.InDelta(t, 0, proj[0][0], 1e-6)
	assert.InDelta(t, 0, proj[0][1], 1e-6)
	// the antimeridian lands at half the Mercator world circumference
	assert.InDelta(t, math.Pi*6378137, proj[1][0], 1)
}
