// Package geo adapts uploaded GeoJSON layers into the plain collections the
// optimization pipeline consumes.
package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

// ParseRoads extracts polylines from a roads FeatureCollection. LineString
// and MultiLineString geometries are supported; every part of a multi-part
// line becomes its own polyline. Other geometry types are ignored.
func ParseRoads(data []byte) ([][]model.Coordinate, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse roads geojson: %w", err)
	}
	var lines [][]model.Coordinate
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.LineString:
			lines = append(lines, toCoords(g))
		case orb.MultiLineString:
			for _, part := range g {
				lines = append(lines, toCoords(part))
			}
		}
	}
	return lines, nil
}

// ParseBuildings extracts one demand point per feature, using the geometry
// centroid for polygons and the point itself for point features. IDs are the
// feature's position in the collection, matching the house indices the
// optimizer reports.
func ParseBuildings(data []byte) ([]model.DemandPoint, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse buildings geojson: %w", err)
	}
	points := make([]model.DemandPoint, 0, len(fc.Features))
	for i, f := range fc.Features {
		var c orb.Point
		switch g := f.Geometry.(type) {
		case orb.Point:
			c = g
		default:
			c, _ = planar.CentroidArea(g)
		}
		points = append(points, model.DemandPoint{
			ID:       i,
			Location: model.Coordinate{Lon: c[0], Lat: c[1]},
		})
	}
	return points, nil
}

// ParseWardBounds returns the bounding box of a ward boundary layer.
func ParseWardBounds(data []byte) (model.ClusterBounds, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return model.ClusterBounds{}, fmt.Errorf("parse ward geojson: %w", err)
	}
	if len(fc.Features) == 0 {
		return model.ClusterBounds{}, fmt.Errorf("parse ward geojson: no features")
	}
	bound := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		bound = bound.Union(f.Geometry.Bound())
	}
	return model.ClusterBounds{
		MinLon: bound.Min[0],
		MaxLon: bound.Max[0],
		MinLat: bound.Min[1],
		MaxLat: bound.Max[1],
	}, nil
}

func toCoords(ls orb.LineString) []model.Coordinate {
	out := make([]model.Coordinate, len(ls))
	for i, p := range ls {
		out[i] = model.Coordinate{Lon: p[0], Lat: p[1]}
	}
	return out
}
