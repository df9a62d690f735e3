// Package geofile reads study-area inputs from GeoJSON and writes generated
// samples back out as point or buffered-polygon feature collections. All
// geometries are assumed to share one linear (UTM-like) CRS; no reprojection
// happens here.
package geofile

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/terralab/negsample/runfile"
)

// LoadMultiPolygon merges every polygonal feature in the file into one
// multipolygon, the shape expected for a study boundary.
func LoadMultiPolygon(path string) (orb.MultiPolygon, error) {
	polys, err := LoadPolygons(path)
	if err != nil {
		return nil, err
	}
	return orb.MultiPolygon(polys), nil
}

// LoadPolygons flattens every polygonal feature in the file.
func LoadPolygons(path string) ([]orb.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geofile: reading %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("geofile: parsing %s: %w", path, err)
	}

	var polys []orb.Polygon
	for _, f := range fc.Features {
		switch geom := f.Geometry.(type) {
		case orb.Polygon:
			polys = append(polys, geom)
		case orb.MultiPolygon:
			polys = append(polys, geom...)
		default:
			return nil, fmt.Errorf("geofile: %s holds non-polygonal geometry %q", path, geom.GeoJSONType())
		}
	}
	if len(polys) == 0 {
		return nil, fmt.Errorf("geofile: no polygonal features in %s", path)
	}
	return polys, nil
}

// SamplePoints wraps every placed sample into a point feature. Failed
// requests have no location and are skipped.
func SamplePoints(run runfile.Run) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range run.Placed() {
		f := geojson.NewFeature(orb.Point{s.X, s.Y})
		f.Properties = geojson.Properties{
			"radius":       s.RadiusWorld,
			"radius_cells": s.RadiusCells,
			"row":          s.Row,
			"col":          s.Col,
		}
		fc.Append(f)
	}
	return fc
}

// SampleCircles wraps every placed sample into its buffered disk polygon.
func SampleCircles(run runfile.Run, segments int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range run.Placed() {
		f := geojson.NewFeature(Circle(orb.Point{s.X, s.Y}, s.RadiusWorld, segments))
		f.Properties = geojson.Properties{
			"radius": s.RadiusWorld,
		}
		fc.Append(f)
	}
	return fc
}

// Circle approximates a disk with a closed ring of the given segment count.
func Circle(center orb.Point, radius float64, segments int) orb.Polygon {
	if segments < 3 {
		segments = 3
	}
	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		ring = append(ring, orb.Point{
			center[0] + radius*math.Cos(a),
			center[1] + radius*math.Sin(a),
		})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// ScatterPointsFC wraps bare points (the scatter baseline output) into a
// feature collection.
func ScatterPointsFC(points []orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		fc.Append(geojson.NewFeature(p))
	}
	return fc
}

func WriteFeatureCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("geofile: marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("geofile: writing %s: %w", path, err)
	}
	return nil
}
