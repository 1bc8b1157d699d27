// Package geojson implements the GeoJSON tile encoder (spec.md §4.5):
// zoom-dependent coordinate precision truncation and the spherical
// mercator -> longitude/latitude projection applied before encoding.
package geojson

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"math"

	"github.com/paulmach/orb"
	orbgeojson "github.com/paulmach/orb/encoding/geojson"
	"github.com/paulmach/orb/project"

	"github.com/vectilehq/vectile/internal/feature"
)

// Precision returns the number of decimal digits to keep for coordinates
// rendered at zoom z (spec.md §4.5): enough to distinguish adjacent
// pixels at that zoom's ground resolution, never more.
//
//	precision[z] = ceil(log10(1 << (z+8+2))) − 2
func Precision(z int) int {
	bits := z + 8 + 2
	magnitude := math.Ceil(math.Log10(math.Ldexp(1, bits)))
	p := int(magnitude) - 2
	if p < 0 {
		p = 0
	}
	return p
}

func truncate(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}

// EncodeLayers renders feature layers to a GeoJSON FeatureCollection,
// reprojecting geometry from spherical mercator to longitude/latitude and
// truncating coordinates to Precision(zoom) digits.
func EncodeLayers(layers []*feature.FeatureLayer, zoom int) *orbgeojson.FeatureCollection {
	precision := Precision(zoom)
	fc := orbgeojson.NewFeatureCollection()
	for _, l := range layers {
		for _, f := range l.Features {
			if f.IsEmpty() {
				continue
			}
			geom := project.Geometry(f.Geometry, project.Mercator.Inverse)
			geom = TruncateGeometry(geom, precision)

			gf := orbgeojson.NewFeature(geom)
			gf.Properties["vectile:layer"] = l.Name
			if f.Properties != nil {
				for _, k := range f.Properties.Keys {
					v, _ := f.Properties.Get(k)
					gf.Properties[k] = v.Interface()
				}
			}
			if f.FID != nil {
				gf.ID = *f.FID
			}
			fc.Append(gf)
		}
	}
	return fc
}

// TruncateGeometry rounds every coordinate of g to precision decimal
// digits, returning a new geometry of the same concrete type.
func TruncateGeometry(g orb.Geometry, precision int) orb.Geometry {
	switch v := g.(type) {
	case orb.Point:
		return truncatePoint(v, precision)
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(v))
		for i, p := range v {
			out[i] = truncatePoint(p, precision)
		}
		return out
	case orb.LineString:
		return truncateLineString(v, precision)
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(v))
		for i, ls := range v {
			out[i] = truncateLineString(ls, precision)
		}
		return out
	case orb.Ring:
		return orb.Ring(truncateLineString(orb.LineString(v), precision))
	case orb.Polygon:
		out := make(orb.Polygon, len(v))
		for i, r := range v {
			out[i] = orb.Ring(truncateLineString(orb.LineString(r), precision))
		}
		return out
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(v))
		for i, p := range v {
			out[i] = TruncateGeometry(p, precision).(orb.Polygon)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(v))
		for i, sub := range v {
			out[i] = TruncateGeometry(sub, precision)
		}
		return out
	default:
		return g
	}
}

func truncatePoint(p orb.Point, precision int) orb.Point {
	return orb.Point{truncate(p[0], precision), truncate(p[1], precision)}
}

func truncateLineString(ls orb.LineString, precision int) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[i] = truncatePoint(p, precision)
	}
	return out
}
