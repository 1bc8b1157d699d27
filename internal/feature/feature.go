// Package feature defines the in-pipeline record types shared by the
// transform, sort, post-process and encoding stages: Feature, FeatureLayer
// and TileCoord (spec.md §3).
package feature

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
	"github.com/paulmach/orb"

	"github.com/vectilehq/vectile/internal/value"
)

// Dimension bitmask per spec.md §4.4.1: point=1, line=2, polygon=4.
const (
	DimPoint   = 1
	DimLine    = 2
	DimPolygon = 4
)

// Feature is the universal in-pipeline record: a geometry, a property bag,
// and an optional feature id. A negative numeric FID indicates an OSM
// relation (detect_osm_relation materializes props["osm_relation"]).
type Feature struct {
	Geometry   orb.Geometry
	Properties *value.PropertyMap
	FID        *int64
}

// NewFeature returns a Feature with an initialized, empty property map.
func NewFeature(geom orb.Geometry) *Feature {
	return &Feature{Geometry: geom, Properties: value.NewPropertyMap()}
}

// Clone returns a deep-enough copy for pipeline stages (such as the Cutter)
// that emit more than one feature from a single input: the property map is
// cloned so each emitted feature can be mutated independently, and the
// geometry reference is replaced wholesale by the caller.
func (f *Feature) Clone() *Feature {
	clone := &Feature{Geometry: f.Geometry}
	if f.Properties != nil {
		clone.Properties = f.Properties.Clone()
	} else {
		clone.Properties = value.NewPropertyMap()
	}
	if f.FID != nil {
		fid := *f.FID
		clone.FID = &fid
	}
	return clone
}

// IsEmpty reports whether the feature's geometry is nil or carries no
// coordinates (see IsEmptyGeometry), per spec.md §3's "empty geometries are
// dropped" invariant. A Point is never empty.
func (f *Feature) IsEmpty() bool {
	return IsEmptyGeometry(f.Geometry)
}

// IsEmptyGeometry reports whether g carries no coordinates.
func IsEmptyGeometry(g orb.Geometry) bool {
	if g == nil {
		return true
	}
	switch v := g.(type) {
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.MultiLineString:
		for _, ls := range v {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	case orb.Ring:
		return len(v) == 0
	case orb.Polygon:
		return len(v) == 0 || len(v[0]) == 0
	case orb.MultiPolygon:
		for _, p := range v {
			if !IsEmptyGeometry(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, sub := range v {
			if !IsEmptyGeometry(sub) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Dimension returns the dimensionality bitmask of g: DimPoint for
// point-like geometry, DimLine for linear geometry, DimPolygon for areal
// geometry. Collections return the bitwise-OR of their members.
func Dimension(g orb.Geometry) int {
	switch v := g.(type) {
	case orb.Point, orb.MultiPoint:
		return DimPoint
	case orb.LineString, orb.MultiLineString, orb.Ring:
		return DimLine
	case orb.Polygon, orb.MultiPolygon:
		return DimPolygon
	case orb.Collection:
		dim := 0
		for _, sub := range v {
			dim |= Dimension(sub)
		}
		return dim
	default:
		return 0
	}
}

// FeatureLayer is a named, ordered list of features plus arbitrary
// per-layer metadata (layer_datum in spec.md §3). Order is significant:
// it defines draw/label precedence and survives every pipeline stage
// except one that explicitly re-sorts.
type FeatureLayer struct {
	Name     string
	Features []*Feature
	Datum    map[string]interface{}
}

// NewFeatureLayer returns an empty, named layer.
func NewFeatureLayer(name string) *FeatureLayer {
	return &FeatureLayer{Name: name, Datum: map[string]interface{}{}}
}

// TileCoord identifies a tile in spherical mercator at a 256 CSS-pixel
// tile extent (spec.md §3).
type TileCoord struct {
	Zoom   int
	Column int
	Row    int
}
