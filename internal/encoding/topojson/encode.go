package topojson

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

	"github.com/vectilehq/vectile/internal/feature"
)

// Geometry is a single TopoJSON geometry object: arc indices into the
// topology's shared arc table, shaped per geometry type. LineString and
// Polygon geometries reference one arc per line/ring; Point geometries
// carry coordinates directly rather than an arc, since TopoJSON has no
// benefit in quantizing and sharing zero-length paths.
type Geometry struct {
	Type       string
	Point      *[2]int64
	Arcs       []int
	RingArcs   [][]int
	Properties map[string]interface{}
}

// Topology is the fully encoded output: the shared, diff-encoded arc
// table plus one Geometry per input feature, all expressed relative to
// Transform (spec.md §4.6).
type Topology struct {
	Transform Transform
	Arcs      [][][2]int64
	Objects   map[string][]Geometry
}

const quantizeGrid = 1 << 16

// EncodeLayers builds a Topology for the given feature layers, quantizing
// every coordinate against a single shared Transform derived from the
// combined bound of all features so that arcs from different layers can
// be meaningfully deduplicated against each other.
func EncodeLayers(layers []*feature.FeatureLayer) *Topology {
	bound := orb.Bound{Min: orb.Point{math1, math1}, Max: orb.Point{-math1, -math1}}
	any := false
	for _, l := range layers {
		for _, f := range l.Features {
			if f.IsEmpty() {
				continue
			}
			bound = bound.Union(f.Geometry.Bound())
			any = true
		}
	}
	if !any {
		bound = orb.Bound{}
	}
	transform := GetTransform(bound, quantizeGrid)
	merger := NewArcMerger()

	objects := make(map[string][]Geometry, len(layers))
	for _, l := range layers {
		geoms := make([]Geometry, 0, len(l.Features))
		for _, f := range l.Features {
			if f.IsEmpty() {
				continue
			}
			props := map[string]interface{}{}
			if f.Properties != nil {
				for _, k := range f.Properties.Keys {
					v, _ := f.Properties.Get(k)
					props[k] = v.Interface()
				}
			}
			geoms = append(geoms, encodeGeometry(transform, merger, f.Geometry, props))
		}
		objects[l.Name] = geoms
	}

	return &Topology{Transform: transform, Arcs: merger.Arcs(), Objects: objects}
}

const math1 = 1e18

func quantizeLine(tr Transform, points []orb.Point) [][2]int64 {
	out := make([][2]int64, len(points))
	for i, p := range points {
		out[i] = tr.Quantize(p)
	}
	return out
}

func encodeGeometry(tr Transform, merger *ArcMerger, g orb.Geometry, props map[string]interface{}) Geometry {
	switch v := g.(type) {
	case orb.Point:
		q := tr.Quantize(v)
		return Geometry{Type: "Point", Point: &q, Properties: props}
	case orb.LineString:
		idx := merger.Add(quantizeLine(tr, []orb.Point(v)))
		return Geometry{Type: "LineString", Arcs: []int{idx}, Properties: props}
	case orb.Polygon:
		rings := make([][]int, len(v))
		for i, r := range v {
			rings[i] = []int{merger.Add(quantizeLine(tr, []orb.Point(r)))}
		}
		return Geometry{Type: "Polygon", RingArcs: rings, Properties: props}
	case orb.MultiLineString:
		arcs := make([]int, len(v))
		for i, ls := range v {
			arcs[i] = merger.Add(quantizeLine(tr, []orb.Point(ls)))
		}
		return Geometry{Type: "MultiLineString", Arcs: arcs, Properties: props}
	default:
		return Geometry{Type: "GeometryCollection", Properties: props}
	}
}
