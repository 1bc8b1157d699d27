// Package topojson implements the TopoJSON encoder (spec.md §4.6): arc
// extraction with shared-arc deduplication, delta (quantized integer)
// coordinate encoding, and the transform object every geometry's arcs are
// expressed relative to.
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
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Transform is TopoJSON's quantization basis: every arc's first point is
// absolute, every subsequent point is an integer delta; Scale/Translate
// convert back to true coordinates (spec.md §4.6's get_transform).
type Transform struct {
	Scale     [2]float64
	Translate [2]float64
}

// GetTransform computes a Transform that quantizes bound into an
// n x n integer grid, the shape TopoJSON's arc delta-encoding assumes.
func GetTransform(bound orb.Bound, n int) Transform {
	if n <= 1 {
		n = 1
	}
	width := bound.Max[0] - bound.Min[0]
	height := bound.Max[1] - bound.Min[1]
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	return Transform{
		Scale:     [2]float64{width / float64(n-1+1), height / float64(n-1+1)},
		Translate: [2]float64{bound.Min[0], bound.Min[1]},
	}
}

// Quantize maps a real-world point to the transform's integer grid.
func (tr Transform) Quantize(p orb.Point) [2]int64 {
	x := int64(math.Round((p[0] - tr.Translate[0]) / tr.Scale[0]))
	y := int64(math.Round((p[1] - tr.Translate[1]) / tr.Scale[1]))
	return [2]int64{x, y}
}

// DiffEncode converts a sequence of quantized points into TopoJSON's arc
// form: the first point absolute, every following point the delta from
// its predecessor (spec.md §4.6's diff_encode).
func DiffEncode(points [][2]int64) [][2]int64 {
	if len(points) == 0 {
		return nil
	}
	out := make([][2]int64, len(points))
	out[0] = points[0]
	for i := 1; i < len(points); i++ {
		out[i] = [2]int64{points[i][0] - points[i-1][0], points[i][1] - points[i-1][1]}
	}
	return out
}

// Arc is a single shared polyline in the topology's global arc table.
type Arc struct {
	Points [][2]int64
}

func arcKey(points [][2]int64) string {
	return fmt.Sprintf("%v", points)
}

func reversed(points [][2]int64) [][2]int64 {
	out := make([][2]int64, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

// ArcMerger deduplicates arcs across features: two geometries that trace
// the same boundary (e.g. adjacent polygons sharing an edge) are assigned
// the same arc index rather than each storing their own copy of the
// coordinates, which is TopoJSON's entire reason for existing.
type ArcMerger struct {
	arcs  []Arc
	byKey map[string]int
}

// NewArcMerger returns an empty merger.
func NewArcMerger() *ArcMerger {
	return &ArcMerger{byKey: map[string]int{}}
}

// Add registers points as an arc, returning its index in the shared arc
// table. An existing arc matching the same points, forward or reversed,
// is reused (reused-reversed arcs are reported back as a negative index
// minus one, ~i, the TopoJSON convention for "traverse this arc backward").
func (m *ArcMerger) Add(points [][2]int64) int {
	key := arcKey(points)
	if i, ok := m.byKey[key]; ok {
		return i
	}
	revKey := arcKey(reversed(points))
	if i, ok := m.byKey[revKey]; ok {
		return ^i
	}
	idx := len(m.arcs)
	m.arcs = append(m.arcs, Arc{Points: points})
	m.byKey[key] = idx
	return idx
}

// Arcs returns the shared arc table, each arc already diff-encoded.
func (m *ArcMerger) Arcs() [][][2]int64 {
	out := make([][][2]int64, len(m.arcs))
	for i, a := range m.arcs {
		out[i] = DiffEncode(a.Points)
	}
	return out
}

// MergeConflictError reports that two topologies could not be merged
// because they were quantized under different transforms: arc indices
// from one are meaningless against the other's Scale/Translate, and
// silently merging them would produce corrupted geometry rather than an
// error (spec.md §4.6's merge-conflict path, exercised by scenario S6).
type MergeConflictError struct {
	A, B Transform
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("topojson: cannot merge topologies with differing transforms (scale %v vs %v)", e.A.Scale, e.B.Scale)
}

// Merge combines two arc tables quantized under the same transform into
// one, returning the index offset to add to every one-side arc reference
// so it addresses the merged table. It returns a *MergeConflictError,
// fatal per spec.md §7, when the transforms differ.
func Merge(a, b *ArcMerger, trA, trB Transform) (offset int, err error) {
	if trA.Scale != trB.Scale || trA.Translate != trB.Translate {
		return 0, &MergeConflictError{A: trA, B: trB}
	}
	offset = len(a.arcs)
	for _, arc := range b.arcs {
		key := arcKey(arc.Points)
		if _, exists := a.byKey[key]; !exists {
			a.byKey[key] = len(a.arcs)
		}
		a.arcs = append(a.arcs, arc)
	}
	return offset, nil
}
