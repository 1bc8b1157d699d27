package geomengine

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
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// rtreego's branching factors; the Cutter builds one tree over all the
// cutting features of a call and these are all tile-sized indexes
// (hundreds of features, not millions), so fixed factors are fine.
const (
	minBranch = 25
	maxBranch = 50
	rtreeDim  = 2
)

// entry adapts a (bound, value) pair to rtreego.Spatial.
type entry struct {
	rect  rtreego.Rect
	Value interface{}
}

func (e entry) Bounds() rtreego.Rect { return e.rect }

// STRTree is a spatial index over orb geometries. The Cutter builds one
// tree over all cutting features of a call and queries it once per target
// shape; it does not split the cutting features into per-attribute-value
// trees.
type STRTree struct {
	rt *rtreego.Rtree
}

// NewSTRTree returns an empty tree ready for Insert calls.
func NewSTRTree() *STRTree {
	return &STRTree{rt: rtreego.NewTree(rtreeDim, minBranch, maxBranch)}
}

// Insert adds value, indexed under bound. A degenerate (zero-area) bound is
// padded by a tiny epsilon since rtreego requires strictly positive extents.
func (t *STRTree) Insert(bound orb.Bound, value interface{}) {
	rect := boundToRect(bound)
	t.rt.Insert(entry{rect: rect, Value: value})
}

// Query returns the values whose bound intersects bound.
func (t *STRTree) Query(bound orb.Bound) []interface{} {
	rect := boundToRect(bound)
	hits := t.rt.SearchIntersect(rect)
	out := make([]interface{}, 0, len(hits))
	for _, h := range hits {
		if e, ok := h.(entry); ok {
			out = append(out, e.Value)
		}
	}
	return out
}

func boundToRect(b orb.Bound) rtreego.Rect {
	const eps = 1e-9
	width := b.Max[0] - b.Min[0]
	height := b.Max[1] - b.Min[1]
	if width <= 0 {
		width = eps
	}
	if height <= 0 {
		height = eps
	}
	point := rtreego.Point{b.Min[0], b.Min[1]}
	rect, err := rtreego.NewRect(point, []float64{width, height})
	if err != nil {
		// NewRect only errors on non-positive lengths, already guarded above.
		rect, _ = rtreego.NewRect(point, []float64{eps, eps})
	}
	return rect
}
