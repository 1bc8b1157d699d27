// Package postprocess implements the layer-wide geometric post-processors
// (spec.md §4.4) that run after per-feature transforms and sorting: the
// shared Cutter engine and the intercut/overlap/intracut/exterior_boundaries/
// admin_boundaries/label-generation/dedup/rank-filter stages built on it.
package postprocess

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
	"github.com/vectilehq/vectile/internal/geomengine"
)

// Cutter is the shared engine behind intercut, overlap and intracut
// (spec.md §4.4.1): given two feature sets drawn from the same or
// different layers, it buckets the "cutting" set into an STR-tree keyed by
// bounding box, then for every feature in the "target" set intersects
// against only the candidates whose bounds actually overlap, instead of an
// O(n*m) pairwise scan.
type Cutter struct {
	engine geomengine.Engine
}

// NewCutter returns a Cutter delegating geometric predicates to engine.
func NewCutter(engine geomengine.Engine) *Cutter {
	return &Cutter{engine: engine}
}

func bound(g orb.Geometry) orb.Bound {
	if g == nil {
		return orb.Bound{}
	}
	return g.Bound()
}

func (c *Cutter) index(features []*feature.Feature) *geomengine.STRTree {
	tree := geomengine.NewSTRTree()
	for _, f := range features {
		if f.IsEmpty() {
			continue
		}
		tree.Insert(bound(f.Geometry), f)
	}
	return tree
}

func (c *Cutter) candidates(tree *geomengine.STRTree, target *feature.Feature) []*feature.Feature {
	hits := tree.Query(bound(target.Geometry))
	out := make([]*feature.Feature, 0, len(hits))
	for _, h := range hits {
		if f, ok := h.(*feature.Feature); ok {
			out = append(out, f)
		}
	}
	return out
}

// Intercut clips every feature in target to the union of the cutting
// features it overlaps, dropping the parts that fall outside (spec.md
// §4.4.2's "intercut" mode: target ∩ cutters).
func (c *Cutter) Intercut(target, cutting []*feature.Feature) []*feature.Feature {
	return c.run(target, cutting, true)
}

// Overlap keeps only the target geometry that falls *inside* at least one
// cutting feature, same as Intercut but named for the "overlap" mode
// (spec.md §4.4.2) where the result set is understood as "target features
// restricted to the cutting region" rather than "target clipped against a
// mask".
func (c *Cutter) Overlap(target, cutting []*feature.Feature) []*feature.Feature {
	return c.run(target, cutting, true)
}

// Intracut removes from each target feature the parts that intersect any
// cutting feature (spec.md §4.4.2's "intracut" mode: target − cutters),
// the complement of Intercut.
func (c *Cutter) Intracut(target, cutting []*feature.Feature) []*feature.Feature {
	return c.run(target, cutting, false)
}

func (c *Cutter) run(target, cutting []*feature.Feature, keepIntersection bool) []*feature.Feature {
	if len(cutting) == 0 {
		if keepIntersection {
			return nil
		}
		return target
	}
	tree := c.index(cutting)
	out := make([]*feature.Feature, 0, len(target))
	for _, t := range target {
		if t.IsEmpty() {
			continue
		}
		cands := c.candidates(tree, t)
		if len(cands) == 0 {
			if !keepIntersection {
				out = append(out, t)
			}
			continue
		}
		result := c.clipAgainst(t, cands, keepIntersection)
		if result != nil && !result.IsEmpty() {
			out = append(out, result)
		}
	}
	return out
}

func (c *Cutter) clipAgainst(t *feature.Feature, cutters []*feature.Feature, keepIntersection bool) *feature.Feature {
	geoms := make([]orb.Geometry, 0, len(cutters))
	for _, cut := range cutters {
		geoms = append(geoms, cut.Geometry)
	}
	mask, err := c.engine.Union(geoms)
	if err != nil || mask == nil {
		if keepIntersection {
			return nil
		}
		return t
	}

	clone := t.Clone()
	if keepIntersection {
		g, err := c.engine.Intersection(t.Geometry, mask)
		if err != nil || g == nil {
			return nil
		}
		clone.Geometry = g
		return clone
	}

	g, err := c.engine.Difference(t.Geometry, mask)
	if err != nil || g == nil {
		return nil
	}
	clone.Geometry = g
	return clone
}
