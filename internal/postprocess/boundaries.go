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
	"github.com/vectilehq/vectile/internal/value"
)

// ExteriorBoundaries extracts line-string boundaries from a set of
// polygonal features, one line per ring, tagging each with the polygon
// kind it came from (spec.md §4.4.3). It is the inverse of building
// polygons from boundary lines: this pipeline goes polygon -> line, since
// the source layer already carries filled admin/land polygons and the
// boundaries layer wants outlines only.
func ExteriorBoundaries(features []*feature.Feature) []*feature.Feature {
	out := make([]*feature.Feature, 0, len(features))
	for _, f := range features {
		rings := ringsOf(f.Geometry)
		for _, ring := range rings {
			ls := orb.LineString(append(orb.LineString(nil), ring...))
			line := feature.NewFeature(ls)
			if f.Properties != nil {
				line.Properties = f.Properties.Clone()
			}
			out = append(out, line)
		}
	}
	return out
}

func ringsOf(g orb.Geometry) []orb.Ring {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Ring(v)
	case orb.MultiPolygon:
		var rings []orb.Ring
		for _, poly := range v {
			rings = append(rings, []orb.Ring(poly)...)
		}
		return rings
	default:
		return nil
	}
}

// AdminBoundaries merges administrative polygons sharing the same
// admin_level into a dissolved outline and re-extracts the exterior rings,
// so abutting countries/regions don't each draw their own copy of a
// shared border (spec.md §4.4.4).
func AdminBoundaries(engine geomengine.Engine, features []*feature.Feature) []*feature.Feature {
	byLevel := map[string][]*feature.Feature{}
	for _, f := range features {
		level := "_"
		if v, ok := f.Properties.Get("admin_level"); ok {
			level = v.String()
		}
		byLevel[level] = append(byLevel[level], f)
	}

	out := make([]*feature.Feature, 0, len(features))
	for _, group := range byLevel {
		geoms := make([]orb.Geometry, 0, len(group))
		for _, f := range group {
			if !f.IsEmpty() {
				geoms = append(geoms, f.Geometry)
			}
		}
		if len(geoms) == 0 {
			continue
		}
		merged, err := engine.Union(geoms)
		if err != nil || merged == nil {
			out = append(out, group...)
			continue
		}
		dissolved := feature.NewFeature(merged)
		dissolved.Properties = group[0].Properties.Clone()
		out = append(out, ExteriorBoundaries([]*feature.Feature{dissolved})...)
	}
	return out
}

// GenerateLabelFeatures synthesizes a representative point per polygon
// feature, for layers that draw fills but also want a label anchor
// (spec.md §4.4.5). Uses point-on-surface rather than centroid so the
// anchor always falls inside the polygon, including concave shapes.
func GenerateLabelFeatures(engine geomengine.Engine, features []*feature.Feature) []*feature.Feature {
	out := make([]*feature.Feature, 0, len(features))
	for _, f := range features {
		if f.IsEmpty() {
			continue
		}
		pt, err := engine.PointOnSurface(f.Geometry)
		if err != nil {
			continue
		}
		label := feature.NewFeature(pt)
		label.Properties = f.Properties.Clone()
		label.Properties.Set("label_placement", value.Bool(true))
		out = append(out, label)
	}
	return out
}

// GenerateAddressPoints lifts addr:housenumber-tagged polygon features to
// standalone point features at their centroid (spec.md §4.4.5), the shape
// an addresses layer wants regardless of whether the source was a node or
// a building outline.
func GenerateAddressPoints(engine geomengine.Engine, features []*feature.Feature) []*feature.Feature {
	out := make([]*feature.Feature, 0, len(features))
	for _, f := range features {
		if _, ok := f.Properties.Get("addr:housenumber"); !ok {
			continue
		}
		var pt orb.Point
		if p, ok := f.Geometry.(orb.Point); ok {
			pt = p
		} else if f.IsEmpty() {
			continue
		} else {
			c, err := engine.Centroid(f.Geometry)
			if err != nil {
				continue
			}
			pt = c
		}
		addr := feature.NewFeature(pt)
		addr.Properties = f.Properties.Clone()
		out = append(out, addr)
	}
	return out
}
