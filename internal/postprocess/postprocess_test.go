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
	"testing"

	"github.com/paulmach/orb"

	"github.com/vectilehq/vectile/internal/feature"
	"github.com/vectilehq/vectile/internal/value"
)

// fakeEngine implements geomengine.Engine with planar Go geometry math
// good enough to exercise the Cutter without a live DuckDB connection.
type fakeEngine struct{}

func (fakeEngine) Intersection(a, b orb.Geometry) (orb.Geometry, error) {
	ba, bb := a.Bound(), b.Bound()
	if !ba.Intersects(bb) {
		return nil, nil
	}
	min := orb.Point{maxF(ba.Min[0], bb.Min[0]), maxF(ba.Min[1], bb.Min[1])}
	max := orb.Point{minF(ba.Max[0], bb.Max[0]), minF(ba.Max[1], bb.Max[1])}
	return orb.LineString{min, max}, nil
}

func (fakeEngine) Difference(a, b orb.Geometry) (orb.Geometry, error) { return a, nil }
func (fakeEngine) Union(geoms []orb.Geometry) (orb.Geometry, error) {
	if len(geoms) == 0 {
		return nil, nil
	}
	return geoms[0], nil
}
func (fakeEngine) Buffer(g orb.Geometry, d float64) (orb.Geometry, error)   { return g, nil }
func (fakeEngine) Area(g orb.Geometry) (float64, error)                    { return 1, nil }
func (fakeEngine) Centroid(g orb.Geometry) (orb.Point, error)               { return orb.Point{}, nil }
func (fakeEngine) PointOnSurface(g orb.Geometry) (orb.Point, error) {
	b := g.Bound()
	return orb.Point{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2}, nil
}
func (fakeEngine) LineMerge(g orb.Geometry) (orb.Geometry, error) { return g, nil }
func (fakeEngine) MakeValid(g orb.Geometry) (orb.Geometry, error) { return g, nil }
func (fakeEngine) SimplifyPreserveTopology(g orb.Geometry, t float64) (orb.Geometry, error) {
	return g, nil
}
func (fakeEngine) IsValid(g orb.Geometry) (bool, error) { return true, nil }

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func TestCutterIntercutDropsNonOverlapping(t *testing.T) {
	c := NewCutter(fakeEngine{})
	target := []*feature.Feature{
		feature.NewFeature(orb.LineString{{0, 0}, {1, 1}}),
		feature.NewFeature(orb.LineString{{10, 10}, {11, 11}}),
	}
	cutting := []*feature.Feature{feature.NewFeature(orb.Polygon{{{-1, -1}, {2, -1}, {2, 2}, {-1, 2}, {-1, -1}}})}
	out := c.Intercut(target, cutting)
	if len(out) != 1 {
		t.Fatalf("got %d results, want 1 (only the overlapping feature survives)", len(out))
	}
}

func TestRemoveDuplicateFeaturesKeepsFirst(t *testing.T) {
	a := feature.NewFeature(orb.Point{1, 2})
	a.Properties.Set("name", value.String("Main St"))
	b := feature.NewFeature(orb.Point{1, 2})
	b.Properties.Set("name", value.String("Main St"))
	c := feature.NewFeature(orb.Point{3, 4})
	c.Properties.Set("name", value.String("Main St"))

	out := RemoveDuplicateFeatures([]*feature.Feature{a, b, c}, "name")
	if len(out) != 2 {
		t.Fatalf("got %d features, want 2", len(out))
	}
	if out[0] != a {
		t.Fatal("expected first occurrence to survive")
	}
}

func TestNormalizeAndMergeDuplicateStationsMergesByName(t *testing.T) {
	a := feature.NewFeature(orb.Point{0, 0})
	a.Properties.Set("name", value.String("Central Station"))
	b := feature.NewFeature(orb.Point{2, 0})
	b.Properties.Set("name", value.String("  central station  "))

	out := NormalizeAndMergeDuplicateStations([]*feature.Feature{a, b})
	if len(out) != 1 {
		t.Fatalf("got %d stations, want 1 merged station", len(out))
	}
	pt, ok := out[0].Geometry.(orb.Point)
	if !ok {
		t.Fatal("expected merged feature to remain a point")
	}
	if pt[0] != 1 || pt[1] != 0 {
		t.Fatalf("merged centroid = %v, want (1, 0)", pt)
	}
}

func TestNumericMinFilter(t *testing.T) {
	low := feature.NewFeature(orb.Point{0, 0})
	low.Properties.Set("population", value.Float(100))
	high := feature.NewFeature(orb.Point{0, 0})
	high.Properties.Set("population", value.Float(100000))

	out := NumericMinFilter([]*feature.Feature{low, high}, "population", 1000)
	if len(out) != 1 || out[0] != high {
		t.Fatalf("expected only the high-population feature to survive")
	}
}
