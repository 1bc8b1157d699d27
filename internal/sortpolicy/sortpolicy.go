// Package sortpolicy implements the named per-layer feature orderings
// (spec.md §4.3) applied after the transform pipeline and before
// post-processing. Each policy is a stable sort: ties preserve the
// fetch order, since that order already reflects the database's own
// ORDER BY and re-shuffling ties would make tile output non-deterministic
// across otherwise-identical queries.
package sortpolicy

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
	"sort"

	"github.com/vectilehq/vectile/internal/feature"
)

// Policy orders the features of a layer in place.
type Policy func(features []*feature.Feature)

// Registry maps layer-kind names, as configured per FeatureLayer, to their
// sort policy.
var Registry = map[string]Policy{
	"buildings": sortBuildings,
	"earth":     sortByAreaDescending,
	"landuse":   sortByAreaDescending,
	"places":    sortPlaces,
	"pois":      sortPOIs,
	"roads":     sortRoads,
	"water":     sortByAreaDescending,
	"transit":   sortTransit,
}

// Apply sorts layer.Features using the named policy, leaving the order
// untouched if name is unrecognized.
func Apply(name string, layer *feature.FeatureLayer) {
	policy, ok := Registry[name]
	if !ok {
		return
	}
	policy(layer.Features)
}

func floatProp(f *feature.Feature, key string) (float64, bool) {
	v, ok := f.Properties.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

func intProp(f *feature.Feature, key string) (int64, bool) {
	v, ok := f.Properties.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// sortRoads orders by descending sort_key (road_sort_key, spec.md §4.2) so
// higher-class roads draw and, at low zoom, survive feature-dropping last;
// features with equal sort_key keep their fetch order.
func sortRoads(features []*feature.Feature) {
	sort.SliceStable(features, func(i, j int) bool {
		ki, _ := intProp(features[i], "sort_key")
		kj, _ := intProp(features[j], "sort_key")
		if ki != kj {
			return ki > kj
		}
		return false
	})
}

// sortBuildings orders by descending height so tall buildings draw over
// short ones when buildings overlap at an angle, ties falling back to the
// original fetch order.
func sortBuildings(features []*feature.Feature) {
	sort.SliceStable(features, func(i, j int) bool {
		hi, iok := floatProp(features[i], "height")
		hj, jok := floatProp(features[j], "height")
		if !iok || !jok {
			return false
		}
		return hi > hj
	})
}

// sortByAreaDescending orders polygonal layers (earth, landuse, water) by
// descending props["area"] so small enclosed features draw over the larger
// ones that contain them.
func sortByAreaDescending(features []*feature.Feature) {
	sort.SliceStable(features, func(i, j int) bool {
		ai, iok := floatProp(features[i], "area")
		aj, jok := floatProp(features[j], "area")
		if !iok || !jok {
			return false
		}
		return ai > aj
	})
}

// sortPlaces orders by ascending props["rank"] (1 = most important, as
// Natural Earth's scalerank convention has it), so label placement picks
// the most significant places first when a tile can't fit them all.
func sortPlaces(features []*feature.Feature) {
	sort.SliceStable(features, func(i, j int) bool {
		ri, iok := intProp(features[i], "rank")
		rj, jok := intProp(features[j], "rank")
		if !iok || !jok {
			return false
		}
		return ri < rj
	})
}

// sortPOIs orders by ascending props["min_zoom"] then descending
// props["rank"], matching places' "most important first" convention.
func sortPOIs(features []*feature.Feature) {
	sort.SliceStable(features, func(i, j int) bool {
		zi, iok := floatProp(features[i], "min_zoom")
		zj, jok := floatProp(features[j], "min_zoom")
		if iok && jok && zi != zj {
			return zi < zj
		}
		ri, iok := intProp(features[i], "rank")
		rj, jok := intProp(features[j], "rank")
		if iok && jok {
			return ri > rj
		}
		return false
	})
}

// sortTransit orders station/stop features ahead of line features so
// normalize_and_merge_duplicate_stations (spec.md §4.4.7) sees stations
// before it needs to attach nearby line references to them.
func sortTransit(features []*feature.Feature) {
	rank := func(f *feature.Feature) int {
		if k, ok := f.Properties.Get("kind"); ok {
			if s, isStr := k.AsString(); isStr && (s == "station" || s == "stop") {
				return 0
			}
		}
		return 1
	}
	sort.SliceStable(features, func(i, j int) bool {
		return rank(features[i]) < rank(features[j])
	})
}
