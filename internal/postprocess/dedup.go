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
	"fmt"

	"github.com/paulmach/orb"

	"github.com/vectilehq/vectile/internal/feature"
	"github.com/vectilehq/vectile/internal/value"
)

func geomKey(g orb.Geometry) string {
	if g == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T:%v", g, g)
}

// RemoveDuplicateFeatures drops later features whose geometry and
// dedupKeys-selected properties exactly match an earlier one, keeping the
// first occurrence's fetch order (spec.md §4.4.6). Tile edges commonly
// produce duplicate rows when a source table stores the same way split
// across adjacent partitions.
func RemoveDuplicateFeatures(features []*feature.Feature, dedupKeys ...string) []*feature.Feature {
	seen := map[string]bool{}
	out := make([]*feature.Feature, 0, len(features))
	for _, f := range features {
		key := geomKey(f.Geometry)
		for _, k := range dedupKeys {
			if v, ok := f.Properties.Get(k); ok {
				key += "|" + k + "=" + v.String()
			}
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

// NormalizeAndMergeDuplicateStations merges transit station features that
// share a normalized name (lowercased, whitespace-trimmed) into a single
// feature located at their combined centroid, the shape spec.md §4.4.7
// describes for collapsing a station's separate platform nodes into one
// labeled point.
func NormalizeAndMergeDuplicateStations(features []*feature.Feature) []*feature.Feature {
	groups := map[string][]*feature.Feature{}
	var order []string
	for _, f := range features {
		name := ""
		if v, ok := f.Properties.Get("name"); ok {
			name, _ = v.AsString()
		}
		key := normalizeStationName(name)
		if key == "" {
			key = geomKey(f.Geometry)
		}
		if _, exists := groups[key]; !exists {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}

	out := make([]*feature.Feature, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		out = append(out, mergeStationGroup(group))
	}
	return out
}

func normalizeStationName(name string) string {
	out := make([]byte, 0, len(name))
	lastSpace := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == ' ' || c == '\t' || c == '\n' {
			if !lastSpace {
				out = append(out, ' ')
				lastSpace = true
			}
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c = c - 'A' + 'a'
		}
		out = append(out, c)
		lastSpace = false
	}
	for len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return string(out)
}

func mergeStationGroup(group []*feature.Feature) *feature.Feature {
	var sumX, sumY float64
	n := 0
	for _, f := range group {
		if pt, ok := f.Geometry.(orb.Point); ok {
			sumX += pt[0]
			sumY += pt[1]
			n++
		}
	}
	merged := group[0].Clone()
	if n > 0 {
		merged.Geometry = orb.Point{sumX / float64(n), sumY / float64(n)}
	}
	return merged
}

// KeepNFeatures truncates features to the first n entries, assuming the
// caller already sorted by the priority it wants preserved (spec.md
// §4.4.8).
func KeepNFeatures(features []*feature.Feature, n int) []*feature.Feature {
	if n < 0 || n >= len(features) {
		return features
	}
	return features[:n]
}

// RankFeatures assigns props["rank"] = 1..len(features) in current order,
// for layers whose downstream sorter or label engine wants an explicit
// rank rather than recomputing priority from raw properties every time.
func RankFeatures(features []*feature.Feature) {
	for i, f := range features {
		f.Properties.Set("rank", value.Int(int64(i+1)))
	}
}

// NumericMinFilter drops features whose numeric property named key is
// below min, or that lack the property entirely (spec.md §4.4.8).
func NumericMinFilter(features []*feature.Feature, key string, min float64) []*feature.Feature {
	out := make([]*feature.Feature, 0, len(features))
	for _, f := range features {
		v, ok := f.Properties.Get(key)
		if !ok {
			continue
		}
		n, ok := v.AsFloat()
		if !ok || n < min {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DropFeaturesWhere drops every feature for which pred returns true
// (spec.md §4.4.8's generic predicate-drop stage).
func DropFeaturesWhere(features []*feature.Feature, pred func(*feature.Feature) bool) []*feature.Feature {
	out := make([]*feature.Feature, 0, len(features))
	for _, f := range features {
		if pred(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}
