// Package transform implements the per-feature transform pipeline (spec.md
// §4.2): a named registry of pure functions, each taking a *feature.Feature
// plus the tile's zoom level and returning the (possibly mutated) feature,
// or false to drop it. Transforms run in the order configured per layer,
// once per feature, before sorting and post-processing.
package transform

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
	"strconv"
	"strings"

	"github.com/vectilehq/vectile/internal/feature"
	"github.com/vectilehq/vectile/internal/value"
)

// Func is a single named transform. It mutates f in place (or returns a
// fresh feature, for transforms that must not alias the input) and reports
// whether f should continue through the pipeline.
type Func func(f *feature.Feature, zoom int) (*feature.Feature, bool)

// Registry maps transform names, as they appear in layer configuration, to
// their implementation.
var Registry = map[string]Func{
	"add_id_to_properties":  addIDToProperties,
	"detect_osm_relation":    detectOSMRelation,
	"remove_feature_id":      removeFeatureID,
	"building_kind":          buildingKind,
	"building_height":        buildingHeight,
	"building_min_height":    buildingMinHeight,
	"road_kind":              roadKind,
	"road_classifier":        roadClassifier,
	"road_sort_key":          roadSortKey,
	"road_oneway":            roadOneway,
	"road_abbreviate_name":   roadAbbreviateName,
	"route_name":             routeName,
	"place_ne_capital":       placeNECapital,
	"boundary_kind":          boundaryKind,
	"tags_create_dict":       tagsCreateDict,
	"tags_remove":            tagsRemoveDefault,
	"tags_name_i18n":         tagsNameI18n,
	"parse_layer_as_float":   parseLayerAsFloat,
}

// Run applies the named transforms in order to f, returning false as soon
// as any transform drops the feature.
func Run(names []string, f *feature.Feature, zoom int) (*feature.Feature, bool) {
	cur := f
	for _, name := range names {
		fn, ok := Registry[name]
		if !ok {
			continue
		}
		next, keep := fn(cur, zoom)
		if !keep {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func addIDToProperties(f *feature.Feature, _ int) (*feature.Feature, bool) {
	if f.FID != nil {
		f.Properties.Set("id", value.Int(*f.FID))
	}
	return f, true
}

// detectOSMRelation materializes props["osm_relation"]=true when the
// feature id is negative, the convention this pipeline's source data uses
// to flag relation-derived (as opposed to way-derived) geometry.
func detectOSMRelation(f *feature.Feature, _ int) (*feature.Feature, bool) {
	if f.FID != nil && *f.FID < 0 {
		f.Properties.Set("osm_relation", value.Bool(true))
	}
	return f, true
}

func removeFeatureID(f *feature.Feature, _ int) (*feature.Feature, bool) {
	f.FID = nil
	return f, true
}

func strProp(f *feature.Feature, key string) (string, bool) {
	v, ok := f.Properties.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// buildingKind resolves a display "kind" for building layers: explicit
// building=<value> other than "yes" wins, otherwise falls back to
// amenity/shop/office tagging, otherwise "building".
func buildingKind(f *feature.Feature, _ int) (*feature.Feature, bool) {
	if b, ok := strProp(f, "building"); ok && b != "" && b != "yes" {
		f.Properties.Set("kind", value.String(b))
		return f, true
	}
	for _, key := range []string{"amenity", "shop", "office"} {
		if v, ok := strProp(f, key); ok && v != "" {
			f.Properties.Set("kind", value.String(v))
			return f, true
		}
	}
	f.Properties.Set("kind", value.String("building"))
	return f, true
}

func metersProp(f *feature.Feature, key string) (float64, bool) {
	v, ok := f.Properties.Get(key)
	if !ok {
		return 0, false
	}
	s, isStr := v.AsString()
	if !isStr {
		return v.AsFloat()
	}
	return value.ToFloatMeters(s)
}

// buildingHeight resolves props["height"] to meters, falling back to a
// levels*3.5m estimate per spec.md §4.2, and drops it entirely when neither
// is present (callers may still render an unknown-height building).
func buildingHeight(f *feature.Feature, _ int) (*feature.Feature, bool) {
	if h, ok := metersProp(f, "height"); ok {
		f.Properties.Set("height", value.Float(h))
		return f, true
	}
	if lv, ok := f.Properties.Get("building:levels"); ok {
		if n, ok := lv.AsFloat(); ok {
			f.Properties.Set("height", value.Float(n*3.5))
			return f, true
		}
		if s, ok := lv.AsString(); ok {
			if n, ok := value.ToFloat(s); ok {
				f.Properties.Set("height", value.Float(n*3.5))
			}
		}
	}
	return f, true
}

func buildingMinHeight(f *feature.Feature, _ int) (*feature.Feature, bool) {
	if h, ok := metersProp(f, "min_height"); ok {
		f.Properties.Set("min_height", value.Float(h))
		return f, true
	}
	if lv, ok := f.Properties.Get("building:min_level"); ok {
		if n, ok := lv.AsFloat(); ok {
			f.Properties.Set("min_height", value.Float(n*3.5))
		}
	}
	return f, true
}

var roadKindByHighway = map[string]string{
	"motorway": "highway", "motorway_link": "highway",
	"trunk": "major_road", "trunk_link": "major_road",
	"primary": "major_road", "primary_link": "major_road",
	"secondary": "major_road", "secondary_link": "major_road",
	"tertiary": "major_road", "tertiary_link": "major_road",
	"residential": "minor_road", "unclassified": "minor_road",
	"service": "minor_road", "living_street": "minor_road",
	"path": "path", "footway": "path", "cycleway": "path",
	"steps": "path", "track": "path", "pedestrian": "path",
}

// roadKind assigns a coarse kind bucket used for styling, from highway=*,
// railway=*, or aeroway=* tagging in that priority order.
func roadKind(f *feature.Feature, _ int) (*feature.Feature, bool) {
	if hw, ok := strProp(f, "highway"); ok {
		if k, known := roadKindByHighway[hw]; known {
			f.Properties.Set("kind", value.String(k))
			return f, true
		}
		f.Properties.Set("kind", value.String("minor_road"))
		return f, true
	}
	if rw, ok := strProp(f, "railway"); ok && rw != "" {
		f.Properties.Set("kind", value.String("rail"))
		return f, true
	}
	if _, ok := strProp(f, "aeroway"); ok {
		f.Properties.Set("kind", value.String("aeroway"))
	}
	return f, true
}

// roadClassifier copies the raw highway/railway/aeroway value into
// props["kind_detail"] for styles that want the unbucketed tag.
func roadClassifier(f *feature.Feature, _ int) (*feature.Feature, bool) {
	for _, key := range []string{"highway", "railway", "aeroway"} {
		if v, ok := strProp(f, key); ok && v != "" {
			f.Properties.Set("kind_detail", value.String(v))
			return f, true
		}
	}
	return f, true
}

func isRunwayOrTaxiway(aeroway string) (runway, taxiway bool) {
	return aeroway == "runway", aeroway == "taxiway"
}

// roadSortKey computes the draw-order key described in spec.md §4.2:
// a base of 15, bumped per road class, adjusted for bridge/tunnel at
// zoom >= 15, and overridden by an explicit numeric layer=* tag in [-5,5].
func roadSortKey(f *feature.Feature, zoom int) (*feature.Feature, bool) {
	key := 15

	hw, _ := strProp(f, "highway")
	rw, _ := strProp(f, "railway")
	aw, _ := strProp(f, "aeroway")
	runway, taxiway := isRunwayOrTaxiway(aw)
	isLink := strings.HasSuffix(hw, "_link")

	switch {
	case hw == "motorway":
		key = 24
	case rw != "":
		key = 23
	case hw == "trunk":
		key = 22
	case hw == "primary":
		key = 21
	case hw == "secondary", runway:
		key = 20
	case hw == "tertiary", taxiway:
		key = 19
	case isLink:
		key = 18
	case hw == "residential", hw == "unclassified", hw == "living_street":
		key = 17
	case hw == "service", hw == "track":
		key = 16
	default:
		key = 15
	}

	if rw == "service" {
		service, _ := strProp(f, "service")
		switch service {
		case "spur", "siding":
			key -= 6
		case "yard":
			key -= 7
		default:
			key -= 8
		}
	}

	if zoom >= 15 {
		if bridge, ok := strProp(f, "bridge"); ok && bridge != "" && bridge != "no" {
			key += 10
		} else if tunnel, ok := strProp(f, "tunnel"); ok && tunnel != "" && tunnel != "no" {
			key -= 10
		} else if rw == "subway" {
			key -= 10
		}
	}

	if layerStr, ok := strProp(f, "layer"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(layerStr)); err == nil && n >= -5 && n <= 5 {
			if n > 0 {
				key = n + 34
			} else if n < 0 {
				key = n + 5
			}
		}
	}

	f.Properties.Set("sort_key", value.Int(int64(key)))
	return f, true
}

// roadOneway normalizes oneway=* (1/yes/true, -1/reverse) to a signed int:
// 1 forward, -1 reverse, 0 two-way/unset.
func roadOneway(f *feature.Feature, _ int) (*feature.Feature, bool) {
	ow, ok := strProp(f, "oneway")
	if !ok {
		return f, true
	}
	switch ow {
	case "1", "yes", "true":
		f.Properties.Set("oneway", value.Int(1))
	case "-1", "reverse":
		f.Properties.Set("oneway", value.Int(-1))
	default:
		f.Properties.Set("oneway", value.Int(0))
	}
	return f, true
}

var roadAbbreviations = map[string]string{
	"Street": "St", "Avenue": "Ave", "Boulevard": "Blvd", "Drive": "Dr",
	"Road": "Rd", "Lane": "Ln", "Court": "Ct", "Place": "Pl",
	"Highway": "Hwy", "Parkway": "Pkwy", "North": "N", "South": "S",
	"East": "E", "West": "W",
}

// roadAbbreviateName rewrites props["abbreviated_name"] from props["name"]
// by suffix/word replacement with standard US street abbreviations.
func roadAbbreviateName(f *feature.Feature, _ int) (*feature.Feature, bool) {
	name, ok := strProp(f, "name")
	if !ok || name == "" {
		return f, true
	}
	words := strings.Fields(name)
	for i, w := range words {
		if abbr, found := roadAbbreviations[w]; found {
			words[i] = abbr
		}
	}
	f.Properties.Set("abbreviated_name", value.String(strings.Join(words, " ")))
	return f, true
}

// routeName picks the best human-readable route label among ref, name and
// int_name, preferring ref for numbered routes.
func routeName(f *feature.Feature, _ int) (*feature.Feature, bool) {
	if v, ok := value.Coalesce(f.Properties, "ref", "name", "int_name"); ok {
		f.Properties.Set("route_name", v)
	}
	return f, true
}

// placeNECapital flags Natural Earth-sourced capital-city points so label
// styling can distinguish them from ordinary populated places.
func placeNECapital(f *feature.Feature, _ int) (*feature.Feature, bool) {
	if fc, ok := strProp(f, "featurecla"); ok && strings.Contains(strings.ToLower(fc), "capital") {
		f.Properties.Set("is_capital", value.Bool(true))
	}
	return f, true
}

// boundaryKind resolves a coarse kind from boundary=administrative's
// admin_level, bucketing into country/region/county-equivalent tiers.
func boundaryKind(f *feature.Feature, _ int) (*feature.Feature, bool) {
	boundary, _ := strProp(f, "boundary")
	if boundary != "administrative" {
		return f, true
	}
	levelStr, _ := strProp(f, "admin_level")
	level, err := strconv.Atoi(strings.TrimSpace(levelStr))
	if err != nil {
		return f, true
	}
	switch {
	case level <= 2:
		f.Properties.Set("kind", value.String("country"))
	case level <= 4:
		f.Properties.Set("kind", value.String("region"))
	default:
		f.Properties.Set("kind", value.String("county"))
	}
	return f, true
}

// tagsCreateDict copies every current property into a nested
// props["tags"] map (the top-level originals stay in place), the shape the MVT/GeoJSON encoders expect for
// passthrough OSM tags not promoted to a top-level property.
func tagsCreateDict(f *feature.Feature, _ int) (*feature.Feature, bool) {
	tags := make(map[string]value.Value, len(f.Properties.Keys))
	for _, k := range f.Properties.Keys {
		v, _ := f.Properties.Get(k)
		tags[k] = v
	}
	f.Properties.Set("tags", value.Map(tags))
	return f, true
}

// tagsRemoveKeys are the raw OSM tags dropped by tags_remove once
// tags_create_dict has copied everything into props["tags"].
var tagsRemoveKeys = []string{
	"highway", "railway", "aeroway", "building", "amenity", "shop", "office",
	"boundary", "admin_level", "oneway", "layer", "bridge", "tunnel", "service",
}

// tagsRemove deletes keys from the top-level property set (typically used
// after tags_create_dict to drop now-redundant originals).
func tagsRemove(f *feature.Feature, keys []string) {
	for _, k := range keys {
		f.Properties.Delete(k)
	}
}

func tagsRemoveDefault(f *feature.Feature, _ int) (*feature.Feature, bool) {
	tagsRemove(f, tagsRemoveKeys)
	return f, true
}

// tagsNameI18n promotes name:<lang> tags into a nested props["name_i18n"]
// map, keyed by language code.
func tagsNameI18n(f *feature.Feature, _ int) (*feature.Feature, bool) {
	i18n := map[string]value.Value{}
	for _, k := range append([]string(nil), f.Properties.Keys...) {
		if strings.HasPrefix(k, "name:") {
			v, _ := f.Properties.Get(k)
			lang := strings.TrimPrefix(k, "name:")
			i18n[lang] = v
		}
	}
	if len(i18n) > 0 {
		f.Properties.Set("name_i18n", value.Map(i18n))
	}
	return f, true
}

// parseLayerAsFloat coerces props["layer"] from its usual string form to a
// float, so sort keys and numeric post-processors can use it directly.
func parseLayerAsFloat(f *feature.Feature, _ int) (*feature.Feature, bool) {
	layerStr, ok := strProp(f, "layer")
	if !ok {
		return f, true
	}
	if n, ok := value.ToFloat(layerStr); ok {
		f.Properties.Set("layer", value.Float(n))
	}
	return f, true
}
