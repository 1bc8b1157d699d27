package data

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
	"strings"

	"github.com/vectilehq/vectile/internal/tileresponse"
)

// layerKind classifies a Layer by name into one of the sortpolicy/
// transform bundles spec.md §4.2/§4.3 name per layer kind, using simple
// substring matching against common OSM-derived layer names (roads,
// buildings, water, landuse, places, pois, transit, boundaries/earth).
// A table included under an unrecognized name still renders, just without
// a kind-specific transform/sort bundle.
func layerKind(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "road"), strings.Contains(lower, "highway"), strings.Contains(lower, "transportation"):
		return "roads"
	case strings.Contains(lower, "building"):
		return "buildings"
	case strings.Contains(lower, "water"):
		return "water"
	case strings.Contains(lower, "landuse"), strings.Contains(lower, "land_use"):
		return "landuse"
	case strings.Contains(lower, "place"):
		return "places"
	case strings.Contains(lower, "poi"), strings.Contains(lower, "amenity"):
		return "pois"
	case strings.Contains(lower, "transit"), strings.Contains(lower, "station"), strings.Contains(lower, "rail"):
		return "transit"
	case strings.Contains(lower, "boundary"), strings.Contains(lower, "admin"):
		return "boundaries"
	case strings.Contains(lower, "earth"), strings.Contains(lower, "globe"):
		return "earth"
	default:
		return ""
	}
}

// transformsForKind returns the named transform chain (spec.md §4.2)
// appropriate for a layer kind. Every kind gets add_id_to_properties /
// detect_osm_relation / tags_create_dict as a baseline so every feature
// carries an id and a tags bag regardless of its specific domain fields.
func transformsForKind(kind string) []string {
	base := []string{"add_id_to_properties", "detect_osm_relation"}
	switch kind {
	case "roads":
		return append(base, "road_kind", "road_classifier", "parse_layer_as_float", "road_sort_key", "road_oneway", "road_abbreviate_name", "route_name", "tags_create_dict", "tags_remove")
	case "buildings":
		return append(base, "building_kind", "building_height", "building_min_height", "tags_create_dict", "tags_remove")
	case "boundaries":
		return append(base, "boundary_kind", "tags_create_dict", "tags_remove")
	case "places":
		return append(base, "place_ne_capital", "tags_create_dict", "tags_remove")
	default:
		return append(base, "tags_create_dict", "tags_remove")
	}
}

// layerPipelineConfig builds the tileresponse.LayerConfig for layer,
// deriving its transform chain and sort policy from its kind (spec.md
// §2's control flow: fetch -> transform -> sort -> encode).
func layerPipelineConfig(layer *Layer) tileresponse.LayerConfig {
	kind := layerKind(layer.Name)
	return tileresponse.LayerConfig{
		Source: tileresponse.LayerSource{
			Name:           layer.Name,
			Table:          layer.Table,
			GeometryColumn: layer.GeometryColumn,
			SourceSrid:     layer.SourceSrid,
			Properties:     layer.Properties,
			PropertyTypes:  layer.PropertyTypes,
		},
		Transforms:  transformsForKind(kind),
		SortPolicy:  kind,
		MaxFeatures: 0,
	}
}
