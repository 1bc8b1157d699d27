package conf

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

	"github.com/spf13/viper"
)

// layerConfigFile mirrors the on-disk TOML shape of a layer pipeline file:
//
//	[[layer]]
//	name = "roads"
//	srid = 3857
//	clip = true
//	simplify = true
//	simplify_until = 12
//	suppress_simplification = [14, 15]
//	geometry_types = ["LineString", "MultiLineString"]
//	transform_fns = ["road_kind", "road_classifier", "road_sort_key"]
//	sort_fn = "roads"
//	[layer.queries]
//	0 = "SELECT ... FROM roads_gen0 WHERE !bbox!"
//	10 = "SELECT ... FROM roads WHERE !bbox!"
type layerConfigFile struct {
	Layer []struct {
		Name                    string         `mapstructure:"name"`
		Srid                    int            `mapstructure:"srid"`
		Clip                    bool           `mapstructure:"clip"`
		Simplify                bool           `mapstructure:"simplify"`
		SimplifyUntil           int            `mapstructure:"simplify_until"`
		SimplifyBeforeIntersect bool           `mapstructure:"simplify_before_intersect"`
		SuppressSimplification  []int          `mapstructure:"suppress_simplification"`
		GeometryTypes           []string       `mapstructure:"geometry_types"`
		TransformFns            []string       `mapstructure:"transform_fns"`
		SortFn                  string         `mapstructure:"sort_fn"`
		Queries                 map[string]string `mapstructure:"queries"`
	} `mapstructure:"layer"`
}

// LoadLayerConfig reads the per-layer pipeline TOML file at path and
// populates Configuration.Layers. It is additive: layers already present in
// Configuration.Layers from a prior call are kept, and layers from this file
// overwrite any layer of the same name.
func LoadLayerConfig(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading layer config %s: %w", path, err)
	}

	var parsed layerConfigFile
	if err := v.Unmarshal(&parsed); err != nil {
		return fmt.Errorf("parsing layer config %s: %w", path, err)
	}

	if Configuration.Layers == nil {
		Configuration.Layers = make(map[string]LayerConfig)
	}

	for _, l := range parsed.Layer {
		queries := make(map[int]string, len(l.Queries))
		for zoomStr, query := range l.Queries {
			zoom, err := parseZoomKey(zoomStr)
			if err != nil {
				return fmt.Errorf("layer %s: invalid zoom key %q: %w", l.Name, zoomStr, err)
			}
			queries[zoom] = query
		}

		Configuration.Layers[l.Name] = LayerConfig{
			Name:                    l.Name,
			Queries:                 queries,
			Srid:                    l.Srid,
			Clip:                    l.Clip,
			Simplify:                l.Simplify,
			SimplifyUntil:           l.SimplifyUntil,
			SimplifyBeforeIntersect: l.SimplifyBeforeIntersect,
			SuppressSimplification:  l.SuppressSimplification,
			GeometryTypes:           l.GeometryTypes,
			TransformFns:            l.TransformFns,
			SortFn:                  l.SortFn,
		}
	}

	return nil
}

func parseZoomKey(s string) (int, error) {
	var zoom int
	_, err := fmt.Sscanf(s, "%d", &zoom)
	return zoom, err
}
