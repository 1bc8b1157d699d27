package mvt

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
	orbgeojson "github.com/paulmach/orb/encoding/geojson"
	orbmvt "github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/simplify"

	"github.com/vectilehq/vectile/internal/feature"
)

// pointEpsilon/lineEpsilon feed RemoveEmpty: geometry smaller than this
// many tile units (MVT's default 4096-unit extent) after projection is
// invisible and only bloats the tile.
const (
	pointEpsilon    = 0.5
	lineEpsilon     = 0.5
	simplifyEpsilon = 1.0
)

// EncodeLayers builds MVT wire bytes for the given feature layers at tile,
// delegating command/zig-zag geometry encoding and protobuf framing to
// orb/encoding/mvt (grounded in _examples' gotiler.go usage of
// mvt.NewLayer/.Clip/.ProjectToTile/.RemoveEmpty/mvt.MarshalGzipped). The
// tag-index resolution (spec.md §3's "MVT tag-index resolution" invariant:
// properties become deduplicated key/value tables referenced by index, not
// repeated inline per feature) is also done by orb's Marshal.
func EncodeLayers(layers []*feature.FeatureLayer, tile maptile.Tile, gzip bool) ([]byte, error) {
	mvtLayers := make(orbmvt.Layers, 0, len(layers))
	for _, l := range layers {
		fc := orbgeojson.NewFeatureCollection()
		for _, f := range l.Features {
			if f.IsEmpty() {
				continue
			}
			gf := orbgeojson.NewFeature(f.Geometry)
			if f.Properties != nil {
				for _, k := range f.Properties.Keys {
					v, _ := f.Properties.Get(k)
					gf.Properties[k] = v.Interface()
				}
			}
			if f.FID != nil {
				gf.ID = *f.FID
			}
			fc.Append(gf)
		}
		mvtLayers = append(mvtLayers, orbmvt.NewLayer(l.Name, fc))
	}

	tileBound := tile.Bound()
	mvtLayers.Clip(tileBound)
	mvtLayers.ProjectToTile(tile)
	mvtLayers.Simplify(simplify.DouglasPeucker(simplifyEpsilon))
	mvtLayers.RemoveEmpty(pointEpsilon, lineEpsilon)

	if gzip {
		return orbmvt.MarshalGzipped(mvtLayers)
	}
	return orbmvt.Marshal(mvtLayers)
}
