package tileresponse

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
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"

	"github.com/vectilehq/vectile/internal/encoding/geojson"
	"github.com/vectilehq/vectile/internal/encoding/mvt"
	"github.com/vectilehq/vectile/internal/encoding/topojson"
	"github.com/vectilehq/vectile/internal/feature"
	"github.com/vectilehq/vectile/internal/sortpolicy"
	"github.com/vectilehq/vectile/internal/transform"
	"github.com/vectilehq/vectile/internal/value"
)

// Format identifies which encoder RenderTile should dispatch to
// (spec.md §2's "dispatch to encoder" step).
type Format int

const (
	FormatMVT Format = iota
	FormatGeoJSON
	FormatTopoJSON
)

// ParseFormat maps a tile path extension (".mvt", ".pbf", ".geojson",
// ".json", ".topojson") to a Format, defaulting to MVT for an unknown or
// empty extension (spec.md §6's MIME-type-per-extension table).
func ParseFormat(ext string) Format {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "geojson", "json":
		return FormatGeoJSON
	case "topojson":
		return FormatTopoJSON
	default:
		return FormatMVT
	}
}

// LayerConfig describes how to build and post-process one layer of a
// tile response: its source query, the transforms run per feature, the
// sort policy applied afterward, and the maximum feature count kept after
// sorting (spec.md §4.4.8's keep_n_features, 0 meaning unlimited).
type LayerConfig struct {
	Source     LayerSource
	Transforms []string
	SortPolicy string
	MaxFeatures int
}

// maxSerializationRetries bounds the retry loop spec.md §5/§7 describe for
// a transient DB serialization failure: retry up to this many times, then
// surface the error as fatal rather than retrying forever.
const maxSerializationRetries = 5

func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "serialization") || strings.Contains(msg, "conflict") ||
		strings.Contains(msg, "could not serialize")
}

// FetchFeatures runs query against db for tile (z, x, y), decoding each
// row's WKB geometry and remaining columns into a *feature.Feature.
// Retries up to maxSerializationRetries times on a transient
// serialization failure before returning the error as fatal.
func FetchFeatures(ctx context.Context, db *sql.DB, query string, z, x, y int) ([]*feature.Feature, error) {
	var rows *sql.Rows
	var err error

	for attempt := 0; attempt <= maxSerializationRetries; attempt++ {
		rows, err = db.QueryContext(ctx, query, z, x, y)
		if err == nil {
			break
		}
		if !isSerializationFailure(err) || attempt == maxSerializationRetries {
			return nil, fmt.Errorf("tileresponse: fetching features: %w", err)
		}
		log.Warnf("tileresponse: serialization failure, retry %d/%d: %v", attempt+1, maxSerializationRetries, err)
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("tileresponse: reading columns: %w", err)
	}

	var out []*feature.Feature
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("tileresponse: scanning row: %w", err)
		}

		f, err := rowToFeature(cols, raw)
		if err != nil {
			log.Warnf("tileresponse: dropping feature with undecodable geometry: %v", err)
			continue
		}
		if f != nil {
			out = append(out, f)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tileresponse: iterating rows: %w", err)
	}
	return out, nil
}

func rowToFeature(cols []string, raw []interface{}) (*feature.Feature, error) {
	var wkbBytes []byte
	props := map[string]interface{}{}

	for i, col := range cols {
		if col == "geom_wkb" {
			if b, ok := raw[i].([]byte); ok {
				wkbBytes = b
			}
			continue
		}
		props[col] = raw[i]
	}

	if wkbBytes == nil {
		return nil, nil
	}
	geom, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return nil, fmt.Errorf("decoding geometry: %w", err)
	}

	f := feature.NewFeature(geom)
	for k, v := range props {
		f.Properties.Set(k, value.FromInterface(v))
	}
	return f, nil
}

// RenderTile drives the full pipeline for a single layer: fetch, run the
// configured transforms per feature, sort, cap to MaxFeatures, and encode
// to the requested format (spec.md §2's control flow).
func RenderTile(ctx context.Context, db *sql.DB, cfg LayerConfig, z, x, y int, format Format) ([]byte, error) {
	query := BuildQuery(cfg.Source)
	features, err := FetchFeatures(ctx, db, query, z, x, y)
	if err != nil {
		return nil, err
	}

	layer := feature.NewFeatureLayer(cfg.Source.Name)
	for _, f := range features {
		transformed, keep := transform.Run(cfg.Transforms, f, z)
		if !keep || transformed.IsEmpty() {
			continue
		}
		layer.Features = append(layer.Features, transformed)
	}

	sortpolicy.Apply(cfg.SortPolicy, layer)

	if cfg.MaxFeatures > 0 && len(layer.Features) > cfg.MaxFeatures {
		layer.Features = layer.Features[:cfg.MaxFeatures]
	}

	return Encode([]*feature.FeatureLayer{layer}, z, x, y, format)
}

// Encode dispatches already-built feature layers to the encoder named by
// format (spec.md §2's final "dispatch to encoder" step).
func Encode(layers []*feature.FeatureLayer, z, x, y int, format Format) ([]byte, error) {
	switch format {
	case FormatGeoJSON:
		fc := geojson.EncodeLayers(layers, z)
		return fc.MarshalJSON()
	case FormatTopoJSON:
		topo := topojson.EncodeLayers(layers)
		return marshalTopology(topo)
	default:
		tile := maptile.New(uint32(x), uint32(y), maptile.Zoom(z))
		return mvt.EncodeLayers(layers, tile, true)
	}
}

var errEmptyTopology = errors.New("tileresponse: topology has no layers")

// topologyWire is the JSON-serializable shape of a Topology, matching
// TopoJSON's top-level object layout (spec.md §3's "TopoJSON topology
// wire format"): a transform, a shared arc table, and named object
// collections referencing arcs by index.
type topologyWire struct {
	Type      string                  `json:"type"`
	Transform topojson.Transform      `json:"transform"`
	Arcs      [][][2]int64            `json:"arcs"`
	Objects   map[string][]topojson.Geometry `json:"objects"`
}

func marshalTopology(topo *topojson.Topology) ([]byte, error) {
	if topo == nil {
		return nil, errEmptyTopology
	}
	wire := topologyWire{
		Type:      "Topology",
		Transform: topo.Transform,
		Arcs:      topo.Arcs,
		Objects:   topo.Objects,
	}
	return json.Marshal(wire)
}
