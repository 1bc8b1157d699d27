// Package tileresponse assembles a rendered tile: it builds the SQL that
// fetches raw features for a layer within a tile envelope, drives them
// through the transform -> sort -> encode pipeline (spec.md §2's control
// flow and §4.8's response assembly; no post-processor from package
// postprocess is run), and retries on
// a transient serialization failure before surfacing a fatal error
// (spec.md §5, §7).
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
	"fmt"
	"strings"
)

// LayerSource is the subset of data.Layer the query builder needs. Kept
// independent of package data to avoid an import cycle (data.CatalogDB
// drives this package, so this package cannot import data back).
type LayerSource struct {
	Name           string
	Table          string
	GeometryColumn string
	SourceSrid     int
	Properties     []string
	PropertyTypes  map[string]string
}

const sridWebMercator = 3857

func geometryExpr(src LayerSource) string {
	if src.SourceSrid != 0 && src.SourceSrid != sridWebMercator {
		return fmt.Sprintf("ST_Transform(%s, 'EPSG:4326', 'EPSG:3857', always_xy := true)", src.GeometryColumn)
	}
	return src.GeometryColumn
}

func propertySelectList(src LayerSource) string {
	if len(src.Properties) == 0 {
		return ""
	}
	cols := make([]string, 0, len(src.Properties))
	for _, prop := range src.Properties {
		dataType := src.PropertyTypes[prop]
		switch {
		case strings.HasPrefix(dataType, "DECIMAL"):
			cols = append(cols, fmt.Sprintf("CAST(%s AS DOUBLE) AS %s", prop, prop))
		case dataType == "TIMESTAMP", dataType == "DATE", dataType == "TIME", dataType == "UUID", dataType == "BLOB":
			cols = append(cols, fmt.Sprintf("CAST(%s AS VARCHAR) AS %s", prop, prop))
		default:
			cols = append(cols, prop)
		}
	}
	return strings.Join(cols, ", ") + ", "
}

// ToleranceForZoom returns the simplification tolerance, in tile-envelope
// units, appropriate for zoom z (spec.md §4.8): coarser at low zoom where
// a tile covers a huge ground area, down to near-zero at high zoom where
// every vertex is visually significant.
func ToleranceForZoom(z int) float64 {
	if z >= 20 {
		return 0
	}
	return 10.0 / float64(int(1)<<uint(z))
}

// BuildQuery produces the SQL statement that fetches one row per feature
// intersecting tile (z, x, y): the feature's geometry clipped to the tile
// envelope (as WKB, for Go-side decoding) plus its raw property columns.
// This replaces the teacher's single ST_AsMVT call (which drove the whole
// encode step inside SQL) with a feature-level fetch that the transform /
// sort / encode pipeline in Go then drives (spec.md §2).
func BuildQuery(src LayerSource) string {
	geomExpr := geometryExpr(src)
	propCols := propertySelectList(src)

	return fmt.Sprintf(`
		WITH tile_bounds AS (
			SELECT ST_TileEnvelope($1::INTEGER, $2::INTEGER, $3::INTEGER) AS envelope
		)
		SELECT
			%sST_AsWKB(ST_Intersection(%s, tile_bounds.envelope)) AS geom_wkb
		FROM %s, tile_bounds
		WHERE ST_Intersects(%s, tile_bounds.envelope)
	`, propCols, geomExpr, src.Table, geomExpr)
}
