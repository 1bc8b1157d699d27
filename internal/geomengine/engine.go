// Package geomengine wraps an external geometry engine providing the
// spatial predicates the pipeline depends on but does not reimplement:
// intersection, difference, union, buffer, simplify-preserve-topology,
// make-valid, area, centroid, representative point and line-merge
// (spec.md §1 Non-goals). Predicates are delegated to DuckDB's spatial
// extension over WKB round-trips, matching this teacher's own
// `INSTALL spatial; LOAD spatial;` / ST_* SQL pattern in
// internal/data/catalog_db.go and tiles.go rather than a from-scratch Go
// implementation.
package geomengine

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
	"database/sql"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// Engine is the set of geometry operations the post-processors (spec.md
// §4.4) depend on but do not implement themselves.
type Engine interface {
	Intersection(a, b orb.Geometry) (orb.Geometry, error)
	Difference(a, b orb.Geometry) (orb.Geometry, error)
	Union(geoms []orb.Geometry) (orb.Geometry, error)
	Buffer(g orb.Geometry, distance float64) (orb.Geometry, error)
	Area(g orb.Geometry) (float64, error)
	Centroid(g orb.Geometry) (orb.Point, error)
	PointOnSurface(g orb.Geometry) (orb.Point, error)
	LineMerge(g orb.Geometry) (orb.Geometry, error)
	MakeValid(g orb.Geometry) (orb.Geometry, error)
	SimplifyPreserveTopology(g orb.Geometry, tolerance float64) (orb.Geometry, error)
	IsValid(g orb.Geometry) (bool, error)
}

// DuckDBEngine implements Engine by round-tripping WKB through DuckDB's
// spatial extension. One statement per call; callers on a hot path should
// batch where possible, but the post-processors here run once per tile,
// not once per pixel.
type DuckDBEngine struct {
	db *sql.DB
}

// New wraps db (expected to already have `INSTALL spatial; LOAD spatial;`
// applied, as internal/data.dbConnect does) as a geomengine.Engine.
func New(db *sql.DB) *DuckDBEngine {
	return &DuckDBEngine{db: db}
}

func (e *DuckDBEngine) scalarGeom(query string, args ...interface{}) (orb.Geometry, error) {
	var raw []byte
	if err := e.db.QueryRow(query, args...).Scan(&raw); err != nil {
		return nil, fmt.Errorf("geomengine: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	g, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("geomengine: decoding wkb result: %w", err)
	}
	return g, nil
}

func wkbBytes(g orb.Geometry) ([]byte, error) {
	return wkb.Marshal(g)
}

func (e *DuckDBEngine) Intersection(a, b orb.Geometry) (orb.Geometry, error) {
	wa, err := wkbBytes(a)
	if err != nil {
		return nil, err
	}
	wb, err := wkbBytes(b)
	if err != nil {
		return nil, err
	}
	return e.scalarGeom(
		"SELECT ST_AsWKB(ST_Intersection(ST_GeomFromWKB($1), ST_GeomFromWKB($2)))", wa, wb)
}

func (e *DuckDBEngine) Difference(a, b orb.Geometry) (orb.Geometry, error) {
	wa, err := wkbBytes(a)
	if err != nil {
		return nil, err
	}
	wb, err := wkbBytes(b)
	if err != nil {
		return nil, err
	}
	return e.scalarGeom(
		"SELECT ST_AsWKB(ST_Difference(ST_GeomFromWKB($1), ST_GeomFromWKB($2)))", wa, wb)
}

func (e *DuckDBEngine) Union(geoms []orb.Geometry) (orb.Geometry, error) {
	if len(geoms) == 0 {
		return nil, nil
	}
	acc := geoms[0]
	for _, g := range geoms[1:] {
		wa, err := wkbBytes(acc)
		if err != nil {
			return nil, err
		}
		wb, err := wkbBytes(g)
		if err != nil {
			return nil, err
		}
		acc, err = e.scalarGeom(
			"SELECT ST_AsWKB(ST_Union(ST_GeomFromWKB($1), ST_GeomFromWKB($2)))", wa, wb)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (e *DuckDBEngine) Buffer(g orb.Geometry, distance float64) (orb.Geometry, error) {
	wg, err := wkbBytes(g)
	if err != nil {
		return nil, err
	}
	return e.scalarGeom("SELECT ST_AsWKB(ST_Buffer(ST_GeomFromWKB($1), $2))", wg, distance)
}

func (e *DuckDBEngine) Area(g orb.Geometry) (float64, error) {
	wg, err := wkbBytes(g)
	if err != nil {
		return 0, err
	}
	var area float64
	err = e.db.QueryRow("SELECT ST_Area(ST_GeomFromWKB($1))", wg).Scan(&area)
	if err != nil {
		return 0, fmt.Errorf("geomengine: area: %w", err)
	}
	return area, nil
}

func (e *DuckDBEngine) Centroid(g orb.Geometry) (orb.Point, error) {
	wg, err := wkbBytes(g)
	if err != nil {
		return orb.Point{}, err
	}
	result, err := e.scalarGeom("SELECT ST_AsWKB(ST_Centroid(ST_GeomFromWKB($1)))", wg)
	if err != nil {
		return orb.Point{}, err
	}
	pt, ok := result.(orb.Point)
	if !ok {
		return orb.Point{}, fmt.Errorf("geomengine: centroid did not return a point")
	}
	return pt, nil
}

func (e *DuckDBEngine) PointOnSurface(g orb.Geometry) (orb.Point, error) {
	wg, err := wkbBytes(g)
	if err != nil {
		return orb.Point{}, err
	}
	result, err := e.scalarGeom("SELECT ST_AsWKB(ST_PointOnSurface(ST_GeomFromWKB($1)))", wg)
	if err != nil {
		return orb.Point{}, err
	}
	pt, ok := result.(orb.Point)
	if !ok {
		return orb.Point{}, fmt.Errorf("geomengine: point-on-surface did not return a point")
	}
	return pt, nil
}

func (e *DuckDBEngine) LineMerge(g orb.Geometry) (orb.Geometry, error) {
	wg, err := wkbBytes(g)
	if err != nil {
		return nil, err
	}
	return e.scalarGeom("SELECT ST_AsWKB(ST_LineMerge(ST_GeomFromWKB($1)))", wg)
}

func (e *DuckDBEngine) MakeValid(g orb.Geometry) (orb.Geometry, error) {
	wg, err := wkbBytes(g)
	if err != nil {
		return nil, err
	}
	return e.scalarGeom("SELECT ST_AsWKB(ST_MakeValid(ST_GeomFromWKB($1)))", wg)
}

func (e *DuckDBEngine) SimplifyPreserveTopology(g orb.Geometry, tolerance float64) (orb.Geometry, error) {
	wg, err := wkbBytes(g)
	if err != nil {
		return nil, err
	}
	return e.scalarGeom(
		"SELECT ST_AsWKB(ST_SimplifyPreserveTopology(ST_GeomFromWKB($1), $2))", wg, tolerance)
}

func (e *DuckDBEngine) IsValid(g orb.Geometry) (bool, error) {
	wg, err := wkbBytes(g)
	if err != nil {
		return false, err
	}
	var valid bool
	err = e.db.QueryRow("SELECT ST_IsValid(ST_GeomFromWKB($1))", wg).Scan(&valid)
	if err != nil {
		return false, fmt.Errorf("geomengine: is-valid: %w", err)
	}
	return valid, nil
}
