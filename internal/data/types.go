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

import "context"

// SRID_UNKNOWN marks a geometry source whose SRID could not be determined
// (e.g. the output of an arbitrary table function).
const SRID_UNKNOWN = -1

// Extent is a geographic or projected bounding box.
type Extent struct {
	Minx float64
	Miny float64
	Maxx float64
	Maxy float64
}

// Table describes one source table discovered (or configured) as a
// candidate for a vector tile layer.
type Table struct {
	ID             string
	Schema         string
	Table          string
	Title          string
	Description    string
	GeometryColumn string
	Srid           int
	GeometryType   string
	IDColumn       string
	Columns        []string
	DbTypes        map[string]string
	JSONTypes      []string
	ColDesc        []string
	Extent         Extent
}

// Function describes a DuckDB table function usable as a geometry source,
// e.g. a spatial function returning a derived set of features.
type Function struct {
	Name           string
	Schema         string
	GeometryColumn string
	Types          map[string]string
	InputNames     []string
	OutputNames    []string
}

// Sorting is a single ORDER BY clause element.
type Sorting struct {
	Name   string
	IsDesc bool
}

// PropertyFilter is a single equality filter condition pushed into the
// generated SQL WHERE clause.
type PropertyFilter struct {
	Name  string
	Value interface{}
}

// TransformFunction wraps a SQL geometry expression transform (e.g. a
// ST_SimplifyPreserveTopology wrapper) applied when building the geometry
// column expression for a query.
type TransformFunction struct {
	Name string
	Arg  string
}

func (t TransformFunction) apply(expr string) string {
	if t.Name == "" {
		return expr
	}
	if t.Arg == "" {
		return t.Name + "(" + expr + ")"
	}
	return t.Name + "(" + expr + ", " + t.Arg + ")"
}

// QueryParam carries the request-scoped parameters used to build a feature
// query: requested columns, bounding box, attribute/CQL filters, sort,
// paging, output CRS and precision, and any geometry transforms (simplify,
// buffer) to apply server-side.
type QueryParam struct {
	Columns       []string
	Bbox          *Extent
	BboxCrs       int
	Filter        []*PropertyFilter
	FilterSql     string
	GroupBy       []string
	SortBy        []Sorting
	Limit         int
	Offset        int
	Crs           int
	Precision     int
	TransformFuns []TransformFunction
}

// NewQueryParam returns a QueryParam with the defaults used when no request
// parameters are supplied (no limit, full precision, WGS84 output).
func NewQueryParam() *QueryParam {
	return &QueryParam{
		Limit:     -1,
		Offset:    0,
		Crs:       4326,
		Precision: -1,
	}
}

// Catalog is the source-of-truth abstraction over a backing store of
// geometry-bearing tables: implemented by CatalogDB (DuckDB-backed) and
// CatalogMock (an in-memory stand-in for --test mode).
type Catalog interface {
	SetIncludeExclude(includeList []string, excludeList []string)
	Tables() ([]*Table, error)
	TableByName(name string) (*Table, error)
	TableFeatures(ctx context.Context, name string, param *QueryParam) ([]string, error)
	TableFeature(ctx context.Context, name string, id string, param *QueryParam) (string, error)
	GetLayers() ([]*Layer, error)
	GetLayerByName(name string) (*Layer, error)
	GenerateTile(ctx context.Context, layerName string, z, x, y int, format string) ([]byte, error)
	GetTileJSON(layerName string, baseURL string) (*TileJSON, error)
}
