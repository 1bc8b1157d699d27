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
	"context"
	"fmt"
)

// CatalogMock is an in-memory stand-in for CatalogDB, used with the --test
// command line flag to exercise the HTTP surface (routing, static UI,
// request validation) without a real DuckDB file. It deliberately does not
// satisfy a *CatalogDB type assertion, so the tile/layer/health handlers
// that require the real catalog report "disconnected"/"invalid catalog
// type" against it rather than fabricate tile data.
type CatalogMock struct {
	tables        []*Table
	tableMap      map[string]*Table
	tableIncludes map[string]string
	tableExcludes map[string]string
}

var instanceMock *CatalogMock

// CatMockInstance returns the process-wide mock catalog singleton, seeded
// with one sample table so /tables and similar metadata routes have
// something to list.
func CatMockInstance() Catalog {
	if instanceMock == nil {
		instanceMock = newCatalogMock()
	}
	return instanceMock
}

func newCatalogMock() *CatalogMock {
	sample := &Table{
		ID:             "public.sample_points",
		Schema:         "public",
		Table:          "sample_points",
		Title:          "Sample Points",
		Description:    "Mock table served in --test mode",
		GeometryColumn: "geom",
		Srid:           4326,
		GeometryType:   "POINT",
		IDColumn:       "id",
		Columns:        []string{"id", "name"},
		DbTypes:        map[string]string{"id": DuckDBTypeNumeric, "name": DuckDBTypeText},
		JSONTypes:      []string{JSONTypeNumber, JSONTypeString},
		Extent:         Extent{Minx: -180, Miny: -90, Maxx: 180, Maxy: 90},
	}
	return &CatalogMock{
		tables:   []*Table{sample},
		tableMap: map[string]*Table{sample.ID: sample},
	}
}

func (cat *CatalogMock) SetIncludeExclude(includeList []string, excludeList []string) {
	cat.tableIncludes = make(map[string]string)
	for _, name := range includeList {
		cat.tableIncludes[name] = name
	}
	cat.tableExcludes = make(map[string]string)
	for _, name := range excludeList {
		cat.tableExcludes[name] = name
	}
}

func (cat *CatalogMock) Tables() ([]*Table, error) {
	return cat.tables, nil
}

func (cat *CatalogMock) TableByName(name string) (*Table, error) {
	if tbl, ok := cat.tableMap[name]; ok {
		return tbl, nil
	}
	return nil, fmt.Errorf("table not found: %s", name)
}

func (cat *CatalogMock) TableFeatures(ctx context.Context, name string, param *QueryParam) ([]string, error) {
	if _, ok := cat.tableMap[name]; !ok {
		return nil, fmt.Errorf("table not found: %s", name)
	}
	return []string{}, nil
}

func (cat *CatalogMock) TableFeature(ctx context.Context, name string, id string, param *QueryParam) (string, error) {
	if _, ok := cat.tableMap[name]; !ok {
		return "", fmt.Errorf("table not found: %s", name)
	}
	return "", fmt.Errorf("feature not found: %s", id)
}

func (cat *CatalogMock) GetLayers() ([]*Layer, error) {
	return []*Layer{
		{
			Name:           "sample_points",
			Table:          "sample_points",
			GeometryColumn: "geom",
			GeometryType:   "POINT",
			Srid:           SRID_3857,
			SourceSrid:     SRID_4326,
			Properties:     []string{"name"},
		},
	}, nil
}

func (cat *CatalogMock) GetLayerByName(name string) (*Layer, error) {
	if name != "sample_points" {
		return nil, fmt.Errorf("layer not found: %s", name)
	}
	layers, _ := cat.GetLayers()
	return layers[0], nil
}

func (cat *CatalogMock) GenerateTile(ctx context.Context, layerName string, z, x, y int, format string) ([]byte, error) {
	if _, err := cat.GetLayerByName(layerName); err != nil {
		return nil, err
	}
	return []byte{}, nil
}

func (cat *CatalogMock) GetTileJSON(layerName string, baseURL string) (*TileJSON, error) {
	if _, err := cat.GetLayerByName(layerName); err != nil {
		return nil, err
	}
	return &TileJSON{
		TileJSON: "3.0.0",
		Name:     layerName,
		Version:  "1.0.0",
		Scheme:   "xyz",
		Tiles:    []string{fmt.Sprintf("%s/tiles/%s/{z}/{x}/{y}.mvt", baseURL, layerName)},
		MinZoom:  0,
		MaxZoom:  22,
	}, nil
}
