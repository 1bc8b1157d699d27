package tileresponse

import (
	"strings"
	"testing"
)

func TestBuildQueryIncludesTileEnvelopeAndTable(t *testing.T) {
	src := LayerSource{
		Name:           "roads",
		Table:          "main.roads",
		GeometryColumn: "geom",
		SourceSrid:     4326,
		Properties:     []string{"name", "highway"},
		PropertyTypes:  map[string]string{"name": "VARCHAR", "highway": "VARCHAR"},
	}
	query := BuildQuery(src)

	for _, want := range []string{"ST_TileEnvelope", "main.roads", "ST_Intersects", "ST_AsWKB"} {
		if !strings.Contains(query, want) {
			t.Fatalf("query missing %q:\n%s", want, query)
		}
	}
}

func TestBuildQueryCastsDecimalProperties(t *testing.T) {
	src := LayerSource{
		Table:          "t",
		GeometryColumn: "geom",
		Properties:     []string{"price"},
		PropertyTypes:  map[string]string{"price": "DECIMAL(10,2)"},
	}
	query := BuildQuery(src)
	if !strings.Contains(query, "CAST(price AS DOUBLE)") {
		t.Fatalf("expected DECIMAL column to be cast to DOUBLE:\n%s", query)
	}
}

func TestToleranceForZoomDecreasesWithZoom(t *testing.T) {
	low := ToleranceForZoom(2)
	high := ToleranceForZoom(16)
	if high >= low {
		t.Fatalf("ToleranceForZoom(16)=%v should be smaller than ToleranceForZoom(2)=%v", high, low)
	}
}

func TestParseFormatDispatch(t *testing.T) {
	cases := map[string]Format{
		".mvt":      FormatMVT,
		"pbf":       FormatMVT,
		".geojson":  FormatGeoJSON,
		".topojson": FormatTopoJSON,
		"":          FormatMVT,
	}
	for ext, want := range cases {
		if got := ParseFormat(ext); got != want {
			t.Fatalf("ParseFormat(%q) = %v, want %v", ext, got, want)
		}
	}
}
