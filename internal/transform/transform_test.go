package transform

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/vectilehq/vectile/internal/feature"
	"github.com/vectilehq/vectile/internal/value"
)

func newLineFeature(tags map[string]string) *feature.Feature {
	f := feature.NewFeature(orb.LineString{{0, 0}, {1, 1}})
	for k, v := range tags {
		f.Properties.Set(k, value.String(v))
	}
	return f
}

func TestRoadSortKeyMotorwayBridgeAtZoom15(t *testing.T) {
	f := newLineFeature(map[string]string{"highway": "motorway", "bridge": "yes"})
	out, keep := roadSortKey(f, 15)
	if !keep {
		t.Fatal("expected feature to be kept")
	}
	key, ok := out.Properties.Get("sort_key")
	if !ok {
		t.Fatal("expected sort_key to be set")
	}
	got, _ := key.AsInt()
	if got != 34 {
		t.Fatalf("sort_key = %d, want 34 (24 base + 10 bridge)", got)
	}
}

func TestRoadSortKeyExplicitLayerOverride(t *testing.T) {
	f := newLineFeature(map[string]string{"highway": "residential", "layer": "2"})
	out, _ := roadSortKey(f, 10)
	key, _ := out.Properties.Get("sort_key")
	got, _ := key.AsInt()
	if got != 36 {
		t.Fatalf("sort_key = %d, want 36 (layer 2 -> 2+34)", got)
	}
}

func TestRoadSortKeyNegativeLayer(t *testing.T) {
	f := newLineFeature(map[string]string{"highway": "service", "layer": "-3"})
	out, _ := roadSortKey(f, 10)
	key, _ := out.Properties.Get("sort_key")
	got, _ := key.AsInt()
	if got != 2 {
		t.Fatalf("sort_key = %d, want 2 (layer -3 -> -3+5)", got)
	}
}

func TestRoadSortKeyRailwayServiceYard(t *testing.T) {
	f := newLineFeature(map[string]string{"railway": "service", "service": "yard"})
	out, _ := roadSortKey(f, 10)
	key, _ := out.Properties.Get("sort_key")
	got, _ := key.AsInt()
	if got != 16 {
		t.Fatalf("sort_key = %d, want 16 (23 base - 7 yard)", got)
	}
}

func TestRunDropsOnUnknownTransformIsNoop(t *testing.T) {
	f := newLineFeature(map[string]string{"highway": "primary"})
	out, keep := Run([]string{"road_kind", "does_not_exist"}, f, 10)
	if !keep {
		t.Fatal("expected feature to survive an unknown transform name")
	}
	kind, _ := out.Properties.Get("kind")
	s, _ := kind.AsString()
	if s != "major_road" {
		t.Fatalf("kind = %q, want major_road", s)
	}
}

func TestBuildingHeightFallsBackToLevels(t *testing.T) {
	f := newLineFeature(map[string]string{"building:levels": "4"})
	out, _ := buildingHeight(f, 10)
	h, ok := out.Properties.Get("height")
	if !ok {
		t.Fatal("expected height to be set from levels")
	}
	got, _ := h.AsFloat()
	if got != 14.0 {
		t.Fatalf("height = %v, want 14.0 (4 levels * 3.5m)", got)
	}
}
