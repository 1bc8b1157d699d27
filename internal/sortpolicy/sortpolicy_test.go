package sortpolicy

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/vectilehq/vectile/internal/feature"
	"github.com/vectilehq/vectile/internal/value"
)

func withInt(key string, v int64) *feature.Feature {
	f := feature.NewFeature(orb.Point{0, 0})
	f.Properties.Set(key, value.Int(v))
	return f
}

func TestSortRoadsDescendingSortKey(t *testing.T) {
	features := []*feature.Feature{withInt("sort_key", 15), withInt("sort_key", 24), withInt("sort_key", 17)}
	sortRoads(features)
	got := []int64{}
	for _, f := range features {
		v, _ := f.Properties.Get("sort_key")
		n, _ := v.AsInt()
		got = append(got, n)
	}
	want := []int64{24, 17, 15}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSortPlacesAscendingRank(t *testing.T) {
	features := []*feature.Feature{withInt("rank", 3), withInt("rank", 1), withInt("rank", 2)}
	sortPlaces(features)
	var got []int64
	for _, f := range features {
		v, _ := f.Properties.Get("rank")
		n, _ := v.AsInt()
		got = append(got, n)
	}
	want := []int64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestApplyUnknownPolicyIsNoop(t *testing.T) {
	layer := feature.NewFeatureLayer("mystery")
	layer.Features = []*feature.Feature{withInt("rank", 3), withInt("rank", 1)}
	Apply("not_a_policy", layer)
	v, _ := layer.Features[0].Properties.Get("rank")
	n, _ := v.AsInt()
	if n != 3 {
		t.Fatalf("unknown policy mutated order: first rank = %d, want 3", n)
	}
}
