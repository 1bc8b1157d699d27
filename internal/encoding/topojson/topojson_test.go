package topojson

import (
	"testing"
)

func TestArcMergerDeduplicatesIdenticalArc(t *testing.T) {
	m := NewArcMerger()
	a := [][2]int64{{0, 0}, {1, 1}, {2, 2}}
	i1 := m.Add(a)
	i2 := m.Add(a)
	if i1 != i2 {
		t.Fatalf("identical arcs got different indices: %d vs %d", i1, i2)
	}
	if len(m.Arcs()) != 1 {
		t.Fatalf("expected 1 arc in table, got %d", len(m.Arcs()))
	}
}

func TestArcMergerReversedArcReturnsComplementIndex(t *testing.T) {
	m := NewArcMerger()
	forward := [][2]int64{{0, 0}, {1, 1}, {2, 2}}
	backward := [][2]int64{{2, 2}, {1, 1}, {0, 0}}

	fwdIdx := m.Add(forward)
	revIdx := m.Add(backward)

	if revIdx != ^fwdIdx {
		t.Fatalf("reversed arc index = %d, want complement of %d (%d)", revIdx, fwdIdx, ^fwdIdx)
	}
	if len(m.Arcs()) != 1 {
		t.Fatalf("expected arc table still has 1 entry, got %d", len(m.Arcs()))
	}
}

func TestDiffEncodeFirstPointAbsoluteRestDelta(t *testing.T) {
	points := [][2]int64{{5, 5}, {8, 5}, {8, 9}}
	got := DiffEncode(points)
	want := [][2]int64{{5, 5}, {3, 0}, {0, 4}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DiffEncode[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMergeRejectsDifferingTransforms(t *testing.T) {
	a := NewArcMerger()
	b := NewArcMerger()
	a.Add([][2]int64{{0, 0}, {1, 1}})
	b.Add([][2]int64{{0, 0}, {2, 2}})

	trA := Transform{Scale: [2]float64{1, 1}, Translate: [2]float64{0, 0}}
	trB := Transform{Scale: [2]float64{2, 2}, Translate: [2]float64{0, 0}}

	_, err := Merge(a, b, trA, trB)
	if err == nil {
		t.Fatal("expected a MergeConflictError for differing transforms")
	}
	if _, ok := err.(*MergeConflictError); !ok {
		t.Fatalf("expected *MergeConflictError, got %T", err)
	}
}

func TestMergeSucceedsWithMatchingTransforms(t *testing.T) {
	a := NewArcMerger()
	b := NewArcMerger()
	a.Add([][2]int64{{0, 0}, {1, 1}})
	b.Add([][2]int64{{2, 2}, {3, 3}})

	tr := Transform{Scale: [2]float64{1, 1}, Translate: [2]float64{0, 0}}

	offset, err := Merge(a, b, tr, tr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offset != 1 {
		t.Fatalf("offset = %d, want 1 (a had 1 arc before merge)", offset)
	}
	if len(a.Arcs()) != 2 {
		t.Fatalf("merged arc table has %d arcs, want 2", len(a.Arcs()))
	}
}
