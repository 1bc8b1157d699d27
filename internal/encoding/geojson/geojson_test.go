package geojson

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestPrecisionIncreasesWithZoom(t *testing.T) {
	p0 := Precision(0)
	p14 := Precision(14)
	if p14 <= p0 {
		t.Fatalf("Precision(14)=%d should exceed Precision(0)=%d", p14, p0)
	}
}

func TestPrecisionZoom14MatchesFormula(t *testing.T) {
	// precision[z] = ceil(log10(1 << (z+8+2))) - 2; z=14 -> bits=24 ->
	// 1<<24 = 16777216 -> log10 ~ 7.22 -> ceil 8 -> 8-2 = 6.
	got := Precision(14)
	if got != 6 {
		t.Fatalf("Precision(14) = %d, want 6", got)
	}
}

func TestTruncateGeometryRoundsCoordinates(t *testing.T) {
	p := orb.Point{12.3456789, -45.6543211}
	got := TruncateGeometry(p, 2).(orb.Point)
	if got[0] != 12.35 || got[1] != -45.65 {
		t.Fatalf("TruncateGeometry = %v, want (12.35, -45.65)", got)
	}
}

func TestTruncateGeometryLineString(t *testing.T) {
	ls := orb.LineString{{1.23456, 2.34567}, {3.45678, 4.56789}}
	got := TruncateGeometry(ls, 3).(orb.LineString)
	if got[0][0] != 1.235 || got[1][1] != 4.568 {
		t.Fatalf("TruncateGeometry(LineString) = %v", got)
	}
}
