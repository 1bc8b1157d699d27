package mvt

import (
	"reflect"
	"testing"
)

func TestZigZagRoundTrip(t *testing.T) {
	cases := []int32{0, -1, 1, -2, 2, -1000, 1000}
	want := []uint32{0, 1, 2, 3, 4, 1999, 2000}
	for i, c := range cases {
		got := ZigZagEncode(c)
		if got != want[i] {
			t.Fatalf("ZigZagEncode(%d) = %d, want %d", c, got, want[i])
		}
		if back := ZigZagDecode(got); back != c {
			t.Fatalf("ZigZagDecode(%d) = %d, want %d", got, back, c)
		}
	}
}

func TestEncodeCommandPacksIdAndCount(t *testing.T) {
	cmd := EncodeCommand(CmdLineTo, 3)
	id, count := DecodeCommand(cmd)
	if id != CmdLineTo || count != 3 {
		t.Fatalf("got id=%d count=%d, want id=%d count=3", id, count, CmdLineTo)
	}
}

func TestEncodeLineMoveToThenLineTo(t *testing.T) {
	line := []Point2{{2, 2}, {5, 2}, {5, 5}}
	got := EncodeLine(line)

	want := []uint32{
		EncodeCommand(CmdMoveTo, 1), ZigZagEncode(2), ZigZagEncode(2),
		EncodeCommand(CmdLineTo, 2), ZigZagEncode(3), ZigZagEncode(0), ZigZagEncode(0), ZigZagEncode(3),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EncodeLine(%v) = %v, want %v", line, got, want)
	}
}

func TestEncodeLineSkipsConsecutiveDuplicatePoints(t *testing.T) {
	line := []Point2{{0, 0}, {1, 1}, {1, 1}, {2, 2}}
	got := EncodeLine(line)

	_, count := DecodeCommand(got[3])
	if count != 2 {
		t.Fatalf("LineTo count = %d, want 2 (duplicate point skipped)", count)
	}
}

func TestEncodeRingDropsClosingPointAndAddsClosePath(t *testing.T) {
	ring := []Point2{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}
	got := EncodeRing(ring)

	last := got[len(got)-1]
	id, count := DecodeCommand(last)
	if id != CmdClosePath || count != 1 {
		t.Fatalf("last command = (id=%d count=%d), want ClosePath", id, count)
	}

	moveCmd := got[0]
	_, moveCount := DecodeCommand(moveCmd)
	if moveCount != 1 {
		t.Fatalf("MoveTo count = %d, want 1", moveCount)
	}
}
