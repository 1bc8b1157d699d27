// Package mvt implements the Mapbox Vector Tile encoder (spec.md §4.7).
// EncodeLayers hands features to github.com/paulmach/orb/encoding/mvt,
// which performs the command/zig-zag geometry encoding and the wire
// serialization. This file's EncodeLine/EncodeRing build the same command
// stream by hand; EncodeLayers does not call them.
package mvt

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

// Command ids per the MVT spec's geometry encoding.
const (
	CmdMoveTo    = 1
	CmdLineTo    = 2
	CmdClosePath = 7
)

// Point2 is an integer tile-local coordinate pair.
type Point2 struct {
	X, Y int32
}

// EncodeCommand packs a command id and repeat count into the single
// integer MVT uses: (id & 0x7) | (count << 3).
func EncodeCommand(id uint32, count uint32) uint32 {
	return (id & 0x7) | (count << 3)
}

// DecodeCommand unpacks EncodeCommand's output back to (id, count).
func DecodeCommand(cmd uint32) (id uint32, count uint32) {
	return cmd & 0x7, cmd >> 3
}

// ZigZagEncode maps a signed delta to MVT's zig-zag unsigned encoding so
// small negative deltas stay small in a varint: 0,-1,1,-2,2 -> 0,1,2,3,4.
func ZigZagEncode(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// ZigZagDecode reverses ZigZagEncode.
func ZigZagDecode(n uint32) int32 {
	return int32(n>>1) ^ -int32(n&1)
}

// EncodeLine produces the command stream for an open line: a single
// MoveTo to the first point, then one LineTo run covering the rest.
// Consecutive duplicate points (same integer tile coordinate as the
// previous emitted point) are skipped, since a LineTo run with zero
// movement cannot be represented and would otherwise corrupt the command
// count (spec.md §4.7's vertex-skipping rule).
func EncodeLine(points []Point2) []uint32 {
	if len(points) == 0 {
		return nil
	}
	cmds := make([]uint32, 0, len(points)*2+2)
	cx, cy := int32(0), int32(0)

	first := points[0]
	cmds = append(cmds, EncodeCommand(CmdMoveTo, 1))
	cmds = append(cmds, ZigZagEncode(first.X-cx), ZigZagEncode(first.Y-cy))
	cx, cy = first.X, first.Y

	lineTo := make([]uint32, 0, (len(points)-1)*2)
	count := uint32(0)
	for _, p := range points[1:] {
		dx, dy := p.X-cx, p.Y-cy
		if dx == 0 && dy == 0 {
			continue
		}
		lineTo = append(lineTo, ZigZagEncode(dx), ZigZagEncode(dy))
		cx, cy = p.X, p.Y
		count++
	}
	if count == 0 {
		return cmds
	}
	cmds = append(cmds, EncodeCommand(CmdLineTo, count))
	cmds = append(cmds, lineTo...)
	return cmds
}

// EncodeRing produces the command stream for a closed polygon ring:
// EncodeLine over the ring without its explicit closing point (orb rings
// repeat the first point as the last; MVT expresses closure with
// ClosePath instead), followed by a ClosePath command.
func EncodeRing(points []Point2) []uint32 {
	pts := points
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	cmds := EncodeLine(pts)
	if cmds == nil {
		return nil
	}
	return append(cmds, EncodeCommand(CmdClosePath, 1))
}
