// Package morton maps 3D voxel coordinates onto a Z-order curve.
//
// Each code interleaves 21 bits per axis with x in the lowest bit of every
// 3-bit group, so the eight children of any octree node always occupy eight
// consecutive codes.
package morton

// Code is an interleaved x/y/z index.
type Code uint64

const (
	BitsPerAxis = 21
	MaxAxis     = 1<<BitsPerAxis - 1

	// Branching is the number of children per node, 2^3 for three axes.
	Branching = 8
)

func Encode(x, y, z uint32) Code {
	return Code(splitBy3(x) | splitBy3(y)<<1 | splitBy3(z)<<2)
}

func Decode(c Code) (x, y, z uint32) {
	return uint32(compactBy3(uint64(c))), uint32(compactBy3(uint64(c) >> 1)), uint32(compactBy3(uint64(c) >> 2))
}

// Octant returns the child slot of c at the level whose children each span
// span codes.
func (c Code) Octant(span uint64) int {
	return int((uint64(c) / span) % Branching)
}

// Side is the number of voxels along one axis of a tree of the given depth.
func Side(depth uint8) uint32 {
	if depth == 0 {
		return 0
	}
	return 1 << (depth - 1)
}

// Span is the number of codes covered by a tree of the given depth.
func Span(depth uint8) uint64 {
	if depth == 0 {
		return 0
	}
	return 1 << (3 * uint64(depth-1))
}

func splitBy3(v uint32) uint64 {
	x := uint64(v) & MaxAxis
	x = (x | x<<32) & 0x1f00000000ffff
	x = (x | x<<16) & 0x1f0000ff0000ff
	x = (x | x<<8) & 0x100f00f00f00f00f
	x = (x | x<<4) & 0x10c30c30c30c30c3
	x = (x | x<<2) & 0x1249249249249249
	return x
}

func compactBy3(x uint64) uint64 {
	x &= 0x1249249249249249
	x = (x ^ (x >> 2)) & 0x10c30c30c30c30c3
	x = (x ^ (x >> 4)) & 0x100f00f00f00f00f
	x = (x ^ (x >> 8)) & 0x1f0000ff0000ff
	x = (x ^ (x >> 16)) & 0x1f00000000ffff
	x = (x ^ (x >> 32)) & MaxAxis
	return x
}
