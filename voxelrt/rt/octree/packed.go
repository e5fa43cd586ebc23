package octree

import (
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/gekko3d/svo/voxelrt/rt/morton"
)

// Packed word layout:
//
//	bits  0..7   leaf mask  (bit i: octant i is a leaf)
//	bits  8..15  valid mask (bit i: octant i is non-empty)
//	bits 49..63  index of the first subdivided child, breadth-first
const (
	PackedLeafShift   = 0
	PackedValidShift  = 8
	PackedOffsetShift = 49
	PackedOffsetBits  = 15
	PackedMaxOffset   = 1<<PackedOffsetBits - 1
	// The last subdivided word's children start at most at PackedMaxOffset.
	PackedMaxWords = PackedMaxOffset + Branching

	PackedWordSize = 8
)

func PackWord(offset uint32, validMask, leafMask uint8) uint64 {
	return uint64(offset)<<PackedOffsetShift | uint64(validMask)<<PackedValidShift | uint64(leafMask)<<PackedLeafShift
}

func UnpackWord(w uint64) (offset uint32, validMask, leafMask uint8) {
	return uint32(w >> PackedOffsetShift), uint8(w >> PackedValidShift), uint8(w >> PackedLeafShift)
}

// PackedTree is the breadth-first serialization of a Tree. Only subdivided
// nodes get a word; leaf children live in the masks and their metadata in
// Leaves, starting at LeafOffsets[word] in octant order.
type PackedTree[M comparable] struct {
	Words       []uint64
	LeafOffsets []uint32
	Leaves      []M
	MaxDepth    uint8
	Size        float32
}

// Pack serializes t breadth-first. A node whose masks are equal has no
// subdivided children and stores no offset.
func Pack[M comparable](t *Tree[M]) (*PackedTree[M], error) {
	if len(t.Nodes) == 0 {
		return nil, errors.Wrap(ErrCorruptTree, "no root")
	}
	p := &PackedTree[M]{MaxDepth: t.MaxDepth, Size: t.Size}

	root := t.Nodes[0]
	switch root.Kind {
	case NodeEmpty:
		p.Words = append(p.Words, 0)
		p.LeafOffsets = append(p.LeafOffsets, 0)
		return p, nil
	case NodeLeaf:
		p.Words = append(p.Words, PackWord(0, 0xFF, 0xFF))
		p.LeafOffsets = append(p.LeafOffsets, 0)
		for i := 0; i < Branching; i++ {
			p.Leaves = append(p.Leaves, root.Meta)
		}
		return p, nil
	}

	queue := []uint32{0}
	amount := uint32(1)
	for len(queue) > 0 {
		n := t.Nodes[queue[0]]
		queue = queue[1:]

		first := amount
		var valid, leaf uint8
		leafBase := uint32(len(p.Leaves))
		for slot, c := range n.Children {
			if c == 0 {
				continue
			}
			bit := uint8(1) << slot
			child := t.Nodes[c]
			switch child.Kind {
			case NodeLeaf:
				valid |= bit
				leaf |= bit
				p.Leaves = append(p.Leaves, child.Meta)
			case NodeParent:
				valid |= bit
				queue = append(queue, c)
				amount++
			}
		}

		var offset uint32
		if leaf != valid {
			if first > PackedMaxOffset {
				return nil, errors.Wrapf(ErrPackedOverflow, "child index %d exceeds %d", first, PackedMaxOffset)
			}
			offset = first
		}
		p.Words = append(p.Words, PackWord(offset, valid, leaf))
		p.LeafOffsets = append(p.LeafOffsets, leafBase)
	}
	return p, nil
}

func (p *PackedTree[M]) MaxLeaves() uint64 {
	return MaxLeaves(p.MaxDepth)
}

// Lookup returns the metadata of the voxel at c.
func (p *PackedTree[M]) Lookup(c morton.Code) (M, bool) {
	var zero M
	span := p.MaxLeaves()
	if uint64(c) >= span || len(p.Words) == 0 {
		return zero, false
	}
	idx := uint32(0)
	for {
		offset, valid, leaf := UnpackWord(p.Words[idx])
		span /= Branching
		slot := c.Octant(span)
		bit := uint8(1) << slot
		below := bit - 1
		switch {
		case valid&bit == 0:
			return zero, false
		case leaf&bit != 0:
			return p.Leaves[p.LeafOffsets[idx]+uint32(bits.OnesCount8(leaf&below))], true
		}
		idx = offset + uint32(bits.OnesCount8(valid&^leaf&below))
		if int(idx) >= len(p.Words) || span == 1 {
			return zero, false
		}
	}
}

// Bytes returns the words little-endian, ready for a storage buffer upload.
func (p *PackedTree[M]) Bytes() []byte {
	buf := make([]byte, len(p.Words)*PackedWordSize)
	for i, w := range p.Words {
		binary.LittleEndian.PutUint64(buf[i*PackedWordSize:], w)
	}
	return buf
}

// Validate checks that offsets and leaf offsets stay inside the arrays.
func (p *PackedTree[M]) Validate() error {
	if len(p.Words) == 0 {
		return errors.Wrap(ErrCorruptTree, "no root word")
	}
	if p.MaxDepth < MinMaxDepth || p.MaxDepth > MaxMaxDepth {
		return errors.Wrapf(ErrInvalidDepth, "depth %d", p.MaxDepth)
	}
	if len(p.LeafOffsets) != len(p.Words) {
		return errors.Wrapf(ErrCorruptTree, "%d leaf offsets for %d words", len(p.LeafOffsets), len(p.Words))
	}
	for i, w := range p.Words {
		offset, valid, leaf := UnpackWord(w)
		if leaf&^valid != 0 {
			return errors.Wrapf(ErrCorruptTree, "word %d: leaf mask %08b outside valid mask %08b", i, leaf, valid)
		}
		end := p.LeafOffsets[i] + uint32(bits.OnesCount8(leaf))
		if int(end) > len(p.Leaves) {
			return errors.Wrapf(ErrCorruptTree, "word %d: leaves [%d,%d) beyond %d", i, p.LeafOffsets[i], end, len(p.Leaves))
		}
		if leaf == valid {
			continue
		}
		last := offset + uint32(bits.OnesCount8(valid&^leaf))
		if int(offset) <= i || int(last) > len(p.Words) {
			return errors.Wrapf(ErrCorruptTree, "word %d: children [%d,%d) out of range", i, offset, last)
		}
	}
	return nil
}
