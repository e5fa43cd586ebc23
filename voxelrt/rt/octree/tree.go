package octree

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/gekko3d/svo/voxelrt/rt/morton"
)

// Tree is a finished octree. Nodes[0] is the root and every Parent's children
// sit at higher indices than the parent itself.
type Tree[M comparable] struct {
	Nodes    []Node[M]
	MaxDepth uint8
	Size     float32
}

type Stats struct {
	Nodes   int
	Empty   int
	Leaves  int
	Parents int
}

func (t *Tree[M]) Root() Node[M] {
	return t.Nodes[0]
}

func (t *Tree[M]) Len() int {
	return len(t.Nodes)
}

func (t *Tree[M]) MaxLeaves() uint64 {
	return MaxLeaves(t.MaxDepth)
}

// Side is the number of voxels along one edge of the tree.
func (t *Tree[M]) Side() uint32 {
	return morton.Side(t.MaxDepth)
}

// VoxelSize is the world-space edge length of a single voxel.
func (t *Tree[M]) VoxelSize() float32 {
	return t.Size / float32(t.Side())
}

// VoxelCenter returns the world-space centre of the voxel at c, with the
// tree's minimum corner at the origin.
func (t *Tree[M]) VoxelCenter(c morton.Code) mgl32.Vec3 {
	x, y, z := morton.Decode(c)
	s := t.VoxelSize()
	return mgl32.Vec3{(float32(x) + 0.5) * s, (float32(y) + 0.5) * s, (float32(z) + 0.5) * s}
}

// Lookup descends from the root to the terminal node covering c. An absent
// child is reported as an Empty node. The bool is false when c is outside
// the tree.
func (t *Tree[M]) Lookup(c morton.Code) (Node[M], bool) {
	span := t.MaxLeaves()
	if uint64(c) >= span {
		return EmptyNode[M](), false
	}
	idx := uint32(0)
	for {
		n := t.Nodes[idx]
		if n.Kind != NodeParent {
			return n, true
		}
		span /= Branching
		idx = n.Children[c.Octant(span)]
		if idx == 0 {
			return EmptyNode[M](), true
		}
	}
}

func (t *Tree[M]) LookupXYZ(x, y, z uint32) (Node[M], bool) {
	side := t.Side()
	if x >= side || y >= side || z >= side {
		return EmptyNode[M](), false
	}
	return t.Lookup(morton.Encode(x, y, z))
}

// Walk visits every Leaf in Morton order with the first code and the number
// of codes it covers. Returning false stops the walk.
func (t *Tree[M]) Walk(fn func(base morton.Code, span uint64, n Node[M]) bool) {
	t.walk(0, 0, t.MaxLeaves(), fn)
}

func (t *Tree[M]) walk(idx uint32, base morton.Code, span uint64, fn func(morton.Code, uint64, Node[M]) bool) bool {
	n := t.Nodes[idx]
	switch n.Kind {
	case NodeLeaf:
		return fn(base, span, n)
	case NodeParent:
		child := span / Branching
		for slot, c := range n.Children {
			if c == 0 {
				continue
			}
			if !t.walk(c, base+morton.Code(uint64(slot)*child), child, fn) {
				return false
			}
		}
	}
	return true
}

// Validate checks the structural invariants of the node array.
func (t *Tree[M]) Validate() error {
	if len(t.Nodes) == 0 {
		return errors.Wrap(ErrCorruptTree, "no root")
	}
	if t.MaxDepth < MinMaxDepth || t.MaxDepth > MaxMaxDepth {
		return errors.Wrapf(ErrInvalidDepth, "depth %d", t.MaxDepth)
	}
	for i, n := range t.Nodes {
		switch n.Kind {
		case NodeEmpty, NodeLeaf:
		case NodeParent:
			for slot, c := range n.Children {
				if c == 0 {
					continue
				}
				if int(c) <= i || int(c) >= len(t.Nodes) {
					return errors.Wrapf(ErrCorruptTree, "node %d slot %d points at %d", i, slot, c)
				}
			}
		default:
			return errors.Wrapf(ErrCorruptTree, "node %d has kind %v", i, n.Kind)
		}
	}
	return nil
}

func (t *Tree[M]) Stats() Stats {
	s := Stats{Nodes: len(t.Nodes)}
	for _, n := range t.Nodes {
		switch n.Kind {
		case NodeEmpty:
			s.Empty++
		case NodeLeaf:
			s.Leaves++
		case NodeParent:
			s.Parents++
		}
	}
	return s
}
