// Package octree builds sparse voxel octrees from Morton-keyed leaves.
//
// A tree is a flat array of nodes with the root at index 0. Regions that are
// entirely empty collapse to a single Empty node and regions whose voxels all
// share the same metadata collapse to a single Leaf. Pack serializes a tree
// into breadth-first 64-bit words for GPU traversal.
package octree

import (
	"fmt"

	"github.com/gekko3d/svo/voxelrt/rt/morton"
)

const Branching = morton.Branching

type NodeKind uint8

const (
	NodeEmpty = NodeKind(iota)
	NodeLeaf
	NodeParent
)

func (k NodeKind) String() string {
	switch k {
	case NodeEmpty:
		return "Empty"
	case NodeLeaf:
		return "Leaf"
	case NodeParent:
		return "Parent"
	}
	return fmt.Sprintf("NodeKind(%d)", uint8(k))
}

// Leaf is one occupied voxel. Leaves order by Coord only.
type Leaf[M comparable] struct {
	Coord morton.Code
	Meta  M
}

// Node is an entry of the tree array. Meta is only meaningful for NodeLeaf.
// Children is only meaningful for NodeParent; 0 marks an absent child since
// the root can never be anyone's child.
type Node[M comparable] struct {
	Kind     NodeKind
	Meta     M
	Children [Branching]uint32
}

func EmptyNode[M comparable]() Node[M] {
	return Node[M]{Kind: NodeEmpty}
}

func LeafNode[M comparable](meta M) Node[M] {
	return Node[M]{Kind: NodeLeaf, Meta: meta}
}

func (n Node[M]) IsEmpty() bool  { return n.Kind == NodeEmpty }
func (n Node[M]) IsLeaf() bool   { return n.Kind == NodeLeaf }
func (n Node[M]) IsParent() bool { return n.Kind == NodeParent }

func (n Node[M]) String() string {
	switch n.Kind {
	case NodeLeaf:
		return fmt.Sprintf("Leaf(%v)", n.Meta)
	case NodeParent:
		return fmt.Sprintf("Parent%v", n.Children)
	}
	return n.Kind.String()
}
