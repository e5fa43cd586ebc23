package octree

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/gekko3d/svo/voxelrt/rt/morton"
)

const (
	DefaultMaxDepth = 5
	DefaultSize     = 16.0

	MinMaxDepth = 2
	// MaxMaxDepth keeps every code of the deepest level within 21 bits per axis.
	MaxMaxDepth = morton.BitsPerAxis + 1
)

type buildOptions struct {
	maxDepth uint8
	size     float32
}

type Option func(*buildOptions)

func WithMaxDepth(depth uint8) Option {
	return func(o *buildOptions) { o.maxDepth = depth }
}

// WithSize sets the world-space edge length carried with the tree.
func WithSize(size float32) Option {
	return func(o *buildOptions) { o.size = size }
}

// MaxLeaves is the number of voxels addressable by a tree of the given depth.
func MaxLeaves(depth uint8) uint64 {
	return morton.Span(depth)
}

// Build compacts leaves into a tree. The input is copied and sorted by Morton
// code; every code in [0, MaxLeaves) that has no leaf is treated as Empty.
func Build[M comparable](leaves []Leaf[M], opts ...Option) (*Tree[M], error) {
	o := buildOptions{maxDepth: DefaultMaxDepth, size: DefaultSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxDepth < MinMaxDepth || o.maxDepth > MaxMaxDepth {
		return nil, errors.Wrapf(ErrInvalidDepth, "depth %d not in [%d,%d]", o.maxDepth, MinMaxDepth, MaxMaxDepth)
	}

	maxLeaves := MaxLeaves(o.maxDepth)
	if uint64(len(leaves)) > maxLeaves {
		return nil, errors.Wrapf(ErrTooManyLeaves, "%d leaves, depth %d holds %d", len(leaves), o.maxDepth, maxLeaves)
	}

	sorted := make([]Leaf[M], len(leaves))
	copy(sorted, leaves)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Coord < sorted[j].Coord
	})

	b := newBuilder[M](o.maxDepth)
	next := uint64(0)
	for i, l := range sorted {
		c := uint64(l.Coord)
		if c >= maxLeaves {
			return nil, errors.Wrapf(ErrOutOfRange, "code %d, depth %d holds %d", c, o.maxDepth, maxLeaves)
		}
		if i > 0 && sorted[i-1].Coord == l.Coord {
			if sorted[i-1].Meta != l.Meta {
				return nil, errors.Wrapf(ErrDuplicateCoord, "code %d: %v vs %v", c, sorted[i-1].Meta, l.Meta)
			}
			continue
		}
		b.fillEmpty(next, c)
		b.emit(0, LeafNode(l.Meta))
		next = c + 1
	}
	b.fillEmpty(next, maxLeaves)

	nodes, err := b.finish()
	if err != nil {
		return nil, err
	}
	return &Tree[M]{Nodes: nodes, MaxDepth: o.maxDepth, Size: o.size}, nil
}

// MustBuild is like Build but panics on malformed input.
func MustBuild[M comparable](leaves []Leaf[M], opts ...Option) *Tree[M] {
	t, err := Build(leaves, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

type builder[M comparable] struct {
	// levels[d] holds the pending children of a node at height d+1 above the
	// voxels. The node produced by reducing the top buffer is the root.
	levels []levelBuffer[M]

	// out receives children before their parents. Parent child slots hold
	// len(out) at the time the child was appended.
	out []Node[M]

	root    Node[M]
	hasRoot bool
}

func newBuilder[M comparable](maxDepth uint8) *builder[M] {
	return &builder[M]{levels: make([]levelBuffer[M], maxDepth-1)}
}

// fillEmpty emits Empty for every code in [from, to). Aligned runs are emitted
// once at the highest level they cover instead of once per code.
func (b *builder[M]) fillEmpty(from, to uint64) {
	top := len(b.levels)
	for from < to {
		level, span := 0, uint64(1)
		for level < top && from%(span*Branching) == 0 && from+span*Branching <= to {
			span *= Branching
			level++
		}
		b.emit(level, EmptyNode[M]())
		from += span
	}
}

// emit feeds n into the buffer at level and cascades full buffers upward.
func (b *builder[M]) emit(level int, n Node[M]) {
	for {
		if level == len(b.levels) {
			b.root, b.hasRoot = n, true
			return
		}
		if !b.levels[level].push(n) {
			return
		}
		n = b.reduce(&b.levels[level])
		level++
	}
}

// reduce turns a full group of siblings into the entry of their parent.
func (b *builder[M]) reduce(buf *levelBuffer[M]) Node[M] {
	switch {
	case buf.allEmpty():
		buf.drain()
		return EmptyNode[M]()
	case buf.isUniform():
		group := buf.drain()
		return LeafNode(group[0].Meta)
	}

	group := buf.drain()
	parent := Node[M]{Kind: NodeParent}
	// Reverse slot order so the final reversal lays siblings out ascending.
	for slot := Branching - 1; slot >= 0; slot-- {
		if group[slot].Kind == NodeEmpty {
			continue
		}
		b.out = append(b.out, group[slot])
		parent.Children[slot] = uint32(len(b.out))
	}
	return parent
}

func (b *builder[M]) finish() ([]Node[M], error) {
	for d := range b.levels {
		if !b.levels[d].isEmpty() {
			return nil, errors.Wrapf(ErrCorruptTree, "level %d left with pending children", d)
		}
	}
	if !b.hasRoot {
		return nil, errors.Wrap(ErrCorruptTree, "no root emitted")
	}

	nodes := append(b.out, b.root)
	if uint64(len(nodes)) > math.MaxUint32 {
		return nil, errors.Wrapf(ErrCorruptTree, "%d nodes do not fit 32-bit child indices", len(nodes))
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}

	total := uint32(len(nodes))
	for i := range nodes {
		if nodes[i].Kind != NodeParent {
			continue
		}
		for slot, c := range nodes[i].Children {
			if c != 0 {
				nodes[i].Children[slot] = total - c
			}
		}
	}
	return nodes, nil
}
