package octree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/svo/voxelrt/rt/morton"
)

func leavesOf(codes []morton.Code, meta int) []Leaf[int] {
	out := make([]Leaf[int], len(codes))
	for i, c := range codes {
		out[i] = Leaf[int]{Coord: c, Meta: meta}
	}
	return out
}

func TestBuildSingleLeafDepth2(t *testing.T) {
	tree, err := Build([]Leaf[string]{{Coord: 3, Meta: "M1"}}, WithMaxDepth(2))
	require.NoError(t, err)
	require.Equal(t, 2, tree.Len())

	root := tree.Nodes[0]
	require.Equal(t, NodeParent, root.Kind)
	assert.Equal(t, [Branching]uint32{0, 0, 0, 1, 0, 0, 0, 0}, root.Children)
	assert.Equal(t, LeafNode("M1"), tree.Nodes[1])
}

func TestBuildFullMergeDepth2(t *testing.T) {
	var leaves []Leaf[string]
	for c := morton.Code(0); c < 8; c++ {
		leaves = append(leaves, Leaf[string]{Coord: c, Meta: "M1"})
	}
	tree, err := Build(leaves, WithMaxDepth(2))
	require.NoError(t, err)
	require.Equal(t, 1, tree.Len())
	assert.Equal(t, LeafNode("M1"), tree.Root())
}

func TestBuildEmptyInput(t *testing.T) {
	for _, depth := range []uint8{2, 5, 12} {
		tree, err := Build[int](nil, WithMaxDepth(depth))
		require.NoError(t, err)
		require.Equal(t, 1, tree.Len(), "depth %d", depth)
		assert.Equal(t, NodeEmpty, tree.Root().Kind)
	}
}

func TestBuildUniformInput(t *testing.T) {
	leaves := make([]Leaf[int], 0, MaxLeaves(DefaultMaxDepth))
	for c := uint64(0); c < MaxLeaves(DefaultMaxDepth); c++ {
		leaves = append(leaves, Leaf[int]{Coord: morton.Code(c), Meta: 42})
	}
	tree, err := Build(leaves)
	require.NoError(t, err)
	require.Equal(t, 1, tree.Len())
	assert.Equal(t, LeafNode(42), tree.Root())
	assert.Equal(t, uint8(DefaultMaxDepth), tree.MaxDepth)
	assert.Equal(t, float32(DefaultSize), tree.Size)
}

func TestBuildDefaults(t *testing.T) {
	tree, err := Build([]Leaf[int]{{Coord: 4095, Meta: 1}})
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), tree.MaxLeaves())
	assert.Equal(t, uint32(16), tree.Side())
	assert.Equal(t, float32(1), tree.VoxelSize())
}

func TestBuildMergesUniformOctant(t *testing.T) {
	// Octant 0 of a depth-3 tree fully solid, plus one stray voxel elsewhere.
	var leaves []Leaf[int]
	for c := morton.Code(0); c < 8; c++ {
		leaves = append(leaves, Leaf[int]{Coord: c, Meta: 7})
	}
	leaves = append(leaves, Leaf[int]{Coord: 63, Meta: 9})

	tree, err := Build(leaves, WithMaxDepth(3))
	require.NoError(t, err)
	require.NoError(t, tree.Validate())

	// root, merged leaf for octant 0, parent for octant 7, its leaf.
	require.Equal(t, 4, tree.Len())
	root := tree.Root()
	require.Equal(t, NodeParent, root.Kind)
	assert.Equal(t, LeafNode(7), tree.Nodes[root.Children[0]])
	oct7 := tree.Nodes[root.Children[7]]
	require.Equal(t, NodeParent, oct7.Kind)
	assert.Equal(t, LeafNode(9), tree.Nodes[oct7.Children[7]])
	for slot := 1; slot < 7; slot++ {
		assert.Zero(t, root.Children[slot])
	}
}

func TestBuildChildrenContiguousAfterParent(t *testing.T) {
	tree, err := Build(leavesOf([]morton.Code{0, 2, 5}, 1), WithMaxDepth(2))
	require.NoError(t, err)
	require.Equal(t, 4, tree.Len())
	root := tree.Root()
	assert.Equal(t, uint32(1), root.Children[0])
	assert.Equal(t, uint32(2), root.Children[2])
	assert.Equal(t, uint32(3), root.Children[5])
}

func TestBuildDeterministicAcrossOrderings(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var leaves []Leaf[int]
	for c := uint64(0); c < MaxLeaves(5); c++ {
		if rng.Intn(3) == 0 {
			leaves = append(leaves, Leaf[int]{Coord: morton.Code(c), Meta: rng.Intn(3)})
		}
	}

	first, err := Build(leaves)
	require.NoError(t, err)

	shuffled := append([]Leaf[int](nil), leaves...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	second, err := Build(shuffled)
	require.NoError(t, err)

	assert.Equal(t, first.Nodes, second.Nodes)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	leaves := leavesOf([]morton.Code{5, 1, 3}, 1)
	_, err := Build(leaves, WithMaxDepth(2))
	require.NoError(t, err)
	assert.Equal(t, morton.Code(5), leaves[0].Coord)
}

func TestBuildRoundTripOccupancy(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	const depth = 6
	side := morton.Side(depth)
	want := map[morton.Code]int{}
	for i := 0; i < 3000; i++ {
		x, y, z := uint32(rng.Intn(int(side))), uint32(rng.Intn(int(side))), uint32(rng.Intn(int(side)))
		// Coarse material bands so some octants merge.
		want[morton.Encode(x, y, z)] = int(z / 8)
	}
	var leaves []Leaf[int]
	for c, m := range want {
		leaves = append(leaves, Leaf[int]{Coord: c, Meta: m})
	}

	tree, err := Build(leaves, WithMaxDepth(depth))
	require.NoError(t, err)
	require.NoError(t, tree.Validate())

	for c, m := range want {
		n, ok := tree.Lookup(c)
		require.True(t, ok)
		require.Equal(t, NodeLeaf, n.Kind, "code %d", c)
		require.Equal(t, m, n.Meta, "code %d", c)
	}

	// Every voxel the tree claims is occupied was in the input.
	covered := uint64(0)
	tree.Walk(func(base morton.Code, span uint64, n Node[int]) bool {
		for c := base; c < base+morton.Code(span); c++ {
			m, ok := want[c]
			require.True(t, ok, "code %d not in input", c)
			require.Equal(t, m, n.Meta)
		}
		covered += span
		return true
	})
	assert.Equal(t, uint64(len(want)), covered)
}

func TestBuildChildPointersForward(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var leaves []Leaf[uint8]
	for c := uint64(0); c < MaxLeaves(4); c++ {
		if rng.Intn(4) == 0 {
			leaves = append(leaves, Leaf[uint8]{Coord: morton.Code(c), Meta: uint8(rng.Intn(2))})
		}
	}
	tree, err := Build(leaves, WithMaxDepth(4))
	require.NoError(t, err)
	require.NotEmpty(t, tree.Nodes)

	for i, n := range tree.Nodes {
		if n.Kind != NodeParent {
			continue
		}
		for _, c := range n.Children {
			if c == 0 {
				continue
			}
			assert.Greater(t, int(c), i)
			assert.Less(t, int(c), tree.Len())
		}
	}
}

func TestBuildSparseDeepTree(t *testing.T) {
	// Only occupied regions cost anything; a depth-16 tree is 2^45 codes.
	leaves := []Leaf[int]{
		{Coord: morton.Encode(0, 0, 0), Meta: 1},
		{Coord: morton.Encode(32767, 32767, 32767), Meta: 2},
	}
	tree, err := Build(leaves, WithMaxDepth(16))
	require.NoError(t, err)
	require.NoError(t, tree.Validate())

	n, ok := tree.LookupXYZ(32767, 32767, 32767)
	require.True(t, ok)
	assert.Equal(t, LeafNode(2), n)
	n, ok = tree.LookupXYZ(1, 0, 0)
	require.True(t, ok)
	assert.Equal(t, NodeEmpty, n.Kind)
	// root + two chains of 14 parents + two leaves
	assert.Equal(t, 1+2*14+2, tree.Len())
}

func TestBuildPreconditions(t *testing.T) {
	_, err := Build[int](nil, WithMaxDepth(1))
	assert.ErrorIs(t, err, ErrInvalidDepth)

	_, err = Build[int](nil, WithMaxDepth(MaxMaxDepth+1))
	assert.ErrorIs(t, err, ErrInvalidDepth)

	tooMany := make([]Leaf[int], 9)
	for i := range tooMany {
		tooMany[i].Coord = morton.Code(i % 8)
	}
	_, err = Build(tooMany, WithMaxDepth(2))
	assert.ErrorIs(t, err, ErrTooManyLeaves)

	_, err = Build([]Leaf[int]{{Coord: 8}}, WithMaxDepth(2))
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Build([]Leaf[int]{{Coord: 2, Meta: 1}, {Coord: 2, Meta: 3}}, WithMaxDepth(2))
	assert.ErrorIs(t, err, ErrDuplicateCoord)

	assert.Panics(t, func() { MustBuild([]Leaf[int]{{Coord: 8}}, WithMaxDepth(2)) })
}

func TestBuildIdenticalDuplicatesCollapse(t *testing.T) {
	tree, err := Build([]Leaf[int]{{Coord: 3, Meta: 1}, {Coord: 3, Meta: 1}}, WithMaxDepth(2))
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())
}

func TestTreeStats(t *testing.T) {
	tree := MustBuild(leavesOf([]morton.Code{0, 9}, 1), WithMaxDepth(3))
	s := tree.Stats()
	assert.Equal(t, tree.Len(), s.Nodes)
	assert.Equal(t, 2, s.Leaves)
	assert.Equal(t, 3, s.Parents)
	assert.Zero(t, s.Empty)
}

func TestTreeValidateRejectsBackPointer(t *testing.T) {
	tree := MustBuild(leavesOf([]morton.Code{3}, 1), WithMaxDepth(2))
	tree.Nodes[0].Children[3] = 0
	tree.Nodes[0].Children[4] = 2
	assert.ErrorIs(t, tree.Validate(), ErrCorruptTree)
}

func TestVoxelCenter(t *testing.T) {
	tree := MustBuild[int](nil, WithMaxDepth(3), WithSize(8))
	c := tree.VoxelCenter(morton.Encode(1, 2, 3))
	assert.InDelta(t, 3.0, c.X(), 1e-6)
	assert.InDelta(t, 5.0, c.Y(), 1e-6)
	assert.InDelta(t, 7.0, c.Z(), 1e-6)
}
