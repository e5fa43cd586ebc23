package octree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelBufferFillAndDrain(t *testing.T) {
	var b levelBuffer[int]
	assert.True(t, b.isEmpty())

	for i := 0; i < Branching-1; i++ {
		assert.False(t, b.push(LeafNode(i)), "push %d should not report full", i)
	}
	assert.True(t, b.push(LeafNode(7)))
	assert.False(t, b.isEmpty())

	group := b.drain()
	assert.True(t, b.isEmpty())
	for i, n := range group {
		assert.Equal(t, LeafNode(i), n, "slot %d", i)
	}
}

func TestLevelBufferPushFullPanics(t *testing.T) {
	var b levelBuffer[int]
	for i := 0; i < Branching; i++ {
		b.push(EmptyNode[int]())
	}
	assert.Panics(t, func() { b.push(EmptyNode[int]()) })
}

func TestLevelBufferUniform(t *testing.T) {
	var b levelBuffer[string]
	for i := 0; i < Branching; i++ {
		b.push(LeafNode("stone"))
	}
	assert.True(t, b.isUniform())
	assert.False(t, b.allEmpty())
	b.drain()

	for i := 0; i < Branching-1; i++ {
		b.push(LeafNode("stone"))
	}
	b.push(LeafNode("dirt"))
	assert.False(t, b.isUniform())
	b.drain()

	for i := 0; i < Branching-1; i++ {
		b.push(LeafNode("stone"))
	}
	b.push(EmptyNode[string]())
	assert.False(t, b.isUniform(), "an empty sibling breaks uniformity")
}

func TestLevelBufferUniformIgnoresParents(t *testing.T) {
	var b levelBuffer[int]
	for i := 0; i < Branching; i++ {
		b.push(Node[int]{Kind: NodeParent})
	}
	assert.False(t, b.isUniform())
	assert.False(t, b.allEmpty())
}

func TestLevelBufferAllEmpty(t *testing.T) {
	var b levelBuffer[int]
	for i := 0; i < Branching; i++ {
		b.push(EmptyNode[int]())
	}
	assert.True(t, b.allEmpty())
	assert.False(t, b.isUniform())
}
