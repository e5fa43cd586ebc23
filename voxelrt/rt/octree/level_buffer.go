package octree

// levelBuffer collects the pending children of one node at a single depth.
// Slot i holds child octant i.
type levelBuffer[M comparable] struct {
	slots [Branching]Node[M]
	n     int
}

// push stores n in the next slot and reports whether the buffer is now full.
func (b *levelBuffer[M]) push(n Node[M]) bool {
	if b.n == Branching {
		panic("octree: push on full level buffer")
	}
	b.slots[b.n] = n
	b.n++
	return b.n == Branching
}

func (b *levelBuffer[M]) drain() [Branching]Node[M] {
	b.n = 0
	return b.slots
}

func (b *levelBuffer[M]) isEmpty() bool {
	return b.n == 0
}

// allEmpty reports whether every stored child is Empty.
func (b *levelBuffer[M]) allEmpty() bool {
	for i := 0; i < b.n; i++ {
		if b.slots[i].Kind != NodeEmpty {
			return false
		}
	}
	return true
}

// isUniform reports whether the buffer holds eight leaves with equal metadata.
func (b *levelBuffer[M]) isUniform() bool {
	if b.n != Branching || b.slots[0].Kind != NodeLeaf {
		return false
	}
	meta := b.slots[0].Meta
	for i := 1; i < Branching; i++ {
		if b.slots[i].Kind != NodeLeaf || b.slots[i].Meta != meta {
			return false
		}
	}
	return true
}
