package octree

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidDepth   = errors.New("octree: invalid max depth")
	ErrTooManyLeaves  = errors.New("octree: leaf count exceeds tree capacity")
	ErrOutOfRange     = errors.New("octree: leaf coordinate outside tree")
	ErrDuplicateCoord = errors.New("octree: duplicate coordinate with conflicting metadata")
	ErrPackedOverflow = errors.New("octree: packed child offset overflow")
	ErrCorruptTree    = errors.New("octree: corrupt tree")
)
