package delivery

import (
	"github.com/google/uuid"
)

// DefaultMaxDepth bounds how deep a single render may nest nodes and elements
const DefaultMaxDepth = 32

// visitContext tracks the keys on the current traversal path so a reference back
// to a node that is already being rendered is never followed again. Keys are
// released on the way out, so the same node may appear in sibling branches.
type visitContext struct {
	onPath   map[uuid.UUID]bool
	depth    int
	maxDepth int
}

func newVisitContext(maxDepth int) *visitContext {
	return &visitContext{
		onPath:   make(map[uuid.UUID]bool),
		maxDepth: maxDepth,
	}
}

// enter puts key on the path. It returns false when key is already on the path.
func (v *visitContext) enter(key uuid.UUID) (bool, error) {
	if v.onPath[key] {
		return false, nil
	}
	if v.depth+1 > v.maxDepth {
		return false, ErrMaxDepthExceeded
	}
	v.onPath[key] = true
	v.depth++
	return true, nil
}

// leave removes key from the path
func (v *visitContext) leave(key uuid.UUID) {
	if !v.onPath[key] {
		return
	}
	delete(v.onPath, key)
	v.depth--
}
