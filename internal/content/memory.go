package content

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryGraph is a Graph held entirely in memory
type MemoryGraph struct {
	mu       sync.RWMutex
	nodes    map[uuid.UUID]*Node
	children map[uuid.UUID][]uuid.UUID
	roots    []uuid.UUID
}

// NewMemoryGraph creates a graph from the given nodes
func NewMemoryGraph(nodes ...*Node) *MemoryGraph {
	g := &MemoryGraph{
		nodes:    make(map[uuid.UUID]*Node),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	g.Add(nodes...)
	return g
}

// Add inserts or replaces nodes
func (g *MemoryGraph) Add(nodes ...*Node) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, n := range nodes {
		if _, exists := g.nodes[n.Key]; exists {
			g.unlink(n.Key)
		}
		g.nodes[n.Key] = n
		if n.ParentKey == nil {
			g.roots = append(g.roots, n.Key)
		} else {
			g.children[*n.ParentKey] = append(g.children[*n.ParentKey], n.Key)
		}
	}
}

// unlink removes key from its current sibling list; callers hold the write lock
func (g *MemoryGraph) unlink(key uuid.UUID) {
	old := g.nodes[key]
	if old.ParentKey == nil {
		g.roots = without(g.roots, key)
		return
	}
	g.children[*old.ParentKey] = without(g.children[*old.ParentKey], key)
}

// Node returns the node with the given key
func (g *MemoryGraph) Node(ctx context.Context, key uuid.UUID) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[key]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// Roots returns the top level nodes
func (g *MemoryGraph) Roots(ctx context.Context) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collect(g.roots), nil
}

// Children returns the direct children of key
func (g *MemoryGraph) Children(ctx context.Context, key uuid.UUID) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[key]; !ok {
		return nil, ErrNotFound
	}
	return g.collect(g.children[key]), nil
}

// Len returns the number of nodes in the graph
func (g *MemoryGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *MemoryGraph) collect(keys []uuid.UUID) []*Node {
	out := make([]*Node, 0, len(keys))
	for _, key := range keys {
		out = append(out, g.nodes[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

func without(keys []uuid.UUID, key uuid.UUID) []uuid.UUID {
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
