package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/conduit-lang/delivery/internal/content"
)

// RouteBuilder computes node routes relative to their top level ancestor.
//
//	root        -> "/"
//	child       -> "/child"
//	grandchild  -> "/child/grandchild"
//
// Routes are memoized for the lifetime of the builder, which is one request.
type RouteBuilder struct {
	graph    content.Graph
	maxDepth int
	cache    map[uuid.UUID]ApiRoute
}

// NewRouteBuilder creates a route builder over graph
func NewRouteBuilder(graph content.Graph) *RouteBuilder {
	return &RouteBuilder{
		graph:    graph,
		maxDepth: DefaultMaxDepth,
		cache:    make(map[uuid.UUID]ApiRoute),
	}
}

// Build returns the route of n
func (b *RouteBuilder) Build(ctx context.Context, n *content.Node) (ApiRoute, error) {
	if route, ok := b.cache[n.Key]; ok {
		return route, nil
	}

	var segments []string
	current := n
	for depth := 0; !current.IsRoot(); depth++ {
		if depth >= b.maxDepth {
			return ApiRoute{}, fmt.Errorf("route of %s: %w", n.Key, ErrMaxDepthExceeded)
		}
		segments = append(segments, current.URLSegment)

		parent, err := b.graph.Node(ctx, *current.ParentKey)
		if err != nil {
			return ApiRoute{}, fmt.Errorf("failed to load ancestor of %s: %w", current.Key, err)
		}
		current = parent
	}

	// segments were collected leaf first
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	route := ApiRoute{
		Path: "/" + strings.Join(segments, "/"),
		StartItem: ApiStartItem{
			ID:   current.Key,
			Path: current.URLSegment,
		},
	}
	b.cache[n.Key] = route
	return route, nil
}
