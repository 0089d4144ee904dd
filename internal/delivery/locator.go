package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/conduit-lang/delivery/internal/content"
)

// Fetch kinds accepted by Locator.Fetch
const (
	FetchChildren    = "children"
	FetchAncestors   = "ancestors"
	FetchDescendants = "descendants"
)

// Locator finds nodes by key or route path and lists related nodes. Nodes the
// request may not view are left out of listings.
type Locator struct {
	graph  content.Graph
	access Access
}

// NewLocator creates a locator
func NewLocator(graph content.Graph, access Access) *Locator {
	return &Locator{graph: graph, access: access}
}

// ByID returns the node with the given key
func (l *Locator) ByID(ctx context.Context, key uuid.UUID) (*content.Node, error) {
	return l.graph.Node(ctx, key)
}

// ByIDOrPath accepts either a node key or a route path
func (l *Locator) ByIDOrPath(ctx context.Context, startItem, idOrPath string) (*content.Node, error) {
	if key, err := uuid.Parse(idOrPath); err == nil {
		return l.ByID(ctx, key)
	}
	return l.ByPath(ctx, startItem, idOrPath)
}

// ByPath resolves a route path such as "/about/team". The path is relative to
// the start item, given as a root's key or URL segment. Without a start item
// every root is tried in sort order.
func (l *Locator) ByPath(ctx context.Context, startItem, path string) (*content.Node, error) {
	roots, err := l.startItems(ctx, startItem)
	if err != nil {
		return nil, err
	}

	segments := splitPath(path)
	for _, root := range roots {
		n, err := l.walk(ctx, root, segments)
		if errors.Is(err, content.ErrNotFound) {
			continue
		}
		return n, err
	}
	return nil, content.ErrNotFound
}

func (l *Locator) startItems(ctx context.Context, startItem string) ([]*content.Node, error) {
	startItem = strings.TrimSpace(startItem)
	if startItem != "" {
		n, err := l.StartItem(ctx, startItem)
		if err != nil {
			return nil, err
		}
		return []*content.Node{n}, nil
	}

	roots, err := l.graph.Roots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roots: %w", err)
	}
	return l.visible(roots), nil
}

// StartItem resolves a Start-Item header value: a node key or the URL segment
// of a root
func (l *Locator) StartItem(ctx context.Context, value string) (*content.Node, error) {
	if key, err := uuid.Parse(value); err == nil {
		return l.graph.Node(ctx, key)
	}

	roots, err := l.graph.Roots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roots: %w", err)
	}
	for _, root := range roots {
		if strings.EqualFold(root.URLSegment, value) {
			return root, nil
		}
	}
	return nil, content.ErrNotFound
}

func (l *Locator) walk(ctx context.Context, from *content.Node, segments []string) (*content.Node, error) {
	current := from
	for _, segment := range segments {
		children, err := l.graph.Children(ctx, current.Key)
		if err != nil {
			return nil, err
		}

		var next *content.Node
		for _, child := range children {
			if strings.EqualFold(child.URLSegment, segment) && !errors.Is(l.access.Check(child), content.ErrNotFound) {
				next = child
				break
			}
		}
		if next == nil {
			return nil, content.ErrNotFound
		}
		current = next
	}
	return current, nil
}

// Roots returns the visible top level nodes
func (l *Locator) Roots(ctx context.Context) ([]*content.Node, error) {
	roots, err := l.graph.Roots(ctx)
	if err != nil {
		return nil, err
	}
	return l.visible(roots), nil
}

// Fetch lists the children, ancestors or descendants of the node identified
// by target (a key or route path). The value has the form "kind:target".
func (l *Locator) Fetch(ctx context.Context, startItem, value string) ([]*content.Node, error) {
	if strings.TrimSpace(value) == "" {
		return l.Roots(ctx)
	}

	kind, target, ok := strings.Cut(value, ":")
	if !ok || target == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFetch, value)
	}

	n, err := l.ByIDOrPath(ctx, startItem, target)
	if err != nil {
		return nil, err
	}
	if errors.Is(l.access.Check(n), content.ErrNotFound) {
		return nil, content.ErrNotFound
	}

	switch kind {
	case FetchChildren:
		children, err := l.graph.Children(ctx, n.Key)
		if err != nil {
			return nil, err
		}
		return l.visible(children), nil
	case FetchAncestors:
		return l.ancestors(ctx, n)
	case FetchDescendants:
		var out []*content.Node
		if err := l.descendants(ctx, n, 0, &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidFetch, kind)
	}
}

// ancestors returns the ancestors of n from the root down
func (l *Locator) ancestors(ctx context.Context, n *content.Node) ([]*content.Node, error) {
	var out []*content.Node
	current := n
	for depth := 0; !current.IsRoot(); depth++ {
		if depth >= DefaultMaxDepth {
			return nil, ErrMaxDepthExceeded
		}
		parent, err := l.graph.Node(ctx, *current.ParentKey)
		if err != nil {
			return nil, err
		}
		out = append([]*content.Node{parent}, out...)
		current = parent
	}
	return l.visible(out), nil
}

// descendants appends the visible descendants of n in depth first order
func (l *Locator) descendants(ctx context.Context, n *content.Node, depth int, out *[]*content.Node) error {
	if depth >= DefaultMaxDepth {
		return ErrMaxDepthExceeded
	}
	children, err := l.graph.Children(ctx, n.Key)
	if err != nil {
		return err
	}
	for _, child := range children {
		if !l.access.CanView(child) {
			continue
		}
		*out = append(*out, child)
		if err := l.descendants(ctx, child, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

func (l *Locator) visible(nodes []*content.Node) []*content.Node {
	out := make([]*content.Node, 0, len(nodes))
	for _, n := range nodes {
		if l.access.CanView(n) {
			out = append(out, n)
		}
	}
	return out
}

// Page applies skip and take to nodes. A take of zero or less returns no items.
func Page(nodes []*content.Node, skip, take int) []*content.Node {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(nodes) || take <= 0 {
		return []*content.Node{}
	}
	end := skip + take
	if end > len(nodes) {
		end = len(nodes)
	}
	return nodes[skip:end]
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
