package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/delivery/internal/content"
	"github.com/conduit-lang/delivery/internal/expansion"
	"github.com/conduit-lang/delivery/internal/metrics"
)

// Render modes reported to metrics
const (
	modeRoot      = "root"
	modeExpanded  = "expanded"
	modeCollapsed = "collapsed"
)

// Renderer turns one requested node into an ApiContent document. It owns the
// request's expansion machine and must not be shared between requests.
type Renderer struct {
	graph    content.Graph
	machine  *expansion.Machine
	access   Access
	routes   *RouteBuilder
	logger   *zap.Logger
	maxDepth int
}

// RendererOption configures a Renderer
type RendererOption func(*Renderer)

// WithLogger sets the logger used for skipped references
func WithLogger(logger *zap.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithMaxDepth bounds traversal depth
func WithMaxDepth(depth int) RendererOption {
	return func(r *Renderer) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// NewRenderer creates a renderer for a single request
func NewRenderer(graph content.Graph, machine *expansion.Machine, access Access, opts ...RendererOption) *Renderer {
	r := &Renderer{
		graph:    graph,
		machine:  machine,
		access:   access,
		routes:   NewRouteBuilder(graph),
		logger:   zap.NewNop(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders n as the root of a response. All of n's properties are
// rendered; referenced content is expanded as the machine's directive asks.
func (r *Renderer) Render(ctx context.Context, n *content.Node) (*ApiContent, error) {
	if err := r.access.Check(n); err != nil {
		return nil, err
	}

	out, err := r.reference(ctx, n)
	if err != nil {
		return nil, err
	}

	visits := newVisitContext(r.maxDepth)
	if _, err := visits.enter(n.Key); err != nil {
		return nil, err
	}
	defer visits.leave(n.Key)

	props, err := r.machine.RenderRootProperties(n.Properties, r.resolver(ctx, visits))
	if err != nil {
		return nil, err
	}
	out.Properties = props
	metrics.NodesRendered.WithLabelValues(modeRoot).Inc()
	return out, nil
}

// reference builds the node's envelope with an empty property map
func (r *Renderer) reference(ctx context.Context, n *content.Node) (*ApiContent, error) {
	route, err := r.routes.Build(ctx, n)
	if err != nil {
		return nil, err
	}
	return &ApiContent{
		ContentType: n.ContentType,
		Name:        n.Name,
		CreateDate:  n.CreateDate,
		UpdateDate:  n.UpdateDate,
		Route:       route,
		ID:          n.Key,
		Properties:  content.NewValues(0),
	}, nil
}

// resolver returns the value resolver handed to the expansion machine
func (r *Renderer) resolver(ctx context.Context, visits *visitContext) expansion.ResolveFunc {
	var resolve expansion.ResolveFunc
	resolve = func(p content.Property, expanding bool) (any, error) {
		switch {
		case p.Editor.IsContentReference():
			return r.resolvePicker(ctx, p, expanding, visits, resolve)
		case p.Editor == content.EditorBlockList:
			return r.resolveBlockList(p, visits, resolve)
		default:
			return resolveScalar(p)
		}
	}
	return resolve
}

func (r *Renderer) resolvePicker(
	ctx context.Context,
	p content.Property,
	expanding bool,
	visits *visitContext,
	resolve expansion.ResolveFunc,
) (any, error) {
	items := make([]*ApiContent, 0, len(p.References()))
	for _, key := range p.References() {
		n, err := r.graph.Node(ctx, key)
		if errors.Is(err, content.ErrNotFound) {
			r.logger.Debug("skipping missing reference",
				zap.String("property", p.Alias),
				zap.Stringer("key", key))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s referenced by %s: %w", key, p.Alias, err)
		}
		if !r.access.CanView(n) {
			continue
		}

		item, err := r.reference(ctx, n)
		if err != nil {
			return nil, err
		}
		if err := r.expandReference(item, n, expanding, visits, resolve); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if p.Editor == content.EditorContentPicker {
		if len(items) == 0 {
			return nil, nil
		}
		return items[0], nil
	}
	return items, nil
}

// expandReference fills item's properties when the reference is expanding and
// the node is not already on the traversal path
func (r *Renderer) expandReference(
	item *ApiContent,
	n *content.Node,
	expanding bool,
	visits *visitContext,
	resolve expansion.ResolveFunc,
) error {
	if !expanding {
		metrics.NodesRendered.WithLabelValues(modeCollapsed).Inc()
		return nil
	}

	entered, err := visits.enter(n.Key)
	if err != nil {
		return err
	}
	if !entered {
		r.logger.Debug("collapsing reference already on the render path", zap.Stringer("key", n.Key))
		metrics.NodesRendered.WithLabelValues(modeCollapsed).Inc()
		return nil
	}
	defer visits.leave(n.Key)

	props, err := r.machine.RenderNestedProperties(n.Properties, resolve)
	if err != nil {
		return err
	}
	item.Properties = props
	metrics.NodesRendered.WithLabelValues(modeExpanded).Inc()
	return nil
}

func (r *Renderer) resolveBlockList(p content.Property, visits *visitContext, resolve expansion.ResolveFunc) (any, error) {
	list := BlockList{Items: make([]BlockItem, 0, len(p.Elements()))}
	for _, el := range p.Elements() {
		entered, err := visits.enter(el.Key)
		if err != nil {
			return nil, err
		}
		if !entered {
			continue
		}

		props, err := r.machine.RenderElementProperties(el.Properties, resolve)
		visits.leave(el.Key)
		if err != nil {
			return nil, err
		}

		list.Items = append(list.Items, BlockItem{
			Content: ApiElement{
				ID:          el.Key,
				ContentType: el.ContentType,
				Properties:  props,
			},
		})
	}
	return list, nil
}

func resolveScalar(p content.Property) (any, error) {
	switch p.Editor {
	case content.EditorRichText:
		if p.Value == nil {
			return nil, nil
		}
		markup, _ := p.Value.(string)
		return RichText{Markup: markup}, nil
	case content.EditorDateTime:
		t, ok := p.Value.(time.Time)
		if !ok || t.IsZero() {
			return nil, nil
		}
		return t.UTC().Format(time.RFC3339), nil
	case content.EditorTags:
		if p.Value == nil {
			return []string{}, nil
		}
		return p.Value, nil
	default:
		return p.Value, nil
	}
}
