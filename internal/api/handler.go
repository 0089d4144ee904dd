// Package api serves the content delivery endpoints
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conduit-lang/delivery/internal/content"
	"github.com/conduit-lang/delivery/internal/delivery"
	"github.com/conduit-lang/delivery/internal/expansion"
	webcontext "github.com/conduit-lang/delivery/internal/web/context"
	"github.com/conduit-lang/delivery/internal/web/query"
	"github.com/conduit-lang/delivery/internal/web/response"
	"github.com/conduit-lang/delivery/internal/web/router"
)

// StartItemHeader scopes path lookups to one root
const StartItemHeader = "Start-Item"

// Handler serves the content endpoints. Every request gets its own expansion
// machine and renderer.
type Handler struct {
	graph    content.Graph
	logger   *zap.Logger
	maxDepth int
}

// NewHandler creates a handler reading from graph
func NewHandler(graph content.Graph, logger *zap.Logger, maxDepth int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{graph: graph, logger: logger, maxDepth: maxDepth}
}

// renderer builds the per request renderer for the request's expand
// parameter and access
func (h *Handler) renderer(r *http.Request, access delivery.Access) *delivery.Renderer {
	machine := expansion.NewMachine(query.Expand(r))
	return delivery.NewRenderer(h.graph, machine, access,
		delivery.WithLogger(h.logger.With(zap.String("request_id", webcontext.GetRequestID(r.Context())))),
		delivery.WithMaxDepth(h.maxDepth),
	)
}

// Item serves GET /content/item/{id-or-path}. A key selects by key, anything
// else is a route path.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	access := webcontext.GetAccess(ctx)

	idOrPath := router.Rest(r)
	if !isKey(idOrPath) {
		idOrPath = "/" + strings.TrimPrefix(idOrPath, "/")
	}

	n, err := delivery.NewLocator(h.graph, access).ByIDOrPath(ctx, r.Header.Get(StartItemHeader), idOrPath)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	doc, err := h.renderer(r, access).Render(ctx, n)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	response.RenderJSON(w, http.StatusOK, doc)
}

// Items serves GET /content/items?id=..&id=... Keys that are missing or not
// visible to the request are left out.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	access := webcontext.GetAccess(ctx)

	ids, err := query.IDs(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	locator := delivery.NewLocator(h.graph, access)
	renderer := h.renderer(r, access)

	items := make([]*delivery.ApiContent, 0, len(ids))
	for _, id := range ids {
		n, err := locator.ByID(ctx, id)
		if errors.Is(err, content.ErrNotFound) {
			continue
		}
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		if !access.CanView(n) {
			continue
		}

		doc, err := renderer.Render(ctx, n)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		items = append(items, doc)
	}
	response.RenderJSON(w, http.StatusOK, items)
}

// Query serves GET /content?fetch=..&skip=..&take=.. as a page of rendered
// nodes
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	access := webcontext.GetAccess(ctx)

	skip, take, err := query.Paging(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	nodes, err := delivery.NewLocator(h.graph, access).Fetch(ctx, r.Header.Get(StartItemHeader), query.Fetch(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	renderer := h.renderer(r, access)
	page := delivery.Page(nodes, skip, take)
	out := delivery.PagedContent{Total: len(nodes), Items: make([]*delivery.ApiContent, 0, len(page))}
	for _, n := range page {
		doc, err := renderer.Render(ctx, n)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		out.Items = append(out.Items, doc)
	}
	response.RenderJSON(w, http.StatusOK, out)
}

// renderError maps delivery errors to HTTP responses
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		response.RenderNotFound(w, "")
	case errors.Is(err, delivery.ErrUnauthorized):
		response.RenderUnauthorized(w, "")
	case errors.Is(err, delivery.ErrForbidden):
		response.RenderForbidden(w, "")
	case errors.Is(err, delivery.ErrInvalidFetch), errors.Is(err, query.ErrInvalidParameter):
		response.RenderBadRequest(w, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		response.RenderGatewayTimeout(w)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		h.logger.Error("content request failed",
			zap.String("request_id", webcontext.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		response.RenderInternalError(w)
	}
}

func isKey(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
