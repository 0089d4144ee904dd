// Package router registers delivery API routes on chi and keeps a list of
// them for introspection
package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/delivery/internal/web/middleware"
)

// Router wraps a chi router
type Router struct {
	mux    chi.Router
	prefix string
	routes *[]RouteInfo
}

// RouteInfo describes a registered route
type RouteInfo struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
	Name    string `json:"name,omitempty"`
}

// NewRouter creates a router with JSON 404 and 405 handlers
func NewRouter() *Router {
	mux := chi.NewRouter()
	mux.NotFound(NotFoundHandler)
	mux.MethodNotAllowed(MethodNotAllowedHandler)
	return &Router{mux: mux, routes: &[]RouteInfo{}}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use appends middleware to the stack. It must be called before routes are
// registered on this router.
func (r *Router) Use(middlewares ...middleware.Middleware) {
	for _, m := range middlewares {
		r.mux.Use(m)
	}
}

// Get registers a GET handler under a route name
func (r *Router) Get(pattern, name string, handler http.HandlerFunc) {
	r.mux.Get(pattern, handler)
	*r.routes = append(*r.routes, RouteInfo{
		Method:  http.MethodGet,
		Pattern: r.prefix + pattern,
		Name:    name,
	})
}

// Handle registers handler for every method, e.g. for a metrics exporter
func (r *Router) Handle(pattern, name string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
	*r.routes = append(*r.routes, RouteInfo{Method: "*", Pattern: r.prefix + pattern, Name: name})
}

// Group mounts a sub-router under prefix. Middleware added to the group only
// applies to its routes.
func (r *Router) Group(prefix string, fn func(*Router)) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		r.mux.Group(func(sub chi.Router) {
			fn(&Router{mux: sub, prefix: r.prefix, routes: r.routes})
		})
		return
	}

	prefix = "/" + prefix
	r.mux.Route(prefix, func(sub chi.Router) {
		fn(&Router{mux: sub, prefix: r.prefix + prefix, routes: r.routes})
	})
}

// Routes returns the registered routes sorted by pattern
func (r *Router) Routes() []RouteInfo {
	out := append([]RouteInfo(nil), *r.routes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pattern < out[j].Pattern
	})
	return out
}
