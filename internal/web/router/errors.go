package router

import (
	"fmt"
	"net/http"

	"github.com/conduit-lang/delivery/internal/web/response"
)

// NotFoundHandler answers unmatched paths with a JSON 404
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	response.RenderNotFound(w, fmt.Sprintf("no route for %s", r.URL.Path))
}

// MethodNotAllowedHandler answers with a JSON 405. The API is read only.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, HEAD, OPTIONS")
	response.RenderError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s is not allowed", r.Method))
}
