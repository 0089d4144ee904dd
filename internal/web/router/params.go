package router

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// PathParam returns the unescaped value of a named path parameter
func PathParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

// Rest returns the part of the path matched by a trailing "*"
func Rest(r *http.Request) string {
	return PathParam(r, "*")
}
