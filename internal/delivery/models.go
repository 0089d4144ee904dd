// Package delivery renders content nodes into delivery API documents.
//
// A Renderer is created for every request. It walks from the requested node into
// the content its properties reference and asks the expansion machine, for each
// reference, whether to embed the referenced node's properties or only a
// collapsed reference.
package delivery

import (
	"time"

	"github.com/google/uuid"

	"github.com/conduit-lang/delivery/internal/content"
)

// ApiContent is a rendered content node. Collapsed references carry an empty
// property map.
type ApiContent struct {
	ContentType string          `json:"contentType"`
	Name        string          `json:"name"`
	CreateDate  time.Time       `json:"createDate"`
	UpdateDate  time.Time       `json:"updateDate"`
	Route       ApiRoute        `json:"route"`
	ID          uuid.UUID       `json:"id"`
	Properties  *content.Values `json:"properties"`
}

// ApiRoute locates a node relative to its start item
type ApiRoute struct {
	Path      string       `json:"path"`
	StartItem ApiStartItem `json:"startItem"`
}

// ApiStartItem is the top level ancestor a route is relative to
type ApiStartItem struct {
	ID   uuid.UUID `json:"id"`
	Path string    `json:"path"`
}

// ApiElement is a rendered block list element
type ApiElement struct {
	ID          uuid.UUID       `json:"id"`
	ContentType string          `json:"contentType"`
	Properties  *content.Values `json:"properties"`
}

// BlockList is the rendered value of a block list property
type BlockList struct {
	Items []BlockItem `json:"items"`
}

// BlockItem wraps a single element of a block list
type BlockItem struct {
	Content ApiElement `json:"content"`
}

// RichText is the rendered value of a rich text property
type RichText struct {
	Markup string `json:"markup"`
}

// PagedContent is a page of rendered nodes
type PagedContent struct {
	Total int           `json:"total"`
	Items []*ApiContent `json:"items"`
}
