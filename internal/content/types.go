// Package content defines the read-only content graph consumed by the delivery API.
//
// A content graph is made of nodes (pages). Every node carries an ordered list of
// properties; picker properties reference other nodes by key and block list
// properties carry inline elements. Nothing in this package mutates a node once it
// has been handed to a Graph.
package content

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a node does not exist in the graph
var ErrNotFound = errors.New("content not found")

// PropertyEditor identifies how a property value is stored and rendered
type PropertyEditor string

const (
	// EditorText is a single line string
	EditorText PropertyEditor = "text"
	// EditorTextArea is a multi line string
	EditorTextArea PropertyEditor = "textarea"
	// EditorRichText is HTML markup
	EditorRichText PropertyEditor = "richtext"
	// EditorInteger is a whole number
	EditorInteger PropertyEditor = "integer"
	// EditorDecimal is a floating point number
	EditorDecimal PropertyEditor = "decimal"
	// EditorBoolean is a true/false toggle
	EditorBoolean PropertyEditor = "boolean"
	// EditorDateTime is a point in time
	EditorDateTime PropertyEditor = "datetime"
	// EditorTags is a list of strings
	EditorTags PropertyEditor = "tags"
	// EditorContentPicker references at most one content node
	EditorContentPicker PropertyEditor = "contentPicker"
	// EditorMultiNodeTreePicker references any number of content nodes
	EditorMultiNodeTreePicker PropertyEditor = "multiNodeTreePicker"
	// EditorBlockList holds inline elements
	EditorBlockList PropertyEditor = "blockList"
)

// IsContentReference reports whether the editor stores references to other nodes
func (e PropertyEditor) IsContentReference() bool {
	return e == EditorContentPicker || e == EditorMultiNodeTreePicker
}

// Valid reports whether the editor is known
func (e PropertyEditor) Valid() bool {
	switch e {
	case EditorText, EditorTextArea, EditorRichText, EditorInteger, EditorDecimal,
		EditorBoolean, EditorDateTime, EditorTags, EditorContentPicker,
		EditorMultiNodeTreePicker, EditorBlockList:
		return true
	default:
		return false
	}
}

// Property is a single alias/value pair on a node or element.
//
// Value holds the raw stored value:
//   - string for text, textarea and richtext
//   - int64 for integer, float64 for decimal, bool for boolean
//   - time.Time for datetime, []string for tags
//   - []uuid.UUID for content pickers
//   - []Element for block lists
type Property struct {
	Alias  string
	Editor PropertyEditor
	Value  any
}

// References returns the node keys a picker property points at, in order
func (p Property) References() []uuid.UUID {
	if !p.Editor.IsContentReference() {
		return nil
	}
	keys, _ := p.Value.([]uuid.UUID)
	return keys
}

// Elements returns the inline elements of a block list property
func (p Property) Elements() []Element {
	if p.Editor != EditorBlockList {
		return nil
	}
	elements, _ := p.Value.([]Element)
	return elements
}

// Element is an inline, keyed set of properties owned by a block list
type Element struct {
	Key         uuid.UUID
	ContentType string
	Properties  []Property
}

// Node is a published or draft content item
type Node struct {
	Key             uuid.UUID
	ParentKey       *uuid.UUID
	Name            string
	ContentType     string
	URLSegment      string
	SortOrder       int
	Published       bool
	ProtectedGroups []string
	CreateDate      time.Time
	UpdateDate      time.Time
	Properties      []Property
}

// IsRoot reports whether the node sits at the top of the tree
func (n *Node) IsRoot() bool {
	return n.ParentKey == nil
}

// Property looks up a property by alias
func (n *Node) Property(alias string) (Property, bool) {
	for _, p := range n.Properties {
		if p.Alias == alias {
			return p, true
		}
	}
	return Property{}, false
}

// IsProtected reports whether member access rules apply to the node
func (n *Node) IsProtected() bool {
	return len(n.ProtectedGroups) > 0
}

// Graph is the read-only view of the content tree.
// Children and Roots return nodes ordered by SortOrder.
type Graph interface {
	Node(ctx context.Context, key uuid.UUID) (*Node, error)
	Roots(ctx context.Context) ([]*Node, error)
	Children(ctx context.Context, key uuid.UUID) ([]*Node, error)
}
