package content

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// fixtureFile is the YAML layout accepted by LoadFixtures
type fixtureFile struct {
	Nodes []fixtureNode `yaml:"nodes"`
}

type fixtureNode struct {
	Key             string        `yaml:"key"`
	Parent          string        `yaml:"parent"`
	Name            string        `yaml:"name"`
	ContentType     string        `yaml:"contentType"`
	URLSegment      string        `yaml:"urlSegment"`
	SortOrder       int           `yaml:"sortOrder"`
	Published       *bool         `yaml:"published"`
	ProtectedGroups []string      `yaml:"protectedGroups"`
	CreateDate      time.Time     `yaml:"createDate"`
	UpdateDate      time.Time     `yaml:"updateDate"`
	Properties      []any         `yaml:"properties"`
	Children        []fixtureNode `yaml:"children"`
}

var segmentPattern = regexp.MustCompile(`[^a-z0-9]+`)

// LoadFixtures reads nodes from a YAML document.
//
// Nodes may be nested under a parent's children list or reference their parent by
// key. Published defaults to true and the URL segment defaults to a slug of the
// name.
//
//	nodes:
//	  - key: 2f1e3c1a-...
//	    name: Home
//	    contentType: home
//	    properties:
//	      - alias: title
//	        editor: text
//	        value: Welcome
//	    children:
//	      - name: About
//	        contentType: page
func LoadFixtures(r io.Reader) ([]*Node, error) {
	var file fixtureFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	var nodes []*Node
	for i, fn := range file.Nodes {
		var parent *uuid.UUID
		if fn.Parent != "" {
			key, err := uuid.Parse(fn.Parent)
			if err != nil {
				return nil, fmt.Errorf("node %d: invalid parent key: %w", i, err)
			}
			parent = &key
		}
		flat, err := flatten(fn, parent, i)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, flat...)
	}
	return nodes, nil
}

func flatten(fn fixtureNode, parent *uuid.UUID, sortOrder int) ([]*Node, error) {
	n, err := fn.toNode(parent, sortOrder)
	if err != nil {
		return nil, err
	}

	out := []*Node{n}
	for i, child := range fn.Children {
		key := n.Key
		nested, err := flatten(child, &key, i)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func (fn fixtureNode) toNode(parent *uuid.UUID, sortOrder int) (*Node, error) {
	if fn.Name == "" {
		return nil, fmt.Errorf("%w: node name is required", ErrInvalidValue)
	}

	n := &Node{
		ParentKey:       parent,
		Name:            fn.Name,
		ContentType:     fn.ContentType,
		URLSegment:      fn.URLSegment,
		SortOrder:       fn.SortOrder,
		Published:       true,
		ProtectedGroups: fn.ProtectedGroups,
		CreateDate:      fn.CreateDate.UTC(),
		UpdateDate:      fn.UpdateDate.UTC(),
	}

	if fn.Key != "" {
		key, err := uuid.Parse(fn.Key)
		if err != nil {
			return nil, fmt.Errorf("node %q: invalid key: %w", fn.Name, err)
		}
		n.Key = key
	} else {
		n.Key = uuid.New()
	}
	if fn.SortOrder == 0 {
		n.SortOrder = sortOrder
	}
	if fn.Published != nil {
		n.Published = *fn.Published
	}
	if n.URLSegment == "" {
		n.URLSegment = Slugify(fn.Name)
	}
	if n.UpdateDate.IsZero() {
		n.UpdateDate = n.CreateDate
	}

	for _, raw := range fn.Properties {
		p, err := DecodeProperty(raw)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", fn.Name, err)
		}
		n.Properties = append(n.Properties, p)
	}
	return n, nil
}

// Slugify turns a node name into a URL segment
func Slugify(name string) string {
	slug := segmentPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
