// Package expansion decides which referenced content is rendered inline.
//
// A client asks for expansion through the expand query parameter. The parsed
// Directive drives a per-request Machine that walks a small state machine while
// a node's properties are rendered: properties named by the directive have their
// referenced content expanded exactly one hop deep, everything else renders as a
// collapsed reference.
package expansion

import (
	"sort"
	"strings"
)

const (
	// QueryParam is the name of the query parameter carrying the directive
	QueryParam = "expand"

	expandAllValue = "all"
	propertyPrefix = "property:"
)

// Directive is the parsed client intent. The zero value expands nothing.
type Directive struct {
	expandAll bool
	aliases   map[string]struct{}
}

// None returns a directive that expands nothing
func None() Directive {
	return Directive{}
}

// All returns a directive that expands every property
func All() Directive {
	return Directive{expandAll: true}
}

// Properties returns a directive that expands the given aliases
func Properties(aliases ...string) Directive {
	set := make(map[string]struct{}, len(aliases))
	for _, alias := range aliases {
		set[alias] = struct{}{}
	}
	return Directive{aliases: set}
}

// ParseDirective parses the raw value of the expand query parameter.
//
//	""                   -> expand nothing
//	"all"                -> expand every property
//	"property:a,b"       -> expand the properties aliased a and b
//
// Any other value expands nothing. Aliases are split on commas and kept verbatim.
func ParseDirective(raw string) Directive {
	if strings.TrimSpace(raw) == "" {
		return None()
	}
	if raw == expandAllValue {
		return All()
	}
	if strings.HasPrefix(raw, propertyPrefix) {
		return Properties(strings.Split(strings.TrimPrefix(raw, propertyPrefix), ",")...)
	}
	return None()
}

// ExpandAll reports whether every property is expanded
func (d Directive) ExpandAll() bool {
	return d.expandAll
}

// Aliases returns the expanded aliases in sorted order
func (d Directive) Aliases() []string {
	out := make([]string, 0, len(d.aliases))
	for alias := range d.aliases {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Expands reports whether the property aliased alias should be expanded
func (d Directive) Expands(alias string) bool {
	if d.expandAll {
		return true
	}
	_, ok := d.aliases[alias]
	return ok
}

// IsNone reports whether the directive expands nothing
func (d Directive) IsNone() bool {
	return !d.expandAll && len(d.aliases) == 0
}

// String renders the directive in query parameter form
func (d Directive) String() string {
	switch {
	case d.expandAll:
		return expandAllValue
	case len(d.aliases) > 0:
		return propertyPrefix + strings.Join(d.Aliases(), ",")
	default:
		return ""
	}
}
