// Package query parses the query string parameters of the delivery API
package query

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/conduit-lang/delivery/internal/expansion"
)

// Paging defaults
const (
	DefaultTake = 10
	MaxTake     = 1000
)

// ErrInvalidParameter is wrapped by every parse error in this package
var ErrInvalidParameter = errors.New("invalid query parameter")

// Expand parses the expand parameter. Missing or malformed values expand
// nothing.
func Expand(r *http.Request) expansion.Directive {
	return expansion.ParseDirective(r.URL.Query().Get("expand"))
}

// Fetch returns the fetch parameter, e.g. "children:/about"
func Fetch(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("fetch"))
}

// Paging parses skip and take. Take defaults to DefaultTake and is capped at
// MaxTake.
func Paging(r *http.Request) (skip, take int, err error) {
	q := r.URL.Query()

	skip, err = nonNegative(q.Get("skip"), "skip", 0)
	if err != nil {
		return 0, 0, err
	}
	take, err = nonNegative(q.Get("take"), "take", DefaultTake)
	if err != nil {
		return 0, 0, err
	}
	if take > MaxTake {
		take = MaxTake
	}
	return skip, take, nil
}

func nonNegative(raw, name string, defaultValue int) (int, error) {
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrInvalidParameter, name, raw)
	}
	return n, nil
}

// IDs parses the repeatable id parameter. Each value may hold several
// comma separated keys. Duplicates are dropped keeping the first occurrence.
func IDs(r *http.Request) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]struct{})

	for _, value := range r.URL.Query()["id"] {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("%w: id %q is not a valid key", ErrInvalidParameter, part)
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
