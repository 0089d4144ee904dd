package delivery

import "errors"

var (
	// ErrUnauthorized is returned when protected content is requested anonymously
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden is returned when the member is not in a group allowed to view the content
	ErrForbidden = errors.New("access denied")

	// ErrMaxDepthExceeded is returned when a traversal nests deeper than the configured limit
	ErrMaxDepthExceeded = errors.New("maximum traversal depth exceeded")

	// ErrInvalidFetch is returned for an unsupported fetch query value
	ErrInvalidFetch = errors.New("invalid fetch value")
)
