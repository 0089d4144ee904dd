package delivery

import (
	"github.com/conduit-lang/delivery/internal/content"
)

// Member is an authenticated site member
type Member struct {
	ID     string
	Groups []string
}

// InGroup reports whether the member belongs to any of groups
func (m *Member) InGroup(groups []string) bool {
	if m == nil {
		return false
	}
	for _, want := range groups {
		for _, have := range m.Groups {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Access describes what the current request may see
type Access struct {
	// Preview allows unpublished content
	Preview bool
	// Member is nil for anonymous requests
	Member *Member
}

// Check returns nil when the node is visible. Unpublished content outside
// preview is reported as not found.
func (a Access) Check(n *content.Node) error {
	if !n.Published && !a.Preview {
		return content.ErrNotFound
	}
	if !n.IsProtected() {
		return nil
	}
	if a.Member == nil {
		return ErrUnauthorized
	}
	if !a.Member.InGroup(n.ProtectedGroups) {
		return ErrForbidden
	}
	return nil
}

// CanView reports whether Check passes
func (a Access) CanView(n *content.Node) bool {
	return a.Check(n) == nil
}
