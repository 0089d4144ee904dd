package expansion

// State is the traversal cursor of a Machine
type State int

const (
	// Initial is the state before a root node's properties are rendered
	Initial State = iota
	// Pending is the baseline between root properties; nothing is expanded
	Pending
	// Expanding means the current root property's references render in full
	Expanding
	// Expanded means a referenced node is being rendered; its own references collapse
	Expanded
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case Initial:
		return "initial"
	case Pending:
		return "pending"
	case Expanding:
		return "expanding"
	case Expanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// Event drives a State transition
type Event int

const (
	// RootBegin starts rendering a root node's properties
	RootBegin Event = iota
	// PropertyExpand marks the current root property for expansion
	PropertyExpand
	// NestedBegin starts rendering a referenced node's properties
	NestedBegin
	// NestedDone finishes rendering a referenced node's properties
	NestedDone
	// PropertyDone finishes resolving a root property
	PropertyDone
	// RootDone finishes rendering a root node's properties
	RootDone
)

// String returns the string representation of Event
func (e Event) String() string {
	switch e {
	case RootBegin:
		return "root_begin"
	case PropertyExpand:
		return "property_expand"
	case NestedBegin:
		return "nested_begin"
	case NestedDone:
		return "nested_done"
	case PropertyDone:
		return "property_done"
	case RootDone:
		return "root_done"
	default:
		return "unknown"
	}
}

// Transition returns the state reached from s on e. The boolean is false, and
// s is returned unchanged, when e is not valid in s.
func Transition(s State, e Event) (State, bool) {
	switch {
	case s == Initial && e == RootBegin:
		return Pending, true
	case s == Pending && e == PropertyExpand:
		return Expanding, true
	case s == Expanding && e == NestedBegin:
		return Expanded, true
	case s == Expanded && e == NestedDone:
		return Expanding, true
	case (s == Expanding || s == Pending) && e == PropertyDone:
		return Pending, true
	case s == Pending && e == RootDone:
		return Initial, true
	default:
		return s, false
	}
}
