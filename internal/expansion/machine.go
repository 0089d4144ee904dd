package expansion

import (
	"github.com/conduit-lang/delivery/internal/content"
)

// ResolveFunc resolves a property to its output value. expanding tells the
// resolver whether content referenced by the property should be rendered in
// full (through Machine.RenderNestedProperties) or as a collapsed reference.
type ResolveFunc func(p content.Property, expanding bool) (any, error)

// Machine applies a Directive while one root node is rendered.
//
// A Machine belongs to a single request and must not be shared; the properties
// of a node are resolved one at a time, in order, because the machine tracks a
// single current property.
type Machine struct {
	directive Directive
	state     State
}

// NewMachine creates a machine in the Initial state
func NewMachine(d Directive) *Machine {
	return &Machine{directive: d, state: Initial}
}

// Directive returns the directive the machine applies
func (m *Machine) Directive() Directive {
	return m.directive
}

// State returns the current cursor
func (m *Machine) State() State {
	return m.state
}

// IsExpanding reports whether references of the property being resolved
// should render in full
func (m *Machine) IsExpanding() bool {
	return m.state == Expanding
}

// RenderRootProperties renders every property of the root node. Each property
// is evaluated against the directive on its own; the state returns to Pending
// after every property and to Initial once all properties are done.
//
// When the machine is not Initial, for example because a property references
// the root again, the call is treated as a nested render. Such a call returns
// an empty map unless the machine is Expanding.
func (m *Machine) RenderRootProperties(props []content.Property, resolve ResolveFunc) (*content.Values, error) {
	if m.state != Initial {
		return m.RenderNestedProperties(props, resolve)
	}

	m.fire(RootBegin)
	defer m.fire(RootDone)

	values := content.NewValues(len(props))
	for _, p := range props {
		value, err := m.resolveRootProperty(p, resolve)
		if err != nil {
			return nil, err
		}
		values.Set(p.Alias, value)
	}
	return values, nil
}

func (m *Machine) resolveRootProperty(p content.Property, resolve ResolveFunc) (any, error) {
	if m.directive.Expands(p.Alias) {
		m.fire(PropertyExpand)
	}
	defer m.fire(PropertyDone)

	return resolve(p, m.IsExpanding())
}

// RenderNestedProperties renders the properties of a referenced node. Only the
// first hop below an expanding root property renders; its properties resolve
// with expanding=false so their own references collapse. In any other state the
// result is empty.
func (m *Machine) RenderNestedProperties(props []content.Property, resolve ResolveFunc) (*content.Values, error) {
	if m.state != Expanding {
		return content.NewValues(0), nil
	}

	m.fire(NestedBegin)
	defer m.fire(NestedDone)

	values := content.NewValues(len(props))
	for _, p := range props {
		value, err := resolve(p, false)
		if err != nil {
			return nil, err
		}
		values.Set(p.Alias, value)
	}
	return values, nil
}

// RenderElementProperties renders the properties of an inline block element.
// Elements are part of the property that owns them, so they always render in
// full and pass the current expansion mode through without changing state.
func (m *Machine) RenderElementProperties(props []content.Property, resolve ResolveFunc) (*content.Values, error) {
	expanding := m.IsExpanding()

	values := content.NewValues(len(props))
	for _, p := range props {
		value, err := resolve(p, expanding)
		if err != nil {
			return nil, err
		}
		values.Set(p.Alias, value)
	}
	return values, nil
}

// fire applies e; events that are not valid in the current state are ignored
func (m *Machine) fire(e Event) {
	m.state, _ = Transition(m.state, e)
}
