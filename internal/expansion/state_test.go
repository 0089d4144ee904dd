package expansion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition_Valid(t *testing.T) {
	tests := []struct {
		from  State
		event Event
		to    State
	}{
		{Initial, RootBegin, Pending},
		{Pending, PropertyExpand, Expanding},
		{Expanding, NestedBegin, Expanded},
		{Expanded, NestedDone, Expanding},
		{Expanding, PropertyDone, Pending},
		{Pending, PropertyDone, Pending},
		{Pending, RootDone, Initial},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.event.String(), func(t *testing.T) {
			to, ok := Transition(tt.from, tt.event)
			assert.True(t, ok)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestTransition_InvalidLeavesStateUnchanged(t *testing.T) {
	valid := map[State]map[Event]bool{
		Initial:   {RootBegin: true},
		Pending:   {PropertyExpand: true, PropertyDone: true, RootDone: true},
		Expanding: {NestedBegin: true, PropertyDone: true},
		Expanded:  {NestedDone: true},
	}

	states := []State{Initial, Pending, Expanding, Expanded}
	events := []Event{RootBegin, PropertyExpand, NestedBegin, NestedDone, PropertyDone, RootDone}

	for _, s := range states {
		for _, e := range events {
			if valid[s][e] {
				continue
			}
			to, ok := Transition(s, e)
			assert.False(t, ok, "%s on %s", s, e)
			assert.Equal(t, s, to, "%s on %s", s, e)
		}
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "initial", Initial.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "expanding", Expanding.String())
	assert.Equal(t, "expanded", Expanded.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.Equal(t, "unknown", Event(42).String())
}
