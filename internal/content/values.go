package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Values is an alias to value map that remembers insertion order, so a node's
// properties serialize in the order the editor defined them.
type Values struct {
	keys   []string
	values map[string]any
}

// NewValues creates an empty Values with room for n entries
func NewValues(n int) *Values {
	return &Values{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set stores a value. Setting an existing alias replaces the value in place.
func (v *Values) Set(alias string, value any) {
	if v.values == nil {
		v.values = make(map[string]any)
	}
	if _, exists := v.values[alias]; !exists {
		v.keys = append(v.keys, alias)
	}
	v.values[alias] = value
}

// Get returns the value stored for alias
func (v *Values) Get(alias string) (any, bool) {
	if v == nil {
		return nil, false
	}
	value, ok := v.values[alias]
	return value, ok
}

// Len returns the number of entries
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Keys returns the aliases in insertion order
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	keys := make([]string, len(v.keys))
	copy(keys, v.keys)
	return keys
}

// MarshalJSON writes the entries as a JSON object in insertion order
func (v *Values) MarshalJSON() ([]byte, error) {
	if v == nil || len(v.keys) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, alias := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(alias)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(v.values[alias])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal property %q: %w", alias, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the document order of its keys
func (v *Values) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	v.keys = nil
	v.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		alias, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		v.Set(alias, value)
	}
	_, err = dec.Token()
	return err
}
