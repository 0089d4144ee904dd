package content

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidValue is returned when a stored value does not fit its editor
var ErrInvalidValue = errors.New("invalid property value")

// EncodeValue converts a property's raw value into plain data (strings, numbers,
// bools, slices and maps) that JSON and YAML encoders understand.
func EncodeValue(p Property) (any, error) {
	if p.Value == nil {
		return nil, nil
	}

	switch p.Editor {
	case EditorDateTime:
		t, ok := p.Value.(time.Time)
		if !ok {
			return nil, invalid(p.Alias, p.Editor, p.Value)
		}
		return t.UTC().Format(time.RFC3339), nil

	case EditorContentPicker, EditorMultiNodeTreePicker:
		keys, ok := p.Value.([]uuid.UUID)
		if !ok {
			return nil, invalid(p.Alias, p.Editor, p.Value)
		}
		out := make([]any, len(keys))
		for i, key := range keys {
			out[i] = key.String()
		}
		return out, nil

	case EditorBlockList:
		elements, ok := p.Value.([]Element)
		if !ok {
			return nil, invalid(p.Alias, p.Editor, p.Value)
		}
		out := make([]any, 0, len(elements))
		for _, el := range elements {
			props, err := encodeProperties(el.Properties)
			if err != nil {
				return nil, err
			}
			out = append(out, map[string]any{
				"key":         el.Key.String(),
				"contentType": el.ContentType,
				"properties":  props,
			})
		}
		return out, nil

	case EditorTags:
		tags, ok := p.Value.([]string)
		if !ok {
			return nil, invalid(p.Alias, p.Editor, p.Value)
		}
		out := make([]any, len(tags))
		for i, tag := range tags {
			out[i] = tag
		}
		return out, nil

	default:
		return p.Value, nil
	}
}

func encodeProperties(props []Property) ([]any, error) {
	out := make([]any, 0, len(props))
	for _, p := range props {
		value, err := EncodeValue(p)
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"alias":  p.Alias,
			"editor": string(p.Editor),
			"value":  value,
		})
	}
	return out, nil
}

// DecodeValue converts plain data produced by a JSON or YAML decoder back into
// the raw value type expected for the editor.
func DecodeValue(alias string, editor PropertyEditor, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch editor {
	case EditorText, EditorTextArea, EditorRichText:
		s, ok := raw.(string)
		if !ok {
			return nil, invalid(alias, editor, raw)
		}
		return s, nil

	case EditorInteger:
		switch n := raw.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case uint64:
			return int64(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, invalid(alias, editor, raw)
			}
			return int64(n), nil
		}
		return nil, invalid(alias, editor, raw)

	case EditorDecimal:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, invalid(alias, editor, raw)

	case EditorBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, invalid(alias, editor, raw)
		}
		return b, nil

	case EditorDateTime:
		switch t := raw.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			parsed, err := time.Parse(time.RFC3339, t)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, alias, err)
			}
			return parsed.UTC(), nil
		}
		return nil, invalid(alias, editor, raw)

	case EditorTags:
		items, ok := raw.([]any)
		if !ok {
			return nil, invalid(alias, editor, raw)
		}
		tags := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(alias, editor, raw)
			}
			tags = append(tags, s)
		}
		return tags, nil

	case EditorContentPicker, EditorMultiNodeTreePicker:
		return decodeKeys(alias, editor, raw)

	case EditorBlockList:
		items, ok := raw.([]any)
		if !ok {
			return nil, invalid(alias, editor, raw)
		}
		elements := make([]Element, 0, len(items))
		for _, item := range items {
			el, err := decodeElement(alias, item)
			if err != nil {
				return nil, err
			}
			elements = append(elements, el)
		}
		return elements, nil
	}

	return nil, fmt.Errorf("%w: %s: unknown editor %q", ErrInvalidValue, alias, editor)
}

// DecodeProperty builds a Property from its plain data form
// ({"alias": ..., "editor": ..., "value": ...}).
func DecodeProperty(raw any) (Property, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Property{}, fmt.Errorf("%w: property must be an object", ErrInvalidValue)
	}
	alias, _ := m["alias"].(string)
	if alias == "" {
		return Property{}, fmt.Errorf("%w: property alias is required", ErrInvalidValue)
	}
	editorName, _ := m["editor"].(string)
	editor := PropertyEditor(editorName)
	if !editor.Valid() {
		return Property{}, fmt.Errorf("%w: %s: unknown editor %q", ErrInvalidValue, alias, editorName)
	}
	value, err := DecodeValue(alias, editor, m["value"])
	if err != nil {
		return Property{}, err
	}
	return Property{Alias: alias, Editor: editor, Value: value}, nil
}

func decodeKeys(alias string, editor PropertyEditor, raw any) ([]uuid.UUID, error) {
	var items []any
	switch v := raw.(type) {
	case string:
		items = []any{v}
	case []any:
		items = v
	default:
		return nil, invalid(alias, editor, raw)
	}

	keys := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, invalid(alias, editor, raw)
		}
		key, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, alias, err)
		}
		keys = append(keys, key)
	}
	if editor == EditorContentPicker && len(keys) > 1 {
		return nil, fmt.Errorf("%w: %s: content picker holds at most one reference", ErrInvalidValue, alias)
	}
	return keys, nil
}

func decodeElement(alias string, raw any) (Element, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Element{}, fmt.Errorf("%w: %s: block must be an object", ErrInvalidValue, alias)
	}

	var el Element
	if s, _ := m["key"].(string); s != "" {
		key, err := uuid.Parse(s)
		if err != nil {
			return Element{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, alias, err)
		}
		el.Key = key
	} else {
		el.Key = uuid.New()
	}
	el.ContentType, _ = m["contentType"].(string)

	props, _ := m["properties"].([]any)
	for _, rawProp := range props {
		p, err := DecodeProperty(rawProp)
		if err != nil {
			return Element{}, err
		}
		el.Properties = append(el.Properties, p)
	}
	return el, nil
}

func invalid(alias string, editor PropertyEditor, raw any) error {
	return fmt.Errorf("%w: %s: %T is not a valid %s value", ErrInvalidValue, alias, raw, editor)
}
