package content

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValue(t *testing.T) {
	key := uuid.MustParse("6b3c8a4e-1d2f-4c5b-9a7e-3f1d2c4b5a6e")
	other := uuid.MustParse("7c4d9b5f-2e3a-4d6c-8b8f-4a2e3d5c6b7f")

	tests := []struct {
		name   string
		editor PropertyEditor
		raw    any
		want   any
		err    bool
	}{
		{"text", EditorText, "hello", "hello", false},
		{"text wrong type", EditorText, 5, nil, true},
		{"integer from int", EditorInteger, 5, int64(5), false},
		{"integer from whole float", EditorInteger, 5.0, int64(5), false},
		{"integer from fraction", EditorInteger, 5.5, nil, true},
		{"decimal from int", EditorDecimal, 2, 2.0, false},
		{"boolean", EditorBoolean, true, true, false},
		{"datetime string", EditorDateTime, "2024-01-02T03:04:05+01:00", time.Date(2024, 1, 2, 2, 4, 5, 0, time.UTC), false},
		{"datetime garbage", EditorDateTime, "yesterday", nil, true},
		{"tags", EditorTags, []any{"a", "b"}, []string{"a", "b"}, false},
		{"tags non string", EditorTags, []any{"a", 1}, nil, true},
		{"content picker single string", EditorContentPicker, key.String(), []uuid.UUID{key}, false},
		{"content picker too many", EditorContentPicker, []any{key.String(), other.String()}, nil, true},
		{"tree picker", EditorMultiNodeTreePicker, []any{key.String(), other.String()}, []uuid.UUID{key, other}, false},
		{"picker bad key", EditorMultiNodeTreePicker, []any{"nope"}, nil, true},
		{"nil value", EditorText, nil, nil, false},
		{"unknown editor", PropertyEditor("slider"), 1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeValue("alias", tt.editor, tt.raw)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeProperty_BlockList(t *testing.T) {
	elementKey := uuid.New()
	raw := map[string]any{
		"alias":  "blocks",
		"editor": "blockList",
		"value": []any{
			map[string]any{
				"key":         elementKey.String(),
				"contentType": "callout",
				"properties": []any{
					map[string]any{"alias": "heading", "editor": "text", "value": "Hi"},
				},
			},
			map[string]any{"contentType": "divider"},
		},
	}

	p, err := DecodeProperty(raw)
	require.NoError(t, err)
	require.Len(t, p.Elements(), 2)

	first := p.Elements()[0]
	assert.Equal(t, elementKey, first.Key)
	assert.Equal(t, "callout", first.ContentType)
	assert.Equal(t, []Property{{Alias: "heading", Editor: EditorText, Value: "Hi"}}, first.Properties)

	assert.NotEqual(t, uuid.Nil, p.Elements()[1].Key)
}

func TestDecodeProperty_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"not an object", "title"},
		{"missing alias", map[string]any{"editor": "text"}},
		{"unknown editor", map[string]any{"alias": "a", "editor": "slider"}},
		{"bad element", map[string]any{"alias": "a", "editor": "blockList", "value": []any{"x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProperty(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestEncodeValue_RoundTripsThroughDecode(t *testing.T) {
	props := []Property{
		{Alias: "when", Editor: EditorDateTime, Value: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)},
		{Alias: "link", Editor: EditorContentPicker, Value: []uuid.UUID{uuid.New()}},
		{Alias: "tags", Editor: EditorTags, Value: []string{"x"}},
		{Alias: "blocks", Editor: EditorBlockList, Value: []Element{{
			Key:         uuid.New(),
			ContentType: "quote",
			Properties:  []Property{{Alias: "text", Editor: EditorTextArea, Value: "q"}},
		}}},
		{Alias: "count", Editor: EditorInteger, Value: int64(7)},
	}

	for _, p := range props {
		t.Run(p.Alias, func(t *testing.T) {
			encoded, err := EncodeValue(p)
			require.NoError(t, err)

			decoded, err := DecodeValue(p.Alias, p.Editor, encoded)
			require.NoError(t, err)
			assert.Equal(t, p.Value, decoded)
		})
	}
}

func TestEncodeValue_WrongType(t *testing.T) {
	_, err := EncodeValue(Property{Alias: "when", Editor: EditorDateTime, Value: "2024"})
	assert.ErrorIs(t, err, ErrInvalidValue)
}
