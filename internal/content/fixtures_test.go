package content

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFixtures = `
nodes:
  - key: 9a1b2c3d-0000-4000-8000-000000000001
    name: Home
    contentType: home
    createDate: 2024-01-01T00:00:00Z
    properties:
      - alias: title
        editor: text
        value: Welcome
      - alias: featured
        editor: contentPicker
        value: 9a1b2c3d-0000-4000-8000-000000000002
    children:
      - key: 9a1b2c3d-0000-4000-8000-000000000002
        name: About Us
        contentType: page
        properties:
          - alias: tags
            editor: tags
            value: [company, team]
      - name: Hidden Page
        published: false
        urlSegment: hidden
  - name: Members Area
    parent: 9a1b2c3d-0000-4000-8000-000000000001
    sortOrder: 7
    protectedGroups: [members]
`

func TestLoadFixtures(t *testing.T) {
	nodes, err := LoadFixtures(strings.NewReader(sampleFixtures))
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	home := nodes[0]
	assert.Equal(t, uuid.MustParse("9a1b2c3d-0000-4000-8000-000000000001"), home.Key)
	assert.True(t, home.IsRoot())
	assert.Equal(t, "home", home.URLSegment)
	assert.True(t, home.Published)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), home.UpdateDate)

	featured, ok := home.Property("featured")
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{uuid.MustParse("9a1b2c3d-0000-4000-8000-000000000002")}, featured.References())

	about := nodes[1]
	require.NotNil(t, about.ParentKey)
	assert.Equal(t, home.Key, *about.ParentKey)
	assert.Equal(t, "about-us", about.URLSegment)
	tags, _ := about.Property("tags")
	assert.Equal(t, []string{"company", "team"}, tags.Value)

	hidden := nodes[2]
	assert.False(t, hidden.Published)
	assert.Equal(t, "hidden", hidden.URLSegment)
	assert.Equal(t, 1, hidden.SortOrder)

	members := nodes[3]
	assert.Equal(t, home.Key, *members.ParentKey)
	assert.Equal(t, 7, members.SortOrder)
	assert.True(t, members.IsProtected())
}

func TestLoadFixtures_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", "nodes:\n  - contentType: page\n"},
		{"bad key", "nodes:\n  - name: A\n    key: nope\n"},
		{"bad parent", "nodes:\n  - name: A\n    parent: nope\n"},
		{"bad property", "nodes:\n  - name: A\n    properties:\n      - alias: n\n        editor: integer\n        value: many\n"},
		{"not yaml", "nodes: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFixtures(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFixtures_Empty(t *testing.T) {
	nodes, err := LoadFixtures(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "about-us", Slugify("About Us"))
	assert.Equal(t, "faq-2024", Slugify("  FAQ (2024)! "))
	assert.Equal(t, "", Slugify("!!!"))
}
