package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/conduit-lang/delivery/internal/content"
	"github.com/conduit-lang/delivery/internal/web/auth"
	"github.com/conduit-lang/delivery/internal/web/cache"
	"github.com/conduit-lang/delivery/internal/web/middleware"
)

const (
	homeID    = "7c0e9a41-0000-4000-8000-000000000001"
	aboutID   = "7c0e9a41-0000-4000-8000-000000000002"
	teamID    = "7c0e9a41-0000-4000-8000-000000000003"
	draftID   = "7c0e9a41-0000-4000-8000-000000000004"
	membersID = "7c0e9a41-0000-4000-8000-000000000005"
	prefix    = "/api"
)

const fixtures = `
nodes:
  - key: 7c0e9a41-0000-4000-8000-000000000001
    name: Home
    contentType: home
    properties:
      - alias: title
        editor: text
        value: Welcome
      - alias: featured
        editor: contentPicker
        value: 7c0e9a41-0000-4000-8000-000000000002
    children:
      - key: 7c0e9a41-0000-4000-8000-000000000002
        name: About
        contentType: page
        properties:
          - alias: title
            editor: text
            value: About us
          - alias: lead
            editor: contentPicker
            value: 7c0e9a41-0000-4000-8000-000000000003
        children:
          - key: 7c0e9a41-0000-4000-8000-000000000003
            name: Team
            contentType: page
            properties:
              - alias: title
                editor: text
                value: The team
      - key: 7c0e9a41-0000-4000-8000-000000000004
        name: Draft
        contentType: page
        published: false
      - key: 7c0e9a41-0000-4000-8000-000000000005
        name: Members
        contentType: page
        protectedGroups: [members]
`

type testEnv struct {
	handler http.Handler
	token   string
}

func newTestEnv(t testing.TB, modify func(*Config)) *testEnv {
	t.Helper()

	nodes, err := content.LoadFixtures(strings.NewReader(fixtures))
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-key"), bcrypt.MinCost)
	require.NoError(t, err)

	members := auth.NewMemberTokens("0123456789abcdef0123456789abcdef", time.Hour)
	token, err := members.Issue("m-1", []string{"members"})
	require.NoError(t, err)

	cfg := Config{
		Graph:     content.NewMemoryGraph(nodes...),
		APIPrefix: prefix,
		MaxDepth:  32,
		Access: middleware.AccessConfig{
			APIKeys: auth.NewAPIKeyVerifier(string(hash)),
			Members: members,
		},
	}
	if modify != nil {
		modify(&cfg)
	}
	return &testEnv{handler: NewRouter(cfg), token: token}
}

func (e *testEnv) get(t testing.TB, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func props(t *testing.T, doc any) map[string]any {
	t.Helper()
	m, ok := doc.(map[string]any)
	require.True(t, ok, "expected a content object, got %T", doc)
	p, ok := m["properties"].(map[string]any)
	require.True(t, ok)
	return p
}

func TestItem_ByPathAndKey(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		wantID  string
		route   string
	}{
		{"root", "/content/item/", nil, homeID, "/"},
		{"child path", "/content/item/about", nil, aboutID, "/about"},
		{"nested path", "/content/item/about/team", nil, teamID, "/about/team"},
		{"by key", "/content/item/" + teamID, nil, teamID, "/about/team"},
		{"start item", "/content/item/about", map[string]string{StartItemHeader: "home"}, aboutID, "/about"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, prefix+tt.path, tt.headers)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

			doc := decode(t, rec)
			assert.Equal(t, tt.wantID, doc["id"])
			assert.Equal(t, tt.route, doc["route"].(map[string]any)["path"])
		})
	}
}

func TestItem_Expansion(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name         string
		expand       string
		wantFeatured bool
	}{
		{"no expansion", "", false},
		{"expand all", "?expand=all", true},
		{"expand named", "?expand=property:featured", true},
		{"expand other", "?expand=property:title", false},
		{"malformed", "?expand=everything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, prefix+"/content/item/"+tt.expand, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			home := props(t, decode(t, rec))
			assert.Equal(t, "Welcome", home["title"])

			featured := props(t, home["featured"])
			if !tt.wantFeatured {
				assert.Empty(t, featured)
				return
			}
			assert.Equal(t, "About us", featured["title"])
			assert.Empty(t, props(t, featured["lead"]), "expansion is one level deep")
		})
	}
}

func TestItem_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		status  int
	}{
		{"unknown path", "/content/item/nope", nil, http.StatusNotFound},
		{"unknown key", "/content/item/7c0e9a41-0000-4000-8000-0000000000ff", nil, http.StatusNotFound},
		{"unpublished", "/content/item/" + draftID, nil, http.StatusNotFound},
		{"protected anonymous", "/content/item/members", nil, http.StatusUnauthorized},
		{"preview without key", "/content/item/" + draftID, map[string]string{"Preview": "true"}, http.StatusUnauthorized},
		{"bad api key", "/content/item/", map[string]string{"Api-Key": "wrong"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, prefix+tt.path, tt.headers)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, decode(t, rec), "code")
		})
	}
}

func TestItem_PreviewAndMembers(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get(t, prefix+"/content/item/"+draftID, map[string]string{"Api-Key": "secret-key", "Preview": "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Draft", decode(t, rec)["name"])

	rec = env.get(t, prefix+"/content/item/members", map[string]string{"Authorization": "Bearer " + env.token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, membersID, decode(t, rec)["id"])
}

func TestItems(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get(t, prefix+"/content/items?id="+teamID+"&id="+draftID+","+homeID+"&id=7c0e9a41-0000-4000-8000-0000000000ff", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, teamID, items[0]["id"])
	assert.Equal(t, homeID, items[1]["id"])

	rec = env.get(t, prefix+"/content/items?id=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name  string
		query string
		total float64
		ids   []string
	}{
		{"roots", "", 1, []string{homeID}},
		{"children", "?fetch=children:/", 1, []string{aboutID}},
		{"children by key", "?fetch=children:" + aboutID, 1, []string{teamID}},
		{"descendants", "?fetch=descendants:/", 2, []string{aboutID, teamID}},
		{"ancestors", "?fetch=ancestors:/about/team", 2, []string{homeID, aboutID}},
		{"paged", "?fetch=descendants:/&skip=1&take=1", 2, []string{teamID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, prefix+"/content"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			page := decode(t, rec)
			assert.Equal(t, tt.total, page["total"])
			items := page["items"].([]any)
			ids := make([]string, len(items))
			for i, item := range items {
				ids[i] = item.(map[string]any)["id"].(string)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestQuery_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.Equal(t, http.StatusBadRequest, env.get(t, prefix+"/content?fetch=siblings:/", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.get(t, prefix+"/content?take=-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.get(t, prefix+"/content?fetch=children:/missing", nil).Code)
}

func TestQuery_EachItemExpandsIndependently(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get(t, prefix+"/content?fetch=children:/&expand=property:lead", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decode(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	lead := props(t, props(t, items[0])["lead"])
	assert.Equal(t, "The team", lead["title"])
}

func TestHealthAndMetrics(t *testing.T) {
	healthy := newTestEnv(t, func(c *Config) {
		c.Health = func(context.Context) error { return nil }
	})
	rec := healthy.get(t, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = healthy.get(t, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "delivery_http_requests_total")

	down := newTestEnv(t, func(c *Config) {
		c.Health = func(context.Context) error { return errors.New("connection refused") }
	})
	assert.Equal(t, http.StatusServiceUnavailable, down.get(t, "/healthz", nil).Code)
}

func TestResponseCache(t *testing.T) {
	mem := cache.NewMemoryCache(cache.DefaultConfig())
	defer mem.Close()
	env := newTestEnv(t, func(c *Config) { c.Cache = mem })

	first := env.get(t, prefix+"/content/item/about", nil)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := env.get(t, prefix+"/content/item/about", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	member := env.get(t, prefix+"/content/item/members", map[string]string{"Authorization": "Bearer " + env.token})
	assert.Equal(t, http.StatusOK, member.Code)
	assert.Empty(t, member.Header().Get("X-Cache"))
}

func TestResponseCache_PersonalizedNotShared(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		headers map[string]string
		anon    int
	}{
		{"preview lowercase", "/content/item/" + draftID, map[string]string{"Api-Key": "secret-key", "Preview": "true"}, http.StatusNotFound},
		{"preview uppercase", "/content/item/" + draftID, map[string]string{"Api-Key": "secret-key", "Preview": "TRUE"}, http.StatusNotFound},
		{"preview mixed case", "/content/item/" + draftID, map[string]string{"Api-Key": "secret-key", "Preview": "True"}, http.StatusNotFound},
		{"member", "/content/item/members", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := cache.NewMemoryCache(cache.DefaultConfig())
			defer mem.Close()
			env := newTestEnv(t, func(c *Config) { c.Cache = mem })

			headers := tt.headers
			if headers == nil {
				headers = map[string]string{"Authorization": "Bearer " + env.token}
			}

			personal := env.get(t, prefix+tt.path, headers)
			require.Equal(t, http.StatusOK, personal.Code)
			assert.Empty(t, personal.Header().Get("X-Cache"))

			anon := env.get(t, prefix+tt.path, nil)
			assert.Equal(t, tt.anon, anon.Code)
			assert.NotEqual(t, "HIT", anon.Header().Get("X-Cache"))
		})
	}
}
