package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conduit-lang/delivery/internal/cli/config"
	"github.com/conduit-lang/delivery/internal/content"
	"github.com/conduit-lang/delivery/internal/web/auth"
)

const memberSecret = "0123456789abcdef0123456789abcdef"

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
      - name: Draft
        contentType: page
        published: false
`

// writeConfig creates a config file pointing at a fresh SQLite database
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "content.db") + "?_foreign_keys=on"
	body := fmt.Sprintf("database:\n  driver: sqlite3\n  dsn: %q\nlog:\n  mode: development\n  level: error\n%s", dsn, extra)

	path := filepath.Join(dir, "delivery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(args ...string) (string, error) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "delivery", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"version", "serve", "migrate", "seed", "render", "routes", "hash-key", "member-token"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	defer func() { Version = "dev" }()

	out, err := run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Delivery version")
	assert.Contains(t, out, "1.0.0-test")
}

func TestMigrateCommand(t *testing.T) {
	cfgPath := writeConfig(t, "")

	for i := 0; i < 2; i++ {
		out, err := run("--config", cfgPath, "migrate")
		require.NoError(t, err)
		assert.Contains(t, out, "Content schema is up to date (sqlite3)")
	}
}

func TestSeedAndRender(t *testing.T) {
	cfgPath := writeConfig(t, "")
	fixturePath := writeFile(t, "content.yaml", fixtures)

	out, err := run("--config", cfgPath, "seed", fixturePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 3 nodes")

	out, err = run("--config", cfgPath, "render", "/about")
	require.NoError(t, err)
	var about map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &about))
	assert.Equal(t, "About", about["name"])
	assert.Equal(t, "/about", about["route"].(map[string]any)["path"])

	out, err = run("--config", cfgPath, "render", "7c0e9a41-0000-4000-8000-000000000001", "--expand", "all")
	require.NoError(t, err)
	var home map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &home))
	featured := home["properties"].(map[string]any)["featured"].(map[string]any)
	assert.Equal(t, "About us", featured["properties"].(map[string]any)["title"])

	_, err = run("--config", cfgPath, "render", "/draft")
	assert.ErrorIs(t, err, content.ErrNotFound)

	out, err = run("--config", cfgPath, "render", "/draft", "--preview")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Draft"`)
}

func TestSeed_Truncate(t *testing.T) {
	cfgPath := writeConfig(t, "")

	_, err := run("--config", cfgPath, "seed", writeFile(t, "a.yaml", fixtures))
	require.NoError(t, err)

	replacement := writeFile(t, "b.yaml", "nodes:\n  - name: Landing\n    contentType: home\n")
	out, err := run("--config", cfgPath, "seed", replacement, "--truncate", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed existing content")
	assert.Contains(t, out, "Seeded 1 nodes")

	_, err = run("--config", cfgPath, "render", "/about")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestSeed_Errors(t *testing.T) {
	cfgPath := writeConfig(t, "")

	_, err := run("--config", cfgPath, "seed", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to open fixtures")

	_, err = run("--config", cfgPath, "seed", writeFile(t, "bad.yaml", "nodes:\n  - contentType: page\n"))
	assert.ErrorIs(t, err, content.ErrInvalidValue)

	_, err = run("--config", cfgPath, "seed")
	assert.Error(t, err)
}

func TestRoutesCommand(t *testing.T) {
	out, err := run("--config", writeConfig(t, "server:\n  api_prefix: /api\n"), "routes")
	require.NoError(t, err)

	assert.Contains(t, out, "METHOD")
	for _, want := range []string{"/healthz", "/metrics", "/api/content", "/api/content/items", "/api/content/item/*", "content.item"} {
		assert.Contains(t, out, want)
	}
}

func TestHashKeyCommand(t *testing.T) {
	out, err := run("hash-key", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, auth.NewAPIKeyVerifier(hash).Verify("s3cret"))
}

func TestMemberTokenCommand(t *testing.T) {
	cfgPath := writeConfig(t, fmt.Sprintf("auth:\n  member_secret: %s\n", memberSecret))

	out, err := run("--config", cfgPath, "member-token", "m-42", "--group", "members", "-g", "staff")
	require.NoError(t, err)

	member, err := auth.NewMemberTokens(memberSecret, time.Hour).Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "m-42", member.ID)
	assert.Equal(t, []string{"members", "staff"}, member.Groups)

	_, err = run("--config", writeConfig(t, ""), "member-token", "m-42")
	assert.ErrorContains(t, err, "auth.member_secret")
}

func loadTestConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	cfg, err := config.Load(writeConfig(t, extra))
	require.NoError(t, err)
	return cfg
}

func seedServices(t *testing.T, svc *services) {
	t.Helper()
	ctx := context.Background()
	nodes, err := content.LoadFixtures(strings.NewReader(fixtures))
	require.NoError(t, err)
	require.NoError(t, svc.store.Migrate(ctx))
	require.NoError(t, svc.store.Save(ctx, nodes...))
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServices_Memory(t *testing.T) {
	cfg := loadTestConfig(t, "rate_limit:\n  per_minute: 2\n")

	svc, err := newServices(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Close()
	seedServices(t, svc)

	h := svc.handler()
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)

	item := cfg.Server.APIPrefix + "/content/item/about"
	first := get(h, item)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, "HIT", get(h, item).Header().Get("X-Cache"))
	assert.Equal(t, http.StatusTooManyRequests, get(h, item).Code)
}

func TestServices_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadTestConfig(t, fmt.Sprintf(
		"cache:\n  backend: redis\nrate_limit:\n  backend: redis\n  per_minute: 5\nredis:\n  addr: %s\n", mr.Addr()))

	svc, err := newServices(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Close()
	seedServices(t, svc)

	h := svc.handler()
	item := cfg.Server.APIPrefix + "/content/item/"
	assert.Equal(t, "MISS", get(h, item).Header().Get("X-Cache"))

	second := get(h, item)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "3", second.Header().Get("X-RateLimit-Remaining"))

	keys := mr.Keys()
	assert.NotEmpty(t, keys)
}

func TestServices_CacheDisabled(t *testing.T) {
	cfg := loadTestConfig(t, "cache:\n  backend: none\nrate_limit:\n  per_minute: 0\n")

	svc, err := newServices(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Close()
	seedServices(t, svc)

	assert.Nil(t, svc.cache)
	assert.Nil(t, svc.limiter)

	rec := get(svc.handler(), cfg.Server.APIPrefix+"/content/item/about")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestServices_RedisUnavailable(t *testing.T) {
	cfg := loadTestConfig(t, "cache:\n  backend: redis\nredis:\n  addr: 127.0.0.1:1\n")

	_, err := newServices(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestNewHTTPServer(t *testing.T) {
	cfg := loadTestConfig(t, "server:\n  port: 9090\n  tls_cert_file: cert.pem\n  tls_key_file: key.pem\n")

	svc, err := newServices(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Close()

	srv, err := newHTTPServer(cfg, svc)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", srv.Addr())
}

func TestStartProfiling(t *testing.T) {
	srv, err := startProfiling("127.0.0.1:0", zap.NewNop())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/debug/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
