package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stine-ri/wings-of-memory/client"
	"github.com/stine-ri/wings-of-memory/internal/api"
	"github.com/stine-ri/wings-of-memory/internal/auth"
	"github.com/stine-ri/wings-of-memory/internal/config"
	"github.com/stine-ri/wings-of-memory/internal/localstate"
	"github.com/stine-ri/wings-of-memory/internal/search"
	"github.com/stine-ri/wings-of-memory/internal/services"
	"github.com/stine-ri/wings-of-memory/internal/store/sqlite"
)

func testConfig(apiURL string) *config.ClientConfig {
	return &config.ClientConfig{
		APIURL:         apiURL,
		SearchDebounce: 20 * time.Millisecond,
		SearchPageSize: 12,
		ImageTTL:       24 * time.Hour,
		HTTPTimeout:    5 * time.Second,
	}
}

func newTestApp(apiURL string) *app {
	return &app{cfg: testConfig(apiURL), kv: localstate.NewMemory(), log: zerolog.Nop()}
}

// run executes one memorialctl invocation and returns its output.
func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a.out = &out
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, a *app, args ...string) string {
	t.Helper()
	out, err := run(t, a, args...)
	require.NoError(t, err, out)
	return out
}

func newBackend(t *testing.T) string {
	t.Helper()
	st, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "backend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	tokens, err := auth.NewTokens("test-secret", "", time.Hour)
	require.NoError(t, err)
	log := zerolog.Nop()
	ms := services.NewMemorialService(st, 50, log)
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Auth:      services.NewAuthService(st, tokens, log),
		Memorials: ms,
		Tributes:  services.NewTributeService(st, ms, log),
		RSVPs:     services.NewRSVPService(st, ms, log),
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

var idRe = regexp.MustCompile(`(?m)^([0-9a-f-]{36})\s`)

func firstID(t *testing.T, out string) string {
	t.Helper()
	m := idRe.FindStringSubmatch(out)
	require.NotNil(t, m, "no id in %q", out)
	return m[1]
}

func TestSessionShowIsStable(t *testing.T) {
	a := newTestApp("http://unused")
	first := mustRun(t, a, "session", "show")
	assert.Equal(t, first, mustRun(t, a, "session", "show"))
	assert.Contains(t, first, "currentUserId")

	scoped := mustRun(t, a, "session", "show", "--memorial", "joanne")
	assert.NotEqual(t, strings.Fields(first)[1], strings.Fields(scoped)[1])
	assert.Equal(t, scoped, mustRun(t, a, "session", "show", "-m", "joanne"))
}

func TestWallLifecycle(t *testing.T) {
	a := newTestApp("http://unused")
	img := filepath.Join(t.TempDir(), "pixel.png")
	png, _ := base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")
	require.NoError(t, os.WriteFile(img, png, 0o600))

	out := mustRun(t, a, "wall", "add", "--text", "Goodbye, Joanne", "--author", "Ann", "--image", img)
	id := firstID(t, out)
	assert.Contains(t, out, "Ann")

	rec, err := a.wall().Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, rec.Images, 1)
	resolved := mustRun(t, a, "image", "resolve", rec.Images[0])
	assert.True(t, strings.HasPrefix(resolved, "data:image/png;base64,"))

	out = mustRun(t, a, "wall", "like", id)
	assert.Contains(t, out, "liked=true")
	out = mustRun(t, a, "wall", "list")
	assert.Contains(t, out, "♥")
	assert.Contains(t, out, "(yours)")

	out = mustRun(t, a, "wall", "edit", id, "--text", "Goodbye, dear Joanne", "--keep-image", "")
	assert.Contains(t, out, "Goodbye, dear Joanne")
	_, err = run(t, a, "image", "resolve", rec.Images[0])
	assert.Error(t, err, "dropped image is removed")

	other := &app{cfg: a.cfg, kv: a.kv, log: zerolog.Nop()}
	require.NoError(t, a.kv.RemoveItem(context.Background(), "currentUserId"))
	_, err = run(t, other, "wall", "delete", id)
	assert.Error(t, err, "another session cannot delete")

	out = mustRun(t, a, "wall", "sweep")
	assert.Contains(t, out, "removed 0")
}

func TestWallListExpiresOldImages(t *testing.T) {
	a := newTestApp("http://unused")
	ctx := context.Background()
	old := time.Now().Add(-25 * time.Hour).UnixMilli()
	require.NoError(t, a.kv.SetItem(ctx, "img_old", fmt.Sprintf(`{"id":"img_old","data":"aGVsbG8=","timestamp":%d}`, old)))
	require.NoError(t, a.kv.SetItem(ctx, "img_fresh", fmt.Sprintf(`{"id":"img_fresh","data":"aGVsbG8=","timestamp":%d}`, time.Now().UnixMilli())))

	mustRun(t, a, "wall", "list")
	_, ok, err := a.kv.GetItem(ctx, "img_old")
	require.NoError(t, err)
	assert.False(t, ok, "list sweeps expired blobs")
	_, ok, err = a.kv.GetItem(ctx, "img_fresh")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.kv.SetItem(ctx, "img_old", fmt.Sprintf(`{"id":"img_old","data":"aGVsbG8=","timestamp":%d}`, old)))
	_, err = run(t, a, "image", "resolve", "img_old")
	assert.Error(t, err)
	out := mustRun(t, a, "image", "resolve", "img_fresh")
	assert.Contains(t, out, "aGVsbG8=")
}

func TestTributesThroughBackend(t *testing.T) {
	apiURL := newBackend(t)
	ctx := context.Background()

	owner := newTestApp(apiURL)
	out := mustRun(t, owner, "register", "--email", "owner@example.com", "--password", "long password")
	assert.Contains(t, out, "owner@example.com")
	c, err := owner.client(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, c.Token())
	m, err := c.CreateMemorial(ctx, client.MemorialInput{FullName: "Joanne Smith"})
	require.NoError(t, err)

	visitor := newTestApp(apiURL)
	out = mustRun(t, visitor, "tributes", "post", "-m", m.Slug, "--author", "Ann", "--message", "Goodbye, Joanne")
	tid := strings.TrimSpace(strings.TrimPrefix(out, "posted "))

	out = mustRun(t, visitor, "tributes", "list", "-m", m.Slug)
	assert.Contains(t, out, "Goodbye, Joanne")
	assert.Contains(t, out, "(yours)")

	stranger := newTestApp(apiURL)
	_, err = run(t, stranger, "tributes", "delete", "-m", m.Slug, tid)
	require.Error(t, err)
	assert.Equal(t, "You can only modify tributes you wrote", err.Error())

	mustRun(t, visitor, "tributes", "edit", "-m", m.Slug, tid, "--message", "Rest well")
	out = mustRun(t, visitor, "tributes", "like", "-m", m.Slug, tid)
	assert.Contains(t, out, "liked=true")
	mustRun(t, visitor, "tributes", "delete", "-m", m.Slug, tid)
	out = mustRun(t, visitor, "tributes", "list", "-m", m.Slug)
	assert.Contains(t, out, "No tributes yet.")

	_, err = run(t, visitor, "tributes", "list")
	assert.Error(t, err)
}

func TestSearchDebouncesStdin(t *testing.T) {
	apiURL := newBackend(t)
	ctx := context.Background()
	owner := newTestApp(apiURL)
	mustRun(t, owner, "register", "--email", "o@example.com", "--password", "long password")
	c, err := owner.client(ctx)
	require.NoError(t, err)
	_, err = c.CreateMemorial(ctx, client.MemorialInput{FullName: "Joanne Smith"})
	require.NoError(t, err)

	a := newTestApp(apiURL)
	a.in = strings.NewReader("J\nJo\n")
	out := mustRun(t, a, "search", "--stdin")
	assert.Contains(t, out, `for "Jo"`)
	assert.Contains(t, out, "Joanne Smith")

	out = mustRun(t, a, "search", "nobody")
	assert.Contains(t, out, `No memorials match "nobody".`)
}

type recordingFetcher struct {
	mu    sync.Mutex
	calls []client.SearchParams
}

func (f *recordingFetcher) SearchPublic(_ context.Context, p client.SearchParams) (*client.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	return &client.SearchResponse{
		Memorials:  []client.Memorial{{ID: "m1", FullName: "Joanne Smith", Slug: "joanne-smith-abc123"}},
		Pagination: client.Pagination{Total: 40, Limit: p.Limit, Offset: p.Offset, HasMore: true},
	}, nil
}

func TestRunSearch_PageIsOneRequest(t *testing.T) {
	f := &recordingFetcher{}
	s := search.New(f, search.WithDebounce(20*time.Millisecond), search.WithPageSize(12))
	defer s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r, err := runSearch(ctx, s, []string{"J", "Jo"}, "name", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Page)
	assert.Equal(t, "Jo", r.Query)

	// Let a stray debounced fetch surface if one was scheduled.
	time.Sleep(60 * time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.calls, 1)
	assert.Equal(t, 24, f.calls[0].Offset)
	assert.Equal(t, "Jo", f.calls[0].Search)
	assert.Equal(t, "name", f.calls[0].SortBy)
}

func TestRunSearch_FirstPageIsDebounced(t *testing.T) {
	f := &recordingFetcher{}
	s := search.New(f, search.WithDebounce(20*time.Millisecond))
	defer s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r, err := runSearch(ctx, s, []string{"J", "Jo"}, "", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Page)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.calls, 1)
	assert.Equal(t, 0, f.calls[0].Offset)
}

func TestLoginStoresToken(t *testing.T) {
	apiURL := newBackend(t)
	a := newTestApp(apiURL)
	mustRun(t, a, "register", "--email", "ann@example.com", "--password", "long password")
	require.NoError(t, a.kv.RemoveItem(context.Background(), tokenKey))

	_, err := run(t, a, "login", "--email", "ann@example.com", "--password", "wrong password")
	assert.Error(t, err)

	mustRun(t, a, "login", "--email", "ann@example.com", "--password", "long password")
	tok, ok, err := a.kv.GetItem(context.Background(), tokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, tok)
}
