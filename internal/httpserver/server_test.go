package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/MrSnakeDoc/rant/internal/config"
	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/engagement"
	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/mw"
	"github.com/MrSnakeDoc/rant/internal/identity"
	"github.com/MrSnakeDoc/rant/internal/index"
	"github.com/MrSnakeDoc/rant/internal/kv"
	"github.com/MrSnakeDoc/rant/internal/logger"
	"github.com/MrSnakeDoc/rant/internal/store/sqlite"
)

type harness struct {
	srv   *httptest.Server
	store *sqlite.Store
	idx   *index.MemoryIndex
	kv    *kv.Memory
}

func newHarness(t *testing.T, seed ...*domain.Rant) *harness {
	t.Helper()

	store, err := sqlite.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	_, err = store.UpsertRants(ctx, seed)
	require.NoError(t, err)

	idx := index.NewMemoryIndex()
	all, err := store.ListRants(ctx, domain.FeedFilter{})
	require.NoError(t, err)
	idx.UpdateRants(all)

	log := logger.Nop()
	mem := kv.NewMemory()
	ids := identity.NewProvider(mem, log)

	d := deps.Deps{
		Logger:             log,
		StartTime:          time.Now(),
		Version:            "test",
		RateLimitPerMinute: 600,
		RateLimitBurst:     100,
		RequestTimeout:     2 * time.Second,
		RantStore:          store,
		MemoryIndex:        idx,
		Searcher:           domain.NewSearcher(domain.DefaultVocabulary(), 0.4),
		Identities:         ids,
		Bookmarks:          engagement.NewBookmarks(mem, log),
		Likes:              engagement.NewLikes(store, ids, log, engagement.LikesOptions{}),
		ReloadTrigger:      make(chan struct{}, 1),
	}

	s := New(&config.Config{ListenPort: ":0"}, log, d)
	srv := httptest.NewServer(s.http.Handler)
	t.Cleanup(srv.Close)

	return &harness{srv: srv, store: store, idx: idx, kv: mem}
}

func (h *harness) do(t *testing.T, method, path, profile, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(t, err)
	if profile != "" {
		req.Header.Set(mw.ProfileHeader, profile)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func seedRants() []*domain.Rant {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return []*domain.Rant{
		{ID: "r1", Content: "my landlord raised the rent again", Alias: "Anonymous #AAA", Mood: "Angry", CreatedAt: base},
		{ID: "r2", Content: "the bus was late for the third time", Alias: "Anonymous #BBB", Mood: "Angry", CreatedAt: base.Add(time.Minute)},
		{ID: "r3", Content: "I miss my grandmother", Alias: "Anonymous #CCC", Mood: "Sad", CreatedAt: base.Add(2 * time.Minute)},
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestReadyz(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/readyz", "", "").StatusCode)

	require.NoError(t, h.store.Close())
	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, "/readyz", "", "").StatusCode)
}

func TestAPIRequiresProfile(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/identity", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/api/identity", "bad profile!", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIdentityLifecycle(t *testing.T) {
	h := newHarness(t)

	first := decode[map[string]string](t, h.do(t, http.MethodGet, "/api/identity", "device-1", ""))
	require.NotEmpty(t, first["identity"])
	assert.Equal(t, identity.DisplayName(first["identity"]), first["display_name"])

	again := decode[map[string]string](t, h.do(t, http.MethodGet, "/api/identity", "device-1", ""))
	assert.Equal(t, first["identity"], again["identity"])

	other := decode[map[string]string](t, h.do(t, http.MethodGet, "/api/identity", "device-2", ""))
	assert.NotEqual(t, first["identity"], other["identity"])

	resp := h.do(t, http.MethodDelete, "/api/identity", "device-1", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	fresh := decode[map[string]string](t, h.do(t, http.MethodGet, "/api/identity", "device-1", ""))
	assert.NotEqual(t, first["identity"], fresh["identity"])
}

func TestSearch(t *testing.T) {
	h := newHarness(t, seedRants()...)

	type result struct {
		Matches []domain.Match `json:"matches"`
		Total   int            `json:"total"`
	}

	res := decode[result](t, h.do(t, http.MethodGet, "/api/search?q=landlord", "p1", ""))
	require.NotEmpty(t, res.Matches)
	assert.Equal(t, "r1", res.Matches[0].Rant.ID)

	res = decode[result](t, h.do(t, http.MethodGet, "/api/search?q=grandmother+mood:sad", "p1", ""))
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "r3", res.Matches[0].Rant.ID)

	res = decode[result](t, h.do(t, http.MethodGet, "/api/search?q=grandmother+mood:angry", "p1", ""))
	assert.Empty(t, res.Matches)

	res = decode[result](t, h.do(t, http.MethodGet, "/api/search?q=", "p1", ""))
	assert.Empty(t, res.Matches)
	assert.Zero(t, res.Total)
}

func TestListRants(t *testing.T) {
	h := newHarness(t, seedRants()...)

	type feed struct {
		Rants []*domain.Rant `json:"rants"`
	}

	all := decode[feed](t, h.do(t, http.MethodGet, "/api/rants", "p1", ""))
	require.Len(t, all.Rants, 3)
	assert.Equal(t, "r3", all.Rants[0].ID, "newest first")

	angry := decode[feed](t, h.do(t, http.MethodGet, "/api/rants?mood=angry&limit=1", "p1", ""))
	require.Len(t, angry.Rants, 1)
	assert.Equal(t, "r2", angry.Rants[0].ID)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/rants?mood=grumpy", "p1", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/rants?sort=old", "p1", "").StatusCode)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/rants?limit=0", "p1", "").StatusCode)
}

func TestCreateAndGetRant(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodPost, "/api/rants", "p1", `{"content":"  printers never work  ","mood":"angry"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[domain.Rant](t, resp)
	assert.Equal(t, "printers never work", created.Content)
	assert.Equal(t, "Angry", created.Mood)

	me := decode[map[string]string](t, h.do(t, http.MethodGet, "/api/identity", "p1", ""))
	assert.Equal(t, me["display_name"], created.Alias)

	_, ok := h.idx.GetRant(created.ID)
	assert.True(t, ok, "new rant is indexed")

	got := decode[map[string]any](t, h.do(t, http.MethodGet, "/api/rants/"+created.ID, "p1", ""))
	assert.Equal(t, created.ID, got["id"])
	assert.Equal(t, false, got["liked"])
	assert.Equal(t, false, got["bookmarked"])

	// Untagged without classifier.
	plain := decode[domain.Rant](t, h.do(t, http.MethodPost, "/api/rants", "p1", `{"content":"meh"}`))
	assert.Empty(t, plain.Mood)
}

func TestCreateRantValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty content", `{"content":"   "}`},
		{"too long", `{"content":"` + strings.Repeat("x", 2001) + `"}`},
		{"unknown mood", `{"content":"hi","mood":"grumpy"}`},
		{"unknown field", `{"content":"hi","author":"me"}`},
		{"not json", `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(t, http.MethodPost, "/api/rants", "p1", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetRantNotFound(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/api/rants/nope", "p1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRelated(t *testing.T) {
	h := newHarness(t, seedRants()...)

	type feed struct {
		Rants []*domain.Rant `json:"rants"`
	}
	rel := decode[feed](t, h.do(t, http.MethodGet, "/api/rants/r1/related", "p1", ""))
	require.Len(t, rel.Rants, 1)
	assert.Equal(t, "r2", rel.Rants[0].ID)

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/rants/zz/related", "p1", "").StatusCode)
}

func TestLikeToggle(t *testing.T) {
	h := newHarness(t, seedRants()...)

	status := decode[map[string]any](t, h.do(t, http.MethodGet, "/api/rants/r1/like", "p1", ""))
	assert.Equal(t, false, status["liked"])

	toggled := decode[map[string]any](t, h.do(t, http.MethodPost, "/api/rants/r1/like", "p1", ""))
	assert.Equal(t, true, toggled["liked"])

	status = decode[map[string]any](t, h.do(t, http.MethodGet, "/api/rants/r1/like", "p1", ""))
	assert.Equal(t, true, status["liked"])

	// Another profile has its own identity.
	other := decode[map[string]any](t, h.do(t, http.MethodGet, "/api/rants/r1/like", "p2", ""))
	assert.Equal(t, false, other["liked"])

	n, err := h.store.CountLikeRecords(context.Background(), "r1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	toggled = decode[map[string]any](t, h.do(t, http.MethodPost, "/api/rants/r1/like", "p1", ""))
	assert.Equal(t, false, toggled["liked"])
}

func TestLikeToggleRemoteFailure(t *testing.T) {
	h := newHarness(t, seedRants()...)
	require.NoError(t, h.store.Close())

	resp := h.do(t, http.MethodPost, "/api/rants/r1/like", "p1", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestLikeToggleUnknownRant(t *testing.T) {
	h := newHarness(t, seedRants()...)

	resp := h.do(t, http.MethodPost, "/api/rants/no-such-rant/like", "p1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	n, err := h.store.CountLikeRecords(context.Background(), "no-such-rant")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIncrementLikes(t *testing.T) {
	h := newHarness(t, seedRants()...)

	for want := int64(1); want <= 3; want++ {
		body := decode[map[string]any](t, h.do(t, http.MethodPost, "/api/rants/r2/likes", "p1", ""))
		assert.EqualValues(t, want, body["likes"])
	}

	r, ok := h.idx.GetRant("r2")
	require.True(t, ok)
	assert.EqualValues(t, 3, r.Likes)

	resp := h.do(t, http.MethodPost, "/api/rants/missing/likes", "p1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBookmarks(t *testing.T) {
	h := newHarness(t, seedRants()...)

	status := decode[map[string]any](t, h.do(t, http.MethodGet, "/api/rants/r3/bookmark", "p1", ""))
	assert.Equal(t, false, status["bookmarked"])

	toggled := decode[map[string]any](t, h.do(t, http.MethodPost, "/api/rants/r3/bookmark", "p1", ""))
	assert.Equal(t, true, toggled["bookmarked"])
	decode[map[string]any](t, h.do(t, http.MethodPost, "/api/rants/r1/bookmark", "p1", ""))

	type list struct {
		IDs   []string       `json:"ids"`
		Rants []*domain.Rant `json:"rants"`
	}
	got := decode[list](t, h.do(t, http.MethodGet, "/api/bookmarks", "p1", ""))
	assert.Equal(t, []string{"r3", "r1"}, got.IDs)
	assert.Len(t, got.Rants, 2)

	empty := decode[list](t, h.do(t, http.MethodGet, "/api/bookmarks", "p2", ""))
	assert.Empty(t, empty.IDs)
}

func TestHideRant(t *testing.T) {
	h := newHarness(t, seedRants()...)

	resp := h.do(t, http.MethodPost, "/api/admin/rants/r1/hide", "", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, ok := h.idx.GetRant("r1")
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/rants/r1", "p1", "").StatusCode)

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPost, "/api/admin/rants/nope/hide", "", "").StatusCode)
}

func TestReload(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodPost, "/reload", "", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Trigger buffer is full until the scheduler drains it.
	resp = h.do(t, http.MethodPost, "/reload", "", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestLikeStream(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHarness(t, seedRants()...)

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/api/rants/r1/like/stream"
	header := http.Header{}
	header.Set(mw.ProfileHeader, "p1")

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer resp.Body.Close()

	type event struct {
		RantID string `json:"rant_id"`
		Liked  bool   `json:"liked"`
		Loaded bool   `json:"loaded"`
	}

	var ev event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, event{RantID: "r1", Liked: false, Loaded: true}, ev)

	toggle := h.do(t, http.MethodPost, "/api/rants/r1/like", "p1", "")
	require.Equal(t, http.StatusOK, toggle.StatusCode)
	_ = toggle.Body.Close()

	require.NoError(t, conn.ReadJSON(&ev))
	assert.True(t, ev.Liked)

	require.NoError(t, conn.Close())
	h.srv.Close()
	require.NoError(t, h.store.Close())
}

func TestStreamRequiresProfile(t *testing.T) {
	h := newHarness(t)

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/api/rants/r1/like/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInfra(t *testing.T) {
	h := newHarness(t, seedRants()...)

	type component struct {
		OK     bool     `json:"ok"`
		Loaded *int     `json:"loaded"`
		Mode   string   `json:"mode"`
		Moods  []string `json:"moods"`
	}
	type infra struct {
		Mode       string               `json:"mode"`
		Components map[string]component `json:"components"`
	}

	got := decode[infra](t, h.do(t, http.MethodGet, "/infra", "", ""))
	assert.Equal(t, "operational", got.Mode)

	corpus := got.Components["corpus"]
	require.NotNil(t, corpus.Loaded)
	assert.Equal(t, 3, *corpus.Loaded)
	assert.Equal(t, "memory", got.Components["profile"].Mode)
	assert.Equal(t, "disabled", got.Components["moodtag"].Mode)
	assert.Equal(t, domain.DefaultVocabulary().Moods(), got.Components["search"].Moods)

	require.NoError(t, h.store.Close())
	got = decode[infra](t, h.do(t, http.MethodGet, "/infra", "", ""))
	assert.Equal(t, "critical", got.Mode)
}
