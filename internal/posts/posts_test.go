package posts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"

	"github.com/delarsify/sanjeevani/internal/audit"
	"github.com/delarsify/sanjeevani/internal/db"
	"github.com/delarsify/sanjeevani/internal/session"
)

var (
	u1 = session.Session{UserID: "u1", Email: "uma@example.com", DisplayName: "Uma"}
	u2 = session.Session{UserID: "u2", Email: "ravi@example.com"}
)

type testEnv struct {
	store *Store
	audit *audit.Store
	feed  *Feed
	svc   *Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	env := &testEnv{
		store: NewStore(database),
		audit: audit.NewStore(database),
		feed:  NewFeed(),
	}
	env.svc = NewService(env.store, env.feed, env.audit)
	return env
}

func TestStoreCreateAndGet(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	p, err := env.store.Create(ctx, Post{UserID: "u1", Author: "Uma", Body: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := env.store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Body)
	assert.Equal(t, "Uma", got.Author)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

	_, err = env.store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListOrderAndPaging(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	for i, body := range []string{"first", "second", "third"} {
		_, err := env.store.Create(ctx, Post{
			UserID:    "u1",
			Body:      body,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := env.store.Create(ctx, Post{UserID: "u2", Body: "other", CreatedAt: base})
	require.NoError(t, err)

	list, err := env.store.List(ctx, ListFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Body)
	assert.Equal(t, "first", list[2].Body)

	page, err := env.store.List(ctx, ListFilter{UserID: "u1", Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "second", page[0].Body)

	page, err = env.store.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)

	n, err := env.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestStoreDeleteOwnership(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	p, err := env.store.Create(ctx, Post{UserID: "u1", Body: "mine"})
	require.NoError(t, err)

	_, err = env.store.Delete(ctx, p.ID, "u2")
	assert.ErrorIs(t, err, ErrNotOwner)

	deleted, err := env.store.Delete(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	_, err = env.store.Delete(ctx, p.ID, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedSubscribeCancel(t *testing.T) {
	f := NewFeed()
	var got []Event
	cancel := f.Subscribe(func(ev Event) { got = append(got, ev) })
	assert.Equal(t, 1, f.Subscribers())

	f.Publish(Event{Kind: EventCreated, Post: Post{ID: "p1"}})
	cancel()
	cancel()
	f.Publish(Event{Kind: EventCreated, Post: Post{ID: "p2"}})

	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].Post.ID)
	assert.Equal(t, 0, f.Subscribers())
}

func TestServiceCreateValidates(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, u1, "   \n ")
	assert.ErrorIs(t, err, ErrEmptyPost)

	_, err = env.svc.Create(ctx, u1, strings.Repeat("a", MaxPostLength+1))
	assert.ErrorIs(t, err, ErrPostTooLong)

	n, err := env.store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestServiceCreateAuditsAndPublishes(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	var events []Event
	env.feed.Subscribe(func(ev Event) { events = append(events, ev) })

	p, err := env.svc.Create(ctx, u2, "  namaste  ")
	require.NoError(t, err)
	assert.Equal(t, "namaste", p.Body)
	assert.Equal(t, "ravi@example.com", p.Author, "author falls back to email")

	require.Len(t, events, 1)
	assert.Equal(t, EventCreated, events[0].Kind)
	assert.Equal(t, p.ID, events[0].Post.ID)

	entries, err := env.audit.List(ctx, audit.QueryFilter{ActorID: "u2"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionPostCreated, entries[0].Action)
	assert.Equal(t, p.ID, entries[0].Detail)
}

func TestServiceDelete(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	p, err := env.svc.Create(ctx, u1, "to remove")
	require.NoError(t, err)

	var events []Event
	env.feed.Subscribe(func(ev Event) { events = append(events, ev) })

	assert.ErrorIs(t, env.svc.Delete(ctx, u2, p.ID), ErrNotOwner)
	assert.Empty(t, events)

	require.NoError(t, env.svc.Delete(ctx, u1, p.ID))
	require.Len(t, events, 1)
	assert.Equal(t, EventDeleted, events[0].Kind)

	entries, err := env.audit.List(ctx, audit.QueryFilter{ActorID: "u1", Action: audit.ActionPostDeleted})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRendererMarkdown(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("**stay** hydrated\n\n- water\n- rest")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>stay</strong>")
	assert.Contains(t, out, "<li>water</li>")
}

func TestRendererDropsRawHTML(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func render(t *testing.T, p *Panel) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, p.Render().Render(&b))
	return b.String()
}

func TestPanelFollowsFeed(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, u2, "older post")
	require.NoError(t, err)

	changes := 0
	panel, err := NewPanel(ctx, u1, env.svc, NewRenderer(), func() { changes++ })
	require.NoError(t, err)
	require.Len(t, panel.Posts(), 1)
	assert.Equal(t, 1, env.feed.Subscribers())

	p, err := env.svc.Create(ctx, u2, "fresh post")
	require.NoError(t, err)
	assert.Equal(t, 1, changes)
	require.Len(t, panel.Posts(), 2)
	assert.Equal(t, p.ID, panel.Posts()[0].ID)

	require.NoError(t, env.svc.Delete(ctx, u2, p.ID))
	assert.Equal(t, 2, changes)
	assert.Len(t, panel.Posts(), 1)
}

func TestPanelCreateAndDeleteAsIdentity(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	panel, err := NewPanel(ctx, u1, env.svc, NewRenderer(), nil)
	require.NoError(t, err)
	assert.Equal(t, u1, panel.Identity())

	p, err := panel.Create(ctx, "hello from Uma")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Uma", p.Author)
	require.Len(t, panel.Posts(), 1)

	html := render(t, panel)
	assert.Contains(t, html, `id="community-panel"`)
	assert.Contains(t, html, `data-event="post_create"`)
	assert.Contains(t, html, `data-event="post_delete"`)
	assert.Contains(t, html, "hello from Uma")

	require.NoError(t, panel.Delete(ctx, p.ID))
	assert.Empty(t, panel.Posts())
	assert.Contains(t, render(t, panel), "No posts yet")
}

func TestPanelHidesDeleteForOthers(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, u2, "not yours")
	require.NoError(t, err)

	panel, err := NewPanel(ctx, u1, env.svc, NewRenderer(), nil)
	require.NoError(t, err)
	html := render(t, panel)
	assert.Contains(t, html, "not yours")
	assert.NotContains(t, html, `data-event="post_delete"`)
}

func TestPanelUnmountStopsFollowing(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	changes := 0
	panel, err := NewPanel(ctx, u1, env.svc, NewRenderer(), func() { changes++ })
	require.NoError(t, err)

	panel.Unmount()
	assert.Zero(t, env.feed.Subscribers())

	_, err = env.svc.Create(ctx, u2, "after unmount")
	require.NoError(t, err)
	assert.Zero(t, changes)
	assert.Empty(t, panel.Posts())
}

// headerResolver treats the X-User header as the signed-in user.
type headerResolver struct{}

func (headerResolver) ResolveRequest(r *http.Request) (*session.Session, error) {
	id := r.Header.Get("X-User")
	if id == "" {
		return nil, session.ErrNoSession
	}
	return &session.Session{UserID: id, DisplayName: id}, nil
}

func setupRouter(t *testing.T) (chi.Router, *testEnv) {
	t.Helper()
	env := setup(t)
	r := chi.NewRouter()
	RegisterRoutes(r, env.svc, NewRenderer(), headerResolver{})
	return r, env
}

func TestHTTPCreateRequiresSession(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"body":"hi"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestHTTPCreateListGet(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"body":"*hello*"}`))
	req.Header.Set("X-User", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	var created postJSON
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Author != "alice" || !strings.Contains(created.HTML, "<em>hello</em>") {
		t.Errorf("created = %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var list []postJSON
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/posts/"+created.ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/posts/missing", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", w.Code)
	}
}

func TestHTTPCreateEmpty(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"body":"  "}`))
	req.Header.Set("X-User", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHTTPDelete(t *testing.T) {
	r, env := setupRouter(t)
	p, err := env.svc.Create(context.Background(), session.Session{UserID: "alice"}, "bye")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cases := []struct {
		user string
		id   string
		want int
	}{
		{"", p.ID, http.StatusUnauthorized},
		{"bob", p.ID, http.StatusForbidden},
		{"alice", "missing", http.StatusNotFound},
		{"alice", p.ID, http.StatusNoContent},
		{"alice", p.ID, http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodDelete, "/api/posts/"+tc.id, nil)
		if tc.user != "" {
			req.Header.Set("X-User", tc.user)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("DELETE as %q %s: status = %d, want %d", tc.user, tc.id, w.Code, tc.want)
		}
	}
}

// brokenMarkdown fails every conversion.
type brokenMarkdown struct {
	goldmark.Markdown
}

func (brokenMarkdown) Convert(source []byte, w io.Writer, opts ...parser.ParseOption) error {
	return errors.New("converter exploded")
}

func TestWithHTMLLogsRenderFailure(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	renderer := &Renderer{md: brokenMarkdown{}}

	out := withHTML(logrus.NewEntry(logger), renderer, Post{ID: "p1", Body: "hello"})

	assert.Equal(t, "p1", out.ID)
	assert.Empty(t, out.HTML)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "p1", hook.LastEntry().Data["post_id"])
}
