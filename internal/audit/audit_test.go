package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/delarsify/sanjeevani/internal/db"
	"github.com/delarsify/sanjeevani/internal/session"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:      "test-1",
		ActorID: "alice",
		Action:  ActionSignedIn,
		Summary: "Signed in with email",
		Detail:  "alice@example.com",
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ActorID != "alice" {
		t.Errorf("ActorID = %q, want %q", got.ActorID, "alice")
	}
	if got.Action != ActionSignedIn {
		t.Errorf("Action = %q, want %q", got.Action, ActionSignedIn)
	}
	if got.Detail != "alice@example.com" {
		t.Errorf("Detail = %q, want %q", got.Detail, "alice@example.com")
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{ActorID: "sweeper", Action: ActionSessionExpired}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.List(ctx, QueryFilter{ActorID: "sweeper"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID, got empty string")
	}
}

func TestListFilterByActor(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, actor := range []string{"alice", "bob", "alice"} {
		if err := store.Log(ctx, Entry{ActorID: actor, Action: ActionPostCreated}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.List(ctx, QueryFilter{ActorID: "alice"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for alice, got %d", len(entries))
	}
}

func TestListFilterByAction(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, a := range []Action{ActionSignedIn, ActionSignedOut, ActionSignedIn} {
		if err := store.Log(ctx, Entry{ActorID: "alice", Action: a}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.List(ctx, QueryFilter{Action: ActionSignedIn})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 signed_in entries, got %d", len(entries))
	}
}

func TestListNewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, a := range []Action{ActionSignedIn, ActionPostCreated, ActionSignedOut} {
		if err := store.Log(ctx, Entry{
			ActorID:   "alice",
			Action:    a,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.List(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 || entries[0].Action != ActionSignedOut || entries[2].Action != ActionSignedIn {
		t.Errorf("unexpected order: %+v", entries)
	}
}

func TestListLimitOffset(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, Entry{ActorID: "alice", Action: ActionPostCreated}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.List(ctx, QueryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with limit, got %d", len(entries))
	}

	entries, err = store.List(ctx, QueryFilter{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with offset, got %d", len(entries))
	}

	entries, err = store.List(ctx, QueryFilter{Offset: 4})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry with offset only, got %d", len(entries))
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, Entry{ActorID: "system", Action: ActionSessionExpired}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	deleted, err := store.DeleteBefore(ctx, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	entries, err := store.List(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 remaining entries, got %d", len(entries))
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- HTTP handler tests ---

// headerResolver treats the X-User header as the signed-in user.
type headerResolver struct{}

func (headerResolver) ResolveRequest(r *http.Request) (*session.Session, error) {
	id := r.Header.Get("X-User")
	if id == "" {
		return nil, session.ErrNoSession
	}
	return &session.Session{UserID: id}, nil
}

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store, headerResolver{})
	return r, store
}

func TestHTTPListOwnEntries(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	for _, actor := range []string{"alice", "bob", "alice"} {
		if err := store.Log(ctx, Entry{ActorID: actor, Action: ActionSignedIn}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	req.Header.Set("X-User", "alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ActorID != "alice" {
			t.Errorf("leaked entry for %q", e.ActorID)
		}
	}
}

func TestHTTPListWithFilter(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()

	for _, a := range []Action{ActionSignedIn, ActionPostCreated, ActionPostCreated} {
		if err := store.Log(ctx, Entry{ActorID: "alice", Action: a}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit?action=post_created&limit=1", nil)
	req.Header.Set("X-User", "alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != ActionPostCreated {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestHTTPListEmpty(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	req.Header.Set("X-User", "carol")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestHTTPListUnauthorized(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
