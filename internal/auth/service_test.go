package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/delarsify/sanjeevani/internal/audit"
	"github.com/delarsify/sanjeevani/internal/db"
	"github.com/delarsify/sanjeevani/internal/session"
)

type testEnv struct {
	db     *db.DB
	store  *Store
	broker *Broker
	audit  *audit.Store
	svc    *Service
	clock  time.Time
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	env := &testEnv{
		db:     database,
		store:  NewStore(database),
		broker: NewBroker(),
		audit:  audit.NewStore(database),
		clock:  time.Now().Truncate(time.Second),
	}
	env.svc = NewService(env.store, env.broker, env.audit, Config{SessionTTL: time.Hour, EmailSignIn: true})
	env.svc.now = func() time.Time { return env.clock }
	return env
}

func (e *testEnv) advance(d time.Duration) { e.clock = e.clock.Add(d) }

type eventLog struct {
	mu     sync.Mutex
	events []session.Event
}

func (l *eventLog) handle(ev session.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []session.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []session.EventKind
	for _, ev := range l.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (l *eventLog) last() session.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

func signIn(t *testing.T, env *testEnv, email string) *session.Session {
	t.Helper()
	sess, err := env.svc.SignInWithEmail(context.Background(), email, "")
	if err != nil {
		t.Fatalf("SignInWithEmail: %v", err)
	}
	return sess
}

func TestSignInWithEmailAndCurrentSession(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	sess, err := env.svc.SignInWithEmail(ctx, "Asha <asha@example.com>", "Asha")
	if err != nil {
		t.Fatalf("SignInWithEmail: %v", err)
	}
	if sess.Token == "" || sess.UserID == "" {
		t.Fatalf("incomplete session: %+v", sess)
	}
	if sess.Email != "asha@example.com" {
		t.Errorf("Email = %q, want asha@example.com", sess.Email)
	}
	if !sess.ExpiresAt.Equal(env.clock.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, env.clock.Add(time.Hour))
	}

	got, err := env.svc.CurrentSession(ctx, sess.Token)
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if got == nil || got.UserID != sess.UserID || got.DisplayName != "Asha" {
		t.Errorf("CurrentSession = %+v", got)
	}

	entries, err := env.audit.List(ctx, audit.QueryFilter{ActorID: sess.UserID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != audit.ActionSignedIn {
		t.Errorf("audit entries = %+v", entries)
	}
}

func TestSignInWithEmailDisabled(t *testing.T) {
	env := setupService(t)
	env.svc.cfg.EmailSignIn = false

	_, err := env.svc.SignInWithEmail(context.Background(), "a@example.com", "")
	if !errors.Is(err, ErrEmailSignInDisabled) {
		t.Errorf("err = %v, want ErrEmailSignInDisabled", err)
	}
}

func TestSignInWithInvalidEmail(t *testing.T) {
	env := setupService(t)

	for _, email := range []string{"", "not-an-email", "@"} {
		_, err := env.svc.SignInWithEmail(context.Background(), email, "")
		if !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("email %q: err = %v, want ErrInvalidEmail", email, err)
		}
	}
}

func TestSignInReusesUser(t *testing.T) {
	env := setupService(t)

	a := signIn(t, env, "ravi@example.com")
	b := signIn(t, env, "RAVI@example.com")
	if a.UserID != b.UserID {
		t.Errorf("user ids differ: %q vs %q", a.UserID, b.UserID)
	}
	if a.Token == b.Token {
		t.Error("expected distinct tokens per sign-in")
	}

	n, err := env.store.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 1 {
		t.Errorf("CountUsers = %d, want 1", n)
	}
}

func TestTokenStoredHashed(t *testing.T) {
	env := setupService(t)
	sess := signIn(t, env, "a@example.com")

	var stored string
	if err := env.db.QueryRow(`SELECT token_hash FROM auth_sessions`).Scan(&stored); err != nil {
		t.Fatalf("query: %v", err)
	}
	if stored == sess.Token {
		t.Error("raw token stored in database")
	}
	if stored != hashToken(sess.Token) {
		t.Errorf("stored hash = %q, want %q", stored, hashToken(sess.Token))
	}
}

func TestCurrentSessionUnknownToken(t *testing.T) {
	env := setupService(t)

	for _, token := range []string{"", "bogus"} {
		got, err := env.svc.CurrentSession(context.Background(), token)
		if err != nil {
			t.Fatalf("CurrentSession(%q): %v", token, err)
		}
		if got != nil {
			t.Errorf("CurrentSession(%q) = %+v, want nil", token, got)
		}
	}
}

func TestCurrentSessionExpired(t *testing.T) {
	env := setupService(t)
	sess := signIn(t, env, "a@example.com")

	env.advance(time.Hour)
	got, err := env.svc.CurrentSession(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired session to resolve to nil, got %+v", got)
	}
}

func TestSignOutPublishesSignedOut(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	sess := signIn(t, env, "a@example.com")

	var log eventLog
	sub := env.svc.Subscribe(sess.Token, log.handle)
	defer sub.Cancel()

	if err := env.svc.SignOut(ctx, sess.Token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	kinds := log.kinds()
	if len(kinds) != 1 || kinds[0] != session.EventSignedOut {
		t.Fatalf("events = %v, want [SIGNED_OUT]", kinds)
	}
	if log.last().Session != nil {
		t.Error("SIGNED_OUT must carry no session")
	}

	got, _ := env.svc.CurrentSession(ctx, sess.Token)
	if got != nil {
		t.Error("session still resolvable after sign-out")
	}

	if err := env.svc.SignOut(ctx, sess.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("second SignOut err = %v, want ErrInvalidToken", err)
	}

	entries, _ := env.audit.List(ctx, audit.QueryFilter{Action: audit.ActionSignedOut})
	if len(entries) != 1 || entries[0].ActorID != sess.UserID {
		t.Errorf("signed_out audit entries = %+v", entries)
	}
}

func TestSignOutOnlyNotifiesOwnSession(t *testing.T) {
	env := setupService(t)
	a := signIn(t, env, "a@example.com")
	b := signIn(t, env, "b@example.com")

	var logA, logB eventLog
	env.svc.Subscribe(a.Token, logA.handle)
	env.svc.Subscribe(b.Token, logB.handle)

	if err := env.svc.SignOut(context.Background(), a.Token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if len(logA.kinds()) != 1 {
		t.Errorf("a events = %v", logA.kinds())
	}
	if len(logB.kinds()) != 0 {
		t.Errorf("b received events: %v", logB.kinds())
	}
}

func TestRefreshPublishesTokenRefreshed(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	sess := signIn(t, env, "a@example.com")

	var log eventLog
	env.svc.Subscribe(sess.Token, log.handle)

	env.advance(30 * time.Minute)
	got, err := env.svc.Refresh(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	want := env.clock.Add(time.Hour)
	if !got.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want)
	}

	ev := log.last()
	if ev.Kind != session.EventTokenRefreshed || ev.Session == nil || !ev.Session.ExpiresAt.Equal(want) {
		t.Errorf("event = %+v", ev)
	}

	if _, err := env.svc.Refresh(ctx, "bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh(bogus) err = %v, want ErrInvalidToken", err)
	}
}

func TestUpdateProfileNotifiesEverySession(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	a := signIn(t, env, "a@example.com")
	b := signIn(t, env, "a@example.com")

	var logA, logB eventLog
	env.svc.Subscribe(a.Token, logA.handle)
	env.svc.Subscribe(b.Token, logB.handle)

	got, err := env.svc.UpdateProfile(ctx, a.Token, "  Asha  ")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.DisplayName != "Asha" {
		t.Errorf("DisplayName = %q, want Asha", got.DisplayName)
	}

	for name, l := range map[string]*eventLog{"a": &logA, "b": &logB} {
		ev := l.last()
		if ev.Kind != session.EventUserUpdated || ev.Session == nil || ev.Session.DisplayName != "Asha" {
			t.Errorf("%s event = %+v", name, ev)
		}
	}
}

func TestSweepExpired(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	old := signIn(t, env, "old@example.com")
	env.advance(30 * time.Minute)
	fresh := signIn(t, env, "fresh@example.com")
	env.advance(45 * time.Minute)

	var oldLog, freshLog eventLog
	env.svc.Subscribe(old.Token, oldLog.handle)
	env.svc.Subscribe(fresh.Token, freshLog.handle)

	n, err := env.svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("swept = %d, want 1", n)
	}
	if k := oldLog.kinds(); len(k) != 1 || k[0] != session.EventSignedOut {
		t.Errorf("old events = %v", k)
	}
	if k := freshLog.kinds(); len(k) != 0 {
		t.Errorf("fresh events = %v", k)
	}

	entries, _ := env.audit.List(ctx, audit.QueryFilter{Action: audit.ActionSessionExpired})
	if len(entries) != 1 || entries[0].ActorID != old.UserID {
		t.Errorf("session_expired entries = %+v", entries)
	}

	n, _ = env.svc.SweepExpired(ctx)
	if n != 0 {
		t.Errorf("second sweep = %d, want 0", n)
	}
}

func TestSignInWithGoogle(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.SignInWithGoogle(ctx, GoogleProfile{Email: "g@example.com"})
	if !errors.Is(err, ErrUnverifiedEmail) {
		t.Errorf("err = %v, want ErrUnverifiedEmail", err)
	}

	sess, err := env.svc.SignInWithGoogle(ctx, GoogleProfile{Email: "g@example.com", EmailVerified: true, Name: "Gita"})
	if err != nil {
		t.Fatalf("SignInWithGoogle: %v", err)
	}
	if sess.DisplayName != "Gita" {
		t.Errorf("DisplayName = %q, want Gita", sess.DisplayName)
	}
}

type recordingNav struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNav) Redirect(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNav) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.routes)
}

func TestClientDrivesGate(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	sess := signIn(t, env, "a@example.com")

	nav := &recordingNav{}
	gate := session.New(env.svc.Client(sess.Token), nav, nil)
	if err := gate.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if !gate.Authenticated() {
		t.Fatalf("gate state = %s, want authenticated", gate.State())
	}
	if env.broker.Count(hashToken(sess.Token)) != 1 {
		t.Errorf("expected one subscription")
	}

	if err := gate.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if nav.count() != 1 {
		t.Errorf("redirects = %d, want 1", nav.count())
	}

	gate.Close()
	if env.broker.Count(hashToken(sess.Token)) != 0 {
		t.Errorf("subscription survived Close")
	}
}

func TestClientWithoutSessionRedirects(t *testing.T) {
	env := setupService(t)

	nav := &recordingNav{}
	gate := session.New(env.svc.Client(""), nav, nil)
	if err := gate.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer gate.Close()

	if gate.State() != session.StateRedirected || nav.count() != 1 {
		t.Errorf("state = %s redirects = %d", gate.State(), nav.count())
	}
}
