package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultSignInRoute is where unauthenticated users are sent.
const DefaultSignInRoute = "/signin"

// State is the lifecycle state of a Gate.
type State int

const (
	StateResolving State = iota
	StateAuthenticated
	StateRedirected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateRedirected:
		return "redirected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Gate.
type Option func(*Gate)

// WithSignInRoute overrides the route unauthenticated users are sent to.
func WithSignInRoute(route string) Option {
	return func(g *Gate) {
		if route != "" {
			g.signIn = route
		}
	}
}

// WithLogger sets the logger used by the gate.
func WithLogger(log *logrus.Entry) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// WithListener registers fn to be called after every state change. fn runs
// outside the gate's lock and receives a copy of the current session, or nil.
func WithListener(fn func(State, *Session)) Option {
	return func(g *Gate) { g.listener = fn }
}

// WithToastKey scopes the gate's toasts to the view registered under key.
func WithToastKey(key string) Option {
	return func(g *Gate) { g.toastKey = key }
}

// Gate holds a view's authenticated session. It resolves the session once on
// Mount, follows change notifications until Close, and redirects to the
// sign-in route whenever the session is absent.
type Gate struct {
	auth     AuthClient
	nav      Navigator
	notifier Notifier
	signIn   string
	log      *logrus.Entry
	listener func(State, *Session)
	toastKey string

	mu      sync.Mutex
	state   State
	current *Session
	// seq counts delivered notifications. Any notification supersedes the
	// result of the initial request.
	seq     uint64
	mounted bool
	closed  bool
	sub     Subscription

	closeOnce sync.Once
}

// New creates a Gate. notifier may be nil.
func New(auth AuthClient, nav Navigator, notifier Notifier, opts ...Option) *Gate {
	g := &Gate{
		auth:     auth,
		nav:      nav,
		notifier: notifier,
		signIn:   DefaultSignInRoute,
		log:      logrus.WithField("component", "session"),
		state:    StateResolving,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Mount subscribes to session changes and then resolves the current session.
// It blocks until the request settles. A missing session, or a failed
// request, redirects to the sign-in route.
func (g *Gate) Mount(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	if g.mounted {
		g.mu.Unlock()
		return errors.New("session gate already mounted")
	}
	g.mounted = true
	g.mu.Unlock()

	sub := g.auth.SubscribeSessionChanges(g.handle)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		sub.Cancel()
		return ErrClosed
	}
	g.sub = sub
	g.mu.Unlock()

	sess, err := g.auth.CurrentSession(ctx)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	if g.seq > 0 {
		seq := g.seq
		g.mu.Unlock()
		g.log.WithField("seq", seq).Debug("initial session superseded by notification")
		return nil
	}
	if err != nil || sess == nil {
		g.state = StateRedirected
		g.current = nil
		g.mu.Unlock()

		if err != nil {
			g.log.WithError(err).Warn("resolving session failed, redirecting to sign-in")
		} else {
			g.log.Debug("no session, redirecting to sign-in")
		}
		g.nav.Redirect(g.signIn)
		g.emit(StateRedirected, nil)

		if err != nil {
			return fmt.Errorf("resolving session: %w", err)
		}
		return nil
	}

	cp := *sess
	g.current = &cp
	g.state = StateAuthenticated
	g.mu.Unlock()

	g.log.WithField("user_id", cp.UserID).Debug("session resolved")
	g.emit(StateAuthenticated, &cp)
	return nil
}

// handle applies a change notification. It is the only path that updates the
// session after Mount.
func (g *Gate) handle(ev Event) {
	g.mu.Lock()
	if g.closed || g.state == StateRedirected {
		g.mu.Unlock()
		return
	}
	g.seq++

	if ev.Kind == EventSignedOut || ev.Session == nil {
		g.state = StateRedirected
		g.current = nil
		g.mu.Unlock()

		g.log.WithField("event", ev.Kind).Info("session ended, redirecting to sign-in")
		g.nav.Redirect(g.signIn)
		g.emit(StateRedirected, nil)
		return
	}

	cp := *ev.Session
	g.current = &cp
	g.state = StateAuthenticated
	g.mu.Unlock()

	g.log.WithFields(logrus.Fields{
		"event":   ev.Kind,
		"user_id": cp.UserID,
	}).Debug("session updated")
	g.emit(StateAuthenticated, &cp)
}

func (g *Gate) emit(st State, sess *Session) {
	if g.listener == nil {
		return
	}
	var cp *Session
	if sess != nil {
		c := *sess
		cp = &c
	}
	g.listener(st, cp)
}

// State returns the current lifecycle state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Authenticated reports whether authenticated content may be rendered.
func (g *Gate) Authenticated() bool {
	return g.State() == StateAuthenticated
}

// Session returns a copy of the current session.
func (g *Gate) Session() (Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return Session{}, false
	}
	return *g.current, true
}

// SignOut asks the auth backend to end the session and tells the user how it
// went. It does not redirect: the SIGNED_OUT notification does.
func (g *Gate) SignOut(ctx context.Context) error {
	var userID string
	if s, ok := g.Session(); ok {
		userID = s.UserID
	}

	if err := g.auth.SignOut(ctx); err != nil {
		g.log.WithError(err).WithField("user_id", userID).Error("sign-out failed")
		g.notify(ctx, Toast{
			UserID:   userID,
			Severity: SeverityError,
			Title:    "Sign out failed",
			Message:  "We could not sign you out. Please try again.",
		})
		return fmt.Errorf("signing out: %w", err)
	}

	g.notify(ctx, Toast{
		UserID:   userID,
		Severity: SeveritySuccess,
		Title:    "Signed out successfully",
		Message:  "See you soon!",
	})
	return nil
}

func (g *Gate) notify(ctx context.Context, t Toast) {
	t.Key = g.toastKey
	if g.notifier != nil {
		g.notifier.Notify(ctx, t)
	}
}

// Close releases the change subscription. It is safe to call more than once
// and from any exit path.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed = true
		g.state = StateClosed
		g.current = nil
		sub := g.sub
		g.sub = nil
		g.mu.Unlock()

		if sub != nil {
			sub.Cancel()
		}
	})
}
