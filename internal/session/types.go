package session

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("no active session")

// ErrClosed is returned by Mount once the gate has been torn down.
var ErrClosed = errors.New("session gate closed")

// Session is the identity issued by the auth backend for a signed-in user.
// It is replaced wholesale on every change notification and handed to
// descendants by value.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Token       string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Name returns the display name, falling back to the email address.
func (s Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Email
}

// EventKind names a session change reported by the auth backend.
type EventKind string

const (
	EventInitialSession EventKind = "INITIAL_SESSION"
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// Event is a single session change notification. Session is nil when the
// session no longer exists.
type Event struct {
	Kind    EventKind
	Session *Session
}

// Subscription is a live registration for session change notifications.
type Subscription interface {
	Cancel()
}

// AuthClient is the auth backend as seen by one mounted view.
type AuthClient interface {
	// CurrentSession returns the current session, or nil if there is none.
	CurrentSession(ctx context.Context) (*Session, error)
	// SubscribeSessionChanges registers handler for change notifications.
	// Notifications are delivered in the order the backend issues them.
	SubscribeSessionChanges(handler func(Event)) Subscription
	// SignOut ends the session. The resulting SIGNED_OUT notification is
	// delivered through active subscriptions.
	SignOut(ctx context.Context) error
}

// Navigator moves the user to another route.
type Navigator interface {
	Redirect(route string)
}

// Severity classifies a toast.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Toast is a transient, user-visible message.
type Toast struct {
	UserID string
	// Key limits live delivery to the view registered under it. An empty key
	// reaches every live view of the user.
	Key      string
	Severity Severity
	Title    string
	Message  string
}

// Notifier shows toasts to the user. Notify may block while the toast is
// written to live views; each write is bounded by the view's own deadline.
type Notifier interface {
	Notify(ctx context.Context, t Toast)
}

// RequestResolver resolves the session carried by an HTTP request.
type RequestResolver interface {
	ResolveRequest(r *http.Request) (*Session, error)
}
