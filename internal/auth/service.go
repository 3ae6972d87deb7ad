package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/delarsify/sanjeevani/internal/audit"
	"github.com/delarsify/sanjeevani/internal/session"
)

var (
	// ErrInvalidToken is returned when a token does not name a live session.
	ErrInvalidToken = errors.New("invalid or expired session token")
	// ErrEmailSignInDisabled is returned when passwordless email sign-in is off.
	ErrEmailSignInDisabled = errors.New("email sign-in is disabled")
	// ErrInvalidEmail is returned for malformed email addresses.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrUnverifiedEmail is returned when an identity provider has not
	// verified the user's email.
	ErrUnverifiedEmail = errors.New("email address not verified")
)

// DefaultSessionTTL is used when Config.SessionTTL is zero.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Config configures a Service.
type Config struct {
	SessionTTL  time.Duration
	EmailSignIn bool
}

// Service issues, resolves and ends sessions and publishes every change to
// the subscribers of the affected session.
type Service struct {
	store  *Store
	broker *Broker
	audit  *audit.Store
	cfg    Config
	log    *logrus.Entry
	now    func() time.Time
}

// NewService creates a Service. auditStore may be nil.
func NewService(store *Store, broker *Broker, auditStore *audit.Store, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	return &Service{
		store:  store,
		broker: broker,
		audit:  auditStore,
		cfg:    cfg,
		log:    logrus.WithField("component", "auth"),
		now:    time.Now,
	}
}

// EmailSignInEnabled reports whether passwordless email sign-in is allowed.
func (s *Service) EmailSignInEnabled() bool { return s.cfg.EmailSignIn }

// SignInWithEmail signs in (registering if needed) the user with the given
// email address. It is a passwordless flow meant for development and demos.
func (s *Service) SignInWithEmail(ctx context.Context, email, name string) (*session.Session, error) {
	if !s.cfg.EmailSignIn {
		return nil, ErrEmailSignInDisabled
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}

	user, err := s.store.UpsertUser(ctx, addr.Address, strings.TrimSpace(name), ProviderEmail)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, "Signed in with email")
}

// SignInWithGoogle signs in the user described by a verified Google profile.
func (s *Service) SignInWithGoogle(ctx context.Context, profile GoogleProfile) (*session.Session, error) {
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: google profile has no email", ErrInvalidEmail)
	}
	if !profile.EmailVerified {
		return nil, ErrUnverifiedEmail
	}

	user, err := s.store.UpsertUser(ctx, profile.Email, profile.Name, ProviderGoogle)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, "Signed in with Google")
}

func (s *Service) issue(ctx context.Context, user *User, summary string) (*session.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(s.cfg.SessionTTL).Truncate(time.Second)
	if err := s.store.CreateSession(ctx, hashToken(token), user.ID, expires); err != nil {
		return nil, err
	}

	s.record(ctx, user.ID, audit.ActionSignedIn, summary, user.Email)
	s.log.WithField("user_id", user.ID).Info("user signed in")

	return &session.Session{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Token:       token,
		ExpiresAt:   expires,
	}, nil
}

// CurrentSession returns the live session for token, or nil if there is none.
func (s *Service) CurrentSession(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, nil
	}
	rec, err := s.store.LookupSession(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}
	if rec == nil || !rec.ExpiresAt.After(s.now()) {
		return nil, nil
	}
	return rec.session(token), nil
}

// Refresh extends a live session and publishes TOKEN_REFRESHED.
func (s *Service) Refresh(ctx context.Context, token string) (*session.Session, error) {
	sess, err := s.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrInvalidToken
	}

	expires := s.now().Add(s.cfg.SessionTTL).Truncate(time.Second)
	if err := s.store.ExtendSession(ctx, hashToken(token), expires); err != nil {
		return nil, err
	}
	sess.ExpiresAt = expires

	s.publish(hashToken(token), session.EventTokenRefreshed, sess)
	return sess, nil
}

// UpdateProfile changes the display name of the session's user and publishes
// USER_UPDATED to every session that user holds.
func (s *Service) UpdateProfile(ctx context.Context, token, displayName string) (*session.Session, error) {
	sess, err := s.CurrentSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrInvalidToken
	}

	displayName = strings.TrimSpace(displayName)
	if err := s.store.UpdateDisplayName(ctx, sess.UserID, displayName); err != nil {
		return nil, err
	}
	sess.DisplayName = displayName

	hashes, err := s.store.SessionHashesForUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	for _, h := range hashes {
		rec, err := s.store.LookupSession(ctx, h)
		if err != nil || rec == nil {
			continue
		}
		s.publish(h, session.EventUserUpdated, rec.session(""))
	}
	return sess, nil
}

// SignOut ends the session for token and publishes SIGNED_OUT.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	hash := hashToken(token)
	rec, err := s.store.LookupSession(ctx, hash)
	if err != nil {
		return err
	}
	existed, err := s.store.DeleteSession(ctx, hash)
	if err != nil {
		return err
	}
	if !existed || rec == nil {
		return ErrInvalidToken
	}

	s.record(ctx, rec.UserID, audit.ActionSignedOut, "Signed out", rec.Email)
	s.log.WithField("user_id", rec.UserID).Info("user signed out")
	s.publish(hash, session.EventSignedOut, nil)
	return nil
}

// SweepExpired deletes every expired session and publishes SIGNED_OUT to its
// subscribers. It returns the number of sessions removed.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.store.ExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, err
	}

	n := 0
	for _, rec := range expired {
		existed, err := s.store.DeleteSession(ctx, rec.TokenHash)
		if err != nil {
			return n, err
		}
		if !existed {
			continue
		}
		n++
		s.record(ctx, rec.UserID, audit.ActionSessionExpired, "Session expired", rec.Email)
		s.publish(rec.TokenHash, session.EventSignedOut, nil)
	}
	if n > 0 {
		s.log.WithField("count", n).Info("expired sessions removed")
	}
	return n, nil
}

// Subscribe registers handler for changes to the session identified by token.
func (s *Service) Subscribe(token string, handler func(session.Event)) session.Subscription {
	return s.broker.Subscribe(hashToken(token), handler)
}

// Client returns the AuthClient a view uses for the session named by token.
func (s *Service) Client(token string) session.AuthClient {
	return &client{svc: s, token: token}
}

func (s *Service) publish(hash string, kind session.EventKind, sess *session.Session) {
	s.broker.Publish(hash, session.Event{Kind: kind, Session: sess})
}

func (s *Service) record(ctx context.Context, actorID string, action audit.Action, summary, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, audit.Entry{
		ActorID: actorID,
		Action:  action,
		Summary: summary,
		Detail:  detail,
	}); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("writing audit entry failed")
	}
}

func (r *SessionRecord) session(token string) *session.Session {
	return &session.Session{
		UserID:      r.UserID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Token:       token,
		ExpiresAt:   r.ExpiresAt,
	}
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
