package auth

import (
	"net/http"

	"github.com/delarsify/sanjeevani/internal/session"
)

// Resolver resolves the session carried by a request's cookie.
type Resolver struct {
	svc *Service
	jar *CookieJar
}

// NewResolver creates a Resolver.
func NewResolver(svc *Service, jar *CookieJar) *Resolver {
	return &Resolver{svc: svc, jar: jar}
}

// ResolveRequest returns the live session for r, or session.ErrNoSession.
func (res *Resolver) ResolveRequest(r *http.Request) (*session.Session, error) {
	token := res.jar.Token(r)
	if token == "" {
		return nil, session.ErrNoSession
	}
	sess, err := res.svc.CurrentSession(r.Context(), token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, session.ErrNoSession
	}
	return sess, nil
}

// Client returns an AuthClient bound to the token carried by r. The token may
// be empty, in which case the client reports no session.
func (res *Resolver) Client(r *http.Request) session.AuthClient {
	return res.svc.Client(res.jar.Token(r))
}
