package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	cookieName     = "sanjeevani_session"
	stateCookie    = "sanjeevani_oauth"
	tokenKey       = "token"
	stateKey       = "state"
	oauthStateLife = 10 * time.Minute
)

// CookieJar keeps the session token in a signed cookie.
type CookieJar struct {
	store *sessions.CookieStore
}

// NewCookieJar creates a CookieJar signing cookies with secret. Cookies live
// as long as a session does.
func NewCookieJar(secret []byte, secure bool, ttl time.Duration) *CookieJar {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieJar{store: store}
}

// Token returns the session token carried by r, or "" if there is none.
func (j *CookieJar) Token(r *http.Request) string {
	sess, err := j.store.Get(r, cookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenKey].(string)
	return token
}

// SetToken stores token in the response cookie.
func (j *CookieJar) SetToken(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := j.store.Get(r, cookieName)
	sess.Values[tokenKey] = token
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("saving session cookie: %w", err)
	}
	return nil
}

// Clear expires the session cookie.
func (j *CookieJar) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := j.store.Get(r, cookieName)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("clearing session cookie: %w", err)
	}
	return nil
}

// NewState generates an OAuth state value and stores it in a short-lived
// cookie.
func (j *CookieJar) NewState(w http.ResponseWriter, r *http.Request) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	sess, _ := j.store.Get(r, stateCookie)
	sess.Values[stateKey] = state
	sess.Options.MaxAge = int(oauthStateLife.Seconds())
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("saving oauth state: %w", err)
	}
	return state, nil
}

// PopState returns the stored OAuth state and clears it.
func (j *CookieJar) PopState(w http.ResponseWriter, r *http.Request) string {
	sess, err := j.store.Get(r, stateCookie)
	if err != nil {
		return ""
	}
	state, _ := sess.Values[stateKey].(string)
	delete(sess.Values, stateKey)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
	return state
}
