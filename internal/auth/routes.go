package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/delarsify/sanjeevani/internal/session"
)

// Routes holds the dependencies of the auth HTTP endpoints.
type Routes struct {
	Service *Service
	Jar     *CookieJar
	// Google is nil when Google sign-in is not configured.
	Google      *GoogleProvider
	SignInRoute string
	AfterSignIn string
}

// RegisterRoutes mounts the sign-in, sign-out and session endpoints.
func RegisterRoutes(r chi.Router, rt Routes) {
	if rt.SignInRoute == "" {
		rt.SignInRoute = session.DefaultSignInRoute
	}
	if rt.AfterSignIn == "" {
		rt.AfterSignIn = "/community"
	}
	log := logrus.WithField("component", "auth.http")

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signin", handleEmailSignIn(rt, log))
		r.Get("/google", handleGoogleStart(rt, log))
		r.Get("/google/callback", handleGoogleCallback(rt, log))
		r.Post("/signout", handleSignOut(rt, log))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/session", handleSession(rt))
		r.Post("/refresh", handleRefresh(rt))
		r.Patch("/profile", handleProfile(rt))
	})
}

func handleEmailSignIn(rt Routes, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, rt.SignInRoute, "invalid form")
			return
		}

		sess, err := rt.Service.SignInWithEmail(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("name"))
		switch {
		case errors.Is(err, ErrEmailSignInDisabled):
			redirectWithError(w, r, rt.SignInRoute, "Email sign-in is disabled")
			return
		case errors.Is(err, ErrInvalidEmail):
			redirectWithError(w, r, rt.SignInRoute, "Please enter a valid email address")
			return
		case err != nil:
			log.WithError(err).Error("email sign-in failed")
			redirectWithError(w, r, rt.SignInRoute, "Sign-in failed, please try again")
			return
		}

		if err := rt.Jar.SetToken(w, r, sess.Token); err != nil {
			log.WithError(err).Error("setting session cookie failed")
			redirectWithError(w, r, rt.SignInRoute, "Sign-in failed, please try again")
			return
		}
		http.Redirect(w, r, rt.AfterSignIn, http.StatusSeeOther)
	}
}

func handleGoogleStart(rt Routes, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.Google == nil {
			http.NotFound(w, r)
			return
		}
		state, err := rt.Jar.NewState(w, r)
		if err != nil {
			log.WithError(err).Error("creating oauth state failed")
			redirectWithError(w, r, rt.SignInRoute, "Google sign-in is unavailable")
			return
		}
		http.Redirect(w, r, rt.Google.AuthCodeURL(state), http.StatusFound)
	}
}

func handleGoogleCallback(rt Routes, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.Google == nil {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		want := rt.Jar.PopState(w, r)
		if want == "" || q.Get("state") != want {
			redirectWithError(w, r, rt.SignInRoute, "Sign-in expired, please try again")
			return
		}
		if msg := q.Get("error"); msg != "" {
			redirectWithError(w, r, rt.SignInRoute, "Google sign-in was cancelled")
			return
		}

		profile, err := rt.Google.Exchange(r.Context(), q.Get("code"))
		if err != nil {
			log.WithError(err).Warn("google exchange failed")
			redirectWithError(w, r, rt.SignInRoute, "Google sign-in failed")
			return
		}
		sess, err := rt.Service.SignInWithGoogle(r.Context(), *profile)
		if err != nil {
			log.WithError(err).Warn("google sign-in rejected")
			redirectWithError(w, r, rt.SignInRoute, "Google sign-in failed")
			return
		}
		if err := rt.Jar.SetToken(w, r, sess.Token); err != nil {
			log.WithError(err).Error("setting session cookie failed")
			redirectWithError(w, r, rt.SignInRoute, "Sign-in failed, please try again")
			return
		}
		http.Redirect(w, r, rt.AfterSignIn, http.StatusSeeOther)
	}
}

// handleSignOut serves the form fallback used when scripts are disabled.
func handleSignOut(rt Routes, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := rt.Jar.Token(r)
		if err := rt.Service.SignOut(r.Context(), token); err != nil && !errors.Is(err, ErrInvalidToken) {
			log.WithError(err).Error("sign-out failed")
			redirectWithError(w, r, rt.AfterSignIn, "We could not sign you out. Please try again.")
			return
		}
		if err := rt.Jar.Clear(w, r); err != nil {
			log.WithError(err).Warn("clearing session cookie failed")
		}
		http.Redirect(w, r, rt.SignInRoute, http.StatusSeeOther)
	}
}

func handleSession(rt Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := rt.Service.CurrentSession(r.Context(), rt.Jar.Token(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if sess == nil {
			writeError(w, http.StatusUnauthorized, session.ErrNoSession.Error())
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleRefresh(rt Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := rt.Service.Refresh(r.Context(), rt.Jar.Token(r))
		if errors.Is(err, ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleProfile(rt Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			DisplayName string `json:"display_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		sess, err := rt.Service.UpdateProfile(r.Context(), rt.Jar.Token(r), body.DisplayName)
		if errors.Is(err, ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, route, msg string) {
	http.Redirect(w, r, route+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
