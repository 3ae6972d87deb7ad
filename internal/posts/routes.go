package posts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/delarsify/sanjeevani/internal/session"
)

// postJSON is a post with its rendered body.
type postJSON struct {
	Post
	HTML string `json:"html"`
}

// RegisterRoutes mounts post endpoints under /api/posts on the given router.
// Reads are public; writes need a signed-in member.
func RegisterRoutes(r chi.Router, svc *Service, renderer *Renderer, resolver session.RequestResolver) {
	log := logrus.WithField("component", "posts.routes")
	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", handleList(svc, renderer, log))
		r.Post("/", handleCreate(svc, renderer, resolver, log))
		r.Get("/{id}", handleGet(svc, renderer, log))
		r.Delete("/{id}", handleDelete(svc, resolver))
	})
}

// withHTML attaches the rendered body. A post that fails to render is still
// returned, with empty HTML.
func withHTML(log *logrus.Entry, renderer *Renderer, p Post) postJSON {
	html, err := renderer.Render(p.Body)
	if err != nil {
		log.WithError(err).WithField("post_id", p.ID).Warn("rendering post failed")
		html = ""
	}
	return postJSON{Post: p, HTML: html}
}

func handleList(svc *Service, renderer *Renderer, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := ListFilter{UserID: q.Get("user"), Limit: PageSize}

		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= PageSize {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		out := make([]postJSON, 0, len(list))
		for _, p := range list {
			out = append(out, withHTML(log, renderer, p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGet(svc *Service, renderer *Renderer, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, withHTML(log, renderer, *p))
	}
}

func handleCreate(svc *Service, renderer *Renderer, resolver session.RequestResolver, log *logrus.Entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := resolver.ResolveRequest(r)
		if err != nil || sess == nil {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}

		var body struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		p, err := svc.Create(r.Context(), *sess, body.Body)
		switch {
		case errors.Is(err, ErrEmptyPost), errors.Is(err, ErrPostTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, withHTML(log, renderer, *p))
	}
}

func handleDelete(svc *Service, resolver session.RequestResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := resolver.ResolveRequest(r)
		if err != nil || sess == nil {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}

		err = svc.Delete(r.Context(), *sess, chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
			return
		case errors.Is(err, ErrNotOwner):
			writeError(w, http.StatusForbidden, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
