package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/delarsify/sanjeevani/internal/session"
)

// RegisterRoutes mounts audit endpoints under /api/audit on the given router.
// Callers only ever see their own entries.
func RegisterRoutes(r chi.Router, store *Store, resolver session.RequestResolver) {
	r.Route("/api/audit", func(r chi.Router) {
		r.Get("/", handleList(store, resolver))
	})
}

func handleList(store *Store, resolver session.RequestResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := resolver.ResolveRequest(r)
		if err != nil || sess == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not signed in"})
			return
		}

		q := r.URL.Query()
		filter := QueryFilter{ActorID: sess.UserID}

		if v := q.Get("action"); v != "" {
			filter.Action = Action(v)
		}
		if v := q.Get("since"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Since = &t
			}
		}
		if v := q.Get("until"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Until = &t
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		entries, err := store.List(r.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if entries == nil {
			entries = []Entry{}
		}

		writeJSON(w, http.StatusOK, entries)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
