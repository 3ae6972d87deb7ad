package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/delarsify/sanjeevani/internal/session"
)

// RegisterRoutes mounts notification endpoints under /api/notifications on
// the given router. Every endpoint is scoped to the signed-in user.
func RegisterRoutes(r chi.Router, store *Store, resolver session.RequestResolver) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/", handleList(store, resolver))
		r.Get("/pending", handlePending(store, resolver))
		r.Post("/{id}/deliver", handleMarkDelivered(store, resolver))
	})
}

func currentUser(w http.ResponseWriter, r *http.Request, resolver session.RequestResolver) (string, bool) {
	sess, err := resolver.ResolveRequest(r)
	if err != nil || sess == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not signed in"})
		return "", false
	}
	return sess.UserID, true
}

func handleList(store *Store, resolver session.RequestResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, resolver)
		if !ok {
			return
		}
		q := r.URL.Query()

		filter := ListFilter{UserID: userID}

		if v := q.Get("severity"); v != "" {
			filter.Severity = session.Severity(v)
		}
		if v := q.Get("delivered"); v != "" {
			b, err := strconv.ParseBool(v)
			if err == nil {
				filter.Delivered = &b
			}
		}
		if v := q.Get("since"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Since = t
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

		toasts, err := store.List(r.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if toasts == nil {
			toasts = []Toast{}
		}

		writeJSON(w, http.StatusOK, toasts)
	}
}

func handleMarkDelivered(store *Store, resolver session.RequestResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, resolver)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")

		if err := store.MarkDelivered(r.Context(), id, userID); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrNotFound) {
				status = http.StatusNotFound
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "delivered"})
	}
}

func handlePending(store *Store, resolver session.RequestResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r, resolver)
		if !ok {
			return
		}
		toasts, err := store.Pending(r.Context(), userID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if toasts == nil {
			toasts = []Toast{}
		}

		writeJSON(w, http.StatusOK, toasts)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
