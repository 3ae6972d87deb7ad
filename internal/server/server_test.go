package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestHealthCheck(t *testing.T) {
	srv := New(Config{Port: 0})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := New(Config{Port: 0, AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestRequestLogging(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	srv := New(Config{Port: 0})
	srv.Router().Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	srv.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))
	srv.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))

	var got []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Data["component"] == "server" && e.Data["path"] != nil {
			got = append(got, e)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 request log lines, got %d", len(got))
	}
	if got[0].Data["status"] != http.StatusOK || got[0].Level != logrus.InfoLevel {
		t.Errorf("healthz entry = %v at %s", got[0].Data, got[0].Level)
	}
	if got[1].Data["status"] != http.StatusInternalServerError || got[1].Level != logrus.WarnLevel {
		t.Errorf("boom entry = %v at %s", got[1].Data, got[1].Level)
	}
	if got[0].Data["request_id"] == "" {
		t.Error("expected a request id")
	}
}
