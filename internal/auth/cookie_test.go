package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestCookieJarToken(t *testing.T) {
	jar := NewCookieJar(testSecret, true, time.Hour)

	rec := httptest.NewRecorder()
	if err := jar.SetToken(rec, httptest.NewRequest(http.MethodGet, "/", nil), "tok-1"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	c := rec.Result().Cookies()[0]
	if !c.HttpOnly || !c.Secure || c.MaxAge != 3600 {
		t.Errorf("cookie attributes = %+v", c)
	}

	if got := jar.Token(roundTrip(rec)); got != "tok-1" {
		t.Errorf("Token = %q, want tok-1", got)
	}
}

func TestCookieJarRejectsForeignSignature(t *testing.T) {
	jar := NewCookieJar(testSecret, false, time.Hour)
	other := NewCookieJar([]byte("ffffffffffffffffffffffffffffffff"), false, time.Hour)

	rec := httptest.NewRecorder()
	if err := other.SetToken(rec, httptest.NewRequest(http.MethodGet, "/", nil), "tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got := jar.Token(roundTrip(rec)); got != "" {
		t.Errorf("Token = %q, want empty for foreign cookie", got)
	}
}

func TestCookieJarClear(t *testing.T) {
	jar := NewCookieJar(testSecret, false, time.Hour)

	rec := httptest.NewRecorder()
	if err := jar.Clear(rec, httptest.NewRequest(http.MethodGet, "/", nil)); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	c := rec.Result().Cookies()[0]
	if c.MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative", c.MaxAge)
	}
}

func TestCookieJarState(t *testing.T) {
	jar := NewCookieJar(testSecret, false, time.Hour)

	rec := httptest.NewRecorder()
	state, err := jar.NewState(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if state == "" {
		t.Fatal("empty state")
	}

	if got := jar.PopState(httptest.NewRecorder(), roundTrip(rec)); got != state {
		t.Errorf("PopState = %q, want %q", got, state)
	}
	if got := jar.PopState(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Errorf("PopState without cookie = %q, want empty", got)
	}
}
