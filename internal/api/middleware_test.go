package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func authHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusNoContent)
	})
	return AuthMiddleware("secret-key", log)(next)
}

func TestAuthMiddleware_MissingTokenIsUnauthorized(t *testing.T) {
	var called bool
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	authHandler(t, &called).ServeHTTP(rr, req)

	if called {
		t.Fatal("handler ran without credentials")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", got)
	}
	if !strings.Contains(rr.Body.String(), "missing bearer token") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestAuthMiddleware_WrongKeyIsUnauthorized(t *testing.T) {
	var called bool
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	authHandler(t, &called).ServeHTTP(rr, req)

	if called {
		t.Fatal("handler ran with a bad key")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "invalid api key") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestAuthMiddleware_CorrectKeyPassesThrough(t *testing.T) {
	var called bool
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	authHandler(t, &called).ServeHTTP(rr, req)

	if !called {
		t.Fatal("handler never ran")
	}
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}

func TestRequestLogger_RecordsStatusAndBytes(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})

	rr := httptest.NewRecorder()
	RequestLogger(log)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rr.Code)
	}
	if rr.Body.String() != "short and stout" {
		t.Errorf("body = %q", rr.Body.String())
	}
}
