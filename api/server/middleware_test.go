package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krsna-app/krsna/api/server/handlers"
)

func echoUserID() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(handlers.UserIDFromContext(r.Context())))
	})
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	h := AuthWithConfig(AuthConfig{RequireAuth: true})(echoUserID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/data/todos", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthOptionalFallsBackToDefaultUser(t *testing.T) {
	h := AuthWithConfig(AuthConfig{RequireAuth: false})(echoUserID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/data/todos", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "default_user" {
		t.Errorf("user id = %q, want default_user", got)
	}
}

func TestAuthRejectsMalformedUserID(t *testing.T) {
	h := AuthWithConfig(AuthConfig{RequireAuth: true})(echoUserID())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/todos", nil)
	req.Header.Set("X-User-ID", "evil user;drop")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAuthPassesHeaderUserThrough(t *testing.T) {
	h := AuthWithConfig(AuthConfig{RequireAuth: true})(echoUserID())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/data/todos", nil)
	req.Header.Set("X-User-ID", "user_42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Body.String(); got != "user_42" {
		t.Errorf("user id = %q, want user_42", got)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(echoUserID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(echoUserID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://attacker.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q, want empty", got)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	called := false
	h := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Error("preflight reached the inner handler")
	}
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
