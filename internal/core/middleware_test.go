package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"presskit/internal/config"
	"presskit/internal/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}
	s, err := NewServer(cfg, slog.Default())
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	return s
}

// --- Request ID ---

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var captured string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = types.GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if captured == "" {
		t.Error("request ID should be generated and stored in context")
	}
	if got := w.Header().Get("X-Request-Id"); got != captured {
		t.Errorf("response header %q should echo the context ID %q", got, captured)
	}
}

func TestRequestIDMiddleware_PropagatesInbound(t *testing.T) {
	var captured string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = types.GetRequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-Id", "req_inbound")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if captured != "req_inbound" {
		t.Errorf("request ID = %q, want req_inbound", captured)
	}
}

// --- Recoverer ---

func TestRecoverer_CatchesPanic(t *testing.T) {
	s := newTestServer(t)
	handler := s.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}

	var body APIErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("recovery response must be valid JSON: %v", err)
	}
	if body.Error.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("code = %q", body.Error.Code)
	}
}

// --- Auth middleware ---

// stubResolver returns a fixed session or error.
type stubResolver struct {
	session *types.Session
	err     error
	calls   int
}

func (s *stubResolver) Validate(_ context.Context, token, hint string) (*types.Session, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func TestAuthMiddleware_InjectsIdentity(t *testing.T) {
	s := newTestServer(t)
	s.Resolver = &stubResolver{session: &types.Session{
		IdentityID: "user_1",
		Email:      "creator@example.com",
		ExpiresAt:  time.Now().Add(time.Hour),
	}}

	var identity types.Identity
	var ok bool
	handler := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok = types.GetIdentity(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	r.Header.Set("Authorization", "Bearer tok_123")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !ok {
		t.Fatal("identity should be present in context")
	}
	if identity.ID != "user_1" || identity.Email != "creator@example.com" {
		t.Errorf("identity = %+v", identity)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	s := newTestServer(t)
	resolver := &stubResolver{}
	s.Resolver = resolver

	handler := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a token")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Result().StatusCode)
	}
	if resolver.calls != 0 {
		t.Error("resolver should not be called without a token")
	}
}

func TestAuthMiddleware_ResolverErrorMapsStatus(t *testing.T) {
	s := newTestServer(t)
	s.Resolver = &stubResolver{err: types.NewAppError(types.ErrCodeAuthSessionExpired, "expired", nil)}

	handler := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run on auth failure")
	}))

	r := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	r.Header.Set("Authorization", "Bearer tok_expired")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Result().StatusCode)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Bearer   abc123  ", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := extractBearerToken(tc.header); got != tc.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

// --- CORS ---

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://app.presskit.example"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://app.presskit.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.presskit.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestCORSMiddleware_PreflightShortCircuits(t *testing.T) {
	called := false
	handler := NewCORSMiddleware([]string{"*"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }),
	)

	r := httptest.NewRequest(http.MethodOptions, "/", nil)
	r.Header.Set("Origin", "https://anywhere.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Result().StatusCode)
	}
	if called {
		t.Error("preflight requests must not reach the handler")
	}
}

func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://app.presskit.example"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin should be unset for disallowed origins, got %q", got)
	}
}
