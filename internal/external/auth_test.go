package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"presskit/internal/types"
)

func newTestAuthClient(t *testing.T, serverURL string) *AuthProviderClient {
	t.Helper()
	return NewAuthProviderClientWithBase(
		newTestClient(t, NoRetryPolicy()),
		AuthClientConfig{
			BaseURL:    serverURL,
			ServiceKey: types.SecretString("svc-key"),
		},
	)
}

func TestGetSession_Success(t *testing.T) {
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	var gotPath, gotAuth, gotServiceKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotServiceKey = r.Header.Get("X-Service-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"session_id":"sess_1","user_id":"user_1","email":"a@b.com","expires_at":"` + expiry.Format(time.RFC3339) + `"}`))
	}))
	defer server.Close()

	client := newTestAuthClient(t, server.URL)

	sess, err := client.GetSession(context.Background(), "tok_123")
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}

	if gotPath != "/v1/sessions/current" {
		t.Errorf("path = %q, want /v1/sessions/current", gotPath)
	}
	if gotAuth != "Bearer tok_123" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotServiceKey != "svc-key" {
		t.Errorf("X-Service-Key = %q, want unmasked service key", gotServiceKey)
	}
	if sess.ID != "sess_1" || sess.IdentityID != "user_1" || sess.Email != "a@b.com" {
		t.Errorf("session = %+v, want decoded wire fields", sess)
	}
	if !sess.ExpiresAt.Equal(expiry) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, expiry)
	}
}

func TestRefreshSession_UsesPost(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"session_id":"sess_1","user_id":"user_1","email":"a@b.com","expires_at":"2099-01-01T00:00:00Z"}`))
	}))
	defer server.Close()

	client := newTestAuthClient(t, server.URL)

	if _, err := client.RefreshSession(context.Background(), "tok_123"); err != nil {
		t.Fatalf("RefreshSession returned error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/v1/sessions/refresh" {
		t.Errorf("path = %q, want /v1/sessions/refresh", gotPath)
	}
}

func TestGetSession_UnauthorizedIsSessionInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestAuthClient(t, server.URL)

	_, err := client.GetSession(context.Background(), "tok_bad")
	if err == nil {
		t.Fatal("GetSession should fail on 401")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error should be *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeAuthSessionInvalid {
		t.Errorf("Code = %q, want %q", appErr.Code, types.ErrCodeAuthSessionInvalid)
	}
}

func TestGetCurrentUser_NotFoundIsSessionInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestAuthClient(t, server.URL)

	_, err := client.GetCurrentUser(context.Background(), "tok_unknown")
	if err == nil {
		t.Fatal("GetCurrentUser should fail on 404")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error should be *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeAuthSessionInvalid {
		t.Errorf("Code = %q, want %q", appErr.Code, types.ErrCodeAuthSessionInvalid)
	}
}

func TestGetSession_MalformedBodyIsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":`))
	}))
	defer server.Close()

	client := newTestAuthClient(t, server.URL)

	_, err := client.GetSession(context.Background(), "tok_123")
	if err == nil {
		t.Fatal("GetSession should fail on an unparseable body")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error should be *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeProviderInvalidResponse {
		t.Errorf("Code = %q, want %q", appErr.Code, types.ErrCodeProviderInvalidResponse)
	}
}

func TestGetSession_MissingUserIDIsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":"sess_1","email":"a@b.com","expires_at":"2099-01-01T00:00:00Z"}`))
	}))
	defer server.Close()

	client := newTestAuthClient(t, server.URL)

	_, err := client.GetSession(context.Background(), "tok_123")
	if err == nil {
		t.Fatal("GetSession should fail when user_id is missing")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error should be *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeProviderInvalidResponse {
		t.Errorf("Code = %q, want %q", appErr.Code, types.ErrCodeProviderInvalidResponse)
	}
}
