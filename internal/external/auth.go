package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"presskit/internal/types"
)

// AuthClientConfig holds the configuration for creating an AuthProviderClient.
type AuthClientConfig struct {
	BaseURL    string
	ServiceKey types.SecretString
	Logger     *slog.Logger
}

// AuthProviderClient talks to the external auth provider that issues and
// stores sessions. The provider is the source of truth for session state;
// this service only reads, refreshes, and interprets it.
type AuthProviderClient struct {
	base       *BaseClient
	baseURL    string
	serviceKey types.SecretString
	logger     *slog.Logger
}

// NewAuthProviderClient creates a new AuthProviderClient.
func NewAuthProviderClient(httpClient *http.Client, cfg AuthClientConfig) *AuthProviderClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := NewBaseClient(
		httpClient,
		"auth-provider",
		RetryPolicy{
			MaxRetries: 2,
			MinWait:    250 * time.Millisecond,
			MaxWait:    2 * time.Second,
		},
		"Presskit/1.0",
	)

	return &AuthProviderClient{
		base:       base,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		logger:     logger,
	}
}

// NewAuthProviderClientWithBase creates an AuthProviderClient with a
// pre-configured BaseClient. Used in tests.
func NewAuthProviderClientWithBase(base *BaseClient, cfg AuthClientConfig) *AuthProviderClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthProviderClient{
		base:       base,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		logger:     logger,
	}
}

// GetSession looks up the session associated with the bearer token.
// Returns auth_session_invalid if the provider does not recognize it.
func (c *AuthProviderClient) GetSession(ctx context.Context, token string) (*types.Session, error) {
	return c.fetchSession(ctx, http.MethodGet, "/v1/sessions/current", token, "GetSession")
}

// RefreshSession asks the provider to extend the session behind the token and
// returns the refreshed session. The caller is responsible for checking that
// the new expiry actually moved forward.
func (c *AuthProviderClient) RefreshSession(ctx context.Context, token string) (*types.Session, error) {
	return c.fetchSession(ctx, http.MethodPost, "/v1/sessions/refresh", token, "RefreshSession")
}

// GetCurrentUser resolves the token directly to a user when no session object
// exists for it (some provider token types are session-less). Returns a
// synthetic session with the provider-reported expiry.
func (c *AuthProviderClient) GetCurrentUser(ctx context.Context, token string) (*types.Session, error) {
	return c.fetchSession(ctx, http.MethodGet, "/v1/users/me", token, "GetCurrentUser")
}

func (c *AuthProviderClient) fetchSession(ctx context.Context, method, path, token, operation string) (*types.Session, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build auth provider request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Service-Key", c.serviceKey.Unmask())
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode below
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		return nil, types.NewAppError(
			types.ErrCodeAuthSessionInvalid,
			fmt.Sprintf("%s: auth provider rejected the token", operation),
			nil,
		)
	default:
		return nil, types.NewAppError(
			types.ErrCodeProviderInvalidResponse,
			fmt.Sprintf("%s: auth provider returned unexpected status %d", operation, resp.StatusCode),
			nil,
		)
	}

	var wire sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeProviderInvalidResponse,
			fmt.Sprintf("%s: failed to decode auth provider response", operation),
			err,
		)
	}

	if wire.UserID == "" {
		return nil, types.NewAppError(
			types.ErrCodeProviderInvalidResponse,
			fmt.Sprintf("%s: auth provider response missing user id", operation),
			nil,
		)
	}

	return &types.Session{
		ID:         wire.SessionID,
		IdentityID: wire.UserID,
		Email:      wire.Email,
		ExpiresAt:  wire.ExpiresAt,
	}, nil
}

// sessionResponse is the auth provider's wire format for session and user
// lookups. /v1/users/me omits session_id and reports the token expiry.
type sessionResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}
