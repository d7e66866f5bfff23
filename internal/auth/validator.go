// Package auth validates inbound request identity against the external auth
// provider. The provider owns session state; this package only reads it,
// triggers at most one refresh, and enforces the identity invariants the
// billing paths depend on.
package auth

import (
	"context"
	"log/slog"
	"strings"

	"presskit/internal/types"
)

// SessionClient defines the auth provider operations the validator needs.
// Implemented by external.AuthProviderClient.
type SessionClient interface {
	GetSession(ctx context.Context, token string) (*types.Session, error)
	RefreshSession(ctx context.Context, token string) (*types.Session, error)
	GetCurrentUser(ctx context.Context, token string) (*types.Session, error)
}

// SessionValidator produces a live, identity-bearing session for a bearer
// token, or a typed failure. Callers downstream never receive a session whose
// expiry is in the past.
type SessionValidator struct {
	client SessionClient
	clock  types.Clock
	logger *slog.Logger
}

// SessionValidatorConfig holds the dependencies for creating a SessionValidator.
type SessionValidatorConfig struct {
	Client SessionClient
	Clock  types.Clock
	Logger *slog.Logger
}

// NewSessionValidator creates a new SessionValidator.
// If Clock is nil, RealClock is used. If Logger is nil, slog.Default() is used.
func NewSessionValidator(cfg SessionValidatorConfig) *SessionValidator {
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionValidator{
		client: cfg.Client,
		clock:  clock,
		logger: logger,
	}
}

// Validate resolves the token to a live session.
//
//  1. Fetch the current session. If the provider has no session for the
//     token, fall back to exactly one current-user lookup.
//  2. If identityHint is supplied it must equal the session's identity; a
//     mismatch is an authentication failure, never a silent fallback. A
//     forged hint must not be able to redirect billing to another account.
//  3. If the session is expired, attempt exactly one refresh. The refreshed
//     expiry must strictly increase and be in the future, otherwise the
//     session is rejected. No further retries.
func (v *SessionValidator) Validate(ctx context.Context, token, identityHint string) (*types.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, types.NewAppError(types.ErrCodeAuthSessionMissing, "no session token provided", nil)
	}

	session, err := v.client.GetSession(ctx, token)
	if err != nil {
		if !isSessionInvalid(err) {
			return nil, err
		}
		// One fallback lookup for session-less token types.
		session, err = v.client.GetCurrentUser(ctx, token)
		if err != nil {
			return nil, err
		}
	}

	if session.IdentityID == "" {
		return nil, types.NewAppError(types.ErrCodeAuthSessionInvalid, "session carries no identity", nil)
	}

	if identityHint != "" && identityHint != session.IdentityID {
		v.logger.Warn("identity hint does not match session identity",
			"session_identity", session.IdentityID,
		)
		return nil, types.NewAppError(types.ErrCodeAuthIdentityMismatch, "asserted identity does not match the session", nil)
	}

	now := v.clock.Now()
	if !session.Expired(now) {
		return session, nil
	}

	// Expired: exactly one refresh attempt.
	refreshed, err := v.client.RefreshSession(ctx, token)
	if err != nil {
		if isSessionInvalid(err) {
			return nil, types.NewAppError(types.ErrCodeAuthSessionExpired, "session expired and refresh was rejected", err)
		}
		return nil, err
	}

	if refreshed.IdentityID != session.IdentityID {
		return nil, types.NewAppError(types.ErrCodeAuthSessionInvalid, "refreshed session identity changed", nil)
	}
	// A refresh that does not move the expiry strictly forward is not a
	// refresh; treat the session as dead rather than loop.
	if !refreshed.ExpiresAt.After(session.ExpiresAt) || refreshed.Expired(v.clock.Now()) {
		return nil, types.NewAppError(types.ErrCodeAuthSessionExpired, "refresh did not extend the session", nil)
	}

	return refreshed, nil
}

// isSessionInvalid reports whether err is the provider's token-rejection
// error, as opposed to a transport or provider failure.
func isSessionInvalid(err error) bool {
	if appErr, ok := err.(*types.AppError); ok {
		return appErr.Code == types.ErrCodeAuthSessionInvalid
	}
	return false
}
