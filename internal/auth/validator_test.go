package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"presskit/internal/types"
)

// --- Mock SessionClient ---

type mockSessionClient struct {
	mock.Mock
}

func (m *mockSessionClient) GetSession(ctx context.Context, token string) (*types.Session, error) {
	args := m.Called(ctx, token)
	if s := args.Get(0); s != nil {
		return s.(*types.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionClient) RefreshSession(ctx context.Context, token string) (*types.Session, error) {
	args := m.Called(ctx, token)
	if s := args.Get(0); s != nil {
		return s.(*types.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionClient) GetCurrentUser(ctx context.Context, token string) (*types.Session, error) {
	args := m.Called(ctx, token)
	if s := args.Get(0); s != nil {
		return s.(*types.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

// fixedClock returns a constant time.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// --- Test Fixtures ---

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func liveSession() *types.Session {
	return &types.Session{
		ID:         "sess_1",
		IdentityID: "user_1",
		Email:      "creator@example.com",
		ExpiresAt:  testNow.Add(time.Hour),
	}
}

func expiredSession() *types.Session {
	s := liveSession()
	s.ExpiresAt = testNow.Add(-time.Minute)
	return s
}

func sessionInvalidErr() error {
	return types.NewAppError(types.ErrCodeAuthSessionInvalid, "rejected", nil)
}

func newTestValidator(client SessionClient) *SessionValidator {
	return NewSessionValidator(SessionValidatorConfig{
		Client: client,
		Clock:  fixedClock{now: testNow},
	})
}

// --- Tests ---

func TestValidate_LiveSession(t *testing.T) {
	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(liveSession(), nil)

	v := newTestValidator(client)

	sess, err := v.Validate(context.Background(), "tok", "")
	require.NoError(t, err)
	assert.Equal(t, "user_1", sess.IdentityID)

	client.AssertNotCalled(t, "RefreshSession", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "GetCurrentUser", mock.Anything, mock.Anything)
}

func TestValidate_EmptyToken(t *testing.T) {
	client := new(mockSessionClient)
	v := newTestValidator(client)

	_, err := v.Validate(context.Background(), "   ", "")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthSessionMissing, appErr.Code)
	client.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything)
}

func TestValidate_IdentityHintMatch(t *testing.T) {
	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(liveSession(), nil)

	v := newTestValidator(client)

	sess, err := v.Validate(context.Background(), "tok", "user_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", sess.IdentityID)
}

func TestValidate_IdentityHintMismatch(t *testing.T) {
	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(liveSession(), nil)

	v := newTestValidator(client)

	_, err := v.Validate(context.Background(), "tok", "user_other")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthIdentityMismatch, appErr.Code)
	// A forged hint must never fall through to refresh or user lookup.
	client.AssertNotCalled(t, "RefreshSession", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "GetCurrentUser", mock.Anything, mock.Anything)
}

func TestValidate_NoSessionFallsBackToCurrentUserOnce(t *testing.T) {
	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(nil, sessionInvalidErr())
	client.On("GetCurrentUser", mock.Anything, "tok").Return(liveSession(), nil)

	v := newTestValidator(client)

	sess, err := v.Validate(context.Background(), "tok", "")
	require.NoError(t, err)
	assert.Equal(t, "user_1", sess.IdentityID)

	client.AssertNumberOfCalls(t, "GetCurrentUser", 1)
}

func TestValidate_NoSessionAndFallbackFails(t *testing.T) {
	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(nil, sessionInvalidErr())
	client.On("GetCurrentUser", mock.Anything, "tok").Return(nil, sessionInvalidErr())

	v := newTestValidator(client)

	_, err := v.Validate(context.Background(), "tok", "")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthSessionInvalid, appErr.Code)
	client.AssertNumberOfCalls(t, "GetCurrentUser", 1)
}

func TestValidate_ProviderFailurePassesThrough(t *testing.T) {
	client := new(mockSessionClient)
	providerErr := types.NewAppError(types.ErrCodeProviderUnavailable, "upstream down", nil)
	client.On("GetSession", mock.Anything, "tok").Return(nil, providerErr)

	v := newTestValidator(client)

	_, err := v.Validate(context.Background(), "tok", "")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeProviderUnavailable, appErr.Code)
	// Transport failures must not trigger the session-less fallback.
	client.AssertNotCalled(t, "GetCurrentUser", mock.Anything, mock.Anything)
}

func TestValidate_ExpiredSessionRefreshedOnce(t *testing.T) {
	refreshed := liveSession()
	refreshed.ExpiresAt = testNow.Add(2 * time.Hour)

	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(expiredSession(), nil)
	client.On("RefreshSession", mock.Anything, "tok").Return(refreshed, nil)

	v := newTestValidator(client)

	sess, err := v.Validate(context.Background(), "tok", "")
	require.NoError(t, err)
	assert.True(t, sess.ExpiresAt.After(testNow))

	client.AssertNumberOfCalls(t, "RefreshSession", 1)
}

func TestValidate_ExpiredSessionRefreshRejected(t *testing.T) {
	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(expiredSession(), nil)
	client.On("RefreshSession", mock.Anything, "tok").Return(nil, sessionInvalidErr())

	v := newTestValidator(client)

	_, err := v.Validate(context.Background(), "tok", "")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthSessionExpired, appErr.Code)
	client.AssertNumberOfCalls(t, "RefreshSession", 1)
}

func TestValidate_RefreshMustStrictlyExtendExpiry(t *testing.T) {
	// Refresh "succeeds" but returns the same expiry: the session is dead.
	stale := expiredSession()

	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(expiredSession(), nil)
	client.On("RefreshSession", mock.Anything, "tok").Return(stale, nil)

	v := newTestValidator(client)

	_, err := v.Validate(context.Background(), "tok", "")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthSessionExpired, appErr.Code)
	client.AssertNumberOfCalls(t, "RefreshSession", 1)
}

func TestValidate_RefreshCannotSwitchIdentity(t *testing.T) {
	other := liveSession()
	other.IdentityID = "user_other"
	other.ExpiresAt = testNow.Add(2 * time.Hour)

	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(expiredSession(), nil)
	client.On("RefreshSession", mock.Anything, "tok").Return(other, nil)

	v := newTestValidator(client)

	_, err := v.Validate(context.Background(), "tok", "")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthSessionInvalid, appErr.Code)
}

func TestValidate_SessionWithoutIdentityIsInvalid(t *testing.T) {
	anon := liveSession()
	anon.IdentityID = ""

	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(anon, nil)

	v := newTestValidator(client)

	_, err := v.Validate(context.Background(), "tok", "")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthSessionInvalid, appErr.Code)
}

func TestValidate_RefreshTransportErrorPassesThrough(t *testing.T) {
	client := new(mockSessionClient)
	client.On("GetSession", mock.Anything, "tok").Return(expiredSession(), nil)
	client.On("RefreshSession", mock.Anything, "tok").Return(nil, errors.New("connection reset"))

	v := newTestValidator(client)

	_, err := v.Validate(context.Background(), "tok", "")
	require.Error(t, err)

	var appErr *types.AppError
	assert.False(t, errors.As(err, &appErr) && appErr.Code == types.ErrCodeAuthSessionExpired,
		"a transport failure should not be reported as an expired session")
}
