package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"presskit/internal/types"
)

// profileScanFn builds a mockRow scan function populating a full profile row.
func profileScanFn(id, slug, subID string, isPro bool, status types.SubscriptionStatus) func(dest ...any) error {
	now := time.Now().UTC()
	return func(dest ...any) error {
		*dest[0].(*string) = id
		*dest[1].(*string) = slug
		*dest[2].(*string) = "Ada Creator"
		*dest[3].(*string) = "Travel & lifestyle"
		*dest[4].(*string) = "Bio text"
		*dest[5].(*string) = "https://cdn.test/avatar.png"
		*dest[6].(*string) = "Lisbon"
		*dest[7].(*[]string) = []string{"travel"}
		*dest[8].(*[]types.SocialLink) = []types.SocialLink{{Platform: "instagram", URL: "https://instagram.com/ada", Followers: 120000}}
		*dest[9].(*[]types.Service) = []types.Service{{Title: "Sponsored post", PriceCents: 50000, Currency: "EUR"}}
		*dest[10].(*[]string) = []string{"https://example.com/work"}
		*dest[11].(*string) = "ada@test.local"
		*dest[12].(*bool) = true
		*dest[13].(*bool) = isPro
		*dest[14].(*types.SubscriptionStatus) = status
		*dest[15].(*string) = subID
		*dest[16].(*string) = "variant_1"
		*dest[17].(*time.Time) = now
		*dest[18].(*time.Time) = now
		return nil
	}
}

func TestProfileRepo_GetProfile_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewProfileRepo(db, nil)

	row := &mockRow{scanFn: profileScanFn("user_1", "ada", "sub_9", true, types.SubscriptionStatusActive)}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	profile, err := repo.GetProfile(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", profile.ID)
	assert.Equal(t, "ada", profile.Slug)
	assert.True(t, profile.IsPro)
	assert.Equal(t, types.SubscriptionStatusActive, profile.SubscriptionStatus)
	assert.Len(t, profile.SocialLinks, 1)
}

func TestProfileRepo_GetProfile_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewProfileRepo(db, nil)

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := repo.GetProfile(context.Background(), "user_missing")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundProfile, appErr.Code)
}

func TestProfileRepo_UpdateSubscription_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewProfileRepo(db, nil)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := repo.UpdateSubscription(context.Background(), "user_1", types.SubscriptionFields{
		IsPro:                 true,
		Status:                types.SubscriptionStatusActive,
		SubscriptionID:        "sub_9",
		SubscriptionVariantID: "variant_1",
	})
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestProfileRepo_UpdateSubscription_ProfileMissing(t *testing.T) {
	db := new(mockDBTX)
	repo := NewProfileRepo(db, nil)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := repo.UpdateSubscription(context.Background(), "user_ghost", types.SubscriptionFields{})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundProfile, appErr.Code)
}

func TestProfileRepo_UpdateSubscription_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewProfileRepo(db, nil)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.UpdateSubscription(context.Background(), "user_1", types.SubscriptionFields{})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestProfileRepo_FindBySubscriptionID_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewProfileRepo(db, nil)

	row := &mockRow{scanFn: profileScanFn("user_1", "ada", "sub_9", true, types.SubscriptionStatusCancelled)}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	profile, err := repo.FindBySubscriptionID(context.Background(), "sub_9")
	require.NoError(t, err)
	assert.Equal(t, "user_1", profile.ID)
	assert.Equal(t, "sub_9", profile.SubscriptionID)
}

func TestProfileRepo_FindBySubscriptionID_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewProfileRepo(db, nil)

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := repo.FindBySubscriptionID(context.Background(), "sub_unknown")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundProfile, appErr.Code)
}

func TestProfileRepo_UpdateContent_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewProfileRepo(db, nil)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := repo.UpdateContent(context.Background(), &types.Profile{ID: "user_ghost"})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundProfile, appErr.Code)
}
