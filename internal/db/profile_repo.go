package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"presskit/internal/types"
)

// profileColumns is the canonical column list for scanning a full Profile row.
const profileColumns = `id, slug, display_name, headline, bio, avatar_url, location,
	categories, social_links, services, portfolio_links, contact_email, published,
	is_pro, subscription_status, subscription_id, subscription_variant_id,
	created_at, updated_at`

// ProfileRepo manages creator profile rows, including the billing columns
// written by the webhook pipeline.
//
// Key invariants:
//   - Billing columns (is_pro, subscription_status, subscription_id,
//     subscription_variant_id) are written ONLY through UpdateSubscription.
//     Profile content updates never touch them.
//   - UpdateSubscription is last-write-wins: the provider redelivers on 5xx,
//     so reapplying the same event must be a harmless overwrite.
type ProfileRepo struct {
	db     DBTX
	logger *slog.Logger
}

// NewProfileRepo creates a new ProfileRepo backed by the given database
// connection (pool or transaction).
func NewProfileRepo(db DBTX, logger *slog.Logger) *ProfileRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileRepo{db: db, logger: logger}
}

// GetProfile fetches a profile by its identity ID.
func (r *ProfileRepo) GetProfile(ctx context.Context, identityID string) (*types.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		identityID,
	)
	return scanProfile(row)
}

// GetProfileBySlug fetches a profile by its public slug.
func (r *ProfileRepo) GetProfileBySlug(ctx context.Context, slug string) (*types.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE slug = $1`,
		slug,
	)
	return scanProfile(row)
}

// EnsureProfile creates a skeleton profile row for a newly authenticated
// identity if one does not exist yet, then returns the current row. The slug
// defaults to the identity ID and can be changed via UpdateContent.
func (r *ProfileRepo) EnsureProfile(ctx context.Context, identityID, email string) (*types.Profile, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (id, slug, display_name, contact_email, created_at, updated_at)
		 VALUES ($1, $1, '', $2, NOW(), NOW())
		 ON CONFLICT (id) DO NOTHING`,
		identityID,
		email,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to ensure profile", err)
	}
	return r.GetProfile(ctx, identityID)
}

// UpdateContent updates the media kit content fields of a profile. Billing
// columns are deliberately excluded.
func (r *ProfileRepo) UpdateContent(ctx context.Context, p *types.Profile) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles
		 SET slug = $1,
		     display_name = $2,
		     headline = $3,
		     bio = $4,
		     avatar_url = $5,
		     location = $6,
		     categories = $7,
		     social_links = $8,
		     services = $9,
		     portfolio_links = $10,
		     contact_email = $11,
		     published = $12,
		     updated_at = NOW()
		 WHERE id = $13`,
		p.Slug,
		p.DisplayName,
		p.Headline,
		p.Bio,
		p.AvatarURL,
		p.Location,
		p.Categories,
		p.SocialLinks,
		p.Services,
		p.PortfolioLinks,
		p.ContactEmail,
		p.Published,
		p.ID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", nil)
	}
	return nil
}

// UpdateSubscription overwrites the billing columns for the given identity.
// Called only by the webhook dispatcher; last write wins.
func (r *ProfileRepo) UpdateSubscription(ctx context.Context, identityID string, fields types.SubscriptionFields) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles
		 SET is_pro = $1,
		     subscription_status = $2,
		     subscription_id = $3,
		     subscription_variant_id = $4,
		     updated_at = NOW()
		 WHERE id = $5`,
		fields.IsPro,
		fields.Status,
		fields.SubscriptionID,
		fields.SubscriptionVariantID,
		identityID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update subscription state", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found for subscription update", nil)
	}
	return nil
}

// FindBySubscriptionID fetches the profile currently associated with the
// given provider subscription ID. Used to correlate cancellation webhooks
// that arrive without custom user metadata.
func (r *ProfileRepo) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*types.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE subscription_id = $1`,
		subscriptionID,
	)
	return scanProfile(row)
}

// scanProfile scans a single profile row, translating pgx.ErrNoRows into the
// typed not-found error.
func scanProfile(row pgx.Row) (*types.Profile, error) {
	var p types.Profile
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.DisplayName,
		&p.Headline,
		&p.Bio,
		&p.AvatarURL,
		&p.Location,
		&p.Categories,
		&p.SocialLinks,
		&p.Services,
		&p.PortfolioLinks,
		&p.ContactEmail,
		&p.Published,
		&p.IsPro,
		&p.SubscriptionStatus,
		&p.SubscriptionID,
		&p.SubscriptionVariantID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan profile", err)
	}
	return &p, nil
}
