package types

import (
	"time"
)

// Session represents an authenticated session as reported by the external
// auth provider. The token itself is never stored here; only the claims we
// act on.
type Session struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session is expired relative to now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Profile is the core domain entity: one row per creator, carrying both the
// public media kit content and the billing state derived from webhooks.
type Profile struct {
	ID   string `json:"id" db:"id"` // identity ID from the auth provider
	Slug string `json:"slug" db:"slug"`

	// Media kit content
	DisplayName    string       `json:"display_name" db:"display_name"`
	Headline       string       `json:"headline,omitempty" db:"headline"`
	Bio            string       `json:"bio,omitempty" db:"bio"`
	AvatarURL      string       `json:"avatar_url,omitempty" db:"avatar_url"`
	Location       string       `json:"location,omitempty" db:"location"`
	Categories     []string     `json:"categories,omitempty" db:"categories"`
	SocialLinks    []SocialLink `json:"social_links,omitempty" db:"social_links"`
	Services       []Service    `json:"services,omitempty" db:"services"`
	PortfolioLinks []string     `json:"portfolio_links,omitempty" db:"portfolio_links"`
	ContactEmail   string       `json:"contact_email,omitempty" db:"contact_email"`
	Published      bool         `json:"published" db:"published"`

	// Billing state (written only by the webhook pipeline)
	IsPro                 bool               `json:"is_pro" db:"is_pro"`
	SubscriptionStatus    SubscriptionStatus `json:"subscription_status,omitempty" db:"subscription_status"`
	SubscriptionID        string             `json:"-" db:"subscription_id"`
	SubscriptionVariantID string             `json:"-" db:"subscription_variant_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SocialLink is a single social platform entry on a media kit.
type SocialLink struct {
	Platform  string `json:"platform" validate:"required,max=32"`
	URL       string `json:"url" validate:"required,url,max=500"`
	Followers int64  `json:"followers,omitempty" validate:"min=0"`
}

// Service is a priced offering listed on a media kit (e.g., a sponsored post).
type Service struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	PriceCents  int64  `json:"price_cents" validate:"min=0"`
	Currency    string `json:"currency" validate:"required,iso4217"`
}

// SubscriptionFields is the set of billing columns the webhook dispatcher
// writes. Grouped so the store adapter can overwrite them atomically.
type SubscriptionFields struct {
	IsPro                 bool
	Status                SubscriptionStatus
	SubscriptionID        string
	SubscriptionVariantID string
}

// CollabRequest is a brand's inbound collaboration request against a kit.
type CollabRequest struct {
	ID        string       `json:"id" db:"id"`
	ProfileID string       `json:"profile_id" db:"profile_id"`
	BrandName string       `json:"brand_name" db:"brand_name"`
	Email     string       `json:"email" db:"email"`
	Message   string       `json:"message" db:"message"`
	Budget    string       `json:"budget,omitempty" db:"budget"`
	Status    CollabStatus `json:"status" db:"status"`

	// ManageTokenHash is the bcrypt hash of the one-time token returned to
	// the brand at submission. The plaintext is never stored.
	ManageTokenHash string `json:"-" db:"manage_token_hash"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty" db:"responded_at"`
}

// MediaKit is the aggregated public view of a published profile.
type MediaKit struct {
	Profile     *Profile `json:"profile"`
	CollabCount int      `json:"collab_count"`
}

// WebhookArchiveRecord is one verified webhook delivery retained for audit
// and replay. The raw payload is stored zstd-compressed.
type WebhookArchiveRecord struct {
	ID             int64     `db:"id"`
	EventName      string    `db:"event_name"`
	SubscriptionID string    `db:"subscription_id"`
	IdentityID     string    `db:"identity_id"`
	Payload        []byte    `db:"payload"` // zstd-compressed raw body
	ReceivedAt     time.Time `db:"received_at"`
}
