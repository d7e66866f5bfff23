package billing

import (
	"context"
	"log/slog"
	"strings"

	"presskit/internal/config"
	"presskit/internal/external"
	"presskit/internal/types"
)

// CheckoutClient is the outbound billing provider boundary.
// Implemented by external.BillingAPIClient.
type CheckoutClient interface {
	CreateCheckout(ctx context.Context, params external.CheckoutParams) (string, error)
}

// CheckoutService builds provider checkout requests for validated identities
// and returns the hosted checkout URL. Billing configuration is trimmed once
// at construction; requests made while it is incomplete fail with
// config_missing before any outbound call, which is a server problem, not a
// caller input problem.
type CheckoutService struct {
	client           CheckoutClient
	storeID          string
	defaultVariantID string
	apiKeySet        bool
	testMode         bool
	logger           *slog.Logger
}

// NewCheckoutService creates a new CheckoutService from the billing
// configuration. If logger is nil, slog.Default() is used.
func NewCheckoutService(cfg config.BillingConfig, client CheckoutClient, logger *slog.Logger) *CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{
		client:           client,
		storeID:          strings.TrimSpace(cfg.StoreID),
		defaultVariantID: strings.TrimSpace(cfg.DefaultVariantID),
		apiKeySet:        strings.TrimSpace(cfg.APIKey.Unmask()) != "",
		testMode:         cfg.TestMode,
		logger:           logger,
	}
}

// CreateCheckout submits one checkout POST for the identity and returns the
// provider's redirect URL. variantID is optional and falls back to the
// configured default; the identity travels as opaque custom metadata so the
// resulting subscription webhooks can be correlated back to the profile.
func (s *CheckoutService) CreateCheckout(ctx context.Context, identityID, variantID string) (string, error) {
	if !s.apiKeySet || s.storeID == "" {
		return "", types.NewAppError(
			types.ErrCodeConfigMissing,
			"billing provider credentials are not configured",
			nil,
		)
	}

	variant := strings.TrimSpace(variantID)
	if variant == "" {
		variant = s.defaultVariantID
	}
	if variant == "" {
		return "", types.NewAppError(
			types.ErrCodeConfigMissing,
			"no variant requested and no default variant configured",
			nil,
		)
	}

	url, err := s.client.CreateCheckout(ctx, external.CheckoutParams{
		StoreID:    s.storeID,
		VariantID:  variant,
		IdentityID: identityID,
		TestMode:   s.testMode,
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "checkout created",
		"identity_id", identityID,
		"variant_id", variant,
		"test_mode", s.testMode,
	)
	return url, nil
}
