// Package handlers contains the HTTP handler implementations for the
// Presskit API. Each handler defines the narrow service interfaces it
// depends on, takes them via its constructor, and registers its own routes.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"presskit/internal/core"
	"presskit/internal/types"
)

// CheckoutCreator starts a hosted checkout for a validated identity.
// Implemented by billing.CheckoutService.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, identityID, variantID string) (string, error)
}

// CheckoutMetrics records checkout outcomes. Nil disables recording.
type CheckoutMetrics interface {
	RecordCheckoutOutcome(ctx context.Context, success bool)
}

// CreateCheckoutRequest is the body for POST /v1/billing/checkout. Both
// fields are optional: variant_id falls back to the configured default, and
// identity_hint exists so a client that believes it knows its identity fails
// loudly on a mismatch instead of buying pro for the wrong account.
type CreateCheckoutRequest struct {
	VariantID    string `json:"variant_id"`
	IdentityHint string `json:"identity_hint"`
}

// CheckoutResponse is the body for a successful checkout creation.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// BillingHandler handles creator-initiated billing actions.
type BillingHandler struct {
	checkout CheckoutCreator
	metrics  CheckoutMetrics
	logger   *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(checkout CheckoutCreator, metrics CheckoutMetrics, logger *slog.Logger) *BillingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingHandler{
		checkout: checkout,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes mounts the billing endpoints. Mounted under the
// authenticated /v1 group.
func (h *BillingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/billing/checkout", h.HandleCreateCheckout)
}

// HandleCreateCheckout handles POST /v1/billing/checkout.
func (h *BillingHandler) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	identity, ok := types.GetIdentity(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthSessionMissing, "no authenticated identity", nil))
		return
	}

	var req CreateCheckoutRequest
	if r.ContentLength != 0 {
		if err := core.DecodeJSON(w, r, &req); err != nil {
			core.Error(w, r, err)
			return
		}
	}

	// A client-asserted identity must match the session it rode in on.
	// Mismatch means a stale or forged client state; refusing here keeps the
	// checkout from ever being minted against the wrong account.
	if req.IdentityHint != "" && req.IdentityHint != identity.ID {
		h.logger.WarnContext(r.Context(), "checkout identity hint mismatch",
			"identity_id", identity.ID,
		)
		h.recordOutcome(r.Context(), false)
		core.Error(w, r, types.NewAppError(
			types.ErrCodeAuthIdentityMismatch,
			"asserted identity does not match the session",
			nil,
		))
		return
	}

	url, err := h.checkout.CreateCheckout(r.Context(), identity.ID, req.VariantID)
	if err != nil {
		h.recordOutcome(r.Context(), false)
		core.Error(w, r, err)
		return
	}

	h.recordOutcome(r.Context(), true)
	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: CheckoutResponse{CheckoutURL: url},
	})
}

func (h *BillingHandler) recordOutcome(ctx context.Context, success bool) {
	if h.metrics != nil {
		h.metrics.RecordCheckoutOutcome(ctx, success)
	}
}
