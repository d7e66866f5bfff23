package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"presskit/internal/billing"
	"presskit/internal/core"
	"presskit/internal/observability"
	"presskit/internal/types"
)

// signatureHeader carries the provider's hex HMAC-SHA256 of the raw body.
const signatureHeader = "X-Signature"

// maxWebhookBodySize caps the raw webhook payload. Subscription events are a
// few KB; anything larger is not a payload we want to buffer.
const maxWebhookBodySize = 64 << 10

// SignatureVerifier checks a webhook signature against the raw body.
type SignatureVerifier interface {
	Verify(rawBody []byte, header string) error
}

// EventDispatcher applies a parsed subscription event to the profile store.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event *billing.SubscriptionEvent) error
}

// WebhookArchiver persists raw webhook payloads for replay and audit.
type WebhookArchiver interface {
	Store(ctx context.Context, eventName, subscriptionID, identityID string, rawPayload []byte, receivedAt time.Time) error
}

// AlertPublisher fans subscription lifecycle changes out to the
// notification queue.
type AlertPublisher interface {
	PublishBillingAlert(ctx context.Context, identityID, eventName, subscriptionID string) error
}

// WebhookMetrics records webhook delivery outcomes. Nil disables recording.
type WebhookMetrics interface {
	RecordWebhookOutcome(ctx context.Context, outcome string)
}

// WebhookHandler receives billing provider webhooks. The provider retries
// deliveries on any non-2xx status, so the status code is the contract:
// 2xx acknowledges (including events we ignore), 4xx tells the provider the
// delivery itself is bad, and 5xx asks for a redelivery after a transient
// store failure.
type WebhookHandler struct {
	verifier   SignatureVerifier
	dispatcher EventDispatcher
	archive    WebhookArchiver
	publisher  AlertPublisher
	metrics    WebhookMetrics
	logger     *slog.Logger
	now        func() time.Time

	// parse is swappable in tests; production always uses billing.ParseEvent.
	parse func(rawBody []byte) (*billing.SubscriptionEvent, error)
}

// NewWebhookHandler creates a WebhookHandler. verifier may be nil when no
// signing secret is configured; every delivery is then rejected with 401,
// because accepting unverifiable webhooks would let anyone grant themselves
// a subscription.
func NewWebhookHandler(
	verifier SignatureVerifier,
	dispatcher EventDispatcher,
	archive WebhookArchiver,
	publisher AlertPublisher,
	metrics WebhookMetrics,
	logger *slog.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		archive:    archive,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
		parse:      billing.ParseEvent,
	}
}

// RegisterRoutes mounts the webhook endpoint. Mounted publicly: the provider
// authenticates with the signature, not a session.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/billing", h.HandleBillingWebhook)
}

// HandleBillingWebhook handles POST /webhooks/billing.
func (h *WebhookHandler) HandleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		h.recordOutcome(ctx, observability.OutcomeMalformed)
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationPayload, "failed to read webhook body", err))
		return
	}

	// The signature gate comes before any interpretation of the body. A
	// missing secret is treated the same as a bad signature: nothing about
	// the payload can be trusted either way.
	if h.verifier == nil {
		h.logger.ErrorContext(ctx, "webhook received but no signing secret is configured")
		h.recordOutcome(ctx, observability.OutcomeSignatureInvalid)
		core.Error(w, r, types.NewAppError(types.ErrCodeWebhookSignatureInvalid, "webhook verification is not configured", nil))
		return
	}
	if err := h.verifier.Verify(rawBody, r.Header.Get(signatureHeader)); err != nil {
		h.logger.WarnContext(ctx, "webhook signature rejected", "error", err)
		h.recordOutcome(ctx, observability.OutcomeSignatureInvalid)
		core.Error(w, r, err)
		return
	}

	event, err := h.parse(rawBody)
	if err != nil {
		h.recordOutcome(ctx, observability.OutcomeMalformed)
		core.Error(w, r, err)
		return
	}

	if err := h.dispatcher.Dispatch(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "webhook dispatch failed",
			"event_name", event.Name,
			"subscription_id", event.SubscriptionID,
			"error", err,
		)
		h.recordOutcome(ctx, dispatchOutcome(err))
		core.Error(w, r, err)
		return
	}

	// Archival and notification are best-effort. The subscription state is
	// already committed; failing the delivery now would make the provider
	// redeliver an event we have applied.
	if h.archive != nil {
		if err := h.archive.Store(ctx, event.Name, event.SubscriptionID, event.IdentityID, rawBody, h.now().UTC()); err != nil {
			h.logger.ErrorContext(ctx, "failed to archive webhook payload",
				"event_name", event.Name,
				"error", err,
			)
		}
	}
	if h.publisher != nil {
		if err := h.publisher.PublishBillingAlert(ctx, event.IdentityID, event.Name, event.SubscriptionID); err != nil {
			h.logger.ErrorContext(ctx, "failed to publish billing alert",
				"event_name", event.Name,
				"error", err,
			)
		}
	}

	h.logger.InfoContext(ctx, "webhook processed",
		"event_name", event.Name,
		"subscription_id", event.SubscriptionID,
	)
	h.recordOutcome(ctx, handledOutcome(event.Name))
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{"status": "ok"}})
}

func (h *WebhookHandler) recordOutcome(ctx context.Context, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordWebhookOutcome(ctx, outcome)
	}
}

func handledOutcome(eventName string) string {
	switch eventName {
	case billing.EventSubscriptionCreated,
		billing.EventSubscriptionUpdated,
		billing.EventSubscriptionResumed,
		billing.EventSubscriptionCancelled,
		billing.EventSubscriptionExpired:
		return observability.OutcomeHandled
	default:
		return observability.OutcomeIgnored
	}
}

func dispatchOutcome(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case types.ErrCodeNotFoundProfile:
			return observability.OutcomeNotFound
		case types.ErrCodeValidationPayload:
			return observability.OutcomeMalformed
		}
	}
	return observability.OutcomeStoreFailure
}
