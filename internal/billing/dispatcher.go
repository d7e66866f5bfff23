package billing

import (
	"context"
	"log/slog"

	"presskit/internal/types"
)

// ProfileStore is the profile persistence boundary the dispatcher writes
// through. Implemented by db.ProfileRepo. The dispatcher never issues raw
// queries; these three operations are its entire view of storage.
type ProfileStore interface {
	GetProfile(ctx context.Context, identityID string) (*types.Profile, error)
	UpdateSubscription(ctx context.Context, identityID string, fields types.SubscriptionFields) error
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*types.Profile, error)
}

// Dispatcher maps one verified subscription event to at most one profile
// mutation. Mutations are last-write overwrites of explicit fields, so
// at-least-once delivery and out-of-order delivery both resolve to the same
// end state without a dedup table.
type Dispatcher struct {
	store  ProfileStore
	logger *slog.Logger
}

// NewDispatcher creates a new Dispatcher.
// If logger is nil, slog.Default() is used.
func NewDispatcher(store ProfileStore, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, logger: logger}
}

// Dispatch applies the event's subscription-state transition.
//
// Returns nil both for applied mutations and for intentionally ignored
// events: unrecognized names must produce a success response or the provider
// retries deliveries forever. Typed failures:
//   - validation_invalid_payload: a grant event with no user_id to key on
//   - not_found_profile: a revoke event that cannot be correlated
//   - internal_database_error: a store write failure, surfaced as 5xx so the
//     provider redelivers
func (d *Dispatcher) Dispatch(ctx context.Context, event *SubscriptionEvent) error {
	switch event.Name {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionResumed:
		return d.applyGrant(ctx, event)

	case EventSubscriptionCancelled, EventSubscriptionExpired:
		return d.applyRevoke(ctx, event)

	default:
		d.logger.InfoContext(ctx, "ignoring unrecognized subscription event",
			"event_name", event.Name,
		)
		return nil
	}
}

// applyGrant handles created/updated/resumed events. The identity comes from
// the checkout's custom metadata; without it the event cannot be attributed
// to a profile and the payload is structurally unusable.
func (d *Dispatcher) applyGrant(ctx context.Context, event *SubscriptionEvent) error {
	if event.IdentityID == "" {
		return types.NewAppError(
			types.ErrCodeValidationPayload,
			"subscription event carries no user_id",
			nil,
		)
	}

	status := event.Status
	if status == types.SubscriptionStatusNone {
		status = types.SubscriptionStatusActive
	}

	fields := types.SubscriptionFields{
		IsPro:                 status.GrantsPro(),
		Status:                status,
		SubscriptionID:        event.SubscriptionID,
		SubscriptionVariantID: event.VariantID,
	}

	if err := d.store.UpdateSubscription(ctx, event.IdentityID, fields); err != nil {
		if isNotFound(err) {
			return types.NewAppError(
				types.ErrCodeNotFoundProfile,
				"no profile exists for the event's user_id",
				err,
			)
		}
		return d.storeFailure(ctx, event, err)
	}

	d.logger.InfoContext(ctx, "subscription state applied",
		"event_name", event.Name,
		"identity_id", event.IdentityID,
		"status", string(status),
		"is_pro", fields.IsPro,
	)
	return nil
}

// applyRevoke handles cancelled/expired events. The provider omits custom
// metadata on some lifecycle deliveries, so a missing user_id falls back to
// correlating by the stored subscription id.
func (d *Dispatcher) applyRevoke(ctx context.Context, event *SubscriptionEvent) error {
	identityID := event.IdentityID
	if identityID == "" {
		profile, err := d.store.FindBySubscriptionID(ctx, event.SubscriptionID)
		if err != nil {
			if isNotFound(err) {
				return types.NewAppError(
					types.ErrCodeNotFoundProfile,
					"no profile matches the event's subscription id",
					err,
				)
			}
			return d.storeFailure(ctx, event, err)
		}
		identityID = profile.ID
	}

	status := event.Status
	if status == types.SubscriptionStatusNone {
		status = revokedStatusFor(event.Name)
	}

	fields := types.SubscriptionFields{
		IsPro:                 false,
		Status:                status,
		SubscriptionID:        event.SubscriptionID,
		SubscriptionVariantID: event.VariantID,
	}

	if err := d.store.UpdateSubscription(ctx, identityID, fields); err != nil {
		if isNotFound(err) {
			return types.NewAppError(
				types.ErrCodeNotFoundProfile,
				"no profile exists for the event's identity",
				err,
			)
		}
		return d.storeFailure(ctx, event, err)
	}

	d.logger.InfoContext(ctx, "subscription revoked",
		"event_name", event.Name,
		"identity_id", identityID,
		"status", string(status),
	)
	return nil
}

// revokedStatusFor picks the stored status when the provider omits one.
func revokedStatusFor(eventName string) types.SubscriptionStatus {
	if eventName == EventSubscriptionExpired {
		return types.SubscriptionStatusExpired
	}
	return types.SubscriptionStatusCancelled
}

// storeFailure wraps a store error so the webhook endpoint answers 5xx and
// the provider redelivers.
func (d *Dispatcher) storeFailure(ctx context.Context, event *SubscriptionEvent, err error) error {
	d.logger.ErrorContext(ctx, "subscription state write failed",
		"event_name", event.Name,
		"subscription_id", event.SubscriptionID,
		"error", err,
	)
	if appErr, ok := err.(*types.AppError); ok && appErr.Code == types.ErrCodeInternalDB {
		return err
	}
	return types.NewAppError(types.ErrCodeInternalDB, "failed to persist subscription state", err)
}

// isNotFound reports whether err is the store's profile-not-found error.
func isNotFound(err error) bool {
	appErr, ok := err.(*types.AppError)
	return ok && appErr.Code == types.ErrCodeNotFoundProfile
}
