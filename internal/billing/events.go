package billing

import (
	"encoding/json"
	"strings"

	"presskit/internal/types"
)

// Recognized subscription event names. The provider's vocabulary is larger;
// everything outside this set is acknowledged and ignored so the provider
// does not retry deliveries this service intentionally skips.
const (
	EventSubscriptionCreated   = "subscription_created"
	EventSubscriptionUpdated   = "subscription_updated"
	EventSubscriptionResumed   = "subscription_resumed"
	EventSubscriptionCancelled = "subscription_cancelled"
	EventSubscriptionExpired   = "subscription_expired"
)

// SubscriptionEvent is the parsed form of a verified webhook delivery,
// reduced to the fields the dispatcher routes on. Created per delivery and
// discarded after dispatch; never persisted directly.
type SubscriptionEvent struct {
	Name           string
	IdentityID     string
	SubscriptionID string
	Status         types.SubscriptionStatus
	VariantID      string
}

// webhookPayload is the provider's envelope: event name and our correlation
// metadata under meta, subscription resource under data. Only the fields the
// dispatcher needs are decoded; no downstream code indexes into untyped maps.
type webhookPayload struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID string `json:"user_id"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status    string      `json:"status"`
			VariantID json.Number `json:"variant_id"`
		} `json:"attributes"`
	} `json:"data"`
}

// ParseEvent decodes a verified raw webhook body into a SubscriptionEvent.
// A body that is not JSON or carries no event name is a structurally invalid
// payload, regardless of its signature.
func ParseEvent(rawBody []byte) (*SubscriptionEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationPayload, "webhook body is not valid JSON", err)
	}

	name := strings.TrimSpace(payload.Meta.EventName)
	if name == "" {
		return nil, types.NewAppError(types.ErrCodeValidationPayload, "webhook body carries no event name", nil)
	}

	return &SubscriptionEvent{
		Name:           name,
		IdentityID:     strings.TrimSpace(payload.Meta.CustomData.UserID),
		SubscriptionID: payload.Data.ID,
		Status:         types.SubscriptionStatus(payload.Data.Attributes.Status),
		VariantID:      payload.Data.Attributes.VariantID.String(),
	}, nil
}
