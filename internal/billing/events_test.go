package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presskit/internal/types"
)

func TestParseEvent_FullPayload(t *testing.T) {
	raw := []byte(`{
		"meta": {
			"event_name": "subscription_created",
			"custom_data": {"user_id": "user_1"}
		},
		"data": {
			"id": "sub_100",
			"attributes": {"status": "active", "variant_id": 42}
		}
	}`)

	event, err := ParseEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, EventSubscriptionCreated, event.Name)
	assert.Equal(t, "user_1", event.IdentityID)
	assert.Equal(t, "sub_100", event.SubscriptionID)
	assert.Equal(t, types.SubscriptionStatusActive, event.Status)
	assert.Equal(t, "42", event.VariantID)
}

func TestParseEvent_MissingCustomData(t *testing.T) {
	raw := []byte(`{
		"meta": {"event_name": "subscription_cancelled"},
		"data": {"id": "sub_100", "attributes": {"status": "cancelled"}}
	}`)

	event, err := ParseEvent(raw)
	require.NoError(t, err)

	assert.Empty(t, event.IdentityID)
	assert.Equal(t, "sub_100", event.SubscriptionID)
}

func TestParseEvent_NotJSON(t *testing.T) {
	_, err := ParseEvent([]byte("definitely not json"))
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationPayload, appErr.Code)
}

func TestParseEvent_NoEventName(t *testing.T) {
	_, err := ParseEvent([]byte(`{"meta":{},"data":{"id":"sub_1"}}`))
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationPayload, appErr.Code)
}

func TestParseEvent_UnknownNamePassesThrough(t *testing.T) {
	event, err := ParseEvent([]byte(`{"meta":{"event_name":"order_created"},"data":{"id":"ord_1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "order_created", event.Name)
}
