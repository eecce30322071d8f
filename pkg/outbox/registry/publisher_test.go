package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdfoods/restaurant-backend/pkg/config"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/outbox"
	"github.com/sdfoods/restaurant-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveOrderPlaced(t *testing.T) {
	reg := newTestEventRegistry(t)

	orderID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload: mustEnvelope(t, mustMarshal(t, payloads.OrderPlacedEvent{
			OrderID:    orderID,
			CustomerID: uuid.New(),
			TotalPrice: decimal.RequireFromString("47.50"),
			ItemCount:  2,
		})),
	}

	resolved, err := reg.Resolve(event)
	require.NoError(t, err)
	assert.Equal(t, "orders-topic", resolved.Descriptor.Topic)

	payload, ok := resolved.Payload.(*payloads.OrderPlacedEvent)
	require.True(t, ok, "unexpected payload type %T", resolved.Payload)
	assert.Equal(t, orderID, payload.OrderID)
	assert.True(t, payload.TotalPrice.Equal(decimal.RequireFromString("47.50")))
	assert.NotEmpty(t, resolved.Envelope.EventID)
	assert.False(t, resolved.Envelope.OccurredAt.IsZero())
}

func TestEventRegistryRoutesWalletEventsToWalletTopic(t *testing.T) {
	reg := newTestEventRegistry(t)

	desc, ok := reg.Descriptor(enums.EventWalletDeposit)
	require.True(t, ok)
	assert.Equal(t, "wallet-topic", desc.Topic)

	for _, eventType := range []enums.OutboxEventType{
		enums.EventOrderAccepted, enums.EventOrderReady, enums.EventOrderPickedUp,
		enums.EventOrderDelivered, enums.EventOrderCancelled, enums.EventBidApproved,
	} {
		desc, ok := reg.Descriptor(eventType)
		require.True(t, ok, "missing descriptor for %s", eventType)
		assert.Equal(t, "orders-topic", desc.Topic)
	}
}

func TestEventRegistryResolveFailuresAreNonRetryable(t *testing.T) {
	reg := newTestEventRegistry(t)

	cases := map[string]models.OutboxEvent{
		"unknown event": {
			EventType:     enums.OutboxEventType("order.teleported"),
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte(`{}`)),
		},
		"aggregate mismatch": {
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateBid,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte(`{}`)),
		},
		"missing aggregate id": {
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			Payload:       mustEnvelope(t, []byte(`{}`)),
		},
		"null payload": {
			EventType:     enums.EventBidApproved,
			AggregateType: enums.AggregateBid,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte("null")),
		},
		"broken envelope": {
			EventType:     enums.EventWalletDeposit,
			AggregateType: enums.AggregateWallet,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{"data":`),
		},
	}

	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(event)
			require.Error(t, err)
			var nonRetry NonRetryableError
			assert.True(t, errors.As(err, &nonRetry), "expected non-retryable error, got %T", err)
		})
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"})
	assert.Error(t, err)
	_, err = NewEventRegistry(config.PubSubConfig{WalletTopic: "wallet"})
	assert.Error(t, err)
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		OrdersTopic: "orders-topic",
		WalletTopic: "wallet-topic",
	})
	require.NoError(t, err)
	return reg
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	})
	require.NoError(t, err)
	return data
}
