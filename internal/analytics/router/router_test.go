package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdfoods/restaurant-backend/internal/analytics/types"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/outbox/payloads"
)

func TestRouterUnsupportedEvent(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	env := types.Envelope{
		EventType: enums.EventWalletDeposit,
		Payload:   []byte(`{"foo":"bar"}`),
	}
	err := router.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestRouterRoutesToOverride(t *testing.T) {
	handler := &stubHandler{}
	router, _ := newTestRouter(t, map[enums.OutboxEventType]Handler{
		enums.EventOrderPlaced: handler,
	})
	data, _ := json.Marshal(payloads.OrderPlacedEvent{OrderID: uuid.New()})
	env := types.Envelope{EventType: enums.EventOrderPlaced, Payload: data}
	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handler.called {
		t.Fatalf("handler not invoked")
	}
}

func TestRouterRejectsEmptyPayload(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	err := router.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderReady})
	require.Error(t, err)
	assert.Empty(t, writer.inserted)
}

func TestOrderPlacedRowCarriesAmounts(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	placedAt := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	event := payloads.OrderPlacedEvent{
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		Subtotal:   decimal.RequireFromString("40.00"),
		Discount:   decimal.RequireFromString("2.00"),
		TotalPrice: decimal.RequireFromString("38.00"),
		ItemCount:  3,
		IsVIP:      true,
		PlacedAt:   placedAt,
	}
	data, _ := json.Marshal(event)

	err := router.Handle(context.Background(), types.Envelope{
		EventID:   "evt-1",
		EventType: enums.EventOrderPlaced,
		Payload:   data,
	})
	require.NoError(t, err)
	require.Len(t, writer.inserted, 1)

	row := writer.inserted[0]
	assert.Equal(t, "evt-1", row.EventID)
	assert.Equal(t, "order.placed", row.EventType)
	assert.Equal(t, event.OrderID.String(), row.OrderID)
	assert.Equal(t, placedAt, row.OccurredAt)
	assert.Equal(t, "38", row.Total.RatString())
	assert.Equal(t, "2", row.Discount.RatString())
	assert.Equal(t, int64(3), *row.ItemCount)
	assert.True(t, *row.IsVIP)
	assert.True(t, row.Payload.Valid)
}

func TestStatusEventsShareHandler(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	driver := uuid.New()
	for _, tc := range []struct {
		event    enums.OutboxEventType
		from, to enums.OrderStatus
	}{
		{enums.EventOrderPickedUp, enums.OrderStatusReadyForDelivery, enums.OrderStatusOutForDelivery},
		{enums.EventOrderDelivered, enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered},
	} {
		data, _ := json.Marshal(payloads.OrderStatusChangedEvent{
			OrderID: uuid.New(),
			From:    tc.from,
			To:      tc.to,
			ActorID: &driver,
		})
		require.NoError(t, router.Handle(context.Background(), types.Envelope{EventType: tc.event, Payload: data}))
	}

	require.Len(t, writer.inserted, 2)
	assert.Equal(t, string(enums.OrderStatusDelivered), *writer.inserted[1].ToStatus)
	assert.Equal(t, driver.String(), *writer.inserted[1].ActorID)
	assert.Nil(t, writer.inserted[1].Total)
}

func TestOrderCancelledRowRecordsRefund(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	data, _ := json.Marshal(payloads.OrderCancelledEvent{
		OrderID:  uuid.New(),
		From:     enums.OrderStatusPending,
		Refunded: decimal.RequireFromString("12.50"),
	})
	require.NoError(t, router.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderCancelled, Payload: data}))

	require.Len(t, writer.inserted, 1)
	row := writer.inserted[0]
	assert.Equal(t, "25/2", row.Refunded.RatString())
	assert.Equal(t, string(enums.OrderStatusCancelled), *row.ToStatus)
	assert.Nil(t, row.ActorID)
}

func newTestRouter(t *testing.T, overrides map[enums.OutboxEventType]Handler) (*Router, *fakeWriter) {
	t.Helper()
	writer := &fakeWriter{}
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test"}), overrides)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return router, writer
}

type stubHandler struct {
	called bool
}

func (s *stubHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	s.called = true
	return nil
}
