package router

import (
	"context"
	"encoding/json"
	"fmt"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/sdfoods/restaurant-backend/internal/analytics/types"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/outbox/payloads"
)

type orderPlacedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderPlacedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderPlacedHandler{writer: writer, logg: logg}
}

func (h *orderPlacedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderPlacedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", payload, envelope.EventType)
	}
	row := baseRow(envelope)
	row.OrderID = event.OrderID.String()
	row.CustomerID = uuidPtr(&event.CustomerID)
	row.Subtotal = numeric(event.Subtotal)
	row.Discount = numeric(event.Discount)
	row.Total = numeric(event.TotalPrice)
	row.ItemCount = int64Ptr(int64(event.ItemCount))
	row.IsVIP = boolPtr(event.IsVIP)
	if !event.PlacedAt.IsZero() {
		row.OccurredAt = event.PlacedAt.UTC()
	}
	return h.writer.InsertOrderEvent(ctx, row)
}

type orderStatusHandler struct {
	writer Writer
	logg   *logger.Logger
}

// newOrderStatusHandler covers accepted, ready, picked up and delivered.
func newOrderStatusHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderStatusHandler{writer: writer, logg: logg}
}

func (h *orderStatusHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", payload, envelope.EventType)
	}
	row := baseRow(envelope)
	row.OrderID = event.OrderID.String()
	row.CustomerID = uuidPtr(&event.CustomerID)
	row.ActorID = uuidPtr(event.ActorID)
	row.FromStatus = stringPtr(string(event.From))
	row.ToStatus = stringPtr(string(event.To))
	if !event.ChangedAt.IsZero() {
		row.OccurredAt = event.ChangedAt.UTC()
	}
	return h.writer.InsertOrderEvent(ctx, row)
}

type orderCancelledHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCancelledHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCancelledHandler{writer: writer, logg: logg}
}

func (h *orderCancelledHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCancelledEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", payload, envelope.EventType)
	}
	row := baseRow(envelope)
	row.OrderID = event.OrderID.String()
	row.CustomerID = uuidPtr(&event.CustomerID)
	row.ActorID = uuidPtr(event.CancelledBy)
	row.FromStatus = stringPtr(string(event.From))
	row.ToStatus = stringPtr(string(enums.OrderStatusCancelled))
	row.Refunded = numeric(event.Refunded)
	if !event.CancelledAt.IsZero() {
		row.OccurredAt = event.CancelledAt.UTC()
	}
	return h.writer.InsertOrderEvent(ctx, row)
}

type bidApprovedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newBidApprovedHandler(writer Writer, logg *logger.Logger) Handler {
	return &bidApprovedHandler{writer: writer, logg: logg}
}

func (h *bidApprovedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.BidApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", payload, envelope.EventType)
	}
	row := baseRow(envelope)
	row.OrderID = event.OrderID.String()
	row.DriverID = uuidPtr(&event.DriverID)
	row.BidAmount = numeric(event.Amount)
	if event.Justification != "" {
		logCtx := h.logg.WithFields(ctx, map[string]any{
			"order_id": event.OrderID,
			"bid_id":   event.BidID,
		})
		h.logg.Info(logCtx, "bid approved above lowest offer")
	}
	if !event.ApprovedAt.IsZero() {
		row.OccurredAt = event.ApprovedAt.UTC()
	}
	return h.writer.InsertOrderEvent(ctx, row)
}

func rawJSON(payload json.RawMessage) cbigquery.NullJSON {
	if len(payload) == 0 {
		return cbigquery.NullJSON{}
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(payload)}
}
