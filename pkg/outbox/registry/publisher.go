package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sdfoods/restaurant-backend/pkg/config"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/outbox"
	"github.com/sdfoods/restaurant-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}
	if cfg.WalletTopic == "" {
		return nil, fmt.Errorf("wallet topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	statusChanged := func() any { return &payloads.OrderStatusChangedEvent{} }

	for _, desc := range []EventDescriptor{
		{EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder, Topic: cfg.OrdersTopic, PayloadFactory: func() any { return &payloads.OrderPlacedEvent{} }},
		{EventType: enums.EventOrderAccepted, AggregateType: enums.AggregateOrder, Topic: cfg.OrdersTopic, PayloadFactory: statusChanged},
		{EventType: enums.EventOrderReady, AggregateType: enums.AggregateOrder, Topic: cfg.OrdersTopic, PayloadFactory: statusChanged},
		{EventType: enums.EventOrderPickedUp, AggregateType: enums.AggregateOrder, Topic: cfg.OrdersTopic, PayloadFactory: statusChanged},
		{EventType: enums.EventOrderDelivered, AggregateType: enums.AggregateOrder, Topic: cfg.OrdersTopic, PayloadFactory: statusChanged},
		{EventType: enums.EventOrderCancelled, AggregateType: enums.AggregateOrder, Topic: cfg.OrdersTopic, PayloadFactory: func() any { return &payloads.OrderCancelledEvent{} }},
		{EventType: enums.EventBidApproved, AggregateType: enums.AggregateBid, Topic: cfg.OrdersTopic, PayloadFactory: func() any { return &payloads.BidApprovedEvent{} }},
		{EventType: enums.EventWalletDeposit, AggregateType: enums.AggregateWallet, Topic: cfg.WalletTopic, PayloadFactory: func() any { return &payloads.WalletDepositedEvent{} }},
	} {
		reg.register(desc)
	}
	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Descriptor returns the registered descriptor for an event type.
func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	desc, ok := r.entries[eventType]
	return desc, ok
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	envelope, payload, err := r.DecodeEnvelope(event.EventType, event.Payload)
	if err != nil {
		return nil, err
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

// DecodeEnvelope parses a published message body into its envelope and typed
// payload. Consumers use it on the receive side.
func (r *EventRegistry) DecodeEnvelope(eventType enums.OutboxEventType, body []byte) (outbox.PayloadEnvelope, any, error) {
	var envelope outbox.PayloadEnvelope
	desc, ok := r.entries[eventType]
	if !ok {
		return envelope, nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", eventType))
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return envelope, nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return envelope, nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", eventType))
	}
	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return envelope, nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", eventType, err))
	}
	return envelope, payload, nil
}
