package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/sdfoods/restaurant-backend/internal/analytics/router"
	"github.com/sdfoods/restaurant-backend/internal/analytics/types"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/outbox"
)

func TestBuildEnvelope(t *testing.T) {
	eventID := uuid.NewString()
	payload := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Data:       json.RawMessage(`{"order_id":"ord-1"}`),
	}
	msg := buildMessage(payload, map[string]string{
		"event_type":     "order.ready",
		"aggregate_type": "order",
		"aggregate_id":   "ord-1",
	})

	env, err := buildEnvelope(msg)
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if env.EventType != enums.EventOrderReady {
		t.Fatalf("unexpected event type %v", env.EventType)
	}
	if env.AggregateType != enums.AggregateOrder {
		t.Fatalf("unexpected aggregate type %v", env.AggregateType)
	}
	if env.EventID != eventID {
		t.Fatalf("unexpected event id %s", env.EventID)
	}
	if !env.OccurredAt.Equal(payload.OccurredAt) {
		t.Fatalf("unexpected occurred at %v", env.OccurredAt)
	}
}

func TestBuildEnvelopeFallsBackToAttributes(t *testing.T) {
	eventID := uuid.NewString()
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	msg := buildMessage(outbox.PayloadEnvelope{Data: json.RawMessage(`{}`)}, map[string]string{
		"event_id":       eventID,
		"event_type":     "order.placed",
		"aggregate_type": "order",
		"aggregate_id":   "ord-2",
		"created_at":     created.Format(time.RFC3339Nano),
	})

	env, err := buildEnvelope(msg)
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if env.EventID != eventID || !env.OccurredAt.Equal(created) {
		t.Fatalf("attributes not used: %+v", env)
	}
}

func TestProcessAlreadyProcessed(t *testing.T) {
	guard := &stubGuard{seen: true}
	handler := &stubHandler{}
	svc := newTestService(handler, guard)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	if res.nack {
		t.Fatalf("expected ack, got nack")
	}
	if handler.called {
		t.Fatal("handler should not be invoked when already processed")
	}
	if len(guard.checked) != 1 {
		t.Fatalf("expected check once, got %d", len(guard.checked))
	}
}

func TestProcessHandlerErrorRetries(t *testing.T) {
	guard := &stubGuard{}
	handler := &stubHandler{err: errors.New("boom")}
	svc := newTestService(handler, guard)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	if !res.nack {
		t.Fatalf("expected nack on handler error")
	}
	if !handler.called {
		t.Fatal("handler should be invoked")
	}
	if guard.released != 1 {
		t.Fatalf("expected marker released on failure")
	}
}

func TestProcessGuardFailureNacks(t *testing.T) {
	guard := &stubGuard{err: errors.New("redis down")}
	handler := &stubHandler{}
	svc := newTestService(handler, guard)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	if !res.nack {
		t.Fatal("expected nack when idempotency store fails")
	}
	if handler.called {
		t.Fatal("handler should not run without a marker")
	}
}

func TestProcessInvalidEnvelope(t *testing.T) {
	guard := &stubGuard{}
	handler := &stubHandler{}
	svc := newTestService(handler, guard)

	res := svc.process(context.Background(), &gcppubsub.Message{Data: []byte("invalid json")})
	if res.nack {
		t.Fatalf("invalid envelope should ack")
	}
	if handler.called {
		t.Fatal("handler should not be invoked")
	}
	if len(guard.checked) != 0 {
		t.Fatalf("idempotency guard should not be touched")
	}
}

func TestProcessUnsupportedEventKeepsMarker(t *testing.T) {
	guard := &stubGuard{}
	handler := &stubHandler{err: router.ErrUnsupportedEventType}
	svc := newTestService(handler, guard)

	res := svc.process(context.Background(), buildAnalyticsMessage(t))
	if res.nack {
		t.Fatalf("unsupported event should ack")
	}
	if guard.released != 0 {
		t.Fatalf("marker should not be released")
	}
}

func buildAnalyticsMessage(t *testing.T) *gcppubsub.Message {
	t.Helper()
	payload := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"foo":"bar"}`),
	}
	return buildMessage(payload, map[string]string{
		"event_type":     "order.placed",
		"aggregate_type": "order",
		"aggregate_id":   "abc-123",
	})
}

func buildMessage(payload outbox.PayloadEnvelope, attrs map[string]string) *gcppubsub.Message {
	data, _ := json.Marshal(payload)
	return &gcppubsub.Message{
		ID:         "msg-1",
		Data:       data,
		Attributes: attrs,
	}
}

func newTestService(handler Handler, guard *stubGuard) *Service {
	return &Service{
		handler: handler,
		guard:   guard,
		logg:    logger.New(logger.Options{ServiceName: "analytics-test"}),
	}
}

type stubHandler struct {
	called   bool
	envelope types.Envelope
	err      error
}

func (h *stubHandler) Handle(ctx context.Context, envelope types.Envelope) error {
	h.called = true
	h.envelope = envelope
	return h.err
}

// stubGuard mirrors idempotency.Manager.Once without redis.
type stubGuard struct {
	seen     bool
	err      error
	checked  []uuid.UUID
	released int
}

func (s *stubGuard) Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error) {
	s.checked = append(s.checked, eventID)
	if s.err != nil {
		return false, s.err
	}
	if s.seen {
		return false, nil
	}
	if err := fn(ctx); err != nil {
		s.released++
		return true, err
	}
	return true, nil
}
