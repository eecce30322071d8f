package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/outbox/registry"
)

// verdict is what happens to one outbox row after a publish attempt.
type verdict int

const (
	verdictPublished verdict = iota
	verdictRetry
	verdictDeadLetter
)

type delivery struct {
	event   models.OutboxEvent
	topic   string
	eventID string
	verdict verdict
	reason  enums.OutboxDLQErrorReason
	err     error
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		processed = len(rows) > 0
		for _, row := range rows {
			if err := s.settle(ctx, tx, s.deliver(ctx, row)); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

// deliver resolves and publishes a row without touching the database.
func (s *Service) deliver(ctx context.Context, row models.OutboxEvent) delivery {
	d := delivery{event: row}

	resolved, err := s.registry.Resolve(row)
	if err != nil {
		d.verdict, d.reason, d.err = verdictDeadLetter, enums.OutboxDLQReasonNonRetryable, err
		return d
	}
	d.topic = resolved.Descriptor.Topic
	d.eventID = resolved.Envelope.EventID

	err = s.publish(ctx, row, d.topic, d.eventID)
	var nonRetry registry.NonRetryableError
	switch {
	case err == nil:
		d.verdict = verdictPublished
	case errors.As(err, &nonRetry):
		d.verdict, d.reason, d.err = verdictDeadLetter, enums.OutboxDLQReasonNonRetryable, err
	case row.AttemptCount+1 >= s.maxAttempts:
		d.verdict, d.reason = verdictDeadLetter, enums.OutboxDLQReasonMaxAttempts
		d.err = fmt.Errorf("max publish attempts reached: %w", err)
	default:
		d.verdict, d.err = verdictRetry, err
	}
	return d
}

// settle writes the row status (and DLQ entry) for a delivery.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, d delivery) error {
	id := d.event.ID
	logCtx := s.logg.WithFields(ctx, s.logFields(d))

	switch d.verdict {
	case verdictPublished:
		if err := s.repo.MarkPublishedTx(tx, id); err != nil {
			return fmt.Errorf("mark published %s: %w", id, err)
		}
		s.metrics.OutboxDispatch(string(d.event.EventType), "published")
		s.logg.Info(logCtx, "outbox event published")

	case verdictRetry:
		s.logg.Warn(logCtx, "outbox publish failed")
		if err := s.repo.MarkFailedTx(tx, id, d.err); err != nil {
			return fmt.Errorf("mark failure %s: %w", id, err)
		}
		s.metrics.OutboxDispatch(string(d.event.EventType), "failed")

	case verdictDeadLetter:
		s.logg.Warn(logCtx, "outbox event will not be retried")
		msg := d.err.Error()
		entry := models.OutboxDLQ{
			EventID:       id,
			EventType:     d.event.EventType,
			AggregateType: d.event.AggregateType,
			AggregateID:   d.event.AggregateID,
			Payload:       d.event.Payload,
			ErrorReason:   d.reason,
			ErrorMessage:  &msg,
			AttemptCount:  d.event.AttemptCount,
			FailedAt:      time.Now().UTC(),
		}
		if err := s.dlq.InsertTx(tx, entry); err != nil {
			return fmt.Errorf("insert dlq %s: %w", id, err)
		}
		if err := s.repo.MarkTerminalTx(tx, id, d.err, s.maxAttempts); err != nil {
			return fmt.Errorf("mark terminal %s: %w", id, err)
		}
		s.metrics.OutboxDispatch(string(d.event.EventType), "dlq")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, row models.OutboxEvent, topic, eventID string) error {
	pub := s.publisherFactory(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := pub.Publish(ctx, &gcppubsub.Message{
		Data: row.Payload,
		// Attribute names are read back by the analytics worker.
		Attributes: map[string]string{
			"event_id":       eventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(ctx)
	return err
}

func (s *Service) logFields(d delivery) map[string]any {
	fields := map[string]any{
		"outboxId":      d.event.ID.String(),
		"eventType":     d.event.EventType,
		"aggregateType": d.event.AggregateType,
		"aggregateId":   d.event.AggregateID.String(),
		"attemptCount":  d.event.AttemptCount,
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	if d.eventID != "" {
		fields["eventId"] = d.eventID
	}
	if d.err != nil {
		fields["error"] = d.err.Error()
	}
	if d.verdict == verdictDeadLetter {
		fields["dlqReason"] = d.reason
	}
	return fields
}
