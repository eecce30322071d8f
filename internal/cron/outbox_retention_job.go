package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"go.uber.org/multierr"
)

const defaultOutboxRetention = 30 * 24 * time.Hour

type OutboxRetentionJobParams struct {
	Logger    *logger.Logger
	Outbox    publishedPruner
	DLQ       deadLetterPruner
	Retention time.Duration
}

// publishedPruner is satisfied by *outbox.Repository.
type publishedPruner interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// deadLetterPruner is satisfied by *outbox.DLQRepository.
type deadLetterPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		outbox:    params.Outbox,
		dlq:       params.DLQ,
		retention: retention,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	outbox    publishedPruner
	dlq       deadLetterPruner
	retention time.Duration
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run prunes both tables even when one of them fails.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)

	published, pubErr := j.outbox.DeletePublishedBefore(ctx, cutoff)
	if pubErr != nil {
		pubErr = fmt.Errorf("outbox retention: %w", pubErr)
	}
	var dead int64
	var dlqErr error
	if j.dlq != nil {
		dead, dlqErr = j.dlq.DeleteBefore(ctx, cutoff)
		if dlqErr != nil {
			dlqErr = fmt.Errorf("dlq retention: %w", dlqErr)
		}
	}
	if err := multierr.Append(pubErr, dlqErr); err != nil {
		return err
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":            cutoff,
		"published_deleted": published,
		"dlq_deleted":       dead,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}
