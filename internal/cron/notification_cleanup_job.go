package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

type NotificationCleanupJobParams struct {
	Logger    *logger.Logger
	Purger    notificationPurger
	Retention time.Duration
}

// notificationPurger is satisfied by notifications.Service.
type notificationPurger interface {
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("notification purger required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultNotificationRetention
	}
	return &notificationCleanupJob{
		logg:      params.Logger,
		purger:    params.Purger,
		retention: retention,
	}, nil
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	purger    notificationPurger
	retention time.Duration
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.purger.PurgeRead(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_hours": j.retention.Hours(),
		"rows_deleted":    deleted,
	})
	j.logg.Info(logCtx, "read notifications purged")
	return nil
}
