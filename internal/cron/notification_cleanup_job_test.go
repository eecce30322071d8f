package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

func TestNotificationCleanupJobPurgesWithRetention(t *testing.T) {
	purger := &fakeNotificationPurger{deleted: 42}
	job := newNotificationCleanupJob(t, purger, 7*24*time.Hour)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if purger.lastRetention != 7*24*time.Hour {
		t.Fatalf("expected 168h retention, got %s", purger.lastRetention)
	}
	if purger.called != 1 {
		t.Fatalf("expected purger called once, got %d", purger.called)
	}
}

func TestNotificationCleanupJobDefaultsRetention(t *testing.T) {
	purger := &fakeNotificationPurger{}
	job := newNotificationCleanupJob(t, purger, 0)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if purger.lastRetention != defaultNotificationRetention {
		t.Fatalf("expected default retention, got %s", purger.lastRetention)
	}
}

func TestNotificationCleanupJobPropagatesErrors(t *testing.T) {
	purger := &fakeNotificationPurger{err: errors.New("boom")}
	job := newNotificationCleanupJob(t, purger, time.Hour)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNotificationCleanupJobRequiresPurger(t *testing.T) {
	if _, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected constructor error")
	}
}

func newNotificationCleanupJob(t *testing.T, purger *fakeNotificationPurger, retention time.Duration) *notificationCleanupJob {
	t.Helper()
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Purger:    purger,
		Retention: retention,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job, ok := jobIface.(*notificationCleanupJob)
	if !ok {
		t.Fatalf("expected notificationCleanupJob, got %T", jobIface)
	}
	return job
}

type fakeNotificationPurger struct {
	lastRetention time.Duration
	deleted       int64
	err           error
	called        int
}

func (f *fakeNotificationPurger) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.called++
	f.lastRetention = olderThan
	if f.err != nil {
		return 0, f.err
	}
	return f.deleted, nil
}
