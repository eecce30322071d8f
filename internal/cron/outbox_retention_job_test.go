package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

func TestOutboxRetentionJobPrunesBothTables(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	outboxRepo := &fakeRetentionRepo{rows: 10}
	dlqRepo := &fakeRetentionRepo{rows: 2}
	job := newOutboxRetentionJob(t, outboxRepo, dlqRepo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-defaultOutboxRetention)
	if !outboxRepo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, outboxRepo.lastCutoff)
	}
	if !dlqRepo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected dlq cutoff %s, got %s", expectedCutoff, dlqRepo.lastCutoff)
	}
}

func TestOutboxRetentionJobStillPrunesDLQWhenOutboxFails(t *testing.T) {
	outboxRepo := &fakeRetentionRepo{err: errors.New("boom")}
	dlqRepo := &fakeRetentionRepo{}
	job := newOutboxRetentionJob(t, outboxRepo, dlqRepo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if dlqRepo.called != 1 {
		t.Fatalf("expected dlq prune despite outbox failure, got %d calls", dlqRepo.called)
	}
}

func TestOutboxRetentionJobWithoutDLQ(t *testing.T) {
	outboxRepo := &fakeRetentionRepo{}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger: logger.Nop(),
		Outbox: outboxRepo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outboxRepo.called != 1 {
		t.Fatalf("expected outbox pruned once, got %d", outboxRepo.called)
	}
}

func newOutboxRetentionJob(t *testing.T, outboxRepo, dlqRepo *fakeRetentionRepo) *outboxRetentionJob {
	t.Helper()
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Outbox: outboxRepo,
		DLQ:    dlqRepo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job, ok := jobIface.(*outboxRetentionJob)
	if !ok {
		t.Fatalf("expected outboxRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeRetentionRepo struct {
	lastCutoff time.Time
	rows       int64
	err        error
	called     int
}

func (f *fakeRetentionRepo) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.delete(cutoff)
}

func (f *fakeRetentionRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.delete(cutoff)
}

func (f *fakeRetentionRepo) delete(cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.rows, nil
}
