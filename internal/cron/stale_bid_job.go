package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sdfoods/restaurant-backend/pkg/logger"
)

const defaultStaleBidAge = 48 * time.Hour

type StaleBidJobParams struct {
	Logger  *logger.Logger
	Expirer bidExpirer
	Age     time.Duration
}

// bidExpirer is satisfied by bids.Service.
type bidExpirer interface {
	ExpireOrphaned(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NewStaleBidJob rejects pending bids left on orders that already have a
// driver or were cancelled.
func NewStaleBidJob(params StaleBidJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("bid expirer required")
	}
	age := params.Age
	if age <= 0 {
		age = defaultStaleBidAge
	}
	return &staleBidJob{logg: params.Logger, expirer: params.Expirer, age: age}, nil
}

type staleBidJob struct {
	logg    *logger.Logger
	expirer bidExpirer
	age     time.Duration
}

func (j *staleBidJob) Name() string { return "stale-bids" }

func (j *staleBidJob) Run(ctx context.Context) error {
	expired, err := j.expirer.ExpireOrphaned(ctx, j.age)
	if err != nil {
		return fmt.Errorf("stale bids: %w", err)
	}
	if expired == 0 {
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"age_hours":    j.age.Hours(),
		"bids_expired": expired,
	})
	j.logg.Warn(logCtx, "orphaned bids rejected")
	return nil
}
