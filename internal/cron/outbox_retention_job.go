package cron

import (
	"context"
	"fmt"
	"time"
)

const defaultOutboxRetention = 14 * 24 * time.Hour

type publishedEventPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type outboxRetentionJob struct {
	purger    publishedEventPurger
	retention time.Duration
	now       func() time.Time
}

// NewOutboxRetentionJob drops outbox rows that were published more than retention ago.
func NewOutboxRetentionJob(purger publishedEventPurger, retention time.Duration) (Job, error) {
	if purger == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &outboxRetentionJob{purger: purger, retention: retention, now: time.Now}, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) (int64, error) {
	return j.purger.DeletePublishedBefore(ctx, j.now().UTC().Add(-j.retention))
}
