package cron

import (
	"context"
	"fmt"
	"time"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

type readNotificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationCleanupJob struct {
	purger    readNotificationPurger
	retention time.Duration
	now       func() time.Time
}

// NewNotificationCleanupJob deletes read notifications older than retention.
func NewNotificationCleanupJob(purger readNotificationPurger, retention time.Duration) (Job, error) {
	if purger == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if retention <= 0 {
		retention = defaultNotificationRetention
	}
	return &notificationCleanupJob{purger: purger, retention: retention, now: time.Now}, nil
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) (int64, error) {
	return j.purger.DeleteReadBefore(ctx, j.now().UTC().Add(-j.retention))
}
