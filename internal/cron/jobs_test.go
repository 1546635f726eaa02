package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingPurger struct {
	cutoff time.Time
	rows   int64
	err    error
}

func (r *recordingPurger) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.cutoff = cutoff
	return r.rows, r.err
}

func (r *recordingPurger) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.cutoff = cutoff
	return r.rows, r.err
}

type recordingSweeper struct {
	at   time.Time
	rows int64
}

func (r *recordingSweeper) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.at = now
	return r.rows, nil
}

var fixedNow = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func TestOverdueSweepJobPassesCurrentTime(t *testing.T) {
	sweeper := &recordingSweeper{rows: 4}
	jobIface, err := NewOverdueSweepJob(sweeper)
	if err != nil {
		t.Fatalf("NewOverdueSweepJob: %v", err)
	}
	job := jobIface.(*overdueSweepJob)
	job.now = func() time.Time { return fixedNow }

	rows, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rows != 4 {
		t.Fatalf("expected 4 rows, got %d", rows)
	}
	if !sweeper.at.Equal(fixedNow) {
		t.Fatalf("expected sweep at %s, got %s", fixedNow, sweeper.at)
	}
}

func TestNotificationCleanupJobCutoff(t *testing.T) {
	purger := &recordingPurger{rows: 12}
	jobIface, err := NewNotificationCleanupJob(purger, 0)
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job := jobIface.(*notificationCleanupJob)
	job.now = func() time.Time { return fixedNow }

	rows, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rows != 12 {
		t.Fatalf("expected 12 rows, got %d", rows)
	}
	if want := fixedNow.Add(-defaultNotificationRetention); !purger.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, purger.cutoff)
	}
}

func TestOutboxRetentionJobPropagatesErrors(t *testing.T) {
	purger := &recordingPurger{err: errors.New("boom")}
	job, err := NewOutboxRetentionJob(purger, 48*time.Hour)
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestJobConstructorsRequireDependencies(t *testing.T) {
	if _, err := NewOverdueSweepJob(nil); err == nil {
		t.Fatal("expected sweeper error")
	}
	if _, err := NewNotificationCleanupJob(nil, time.Hour); err == nil {
		t.Fatal("expected purger error")
	}
	if _, err := NewOutboxRetentionJob(nil, time.Hour); err == nil {
		t.Fatal("expected purger error")
	}
}
