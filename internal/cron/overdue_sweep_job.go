package cron

import (
	"context"
	"fmt"
	"time"
)

type overdueSweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (int64, error)
}

type overdueSweepJob struct {
	sweeper overdueSweeper
	now     func() time.Time
}

// NewOverdueSweepJob flips accepted pay-later pre-orders past their due date to overdue.
func NewOverdueSweepJob(sweeper overdueSweeper) (Job, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("preorder sweeper required")
	}
	return &overdueSweepJob{sweeper: sweeper, now: time.Now}, nil
}

func (j *overdueSweepJob) Name() string { return "preorder-overdue-sweep" }

func (j *overdueSweepJob) Run(ctx context.Context) (int64, error) {
	return j.sweeper.SweepOverdue(ctx, j.now().UTC())
}
