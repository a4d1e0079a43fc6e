package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/users/internal/logging"
)

// Task is one periodic maintenance job.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// Janitor runs maintenance tasks on a fixed interval.
type Janitor struct {
	interval time.Duration
	tasks    []Task
	logger   logging.Logger
}

func NewJanitor(interval time.Duration, logger logging.Logger, tasks ...Task) *Janitor {
	return &Janitor{interval: interval, tasks: tasks, logger: logger.With("module", "janitor")}
}

// RunOnce runs every task once. A failing task does not stop the others.
func (j *Janitor) RunOnce(ctx context.Context) {
	for _, t := range j.tasks {
		n, err := t.Run(ctx)
		if err != nil {
			j.logger.Warn(ctx, "maintenance task failed", "task", t.Name, "error", err)
			continue
		}
		if n > 0 {
			j.logger.Info(ctx, "maintenance task done", "task", t.Name, "affected", n)
		}
	}
}

// Run calls RunOnce every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	t := time.NewTicker(j.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.RunOnce(ctx)
		}
	}
}
