// Package scheduler fires the agent's collection run on a cron cadence,
// gated to terminal work hours. Outside the gate the tick is skipped,
// not queued.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc is called for each scheduled run that passes the gate.
type RunFunc func(ctx context.Context)

// WorkHours is the daily gate window, [Start, End) in local hours.
type WorkHours struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w WorkHours) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.Start && h < w.End
}

// Scheduler owns the cron loop for the single recurring run.
type Scheduler struct {
	cron   *cron.Cron
	hours  WorkHours
	runFn  RunFunc
	logger *slog.Logger
	now    func() time.Time
}

// New builds a scheduler from a cron expression (5 fields, or @every).
func New(spec string, hours WorkHours, runFn RunFunc, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(),
		hours:  hours,
		runFn:  runFn,
		logger: logger,
		now:    time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins the cron loop. Blocks until the context is cancelled,
// then waits for a running job to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("scheduler started",
		"work_start", s.hours.Start, "work_end", s.hours.End)

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) tick() {
	now := s.now()
	if !s.hours.Contains(now) {
		s.logger.Info("outside work hours, run skipped", "hour", now.Hour())
		return
	}
	s.runFn(context.Background())
}
