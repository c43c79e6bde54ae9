package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is what the scheduler triggers. RunOnce must not block; it reports
// whether a run was actually started.
type Job interface {
	RunOnce() bool
}

// Scheduler triggers a Job on a cron spec and once at startup.
type Scheduler struct {
	cron   *cron.Cron
	job    Job
	logger *slog.Logger
	entry  cron.EntryID

	// StartupDelay postpones the first run after Start; zero runs it
	// immediately.
	StartupDelay time.Duration
}

// New registers job on spec, a standard five-field cron expression.
func New(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New()

	s := &Scheduler{
		cron:   c,
		job:    job,
		logger: logger,
	}

	id, err := c.AddFunc(spec, s.trigger)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}
	s.entry = id

	return s, nil
}

// Start begins periodic triggering and fires the first run.
func (s *Scheduler) Start() {
	s.cron.Start()
	if s.StartupDelay <= 0 {
		s.trigger()
		return
	}
	time.AfterFunc(s.StartupDelay, s.trigger)
}

// Stop halts future triggers and waits for a running cron callback to return
// or ctx to expire. Runs already started by the Job are not interrupted.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports when the job will next be triggered; zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Cron exposes the underlying cron so callers can add more jobs.
func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

func (s *Scheduler) trigger() {
	if s.job.RunOnce() {
		s.logger.Info("harvest triggered")
	}
}
