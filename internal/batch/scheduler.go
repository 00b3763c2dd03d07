package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brightnest/reliability/pkg/logger"
)

// Nightly recompute runs off-peak by default.
const defaultSchedule = "0 2 * * *"

// SchedulerOption applies a configuration option to the Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedule sets the cron expression (standard five-field format).
func WithSchedule(expr string) SchedulerOption {
	return func(s *Scheduler) {
		if expr != "" {
			s.expr = expr
		}
	}
}

// WithSchedulerLogger sets a custom logger for the scheduler.
func WithSchedulerLogger(l logger.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scheduler triggers the runner on a cron schedule.
type Scheduler struct {
	expr   string
	runner *Runner
	cron   *cron.Cron
	logger logger.Logger
}

// NewScheduler creates a Scheduler around runner.
func NewScheduler(runner *Runner, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		expr:   defaultSchedule,
		runner: runner,
		cron:   cron.New(),
		logger: logger.Get().Named("scheduler"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start validates the schedule and begins triggering runs. The provided ctx
// bounds every scheduled run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(s.expr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, s.expr, err)
	}

	_, err := s.cron.AddFunc(s.expr, func() {
		report := s.runner.Run(ctx)
		s.logger.Info(ctx, "scheduled batch run completed",
			logger.String("run_id", report.RunID),
			logger.Int("successful", report.SuccessfulUpdates),
			logger.Int("errors", len(report.Errors)),
		)
	})
	if err != nil {
		return fmt.Errorf("registering batch schedule: %w", err)
	}

	s.cron.Start()
	s.logger.Info(ctx, "batch scheduler started", logger.String("schedule", s.expr))
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// NextRun returns the next scheduled run time.
func (s *Scheduler) NextRun() time.Time {
	sched, err := cron.ParseStandard(s.expr)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(time.Now())
}
