// Package batch runs the nightly score recompute across all active cleaners.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightnest/reliability/internal/adapters/events"
	"github.com/brightnest/reliability/internal/domain/model"
	"github.com/brightnest/reliability/internal/domain/tier"
	"github.com/brightnest/reliability/pkg/logger"
	"github.com/brightnest/reliability/pkg/metrics"
)

// ProfileLister yields the batch population.
type ProfileLister interface {
	ActiveProfiles(ctx context.Context) ([]model.CleanerProfile, error)
}

// Updater recomputes and persists one cleaner's score.
type Updater interface {
	Recompute(ctx context.Context, email string) (model.ScoreResult, error)
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithWorkerCount bounds the number of concurrent per-cleaner updates.
func WithWorkerCount(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner iterates active cleaners through a bounded worker pool with
// per-item failure isolation. Cleaners are independent units of work; the
// only ordering kept is within one cleaner: compute, persist, then emit.
type Runner struct {
	profiles ProfileLister
	updater  Updater
	emitter  events.Emitter
	tiers    *tier.Table
	workers  int
	logger   logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(profiles ProfileLister, updater Updater, emitter events.Emitter, tiers *tier.Table, opts ...Option) *Runner {
	r := &Runner{
		profiles: profiles,
		updater:  updater,
		emitter:  emitter,
		tiers:    tiers,
		workers:  runtime.NumCPU(),
		logger:   logger.Get().Named("batch"),
	}

	for _, opt := range opts {
		opt(r)
	}

	metrics.UpdateBatchWorkerCount(r.workers)

	return r
}

// Run executes one batch recompute. It never returns an error: a fatal
// failure (the profile listing itself) is recorded in the report, and
// per-cleaner failures land in the report's error list without stopping the
// rest of the run.
func (r *Runner) Run(ctx context.Context) model.BatchRunReport {
	report := model.BatchRunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	r.logger.Info(ctx, "batch run starting", logger.String("run_id", report.RunID))

	profiles, err := r.profiles.ActiveProfiles(ctx)
	if err != nil {
		report.Errors = append(report.Errors, model.BatchError{
			Message: fmt.Sprintf("listing active profiles: %v", err),
			Fatal:   true,
		})
		report.CompletedAt = time.Now().UTC()
		metrics.RecordBatchFatal()
		r.logger.Error(ctx, "batch run failed before processing", logger.String("run_id", report.RunID), logger.Err(err))
		return report
	}

	report.TotalProcessed = len(profiles)
	metrics.UpdateActiveProfiles(len(profiles))

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		byTier = make(map[string]int)
		jobs   = make(chan string)
	)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for email := range jobs {
				res, procErr := r.process(ctx, email)

				mu.Lock()
				if procErr != nil {
					report.Errors = append(report.Errors, model.BatchError{
						CleanerEmail: email,
						Message:      procErr.Error(),
					})
				} else {
					report.SuccessfulUpdates++
					byTier[res.NewTier]++
					if res.TierChanged {
						report.TierChanges++
					}
				}
				mu.Unlock()
			}
		}()
	}

	dispatched := 0
feed:
	for _, p := range profiles {
		select {
		case jobs <- p.UserEmail:
			dispatched++
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// Workers are done; the report is safe to touch without mu from here on.
	if skipped := len(profiles) - dispatched; ctx.Err() != nil && skipped > 0 {
		report.Errors = append(report.Errors, model.BatchError{
			Message: fmt.Sprintf("run cancelled with %d cleaners unprocessed: %v", skipped, ctx.Err()),
		})
	}

	for name, count := range byTier {
		metrics.UpdateCleanersByTier(name, count)
	}

	if err := r.emitter.Emit(ctx, events.NewBatchSummary(report.RunID, report.SuccessfulUpdates, report.TotalProcessed, report.TierChanges)); err != nil {
		metrics.RecordEventEmitError()
		r.logger.Warn(ctx, "batch summary emission failed", logger.String("run_id", report.RunID), logger.Err(err))
	}

	report.CompletedAt = time.Now().UTC()
	metrics.RecordBatchRun(report.Duration().Seconds(), report.TotalProcessed, len(report.Errors))
	metrics.UpdateBatchLastRunUnix(float64(report.CompletedAt.Unix()))

	r.logger.Info(ctx, "batch run finished",
		logger.String("run_id", report.RunID),
		logger.Int("total", report.TotalProcessed),
		logger.Int("successful", report.SuccessfulUpdates),
		logger.Int("tier_changes", report.TierChanges),
		logger.Int("errors", len(report.Errors)),
		logger.Duration("took", report.Duration()),
	)

	return report
}

// process updates one cleaner, converting panics into per-item errors so a
// single bad record cannot take down the run. The tier-change event goes out
// only after the persistence write succeeded.
func (r *Runner) process(ctx context.Context, email string) (res model.ScoreResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.RecordScoringError()
			err = fmt.Errorf("%w: %v", ErrComputation, rec)
		}
	}()

	res, err = r.updater.Recompute(ctx, email)
	if err != nil {
		return res, err
	}

	if res.TierChanged {
		metrics.RecordTierChange(r.direction(res.OldTier, res.NewTier))
		ev := events.NewTierChange(res.CleanerEmail, res.OldScore, res.NewScore, res.OldTier, res.NewTier)
		if emitErr := r.emitter.Emit(ctx, ev); emitErr != nil {
			metrics.RecordEventEmitError()
			r.logger.Warn(ctx, "tier change emission failed",
				logger.String("cleaner_email", res.CleanerEmail),
				logger.Err(emitErr),
			)
		}
	}

	return res, nil
}

func (r *Runner) direction(oldTier, newTier string) string {
	if r.tiers.Rank(newTier) >= r.tiers.Rank(oldTier) {
		return "up"
	}
	return "down"
}
