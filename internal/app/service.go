// Package app wires the scoring engine, stores, events and batch runner into
// the service consumed by the HTTP API and the scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/brightnest/reliability/internal/adapters/events"
	"github.com/brightnest/reliability/internal/adapters/repository"
	"github.com/brightnest/reliability/internal/batch"
	"github.com/brightnest/reliability/internal/domain/model"
	"github.com/brightnest/reliability/internal/domain/scoring"
	"github.com/brightnest/reliability/internal/domain/tier"
	"github.com/brightnest/reliability/pkg/logger"
	"github.com/brightnest/reliability/pkg/metrics"
)

// Service implements the reliability engine's trigger surface: per-cleaner
// recompute, the manual admin trigger, and the nightly batch.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	engine    *scoring.Engine
	tiers     *tier.Table
	emitter   events.Emitter
	runner    *batch.Runner
	scheduler *batch.Scheduler

	// Configuration
	workerCount   int
	batchSchedule string
	batchEnabled  bool
	now           func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects the profile/booking store adapter.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngine injects a configured scoring engine.
func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithTierTable injects a validated tier table.
func WithTierTable(t *tier.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.tiers = t
		}
	}
}

// WithEmitter injects the downstream event emitter.
func WithEmitter(e events.Emitter) Option {
	return func(s *Service) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithWorkerCount bounds batch concurrency.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithBatchSchedule sets the nightly cron expression.
func WithBatchSchedule(expr string) Option {
	return func(s *Service) {
		if expr != "" {
			s.batchSchedule = expr
		}
	}
}

// WithBatchEnabled toggles the cron scheduler. Manual triggers work either way.
func WithBatchEnabled(enabled bool) Option {
	return func(s *Service) {
		s.batchEnabled = enabled
	}
}

// WithClock overrides the time source. The clock anchors no-show detection
// and the persisted last_score_update timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		batchSchedule: "",
		batchEnabled:  true,
		now:           func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes components and, when enabled, the nightly scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}

	s.logger.Info(ctx, "starting reliability service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.engine == nil {
		s.engine = scoring.NewEngine()
	}
	if s.tiers == nil {
		t, err := tier.New()
		if err != nil {
			return fmt.Errorf("building tier table: %w", err)
		}
		s.tiers = t
	}
	if s.emitter == nil {
		s.emitter = events.NewDedupeEmitter(events.NewLogEmitter(s.logger))
	}

	s.runner = batch.NewRunner(s.store, s, s.emitter, s.tiers,
		batch.WithWorkerCount(s.workerCount),
		batch.WithLogger(s.logger.Named("batch")),
	)

	if s.batchEnabled {
		schedOpts := []batch.SchedulerOption{batch.WithSchedulerLogger(s.logger.Named("scheduler"))}
		if s.batchSchedule != "" {
			schedOpts = append(schedOpts, batch.WithSchedule(s.batchSchedule))
		}
		s.scheduler = batch.NewScheduler(s.runner, schedOpts...)
		if err := s.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("starting batch scheduler: %w", err)
		}
	}

	s.started = true
	s.logger.Info(ctx, "reliability service started",
		logger.Int("workers", s.workerCount),
		logger.Bool("batch_enabled", s.batchEnabled),
	)

	return nil
}

// Stop shuts the service down, halting the scheduler first.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "reliability service stopped")
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Recompute scores one cleaner: load, compute, classify, diff, persist.
// Event emission belongs to the caller; Recompute only reports the change.
// Returns ErrNotStarted before Start has initialized the components.
func (s *Service) Recompute(ctx context.Context, email string) (model.ScoreResult, error) {
	if !s.isStarted() {
		return model.ScoreResult{}, ErrNotStarted
	}

	start := time.Now()
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	}()

	profile, err := s.store.ProfileByEmail(ctx, email)
	if err != nil {
		metrics.RecordScoringError()
		return model.ScoreResult{}, fmt.Errorf("loading profile %s: %w", email, err)
	}

	bookings, err := s.store.BookingsFor(ctx, email)
	if err != nil {
		metrics.RecordScoringError()
		return model.ScoreResult{}, fmt.Errorf("loading bookings for %s: %w", email, err)
	}

	now := s.now()
	bd, err := s.engine.Compute(ctx, profile, bookings, now)
	if err != nil {
		metrics.RecordScoringError()
		return model.ScoreResult{}, err
	}

	t, err := s.tiers.Classify(bd.TotalScore)
	if err != nil {
		metrics.RecordScoringError()
		return model.ScoreResult{}, err
	}
	bd.Tier = t.Name

	rate, err := s.tiers.RecommendedRate(bd.TotalScore)
	if err != nil {
		metrics.RecordScoringError()
		return model.ScoreResult{}, err
	}

	upd := repository.ScoreUpdate{
		ReliabilityScore:           bd.TotalScore,
		Tier:                       bd.Tier,
		AttendanceRate:             bd.Attendance,
		PunctualityRate:            bd.Punctuality,
		PhotoComplianceRate:        bd.PhotoCompliance,
		CommunicationRate:          bd.Communication,
		CompletionConfirmationRate: bd.CompletionConfirmation,
		CancellationRate:           -bd.CancellationPenalty,
		NoShowRate:                 -bd.NoShowPenalty,
		DisputeRate:                -bd.DisputePenalty,
		TotalJobs:                  bd.TotalJobs,
		LastScoreUpdate:            now,
		ExpectedVersion:            profile.Version,
	}
	if err := s.store.ApplyScoreUpdate(ctx, email, upd); err != nil {
		metrics.RecordScoringError()
		return model.ScoreResult{}, fmt.Errorf("persisting score for %s: %w", email, err)
	}

	metrics.RecordScoreComputed(bd.TotalScore)

	return model.ScoreResult{
		CleanerEmail:    email,
		OldScore:        profile.ReliabilityScore,
		NewScore:        bd.TotalScore,
		OldTier:         profile.Tier,
		NewTier:         bd.Tier,
		TierChanged:     profile.Tier != bd.Tier,
		RecommendedRate: rate,
		Breakdown:       bd,
	}, nil
}

// UpdateSingle is the synchronous admin trigger. It never returns an error;
// failures come back in the result so any caller can render them directly.
func (s *Service) UpdateSingle(ctx context.Context, email string) model.TriggerResult {
	res, err := s.Recompute(ctx, email)
	if err != nil {
		return model.TriggerResult{Success: false, Error: userMessage(err)}
	}

	if res.TierChanged {
		metrics.RecordTierChange(s.tierDirection(res.OldTier, res.NewTier))
		for _, ev := range []events.Event{
			events.NewTierChange(res.CleanerEmail, res.OldScore, res.NewScore, res.OldTier, res.NewTier),
			events.NewManualRecompute(res.CleanerEmail, res.OldScore, res.NewScore, res.OldTier, res.NewTier),
		} {
			if emitErr := s.emitter.Emit(ctx, ev); emitErr != nil {
				metrics.RecordEventEmitError()
				s.logger.Warn(ctx, "event emission failed",
					logger.String("type", string(ev.Type)),
					logger.String("cleaner_email", res.CleanerEmail),
					logger.Err(emitErr),
				)
			}
		}
	}

	return model.TriggerResult{Success: true, Result: &res}
}

// RunNightlyBatch executes one batch run. Always returns a report.
func (s *Service) RunNightlyBatch(ctx context.Context) model.BatchRunReport {
	s.mu.RLock()
	runner := s.runner
	s.mu.RUnlock()

	if runner == nil {
		now := time.Now().UTC()
		return model.BatchRunReport{
			StartedAt:   now,
			CompletedAt: now,
			Errors:      []model.BatchError{{Message: "service not started", Fatal: true}},
		}
	}
	return runner.Run(ctx)
}

// CleanerScore returns a cleaner's persisted standing plus the interpolated
// recommended rate and the count of upcoming jobs.
func (s *Service) CleanerScore(ctx context.Context, email string) (model.ScoreSummary, error) {
	if !s.isStarted() {
		return model.ScoreSummary{}, ErrNotStarted
	}

	profile, err := s.store.ProfileByEmail(ctx, email)
	if err != nil {
		return model.ScoreSummary{}, err
	}

	rate, err := s.tiers.RecommendedRate(profile.ReliabilityScore)
	if err != nil {
		return model.ScoreSummary{}, err
	}

	upcoming, err := s.store.BookingsByStatus(ctx, email, model.StatusScheduled, model.StatusInProgress)
	if err != nil {
		return model.ScoreSummary{}, err
	}

	return model.ScoreSummary{
		CleanerEmail:     profile.UserEmail,
		ReliabilityScore: profile.ReliabilityScore,
		Tier:             profile.Tier,
		RecommendedRate:  rate,
		TotalJobs:        profile.TotalJobs,
		UpcomingJobs:     len(upcoming),
		LastScoreUpdate:  profile.LastScoreUpdate,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"batchEnabled":  s.batchEnabled,
		"batchSchedule": s.batchSchedule,
	}
	if s.scheduler != nil {
		stats["nextBatchRun"] = s.scheduler.NextRun()
	}
	return stats
}

func (s *Service) tierDirection(oldTier, newTier string) string {
	if s.tiers.Rank(newTier) >= s.tiers.Rank(oldTier) {
		return "up"
	}
	return "down"
}

// userMessage maps internal errors to the message surfaced to admin callers.
func userMessage(err error) string {
	if errors.Is(err, repository.ErrProfileNotFound) {
		return "Cleaner profile not found"
	}
	return err.Error()
}
