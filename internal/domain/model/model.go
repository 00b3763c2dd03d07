// Package model contains domain records passed between layers.
package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.
type BookingStatus string

const (
	StatusScheduled  BookingStatus = "scheduled"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusApproved   BookingStatus = "approved"
	StatusCancelled  BookingStatus = "cancelled"
)

// CancelActor identifies who cancelled a booking.
type CancelActor string

const (
	CancelledByCleaner CancelActor = "cleaner"
	CancelledByClient  CancelActor = "client"
	CancelledBySystem  CancelActor = "system"
)

// Booking is one scheduled or executed job. The engine only reads bookings.
// Optional timestamps use the zero time when absent; counts default to zero.
type Booking struct {
	ID             string
	CleanerEmail   string
	Status         BookingStatus
	ScheduledStart time.Time
	CheckInTime    time.Time
	CheckOutTime   time.Time
	BeforePhotos   int
	AfterPhotos    int
	CancelledBy    CancelActor
	CancelledAt    time.Time
}

// Accepted reports whether the booking's status indicates the job was taken on.
func (b Booking) Accepted() bool {
	switch b.Status {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusApproved:
		return true
	default:
		return false
	}
}

// Completed reports whether the job finished, with or without client approval.
func (b Booking) Completed() bool {
	return b.Status == StatusCompleted || b.Status == StatusApproved
}

// HasCheckIn reports whether a check-in timestamp was recorded.
func (b Booking) HasCheckIn() bool {
	return !b.CheckInTime.IsZero()
}

// HasCheckOut reports whether a check-out timestamp was recorded.
func (b Booking) HasCheckOut() bool {
	return !b.CheckOutTime.IsZero()
}

// TotalPhotos returns the combined before/after photo count.
func (b Booking) TotalPhotos() int {
	return b.BeforePhotos + b.AfterPhotos
}

// CleanerProfile is a service provider's current standing. Score fields are
// mutated only through the score updater; Version backs the optimistic
// concurrency check at the persistence boundary.
type CleanerProfile struct {
	UserEmail        string
	ReliabilityScore int
	Tier             string

	AttendanceRate             int
	PunctualityRate            int
	PhotoComplianceRate        int
	CommunicationRate          int
	CompletionConfirmationRate int
	// Penalty rates are stored as absolute magnitudes.
	CancellationRate int
	NoShowRate       int
	DisputeRate      int

	AverageRating   float64
	TotalJobs       int
	LastScoreUpdate time.Time
	IsActive        bool
	Version         int64
}

// ScoreBreakdown is the transient result of one score computation: the nine
// named components plus the aggregated total. Penalty components are
// negative. Created fresh on every computation.
type ScoreBreakdown struct {
	Attendance             int `json:"attendance"`
	Punctuality            int `json:"punctuality"`
	PhotoCompliance        int `json:"photo_compliance"`
	Communication          int `json:"communication"`
	CompletionConfirmation int `json:"completion_confirmation"`
	Rating                 int `json:"rating"`

	CancellationPenalty int `json:"cancellation_penalty"`
	NoShowPenalty       int `json:"no_show_penalty"`
	DisputePenalty      int `json:"dispute_penalty"`

	TotalScore int    `json:"total_score"`
	Tier       string `json:"tier"`
	TotalJobs  int    `json:"total_jobs"`
}

// ScoreResult describes the outcome of one cleaner's score update.
type ScoreResult struct {
	CleanerEmail    string         `json:"cleaner_email"`
	OldScore        int            `json:"old_score"`
	NewScore        int            `json:"new_score"`
	OldTier         string         `json:"old_tier"`
	NewTier         string         `json:"new_tier"`
	TierChanged     bool           `json:"tier_changed"`
	RecommendedRate int            `json:"recommended_rate"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
}

// TriggerResult is the synchronous answer to a manual recompute trigger.
// Callers render Error directly; no exception handling is required of them.
type TriggerResult struct {
	Success bool         `json:"success"`
	Result  *ScoreResult `json:"result,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// BatchError records one failed item within a batch run. Fatal marks a
// run-wide failure (e.g. the profile listing itself failed).
type BatchError struct {
	CleanerEmail string `json:"cleaner_email,omitempty"`
	Message      string `json:"message"`
	Fatal        bool   `json:"fatal,omitempty"`
}

// BatchRunReport aggregates the outcome of one batch recompute run.
type BatchRunReport struct {
	RunID             string       `json:"run_id"`
	TotalProcessed    int          `json:"total_processed"`
	SuccessfulUpdates int          `json:"successful_updates"`
	TierChanges       int          `json:"tier_changes"`
	Errors            []BatchError `json:"errors"`
	StartedAt         time.Time    `json:"started_at"`
	CompletedAt       time.Time    `json:"completed_at"`
}

// Duration returns the wall-clock time the run took.
func (r BatchRunReport) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// ScoreSummary is the read shape served to admin callers.
type ScoreSummary struct {
	CleanerEmail     string    `json:"cleaner_email"`
	ReliabilityScore int       `json:"reliability_score"`
	Tier             string    `json:"tier"`
	RecommendedRate  int       `json:"recommended_rate"`
	TotalJobs        int       `json:"total_jobs"`
	UpcomingJobs     int       `json:"upcoming_jobs"`
	LastScoreUpdate  time.Time `json:"last_score_update"`
}
