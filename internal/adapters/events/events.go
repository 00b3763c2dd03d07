// Package events defines the domain event contract and emitter adapters.
//
// Delivery and ordering guarantees belong to the downstream emitter; this
// package only shapes and hands off events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a kind of domain event.
type Type string

const (
	// TypeReliabilityChanged signals a persisted tier change for one cleaner.
	TypeReliabilityChanged Type = "reliability_changed"
	// TypeBatchCompleted summarizes one finished batch run.
	TypeBatchCompleted Type = "batch_completed"
	// TypeManualRecompute audits an admin-triggered recompute that changed a tier.
	TypeManualRecompute Type = "manual_recompute"
)

// Details carries the event payload. Fields are populated per event type.
type Details struct {
	OldScore int    `json:"old_score,omitempty"`
	NewScore int    `json:"new_score,omitempty"`
	OldTier  string `json:"old_tier,omitempty"`
	NewTier  string `json:"new_tier,omitempty"`

	// Batch summary fields.
	Successful  int    `json:"successful,omitempty"`
	Total       int    `json:"total,omitempty"`
	TierChanges int    `json:"tier_changes,omitempty"`
	RunID       string `json:"run_id,omitempty"`
}

// Event is one typed domain event.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"event_type"`
	UserEmail string    `json:"user_email,omitempty"`
	Details   Details   `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTierChange builds a reliability_changed event.
func NewTierChange(email string, oldScore, newScore int, oldTier, newTier string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      TypeReliabilityChanged,
		UserEmail: email,
		Details: Details{
			OldScore: oldScore,
			NewScore: newScore,
			OldTier:  oldTier,
			NewTier:  newTier,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewBatchSummary builds a batch_completed event.
func NewBatchSummary(runID string, successful, total, tierChanges int) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: TypeBatchCompleted,
		Details: Details{
			Successful:  successful,
			Total:       total,
			TierChanges: tierChanges,
			RunID:       runID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewManualRecompute builds a manual_recompute audit event.
func NewManualRecompute(email string, oldScore, newScore int, oldTier, newTier string) Event {
	e := NewTierChange(email, oldScore, newScore, oldTier, newTier)
	e.Type = TypeManualRecompute
	return e
}

// Emitter hands events to the downstream notification collaborator.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
}
