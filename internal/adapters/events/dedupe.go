package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/brightnest/reliability/pkg/metrics"
)

const defaultDedupeSize = 10000

// DedupeOption applies a configuration option to the DedupeEmitter.
type DedupeOption func(*DedupeEmitter)

// WithMaxSize bounds the number of remembered transition keys. Oldest keys
// are evicted first once the bound is reached.
func WithMaxSize(n int) DedupeOption {
	return func(d *DedupeEmitter) {
		if n > 0 {
			d.maxSize = n
		}
	}
}

// DedupeEmitter suppresses re-emission of an identical tier transition, so a
// cleaner whose score is recomputed twice against the same snapshot (nightly
// batch racing a manual trigger) notifies downstream once.
//
// Suppression is scoped to the event's UTC calendar day: the transition key
// carries the day stamp, so a cleaner oscillating between the same two tiers
// across nightly runs still notifies on every genuine change.
//
// Only reliability_changed and manual_recompute events are keyed; batch
// summaries always pass through.
type DedupeEmitter struct {
	next    Emitter
	maxSize int

	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// NewDedupeEmitter wraps next with transition deduplication.
func NewDedupeEmitter(next Emitter, opts ...DedupeOption) *DedupeEmitter {
	d := &DedupeEmitter{
		next:    next,
		maxSize: defaultDedupeSize,
		seen:    make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Emit forwards the event unless its transition key was already seen.
func (d *DedupeEmitter) Emit(ctx context.Context, ev Event) error {
	key, ok := transitionKey(ev)
	if ok && d.seenAndRecord(key) {
		metrics.RecordEventSuppressed()
		return nil
	}
	return d.next.Emit(ctx, ev)
}

// Size returns the number of remembered transition keys.
func (d *DedupeEmitter) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// seenAndRecord atomically checks and records a transition key.
func (d *DedupeEmitter) seenAndRecord(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if len(d.seen) >= d.maxSize && len(d.order) > 0 {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}

	d.seen[key] = struct{}{}
	d.order = append(d.order, key)
	return false
}

func transitionKey(ev Event) (string, bool) {
	switch ev.Type {
	case TypeReliabilityChanged, TypeManualRecompute:
		det := ev.Details
		day := ev.Timestamp.UTC().Format("2006-01-02")
		return fmt.Sprintf("%s|%s|%s|%s>%s|%d>%d", ev.Type, day, ev.UserEmail, det.OldTier, det.NewTier, det.OldScore, det.NewScore), true
	default:
		return "", false
	}
}
