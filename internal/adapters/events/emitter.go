package events

import (
	"context"
	"sync"

	"github.com/brightnest/reliability/pkg/logger"
	"github.com/brightnest/reliability/pkg/metrics"
)

// LogEmitter writes events to the structured log. It stands in for the
// hosted notification collaborator in single-process deployments.
type LogEmitter struct {
	logger logger.Logger
}

// NewLogEmitter creates a LogEmitter.
func NewLogEmitter(l logger.Logger) *LogEmitter {
	return &LogEmitter{logger: l.Named("events")}
}

// Emit logs the event.
func (e *LogEmitter) Emit(ctx context.Context, ev Event) error {
	e.logger.Info(ctx, "event emitted",
		logger.String("id", ev.ID),
		logger.String("type", string(ev.Type)),
		logger.String("user_email", ev.UserEmail),
		logger.Any("details", ev.Details),
	)
	metrics.RecordEventEmitted(string(ev.Type))
	return nil
}

// MemoryEmitter records emitted events for inspection. Used in tests and as
// a buffer in development setups.
type MemoryEmitter struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryEmitter creates an empty MemoryEmitter.
func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

// Emit records the event.
func (e *MemoryEmitter) Emit(ctx context.Context, ev Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	metrics.RecordEventEmitted(string(ev.Type))
	return nil
}

// Events returns a copy of everything emitted so far.
func (e *MemoryEmitter) Events() []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Event(nil), e.events...)
}

// ByType returns emitted events of one type.
func (e *MemoryEmitter) ByType(t Type) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Event
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
