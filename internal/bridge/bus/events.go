package bus

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// EventLogCapacity bounds the number of recorded events; older ones are discarded first.
const EventLogCapacity = 256

var ErrUnknownEvent = errors.New("unknown lifecycle event")

// EventMessage is a lifecycle notification with its routing target.
type EventMessage struct {
	Event     Event          `json:"event"`
	Target    Target         `json:"target"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventPublisher emits lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, msg EventMessage) error
}

// EventLog records lifecycle events and tracks background readiness.
type EventLog struct {
	log       zerolog.Logger
	mu        sync.RWMutex
	events    []EventMessage
	ready     chan struct{}
	readyOnce sync.Once
	forward   EventPublisher
}

// NewEventLog creates an event log. forward, when non-nil, receives every accepted event.
func NewEventLog(log zerolog.Logger, forward EventPublisher) *EventLog {
	return &EventLog{
		log:     log.With().Str("component", "event_log").Logger(),
		ready:   make(chan struct{}),
		forward: forward,
	}
}

func (l *EventLog) Publish(ctx context.Context, msg EventMessage) error {
	if !IsKnownEvent(msg.Event) {
		return errors.Wrapf(ErrUnknownEvent, "%q", msg.Event)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.Target == "" {
		msg.Target = TargetExtension
	}

	l.mu.Lock()
	if len(l.events) >= EventLogCapacity {
		l.events = append(l.events[:0:0], l.events[len(l.events)-EventLogCapacity+1:]...)
	}
	l.events = append(l.events, msg)
	l.mu.Unlock()

	if msg.Event == EventMetaMaskBackgroundReady {
		l.readyOnce.Do(func() { close(l.ready) })
	}

	l.log.Debug().Str("event", string(msg.Event)).Str("target", string(msg.Target)).Msg("Lifecycle event")

	if l.forward != nil {
		if err := l.forward.Publish(ctx, msg); err != nil {
			return errors.Wrapf(err, "failed to forward %s", msg.Event)
		}
	}

	return nil
}

// BackgroundReady is closed once the background process announced readiness.
func (l *EventLog) BackgroundReady() <-chan struct{} {
	return l.ready
}

// IsBackgroundReady reports whether the readiness event has been seen.
func (l *EventLog) IsBackgroundReady() bool {
	select {
	case <-l.ready:
		return true
	default:
		return false
	}
}

// Events returns a copy of the most recent EventLogCapacity events, oldest first.
func (l *EventLog) Events() []EventMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]EventMessage, len(l.events))
	copy(out, l.events)
	return out
}
