// Package notify fans domain events out to Kafka and Firebase Cloud
// Messaging. Delivery is best effort: failures are logged, never returned to
// the HTTP caller.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types.
const (
	ResourceCreated   = "resource.created"
	ResourceUpdated   = "resource.updated"
	SubmissionCreated = "submission.created"
	SubmissionDeleted = "submission.deleted"
)

// Event is one change worth telling other systems about.
type Event struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	OccurredAt time.Time         `json:"occurredAt"`
	Payload    map[string]string `json:"payload,omitempty"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(eventType, id string, payload map[string]string) Event {
	return Event{Type: eventType, ID: id, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Multi publishes to each publisher in order and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// notifierQueueSize bounds the events waiting for the publisher.
const notifierQueueSize = 256

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// Notifier publishes events on behalf of request handlers. Emit only queues;
// a single worker delivers events in order so a slow or unreachable sink never
// holds up a response.
type Notifier struct {
	publisher Publisher
	logger    *zap.Logger
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent
	done   chan struct{}
}

func NewNotifier(p Publisher, logger *zap.Logger) *Notifier {
	if p == nil {
		p = Nop{}
	}
	n := &Notifier{
		publisher: p,
		logger:    logger,
		timeout:   5 * time.Second,
		queue:     make(chan queuedEvent, notifierQueueSize),
		done:      make(chan struct{}),
	}
	go n.run()
	return n
}

// Emit queues e for delivery, detached from the request's cancellation. When
// the queue is full or the notifier is closed the event is dropped and logged.
func (n *Notifier) Emit(ctx context.Context, e Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.logDrop(e, "notifier closed")
		return
	}
	select {
	case n.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: e}:
	default:
		n.logDrop(e, "queue full")
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for q := range n.queue {
		n.publish(q)
	}
}

func (n *Notifier) publish(q queuedEvent) {
	ctx, cancel := context.WithTimeout(q.ctx, n.timeout)
	defer cancel()

	if err := n.publisher.Publish(ctx, q.event); err != nil {
		n.logger.Warn("Event publish failed",
			zap.String("type", q.event.Type),
			zap.String("id", q.event.ID),
			zap.Error(err),
		)
	}
}

func (n *Notifier) logDrop(e Event, reason string) {
	n.logger.Warn("Event dropped",
		zap.String("type", e.Type),
		zap.String("id", e.ID),
		zap.String("reason", reason),
	)
}

// Close delivers the events already queued, then closes the publisher.
// Calling it more than once is safe.
func (n *Notifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		<-n.done
		return nil
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	<-n.done
	return n.publisher.Close()
}
