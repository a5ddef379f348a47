// Package events defines the persistence events published by the forum
// workflow and a synchronous in-process bus that delivers them.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/agora/internal/metrics"
	"github.com/starford/agora/internal/models"
)

// Event kinds.
const (
	KindThreadCreated = "thread.created"
	KindThreadUpdated = "thread.updated"
	KindPostCreated   = "post.created"
)

// Event is one of ThreadCreated, ThreadUpdated or PostCreated.
type Event interface {
	Kind() string
	ThreadID() int64
}

// ThreadCreated is published after a new thread is persisted.
type ThreadCreated struct {
	Thread models.Thread
}

// ThreadUpdated is published after any save of an existing thread.
// PreviouslyLocked carries the lock state before the save.
type ThreadUpdated struct {
	Thread           models.Thread
	PreviouslyLocked bool
}

// LockChanged reports whether this save toggled the lock.
func (e ThreadUpdated) LockChanged() bool {
	return e.PreviouslyLocked != e.Thread.Locked
}

// PostCreated is published after a new post is persisted. Thread is the
// thread as it was when the post was written.
type PostCreated struct {
	Post   models.Post
	Thread models.Thread
}

func (ThreadCreated) Kind() string { return KindThreadCreated }
func (ThreadUpdated) Kind() string { return KindThreadUpdated }
func (PostCreated) Kind() string   { return KindPostCreated }

func (e ThreadCreated) ThreadID() int64 { return e.Thread.ID }
func (e ThreadUpdated) ThreadID() int64 { return e.Thread.ID }
func (e PostCreated) ThreadID() int64   { return e.Thread.ID }

// Handler consumes an event. Handlers must not block for long: they run
// on the publisher's goroutine.
type Handler func(ctx context.Context, ev Event)

type eventIDKey struct{}

// IDFromContext returns the correlation id assigned by Publish, if any.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(eventIDKey{}).(string)
	return id
}

// Bus delivers events to subscribers synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers h for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Publish runs every handler before returning. A panicking handler is
// logged and skipped; Publish itself never fails.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	id := uuid.NewString()
	ctx = context.WithValue(ctx, eventIDKey{}, id)

	b.logger.Debug("event published",
		slog.String("event_id", id),
		slog.String("kind", ev.Kind()),
		slog.Int64("thread_id", ev.ThreadID()))

	metrics.EventsPublished.WithLabelValues(ev.Kind()).Inc()
	for _, h := range handlers {
		b.deliver(ctx, id, h, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, id string, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("event_id", id),
				slog.String("kind", ev.Kind()),
				slog.Any("panic", r))
		}
	}()
	h(ctx, ev)
}
