package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/agora/internal/events"
)

// LockPolicy decides which thread saves send a lock status email.
type LockPolicy string

const (
	// LockEverySave notifies on every save of an existing thread, whether
	// or not the lock flag changed.
	LockEverySave LockPolicy = "every_save"
	// LockOnChange notifies only when the save toggled the lock flag.
	LockOnChange LockPolicy = "on_change"
)

// ParseLockPolicy maps a config value to a LockPolicy. Empty selects
// LockEverySave.
func ParseLockPolicy(s string) (LockPolicy, error) {
	switch LockPolicy(s) {
	case "", LockEverySave:
		return LockEverySave, nil
	case LockOnChange:
		return LockOnChange, nil
	default:
		return "", fmt.Errorf("notify: unknown lock policy %q", s)
	}
}

// Sender delivers one message to a recipient list without failing.
type Sender interface {
	Send(ctx context.Context, subject, body string, recipients []string)
}

// Hooks subscribes the notification pipeline to the event bus.
type Hooks struct {
	resolver *Resolver
	sender   Sender
	policy   LockPolicy
	logger   *slog.Logger
}

func NewHooks(resolver *Resolver, sender Sender, policy LockPolicy, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = LockEverySave
	}
	return &Hooks{resolver: resolver, sender: sender, policy: policy, logger: logger}
}

// Handle is an events.Handler. It runs inline on the publishing goroutine.
func (h *Hooks) Handle(ctx context.Context, ev events.Event) {
	// The write has committed; lookups and delivery outlive the request.
	ctx = context.WithoutCancel(ctx)
	switch e := ev.(type) {
	case events.PostCreated:
		for _, msg := range h.resolver.PostCreated(ctx, e.Post, e.Thread) {
			h.send(ctx, msg)
		}
	case events.ThreadUpdated:
		if h.policy == LockOnChange && !e.LockChanged() {
			return
		}
		h.send(ctx, h.resolver.ThreadUpdated(ctx, e.Thread))
	}
}

func (h *Hooks) send(ctx context.Context, msg Message) {
	h.logger.DebugContext(ctx, "dispatching notification",
		slog.String("event_id", events.IDFromContext(ctx)),
		slog.String("kind", string(msg.Kind)),
		slog.Int("recipients", len(msg.Recipients)))
	h.sender.Send(ctx, msg.Subject, msg.Body, msg.Recipients)
}
