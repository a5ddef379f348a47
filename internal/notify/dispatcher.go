package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/starford/agora/internal/mail"
	"github.com/starford/agora/internal/metrics"
)

// DispatcherConfig tunes delivery.
type DispatcherConfig struct {
	From string
	// Timeout bounds a single transport call.
	Timeout time.Duration
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Dispatcher delivers messages best-effort: at most once, no retry, and
// never returning an error to the caller. A stalled transport is abandoned
// after Timeout, and a transport that keeps failing is short-circuited by
// a breaker until it recovers.
type Dispatcher struct {
	transport mail.Transport
	from      string
	timeout   time.Duration
	cb        *gobreaker.CircuitBreaker[struct{}]
	logger    *slog.Logger
}

func NewDispatcher(transport mail.Transport, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}

	metrics.MailBreakerState.Set(0)
	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "mail-transport",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("mail breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			if to == gobreaker.StateOpen {
				metrics.MailBreakerState.Set(1)
			} else {
				metrics.MailBreakerState.Set(0)
			}
		},
	})

	return &Dispatcher{
		transport: transport,
		from:      cfg.From,
		timeout:   cfg.Timeout,
		cb:        cb,
		logger:    logger,
	}
}

// Send delivers one message to the distinct recipients. An empty list is
// a no-op. Failures are logged and counted, never returned.
func (d *Dispatcher) Send(ctx context.Context, subject, body string, recipients []string) {
	to := dedupe(recipients)
	if len(to) == 0 {
		metrics.NotificationsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return
	}
	metrics.NotificationRecipients.Observe(float64(len(to)))

	msg := mail.Message{From: d.from, To: to, Subject: subject, Body: body}
	_, err := d.cb.Execute(func() (struct{}, error) {
		return struct{}{}, d.deliver(ctx, msg)
	})

	switch {
	case err == nil:
		metrics.NotificationsTotal.WithLabelValues(metrics.OutcomeSent).Inc()
		d.logger.InfoContext(ctx, "notification sent",
			slog.String("subject", subject),
			slog.Int("recipients", len(to)))
	case errors.Is(err, context.DeadlineExceeded):
		metrics.NotificationsTotal.WithLabelValues(metrics.OutcomeTimeout).Inc()
		d.logger.WarnContext(ctx, "notification timed out",
			slog.String("subject", subject),
			slog.Int("recipients", len(to)),
			slog.Duration("timeout", d.timeout))
	default:
		metrics.NotificationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		d.logger.WarnContext(ctx, "notification failed",
			slog.String("subject", subject),
			slog.Int("recipients", len(to)),
			slog.String("error", err.Error()))
	}
}

// deliver runs the transport on its own goroutine so a transport that
// ignores ctx still cannot hold the caller past the timeout. The caller's
// cancellation is not propagated: the write that triggered the
// notification has already succeeded.
func (d *Dispatcher) deliver(ctx context.Context, msg mail.Message) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.New("mail transport panicked")
			}
		}()
		done <- d.transport.Deliver(ctx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dedupe drops repeated addresses, keeping first occurrences in order.
// A blank address survives once.
func dedupe(recipients []string) []string {
	if len(recipients) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(recipients))
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
