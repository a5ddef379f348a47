// Package mail delivers notification emails through a pluggable transport.
package mail

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Message is a single email addressed to one or more recipients.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Transport delivers a message. Implementations may block on the network;
// callers are expected to bound the call through ctx.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// ErrNoRecipients is returned when a message has no addresses to deliver to.
var ErrNoRecipients = errors.New("mail: no recipients")

// deliverable returns msg with blank addresses removed, or ErrNoRecipients
// when none remain. Users without an email address may appear in a
// recipient list; they are skipped rather than failing the whole message.
func deliverable(msg Message) (Message, error) {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		if strings.TrimSpace(addr) != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return msg, ErrNoRecipients
	}
	msg.To = to
	return msg, nil
}

// LogTransport logs messages instead of sending them. Used for local
// development and when mail.provider is "log".
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger}
}

// Deliver logs msg and always succeeds.
func (l *LogTransport) Deliver(ctx context.Context, msg Message) error {
	l.logger.InfoContext(ctx, "mock email",
		slog.String("from", msg.From),
		slog.Any("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("body_length", len(msg.Body)))
	return nil
}
