package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// DefaultBrevoEndpoint is Brevo's transactional email API.
const DefaultBrevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoTransport sends mail via the Brevo (formerly Sendinblue) HTTP API.
// It makes exactly one request per message.
type BrevoTransport struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// BrevoOption customises a BrevoTransport.
type BrevoOption func(*BrevoTransport)

// WithBrevoEndpoint overrides the API URL.
func WithBrevoEndpoint(url string) BrevoOption {
	return func(b *BrevoTransport) { b.endpoint = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) BrevoOption {
	return func(b *BrevoTransport) { b.client = c }
}

func NewBrevoTransport(apiKey string, logger *slog.Logger, opts ...BrevoOption) *BrevoTransport {
	if logger == nil {
		logger = slog.Default()
	}
	b := &BrevoTransport{
		apiKey:   apiKey,
		endpoint: DefaultBrevoEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

type brevoSendRequest struct {
	Sender  brevoContact   `json:"sender"`
	To      []brevoContact `json:"to"`
	Subject string         `json:"subject"`
	Text    string         `json:"textContent"`
}

type brevoContact struct {
	Email string `json:"email"`
}

// Deliver posts msg to the Brevo API. Any non-2xx status is an error.
func (b *BrevoTransport) Deliver(ctx context.Context, msg Message) error {
	msg, err := deliverable(msg)
	if err != nil {
		return err
	}
	reqBody := brevoSendRequest{
		Sender:  brevoContact{Email: msg.From},
		Subject: msg.Subject,
		Text:    msg.Body,
	}
	for _, to := range msg.To {
		reqBody.To = append(reqBody.To, brevoContact{Email: to})
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("mail: marshal brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("mail: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", b.apiKey)

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail: brevo request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail: brevo returned HTTP %d", resp.StatusCode)
	}
	b.logger.DebugContext(ctx, "brevo request completed",
		slog.Int("recipients", len(msg.To)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}
