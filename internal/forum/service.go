// Package forum implements the forum workflows: it validates input,
// enforces moderation and rate limit rules, persists through the store and
// publishes a persistence event after every successful write.
package forum

import (
	"context"
	"log/slog"

	"github.com/starford/agora/internal/events"
	"github.com/starford/agora/internal/models"
	"github.com/starford/agora/internal/ratelimit"
	"github.com/starford/agora/internal/search"
	"github.com/starford/agora/internal/store"
)

// DefaultPageSize is the number of threads per listing page.
const DefaultPageSize = 13

// Publisher receives persistence events.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

// RateLimiter is the policy consulted before rate limited actions.
type RateLimiter interface {
	Allow(user models.User, action ratelimit.Action) bool
}

// Service coordinates the store, the event bus and the search engine.
type Service struct {
	repo     store.Repository
	bus      Publisher
	limiter  RateLimiter
	search   *search.Engine
	emails   EmailPolicy
	pageSize int
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRateLimiter sets the rate limit policy. Without one nothing is limited.
func WithRateLimiter(l RateLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithEmailPolicy sets the sign-up email policy.
func WithEmailPolicy(p EmailPolicy) Option {
	return func(s *Service) { s.emails = p }
}

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a forum service over repo that publishes to bus.
func NewService(repo store.Repository, bus Publisher, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		bus:      bus,
		pageSize: DefaultPageSize,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.limiter == nil {
		s.limiter = allowAll{}
	}
	s.search = search.NewEngine(repo, s.logger)
	return s
}

// PageSize returns the listing page size.
func (s *Service) PageSize() int { return s.pageSize }

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, ev)
	}
}

type allowAll struct{}

func (allowAll) Allow(models.User, ratelimit.Action) bool { return true }
