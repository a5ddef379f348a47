// Package ratelimit enforces per-user, per-action token buckets for
// untrusted users.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/agora/internal/metrics"
	"github.com/starford/agora/internal/models"
)

// Action names a rate limited workflow step.
type Action string

const (
	ActionThreadCreate Action = "thread_create"
	ActionPostCreate   Action = "post_create"
	ActionReport       Action = "report"
)

// Limit allows Requests per Window. Tokens refill evenly across the window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits returns the built-in limits for untrusted users.
func DefaultLimits() map[Action]Limit {
	return map[Action]Limit{
		ActionThreadCreate: {Requests: 3, Window: time.Hour},
		ActionPostCreate:   {Requests: 10, Window: time.Minute},
		ActionReport:       {Requests: 5, Window: time.Hour},
	}
}

type key struct {
	userID int64
	action Action
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Policy tracks one limiter per (user, action). Staff users are trusted
// and never limited; actions without a configured limit are always allowed.
type Policy struct {
	mu       sync.Mutex
	limits   map[Action]Limit
	limiters map[key]*entry
	now      func() time.Time
}

func New(limits map[Action]Limit) *Policy {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Policy{
		limits:   limits,
		limiters: make(map[key]*entry),
		now:      time.Now,
	}
}

// Allow consumes one token for user and action and reports whether the
// action may proceed.
func (p *Policy) Allow(user models.User, action Action) bool {
	if user.IsStaff {
		return true
	}
	limit, ok := p.limits[action]
	if !ok || limit.Requests <= 0 || limit.Window <= 0 {
		return true
	}

	now := p.now()
	k := key{userID: user.ID, action: action}
	p.mu.Lock()
	e, exists := p.limiters[k]
	if !exists {
		e = &entry{limiter: rate.NewLimiter(rate.Every(limit.Window/time.Duration(limit.Requests)), limit.Requests)}
		p.limiters[k] = e
	}
	e.lastAccess = now
	limiter := e.limiter
	p.mu.Unlock()

	if limiter.AllowN(now, 1) {
		return true
	}
	metrics.RateLimited.WithLabelValues(string(action)).Inc()
	return false
}

// Run drops limiters idle for longer than their window until ctx is done.
func (p *Policy) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.cleanup()
		}
	}
}

func (p *Policy) cleanup() {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.limiters {
		// An idle limiter has refilled completely, so forgetting it is safe.
		if now.Sub(e.lastAccess) > p.limits[k.action].Window {
			delete(p.limiters, k)
		}
	}
}

func (p *Policy) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.limiters)
}
