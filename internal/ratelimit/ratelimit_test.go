package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/starford/agora/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newPolicy(clock *fakeClock) *Policy {
	p := New(nil)
	p.now = clock.now
	return p
}

func TestAllow_ThreadCreateBurstThenBlocked(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := newPolicy(clock)
	u := models.User{ID: 1}

	for i := range 3 {
		assert.True(t, p.Allow(u, ActionThreadCreate), "attempt %d", i+1)
	}
	assert.False(t, p.Allow(u, ActionThreadCreate))

	clock.t = clock.t.Add(20 * time.Minute)
	assert.True(t, p.Allow(u, ActionThreadCreate))
	assert.False(t, p.Allow(u, ActionThreadCreate))
}

func TestAllow_StaffExempt(t *testing.T) {
	p := newPolicy(&fakeClock{t: time.Now()})
	staff := models.User{ID: 1, IsStaff: true}
	for range 50 {
		assert.True(t, p.Allow(staff, ActionReport))
	}
	assert.Equal(t, 0, p.size())
}

func TestAllow_IndependentKeys(t *testing.T) {
	p := newPolicy(&fakeClock{t: time.Now()})
	a := models.User{ID: 1}
	b := models.User{ID: 2}

	for range 5 {
		p.Allow(a, ActionReport)
	}
	assert.False(t, p.Allow(a, ActionReport))
	assert.True(t, p.Allow(b, ActionReport))
	assert.True(t, p.Allow(a, ActionPostCreate))
}

func TestAllow_UnknownActionAllowed(t *testing.T) {
	p := New(map[Action]Limit{})
	assert.True(t, p.Allow(models.User{ID: 1}, ActionPostCreate))
}

func TestCleanup_DropsIdleLimiters(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	p := newPolicy(clock)
	p.Allow(models.User{ID: 1}, ActionPostCreate)
	p.Allow(models.User{ID: 2}, ActionThreadCreate)
	assert.Equal(t, 2, p.size())

	clock.t = clock.t.Add(2 * time.Minute)
	p.cleanup()
	assert.Equal(t, 1, p.size())
}
