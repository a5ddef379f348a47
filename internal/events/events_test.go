package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/agora/internal/models"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(nil)
	var got []string
	bus.Subscribe(func(_ context.Context, ev Event) { got = append(got, "first:"+ev.Kind()) })
	bus.Subscribe(func(_ context.Context, ev Event) { got = append(got, "second:"+ev.Kind()) })

	bus.Publish(context.Background(), PostCreated{Thread: models.Thread{ID: 7}})

	assert.Equal(t, []string{"first:post.created", "second:post.created"}, got)
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus(nil)
	called := false
	bus.Subscribe(func(context.Context, Event) { panic("boom") })
	bus.Subscribe(func(context.Context, Event) { called = true })

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), ThreadCreated{Thread: models.Thread{ID: 1}})
	})
	assert.True(t, called)
}

func TestBus_AssignsEventID(t *testing.T) {
	bus := NewBus(nil)
	var id string
	bus.Subscribe(func(ctx context.Context, _ Event) { id = IDFromContext(ctx) })

	bus.Publish(context.Background(), ThreadCreated{})

	assert.NotEmpty(t, id)
	assert.Empty(t, IDFromContext(context.Background()))
}

func TestThreadUpdated_LockChanged(t *testing.T) {
	locked := ThreadUpdated{Thread: models.Thread{Locked: true}, PreviouslyLocked: false}
	resaved := ThreadUpdated{Thread: models.Thread{Locked: true}, PreviouslyLocked: true}

	assert.True(t, locked.LockChanged())
	assert.False(t, resaved.LockChanged())
	assert.Equal(t, KindThreadUpdated, resaved.Kind())
}
