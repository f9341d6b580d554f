package events

import (
	"testing"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, typ EventType, source string, vis domain.Visibility) *GameEvent {
	t.Helper()
	ev, err := NewGameEvent(typ, source, nil, vis, 0, t0)
	require.NoError(t, err)
	return ev
}

func drain(sub *Subscription) []*GameEvent {
	var out []*GameEvent
	for {
		select {
		case ev := <-sub.C:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestBus_Filters(t *testing.T) {
	bus := NewBus(8)
	all := bus.SubscribeAll()
	byType := bus.SubscribeByType(DamageDealt)
	byModule := bus.SubscribeBySourceModule("chat")
	byEntity := bus.SubscribeByEntityVisibility("hero")

	vis, err := domain.SpecificEntities("hero")
	require.NoError(t, err)

	bus.Dispatch(mustEvent(t, DamageDealt, "combat", domain.Global()))
	bus.Dispatch(mustEvent(t, MessageSent, "chat", vis))
	bus.Dispatch(mustEvent(t, MessageSent, "chat", domain.Visibility{Type: domain.VisibilitySpecificEntities, EntityIDs: []string{"orc"}}))

	assert.Len(t, drain(all), 3)
	assert.Len(t, drain(byType), 1)
	assert.Len(t, drain(byModule), 2)
	// GLOBAL + адресованное hero
	assert.Len(t, drain(byEntity), 2)
}

func TestBus_AreaVisibilityUsesCombinedRadius(t *testing.T) {
	bus := NewBus(8)
	near := bus.SubscribeByAreaVisibility(domain.Position{X: 13, Y: 10, Z: 0}, 0)
	far := bus.SubscribeByAreaVisibility(domain.Position{X: 20, Y: 10, Z: 0}, 0)
	otherFloor := bus.SubscribeByAreaVisibility(domain.Position{X: 10, Y: 10, Z: 1}, 50)

	vis, err := domain.Area(domain.Position{X: 10, Y: 10, Z: 0}, 5)
	require.NoError(t, err)
	bus.Dispatch(mustEvent(t, TileChanged, "map", vis))

	assert.Len(t, drain(near), 1)
	assert.Empty(t, drain(far))
	assert.Empty(t, drain(otherFloor))
}

func TestBus_DeliveryOrderFollowsSubscription(t *testing.T) {
	bus := NewBus(8)
	var order []string
	bus.Observe(nil, func(*GameEvent) { order = append(order, "first") })
	bus.Observe(ByType(MessageSent), func(*GameEvent) { order = append(order, "second") })
	bus.Observe(nil, func(*GameEvent) { order = append(order, "third") })

	bus.Dispatch(mustEvent(t, MessageSent, "chat", domain.Global()))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(1)
	slow := bus.SubscribeAll()

	for i := 0; i < 5; i++ {
		bus.Dispatch(mustEvent(t, MessageSent, "chat", domain.Global()))
	}
	assert.EqualValues(t, 4, slow.Dropped())
	assert.EqualValues(t, 4, bus.Stats().Dropped)
	assert.EqualValues(t, 5, bus.Stats().Dispatched)
}

func TestBus_CloseAndUnsubscribe(t *testing.T) {
	bus := NewBus(4)
	sub := bus.SubscribeAll()
	calls := 0
	stop := bus.Observe(nil, func(*GameEvent) { calls++ })
	assert.Equal(t, 2, bus.Stats().Subscribers)

	sub.Close()
	sub.Close()
	stop()

	bus.Dispatch(mustEvent(t, MessageSent, "chat", domain.Global()))
	_, open := <-sub.C
	assert.False(t, open)
	assert.Zero(t, calls)
	assert.Zero(t, bus.Stats().Subscribers)
}

func TestBus_ObserverPanicDoesNotStopDispatch(t *testing.T) {
	bus := NewBus(4)
	reached := false
	bus.Observe(nil, func(*GameEvent) { panic("observer bug") })
	bus.Observe(nil, func(*GameEvent) { reached = true })

	assert.NotPanics(t, func() {
		bus.Dispatch(mustEvent(t, MessageSent, "chat", domain.Global()))
	})
	assert.True(t, reached)
}
