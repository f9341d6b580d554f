package world

import (
	"testing"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	state    *State
	notified []string
	// processed фиксирует, был ли журнал уже помечен в момент рассылки
	processed []bool
}

func (n *recordingNotifier) Notify(ev *events.GameEvent) int {
	n.notified = append(n.notified, ev.ID)
	for _, e := range n.state.FindUnprocessed() {
		if e.ID == ev.ID {
			n.processed = append(n.processed, false)
			return 1
		}
	}
	n.processed = append(n.processed, true)
	return 1
}

func newEvent(t *testing.T, typ events.EventType, payload any) *events.GameEvent {
	t.Helper()
	ev, err := events.NewGameEvent(typ, "test", payload, domain.Global(), 0, time.Now())
	require.NoError(t, err)
	return ev
}

func TestAdapter_AppliesOneMutationPerType(t *testing.T) {
	state := NewState(nil)
	notifier := &recordingNotifier{state: state}
	bus := events.NewBus(8)
	adapter := NewAdapter(state, notifier, nil)
	adapter.Attach(bus)
	defer adapter.Detach()

	bus.Dispatch(newEvent(t, events.EntitySpawned, events.SpawnPayload{
		EntityID: "hero", Kind: events.KindPlayer, Position: pos(1, 1, 7), Health: 100, MaxHealth: 100, Mana: 20,
	}))
	bus.Dispatch(newEvent(t, events.EntitySpawned, events.SpawnPayload{
		EntityID: "goblin", Kind: events.KindCreature, Position: pos(4, 4, 7), Health: 30,
	}))
	bus.Dispatch(newEvent(t, events.MovementCompleted, events.MovementPayload{EntityID: "hero", To: pos(2, 1, 7)}))
	bus.Dispatch(newEvent(t, events.EntityTeleported, events.MovementPayload{EntityID: "goblin", To: pos(40, 40, 7)}))
	bus.Dispatch(newEvent(t, events.DamageDealt, events.DamagePayload{TargetID: "hero", Amount: 250}))
	bus.Dispatch(newEvent(t, events.TileChanged, events.TilePayload{Position: pos(3, 3, 7), TileType: "lava"}))
	bus.Dispatch(newEvent(t, events.MessageSent, events.MessagePayload{SenderID: "hero", Text: "ouch"}))

	hero, err := state.GetPlayer("hero")
	require.NoError(t, err)
	assert.Equal(t, pos(2, 1, 7), hero.Position)
	assert.Equal(t, 0, hero.Health)
	assert.Equal(t, 20, hero.MaxMana)

	goblin, err := state.GetCreature("goblin")
	require.NoError(t, err)
	assert.Equal(t, pos(40, 40, 7), goblin.Position)
	assert.Equal(t, 30, goblin.MaxHealth)

	tile, ok := state.TileAt(pos(3, 3, 7))
	require.True(t, ok)
	assert.Equal(t, "lava", tile.Type)

	bus.Dispatch(newEvent(t, events.EntityDespawned, events.DespawnPayload{EntityID: "goblin"}))
	_, err = state.GetCreature("goblin")
	assert.True(t, domain.IsNotFound(err))

	assert.Len(t, state.EventLog(), 8, "every event is logged regardless of type")
	assert.Empty(t, state.FindUnprocessed())
	assert.Len(t, notifier.notified, 8)
	for _, done := range notifier.processed {
		assert.False(t, done, "entry is marked processed after notification")
	}
}

func TestAdapter_BadPayloadIsLoggedAndSkipped(t *testing.T) {
	state := NewState(nil)
	adapter := NewAdapter(state, nil, nil)

	adapter.Apply(newEvent(t, events.DamageDealt, nil))
	assert.Len(t, state.EventLog(), 1)
	assert.Empty(t, state.FindUnprocessed())
}

func TestAdapter_DetachStopsUpdates(t *testing.T) {
	state := NewState(nil)
	bus := events.NewBus(8)
	adapter := NewAdapter(state, nil, nil)
	adapter.Attach(bus)
	adapter.Detach()

	bus.Dispatch(newEvent(t, events.MessageSent, nil))
	assert.Empty(t, state.EventLog())
}
