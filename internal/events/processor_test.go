package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo  *Repository
	bus   *Bus
	proc  *Processor
	clock time.Time
}

func newFixture() *fixture {
	f := &fixture{repo: NewRepository(), bus: NewBus(16), clock: t0}
	f.proc = NewProcessor(f.repo, f.bus, ProcessorOptions{Now: func() time.Time {
		f.clock = f.clock.Add(time.Millisecond)
		return f.clock
	}})
	return f
}

func TestProcessor_PublishValidatesBeforeEnqueue(t *testing.T) {
	f := newFixture()
	_, err := f.proc.Publish(DamageDealt, "", nil, domain.Global(), 0)
	require.Error(t, err)
	assert.Empty(t, f.proc.Pending())
	assert.Zero(t, f.repo.Len())
}

func TestProcessor_CompletedEventsReachTheBus(t *testing.T) {
	f := newFixture()
	sub := f.bus.SubscribeAll()

	f.proc.Handle(DamageDealt, func(_ context.Context, ev *GameEvent) (Outcome, error) {
		var p DamagePayload
		if err := ev.Decode(&p); err != nil {
			return nil, err
		}
		return Outcome{"applied": p.Amount}, nil
	})
	f.proc.Handle(CombatAction, func(context.Context, *GameEvent) (Outcome, error) {
		return nil, errors.New("combat module offline")
	})

	dmg, err := f.proc.Publish(DamageDealt, "combat", DamagePayload{TargetID: "g", Amount: 3}, domain.Global(), 0)
	require.NoError(t, err)
	combat, err := f.proc.Publish(CombatAction, "combat", CombatActionPayload{AttackerID: "a", TargetID: "g"}, domain.Global(), 5)
	require.NoError(t, err)
	chat, err := f.proc.Publish(MessageSent, "chat", MessagePayload{SenderID: "a", Text: "hi"}, domain.Global(), 0)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, dmg.Status)

	f.proc.Tick(context.Background())

	got, err := f.repo.Get(dmg.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 3, got.Result["applied"])

	failed, err := f.repo.Get(combat.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "combat module offline", failed.Result["error"])

	acked, err := f.repo.Get(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, true, acked.Result["acknowledged"])

	var dispatched []string
	for _, ev := range drain(sub) {
		dispatched = append(dispatched, ev.ID)
	}
	assert.Equal(t, []string{dmg.ID, chat.ID}, dispatched, "failed events are not dispatched")
}

func TestProcessor_CancelPendingForEntity(t *testing.T) {
	f := newFixture()
	ev, err := f.proc.Publish(DamageDealt, "combat", DamagePayload{TargetID: "g", Amount: 1}, domain.Global(), 0)
	require.NoError(t, err)
	other, err := f.proc.Publish(DamageDealt, "combat", DamagePayload{TargetID: "h", Amount: 1}, domain.Global(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, f.proc.CancelPendingForEntity("g", "target left"))

	got, err := f.repo.Get(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "target left", got.Result["cancelled"])

	f.proc.Tick(context.Background())
	done, err := f.repo.Get(other.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestRepository_QueryNewestFirst(t *testing.T) {
	f := newFixture()
	vis, err := domain.SpecificEntities("hero")
	require.NoError(t, err)
	area, err := domain.Area(domain.Position{X: 10, Y: 10, Z: 7}, 5)
	require.NoError(t, err)

	a, _ := f.proc.Publish(MessageSent, "chat", nil, vis, 0)
	b, _ := f.proc.Publish(TileChanged, "map", nil, area, 0)
	c, _ := f.proc.Publish(MessageSent, "chat", nil, domain.Global(), 0)

	ids := func(evs []*GameEvent) []string {
		out := make([]string, len(evs))
		for i, ev := range evs {
			out[i] = ev.ID
		}
		return out
	}

	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(f.repo.Query(Query{})))
	assert.Equal(t, []string{c.ID}, ids(f.repo.Query(Query{Type: MessageSent, Limit: 1})))
	assert.Equal(t, []string{b.ID}, ids(f.repo.Query(Query{SourceModule: "map"})))
	assert.Equal(t, []string{c.ID, a.ID}, ids(f.repo.Query(Query{EntityID: "hero"})))
	assert.Equal(t, []string{c.ID, b.ID}, ids(f.repo.Query(Query{Area: &AreaQuery{Center: domain.Position{X: 12, Y: 10, Z: 7}}})))
	assert.Empty(t, f.repo.Query(Query{Status: StatusCompleted}))

	_, err = f.repo.Get("missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestRepository_RetentionKeepsQueuedEvents(t *testing.T) {
	f := newFixture()
	done, err := f.proc.Publish(MessageSent, "chat", nil, domain.Global(), 0)
	require.NoError(t, err)
	f.proc.Tick(context.Background())
	queued, err := f.proc.Publish(MessageSent, "chat", nil, domain.Global(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.DeleteOlderThan(f.clock.Add(time.Hour)))

	_, err = f.repo.Get(done.ID)
	assert.True(t, domain.IsNotFound(err))
	got, err := f.repo.Get(queued.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}
