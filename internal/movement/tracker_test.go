package movement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestTracker_IdempotentArrival(t *testing.T) {
	clock := newClock()
	tr := NewTracker(clock.Now)
	tr.StartMovement("hero", pos(1, 1, 0), pos(2, 1, 0), 1)
	require.True(t, tr.IsMoving("hero"))

	clock.t = clock.t.Add(time.Second)
	assert.True(t, tr.UpdatePosition("hero", pos(2, 1, 0)))
	assert.False(t, tr.IsMoving("hero"))
	first, _ := tr.State("hero")
	assert.Nil(t, first.TargetPosition)

	clock.t = clock.t.Add(time.Second)
	assert.False(t, tr.UpdatePosition("hero", pos(2, 1, 0)), "second identical update is a no-op")
	second, _ := tr.State("hero")
	assert.Equal(t, first, second)
}

func TestTracker_UpdateUnknownEntityCreatesState(t *testing.T) {
	tr := NewTracker(nil)
	tr.UpdatePosition("ghost", pos(4, 4, 1))

	st, ok := tr.State("ghost")
	require.True(t, ok)
	assert.False(t, st.IsMoving)
	p, ok := tr.Position("ghost")
	require.True(t, ok)
	assert.Equal(t, pos(4, 4, 1), p)

	_, ok = tr.Position("nobody")
	assert.False(t, ok)
}

func TestTracker_IntermediateUpdateKeepsMoving(t *testing.T) {
	tr := NewTracker(nil)
	tr.StartMovement("hero", pos(0, 0, 0), pos(3, 0, 0), 1)
	tr.UpdatePosition("hero", pos(1, 0, 0))
	assert.True(t, tr.IsMoving("hero"))

	tr.FinishMovement("hero", nil)
	assert.False(t, tr.IsMoving("hero"))
	p, _ := tr.Position("hero")
	assert.Equal(t, pos(1, 0, 0), p)
}

func TestTracker_SpatialQueries(t *testing.T) {
	tr := NewTracker(nil)
	tr.UpdatePosition("a", pos(10, 10, 0))
	tr.UpdatePosition("b", pos(13, 14, 0))
	tr.UpdatePosition("c", pos(10, 10, 1))
	tr.UpdatePosition("d", pos(30, 30, 0))

	assert.Equal(t, []string{"a", "b"}, tr.EntitiesInRadius(pos(10, 10, 0), 5))
	assert.Equal(t, []string{"a"}, tr.EntitiesInRadius(pos(10, 10, 0), 4.9))

	box := tr.EntitiesInBox(0, 0, 20, 20, 0)
	require.Len(t, box, 2)
	assert.Equal(t, "a", box[0].EntityID)

	assert.Equal(t, []string{"a"}, tr.EntitiesAt(pos(10, 10, 0)))
	assert.True(t, tr.IsOccupied(pos(10, 10, 0), "b"))
	assert.False(t, tr.IsOccupied(pos(10, 10, 0), "a"))
}

func TestTracker_CleanupInactive(t *testing.T) {
	clock := newClock()
	tr := NewTracker(clock.Now)
	tr.UpdatePosition("idle", pos(1, 1, 0))
	tr.StartMovement("walker", pos(2, 2, 0), pos(3, 3, 0), 1)

	clock.t = clock.t.Add(31 * time.Minute)
	tr.UpdatePosition("fresh", pos(5, 5, 0))

	assert.Equal(t, 1, tr.CleanupInactive(30))
	assert.Equal(t, 2, tr.Len())
	_, ok := tr.State("idle")
	assert.False(t, ok)
}
