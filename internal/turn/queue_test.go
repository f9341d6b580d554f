package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Ordering(t *testing.T) {
	q := NewQueue[*testEvent]()

	q.Enqueue(newTestEvent("low", 0, 0, "e1"))
	q.Enqueue(newTestEvent("high", 10, 3, "e1"))
	q.Enqueue(newTestEvent("mid-a", 5, 1, "e2"))
	q.Enqueue(newTestEvent("mid-b", 5, 2, "e2"))
	// Тот же priority и тот же createdAt: решает порядок вставки
	q.Enqueue(newTestEvent("mid-c", 5, 2, "e3"))

	assert.Equal(t, []string{"high", "mid-a", "mid-b", "mid-c", "low"}, keys(q.Pending()))
	assert.Equal(t, 5, q.Size())

	first, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "high", first.id)

	// Порядок сохраняется после каждой вставки, а не только при извлечении
	q.Enqueue(newTestEvent("urgent", 100, 10, "e4"))
	assert.Equal(t, []string{"urgent", "high", "mid-a", "mid-b", "mid-c", "low"}, keys(q.Pending()))
}

func TestQueue_Dequeue(t *testing.T) {
	q := NewQueue[*testEvent]()
	q.Enqueue(newTestEvent("a", 1, 0, ""))
	q.Enqueue(newTestEvent("b", 2, 0, ""))

	first, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "b", first.id)

	second, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", second.id)

	_, ok = q.Dequeue()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestQueue_DuplicateEnqueueIgnored(t *testing.T) {
	q := NewQueue[*testEvent]()
	ev := newTestEvent("a", 1, 0, "")

	assert.True(t, q.Enqueue(ev))
	assert.False(t, q.Enqueue(ev))
	assert.Equal(t, 1, q.Size())
}

func TestQueue_CancelPendingForEntity(t *testing.T) {
	q := NewQueue[*testEvent]()
	a := newTestEvent("a", 1, 0, "hero")
	b := newTestEvent("b", 1, 1, "goblin")
	c := newTestEvent("c", 1, 2, "hero")
	running := newTestEvent("running", 9, 0, "hero")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)
	q.Enqueue(running)

	// running уже в обработке
	require.True(t, q.Begin("running", baseTime))

	cancelled := q.CancelPendingForEntity("hero", "player logged out", baseTime)
	assert.Equal(t, []string{"a", "c"}, keys(cancelled))
	assert.Equal(t, "CANCELLED", a.Status())
	assert.Equal(t, "player logged out", a.reason)
	assert.Equal(t, "PROCESSING", running.Status(), "processing events are untouched")
	assert.Equal(t, "PENDING", b.Status())

	assert.Equal(t, []string{"b"}, keys(q.Pending()))
	assert.Empty(t, q.PendingForEntity("hero"))

	// Отмененные доступны по id до Purge
	got, ok := q.Get("a")
	require.True(t, ok)
	assert.Equal(t, "CANCELLED", got.Status())

	assert.False(t, q.Begin("a", baseTime), "cancelled events are never scheduled")
	assert.False(t, q.Purge("b"), "pending events are not purged")
	assert.True(t, q.Purge("a"))
	_, ok = q.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, q.PurgeCancelled())
}

func TestQueue_BeginRemovesFromScheduling(t *testing.T) {
	q := NewQueue[*testEvent]()
	ev := newTestEvent("a", 1, 0, "")
	q.Enqueue(ev)

	assert.True(t, q.Begin("a", baseTime))
	assert.Equal(t, "PROCESSING", ev.Status())
	assert.Equal(t, 0, q.Size())
	assert.False(t, q.Begin("a", baseTime))
	assert.False(t, q.Begin("missing", baseTime))
}

func TestQueue_ClearAndDump(t *testing.T) {
	q := NewQueue[*testEvent]()
	q.Enqueue(newTestEvent("a", 1, 0, ""))
	q.Enqueue(newTestEvent("b", 3, 0, ""))

	dump := q.DebugDump()
	require.Len(t, dump, 2)
	assert.Equal(t, "b", dump[0]["id"])

	q.Clear()
	assert.Equal(t, 0, q.Size())
	assert.NotNil(t, q.DebugDump())
}
