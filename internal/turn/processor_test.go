package turn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(q *Queue[*testEvent], handle HandlerFunc[*testEvent, string]) *Processor[*testEvent, string] {
	return NewProcessor(ProcessorConfig[*testEvent, string]{
		Name:     "test",
		Interval: time.Millisecond,
		Queue:    q,
		Handle:   handle,
		Now:      func() time.Time { return baseTime },
	})
}

func TestProcessor_ProcessesInPriorityOrder(t *testing.T) {
	q := NewQueue[*testEvent]()
	q.Enqueue(newTestEvent("low", 1, 0, ""))
	q.Enqueue(newTestEvent("high", 9, 1, ""))
	q.Enqueue(newTestEvent("mid", 5, 2, ""))

	var order []string
	p := newTestProcessor(q, func(_ context.Context, ev *testEvent) (string, error) {
		order = append(order, ev.id)
		return "ok:" + ev.id, nil
	})

	require.True(t, p.Tick(context.Background()))
	assert.Equal(t, []string{"high", "mid", "low"}, order)
	assert.Equal(t, 0, q.Size())

	stats := p.Stats()
	assert.EqualValues(t, 1, stats.BatchesStarted)
	assert.EqualValues(t, 1, stats.BatchesFinished)
	assert.EqualValues(t, 3, stats.EventsCompleted)
}

func TestProcessor_FailureIsolation(t *testing.T) {
	q := NewQueue[*testEvent]()
	broken := newTestEvent("broken", 9, 0, "")
	panicky := newTestEvent("panicky", 8, 0, "")
	fine := newTestEvent("fine", 1, 0, "")
	q.Enqueue(broken)
	q.Enqueue(panicky)
	q.Enqueue(fine)

	var finished []string
	p := NewProcessor(ProcessorConfig[*testEvent, string]{
		Queue: q,
		Handle: func(_ context.Context, ev *testEvent) (string, error) {
			switch ev.id {
			case "broken":
				return "", errors.New("boom")
			case "panicky":
				panic("kaboom")
			}
			return "done", nil
		},
		OnFinish: func(ev *testEvent, _ error) { finished = append(finished, ev.id) },
	})

	p.Tick(context.Background())

	assert.Equal(t, "FAILED", broken.Status())
	assert.EqualError(t, broken.err, "boom")
	assert.Equal(t, "FAILED", panicky.Status())
	assert.Contains(t, panicky.err.Error(), "kaboom")
	assert.Equal(t, "COMPLETED", fine.Status())
	assert.Equal(t, "done", fine.result)
	assert.Equal(t, []string{"broken", "panicky", "fine"}, finished)
	assert.EqualValues(t, 2, p.Stats().EventsFailed)
}

func TestProcessor_RecordsEveryTransition(t *testing.T) {
	q := NewQueue[*testEvent]()
	q.Enqueue(newTestEvent("a", 1, 0, ""))

	var seen []string
	p := NewProcessor(ProcessorConfig[*testEvent, string]{
		Queue:  q,
		Handle: func(context.Context, *testEvent) (string, error) { return "", nil },
		Record: func(ev *testEvent) error {
			seen = append(seen, ev.Status())
			return nil
		},
	})
	p.Tick(context.Background())

	assert.Equal(t, []string{"PROCESSING", "COMPLETED"}, seen)
}

func TestProcessor_CancelledEventsAreSkipped(t *testing.T) {
	q := NewQueue[*testEvent]()
	first := newTestEvent("first", 9, 0, "a")
	victim := newTestEvent("victim", 1, 0, "b")
	q.Enqueue(first)
	q.Enqueue(victim)

	var ran []string
	p := newTestProcessor(q, func(_ context.Context, ev *testEvent) (string, error) {
		ran = append(ran, ev.id)
		// Отмена посреди прохода: victim уже в снимке, но еще не начат
		q.CancelPendingForEntity("b", "test", baseTime)
		return "", nil
	})
	p.Tick(context.Background())

	assert.Equal(t, []string{"first"}, ran)
	assert.Equal(t, "CANCELLED", victim.Status())
}

func TestProcessor_SkipsOverlappingTicks(t *testing.T) {
	q := NewQueue[*testEvent]()
	q.Enqueue(newTestEvent("slow", 1, 0, ""))

	entered := make(chan struct{})
	release := make(chan struct{})
	p := newTestProcessor(q, func(context.Context, *testEvent) (string, error) {
		close(entered)
		<-release
		return "", nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Tick(context.Background())
	}()
	<-entered

	assert.False(t, p.Tick(context.Background()), "second tick must not enter while the first is running")
	stats := p.Stats()
	assert.EqualValues(t, 1, stats.BatchesStarted)
	assert.EqualValues(t, 1, stats.TicksSkipped)

	close(release)
	wg.Wait()
	assert.True(t, p.Tick(context.Background()))
	assert.EqualValues(t, 2, p.Stats().BatchesFinished)
}

func TestProcessor_StartStopIdempotent(t *testing.T) {
	q := NewQueue[*testEvent]()
	var handled atomic.Int32
	p := newTestProcessor(q, func(context.Context, *testEvent) (string, error) {
		handled.Add(1)
		return "", nil
	})

	p.Start()
	p.Start()
	assert.True(t, p.Running())

	q.Enqueue(newTestEvent("a", 1, 0, ""))
	require.Eventually(t, func() bool { return handled.Load() == 1 }, time.Second, time.Millisecond)

	p.Stop()
	p.Stop()
	assert.False(t, p.Running())

	stats := p.Stats()
	assert.Equal(t, stats.BatchesStarted, stats.BatchesFinished, "no batch in flight after Stop")
}
