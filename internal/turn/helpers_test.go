package turn

import (
	"sync"
	"time"
)

// testEvent - минимальная реализация Task[string] для тестов пакета.
type testEvent struct {
	mu       sync.Mutex
	id       string
	priority int
	created  time.Time
	entity   string
	status   string
	reason   string
	result   string
	err      error
}

var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestEvent(id string, priority int, offset time.Duration, entity string) *testEvent {
	return &testEvent{id: id, priority: priority, created: baseTime.Add(offset), entity: entity, status: "PENDING"}
}

func (e *testEvent) Key() string                 { return e.id }
func (e *testEvent) Rank() int                   { return e.priority }
func (e *testEvent) EnqueuedAt() time.Time       { return e.created }
func (e *testEvent) Involves(entityID string) bool { return e.entity == entityID }

func (e *testEvent) IsPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status == "PENDING"
}

func (e *testEvent) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *testEvent) MarkProcessing(time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = "PROCESSING"
}

func (e *testEvent) MarkCancelled(reason string, _ time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = "CANCELLED"
	e.reason = reason
}

func (e *testEvent) Finish(result string, err error, _ time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.result = result
	e.err = err
	if err != nil {
		e.status = "FAILED"
		return
	}
	e.status = "COMPLETED"
}

func (e *testEvent) Clone() *testEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &testEvent{
		id: e.id, priority: e.priority, created: e.created, entity: e.entity,
		status: e.status, reason: e.reason, result: e.result, err: e.err,
	}
}

func keys(events []*testEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.id
	}
	return out
}
