package turn

import (
	"container/heap"
	"sort"
	"sync"
	"time"
)

// queueItem обертка для элемента очереди приоритетов
type queueItem[E Schedulable] struct {
	value E
	seq   uint64 // порядок вставки, разрешает равенство priority+createdAt
	index int    // индекс в куче, -1 если элемент не в куче
}

// itemHeap реализует heap.Interface.
// Сначала больший priority, затем более ранний createdAt, затем порядок вставки.
type itemHeap[E Schedulable] []*queueItem[E]

func (h itemHeap[E]) Len() int { return len(h) }

func (h itemHeap[E]) Less(i, j int) bool {
	return before(h[i], h[j])
}

func (h itemHeap[E]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap[E]) Push(x any) {
	item := x.(*queueItem[E])
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *itemHeap[E]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // избегаем утечки памяти
	item.index = -1 // для безопасности
	*h = old[0 : n-1]
	return item
}

func before[E Schedulable](a, b *queueItem[E]) bool {
	if a.value.Rank() != b.value.Rank() {
		return a.value.Rank() > b.value.Rank()
	}
	ta, tb := a.value.EnqueuedAt(), b.value.EnqueuedAt()
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return a.seq < b.seq
}

// Queue - приоритетная очередь ожидающих событий.
// Отмененные события убираются из планирования, но остаются доступны по id до Purge.
type Queue[E Schedulable] struct {
	mu      sync.Mutex
	heap    itemHeap[E]
	itemMap map[string]*queueItem[E]
	seq     uint64
}

func NewQueue[E Schedulable]() *Queue[E] {
	return &Queue[E]{
		heap:    make(itemHeap[E], 0),
		itemMap: make(map[string]*queueItem[E]),
	}
}

// Enqueue добавляет событие. Повторный Enqueue того же id игнорируется.
func (q *Queue[E]) Enqueue(ev E) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.itemMap[ev.Key()]; ok {
		return false
	}
	q.seq++
	item := &queueItem[E]{value: ev, seq: q.seq, index: -1}
	q.itemMap[ev.Key()] = item
	if ev.IsPending() {
		heap.Push(&q.heap, item)
	}
	return true
}

// Peek returns the next event to run without removing it.
func (q *Queue[E]) Peek() (E, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero E
	if q.heap.Len() == 0 {
		return zero, false
	}
	return q.heap[0].value, true
}

// Dequeue removes and returns the next pending event.
func (q *Queue[E]) Dequeue() (E, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero E
	if q.heap.Len() == 0 {
		return zero, false
	}
	item := heap.Pop(&q.heap).(*queueItem[E])
	delete(q.itemMap, item.value.Key())
	return item.value, true
}

// Pending возвращает снимок ожидающих событий в порядке обработки.
func (q *Queue[E]) Pending() []E {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sortedLocked(func(E) bool { return true })
}

// PendingForEntity - ожидающие события, затрагивающие сущность.
func (q *Queue[E]) PendingForEntity(entityID string) []E {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sortedLocked(func(ev E) bool { return ev.Involves(entityID) })
}

func (q *Queue[E]) sortedLocked(keep func(E) bool) []E {
	items := make([]*queueItem[E], 0, q.heap.Len())
	for _, item := range q.heap {
		if keep(item.value) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return before(items[i], items[j]) })

	result := make([]E, len(items))
	for i, item := range items {
		result[i] = item.value
	}
	return result
}

// CancelPendingForEntity помечает ожидающие события сущности как отмененные.
// События, уже взятые в обработку, сюда не попадают: их нет в куче.
func (q *Queue[E]) CancelPendingForEntity(entityID, reason string, at time.Time) []E {
	q.mu.Lock()
	defer q.mu.Unlock()

	var cancelled []*queueItem[E]
	for _, item := range q.heap {
		if item.value.Involves(entityID) {
			cancelled = append(cancelled, item)
		}
	}
	sort.Slice(cancelled, func(i, j int) bool { return before(cancelled[i], cancelled[j]) })

	result := make([]E, 0, len(cancelled))
	for _, item := range cancelled {
		heap.Remove(&q.heap, item.index)
		item.value.MarkCancelled(reason, at)
		result = append(result, item.value)
	}
	return result
}

// Begin atomically moves a pending event to PROCESSING and drops it from the queue.
// Returns false when the event is unknown or no longer pending.
func (q *Queue[E]) Begin(key string, at time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.itemMap[key]
	if !ok || item.index < 0 || !item.value.IsPending() {
		return false
	}
	heap.Remove(&q.heap, item.index)
	delete(q.itemMap, key)
	item.value.MarkProcessing(at)
	return true
}

// Get looks up a pending or cancelled event by id.
func (q *Queue[E]) Get(key string) (E, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero E
	item, ok := q.itemMap[key]
	if !ok {
		return zero, false
	}
	return item.value, true
}

// Purge удаляет отмененное событие. Ожидающие события Purge не трогает.
func (q *Queue[E]) Purge(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.itemMap[key]
	if !ok || item.index >= 0 {
		return false
	}
	delete(q.itemMap, key)
	return true
}

// PurgeCancelled удаляет все отмененные события и возвращает их количество.
func (q *Queue[E]) PurgeCancelled() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for key, item := range q.itemMap {
		if item.index < 0 {
			delete(q.itemMap, key)
			n++
		}
	}
	return n
}

// Size - количество ожидающих событий.
func (q *Queue[E]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

func (q *Queue[E]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.heap = make(itemHeap[E], 0)
	q.itemMap = make(map[string]*queueItem[E])
}

// DebugDump возвращает снимок очереди для отладки
func (q *Queue[E]) DebugDump() []map[string]interface{} {
	// Пустой слайс, а не nil: в JSON будет "[]", а не "null"
	result := make([]map[string]interface{}, 0)
	for i, ev := range q.Pending() {
		result = append(result, map[string]interface{}{
			"id":        ev.Key(),
			"priority":  ev.Rank(),
			"createdAt": ev.EnqueuedAt(),
			"position":  i,
		})
	}
	return result
}
