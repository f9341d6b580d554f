// Package turn содержит общие примитивы пошаговой обработки:
// приоритетную очередь событий, тиковый процессор и хранилище записей.
// Общие события и события перемещения используют одни и те же примитивы.
package turn

import "time"

// Schedulable - элемент, который можно поставить в очередь.
// Реализуется указателем на событие (*events.GameEvent, *movement.Event).
type Schedulable interface {
	Key() string
	Rank() int
	EnqueuedAt() time.Time
	IsPending() bool
	Involves(entityID string) bool
	MarkProcessing(at time.Time)
	MarkCancelled(reason string, at time.Time)
}

// Task is a Schedulable that can be finished with a typed result.
type Task[R any] interface {
	Schedulable
	Finish(result R, err error, at time.Time)
}
