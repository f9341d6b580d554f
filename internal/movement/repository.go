package movement

import (
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/turn"
)

// Query - фильтр по событиям перемещения; результат newest-first.
type Query struct {
	EntityID string
	Kind     EventKind
	Status   Status
	Limit    int
}

func (q Query) matches(ev *Event) bool {
	if q.EntityID != "" && ev.EntityID != q.EntityID {
		return false
	}
	if q.Kind != "" && ev.Kind != q.Kind {
		return false
	}
	if q.Status != "" && ev.Status != q.Status {
		return false
	}
	return true
}

// EventRepository хранит копию каждого перехода статуса события перемещения.
type EventRepository struct {
	store *turn.Store[*Event]
}

func NewEventRepository() *EventRepository {
	return &EventRepository{store: turn.NewStore[*Event]("movement event")}
}

func (r *EventRepository) Save(ev *Event) error          { return r.store.Save(ev) }
func (r *EventRepository) Get(id string) (*Event, error) { return r.store.Get(id) }
func (r *EventRepository) Query(q Query) []*Event        { return r.store.Find(q.matches, q.Limit) }
func (r *EventRepository) Len() int                      { return r.store.Len() }

// DeleteOlderThan не трогает PENDING/PROCESSING события, их статус еще будет сохранен процессором.
func (r *EventRepository) DeleteOlderThan(cutoff time.Time) int {
	return r.store.DeleteWhere(func(ev *Event) bool {
		return ev.Status.Terminal() && ev.CreatedAt.Before(cutoff)
	})
}
