package events

import (
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/turn"
)

// AreaQuery - пространственный фильтр для Query
type AreaQuery struct {
	Center domain.Position
	Radius float64
}

// Query - фильтр выборки событий. Пустые поля не фильтруют.
// Результат всегда newest-first.
type Query struct {
	Type         EventType
	Status       Status
	SourceModule string
	EntityID     string
	Area         *AreaQuery
	Limit        int
}

func (q Query) matches(ev *GameEvent) bool {
	if q.Type != "" && ev.Type != q.Type {
		return false
	}
	if q.Status != "" && ev.Status != q.Status {
		return false
	}
	if q.SourceModule != "" && ev.Data.SourceModule != q.SourceModule {
		return false
	}
	if q.EntityID != "" && !ev.Visibility.VisibleToEntity(q.EntityID) {
		return false
	}
	if q.Area != nil && !ev.Visibility.VisibleInArea(q.Area.Center, q.Area.Radius) {
		return false
	}
	return true
}

// Repository хранит копии событий на каждом переходе статуса.
type Repository struct {
	store *turn.Store[*GameEvent]
}

func NewRepository() *Repository {
	return &Repository{store: turn.NewStore[*GameEvent]("event")}
}

func (r *Repository) Save(ev *GameEvent) error {
	return r.store.Save(ev)
}

// Get returns a copy of the event or an error wrapping domain.ErrNotFound.
func (r *Repository) Get(id string) (*GameEvent, error) {
	return r.store.Get(id)
}

func (r *Repository) Query(q Query) []*GameEvent {
	return r.store.Find(q.matches, q.Limit)
}

// DeleteOlderThan удаляет только завершенные события: ожидающие еще лежат в очереди.
func (r *Repository) DeleteOlderThan(cutoff time.Time) int {
	return r.store.DeleteWhere(func(ev *GameEvent) bool {
		return ev.Status.Terminal() && ev.CreatedAt.Before(cutoff)
	})
}

func (r *Repository) Len() int {
	return r.store.Len()
}
