package movement

import (
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/turn"
)

// History - журнал успешных перемещений.
type History struct {
	store *turn.Store[Movement]
}

func NewHistory() *History {
	return &History{store: turn.NewStore[Movement]("movement")}
}

func (h *History) Add(m Movement) error {
	return h.store.Save(m)
}

func (h *History) Get(id string) (Movement, error) {
	return h.store.Get(id)
}

// ByEntity - перемещения сущности, новые первыми.
func (h *History) ByEntity(entityID string, limit int) []Movement {
	return h.store.Find(func(m Movement) bool { return m.EntityID == entityID }, limit)
}

// AtPosition - перемещения, начавшиеся или закончившиеся в pos.
func (h *History) AtPosition(pos domain.Position, limit int) []Movement {
	return h.store.Find(func(m Movement) bool { return m.From.Equal(pos) || m.To.Equal(pos) }, limit)
}

// InWindow returns movements with from <= timestamp < to.
func (h *History) InWindow(from, to time.Time, limit int) []Movement {
	return h.store.Find(func(m Movement) bool {
		return !m.Timestamp.Before(from) && m.Timestamp.Before(to)
	}, limit)
}

// CountSince считает перемещения сущности заданных типов начиная с since.
func (h *History) CountSince(entityID string, since time.Time, types ...MovementType) int {
	return len(h.store.Find(func(m Movement) bool {
		if m.EntityID != entityID || m.Timestamp.Before(since) {
			return false
		}
		if len(types) == 0 {
			return true
		}
		for _, t := range types {
			if m.Type == t {
				return true
			}
		}
		return false
	}, 0))
}

func (h *History) DeleteOlderThan(cutoff time.Time) int {
	return h.store.DeleteOlderThan(cutoff)
}

func (h *History) Len() int {
	return h.store.Len()
}
