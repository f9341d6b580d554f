package movement

import (
	"sort"
	"sync"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
)

// EntityState - текущее состояние движения сущности.
type EntityState struct {
	EntityID        string           `json:"entityId"`
	CurrentPosition domain.Position  `json:"currentPosition"`
	IsMoving        bool             `json:"isMoving"`
	TargetPosition  *domain.Position `json:"targetPosition,omitempty"`
	Speed           float64          `json:"speed,omitempty"`
	LastMoveTime    time.Time        `json:"lastMoveTime"`
}

func (s *EntityState) clone() EntityState {
	out := *s
	if s.TargetPosition != nil {
		t := *s.TargetPosition
		out.TargetPosition = &t
	}
	return out
}

// Tracker хранит позицию и флаг движения каждой сущности. Один мьютекс на все операции.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*EntityState
	now    func() time.Time
}

func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{states: make(map[string]*EntityState), now: now}
}

// StartMovement помечает сущность движущейся из from в to.
func (t *Tracker) StartMovement(entityID string, from, to domain.Position, speed float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	target := to
	t.states[entityID] = &EntityState{
		EntityID:        entityID,
		CurrentPosition: from,
		IsMoving:        true,
		TargetPosition:  &target,
		Speed:           speed,
		LastMoveTime:    t.now(),
	}
}

// UpdatePosition записывает новую позицию. Если она совпала с целью, движение завершается.
// Для неизвестной сущности создается состояние с IsMoving=false.
// Возвращает false, если состояние не изменилось.
func (t *Tracker) UpdatePosition(entityID string, pos domain.Position) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[entityID]
	if !ok {
		t.states[entityID] = &EntityState{EntityID: entityID, CurrentPosition: pos, LastMoveTime: t.now()}
		return true
	}
	if !st.IsMoving && st.CurrentPosition.Equal(pos) {
		return false
	}

	st.CurrentPosition = pos
	st.LastMoveTime = t.now()
	if st.IsMoving && st.TargetPosition != nil && st.TargetPosition.Equal(pos) {
		st.IsMoving = false
		st.TargetPosition = nil
	}
	return true
}

// FinishMovement снимает флаг движения. finalPos, если задан, становится текущей позицией.
func (t *Tracker) FinishMovement(entityID string, finalPos *domain.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[entityID]
	if !ok {
		if finalPos == nil {
			return
		}
		st = &EntityState{EntityID: entityID}
		t.states[entityID] = st
	}
	if finalPos != nil {
		st.CurrentPosition = *finalPos
	}
	st.IsMoving = false
	st.TargetPosition = nil
	st.LastMoveTime = t.now()
}

func (t *Tracker) IsMoving(entityID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[entityID]
	return ok && st.IsMoving
}

// Position returns the tracked position, ok=false for unknown entities.
func (t *Tracker) Position(entityID string) (domain.Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[entityID]
	if !ok {
		return domain.Position{}, false
	}
	return st.CurrentPosition, true
}

func (t *Tracker) State(entityID string) (EntityState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[entityID]
	if !ok {
		return EntityState{}, false
	}
	return st.clone(), true
}

// EntitiesInRadius - сущности на том же z в пределах планарного радиуса. Отсортированы по id.
func (t *Tracker) EntitiesInRadius(center domain.Position, radius float64) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0)
	for id, st := range t.states {
		if st.CurrentPosition.WithinRadius(center, radius) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// EntitiesInBox - состояния внутри прямоугольника (границы включительно) на уровне z.
func (t *Tracker) EntitiesInBox(minX, minY, maxX, maxY, z int) []EntityState {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]EntityState, 0)
	for _, st := range t.states {
		p := st.CurrentPosition
		if p.Z == z && p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY {
			out = append(out, st.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// EntitiesAt - кто стоит ровно в pos
func (t *Tracker) EntitiesAt(pos domain.Position) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []string
	for id, st := range t.states {
		if st.CurrentPosition.Equal(pos) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// IsOccupied reports whether an entity other than except stands at pos.
func (t *Tracker) IsOccupied(pos domain.Position, except string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, st := range t.states {
		if id != except && st.CurrentPosition.Equal(pos) {
			return true
		}
	}
	return false
}

// CleanupInactive удаляет неподвижные сущности, которые не двигались дольше порога.
func (t *Tracker) CleanupInactive(minutesThreshold int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-time.Duration(minutesThreshold) * time.Minute)
	removed := 0
	for id, st := range t.states {
		if !st.IsMoving && st.LastMoveTime.Before(cutoff) {
			delete(t.states, id)
			removed++
		}
	}
	return removed
}

func (t *Tracker) Remove(entityID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, entityID)
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}
