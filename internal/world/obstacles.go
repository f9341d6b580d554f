package world

import "github.com/harrisonpepese/aibit-server-sub000/internal/domain"

// Obstacles - проверка занятости для конвейера перемещений:
// клетка занята другой сущностью или на ней непроходимый тайл.
type Obstacles struct {
	State *State
}

func (o Obstacles) IsOccupied(pos domain.Position, except string) bool {
	s := o.State
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.tileAt[pos.Key()]; ok && !s.tiles[id].Walkable {
		return true
	}
	return s.occupiedLocked(pos, except)
}
