// Package world - авторитетный снимок мира в памяти: игроки, существа, тайлы
// и журнал событий. Изменяется только через Adapter в ответ на события шины.
package world

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/sasha-s/go-deadlock"
)

type Player struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Position  domain.Position `json:"position"`
	Health    int             `json:"health"`
	MaxHealth int             `json:"maxHealth"`
	Mana      int             `json:"mana"`
	MaxMana   int             `json:"maxMana"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Creature struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Position  domain.Position `json:"position"`
	Health    int             `json:"health"`
	MaxHealth int             `json:"maxHealth"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Tile struct {
	ID       string          `json:"id"`
	Position domain.Position `json:"position"`
	Type     string          `json:"type"`
	Walkable bool            `json:"walkable"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// LogEntry - запись журнала, зеркало события шины.
type LogEntry struct {
	ID        string           `json:"id"`
	Type      events.EventType `json:"type"`
	Data      events.Data      `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
	Processed bool             `json:"processed"`
}

// EntityRef - результат пространственного запроса
type EntityRef struct {
	ID       string            `json:"id"`
	Kind     events.EntityKind `json:"kind"`
	Position domain.Position   `json:"position"`
}

// State - снимок мира. Один RWMutex на все хранилище.
type State struct {
	mu        deadlock.RWMutex
	players   map[string]*Player
	creatures map[string]*Creature
	tiles     map[string]*Tile
	tileAt    map[string]string // Position.Key() -> tile id
	log       []LogEntry
	logIndex  map[string]int
	now       func() time.Time
}

func NewState(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{
		players:   make(map[string]*Player),
		creatures: make(map[string]*Creature),
		tiles:     make(map[string]*Tile),
		tileAt:    make(map[string]string),
		logIndex:  make(map[string]int),
		now:       now,
	}
}

// --- Players ---

func (s *State) AddPlayer(p Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Metadata = copyMeta(p.Metadata)
	p.UpdatedAt = s.now()
	s.players[p.ID] = &p
}

func (s *State) GetPlayer(id string) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return Player{}, domain.NotFound("player", id)
	}
	return p.clone(), nil
}

func (s *State) HasPlayer(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.players[id]
	return ok
}

func (s *State) RemovePlayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return false
	}
	delete(s.players, id)
	return true
}

func (s *State) Players() []Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- Creatures ---

func (s *State) AddCreature(c Creature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Metadata = copyMeta(c.Metadata)
	c.UpdatedAt = s.now()
	s.creatures[c.ID] = &c
}

func (s *State) GetCreature(id string) (Creature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creatures[id]
	if !ok {
		return Creature{}, domain.NotFound("creature", id)
	}
	return c.clone(), nil
}

func (s *State) RemoveCreature(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creatures[id]; !ok {
		return false
	}
	delete(s.creatures, id)
	return true
}

func (s *State) Creatures() []Creature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Creature, 0, len(s.creatures))
	for _, c := range s.creatures {
		out = append(out, c.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MoveEntity переставляет игрока или существо. Возвращает false, если сущности нет.
func (s *State) MoveEntity(id string, pos domain.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[id]; ok {
		p.Position = pos
		p.UpdatedAt = s.now()
		return true
	}
	if c, ok := s.creatures[id]; ok {
		c.Position = pos
		c.UpdatedAt = s.now()
		return true
	}
	return false
}

// ApplyDamage вычитает amount (отрицательный - лечение) и зажимает здоровье в [0, maxHealth].
func (s *State) ApplyDamage(id string, amount int) (health int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, found := s.players[id]; found {
		p.Health = clamp(p.Health-amount, 0, p.MaxHealth)
		p.UpdatedAt = s.now()
		return p.Health, true
	}
	if c, found := s.creatures[id]; found {
		c.Health = clamp(c.Health-amount, 0, c.MaxHealth)
		c.UpdatedAt = s.now()
		return c.Health, true
	}
	return 0, false
}

// RemoveEntity удаляет игрока или существо с этим id.
func (s *State) RemoveEntity(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; ok {
		delete(s.players, id)
		return true
	}
	if _, ok := s.creatures[id]; ok {
		delete(s.creatures, id)
		return true
	}
	return false
}

// --- Tiles ---

// UpsertTile заменяет тайл по id; тайл без id адресуется позицией.
func (s *State) UpsertTile(t Tile) Tile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		if existing, ok := s.tileAt[t.Position.Key()]; ok {
			t.ID = existing
		} else {
			t.ID = "tile:" + t.Position.Key()
		}
	}
	if old, ok := s.tiles[t.ID]; ok {
		delete(s.tileAt, old.Position.Key())
	}
	// На одной клетке один тайл
	if otherID, ok := s.tileAt[t.Position.Key()]; ok && otherID != t.ID {
		delete(s.tiles, otherID)
	}
	t.Metadata = copyMeta(t.Metadata)
	s.tiles[t.ID] = &t
	s.tileAt[t.Position.Key()] = t.ID
	return t
}

func (s *State) GetTile(id string) (Tile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tiles[id]
	if !ok {
		return Tile{}, domain.NotFound("tile", id)
	}
	return t.clone(), nil
}

func (s *State) TileAt(pos domain.Position) (Tile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tileAt[pos.Key()]
	if !ok {
		return Tile{}, false
	}
	return s.tiles[id].clone(), true
}

func (s *State) RemoveTile(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tiles[id]
	if !ok {
		return false
	}
	delete(s.tileAt, t.Position.Key())
	delete(s.tiles, id)
	return true
}

// --- Event log ---

// AppendLog добавляет запись. Повтор того же id игнорируется.
func (s *State) AppendLog(e LogEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.logIndex[e.ID]; ok {
		return false
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	e.Data.Payload = append(json.RawMessage(nil), e.Data.Payload...)
	s.logIndex[e.ID] = len(s.log)
	s.log = append(s.log, e)
	return true
}

func (s *State) MarkProcessed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.logIndex[id]
	if !ok {
		return false
	}
	s.log[i].Processed = true
	return true
}

func (s *State) FindUnprocessed() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LogEntry, 0)
	for _, e := range s.log {
		if !e.Processed {
			out = append(out, e)
		}
	}
	return out
}

// EventLog - копия журнала в порядке добавления
func (s *State) EventLog() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LogEntry(nil), s.log...)
}

// ClearOlderThanProcessed удаляет обработанные записи старше maxAge.
// Необработанные записи не удаляются независимо от возраста.
func (s *State) ClearOlderThanProcessed(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	kept := s.log[:0]
	removed := 0
	for _, e := range s.log {
		if e.Processed && e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.log); i++ {
		s.log[i] = LogEntry{}
	}
	s.log = kept

	s.logIndex = make(map[string]int, len(s.log))
	for i, e := range s.log {
		s.logIndex[e.ID] = i
	}
	return removed
}

// --- Spatial queries ---

// EntitiesInArea - игроки и существа на том же z в радиусе (квадрат расстояния).
func (s *State) EntitiesInArea(center domain.Position, radius float64) []EntityRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]EntityRef, 0)
	for _, p := range s.players {
		if p.Position.WithinRadius(center, radius) {
			out = append(out, EntityRef{ID: p.ID, Kind: events.KindPlayer, Position: p.Position})
		}
	}
	for _, c := range s.creatures {
		if c.Position.WithinRadius(center, radius) {
			out = append(out, EntityRef{ID: c.ID, Kind: events.KindCreature, Position: c.Position})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PlayersInArea - только игроки, для рассылки клиентам.
func (s *State) PlayersInArea(center domain.Position, radius float64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for _, p := range s.players {
		if p.Position.WithinRadius(center, radius) {
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *State) TilesInArea(center domain.Position, radius float64) []Tile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Tile, 0)
	for _, t := range s.tiles {
		if t.Position.WithinRadius(center, radius) {
			out = append(out, t.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsOccupied reports whether a player or creature other than except stands at pos.
func (s *State) IsOccupied(pos domain.Position, except string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.occupiedLocked(pos, except)
}

func (s *State) occupiedLocked(pos domain.Position, except string) bool {
	for id, p := range s.players {
		if id != except && p.Position.Equal(pos) {
			return true
		}
	}
	for id, c := range s.creatures {
		if id != except && c.Position.Equal(pos) {
			return true
		}
	}
	return false
}

// Stats - счетчики для /debug/world
type Stats struct {
	Players     int `json:"players"`
	Creatures   int `json:"creatures"`
	Tiles       int `json:"tiles"`
	LogEntries  int `json:"logEntries"`
	Unprocessed int `json:"unprocessed"`
}

func (s *State) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Players:    len(s.players),
		Creatures:  len(s.creatures),
		Tiles:      len(s.tiles),
		LogEntries: len(s.log),
	}
	for _, e := range s.log {
		if !e.Processed {
			st.Unprocessed++
		}
	}
	return st
}

func (p *Player) clone() Player {
	out := *p
	out.Metadata = copyMeta(p.Metadata)
	return out
}

func (c *Creature) clone() Creature {
	out := *c
	out.Metadata = copyMeta(c.Metadata)
	return out
}

func (t *Tile) clone() Tile {
	out := *t
	out.Metadata = copyMeta(t.Metadata)
	return out
}

func copyMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
