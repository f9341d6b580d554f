package turn

import (
	"sort"
	"sync"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
)

// Record - запись, которую можно хранить в Store.
// Clone должен возвращать независимую копию: Store никогда не отдает наружу свои экземпляры.
type Record[E any] interface {
	Key() string
	EnqueuedAt() time.Time
	Clone() E
}

// Store is an in-memory, copy-on-write record repository.
// Every Save is a durable transition visible to concurrent readers.
type Store[E Record[E]] struct {
	mu      sync.RWMutex
	kind    string
	records map[string]E
}

func NewStore[E Record[E]](kind string) *Store[E] {
	return &Store[E]{
		kind:    kind,
		records: make(map[string]E),
	}
}

func (s *Store[E]) Save(rec E) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key()] = rec.Clone()
	return nil
}

// Get возвращает копию записи или domain.ErrNotFound.
func (s *Store[E]) Get(key string) (E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		var zero E
		return zero, domain.NotFound(s.kind, key)
	}
	return rec.Clone(), nil
}

// Find returns copies of matching records, newest first. limit <= 0 means no limit.
func (s *Store[E]) Find(match func(E) bool, limit int) []E {
	s.mu.RLock()
	matched := make([]E, 0)
	for _, rec := range s.records {
		if match == nil || match(rec) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		ti, tj := matched[i].EnqueuedAt(), matched[j].EnqueuedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return matched[i].Key() > matched[j].Key()
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	result := make([]E, len(matched))
	for i, rec := range matched {
		result[i] = rec.Clone()
	}
	return result
}

// DeleteWhere удаляет записи, подходящие под условие, и возвращает их количество.
func (s *Store[E]) DeleteWhere(match func(E) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, rec := range s.records {
		if match(rec) {
			delete(s.records, key)
			n++
		}
	}
	return n
}

// DeleteOlderThan removes records created before cutoff.
func (s *Store[E]) DeleteOlderThan(cutoff time.Time) int {
	return s.DeleteWhere(func(rec E) bool { return rec.EnqueuedAt().Before(cutoff) })
}

func (s *Store[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
