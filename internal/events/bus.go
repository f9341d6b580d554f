package events

import (
	"sync"
	"sync/atomic"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
	"github.com/sirupsen/logrus"
)

// DefaultSubscriptionBuffer - размер буфера канала подписки по умолчанию
const DefaultSubscriptionBuffer = 64

// Filter решает, получит ли подписчик событие. nil означает "все события".
type Filter func(*GameEvent) bool

func ByType(t EventType) Filter {
	return func(ev *GameEvent) bool { return ev.Type == t }
}

func BySourceModule(module string) Filter {
	return func(ev *GameEvent) bool { return ev.Data.SourceModule == module }
}

func ByEntityVisibility(entityID string) Filter {
	return func(ev *GameEvent) bool { return ev.Visibility.VisibleToEntity(entityID) }
}

func ByAreaVisibility(center domain.Position, radius float64) Filter {
	return func(ev *GameEvent) bool { return ev.Visibility.VisibleInArea(center, radius) }
}

// Subscription - поток событий, подходящих под фильтр.
// Доставка неблокирующая: если буфер полон, событие отбрасывается и учитывается в Dropped.
type Subscription struct {
	C <-chan *GameEvent

	id      uint64
	name    string
	bus     *Bus
	ch      chan *GameEvent
	dropped atomic.Int64

	mu     sync.Mutex
	closed bool
}

func (s *Subscription) Name() string { return s.name }

// Dropped - сколько событий не влезло в буфер
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Close отписывается и закрывает канал. Повторный вызов безопасен.
func (s *Subscription) Close() {
	s.bus.remove(s.id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *Subscription) deliver(ev *GameEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// subscriber - либо канальная подписка, либо синхронный наблюдатель
type subscriber struct {
	id      uint64
	filter  Filter
	sub     *Subscription
	observe func(*GameEvent)
}

// Bus - шина событий. Подписчики получают события в порядке регистрации.
type Bus struct {
	mu          sync.RWMutex
	subscribers []*subscriber
	nextID      uint64
	buffer      int

	dispatched atomic.Int64
	log        *logrus.Entry
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}
	return &Bus{
		buffer: buffer,
		log:    logger.Component("event_bus"),
	}
}

// Subscribe регистрирует канальную подписку с произвольным фильтром.
func (b *Bus) Subscribe(name string, filter Filter) *Subscription {
	ch := make(chan *GameEvent, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{C: ch, id: b.nextID, name: name, bus: b, ch: ch}
	b.subscribers = append(b.subscribers, &subscriber{id: b.nextID, filter: filter, sub: sub})
	return sub
}

func (b *Bus) SubscribeAll() *Subscription {
	return b.Subscribe("all", nil)
}

func (b *Bus) SubscribeByType(t EventType) *Subscription {
	return b.Subscribe("type:"+string(t), ByType(t))
}

func (b *Bus) SubscribeBySourceModule(module string) *Subscription {
	return b.Subscribe("module:"+module, BySourceModule(module))
}

func (b *Bus) SubscribeByEntityVisibility(entityID string) *Subscription {
	return b.Subscribe("entity:"+entityID, ByEntityVisibility(entityID))
}

func (b *Bus) SubscribeByAreaVisibility(center domain.Position, radius float64) *Subscription {
	return b.Subscribe("area:"+center.Key(), ByAreaVisibility(center, radius))
}

// Observe регистрирует синхронного наблюдателя: fn вызывается прямо из Dispatch
// и ничего не теряет. Возвращает функцию отписки.
func (b *Bus) Observe(filter Filter, fn func(*GameEvent)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, &subscriber{id: id, filter: filter, observe: fn})
	return func() { b.remove(id) }
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Dispatch рассылает событие всем текущим подписчикам (fire-and-forget).
func (b *Bus) Dispatch(ev *GameEvent) {
	b.mu.RLock()
	snapshot := append([]*subscriber(nil), b.subscribers...)
	b.mu.RUnlock()

	b.dispatched.Add(1)
	for _, s := range snapshot {
		if s.filter != nil && !s.filter(ev) {
			continue
		}
		if s.sub != nil {
			s.sub.deliver(ev)
			continue
		}
		b.notifyObserver(s, ev)
	}
}

func (b *Bus) notifyObserver(s *subscriber, ev *GameEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{"event_id": ev.ID, "type": ev.Type, "panic": r}).Error("Observer panicked")
		}
	}()
	s.observe(ev)
}

// BusStats - снимок для /debug/stats
type BusStats struct {
	Subscribers int   `json:"subscribers"`
	Dispatched  int64 `json:"dispatched"`
	Dropped     int64 `json:"dropped"`
}

func (b *Bus) Stats() BusStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st := BusStats{Subscribers: len(b.subscribers), Dispatched: b.dispatched.Load()}
	for _, s := range b.subscribers {
		if s.sub != nil {
			st.Dropped += s.sub.Dropped()
		}
	}
	return st
}
