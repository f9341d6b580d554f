package events

import (
	"context"
	"sync"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/turn"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Outcome - результат обработчика, попадает в GameEvent.Result.
type Outcome = map[string]any

// Handler выполняет побочные эффекты события конкретного типа.
type Handler func(ctx context.Context, ev *GameEvent) (Outcome, error)

// acknowledge - обработчик по умолчанию для типов без своей логики
func acknowledge(_ context.Context, ev *GameEvent) (Outcome, error) {
	return Outcome{"acknowledged": true, "type": string(ev.Type)}, nil
}

// Processor - очередь + тик-процессор для generic событий.
// Завершенные (COMPLETED) события публикуются на шину.
type Processor struct {
	queue *turn.Queue[*GameEvent]
	repo  *Repository
	bus   *Bus
	now   func() time.Time
	proc  *turn.Processor[*GameEvent, Outcome]
	log   *logrus.Entry

	mu       sync.RWMutex
	handlers map[EventType]Handler
}

type ProcessorOptions struct {
	Interval time.Duration
	Now      func() time.Time
}

func NewProcessor(repo *Repository, bus *Bus, opts ProcessorOptions) *Processor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := &Processor{
		queue:    turn.NewQueue[*GameEvent](),
		repo:     repo,
		bus:      bus,
		now:      opts.Now,
		log:      logger.Component("events"),
		handlers: make(map[EventType]Handler),
	}
	p.proc = turn.NewProcessor(turn.ProcessorConfig[*GameEvent, Outcome]{
		Name:     "events",
		Interval: opts.Interval,
		Queue:    p.queue,
		Handle:   p.execute,
		Record:   repo.Save,
		OnFinish: p.finished,
		Now:      opts.Now,
	})
	return p
}

// Handle регистрирует обработчик для типа. Последняя регистрация побеждает.
func (p *Processor) Handle(t EventType, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[t] = h
}

// Publish validates the request, stores the event and enqueues it.
// The returned event is a snapshot; later transitions are visible through the repository.
func (p *Processor) Publish(t EventType, sourceModule string, payload any, vis domain.Visibility, priority int) (*GameEvent, error) {
	ev, err := NewGameEvent(t, sourceModule, payload, vis, priority, p.now())
	if err != nil {
		return nil, err
	}
	snapshot := ev.Clone()
	if err := p.repo.Save(ev); err != nil {
		return nil, err
	}
	p.queue.Enqueue(ev)
	return snapshot, nil
}

// CancelPendingForEntity отменяет ожидающие события сущности (они становятся FAILED).
func (p *Processor) CancelPendingForEntity(entityID, reason string) int {
	cancelled := p.queue.CancelPendingForEntity(entityID, reason, p.now())
	for _, ev := range cancelled {
		if err := p.repo.Save(ev); err != nil {
			p.log.WithError(err).WithField("event_id", ev.ID).Error("Failed to save cancelled event")
		}
		p.queue.Purge(ev.ID)
	}
	return len(cancelled)
}

func (p *Processor) execute(ctx context.Context, ev *GameEvent) (Outcome, error) {
	p.mu.RLock()
	h, ok := p.handlers[ev.Type]
	p.mu.RUnlock()
	if !ok {
		h = acknowledge
	}
	return h(ctx, ev)
}

func (p *Processor) finished(ev *GameEvent, err error) {
	if err == nil {
		p.bus.Dispatch(ev.Clone())
	}
}

func (p *Processor) Start()                        { p.proc.Start() }
func (p *Processor) Stop()                         { p.proc.Stop() }
func (p *Processor) Tick(ctx context.Context) bool { return p.proc.Tick(ctx) }
func (p *Processor) Stats() turn.Stats             { return p.proc.Stats() }
func (p *Processor) Pending() []*GameEvent         { return p.queue.Pending() }
func (p *Processor) QueueDump() []map[string]any   { return p.queue.DebugDump() }
