package movement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/internal/turn"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
	"github.com/sirupsen/logrus"
)

// SourceModule - имя модуля в Data.SourceModule публикуемых событий
const SourceModule = "movement"

type Config struct {
	Interval          time.Duration
	MaxMovesPerWindow int
	RateWindow        time.Duration
	MaxWalkDistance   float64
	MaxRunDistance    float64
	WalkSpeed         float64
	RunSpeed          float64
	BroadcastRadius   float64
}

func DefaultConfig() Config {
	return Config{
		Interval:          turn.DefaultInterval,
		MaxMovesPerWindow: 20,
		RateWindow:        time.Minute,
		MaxWalkDistance:   1.5,
		MaxRunDistance:    3,
		WalkSpeed:         DefaultWalkSpeed,
		RunSpeed:          DefaultRunSpeed,
		BroadcastRadius:   15,
	}
}

// EventPublisher - вход в generic шину событий (events.Processor).
type EventPublisher interface {
	Publish(t events.EventType, sourceModule string, payload any, vis domain.Visibility, priority int) (*events.GameEvent, error)
}

// Request - намерение переместиться.
type Request struct {
	EntityID string
	From     domain.Position
	To       domain.Position
	Type     MovementType
	Source   string
	Speed    float64
}

type Options struct {
	Config    Config
	Publisher EventPublisher
	// Дополнительные источники занятости клеток помимо самого трекера
	Occupancy []OccupancyChecker
	Now       func() time.Time
}

// Pipeline принимает запросы перемещения, ставит их в очередь и исполняет по тикам.
type Pipeline struct {
	cfg       Config
	queue     *turn.Queue[*Event]
	events    *EventRepository
	tracker   *Tracker
	history   *History
	rules     *Rules
	publisher EventPublisher
	proc      *turn.Processor[*Event, Outcome]
	now       func() time.Time
	log       *logrus.Entry
}

func NewPipeline(opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := &Pipeline{
		cfg:       opts.Config,
		queue:     turn.NewQueue[*Event](),
		events:    NewEventRepository(),
		tracker:   NewTracker(opts.Now),
		history:   NewHistory(),
		publisher: opts.Publisher,
		now:       opts.Now,
		log:       logger.Component("movement"),
	}
	occupancy := append([]OccupancyChecker{p.tracker}, opts.Occupancy...)
	p.rules = NewRules(RulesConfig{
		MaxMovesPerWindow: p.cfg.MaxMovesPerWindow,
		RateWindow:        p.cfg.RateWindow,
		MaxWalkDistance:   p.cfg.MaxWalkDistance,
		MaxRunDistance:    p.cfg.MaxRunDistance,
	}, p.history, occupancy...)

	p.proc = turn.NewProcessor(turn.ProcessorConfig[*Event, Outcome]{
		Name:     "movement",
		Interval: p.cfg.Interval,
		Queue:    p.queue,
		Handle:   p.execute,
		Record:   p.events.Save,
		Now:      opts.Now,
	})
	return p
}

func (p *Pipeline) Tracker() *Tracker             { return p.tracker }
func (p *Pipeline) History() *History             { return p.history }
func (p *Pipeline) Events() *EventRepository      { return p.events }
func (p *Pipeline) Start()                        { p.proc.Start() }
func (p *Pipeline) Stop()                         { p.proc.Stop() }
func (p *Pipeline) Tick(ctx context.Context) bool { return p.proc.Tick(ctx) }
func (p *Pipeline) Stats() turn.Stats             { return p.proc.Stats() }
func (p *Pipeline) Pending() []*Event             { return p.queue.Pending() }
func (p *Pipeline) QueueDump() []map[string]any   { return p.queue.DebugDump() }

// RequestMovement проверяет запрос структурно и ставит его в очередь.
// Игровые правила (границы, частота, дальность, занятость) проверяются при исполнении.
func (p *Pipeline) RequestMovement(req Request) (*Event, error) {
	if req.EntityID == "" {
		return nil, domain.Invalid("entityId", "must not be empty")
	}
	if !req.Type.Valid() {
		return nil, domain.Invalid("movementType", fmt.Sprintf("unknown movement type %q", req.Type))
	}
	if req.Source == "" {
		return nil, domain.Invalid("source", "must not be empty")
	}

	payload := &MovementRequest{From: req.From, To: req.To, Type: req.Type, Source: req.Source, Speed: req.Speed}
	return p.enqueue(KindMovementRequest, req.EntityID, payload, p.requestPriority(req.EntityID, req.Type))
}

// Teleport ставит телепорт с наивысшим приоритетом. Исходная позиция берется из трекера.
func (p *Pipeline) Teleport(entityID string, target domain.Position, source string) (*Event, error) {
	if entityID == "" {
		return nil, domain.Invalid("entityId", "must not be empty")
	}
	payload := &TeleportRequest{From: p.currentOr(entityID, target), To: target, Source: orSystem(source)}
	return p.enqueue(KindTeleport, entityID, payload, PriorityTeleport)
}

func (p *Pipeline) Knockback(entityID string, target domain.Position, source string) (*Event, error) {
	if entityID == "" {
		return nil, domain.Invalid("entityId", "must not be empty")
	}
	payload := &KnockbackRequest{From: p.currentOr(entityID, target), To: target, Source: orSystem(source)}
	return p.enqueue(KindKnockback, entityID, payload, PriorityKnockback)
}

// UpdatePosition ставит прямую коррекцию позиции (клиентский снапшот, скрипт).
func (p *Pipeline) UpdatePosition(entityID string, pos domain.Position, source string) (*Event, error) {
	if entityID == "" {
		return nil, domain.Invalid("entityId", "must not be empty")
	}
	payload := &PositionUpdate{Position: pos, Source: orSystem(source)}
	return p.enqueue(KindPositionUpdate, entityID, payload, p.requestPriority(entityID, ""))
}

// CancelMovement отменяет ожидающие события сущности. Уже исполняемые не затрагиваются.
// Сама отмена фиксируется как COMPLETED событие CANCEL с количеством отмененных.
func (p *Pipeline) CancelMovement(entityID, reason string) (*Event, error) {
	if reason == "" {
		reason = "cancelled"
	}
	now := p.now()
	ev, err := NewEvent(KindCancel, entityID, &CancelRequest{Reason: reason}, PriorityTeleport, now)
	if err != nil {
		return nil, err
	}

	cancelled := p.queue.CancelPendingForEntity(entityID, reason, now)
	for _, c := range cancelled {
		p.save(c)
		p.queue.Purge(c.ID)
	}
	p.tracker.FinishMovement(entityID, nil)

	ev.Finish(Outcome{Status: OutcomeSuccess, Reason: reason, CancelledCount: len(cancelled)}, nil, now)
	p.save(ev)

	p.log.WithFields(logrus.Fields{"entity_id": entityID, "cancelled": len(cancelled)}).Debug("Movement cancelled")
	return ev.Clone(), nil
}

// DeleteOlderThan удаляет историю перемещений и события старше cutoff.
func (p *Pipeline) DeleteOlderThan(cutoff time.Time) (movements, evts int) {
	return p.history.DeleteOlderThan(cutoff), p.events.DeleteOlderThan(cutoff)
}

func (p *Pipeline) enqueue(kind EventKind, entityID string, payload Payload, priority int) (*Event, error) {
	ev, err := NewEvent(kind, entityID, payload, priority, p.now())
	if err != nil {
		return nil, err
	}
	snapshot := ev.Clone()
	if err := p.events.Save(ev); err != nil {
		return nil, err
	}
	p.queue.Enqueue(ev)
	return snapshot, nil
}

// requestPriority: teleport > knockback > сущность в движении > новый запрос.
func (p *Pipeline) requestPriority(entityID string, t MovementType) int {
	switch t {
	case Teleport:
		return PriorityTeleport
	case Knockback:
		return PriorityKnockback
	}
	if p.tracker.IsMoving(entityID) {
		return PriorityInProgress
	}
	return PriorityFresh
}

func (p *Pipeline) currentOr(entityID string, fallback domain.Position) domain.Position {
	if pos, ok := p.tracker.Position(entityID); ok {
		return pos
	}
	return fallback
}

func orSystem(source string) string {
	if source == "" {
		return "system"
	}
	return source
}

func (p *Pipeline) save(ev *Event) {
	if err := p.events.Save(ev); err != nil {
		p.log.WithError(err).WithField("event_id", ev.ID).Error("Failed to save movement event")
	}
}

var errCancelInQueue = errors.New("cancel events are applied synchronously and never queued")

func (p *Pipeline) execute(_ context.Context, ev *Event) (Outcome, error) {
	switch pl := ev.Payload.(type) {
	case *MovementRequest:
		return p.move(ev, pl.Type, pl.From, pl.To, pl.Source, pl.Speed), nil
	case *TeleportRequest:
		return p.move(ev, Teleport, pl.From, pl.To, pl.Source, 0), nil
	case *KnockbackRequest:
		return p.move(ev, Knockback, pl.From, pl.To, pl.Source, 0), nil
	case *PositionUpdate:
		return p.applyPositionUpdate(ev, pl), nil
	case *CancelRequest:
		return Outcome{}, errCancelInQueue
	}
	return Outcome{}, fmt.Errorf("unsupported movement payload %T", ev.Payload)
}

func (p *Pipeline) move(ev *Event, t MovementType, requested, to domain.Position, source string, speed float64) Outcome {
	now := p.now()
	// Старт берется из трекера на момент исполнения: запросы одного тика идут цепочкой.
	from := p.currentOr(ev.EntityID, requested)
	if reason := p.rules.Check(ev.EntityID, t, from, to, now); reason != "" {
		p.publishBlocked(ev.EntityID, from, to, reason)
		return blocked(from, reason)
	}

	var m Movement
	switch t {
	case Walk:
		m = CreateWalk(ev.EntityID, from, to, source, p.speedOr(speed, p.cfg.WalkSpeed), now)
	case Run:
		m = CreateRun(ev.EntityID, from, to, source, p.speedOr(speed, p.cfg.RunSpeed), now)
	case Teleport:
		m = CreateTeleport(ev.EntityID, from, to, source, now)
	case Knockback:
		m = CreateKnockback(ev.EntityID, from, to, source, now)
	}
	if err := p.history.Add(m); err != nil {
		p.log.WithError(err).WithField("movement_id", m.ID).Error("Failed to store movement")
	}

	if t == Teleport {
		p.tracker.FinishMovement(ev.EntityID, &to)
	} else {
		// Перемещение разрешается целиком за один тик: старт и сразу прибытие.
		p.tracker.StartMovement(ev.EntityID, from, to, m.Speed)
		p.tracker.UpdatePosition(ev.EntityID, to)
	}

	p.publishCompleted(m, ev.Priority)
	actual := to
	return Outcome{Status: OutcomeSuccess, ActualPosition: &actual, MovementID: m.ID}
}

func (p *Pipeline) applyPositionUpdate(ev *Event, pl *PositionUpdate) Outcome {
	prev, known := p.tracker.Position(ev.EntityID)
	if !pl.Position.InBounds() {
		actual := prev
		if !known {
			actual = pl.Position
		}
		p.publishBlocked(ev.EntityID, actual, pl.Position, ReasonOutOfBounds)
		return blocked(actual, ReasonOutOfBounds)
	}

	if p.tracker.UpdatePosition(ev.EntityID, pl.Position) {
		payload := events.MovementPayload{
			EntityID:     ev.EntityID,
			MovementType: string(KindPositionUpdate),
			To:           pl.Position,
		}
		if known {
			payload.From = &prev
			payload.Direction = string(ComputeDirection(prev, pl.Position))
		}
		p.publish(events.MovementCompleted, payload, p.area(pl.Position), ev.Priority)
	}
	actual := pl.Position
	return Outcome{Status: OutcomeSuccess, ActualPosition: &actual}
}

func blocked(from domain.Position, reason string) Outcome {
	actual := from
	return Outcome{Status: OutcomeBlocked, ActualPosition: &actual, Reason: reason}
}

func (p *Pipeline) speedOr(speed, fallback float64) float64 {
	if speed > 0 {
		return speed
	}
	return fallback
}

func (p *Pipeline) publishCompleted(m Movement, priority int) {
	t := events.MovementCompleted
	if m.Type == Teleport {
		t = events.EntityTeleported
	}
	from := m.From
	p.publish(t, events.MovementPayload{
		EntityID:     m.EntityID,
		MovementID:   m.ID,
		MovementType: string(m.Type),
		Direction:    string(m.Direction),
		From:         &from,
		To:           m.To,
		DurationMs:   m.DurationMs,
	}, p.area(m.To), priority)
}

// publishBlocked уведомляет только самого инициатора.
func (p *Pipeline) publishBlocked(entityID string, from, attempted domain.Position, reason string) {
	vis, err := domain.SpecificEntities(entityID)
	if err != nil {
		return
	}
	p.publish(events.MovementBlocked, events.MovementBlockedPayload{
		EntityID:       entityID,
		From:           from,
		Attempted:      attempted,
		ActualPosition: from,
		Reason:         reason,
	}, vis, 0)
}

// area - зона рассылки вокруг точки. При невалидном радиусе рассылаем всем.
func (p *Pipeline) area(center domain.Position) domain.Visibility {
	vis, err := domain.Area(center, p.cfg.BroadcastRadius)
	if err != nil {
		return domain.Global()
	}
	return vis
}

func (p *Pipeline) publish(t events.EventType, payload any, vis domain.Visibility, priority int) {
	if p.publisher == nil {
		return
	}
	if _, err := p.publisher.Publish(t, SourceModule, payload, vis, priority); err != nil {
		p.log.WithError(err).WithField("type", t).Warn("Failed to publish movement event")
	}
}
