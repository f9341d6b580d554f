// Package agent - серверные NPC, которые ходят через те же входы ядра, что и игроки.
package agent

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/internal/movement"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	// SourceAgent - источник перемещений и спавна агентов
	SourceAgent = "agent"
	// LeashRadius - дальше этого от дома бродяга не уходит
	LeashRadius    = 5
	WandererHealth = 20
)

// Service - то, что агенту нужно от GameService.
type Service interface {
	PublishEvent(t events.EventType, sourceModule string, payload any, vis domain.Visibility, priority int) (*events.GameEvent, error)
	RequestMovement(req movement.Request) (*movement.Event, error)
	CurrentPosition(entityID string) (domain.Position, bool)
}

// Wanderer - существо, которое раз в Interval делает случайный шаг вокруг дома.
//
// Жизненный цикл:
//  1. Run -> Spawn (ENTITY_SPAWNED в шину).
//  2. На каждом тике Step -> WALK на соседнюю клетку. Законность хода решает конвейер перемещений.
//  3. Отмена ctx завершает Run.
type Wanderer struct {
	EntityID string
	Home     domain.Position
	Interval time.Duration
	Service  Service

	rng *rand.Rand
	log *logrus.Entry
}

func NewWanderer(entityID string, home domain.Position, interval time.Duration, service Service, seed int64) *Wanderer {
	return &Wanderer{
		EntityID: entityID,
		Home:     home,
		Interval: interval,
		Service:  service,
		rng:      rand.New(rand.NewSource(seed)),
		log:      logger.Component("agent").WithField("entity_id", entityID),
	}
}

// Run запускает цикл жизни агента. Должен быть запущен в горутине.
func (w *Wanderer) Run(ctx context.Context) error {
	if err := w.Spawn(); err != nil {
		return err
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Agent shut down")
			return nil
		case <-ticker.C:
			if _, err := w.Step(); err != nil {
				w.log.WithError(err).Debug("Step rejected")
			}
		}
	}
}

func (w *Wanderer) Spawn() error {
	vis, err := domain.Area(w.Home, LeashRadius*3)
	if err != nil {
		return err
	}
	_, err = w.Service.PublishEvent(events.EntitySpawned, SourceAgent, events.SpawnPayload{
		EntityID:  w.EntityID,
		Kind:      events.KindCreature,
		Name:      fmt.Sprintf("Wanderer %s", w.EntityID),
		Position:  w.Home,
		Health:    WandererHealth,
		MaxHealth: WandererHealth,
	}, vis, 0)
	return err
}

// Step выбирает соседнюю клетку и запрашивает WALK.
func (w *Wanderer) Step() (*movement.Event, error) {
	pos, ok := w.Service.CurrentPosition(w.EntityID)
	if !ok {
		pos = w.Home
	}

	dx, dy := w.direction(pos)
	return w.Service.RequestMovement(movement.Request{
		EntityID: w.EntityID,
		From:     pos,
		To:       pos.Shift(dx, dy, 0),
		Type:     movement.Walk,
		Source:   SourceAgent,
	})
}

// direction: за поводком - шаг к дому, иначе случайный из восьми соседей
func (w *Wanderer) direction(pos domain.Position) (dx, dy int) {
	if pos.Z == w.Home.Z && pos.DistanceTo(w.Home) >= LeashRadius {
		return sign(w.Home.X - pos.X), sign(w.Home.Y - pos.Y)
	}
	for dx == 0 && dy == 0 {
		dx, dy = w.rng.Intn(3)-1, w.rng.Intn(3)-1
	}
	return dx, dy
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
