package world

import (
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Notifier рассылает событие клиентам по его visibility.
type Notifier interface {
	Notify(ev *events.GameEvent) int
}

// Adapter применяет события шины к State: одна мутация на тип события,
// затем запись в журнал и рассылка.
type Adapter struct {
	state    *State
	notifier Notifier
	now      func() time.Time
	log      *logrus.Entry

	detach func()
}

func NewAdapter(state *State, notifier Notifier, now func() time.Time) *Adapter {
	if now == nil {
		now = time.Now
	}
	return &Adapter{
		state:    state,
		notifier: notifier,
		now:      now,
		log:      logger.Component("world_adapter"),
	}
}

// Attach подписывает адаптер на все события шины. Используется синхронный
// наблюдатель: мутации мира не должны теряться при переполнении буфера.
func (a *Adapter) Attach(bus *events.Bus) {
	a.detach = bus.Observe(nil, a.Apply)
}

func (a *Adapter) Detach() {
	if a.detach != nil {
		a.detach()
		a.detach = nil
	}
}

// Apply обрабатывает одно событие.
func (a *Adapter) Apply(ev *events.GameEvent) {
	a.state.AppendLog(LogEntry{
		ID:        ev.ID,
		Type:      ev.Type,
		Data:      ev.Data,
		Timestamp: a.now(),
	})

	if err := a.mutate(ev); err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{"event_id": ev.ID, "type": ev.Type}).Warn("Event not applied to world")
	}

	if a.notifier != nil {
		a.notifier.Notify(ev)
	}
	a.state.MarkProcessed(ev.ID)
}

func (a *Adapter) mutate(ev *events.GameEvent) error {
	switch ev.Type {
	case events.MovementCompleted, events.EntityTeleported:
		var p events.MovementPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		if !a.state.MoveEntity(p.EntityID, p.To) {
			a.log.WithField("entity_id", p.EntityID).Debug("Moved entity is not in the world")
		}

	case events.DamageDealt:
		var p events.DamagePayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		if hp, ok := a.state.ApplyDamage(p.TargetID, p.Amount); ok {
			a.log.WithFields(logrus.Fields{"entity_id": p.TargetID, "health": hp}).Debug("Damage applied")
		}

	case events.EntitySpawned:
		var p events.SpawnPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		a.spawn(p)

	case events.EntityDespawned:
		var p events.DespawnPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		a.state.RemoveEntity(p.EntityID)

	case events.TileChanged:
		var p events.TilePayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		a.state.UpsertTile(Tile{ID: p.TileID, Position: p.Position, Type: p.TileType, Walkable: p.Walkable, Metadata: p.Metadata})
	}
	// MESSAGE_SENT, SYSTEM_NOTIFICATION и остальные типы: только журнал
	return nil
}

func (a *Adapter) spawn(p events.SpawnPayload) {
	maxHealth := p.MaxHealth
	if maxHealth <= 0 {
		maxHealth = p.Health
	}
	health := p.Health
	if health <= 0 || health > maxHealth {
		health = maxHealth
	}

	if p.Kind == events.KindPlayer {
		maxMana := p.MaxMana
		if maxMana < p.Mana {
			maxMana = p.Mana
		}
		// Привязка к аккаунту приходит из выбора персонажа, а не из события
		var account string
		if prev, err := a.state.GetPlayer(p.EntityID); err == nil {
			account = prev.AccountID
		}
		a.state.AddPlayer(Player{
			ID: p.EntityID, AccountID: account, Name: p.Name, Position: p.Position,
			Health: health, MaxHealth: maxHealth, Mana: p.Mana, MaxMana: maxMana,
			Metadata: p.Metadata,
		})
		return
	}
	a.state.AddCreature(Creature{
		ID: p.EntityID, Name: p.Name, Position: p.Position,
		Health: health, MaxHealth: maxHealth, Metadata: p.Metadata,
	})
}
