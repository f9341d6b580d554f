package network

import (
	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
	"github.com/sirupsen/logrus"
)

// PlayerLocator - пространственный поиск игроков (world.State).
type PlayerLocator interface {
	PlayersInArea(center domain.Position, radius float64) []string
}

// Dispatcher превращает visibility события в набор соединений и отправляет его.
type Dispatcher struct {
	hub     *Hub
	players PlayerLocator
	log     *logrus.Entry
}

func NewDispatcher(hub *Hub, players PlayerLocator) *Dispatcher {
	return &Dispatcher{hub: hub, players: players, log: logger.Component("dispatcher")}
}

// Notify рассылает событие и возвращает число соединений, получивших его.
// Соединение без выбранного персонажа не получает AREA и SPECIFIC_ENTITIES события.
func (d *Dispatcher) Notify(ev *events.GameEvent) int {
	msg := EventMessage(ev)

	var sent int
	switch ev.Visibility.Type {
	case domain.VisibilityGlobal:
		sent = d.hub.Broadcast(msg)
	case domain.VisibilityArea:
		if ev.Visibility.Center == nil {
			return 0
		}
		recipients := d.players.PlayersInArea(*ev.Visibility.Center, ev.Visibility.Radius)
		sent = d.sendToCharacters(recipients, msg)
	case domain.VisibilitySpecificEntities:
		sent = d.sendToCharacters(ev.Visibility.EntityIDs, msg)
	}

	d.log.WithFields(logrus.Fields{"event_id": ev.ID, "type": ev.Type, "recipients": sent}).Trace("Event dispatched")
	return sent
}

func (d *Dispatcher) sendToCharacters(characterIDs []string, msg api.ServerResponse) int {
	sent := 0
	seen := make(map[string]bool)
	for _, characterID := range characterIDs {
		for _, connID := range d.hub.ByCharacter(characterID) {
			if seen[connID] {
				continue
			}
			seen[connID] = true
			if d.hub.SendTo(connID, msg) {
				sent++
			}
		}
	}
	return sent
}

// EventMessage - DTO события для клиента.
func EventMessage(ev *events.GameEvent) api.ServerResponse {
	return api.ServerResponse{
		Type: api.MsgEvent,
		Event: &api.EventView{
			ID:           ev.ID,
			Type:         string(ev.Type),
			SourceModule: ev.Data.SourceModule,
			Payload:      ev.Data.Payload,
			Priority:     ev.Priority,
			CreatedAt:    ev.CreatedAt.UnixMilli(),
		},
		Timestamp: ev.CreatedAt.UnixMilli(),
	}
}
