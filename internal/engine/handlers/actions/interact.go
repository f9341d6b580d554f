package actions

import (
	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/engine/handlers"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
)

// InteractRange - взаимодействовать можно с соседней клеткой (включая диагональ)
const InteractRange = 1.5

// InteractBroadcastRadius - кто увидит взаимодействие
const InteractBroadcastRadius = 5

func HandleInteract(ctx handlers.Context, p api.InteractPayload) (handlers.Result, error) {
	payload := events.InteractionPayload{
		EntityID: ctx.Actor.ID,
		TargetID: p.TargetID,
		Action:   p.Action,
	}

	// 1. Точка взаимодействия: позиция цели или явно указанная клетка
	var at domain.Position
	if p.TargetID != "" {
		ref, err := locate(ctx, p.TargetID)
		if err != nil {
			return handlers.Result{}, err
		}
		at = ref
	} else {
		pos, err := domain.NewPosition(p.Position.X, p.Position.Y, p.Position.Z)
		if err != nil {
			return handlers.Result{}, err
		}
		at = pos
		payload.Position = &pos
	}

	// 2. Проверка дистанции
	if at.Z != ctx.Position.Z || ctx.Position.DistanceTo(at) > InteractRange {
		return handlers.Result{}, domain.Invalid("target", "too far to interact")
	}

	vis, err := domain.Area(at, InteractBroadcastRadius)
	if err != nil {
		return handlers.Result{}, err
	}
	ev, err := ctx.Service.PublishEvent(events.Interaction, SourceModule, payload, vis, PriorityInteract)
	if err != nil {
		return handlers.Result{}, err
	}
	return handlers.Accepted(ev), nil
}

// locate ищет игрока или существо
func locate(ctx handlers.Context, id string) (domain.Position, error) {
	if p, err := ctx.World.GetPlayer(id); err == nil {
		return p.Position, nil
	}
	c, err := ctx.World.GetCreature(id)
	if err != nil {
		return domain.Position{}, err
	}
	return c.Position, nil
}
