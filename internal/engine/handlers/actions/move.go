package actions

import (
	"strings"

	"github.com/harrisonpepese/aibit-server-sub000/internal/engine/handlers"
	"github.com/harrisonpepese/aibit-server-sub000/internal/movement"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
)

// SourceClient - источник перемещений, пришедших от клиента
const SourceClient = "client"

func HandleMove(ctx handlers.Context, p api.MovePayload) (handlers.Result, error) {
	t := movement.Walk
	if strings.EqualFold(p.Mode, string(movement.Run)) {
		t = movement.Run
	}

	// Границы, дальность и занятость проверяются при исполнении в тике,
	// здесь только формируем намерение
	ev, err := ctx.Service.RequestMovement(movement.Request{
		EntityID: ctx.Actor.ID,
		From:     ctx.Position,
		To:       ctx.Position.Shift(p.Dx, p.Dy, p.Dz),
		Type:     t,
		Source:   SourceClient,
		Speed:    p.Speed,
	})
	if err != nil {
		return handlers.Result{}, err
	}
	return handlers.Accepted(ev), nil
}

func HandleStop(ctx handlers.Context, p api.StopPayload) (handlers.Result, error) {
	reason := p.Reason
	if reason == "" {
		reason = "stopped by player"
	}
	ev, err := ctx.Service.CancelMovement(ctx.Actor.ID, reason)
	if err != nil {
		return handlers.Result{}, err
	}
	return handlers.Accepted(ev), nil
}
