package admin

import (
	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/engine/handlers"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
)

// SourceAdmin - источник админских перемещений
const SourceAdmin = "admin"

// HandleTeleport: { "x": 10, "y": 10, "z": 7 }
func HandleTeleport(ctx handlers.Context, p api.PositionPayload) (handlers.Result, error) {
	target, err := domain.NewPosition(p.X, p.Y, p.Z)
	if err != nil {
		return handlers.Result{}, err
	}
	ev, err := ctx.Service.Teleport(ctx.Actor.ID, target, SourceAdmin)
	if err != nil {
		return handlers.Result{}, err
	}
	return handlers.Result{Msg: "⚡ Teleported via Admin Magic", Data: ev}, nil
}
