package actions

import (
	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/engine/handlers"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
)

// SourceModule - источник событий, созданных действиями игроков
const SourceModule = "player_actions"

// ChatRadius - слышимость сообщения без адресата
const ChatRadius = 10

const (
	PriorityChat     = 1
	PriorityInteract = 5
	PriorityCombat   = 20
)

func HandleChat(ctx handlers.Context, p api.ChatPayload) (handlers.Result, error) {
	channel := p.Channel
	if channel == "" {
		channel = "say"
	}
	payload := events.MessagePayload{
		SenderID: ctx.Actor.ID,
		Channel:  channel,
		Text:     p.Text,
		TargetID: p.TargetID,
	}

	// Личное сообщение видят только двое, остальное - все поблизости
	var (
		vis domain.Visibility
		err error
	)
	switch {
	case p.TargetID == ctx.Actor.ID:
		return handlers.Result{}, domain.Invalid("targetId", "cannot message yourself")
	case p.TargetID != "":
		vis, err = domain.SpecificEntities(ctx.Actor.ID, p.TargetID)
	default:
		vis, err = domain.Area(ctx.Position, ChatRadius)
	}
	if err != nil {
		return handlers.Result{}, err
	}

	ev, err := ctx.Service.PublishEvent(events.MessageSent, SourceModule, payload, vis, PriorityChat)
	if err != nil {
		return handlers.Result{}, err
	}
	return handlers.Accepted(ev), nil
}
