package handlers

import (
	"encoding/json"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/internal/movement"
	"github.com/harrisonpepese/aibit-server-sub000/internal/world"
)

// Service описывает операции ядра, доступные хендлерам.
// GameService неявно реализует этот интерфейс.
type Service interface {
	PublishEvent(t events.EventType, sourceModule string, payload any, vis domain.Visibility, priority int) (*events.GameEvent, error)
	RequestMovement(req movement.Request) (*movement.Event, error)
	CancelMovement(entityID, reason string) (*movement.Event, error)
	Teleport(entityID string, target domain.Position, source string) (*movement.Event, error)
}

// Context передает хендлеру состояние мира и того, кто выполняет команду.
type Context struct {
	Service      Service
	World        *world.State
	ConnectionID string

	// Actor - выбранный персонаж соединения (снимок на момент команды)
	Actor world.Player
	// Position - самая свежая известная позиция актора (трекер перемещений опережает мир)
	Position domain.Position
}

// Result - возвращает результат выполнения команды.
// Хендлер НЕ пишет клиенту напрямую, он возвращает данные для ACTION_ACCEPTED.
type Result struct {
	Msg  string // Текст для клиента
	Data any    // Принятое событие (GameEvent или MovementEvent)
}

// HandlerFunc - это контракт для любой команды (MOVE, ATTACK, etc).
type HandlerFunc func(ctx Context, payload json.RawMessage) (Result, error)

// Accepted - результат с принятым событием
func Accepted(data any) Result {
	return Result{Data: data}
}
