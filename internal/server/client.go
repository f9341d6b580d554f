package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harrisonpepese/aibit-server-sub000/internal/auth"
	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/engine"
	"github.com/harrisonpepese/aibit-server-sub000/internal/network"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и GameService
type Client struct {
	Game   *engine.GameService
	Conn   *websocket.Conn
	ConnID string
	// Send - личная очередь соединения в Hub. Закрывается при OnDisconnect.
	Send <-chan api.ServerResponse

	log *logrus.Entry
}

func NewClient(game *engine.GameService, conn *websocket.Conn, r *http.Request) *Client {
	info, outbox := game.OnConnect(network.ConnectionInfo{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	return &Client{
		Game:   game,
		Conn:   conn,
		ConnID: info.ID,
		Send:   outbox,
		log:    logger.Component("ws").WithField("connection_id", info.ID),
	}
}

// readPump читает команды от клиента
func (c *Client) readPump() {
	defer func() {
		// Персонаж остается в мире, закрывается только очередь (writePump завершится сам)
		c.Game.OnDisconnect(c.ConnID)
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Errorf("WS Error: %v", err)
			}
			break
		}
		c.reply(c.handle(raw))
	}
}

// handle разбирает одно сообщение. Ошибка не закрывает соединение, клиент получает ERROR.
func (c *Client) handle(raw []byte) api.ServerResponse {
	cmd, err := api.ParseCommand(raw)
	if err != nil {
		return c.failure(cmd.RequestID, err)
	}

	switch cmd.Action {
	case api.ActionLogin:
		id, err := c.Game.Authenticate(context.Background(), c.ConnID, cmd.Token)
		if err != nil {
			return c.failure(cmd.RequestID, err)
		}
		return c.response(api.MsgLoginOK, cmd.RequestID, id)

	case api.ActionSelectCharacter:
		var p api.SelectCharacterPayload
		if len(cmd.Payload) > 0 {
			if err := json.Unmarshal(cmd.Payload, &p); err != nil {
				return c.failure(cmd.RequestID, domain.Invalid("payload", err.Error()))
			}
		}
		if err := p.Validate(); err != nil {
			return c.failure(cmd.RequestID, domain.Invalid("characterId", err.Error()))
		}
		player, err := c.Game.OnCharacterSelect(c.ConnID, p.CharacterID)
		if err != nil {
			return c.failure(cmd.RequestID, err)
		}
		return c.response(api.MsgCharacterSelected, cmd.RequestID, player)
	}

	res, err := c.Game.OnGameAction(c.ConnID, cmd)
	if err != nil {
		return c.failure(cmd.RequestID, err)
	}
	return c.response(api.MsgActionAccepted, cmd.RequestID, api.ActionResult{Message: res.Msg, Event: res.Data})
}

func (c *Client) response(typ, requestID string, data any) api.ServerResponse {
	return api.ServerResponse{
		Type:      typ,
		RequestID: requestID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

func (c *Client) failure(requestID string, err error) api.ServerResponse {
	view := errorView(err)
	if view.Code == api.CodeInternal {
		c.log.WithError(err).Error("Command failed")
	}
	return api.ServerResponse{
		Type:      api.MsgError,
		RequestID: requestID,
		Error:     &view,
		Timestamp: time.Now().UnixMilli(),
	}
}

// reply кладет ответ в ту же очередь, что и события: пишет только writePump
func (c *Client) reply(msg api.ServerResponse) {
	if !c.Game.Hub.SendTo(c.ConnID, msg) {
		c.log.WithField("type", msg.Type).Warn("Reply dropped")
	}
}

// errorView переводит таксономию ошибок ядра в коды протокола
func errorView(err error) api.ErrorView {
	view := api.ErrorView{Code: api.CodeInternal, Message: err.Error()}

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		view.Code = api.CodeValidation
		view.Field = ve.Field
	case errors.Is(err, api.ErrInvalidCommand):
		view.Code = api.CodeValidation
	case domain.IsNotFound(err):
		view.Code = api.CodeNotFound
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, engine.ErrUnauthenticated):
		view.Code = api.CodeUnauthorized
	case errors.Is(err, engine.ErrForbidden), errors.Is(err, engine.ErrNoCharacter):
		view.Code = api.CodeForbidden
	default:
		view.Message = "internal error"
	}
	return view
}

// writePump отправляет данные клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				c.log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
