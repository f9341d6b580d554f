package network

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/api"
	"github.com/sasha-s/go-deadlock"
)

// DefaultOutboxSize - размер личного канала соединения по умолчанию
const DefaultOutboxSize = 256

// ConnectionInfo - данные, известные на момент подключения сокета.
type ConnectionInfo struct {
	IP        string
	UserAgent string
	Metadata  map[string]string
}

// ClientConnection - живое соединение клиента.
// AccountID появляется после LOGIN, CharacterID - после выбора персонажа.
type ClientConnection struct {
	ID           string            `json:"id"`
	AccountID    string            `json:"accountId,omitempty"`
	CharacterID  string            `json:"characterId,omitempty"`
	ConnectedAt  time.Time         `json:"connectionTime"`
	LastActivity time.Time         `json:"lastActivity"`
	IP           string            `json:"ip,omitempty"`
	UserAgent    string            `json:"userAgent,omitempty"`
	Active       bool              `json:"active"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type connection struct {
	info   ClientConnection
	outbox chan api.ServerResponse
}

// Hub - реестр соединений и их исходящих очередей.
type Hub struct {
	mu          deadlock.RWMutex
	connections map[string]*connection
	outboxSize  int
	now         func() time.Time

	sent    atomic.Int64
	dropped atomic.Int64
}

func NewHub(outboxSize int, now func() time.Time) *Hub {
	if outboxSize <= 0 {
		outboxSize = DefaultOutboxSize
	}
	if now == nil {
		now = time.Now
	}
	return &Hub{
		connections: make(map[string]*connection),
		outboxSize:  outboxSize,
		now:         now,
	}
}

// Register создает соединение и его личный канал.
// Канал читает write pump; он закрывается в Unregister.
func (h *Hub) Register(info ConnectionInfo) (ClientConnection, <-chan api.ServerResponse) {
	now := h.now()
	c := &connection{
		info: ClientConnection{
			ID:           domain.NewID(),
			ConnectedAt:  now,
			LastActivity: now,
			IP:           info.IP,
			UserAgent:    info.UserAgent,
			Active:       true,
			Metadata:     copyMeta(info.Metadata),
		},
		outbox: make(chan api.ServerResponse, h.outboxSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.info.ID] = c
	return c.info.clone(), c.outbox
}

// Unregister удаляет соединение и закрывает канал
func (h *Hub) Unregister(connID string) (ClientConnection, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.connections[connID]
	if !ok {
		return ClientConnection{}, false
	}
	delete(h.connections, connID)
	c.info.Active = false
	close(c.outbox)
	return c.info.clone(), true
}

func (h *Hub) BindAccount(connID, accountID string) error {
	return h.update(connID, func(c *ClientConnection) { c.AccountID = accountID })
}

func (h *Hub) BindCharacter(connID, characterID string) error {
	return h.update(connID, func(c *ClientConnection) { c.CharacterID = characterID })
}

// Touch обновляет LastActivity.
func (h *Hub) Touch(connID string) {
	_ = h.update(connID, func(*ClientConnection) {})
}

func (h *Hub) update(connID string, fn func(*ClientConnection)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.connections[connID]
	if !ok {
		return domain.NotFound("connection", connID)
	}
	fn(&c.info)
	c.info.LastActivity = h.now()
	return nil
}

func (h *Hub) Get(connID string) (ClientConnection, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.connections[connID]
	if !ok {
		return ClientConnection{}, domain.NotFound("connection", connID)
	}
	return c.info.clone(), nil
}

// Active - все активные соединения, по времени подключения.
func (h *Hub) Active() []ClientConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ClientConnection, 0, len(h.connections))
	for _, c := range h.connections {
		if c.info.Active {
			out = append(out, c.info.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByCharacter - id соединений, привязанных к персонажу.
func (h *Hub) ByCharacter(characterID string) []string {
	if characterID == "" {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	var ids []string
	for id, c := range h.connections {
		if c.info.Active && c.info.CharacterID == characterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// SendTo отправляет сообщение конкретному соединению (Unicast).
// Не блокируется: если очередь клиента полна, сообщение отбрасывается.
func (h *Hub) SendTo(connID string, msg api.ServerResponse) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.connections[connID]
	if !ok || !c.info.Active {
		return false
	}
	return h.push(c, msg)
}

// Broadcast отправляет всем активным соединениям и возвращает число доставленных.
func (h *Hub) Broadcast(msg api.ServerResponse) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, c := range h.connections {
		if c.info.Active && h.push(c, msg) {
			n++
		}
	}
	return n
}

func (h *Hub) push(c *connection, msg api.ServerResponse) bool {
	select {
	case c.outbox <- msg:
		h.sent.Add(1)
		return true
	default:
		// Медленный клиент не должен тормозить рассылку
		h.dropped.Add(1)
		return false
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// HubStats - счетчики для /debug/stats
type HubStats struct {
	Connections int   `json:"connections"`
	Sent        int64 `json:"sent"`
	Dropped     int64 `json:"dropped"`
}

func (h *Hub) Stats() HubStats {
	return HubStats{Connections: h.Count(), Sent: h.sent.Load(), Dropped: h.dropped.Load()}
}

func (c ClientConnection) clone() ClientConnection {
	c.Metadata = copyMeta(c.Metadata)
	return c
}

func copyMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
