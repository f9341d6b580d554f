package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/harrisonpepese/aibit-server-sub000/internal/engine"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/harrisonpepese/aibit-server-sub000/internal/movement"
)

// DefaultDebugLimit - сколько событий отдавать без явного limit
const DefaultDebugLimit = 100

// DebugHandler предоставляет доступ к внутреннему состоянию движка
type DebugHandler struct {
	Service *engine.GameService
}

func NewDebugHandler(s *engine.GameService) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/queue", h.handleQueue)
	mux.HandleFunc("/debug/world", h.handleWorld)
	mux.HandleFunc("/debug/connections", h.handleConnections)
	mux.HandleFunc("/debug/events", h.handleEvents)
	mux.HandleFunc("/debug/movements", h.handleMovements)
	mux.HandleFunc("/debug/stats", h.handleStats)
}

// /debug/queue - ожидающие события обеих очередей в порядке обработки
func (h *DebugHandler) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"events":   h.Service.Events.QueueDump(),
		"movement": h.Service.Movement.QueueDump(),
	})
}

// /debug/world - игроки, существа и необработанные записи журнала
func (h *DebugHandler) handleWorld(w http.ResponseWriter, r *http.Request) {
	world := h.Service.World
	writeJSON(w, map[string]any{
		"stats":       world.Snapshot(),
		"players":     world.Players(),
		"creatures":   world.Creatures(),
		"unprocessed": world.FindUnprocessed(),
	})
}

func (h *DebugHandler) handleConnections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Service.Hub.Active())
}

// /debug/events?type=MOVEMENT_COMPLETED&status=COMPLETED&source=movement&entity=hero&limit=20
func (h *DebugHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := events.Query{
		Type:         events.EventType(strings.ToUpper(q.Get("type"))),
		SourceModule: q.Get("source"),
		EntityID:     q.Get("entity"),
	}
	if raw := q.Get("status"); raw != "" {
		st, ok := events.ParseStatus(strings.ToUpper(raw))
		if !ok {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		query.Status = st
	}
	limit, ok := parseLimit(w, q.Get("limit"))
	if !ok {
		return
	}
	query.Limit = limit

	writeJSON(w, h.Service.QueryEvents(query))
}

// /debug/movements?entity=hero&limit=20 - история перемещений и события сущности
func (h *DebugHandler) handleMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entity := q.Get("entity")
	if entity == "" {
		http.Error(w, "entity is required", http.StatusBadRequest)
		return
	}
	limit, ok := parseLimit(w, q.Get("limit"))
	if !ok {
		return
	}

	resp := map[string]any{
		"history": h.Service.MovementHistory(entity, limit),
		"events":  h.Service.QueryMovementEvents(movement.Query{EntityID: entity, Limit: limit}),
	}
	if st, ok := h.Service.Movement.Tracker().State(entity); ok {
		resp["state"] = st
	}
	writeJSON(w, resp)
}

func (h *DebugHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Service.Stats())
}

func parseLimit(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return DefaultDebugLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	// Разрешаем запросы с любого источника (нужно для локального debug клиента)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	// Если data == nil (например, пустая очередь), возвращаем пустой массив [], а не null
	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
