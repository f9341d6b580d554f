package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
)

// Data - полезная нагрузка события. Ядро требует только SourceModule,
// схема Payload остается на совести модуля-производителя.
type Data struct {
	SourceModule string          `json:"sourceModule"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// GameEvent is a typed, status-tracked event.
// ID, Type, CreatedAt, Visibility and Priority never change after construction;
// Status, ProcessedAt and Result are mutated only by the owning processor.
type GameEvent struct {
	ID          string            `json:"id"`
	Type        EventType         `json:"type"`
	Status      Status            `json:"status"`
	Data        Data              `json:"data"`
	Visibility  domain.Visibility `json:"visibility"`
	Priority    int               `json:"priority"`
	CreatedAt   time.Time         `json:"createdAt"`
	ProcessedAt *time.Time        `json:"processedAt,omitempty"`
	Result      map[string]any    `json:"result,omitempty"`

	// id сущностей из payload (entityId, targetId, ...), для отмены и поиска
	subjects []string
}

// subjectKeys - поля payload, которые ссылаются на сущности
var subjectKeys = []string{"entityId", "targetId", "attackerId", "senderId"}

// NewGameEvent валидирует запрос и создает событие в статусе PENDING.
// payload может быть nil, json.RawMessage или любым значением, сериализуемым в JSON.
func NewGameEvent(t EventType, sourceModule string, payload any, vis domain.Visibility, priority int, now time.Time) (*GameEvent, error) {
	if t == "" {
		return nil, domain.Invalid("type", "must not be empty")
	}
	if !t.Valid() {
		return nil, domain.Invalid("type", fmt.Sprintf("%q is not an UPPER_SNAKE name", t))
	}
	if sourceModule == "" {
		return nil, domain.Invalid("sourceModule", "must not be empty")
	}
	if err := vis.Validate(); err != nil {
		return nil, err
	}
	raw, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	return &GameEvent{
		ID:         domain.NewID(),
		Type:       t,
		Status:     StatusPending,
		Data:       Data{SourceModule: sourceModule, Payload: raw},
		Visibility: vis.Clone(),
		Priority:   priority,
		CreatedAt:  now,
		subjects:   extractSubjects(raw),
	}, nil
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(p) > 0 && !json.Valid(p) {
			return nil, domain.Invalid("payload", "is not valid JSON")
		}
		return append(json.RawMessage(nil), p...), nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.Invalid("payload", err.Error())
	}
	return raw, nil
}

func extractSubjects(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil // payload не объект - ссылок на сущности нет
	}
	var ids []string
	for _, key := range subjectKeys {
		var id string
		if v, ok := fields[key]; ok && json.Unmarshal(v, &id) == nil && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Decode распаковывает payload в v.
func (e *GameEvent) Decode(v any) error {
	if len(e.Data.Payload) == 0 {
		return domain.Invalid("payload", "event "+string(e.Type)+" has no payload")
	}
	if err := json.Unmarshal(e.Data.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Clone returns a deep copy that shares no mutable state with e.
func (e *GameEvent) Clone() *GameEvent {
	out := *e
	out.Data.Payload = append(json.RawMessage(nil), e.Data.Payload...)
	out.Visibility = e.Visibility.Clone()
	out.subjects = append([]string(nil), e.subjects...)
	if e.ProcessedAt != nil {
		t := *e.ProcessedAt
		out.ProcessedAt = &t
	}
	if e.Result != nil {
		out.Result = make(map[string]any, len(e.Result))
		for k, v := range e.Result {
			out.Result[k] = v
		}
	}
	return &out
}

// --- turn.Task[map[string]any] ---

func (e *GameEvent) Key() string           { return e.ID }
func (e *GameEvent) Rank() int             { return e.Priority }
func (e *GameEvent) EnqueuedAt() time.Time { return e.CreatedAt }
func (e *GameEvent) IsPending() bool       { return e.Status == StatusPending }

// Involves - ссылается ли событие на сущность (через visibility или payload).
func (e *GameEvent) Involves(entityID string) bool {
	if e.Visibility.Type == domain.VisibilitySpecificEntities && e.Visibility.VisibleToEntity(entityID) {
		return true
	}
	for _, id := range e.subjects {
		if id == entityID {
			return true
		}
	}
	return false
}

func (e *GameEvent) MarkProcessing(time.Time) {
	e.Status = StatusProcessing
}

// MarkCancelled: у GameEvent нет статуса CANCELLED, отмененное событие становится FAILED.
func (e *GameEvent) MarkCancelled(reason string, at time.Time) {
	e.Status = StatusFailed
	e.ProcessedAt = &at
	e.Result = map[string]any{"cancelled": reason}
}

func (e *GameEvent) Finish(result map[string]any, err error, at time.Time) {
	e.ProcessedAt = &at
	if err != nil {
		e.Status = StatusFailed
		e.Result = map[string]any{"error": err.Error()}
		return
	}
	e.Status = StatusCompleted
	e.Result = result
}
