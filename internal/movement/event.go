package movement

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
)

// Payload - закрытый набор вариантов данных события перемещения.
// Каждый вариант соответствует ровно одному EventKind.
type Payload interface {
	Kind() EventKind
}

type MovementRequest struct {
	From   domain.Position `json:"fromPosition"`
	To     domain.Position `json:"toPosition"`
	Type   MovementType    `json:"movementType"`
	Source string          `json:"source"`
	Speed  float64         `json:"speed,omitempty"`
}

type TeleportRequest struct {
	From   domain.Position `json:"fromPosition"`
	To     domain.Position `json:"targetPosition"`
	Source string          `json:"source"`
}

type KnockbackRequest struct {
	From   domain.Position `json:"fromPosition"`
	To     domain.Position `json:"targetPosition"`
	Source string          `json:"source"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type PositionUpdate struct {
	Position domain.Position `json:"position"`
	Source   string          `json:"source"`
}

func (*MovementRequest) Kind() EventKind  { return KindMovementRequest }
func (*TeleportRequest) Kind() EventKind  { return KindTeleport }
func (*KnockbackRequest) Kind() EventKind { return KindKnockback }
func (*CancelRequest) Kind() EventKind    { return KindCancel }
func (*PositionUpdate) Kind() EventKind   { return KindPositionUpdate }

// Outcome - результат обработки события перемещения.
type Outcome struct {
	Status         OutcomeStatus    `json:"status,omitempty"`
	ActualPosition *domain.Position `json:"actualPosition,omitempty"`
	MovementID     string           `json:"movementId,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	Error          string           `json:"error,omitempty"`
	CancelledCount int              `json:"cancelledCount,omitempty"`
}

// Event - событие перемещения. Kind, EntityID, Payload, Priority и CreatedAt
// не меняются после создания; статус меняет только процессор движения.
type Event struct {
	ID          string
	Kind        EventKind
	EntityID    string
	Status      Status
	Priority    int
	Payload     Payload
	CreatedAt   time.Time
	ProcessedAt *time.Time
	Result      *Outcome
}

// NewEvent проверяет, что payload присутствует и соответствует kind.
func NewEvent(kind EventKind, entityID string, payload Payload, priority int, now time.Time) (*Event, error) {
	if entityID == "" {
		return nil, domain.Invalid("entityId", "must not be empty")
	}
	if payload == nil {
		return nil, domain.Invalid("payload", fmt.Sprintf("%s event requires a payload", kind))
	}
	if payload.Kind() != kind {
		return nil, domain.Invalid("payload", fmt.Sprintf("%s payload does not match event type %s", payload.Kind(), kind))
	}
	return &Event{
		ID:        domain.NewID(),
		Kind:      kind,
		EntityID:  entityID,
		Status:    StatusPending,
		Priority:  priority,
		Payload:   payload,
		CreatedAt: now,
	}, nil
}

// Clone - глубокая копия. Payload варианты - значения без ссылок, копируются целиком.
func (e *Event) Clone() *Event {
	out := *e
	out.Payload = clonePayload(e.Payload)
	if e.ProcessedAt != nil {
		t := *e.ProcessedAt
		out.ProcessedAt = &t
	}
	if e.Result != nil {
		r := *e.Result
		if r.ActualPosition != nil {
			p := *r.ActualPosition
			r.ActualPosition = &p
		}
		out.Result = &r
	}
	return &out
}

func clonePayload(p Payload) Payload {
	switch v := p.(type) {
	case *MovementRequest:
		c := *v
		return &c
	case *TeleportRequest:
		c := *v
		return &c
	case *KnockbackRequest:
		c := *v
		return &c
	case *CancelRequest:
		c := *v
		return &c
	case *PositionUpdate:
		c := *v
		return &c
	}
	return p
}

// MarshalJSON кладет payload под ключом варианта: {"teleport": {...}}.
func (e *Event) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID              string            `json:"id"`
		Type            EventKind         `json:"type"`
		EntityID        string            `json:"entityId"`
		Status          Status            `json:"status"`
		Priority        int               `json:"priority"`
		CreatedAt       time.Time         `json:"createdAt"`
		ProcessedAt     *time.Time        `json:"processedAt,omitempty"`
		Result          *Outcome          `json:"result,omitempty"`
		MovementRequest *MovementRequest  `json:"movementRequest,omitempty"`
		Teleport        *TeleportRequest  `json:"teleport,omitempty"`
		Knockback       *KnockbackRequest `json:"knockback,omitempty"`
		Cancel          *CancelRequest    `json:"cancel,omitempty"`
		PositionUpdate  *PositionUpdate   `json:"positionUpdate,omitempty"`
	}
	w := wire{
		ID: e.ID, Type: e.Kind, EntityID: e.EntityID, Status: e.Status,
		Priority: e.Priority, CreatedAt: e.CreatedAt, ProcessedAt: e.ProcessedAt, Result: e.Result,
	}
	switch p := e.Payload.(type) {
	case *MovementRequest:
		w.MovementRequest = p
	case *TeleportRequest:
		w.Teleport = p
	case *KnockbackRequest:
		w.Knockback = p
	case *CancelRequest:
		w.Cancel = p
	case *PositionUpdate:
		w.PositionUpdate = p
	}
	return json.Marshal(w)
}

// --- turn.Task[Outcome] ---

func (e *Event) Key() string                   { return e.ID }
func (e *Event) Rank() int                     { return e.Priority }
func (e *Event) EnqueuedAt() time.Time         { return e.CreatedAt }
func (e *Event) IsPending() bool               { return e.Status == StatusPending }
func (e *Event) Involves(entityID string) bool { return e.EntityID == entityID }

func (e *Event) MarkProcessing(time.Time) {
	e.Status = StatusProcessing
}

func (e *Event) MarkCancelled(reason string, at time.Time) {
	e.Status = StatusCancelled
	e.ProcessedAt = &at
	e.Result = &Outcome{Reason: reason}
}

func (e *Event) Finish(result Outcome, err error, at time.Time) {
	e.ProcessedAt = &at
	if err != nil {
		e.Status = StatusFailed
		e.Result = &Outcome{Error: err.Error()}
		return
	}
	e.Status = StatusCompleted
	e.Result = &result
}
