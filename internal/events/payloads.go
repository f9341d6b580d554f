package events

import "github.com/harrisonpepese/aibit-server-sub000/internal/domain"

// Типизированные payload для известных типов событий.
// Имена JSON полей - контракт с модулями-производителями и клиентами.

// MovementPayload is carried by MOVEMENT_COMPLETED and ENTITY_TELEPORTED.
type MovementPayload struct {
	EntityID     string           `json:"entityId"`
	MovementID   string           `json:"movementId,omitempty"`
	MovementType string           `json:"movementType,omitempty"`
	Direction    string           `json:"direction,omitempty"`
	From         *domain.Position `json:"fromPosition,omitempty"`
	To           domain.Position  `json:"toPosition"`
	DurationMs   int64            `json:"durationMs,omitempty"`
}

type MovementBlockedPayload struct {
	EntityID       string          `json:"entityId"`
	From           domain.Position `json:"fromPosition"`
	Attempted      domain.Position `json:"attemptedPosition"`
	ActualPosition domain.Position `json:"actualPosition"`
	Reason         string          `json:"reason"`
}

type DamagePayload struct {
	TargetID   string `json:"targetId"`
	AttackerID string `json:"attackerId,omitempty"`
	Amount     int    `json:"amount"`
	DamageType string `json:"damageType,omitempty"`
}

// EntityKind - игрок или существо
type EntityKind string

const (
	KindPlayer   EntityKind = "player"
	KindCreature EntityKind = "creature"
)

type SpawnPayload struct {
	EntityID  string          `json:"entityId"`
	Kind      EntityKind      `json:"kind"`
	Name      string          `json:"name,omitempty"`
	Position  domain.Position `json:"position"`
	Health    int             `json:"health"`
	MaxHealth int             `json:"maxHealth"`
	Mana      int             `json:"mana,omitempty"`
	MaxMana   int             `json:"maxMana,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

type DespawnPayload struct {
	EntityID string `json:"entityId"`
	Reason   string `json:"reason,omitempty"`
}

type TilePayload struct {
	TileID   string          `json:"tileId,omitempty"`
	Position domain.Position `json:"position"`
	TileType string          `json:"tileType"`
	Walkable bool            `json:"walkable"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

type MessagePayload struct {
	SenderID string `json:"senderId"`
	Channel  string `json:"channel,omitempty"`
	Text     string `json:"text"`
	TargetID string `json:"targetId,omitempty"`
}

type NotificationPayload struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}

type CombatActionPayload struct {
	AttackerID string `json:"attackerId"`
	TargetID   string `json:"targetId"`
	Action     string `json:"action"`
}

type InteractionPayload struct {
	EntityID string           `json:"entityId"`
	TargetID string           `json:"targetId,omitempty"`
	Action   string           `json:"action"`
	Position *domain.Position `json:"position,omitempty"`
}
