// Package events - типизированные игровые события, шина публикации/подписки
// и процессор, который выполняет события по тикам.
package events

import "regexp"

// EventType - строковый тип события в формате UPPER_SNAKE.
// Модули могут объявлять свои типы, ниже перечислены известные ядру.
type EventType string

const (
	MovementCompleted  EventType = "MOVEMENT_COMPLETED"
	MovementBlocked    EventType = "MOVEMENT_BLOCKED"
	EntityTeleported   EventType = "ENTITY_TELEPORTED"
	DamageDealt        EventType = "DAMAGE_DEALT"
	EntitySpawned      EventType = "ENTITY_SPAWNED"
	EntityDespawned    EventType = "ENTITY_DESPAWNED"
	TileChanged        EventType = "TILE_CHANGED"
	MessageSent        EventType = "MESSAGE_SENT"
	SystemNotification EventType = "SYSTEM_NOTIFICATION"
	CombatAction       EventType = "COMBAT_ACTION"
	Interaction        EventType = "INTERACTION"
)

var typePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Valid reports whether t is a well-formed event type name.
func (t EventType) Valid() bool {
	return typePattern.MatchString(string(t))
}

func (t EventType) String() string { return string(t) }

// Status - жизненный цикл события: PENDING -> PROCESSING -> COMPLETED | FAILED
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// ParseStatus принимает статус из query-параметров.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return st, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
