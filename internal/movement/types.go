// Package movement - конвейер перемещений: запросы, проверка правил во время
// исполнения, расчет стоимости/длительности, трекер позиций и история.
package movement

import "strings"

// MovementType - способ перемещения
type MovementType string

const (
	Walk      MovementType = "WALK"
	Run       MovementType = "RUN"
	Teleport  MovementType = "TELEPORT"
	Knockback MovementType = "KNOCKBACK"
)

// ParseMovementType конвертирует строку из JSON; регистр не важен.
func ParseMovementType(s string) (MovementType, bool) {
	switch t := MovementType(strings.ToUpper(s)); t {
	case Walk, Run, Teleport, Knockback:
		return t, true
	}
	return "", false
}

func (t MovementType) Valid() bool {
	switch t {
	case Walk, Run, Teleport, Knockback:
		return true
	}
	return false
}

// Direction - 8 сторон света. Север - отрицательный dy.
type Direction string

const (
	North     Direction = "north"
	NorthEast Direction = "northeast"
	East      Direction = "east"
	SouthEast Direction = "southeast"
	South     Direction = "south"
	SouthWest Direction = "southwest"
	West      Direction = "west"
	NorthWest Direction = "northwest"
)

// EventKind - тип события перемещения, определяет вариант payload.
type EventKind string

const (
	KindMovementRequest EventKind = "MOVEMENT_REQUEST"
	KindTeleport        EventKind = "TELEPORT"
	KindKnockback       EventKind = "KNOCKBACK"
	KindCancel          EventKind = "CANCEL"
	KindPositionUpdate  EventKind = "POSITION_UPDATE"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// OutcomeStatus - игровой итог COMPLETED события.
// BLOCKED - нормальный исход (правила не пустили), а не ошибка.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "SUCCESS"
	OutcomeBlocked OutcomeStatus = "BLOCKED"
)

// Причины блокировки
const (
	ReasonOutOfBounds = "out_of_bounds"
	ReasonRateLimited = "rate_limited"
	ReasonTooFar      = "too_far"
	ReasonOccupied    = "occupied"
)

// Приоритеты: коррекции реального времени идут первыми.
const (
	PriorityTeleport   = 100
	PriorityKnockback  = 75
	PriorityInProgress = 50
	PriorityFresh      = 10
)
