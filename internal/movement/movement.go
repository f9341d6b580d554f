package movement

import (
	"math"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
)

const (
	DefaultWalkSpeed = 1.0
	DefaultRunSpeed  = 2.0

	// KnockbackDurationMs - отбрасывание всегда занимает фиксированное время
	KnockbackDurationMs = 200
)

// Movement - неизменяемая запись об успешном перемещении.
type Movement struct {
	ID          string          `json:"id"`
	EntityID    string          `json:"entityId"`
	From        domain.Position `json:"fromPosition"`
	To          domain.Position `json:"toPosition"`
	Direction   Direction       `json:"direction"`
	Type        MovementType    `json:"type"`
	Source      string          `json:"source"`
	Speed       float64         `json:"speed"`
	StaminaCost int             `json:"staminaCost"`
	DurationMs  int64           `json:"durationMs"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (m Movement) Key() string           { return m.ID }
func (m Movement) EnqueuedAt() time.Time { return m.Timestamp }
func (m Movement) Clone() Movement       { return m }

func (m Movement) Distance() float64 { return Distance(m.From, m.To) }

func (m Movement) ManhattanDistance() int { return ManhattanDistance(m.From, m.To) }

func CreateWalk(entityID string, from, to domain.Position, source string, speed float64, at time.Time) Movement {
	return create(Walk, entityID, from, to, source, speed, at)
}

func CreateRun(entityID string, from, to domain.Position, source string, speed float64, at time.Time) Movement {
	return create(Run, entityID, from, to, source, speed, at)
}

func CreateTeleport(entityID string, from, to domain.Position, source string, at time.Time) Movement {
	return create(Teleport, entityID, from, to, source, 0, at)
}

func CreateKnockback(entityID string, from, to domain.Position, source string, at time.Time) Movement {
	return create(Knockback, entityID, from, to, source, 0, at)
}

func create(t MovementType, entityID string, from, to domain.Position, source string, speed float64, at time.Time) Movement {
	speed = effectiveSpeed(t, speed)
	return Movement{
		ID:          domain.NewID(),
		EntityID:    entityID,
		From:        from,
		To:          to,
		Direction:   ComputeDirection(from, to),
		Type:        t,
		Source:      source,
		Speed:       speed,
		StaminaCost: StaminaCost(t, speed),
		DurationMs:  Duration(t, Distance(from, to), speed),
		Timestamp:   at,
	}
}

// effectiveSpeed подставляет скорость по умолчанию для типа, если она не задана.
func effectiveSpeed(t MovementType, speed float64) float64 {
	if speed > 0 {
		return speed
	}
	switch t {
	case Walk:
		return DefaultWalkSpeed
	case Run:
		return DefaultRunSpeed
	}
	return 0
}

// ComputeDirection - направление по знакам (dx, dy). Диагональ побеждает,
// если обе компоненты ненулевые; нулевое смещение - north.
func ComputeDirection(from, to domain.Position) Direction {
	dx, dy := sign(to.X-from.X), sign(to.Y-from.Y)
	switch {
	case dx > 0 && dy < 0:
		return NorthEast
	case dx > 0 && dy > 0:
		return SouthEast
	case dx < 0 && dy > 0:
		return SouthWest
	case dx < 0 && dy < 0:
		return NorthWest
	case dx > 0:
		return East
	case dx < 0:
		return West
	case dy > 0:
		return South
	}
	return North
}

// Distance - евклидово расстояние в 3D
func Distance(from, to domain.Position) float64 {
	return from.DistanceTo(to)
}

func ManhattanDistance(from, to domain.Position) int {
	return from.ManhattanDistanceTo(to)
}

// Duration in milliseconds: round(distance / speed * 1000).
// TELEPORT is instant, KNOCKBACK always takes KnockbackDurationMs.
func Duration(t MovementType, distance, speed float64) int64 {
	switch t {
	case Teleport:
		return 0
	case Knockback:
		return KnockbackDurationMs
	}
	speed = effectiveSpeed(t, speed)
	return int64(math.Round(distance / speed * 1000))
}

// StaminaCost: WALK = ceil(1/speed), RUN = ceil(2/speed), остальные бесплатны.
func StaminaCost(t MovementType, speed float64) int {
	speed = effectiveSpeed(t, speed)
	switch t {
	case Walk:
		return int(math.Ceil(1 / speed))
	case Run:
		return int(math.Ceil(2 / speed))
	}
	return 0
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
