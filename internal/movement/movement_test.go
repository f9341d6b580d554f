package movement

import (
	"testing"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(x, y, z int) domain.Position { return domain.Position{X: x, Y: y, Z: z} }

func TestDuration(t *testing.T) {
	tests := []struct {
		name     string
		typ      MovementType
		distance float64
		speed    float64
		want     int64
	}{
		{"walk 3 tiles at speed 1", Walk, 3, 1.0, 3000},
		{"run 3 tiles at speed 2", Run, 3, 2.0, 1500},
		{"diagonal walk rounds", Walk, 1.41421356, 1.0, 1414},
		{"default walk speed", Walk, 2, 0, 2000},
		{"teleport is instant", Teleport, 500, 1, 0},
		{"knockback is fixed", Knockback, 4, 10, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.typ, tt.distance, tt.speed))
		})
	}
}

func TestStaminaCost(t *testing.T) {
	assert.Equal(t, 1, StaminaCost(Walk, 1.0))
	assert.Equal(t, 2, StaminaCost(Walk, 0.5))
	assert.Equal(t, 1, StaminaCost(Run, 2.0))
	assert.Equal(t, 2, StaminaCost(Run, 1.5))
	assert.Equal(t, 0, StaminaCost(Teleport, 1))
	assert.Equal(t, 0, StaminaCost(Knockback, 1))
}

func TestComputeDirection(t *testing.T) {
	from := pos(5, 5, 0)
	tests := []struct {
		to   domain.Position
		want Direction
	}{
		{pos(6, 4, 0), NorthEast},
		{pos(5, 4, 0), North},
		{pos(9, 5, 0), East},
		{pos(6, 9, 0), SouthEast},
		{pos(5, 6, 0), South},
		{pos(1, 6, 0), SouthWest},
		{pos(4, 5, 0), West},
		{pos(4, 4, 0), NorthWest},
		{pos(5, 5, 3), North},
	}
	for _, tt := range tests {
		t.Run(tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeDirection(from, tt.to))
		})
	}
}

func TestCreateMovements(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	walk := CreateWalk("hero", pos(0, 0, 0), pos(3, 0, 0), "client", 1.0, at)
	assert.Equal(t, Walk, walk.Type)
	assert.EqualValues(t, 3000, walk.DurationMs)
	assert.Equal(t, 1, walk.StaminaCost)
	assert.Equal(t, East, walk.Direction)
	assert.Equal(t, 3, walk.ManhattanDistance())
	assert.InDelta(t, 3.0, walk.Distance(), 1e-9)
	assert.NotEmpty(t, walk.ID)

	run := CreateRun("hero", pos(0, 0, 0), pos(0, 2, 0), "client", 0, at)
	assert.Equal(t, DefaultRunSpeed, run.Speed)
	assert.Equal(t, 1, run.StaminaCost)

	tp := CreateTeleport("hero", pos(0, 0, 0), pos(900, 900, 3), "gm", at)
	assert.Zero(t, tp.DurationMs)
	assert.Zero(t, tp.StaminaCost)

	kb := CreateKnockback("hero", pos(0, 0, 0), pos(2, 2, 0), "combat", at)
	assert.EqualValues(t, KnockbackDurationMs, kb.DurationMs)
}

func TestNewEvent_PayloadMustMatchKind(t *testing.T) {
	_, err := NewEvent(KindTeleport, "hero", &KnockbackRequest{}, 0, time.Now())
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = NewEvent(KindCancel, "hero", nil, 0, time.Now())
	assert.True(t, domain.IsValidation(err))

	_, err = NewEvent(KindCancel, "", &CancelRequest{}, 0, time.Now())
	assert.True(t, domain.IsValidation(err))

	ev, err := NewEvent(KindCancel, "hero", &CancelRequest{Reason: "x"}, 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, ev.Status)
}

func TestEvent_MarshalJSONUsesVariantKey(t *testing.T) {
	ev, err := NewEvent(KindTeleport, "hero", &TeleportRequest{To: pos(1, 2, 3), Source: "gm"}, 100, time.Now())
	require.NoError(t, err)

	raw, err := ev.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"teleport":{`)
	assert.NotContains(t, string(raw), `"movementRequest"`)
}
