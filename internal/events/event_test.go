package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestNewGameEvent_Validation(t *testing.T) {
	tests := []struct {
		name   string
		typ    EventType
		source string
		vis    domain.Visibility
		field  string
	}{
		{"empty type", "", "combat", domain.Global(), "type"},
		{"lower case type", "damage", "combat", domain.Global(), "type"},
		{"missing source", DamageDealt, "", domain.Global(), "sourceModule"},
		{"area without center", DamageDealt, "combat", domain.Visibility{Type: domain.VisibilityArea, Radius: 3}, "visibility.center"},
		{"empty entity list", DamageDealt, "combat", domain.Visibility{Type: domain.VisibilitySpecificEntities}, "visibility.entityIds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGameEvent(tt.typ, tt.source, nil, tt.vis, 0, t0)
			require.Error(t, err)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestNewGameEvent_CustomTypeAccepted(t *testing.T) {
	ev, err := NewGameEvent("QUEST_STARTED", "quests", json.RawMessage(`{"quest":"intro"}`), domain.Global(), 3, t0)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, ev.Status)
	assert.Len(t, ev.ID, 26)
	assert.Equal(t, 3, ev.Priority)
}

func TestNewGameEvent_RejectsBrokenRawPayload(t *testing.T) {
	_, err := NewGameEvent(MessageSent, "chat", json.RawMessage(`{"text":`), domain.Global(), 0, t0)
	assert.True(t, domain.IsValidation(err))
}

func TestGameEvent_DecodeAndInvolves(t *testing.T) {
	ev, err := NewGameEvent(DamageDealt, "combat", DamagePayload{TargetID: "goblin", AttackerID: "hero", Amount: 7}, domain.Global(), 0, t0)
	require.NoError(t, err)

	var p DamagePayload
	require.NoError(t, ev.Decode(&p))
	assert.Equal(t, 7, p.Amount)

	assert.True(t, ev.Involves("goblin"))
	assert.True(t, ev.Involves("hero"))
	assert.False(t, ev.Involves("orc"))

	vis, err := domain.SpecificEntities("orc")
	require.NoError(t, err)
	ev2, err := NewGameEvent(SystemNotification, "system", NotificationPayload{Message: "hi"}, vis, 0, t0)
	require.NoError(t, err)
	assert.True(t, ev2.Involves("orc"))
}

func TestGameEvent_CancelBecomesFailed(t *testing.T) {
	ev, err := NewGameEvent(MessageSent, "chat", nil, domain.Global(), 0, t0)
	require.NoError(t, err)

	ev.MarkCancelled("logout", t0)
	assert.Equal(t, StatusFailed, ev.Status)
	assert.Equal(t, "logout", ev.Result["cancelled"])
	assert.False(t, ev.IsPending())
	require.NotNil(t, ev.ProcessedAt)
}

func TestGameEvent_CloneIsIndependent(t *testing.T) {
	center := domain.Position{X: 1, Y: 2, Z: 3}
	vis, err := domain.Area(center, 4)
	require.NoError(t, err)
	ev, err := NewGameEvent(TileChanged, "map", TilePayload{TileType: "wall"}, vis, 0, t0)
	require.NoError(t, err)
	ev.Finish(Outcome{"k": "v"}, nil, t0)

	cp := ev.Clone()
	cp.Result["k"] = "changed"
	cp.Visibility.Center.X = 99
	cp.Data.Payload[0] = '['

	assert.Equal(t, "v", ev.Result["k"])
	assert.Equal(t, 1, ev.Visibility.Center.X)
	assert.Equal(t, byte('{'), ev.Data.Payload[0])
}
