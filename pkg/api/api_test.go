package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"login", `{"action":"LOGIN","token":"abc"}`, false},
		{"move", `{"action":"MOVE","requestId":"r1","payload":{"dx":1,"dy":0}}`, false},
		{"null payload", `{"action":"STOP","payload":null}`, false},
		{"login without token", `{"action":"LOGIN"}`, true},
		{"login with empty token", `{"action":"LOGIN","token":""}`, true},
		{"lower case action", `{"action":"move"}`, true},
		{"unknown field", `{"action":"MOVE","extra":1}`, true},
		{"array payload", `{"action":"MOVE","payload":[1,2]}`, true},
		{"not json", `{"action":`, true},
		{"missing action", `{"payload":{}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCommand)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, cmd.Action)
		})
	}
}

func TestParseCommand_KeepsRawPayload(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":"CHAT","payload":{"text":"hi"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, string(cmd.Payload))
}

func TestPayloadValidators(t *testing.T) {
	assert.Error(t, MovePayload{}.Validate())
	assert.Error(t, MovePayload{Dx: 4}.Validate())
	assert.Error(t, MovePayload{Dx: 1, Mode: "FLY"}.Validate())
	assert.NoError(t, MovePayload{Dx: 1, Dy: -1, Mode: "run"}.Validate())

	assert.Error(t, ChatPayload{Text: "   "}.Validate())
	assert.NoError(t, ChatPayload{Text: "hello"}.Validate())

	assert.Error(t, InteractPayload{Action: "open"}.Validate())
	assert.NoError(t, InteractPayload{Action: "open", Position: &PositionPayload{X: 1}}.Validate())

	assert.Error(t, EntityPayload{}.Validate())
	assert.Error(t, SelectCharacterPayload{}.Validate())
}
