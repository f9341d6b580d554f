package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)

	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 20, cfg.Movement.MaxMovesPerMinute)
	assert.Equal(t, domain.Position{X: 100, Y: 100, Z: 7}, cfg.SpawnPosition)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aibit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
tick_interval: 50ms
movement:
  max_moves_per_minute: 5
  max_run_distance: 4
broadcast_radius: 20
spawn_position: {x: 10, y: 20, z: 3}
tokens:
  secret:
    id: acc-1
    characters: [hero]
allow_admin_actions: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.MovementTickInterval, "untouched keys keep defaults")
	assert.Equal(t, 5, cfg.Movement.MaxMovesPerMinute)
	assert.Equal(t, 4.0, cfg.Movement.MaxRunDistance)
	assert.Equal(t, 1.5, cfg.Movement.MaxWalkDistance)
	assert.Equal(t, domain.Position{X: 10, Y: 20, Z: 3}, cfg.SpawnPosition)
	assert.Equal(t, []string{"hero"}, cfg.Tokens["secret"].Characters)
	assert.True(t, cfg.AllowAdminActions)

	mv := cfg.MovementPipelineConfig()
	assert.Equal(t, 5, mv.MaxMovesPerWindow)
	assert.Equal(t, 20.0, mv.BroadcastRadius)

	t.Setenv(EnvPort, "7001")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Port)

	t.Setenv(EnvPort, "not-a-port")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad port", "port: 70000"},
		{"zero tick", "tick_interval: 0s"},
		{"spawn outside world", "spawn_position: {x: 10, y: 10, z: 99}"},
		{"negative wanderers", "wanderers: -1"},
		{"broken yaml", "port: [1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "aibit.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}
