package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
tiles:
  - id: gate
    position: {x: 100, y: 99, z: 7}
    type: gate
    walkable: false
creatures:
  - id: rat-1
    name: Rat
    position: {x: 105, y: 100, z: 7}
    health: 5
`

type capturePublisher struct{ types []events.EventType }

func (c *capturePublisher) Publish(t events.EventType, _ string, _ any, _ domain.Visibility, _ int) (*events.GameEvent, error) {
	c.types = append(c.types, t)
	return nil, nil
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Tiles, 1)
	assert.Equal(t, domain.Position{X: 100, Y: 99, Z: 7}, seed.Tiles[0].Position)
	require.Len(t, seed.Creatures, 1)
	assert.Equal(t, "Rat", seed.Creatures[0].Name)

	pub := &capturePublisher{}
	n, err := seed.Publish(pub)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []events.EventType{events.TileChanged, events.EntitySpawned}, pub.types)
}

func TestParseSeed_Rejects(t *testing.T) {
	_, err := ParseSeed([]byte("creatures:\n  - name: nameless\n"))
	assert.True(t, domain.IsValidation(err))

	_, err = ParseSeed([]byte("tiles:\n  - position: {x: 1, y: 1, z: 99}\n"))
	assert.True(t, domain.IsValidation(err))

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
