package world

import (
	"fmt"
	"os"

	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/events"
	"gopkg.in/yaml.v3"
)

// SeedSource - имя модуля для событий, созданных из файла мира
const SeedSource = "world_seed"

// Publisher - вход в шину событий.
type Publisher interface {
	Publish(t events.EventType, sourceModule string, payload any, vis domain.Visibility, priority int) (*events.GameEvent, error)
}

type SeedTile struct {
	ID       string          `yaml:"id"`
	Position domain.Position `yaml:"position"`
	Type     string          `yaml:"type"`
	Walkable bool            `yaml:"walkable"`
}

type SeedCreature struct {
	ID        string          `yaml:"id"`
	Name      string          `yaml:"name"`
	Position  domain.Position `yaml:"position"`
	Health    int             `yaml:"health"`
	MaxHealth int             `yaml:"max_health"`
}

// Seed - начальное содержимое мира.
type Seed struct {
	Tiles     []SeedTile     `yaml:"tiles"`
	Creatures []SeedCreature `yaml:"creatures"`
}

func LoadSeed(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world seed: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse world seed: %w", err)
	}
	for i, t := range seed.Tiles {
		if !t.Position.InBounds() {
			return nil, domain.Invalid(fmt.Sprintf("tiles[%d].position", i), "out of world bounds")
		}
	}
	for i, c := range seed.Creatures {
		if c.ID == "" {
			return nil, domain.Invalid(fmt.Sprintf("creatures[%d].id", i), "must not be empty")
		}
		if !c.Position.InBounds() {
			return nil, domain.Invalid(fmt.Sprintf("creatures[%d].position", i), "out of world bounds")
		}
	}
	return &seed, nil
}

// Publish публикует тайлы как TILE_CHANGED и существ как ENTITY_SPAWNED.
func (s *Seed) Publish(pub Publisher) (int, error) {
	n := 0
	for _, t := range s.Tiles {
		payload := events.TilePayload{TileID: t.ID, Position: t.Position, TileType: t.Type, Walkable: t.Walkable}
		if _, err := pub.Publish(events.TileChanged, SeedSource, payload, domain.Global(), 0); err != nil {
			return n, err
		}
		n++
	}
	for _, c := range s.Creatures {
		payload := events.SpawnPayload{
			EntityID: c.ID, Kind: events.KindCreature, Name: c.Name,
			Position: c.Position, Health: c.Health, MaxHealth: c.MaxHealth,
		}
		if _, err := pub.Publish(events.EntitySpawned, SeedSource, payload, domain.Global(), 0); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
