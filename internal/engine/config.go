package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/auth"
	"github.com/harrisonpepese/aibit-server-sub000/internal/domain"
	"github.com/harrisonpepese/aibit-server-sub000/internal/movement"
	"gopkg.in/yaml.v3"
)

// EnvPort переопределяет порт из файла
const EnvPort = "AIBIT_PORT"

// Config хранит параметры запуска ядра
type Config struct {
	Port int `yaml:"port"`

	// Интервалы тиков generic-процессора и процессора перемещений
	TickInterval         time.Duration `yaml:"tick_interval"`
	MovementTickInterval time.Duration `yaml:"movement_tick_interval"`

	Movement MovementConfig `yaml:"movement"`

	// BroadcastRadius - радиус AREA для событий перемещения
	BroadcastRadius float64 `yaml:"broadcast_radius"`

	EventLogMaxAge        time.Duration `yaml:"event_log_max_age"`
	SweepInterval         time.Duration `yaml:"sweep_interval"`
	InactiveEntityMinutes int           `yaml:"inactive_entity_minutes"`
	RetentionDays         int           `yaml:"retention_days"`

	SubscriptionBuffer int `yaml:"subscription_buffer"`
	ConnectionBuffer   int `yaml:"connection_buffer"`

	SpawnPosition domain.Position `yaml:"spawn_position"`
	SpawnHealth   int             `yaml:"spawn_health"`
	SpawnMana     int             `yaml:"spawn_mana"`

	// Tokens: токен -> аккаунт для статического валидатора
	Tokens map[string]auth.Identity `yaml:"tokens"`

	SeedFile          string `yaml:"seed_file"`
	ArchiveDir        string `yaml:"archive_dir"`
	Wanderers         int    `yaml:"wanderers"`
	AllowAdminActions bool   `yaml:"allow_admin_actions"`
}

type MovementConfig struct {
	MaxMovesPerMinute int           `yaml:"max_moves_per_minute"`
	RateWindow        time.Duration `yaml:"rate_window"`
	MaxWalkDistance   float64       `yaml:"max_walk_distance"`
	MaxRunDistance    float64       `yaml:"max_run_distance"`
	WalkSpeed         float64       `yaml:"walk_speed"`
	RunSpeed          float64       `yaml:"run_speed"`
}

// NewConfig создает конфиг по умолчанию
func NewConfig() Config {
	mv := movement.DefaultConfig()
	return Config{
		Port:                 8080,
		TickInterval:         100 * time.Millisecond,
		MovementTickInterval: 100 * time.Millisecond,
		Movement: MovementConfig{
			MaxMovesPerMinute: mv.MaxMovesPerWindow,
			RateWindow:        mv.RateWindow,
			MaxWalkDistance:   mv.MaxWalkDistance,
			MaxRunDistance:    mv.MaxRunDistance,
			WalkSpeed:         mv.WalkSpeed,
			RunSpeed:          mv.RunSpeed,
		},
		BroadcastRadius:       mv.BroadcastRadius,
		EventLogMaxAge:        10 * time.Minute,
		SweepInterval:         time.Minute,
		InactiveEntityMinutes: 30,
		RetentionDays:         7,
		SubscriptionBuffer:    64,
		ConnectionBuffer:      256,
		SpawnPosition:         domain.Position{X: 100, Y: 100, Z: 7},
		SpawnHealth:           100,
		SpawnMana:             50,
		Tokens:                map[string]auth.Identity{},
	}
}

// LoadConfig читает YAML поверх значений по умолчанию.
// Пустой путь или отсутствующий файл - только значения по умолчанию (и окружение).
func LoadConfig(path string) (Config, error) {
	cfg := NewConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Port = port
	}
	return nil
}

// Validate проверяет значения, без которых ядро не запустится
func (c Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return domain.Invalid("port", "must be in 1..65535")
	case c.TickInterval <= 0 || c.MovementTickInterval <= 0:
		return domain.Invalid("tick_interval", "must be positive")
	case c.BroadcastRadius < 0:
		return domain.Invalid("broadcast_radius", "must not be negative")
	case c.SweepInterval <= 0:
		return domain.Invalid("sweep_interval", "must be positive")
	case !c.SpawnPosition.InBounds():
		return domain.Invalid("spawn_position", "outside the world")
	case c.Wanderers < 0:
		return domain.Invalid("wanderers", "must not be negative")
	}
	return nil
}

// MovementPipelineConfig переводит конфиг в параметры пайплайна перемещений
func (c Config) MovementPipelineConfig() movement.Config {
	return movement.Config{
		Interval:          c.MovementTickInterval,
		MaxMovesPerWindow: c.Movement.MaxMovesPerMinute,
		RateWindow:        c.Movement.RateWindow,
		MaxWalkDistance:   c.Movement.MaxWalkDistance,
		MaxRunDistance:    c.Movement.MaxRunDistance,
		WalkSpeed:         c.Movement.WalkSpeed,
		RunSpeed:          c.Movement.RunSpeed,
		BroadcastRadius:   c.BroadcastRadius,
	}
}
