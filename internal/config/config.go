package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "SECTORJAM_CONFIG"

const DefaultPath = "config/game.toml"

type Config struct {
	Game      GameConfig      `toml:"game"`
	Viewport  ViewportConfig  `toml:"viewport"`
	Sectors   SectorsConfig   `toml:"sectors"`
	Splashes  SplashesConfig  `toml:"splashes"`
	Asteroids AsteroidsConfig `toml:"asteroids"`
	Data      DataConfig      `toml:"data"`
	Scripting ScriptingConfig `toml:"scripting"`
	Control   ControlConfig   `toml:"control"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
}

type GameConfig struct {
	TickRate        time.Duration `toml:"tick_rate"`
	MaxActors       int           `toml:"max_actors"`
	Players         []string      `toml:"players"`          // player definition names, also their aliases
	Preload         []string      `toml:"preload"`          // extra definitions loaded with the session (projectiles, debris)
	CollisionDamage int           `toml:"collision_damage"` // hit points taken from each side of a contact
	NoticeDuration  time.Duration `toml:"notice_duration"`
	GraceWindow     time.Duration `toml:"grace_window"` // shots ignore players this long after firing
	AmmoBonuses     []int         `toml:"ammo_bonuses"` // per player, indexed by player count - 1
	Seed            uint64        `toml:"seed"`         // 0 = random
	AutoPlay        bool          `toml:"auto_play"`
	MaxTicks        int           `toml:"max_ticks"` // 0 = run until stopped
}

type ViewportConfig struct {
	Width       float64    `toml:"width"`
	Height      float64    `toml:"height"`
	OuterBorder [2]float64 `toml:"outer_border"`
	InnerMargin [2]float64 `toml:"inner_margin"`
}

// SectorsConfig selects the inclusive range of Sector<N> definitions played.
type SectorsConfig struct {
	From int `toml:"from"`
	To   int `toml:"to"`
}

type SplashesConfig struct {
	Welcome      time.Duration `toml:"welcome"`
	GameOver     time.Duration `toml:"game_over"`
	GameComplete time.Duration `toml:"game_complete"`
}

type AsteroidsConfig struct {
	SpeedBase     float64 `toml:"speed_base"`
	SpeedVariance float64 `toml:"speed_variance"`
}

type DataConfig struct {
	Dir string `toml:"dir"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

// ControlConfig configures the remote control listener. An empty Bind
// disables it.
type ControlConfig struct {
	Bind           string        `toml:"bind"`
	InQueueSize    int           `toml:"in_queue_size"`
	OutQueueSize   int           `toml:"out_queue_size"`
	MaxPacketsSec  int           `toml:"max_packets_per_second"` // 0 = unlimited
	MaxPerTick     int           `toml:"max_per_tick"`           // packets handled per session per tick
	IdleTimeout    time.Duration `toml:"idle_timeout"`           // 0 = never
	PasswordBcrypt string        `toml:"password_bcrypt"`        // empty = no password
}

// DatabaseConfig holds the score database settings. An empty DSN disables
// score persistence.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Path returns the config path from the environment, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config { return defaults() }

func (c *Config) validate() error {
	switch {
	case c.Game.TickRate <= 0:
		return fmt.Errorf("game.tick_rate must be positive")
	case len(c.Game.Players) == 0:
		return fmt.Errorf("game.players is empty")
	case c.Sectors.To < c.Sectors.From:
		return fmt.Errorf("sectors.to (%d) is before sectors.from (%d)", c.Sectors.To, c.Sectors.From)
	case c.Viewport.Width <= 0 || c.Viewport.Height <= 0:
		return fmt.Errorf("viewport size must be positive")
	}
	return nil
}

// SectorNames lists the sector definitions in play order.
func (c *Config) SectorNames() []string {
	names := make([]string, 0, c.Sectors.To-c.Sectors.From+1)
	for i := c.Sectors.From; i <= c.Sectors.To; i++ {
		names = append(names, fmt.Sprintf("Sector%d", i))
	}
	return names
}

func defaults() *Config {
	return &Config{
		Game: GameConfig{
			TickRate:        time.Second / 30,
			MaxActors:       512,
			Players:         []string{"Player0"},
			Preload:         []string{"Bullet", "Debris"},
			CollisionDamage: 1,
			NoticeDuration:  time.Second,
			GraceWindow:     100 * time.Millisecond,
			AmmoBonuses:     []int{6, 3},
		},
		Viewport: ViewportConfig{
			Width:       800,
			Height:      600,
			OuterBorder: [2]float64{40, 40},
			InnerMargin: [2]float64{10, 10},
		},
		Sectors: SectorsConfig{From: 0, To: 2},
		Splashes: SplashesConfig{
			Welcome:      2 * time.Second,
			GameOver:     2 * time.Second,
			GameComplete: 3 * time.Second,
		},
		Asteroids: AsteroidsConfig{
			SpeedBase:     20,
			SpeedVariance: 30,
		},
		Data:      DataConfig{Dir: "data/yaml"},
		Scripting: ScriptingConfig{Dir: "scripts"},
		Control: ControlConfig{
			InQueueSize:   64,
			OutQueueSize:  256,
			MaxPacketsSec: 120,
			MaxPerTick:    16,
			IdleTimeout:   time.Minute,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
