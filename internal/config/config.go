package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/repcount/internal/engine"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Engine    EngineConfig    `yaml:"engine"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// EngineConfig is the YAML shape of the engine tuning. Fields left zero fall
// back to the engine defaults, so a config file only overrides what it names.
type EngineConfig struct {
	VisibilityThreshold float64 `yaml:"visibility_threshold"`
	BodyReadyThreshold  int     `yaml:"body_ready_threshold"`
	DownAngleDeg        float64 `yaml:"down_angle_deg"`
	UpAngleDeg          float64 `yaml:"up_angle_deg"`
	SmoothingFactor     float64 `yaml:"smoothing_factor"`
	NeutralAngleDeg     float64 `yaml:"neutral_angle_deg"`
	RepCooldownMS       int     `yaml:"rep_cooldown_ms"`
	BadFrameTolerance   int     `yaml:"bad_frame_tolerance"`
	HorizontalTolerance float64 `yaml:"horizontal_tolerance"`
	HandHeightTolerance float64 `yaml:"hand_height_tolerance"`
	MilestoneEvery      int     `yaml:"milestone_every"`
}

// Tuning converts the config section to engine tuning, filling unset fields
// from the defaults.
func (e EngineConfig) Tuning() engine.Tuning {
	t := engine.DefaultTuning()
	if e.VisibilityThreshold != 0 {
		t.VisibilityThreshold = e.VisibilityThreshold
	}
	if e.BodyReadyThreshold != 0 {
		t.BodyReadyThreshold = e.BodyReadyThreshold
	}
	if e.DownAngleDeg != 0 {
		t.DownAngleDeg = e.DownAngleDeg
	}
	if e.UpAngleDeg != 0 {
		t.UpAngleDeg = e.UpAngleDeg
	}
	if e.SmoothingFactor != 0 {
		t.SmoothingFactor = e.SmoothingFactor
	}
	if e.NeutralAngleDeg != 0 {
		t.NeutralAngleDeg = e.NeutralAngleDeg
	}
	if e.RepCooldownMS != 0 {
		t.RepCooldown = time.Duration(e.RepCooldownMS) * time.Millisecond
	}
	if e.BadFrameTolerance != 0 {
		t.BadFrameTolerance = e.BadFrameTolerance
	}
	if e.HorizontalTolerance != 0 {
		t.HorizontalTolerance = e.HorizontalTolerance
	}
	if e.HandHeightTolerance != 0 {
		t.HandHeightTolerance = e.HandHeightTolerance
	}
	if e.MilestoneEvery != 0 {
		t.MilestoneEvery = e.MilestoneEvery
	}
	return t
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix REPCOUNT_ and underscore-separated paths:
//
//	REPCOUNT_SERVER_HOST, REPCOUNT_SERVER_PORT,
//	REPCOUNT_DB_HOST, REPCOUNT_DB_PORT, REPCOUNT_DB_NAME,
//	REPCOUNT_DB_USER, REPCOUNT_DB_PASSWORD, REPCOUNT_DB_SSLMODE,
//	REPCOUNT_AUTH_API_KEY
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPCOUNT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPCOUNT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPCOUNT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("REPCOUNT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REPCOUNT_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REPCOUNT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("REPCOUNT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REPCOUNT_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REPCOUNT_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required when tailscale is disabled")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if err := c.Engine.Tuning().Validate(); err != nil {
		return fmt.Errorf("engine tuning: %w", err)
	}
	return nil
}
