// Package config loads server settings from defaults, an optional yaml file
// and TILEQUEST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// TILEQUEST_ENGINE_WORKERS.
const EnvPrefix = "TILEQUEST"

// Log configures logging.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Engine tunes the tick loop and traversal guards.
type Engine struct {
	TicksPerMinute int           `yaml:"ticks_per_minute" mapstructure:"ticks_per_minute"`
	TickInterval   time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	Workers        int           `yaml:"workers" mapstructure:"workers"`
	MaxDepth       int           `yaml:"max_depth" mapstructure:"max_depth"`
	MaxSteps       int           `yaml:"max_steps" mapstructure:"max_steps"`
	Seed           int64         `yaml:"seed" mapstructure:"seed"`
}

// Config is the full server configuration.
type Config struct {
	Project  string `yaml:"project" mapstructure:"project"`
	SaveDir  string `yaml:"save_dir" mapstructure:"save_dir"`
	Database string `yaml:"database" mapstructure:"database"`
	Log      Log    `yaml:"log" mapstructure:"log"`
	Engine   Engine `yaml:"engine" mapstructure:"engine"`
	Watch    bool   `yaml:"watch" mapstructure:"watch"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Project:  "./game",
		SaveDir:  "~/.tilequest/saves",
		Database: "~/.tilequest/characters.db",
		Log:      Log{Level: "info", Format: "text"},
		Engine: Engine{
			TicksPerMinute: 4,
			TickInterval:   250 * time.Millisecond,
			Workers:        4,
			MaxDepth:       256,
			MaxSteps:       10000,
			Seed:           42,
		},
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("project", d.Project)
	v.SetDefault("save_dir", d.SaveDir)
	v.SetDefault("database", d.Database)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("engine.ticks_per_minute", d.Engine.TicksPerMinute)
	v.SetDefault("engine.tick_interval", d.Engine.TickInterval)
	v.SetDefault("engine.workers", d.Engine.Workers)
	v.SetDefault("engine.max_depth", d.Engine.MaxDepth)
	v.SetDefault("engine.max_steps", d.Engine.MaxSteps)
	v.SetDefault("engine.seed", d.Engine.Seed)
	v.SetDefault("watch", d.Watch)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (optional) into v and decodes the result. An empty path
// looks for tilequest.yaml in the working directory and ~/.tilequest.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tilequest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".tilequest"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SaveDir = ExpandHome(cfg.SaveDir)
	cfg.Database = ExpandHome(cfg.Database)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Engine.TicksPerMinute <= 0:
		return fmt.Errorf("engine.ticks_per_minute must be positive, got %d", c.Engine.TicksPerMinute)
	case c.Engine.TickInterval <= 0:
		return fmt.Errorf("engine.tick_interval must be positive, got %s", c.Engine.TickInterval)
	case c.Engine.Workers <= 0:
		return fmt.Errorf("engine.workers must be positive, got %d", c.Engine.Workers)
	case c.Engine.MaxDepth <= 0 || c.Engine.MaxSteps <= 0:
		return fmt.Errorf("engine.max_depth and engine.max_steps must be positive")
	}
	return nil
}

// Write renders cfg as yaml to path, creating parent directories.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
