// Package config loads and validates benchmark configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/primestress/primestress/internal/prime"
)

// Config captures all benchmark configuration knobs loaded via Viper.
type Config struct {
	Prime   PrimeConfig   `mapstructure:"prime"`
	Run     RunConfig     `mapstructure:"run"`
	Server  ServerConfig  `mapstructure:"server"`
	Events  EventsConfig  `mapstructure:"events"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PrimeConfig selects the growth method and progress reporting.
type PrimeConfig struct {
	Method                  string `mapstructure:"method"`
	Progress                bool   `mapstructure:"progress"`
	ProgressIntervalSeconds int    `mapstructure:"progress_interval_seconds"`
}

// RunConfig governs worker fan-out and the run budget.
type RunConfig struct {
	Workers int `mapstructure:"workers"`
	// Seconds is the wall-clock run budget; 0 runs until interrupted.
	Seconds int `mapstructure:"seconds"`
	// Ops is a per-worker operation budget; 0 means unlimited.
	Ops uint64 `mapstructure:"ops"`
	// GraceSeconds is the delay between the cooperative stop and the
	// forced one.
	GraceSeconds int `mapstructure:"grace_seconds"`
}

// ServerConfig controls the optional status/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// EventsConfig tunes the progress event hub.
type EventsConfig struct {
	Log    bool `mapstructure:"log"`
	Buffer int  `mapstructure:"buffer"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRIMESTRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("prime.method", string(prime.MethodInc))
	v.SetDefault("prime.progress", false)
	v.SetDefault("prime.progress_interval_seconds", 60)
	v.SetDefault("run.workers", 1)
	v.SetDefault("run.seconds", 60)
	v.SetDefault("run.ops", 0)
	v.SetDefault("run.grace_seconds", 5)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("events.log", false)
	v.SetDefault("events.buffer", 1024)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if _, err := prime.ParseMethod(c.Prime.Method); err != nil {
		return fmt.Errorf("prime.method: %w", err)
	}
	if c.Prime.ProgressIntervalSeconds <= 0 {
		return fmt.Errorf("prime.progress_interval_seconds must be > 0")
	}
	if c.Run.Workers <= 0 {
		return fmt.Errorf("run.workers must be > 0")
	}
	if c.Run.Seconds < 0 {
		return fmt.Errorf("run.seconds must be >= 0")
	}
	if c.Run.GraceSeconds <= 0 {
		return fmt.Errorf("run.grace_seconds must be > 0")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}

// Method returns the parsed growth method. Call Validate first.
func (c Config) Method() prime.Method {
	m, _ := prime.ParseMethod(c.Prime.Method)
	return m
}

// ProgressInterval converts the progress gate setting into a duration.
func (c Config) ProgressInterval() time.Duration {
	return time.Duration(c.Prime.ProgressIntervalSeconds) * time.Second
}

// RunFor converts the run budget into a duration; zero means unbounded.
func (c Config) RunFor() time.Duration {
	return time.Duration(c.Run.Seconds) * time.Second
}

// Grace converts the forced-stop delay into a duration.
func (c Config) Grace() time.Duration {
	return time.Duration(c.Run.GraceSeconds) * time.Second
}
