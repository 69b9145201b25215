package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Stream   StreamConfig   `yaml:"stream"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Hours    HoursConfig    `yaml:"hours"`
	Engine   EngineConfig   `yaml:"engine"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                     string `yaml:"dsn"`
	MaxOpenConns            int    `yaml:"max_open_conns"`
	MaxIdleConns            int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes  int    `yaml:"conn_max_lifetime_minutes"`
	EnableOverlapConstraint bool   `yaml:"enable_overlap_constraint"`
}

// StreamConfig holds the Kafka change-event stream configuration.
type StreamConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// SweepConfig holds the completion-sweep loop configuration.
type SweepConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// HoursConfig holds the operating-hours and slot parameters.
type HoursConfig struct {
	OpenMinute        int `yaml:"open_minute"`
	PresetCloseMinute int `yaml:"preset_close_minute"`
	SlotStepMinutes   int `yaml:"slot_step_minutes"`
	CustomCloseMinute int `yaml:"custom_close_minute"`
}

// EngineConfig holds the client-side engine tuning knobs.
type EngineConfig struct {
	DebounceWindowMs       int `yaml:"debounce_window_ms"`
	DeferralDelayMs        int `yaml:"deferral_delay_ms"`
	ReconnectMaxAttempts   int `yaml:"reconnect_max_attempts"`
	ReconnectBackoffMs     int `yaml:"reconnect_backoff_ms"`
	PaymentPollIntervalMs  int `yaml:"payment_poll_interval_ms"`
	PaymentPollMaxAttempts int `yaml:"payment_poll_max_attempts"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Sweep.IntervalSeconds <= 0 {
		cfg.Sweep.IntervalSeconds = 300
	}
	cfg.Sweep.Interval = time.Duration(cfg.Sweep.IntervalSeconds) * time.Second

	if cfg.Hours.OpenMinute <= 0 {
		cfg.Hours.OpenMinute = 7 * 60
	}
	if cfg.Hours.PresetCloseMinute <= 0 {
		cfg.Hours.PresetCloseMinute = 22 * 60
	}
	if cfg.Hours.SlotStepMinutes <= 0 {
		cfg.Hours.SlotStepMinutes = 60
	}
	if cfg.Hours.CustomCloseMinute <= 0 {
		cfg.Hours.CustomCloseMinute = 23 * 60
	}

	if cfg.Engine.DebounceWindowMs <= 0 {
		cfg.Engine.DebounceWindowMs = 200
	}
	if cfg.Engine.DeferralDelayMs <= 0 {
		cfg.Engine.DeferralDelayMs = 150
	}
	if cfg.Engine.ReconnectMaxAttempts <= 0 {
		cfg.Engine.ReconnectMaxAttempts = 5
	}
	if cfg.Engine.ReconnectBackoffMs <= 0 {
		cfg.Engine.ReconnectBackoffMs = 1000
	}
	if cfg.Engine.PaymentPollIntervalMs <= 0 {
		cfg.Engine.PaymentPollIntervalMs = 2000
	}
	if cfg.Engine.PaymentPollMaxAttempts <= 0 {
		cfg.Engine.PaymentPollMaxAttempts = 30
	}

	if cfg.Stream.Enabled && len(cfg.Stream.Brokers) == 0 {
		log.Printf("stream.enabled is set but no brokers are configured; disabling stream")
		cfg.Stream.Enabled = false
	}
	if cfg.Stream.Topic == "" {
		cfg.Stream.Topic = "reservation-events"
	}

	return &cfg, nil
}
