package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	RoomsAPI  RoomsAPIConfig  `mapstructure:"rooms_api"`
	Mapbox    MapboxConfig    `mapstructure:"mapbox"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Twilio    TwilioConfig    `mapstructure:"twilio"`
	Viewport  ViewportConfig  `mapstructure:"viewport"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	CORSOrigins  string `mapstructure:"cors_origins"`
}

// RoomsAPIConfig points at the upstream rooms REST API.
type RoomsAPIConfig struct {
	BaseURL    string  `mapstructure:"base_url"`
	Timeout    int     `mapstructure:"timeout"`
	RateLimit  float64 `mapstructure:"rate_limit"`
	Burst      int     `mapstructure:"burst"`
	MaxRetries int     `mapstructure:"max_retries"`
}

type MapboxConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

// Enabled reports whether SMS notifications can be sent.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// ViewportConfig tunes the radius controller of map sessions.
type ViewportConfig struct {
	DebounceMS int     `mapstructure:"debounce_ms"`
	Threshold  float64 `mapstructure:"threshold"`
}

func (v ViewportConfig) Debounce() time.Duration {
	return time.Duration(v.DebounceMS) * time.Millisecond
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ROOMRADAR_MAPBOX_TOKEN → mapbox.token
	v.SetEnvPrefix("ROOMRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("rooms_api.base_url", "http://localhost:3000")
	v.SetDefault("rooms_api.timeout", 10)
	v.SetDefault("rooms_api.rate_limit", 20)
	v.SetDefault("rooms_api.burst", 5)
	v.SetDefault("rooms_api.max_retries", 3)
	v.SetDefault("mapbox.token", "")
	v.SetDefault("mapbox.base_url", "https://api.mapbox.com")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "viewings")
	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.from_number", "")
	v.SetDefault("viewport.debounce_ms", 800)
	v.SetDefault("viewport.threshold", 0.10)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.RoomsAPI.BaseURL == "" {
		errs = append(errs, "rooms_api.base_url is required")
	}
	if c.RoomsAPI.Timeout <= 0 {
		errs = append(errs, "rooms_api.timeout must be positive")
	}
	if c.RoomsAPI.RateLimit <= 0 {
		errs = append(errs, "rooms_api.rate_limit must be positive")
	}
	if c.RoomsAPI.MaxRetries < 0 {
		errs = append(errs, "rooms_api.max_retries must not be negative")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if c.Viewport.DebounceMS <= 0 {
		errs = append(errs, fmt.Sprintf("viewport.debounce_ms must be positive, got %d", c.Viewport.DebounceMS))
	}
	if c.Viewport.Threshold <= 0 || c.Viewport.Threshold >= 1 {
		errs = append(errs, fmt.Sprintf("viewport.threshold must be in (0, 1), got %g", c.Viewport.Threshold))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
