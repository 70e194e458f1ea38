// Package config loads service configuration from an optional YAML file
// with environment variables taking precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the full service configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	GoogleAPIKey    string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`

	// RedisAddr empty means in-process queue and store: serve hosts its
	// own worker and task results do not survive a restart.
	RedisAddr string `yaml:"redis_addr"`

	// CatalogPath empty means the built-in model catalog.
	CatalogPath string `yaml:"catalog_path"`

	Temperature    float32  `yaml:"temperature"`
	AttemptTimeout Duration `yaml:"attempt_timeout"`
	CascadeTimeout Duration `yaml:"cascade_timeout"`
	TaskTTL        Duration `yaml:"task_ttl"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig gates admission per client IP with a fixed window,
// independent of the per-model quota logic.
type RateLimitConfig struct {
	Enabled     bool     `yaml:"enabled"`
	MaxRequests int      `yaml:"max_requests"`
	Window      Duration `yaml:"window"`

	// TrustProxyHeader identifies clients by X-Forwarded-For. Enable only
	// behind a reverse proxy that overwrites the header.
	TrustProxyHeader bool `yaml:"trust_proxy_header"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		Temperature:    0.1,
		AttemptTimeout: Duration(60 * time.Second),
		CascadeTimeout: Duration(5 * time.Minute),
		TaskTTL:        Duration(24 * time.Hour),
		RateLimit: RateLimitConfig{
			Enabled:     true,
			MaxRequests: 30,
			Window:      Duration(time.Hour),
		},
	}
}

// Load reads configuration from an optional YAML file and the environment.
// API keys are environment-only so they never land in config files.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")

	if v := os.Getenv("SVITLOGICS_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SVITLOGICS_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("SVITLOGICS_CATALOG_PATH"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("SVITLOGICS_RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SVITLOGICS_RATE_LIMIT_MAX: %w", err)
		}
		cfg.RateLimit.MaxRequests = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt_timeout must be positive")
	}
	if c.CascadeTimeout < c.AttemptTimeout {
		return fmt.Errorf("cascade_timeout must be at least attempt_timeout")
	}
	if c.RateLimit.Enabled && (c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit requires positive max_requests and window")
	}
	return nil
}
