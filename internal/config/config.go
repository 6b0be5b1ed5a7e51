package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// demoGameDuration replaces GameDuration when DemoMode is on.
const demoGameDuration = 90

// Config holds all configuration for the application
type Config struct {
	Host      string `env:"HOST" envDefault:"0.0.0.0"`
	Port      string `env:"PORT" envDefault:"8000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Reasoning ReasoningConfig `envPrefix:"REASONING_"`
	OTel      OTelConfig      `envPrefix:"OTEL_"`

	// SessionTTL applies to session state, timeline and previous-output records.
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	GameDuration int           `env:"GAME_DURATION_SECONDS" envDefault:"300"`
	DemoMode     bool          `env:"DEMO_MODE" envDefault:"false"`
	MockMode     bool          `env:"MOCK_MODE" envDefault:"false"`

	NextPromptDelay time.Duration `env:"NEXT_PROMPT_DELAY" envDefault:"1s"`
	GreetingDelay   time.Duration `env:"GREETING_DELAY" envDefault:"2s"`

	// AllowedOrigins restricts WebSocket origins; empty accepts any.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr        string        `env:"ADDR" envDefault:"localhost:6379"`
	Password    string        `env:"PASSWORD"`
	DB          int           `env:"DB" envDefault:"0"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"1s"`
	PoolSize    int           `env:"POOL_SIZE" envDefault:"20"`
}

// ReasoningConfig holds the reasoning collaborator endpoint
type ReasoningConfig struct {
	URL     string        `env:"URL" envDefault:"http://localhost:8001"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// OTelConfig controls trace export
type OTelConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Endpoint string `env:"ENDPOINT"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GameDuration <= 0 {
		return fmt.Errorf("invalid GAME_DURATION_SECONDS value: must be greater than 0")
	}
	if c.Reasoning.Timeout <= 0 {
		return fmt.Errorf("invalid REASONING_TIMEOUT value: must be greater than 0")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("invalid SESSION_TTL value: must not be negative")
	}
	return nil
}

// Address returns the full address (host:port)
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// EffectiveGameDuration returns the countdown length in seconds for new sessions.
func (c *Config) EffectiveGameDuration() int {
	if c.DemoMode {
		return demoGameDuration
	}
	return c.GameDuration
}
