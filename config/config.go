// Package config loads the server configuration from the environment.
// Every knob lives under the STOREFRONT_ prefix; main loads an optional
// .env file first, so local runs need no exported variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "storefront"

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `envconfig:"STOREFRONT_ADDR" default:":8080"`

	// LogLevel and LogConsole shape the zerolog output.
	LogLevel   string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogConsole bool   `envconfig:"STOREFRONT_LOG_CONSOLE" default:"false"`

	// Owner is the single privileged identity allowed to administer the
	// catalog.
	Owner string `envconfig:"STOREFRONT_OWNER" default:"owner"`

	// TickInterval is the wall-time length of one logical tick. Zero
	// disables automatic ticking; the clock then only moves through the
	// admin advance endpoint.
	TickInterval time.Duration `envconfig:"STOREFRONT_TICK_INTERVAL" default:"0s"`

	// CORSOrigins is the comma-separated allowed origin list.
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"*"`

	// Scenario names a demo dataset to load at startup. Empty starts the
	// engine empty.
	Scenario string `envconfig:"STOREFRONT_SCENARIO" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Owner == "" {
		return errors.New("config: owner identity must not be empty")
	}
	if c.TickInterval < 0 {
		return errors.New("config: tick interval must not be negative")
	}
	return nil
}
