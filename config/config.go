// Package config loads server configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the serve adapter's settings.
type Config struct {
	Host     string `env:"AUDRA_HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"AUDRA_PORT" envDefault:"8080"`
	Env      string `env:"AUDRA_ENV" envDefault:"development"`
	RootPath string `env:"AUDRA_ROOT_PATH" envDefault:""`

	ReadTimeout     time.Duration `env:"AUDRA_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"AUDRA_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"AUDRA_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// BodyChunkSize is the size of request-body chunks delivered on the
	// channel.
	BodyChunkSize int `env:"AUDRA_BODY_CHUNK_SIZE" envDefault:"65536"`

	// EnableH2C serves HTTP/2 over cleartext alongside HTTP/1.1.
	EnableH2C bool `env:"AUDRA_ENABLE_H2C" envDefault:"false"`

	// ReusePort sets SO_REUSEPORT on the listener where the platform
	// supports it.
	ReusePort bool `env:"AUDRA_REUSE_PORT" envDefault:"false"`

	LogLevel  string `env:"AUDRA_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"AUDRA_LOG_FORMAT" envDefault:"text"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load, panicking on failure. Misconfiguration should prevent
// startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
