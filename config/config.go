// api/config/config.go
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the collector and the tracking engine read from the environment.
type Config struct {
	Port           string `env:"PORT" envDefault:"8080"`
	GinMode        string `env:"GIN_MODE"`
	FrontendOrigin string `env:"FE_ORIGIN" envDefault:"http://localhost:3000"`

	JWTSecret     string `env:"JWT_SECRET_KEY"`
	APIKeyHash    string `env:"AUTH_DEFAULT_HASH"`
	IPHashSalt    string `env:"IP_HASH_SALT"`
	MaxTrackBatch int    `env:"TRACK_MAX_BATCH" envDefault:"500"`

	ClickHouse ClickHouseConfig `envPrefix:"CLICKHOUSE_"`
	Redis      RedisConfig      `envPrefix:"REDIS_"`
	Tracking   TrackingConfig
	Sink       SinkConfig `envPrefix:"TRACK_SINK_"`

	DatabaseURL string `env:"DATABASE_URL"`
}

type ClickHouseConfig struct {
	Host       string `env:"HOST"`
	NativePort int    `env:"NATIVE_PORT" envDefault:"9000"`
	Database   string `env:"DB_NAME"`
	Username   string `env:"USERNAME"`
	Password   string `env:"PASSWORD"`
}

type RedisConfig struct {
	Address  string        `env:"ADDR" envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD"`
	Database int           `env:"DB" envDefault:"0"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"2s"`
}

// TrackingConfig carries the session expiry policy.
type TrackingConfig struct {
	SessionLifespanHours float64 `env:"SESSION_LIFESPAN_HOURS" envDefault:"24"`
	SessionTimezone      string  `env:"SESSION_TIMEZONE" envDefault:"America/New_York"`
	StorageNamespace     string  `env:"TRACK_NAMESPACE" envDefault:"default"`
}

type SinkConfig struct {
	Endpoint      string        `env:"ENDPOINT" envDefault:"http://localhost:8080/api/track"`
	BufferSize    int           `env:"BUFFER" envDefault:"256"`
	BatchSize     int           `env:"BATCH" envDefault:"20"`
	FlushInterval time.Duration `env:"FLUSH_INTERVAL" envDefault:"2s"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Tracking.SessionLifespanHours <= 0 {
		return fmt.Errorf("SESSION_LIFESPAN_HOURS must be positive, got %v", c.Tracking.SessionLifespanHours)
	}
	if _, err := time.LoadLocation(c.Tracking.SessionTimezone); err != nil {
		return fmt.Errorf("invalid SESSION_TIMEZONE %q: %w", c.Tracking.SessionTimezone, err)
	}
	if c.MaxTrackBatch <= 0 {
		return fmt.Errorf("TRACK_MAX_BATCH must be positive, got %d", c.MaxTrackBatch)
	}
	if c.Sink.BufferSize <= 0 || c.Sink.BatchSize <= 0 {
		return fmt.Errorf("TRACK_SINK_BUFFER and TRACK_SINK_BATCH must be positive")
	}
	return nil
}
