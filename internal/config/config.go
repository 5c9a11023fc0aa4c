// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; required by server, worker, migrate, and seed.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the Redis connection URL (e.g. redis://localhost:6379/0).
	// When empty, the server falls back to an in-process queue and counter cache
	// and runs the stream processor inline (dev mode). Required by the worker.
	RedisURL string `mapstructure:"REDIS_URL"`

	// QueueKey is the Redis list key holding pending ingest events.
	QueueKey string `mapstructure:"QUEUE_KEY"`
	// QueueMaxDepth caps the queue length; pushes beyond it fail fast (503 to the sensor).
	QueueMaxDepth int `mapstructure:"QUEUE_MAX_DEPTH"`
	// EnqueueTimeout bounds a single queue push (e.g. "2s") so a stalled queue
	// cannot hang request handling.
	EnqueueTimeout string `mapstructure:"ENQUEUE_TIMEOUT"`

	// AlertThreshold is the per-zone event count that triggers an alert.
	AlertThreshold int `mapstructure:"ALERT_THRESHOLD"`
	// AlertWindow is the rolling counter TTL (e.g. "5s"). Each event re-arms it.
	AlertWindow string `mapstructure:"ALERT_WINDOW"`
	// AlertCooldown is the per-zone suppression interval after an alert (e.g. "60s").
	AlertCooldown string `mapstructure:"ALERT_COOLDOWN"`
	// AlertScaleFactor divides the counter value to produce alert severity.
	AlertScaleFactor float64 `mapstructure:"ALERT_SCALE_FACTOR"`

	// IngestMaxDrift is the max allowed |server time - device timestamp| (e.g. "5m").
	// "0" disables the freshness check.
	IngestMaxDrift string `mapstructure:"INGEST_MAX_DRIFT"`
	// VerifyWorkers is the signature-verification pool size; 0 means GOMAXPROCS.
	VerifyWorkers int `mapstructure:"VERIFY_WORKERS"`
	// VerifyQueueSize is the verification pool's pending-task capacity.
	VerifyQueueSize int `mapstructure:"VERIFY_QUEUE_SIZE"`

	// AlertsKafkaBrokers is a comma-separated list of Kafka broker addresses.
	// When set, created alerts are published to AlertsKafkaTopic (best effort).
	AlertsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AlertsKafkaTopic is the Kafka topic for alert notifications.
	AlertsKafkaTopic string `mapstructure:"ALERTS_KAFKA_TOPIC"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("QUEUE_KEY", "seismic_events")
	v.SetDefault("QUEUE_MAX_DEPTH", 10000)
	v.SetDefault("ENQUEUE_TIMEOUT", "2s")
	v.SetDefault("ALERT_THRESHOLD", 10)
	v.SetDefault("ALERT_WINDOW", "5s")
	v.SetDefault("ALERT_COOLDOWN", "60s")
	v.SetDefault("ALERT_SCALE_FACTOR", 10.0)
	v.SetDefault("INGEST_MAX_DRIFT", "5m")
	v.SetDefault("VERIFY_WORKERS", 0)
	v.SetDefault("VERIFY_QUEUE_SIZE", 256)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ALERTS_KAFKA_TOPIC", "quakeguard-alerts")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.QueueKey == "" {
		return nil, errors.New("config: QUEUE_KEY must be set")
	}
	if cfg.QueueMaxDepth <= 0 {
		return nil, errors.New("config: QUEUE_MAX_DEPTH must be positive")
	}
	if cfg.AlertThreshold <= 0 {
		return nil, errors.New("config: ALERT_THRESHOLD must be positive")
	}
	if cfg.AlertScaleFactor <= 0 {
		return nil, errors.New("config: ALERT_SCALE_FACTOR must be positive")
	}
	if cfg.VerifyQueueSize <= 0 {
		return nil, errors.New("config: VERIFY_QUEUE_SIZE must be positive")
	}

	return &cfg, nil
}

// Window parses AlertWindow as a time.Duration. Returns 5s if unset or invalid.
func (c *Config) Window() time.Duration {
	d, err := time.ParseDuration(c.AlertWindow)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// Cooldown parses AlertCooldown as a time.Duration. Returns 60s if unset or invalid.
func (c *Config) Cooldown() time.Duration {
	d, err := time.ParseDuration(c.AlertCooldown)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// MaxDrift parses IngestMaxDrift as a time.Duration. Returns 0 (check disabled)
// when unset or invalid; values <= 0 disable the check.
func (c *Config) MaxDrift() time.Duration {
	d, err := time.ParseDuration(c.IngestMaxDrift)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// PushTimeout parses EnqueueTimeout as a time.Duration. Returns 2s if unset or invalid.
func (c *Config) PushTimeout() time.Duration {
	d, err := time.ParseDuration(c.EnqueueTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if alert notifications are enabled (non-empty list) and to create the publisher.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.AlertsKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.AlertsKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
