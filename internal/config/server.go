package config

import (
	"fmt"
	"net"

	pkgconfig "github.com/zensushi/zen/pkg/config"
	"github.com/zensushi/zen/pkg/logger"
)

// Idempotency store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Server holds all configuration for the ordering server.
type Server struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort           int      `env:"HTTP_PORT" envDefault:"3000"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	MenuCacheMaxAge    int      `env:"MENU_CACHE_MAX_AGE_SECONDS" envDefault:"60"`

	// Idempotency
	IdempotencyBackend string `env:"IDEMPOTENCY_BACKEND" envDefault:"memory"`
	IdempotencyTTL     int    `env:"IDEMPOTENCY_TTL_MINUTES" envDefault:"1440"`
	IdempotencyMaxKeys int    `env:"IDEMPOTENCY_MAX_KEYS" envDefault:"10000"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled    bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers    []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaOrderTopic string   `env:"KAFKA_ORDER_TOPIC" envDefault:"zen.order.received"`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Debug
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
}

// LoadServer reads an optional .env file and then the environment.
func LoadServer() (*Server, error) {
	if err := pkgconfig.LoadDotenv(".env"); err != nil {
		return nil, err
	}
	cfg := &Server{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Server) validate() error {
	if err := logger.ValidFormat(c.LogFormat); err != nil {
		return err
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.IdempotencyBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("invalid idempotency backend %q (want %s or %s)",
			c.IdempotencyBackend, BackendMemory, BackendRedis)
	}
	if c.IdempotencyTTL < 1 {
		return fmt.Errorf("invalid idempotency TTL: %d minutes", c.IdempotencyTTL)
	}
	if c.IdempotencyMaxKeys < 1 {
		return fmt.Errorf("invalid idempotency max keys: %d", c.IdempotencyMaxKeys)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("kafka enabled without brokers")
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("invalid OTEL sample rate: %v", c.OTelSampleRate)
	}
	for _, cidr := range c.PprofAllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid pprof CIDR %q: %w", cidr, err)
		}
	}
	return nil
}
