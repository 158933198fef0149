package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the order service configuration, read from the environment.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	DBPath          string        `env:"DB_PATH" envDefault:"./data/orders.db"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	JWT    JWTConfig
	Orders OrdersConfig
	OTel   OTelConfig
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"24h"`
}

type OrdersConfig struct {
	// DecrementStock subtracts item quantities from product stock on create.
	DecrementStock    bool `env:"ORDERS_DECREMENT_STOCK" envDefault:"false"`
	LowStockThreshold int  `env:"LOW_STOCK_THRESHOLD" envDefault:"10"`
}

type OTelConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"order-service"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Environment string `env:"OTEL_RESOURCE_ATTRIBUTES_ENV" envDefault:"local"`
}

// Load parses Config from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Orders.LowStockThreshold < 0 {
		return Config{}, fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative, got %d", cfg.Orders.LowStockThreshold)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
