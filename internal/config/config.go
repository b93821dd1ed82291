package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Kafka    KafkaConfig
	Payment  PaymentConfig
	Stories  StoriesConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	PostgresDSN string
}

type RedisConfig struct {
	Addr string
}

// LedgerConfig selects the ticket counter backend: "postgres" (bun) or
// "redis" (native INCR).
type LedgerConfig struct {
	Backend string
}

type KafkaConfig struct {
	Brokers  []string
	Enabled  bool
	MockMode bool
}

// PaymentConfig tunes the payment simulation boundary.
type PaymentConfig struct {
	Delay          time.Duration
	DeclinePercent int
}

// StoriesConfig points at the document store the story endpoints
// forward to. Empty upstream disables the proxy.
type StoriesConfig struct {
	UpstreamURL string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":5000"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			PostgresDSN: getEnv("POSTGRES_DSN", ""),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Ledger: LedgerConfig{
			Backend: getEnv("LEDGER_BACKEND", "postgres"),
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Enabled:  getEnvBool("KAFKA_ENABLED", false),
			MockMode: getEnvBool("KAFKA_MOCK_MODE", false),
		},
		Payment: PaymentConfig{
			Delay:          time.Duration(getEnvInt("PAYMENT_DELAY_MS", 1500)) * time.Millisecond,
			DeclinePercent: getEnvInt("PAYMENT_DECLINE_PERCENT", 0),
		},
		Stories: StoriesConfig{
			UpstreamURL: getEnv("STORIES_UPSTREAM_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
