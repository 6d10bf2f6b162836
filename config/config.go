package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"go-asyncops/logger"
)

// Config holds all application configuration.
type Config struct {
	ServerAddr string

	// DatabaseURL selects the Postgres store; empty means in-memory.
	DatabaseURL string

	// RedisAddr selects the Redis-backed bus; empty means in-process.
	RedisAddr string

	// WebhookURL is the external sink; empty disables the delivery worker.
	WebhookURL string

	// OperationDelay is how long a deferred creation takes.
	OperationDelay time.Duration

	// BusBuffer is the per-subscriber queue size.
	BusBuffer int
}

func Default() Config {
	return Config{
		ServerAddr:     ":8080",
		OperationDelay: 15 * time.Second,
		BusBuffer:      64,
	}
}

// Load reads a .env file if present, then the environment, on top of
// the defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded: %v", err)
	}

	cfg := Default()

	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.ServerAddr = addr
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")

	if delay := os.Getenv("OPERATION_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d > 0 {
			cfg.OperationDelay = d
		}
	}

	if buf := os.Getenv("BUS_BUFFER"); buf != "" {
		if n, err := strconv.Atoi(buf); err == nil && n > 0 {
			cfg.BusBuffer = n
		}
	}

	return cfg
}
