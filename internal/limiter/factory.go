package limiter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Config holds configuration for creating a rate limiter
type Config struct {
	Type   string        // "memory" or "redis"
	Limit  int           // requests allowed per Window
	Window time.Duration // e.g. 10 requests per 5 seconds

	// Redis-specific config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// RequestsPerSecond returns the average rate the configuration allows
func (c Config) RequestsPerSecond() float64 {
	if c.Window <= 0 {
		return float64(c.Limit)
	}
	return float64(c.Limit) / c.Window.Seconds()
}

// New creates a rate limiter based on the configuration
func New(cfg Config, log *logger.Logger) (Limiter, error) {
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", cfg.Limit)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "memory", "":
		// bursts of up to one full window
		return NewMemoryLimiter(cfg.RequestsPerSecond(), cfg.Limit), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
		}
		return NewRedisLimiter(client, cfg.Limit, cfg.Window, log), nil

	default:
		return nil, fmt.Errorf("unknown rate limiter type: %s (supported: 'memory', 'redis')", cfg.Type)
	}
}
