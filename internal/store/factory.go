package store

import (
	"fmt"
	"strings"

	"github.com/evyataryagoni/udfkit/internal/logger"
)

// Config selects and configures a region table backend
type Config struct {
	Type string // "embedded", "csv", "mysql" or "redis"
	Path string // CSV file for "csv"; seed file for an empty Redis ("" seeds the built-in table)

	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New creates a RegionStore based on the configuration
func New(cfg Config, log *logger.Logger) (RegionStore, error) {
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("RegionStore")

	storeType := strings.ToLower(strings.TrimSpace(cfg.Type))

	switch storeType {
	case "embedded", "":
		s, err := NewEmbeddedStore()
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in regions: %w", err)
		}
		log.Info().Int("regions", s.Len()).Msg("Embedded region store initialized")
		return s, nil

	case "csv":
		s, err := NewCSVStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV store: %w", err)
		}
		log.Info().Str("path", cfg.Path).Int("regions", s.Len()).Msg("CSV region store initialized")
		return s, nil

	case "mysql":
		s, err := NewMySQLStore(cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create MySQL store: %w", err)
		}
		log.Info().Msg("MySQL region store initialized")
		return s, nil

	case "redis":
		s, err := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("Redis region store initialized")
		seedIfEmpty(s, cfg.Path, log)
		return s, nil

	default:
		return nil, fmt.Errorf("unknown region store type: %s (supported: 'embedded', 'csv', 'mysql', 'redis')", cfg.Type)
	}
}

// seedIfEmpty loads regions into an empty Redis. Failures only degrade
// REGION_NAME to the database's own names, so they are logged, not returned.
func seedIfEmpty(s *RedisStore, csvPath string, log *logger.Logger) {
	isEmpty, err := s.IsEmpty()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check if Redis is empty")
		return
	}
	if !isEmpty {
		return
	}

	count, err := s.LoadFromCSV(csvPath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to seed Redis with regions")
		return
	}
	log.Info().Int("regions", count).Msg("Redis was empty, seeded region table")
}
