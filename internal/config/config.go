package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Logging
	LogLevel  string
	LogPretty bool

	// Rate limiting
	RateLimitType   string // "memory" or "redis"
	RateLimit       int    // number of requests allowed per window
	RateLimitWindow int    // window length in seconds

	// Region name table backing the REGION_NAME attribute
	RegionStoreType string // "embedded", "csv", "mysql" or "redis"
	RegionStorePath string // CSV file for "csv"; seed file for an empty Redis

	// MySQL configuration
	MySQLDSN string

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// GeoIP
	GeoIPLanguage string // preferred language for MMDB names
	GeoIPDir      string // the HTTP API only serves databases inside this directory
	GeoIPDatabase string // database used when a caller names none, relative to GeoIPDir

	// DotEnvLoaded reports whether a .env file was found
	DotEnvLoaded bool
}

// Load reads configuration from a .env file (if present) and environment
// variables, with defaults for everything
func Load() *Config {
	// In production the environment is set directly; .env is for local runs
	dotEnvErr := godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "3000"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),

		// Default: memory, 100 requests per second
		RateLimitType:   getEnv("RATE_LIMITER_TYPE", "memory"),
		RateLimit:       getEnvAsInt("RATE_LIMIT", 100),
		RateLimitWindow: getEnvAsInt("RATE_LIMIT_WINDOW", 1),

		RegionStoreType: getEnv("REGION_STORE_TYPE", "embedded"),
		RegionStorePath: getEnv("REGION_STORE_PATH", ""),

		MySQLDSN: getEnv("MYSQL_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		GeoIPLanguage: getEnv("GEOIP_LANGUAGE", "en"),
		GeoIPDir:      getEnv("GEOIP_DIR", "./geoip"),
		GeoIPDatabase: getEnv("GEOIP_DATABASE", ""),

		DotEnvLoaded: dotEnvErr == nil,
	}
}

// Window returns the rate limit window as a duration
func (c *Config) Window() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Second
}

// GeoIPDatabasePath returns the default database as a file path.
// A relative GEOIP_DATABASE is taken to be inside GEOIP_DIR.
func (c *Config) GeoIPDatabasePath() string {
	if c.GeoIPDatabase == "" || c.GeoIPDir == "" || filepath.IsAbs(c.GeoIPDatabase) {
		return c.GeoIPDatabase
	}
	return filepath.Join(c.GeoIPDir, c.GeoIPDatabase)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment variable as an integer.
// Returns default if not set or invalid
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as a boolean
// ("1", "true", "false", ...). Returns default if not set or invalid
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}

	return value
}
