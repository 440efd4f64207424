package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/udfkit/internal/config"
	"github.com/evyataryagoni/udfkit/internal/geoip"
	"github.com/evyataryagoni/udfkit/internal/handler"
	"github.com/evyataryagoni/udfkit/internal/limiter"
	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/evyataryagoni/udfkit/internal/metrics"
	"github.com/evyataryagoni/udfkit/internal/router"
	"github.com/evyataryagoni/udfkit/internal/service"
	"github.com/evyataryagoni/udfkit/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Command server exposes the row-level functions over HTTP for batch
// workers that cannot link Go code.
func main() {
	appConfig := config.Load()

	appLogger := setupLogger(appConfig)
	metricsCollector := setupMetrics(appLogger)

	regionStore := setupRegionStore(appConfig, appLogger)
	defer regionStore.Close()

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	// Databases are opened on first use and stay open for the process lifetime
	cache := geoip.NewCache(geoip.MaxMindOpener(appConfig.GeoIPLanguage), appLogger, metricsCollector)
	resolver := geoip.NewResolver(cache, regionStore, appLogger, metricsCollector)

	// Network callers may only name databases inside GEOIP_DIR
	functionService := service.NewFunctionService(resolver, service.Options{
		DefaultDatabase: appConfig.GeoIPDatabase,
		DatabaseDir:     appConfig.GeoIPDir,
	}, metricsCollector, appLogger)

	functionHandler := handler.NewFunctionHandler(functionService)
	appRouter := router.SetupRouter(functionHandler, rateLimiter, metricsCollector, nil, appLogger)

	startServer(appConfig, appRouter, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	})

	if !appConfig.DotEnvLoaded {
		appLogger.Debug().Msg("No .env file found, using environment variables or defaults")
	}

	appLogger.Info().Msg("Starting UDF server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Str("region_store_type", appConfig.RegionStoreType).
		Str("region_store_path", appConfig.RegionStorePath).
		Str("geoip_language", appConfig.GeoIPLanguage).
		Str("geoip_dir", appConfig.GeoIPDir).
		Str("geoip_database", appConfig.GeoIPDatabase).
		Msg("Configuration loaded")

	return appLogger
}

// setupRegionStore initializes the region name table
func setupRegionStore(appConfig *config.Config, log *logger.Logger) store.RegionStore {
	regionStore, err := store.New(store.Config{
		Type:          appConfig.RegionStoreType,
		Path:          appConfig.RegionStorePath,
		MySQLDSN:      appConfig.MySQLDSN,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize region store")
	}
	return regionStore
}

// setupRateLimiter initializes the rate limiter (in-memory or Redis)
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	limiterConfig := limiter.Config{
		Type:          appConfig.RateLimitType,
		Limit:         appConfig.RateLimit,
		Window:        appConfig.Window(),
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	}

	rateLimiter, err := limiter.New(limiterConfig, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	log.Info().
		Str("type", appConfig.RateLimitType).
		Float64("requests_per_second", limiterConfig.RequestsPerSecond()).
		Msg("Rate limiter initialized")

	return rateLimiter
}

// setupMetrics registers the Prometheus collectors on the default registry
func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New(prometheus.DefaultRegisterer)
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// startServer runs the HTTP server until SIGINT or SIGTERM
func startServer(appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("port", appConfig.Port).
		Str("api_endpoint", "http://localhost:"+appConfig.Port+"/v1/").
		Str("health_check", "http://localhost:"+appConfig.Port+"/health").
		Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
		Msg("Server is running")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}
