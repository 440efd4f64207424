package main

import (
	"os"

	"github.com/evyataryagoni/udfkit/internal/config"
	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/evyataryagoni/udfkit/internal/store"
	"github.com/spf13/cobra"
)

// Command load-redis copies a region name table into Redis.
//
// Usage: go run ./cmd/load-redis [--csv regions.csv]
func main() {
	appConfig := config.Load()
	log := logger.New(logger.Config{Level: appConfig.LogLevel, Pretty: true}).WithComponent("LoadRedis")

	var csvPath string

	cmd := &cobra.Command{
		Use:          "load-redis",
		Short:        "Load the region name table into Redis",
		Long:         "Load the region name table into Redis.\n\nWithout --csv the built-in table is loaded.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().Str("addr", appConfig.RedisAddr).Msg("Connecting to Redis")
			redisStore, err := store.NewRedisStore(appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB)
			if err != nil {
				return err
			}
			defer redisStore.Close()

			source := csvPath
			if source == "" {
				source = "built-in table"
			}
			log.Info().Str("source", source).Msg("Loading regions")

			count, err := redisStore.LoadFromCSV(csvPath)
			if err != nil {
				return err
			}

			log.Info().Int("regions", count).Msg("Regions loaded, start the server with REGION_STORE_TYPE=redis")
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", appConfig.RegionStorePath, "region CSV file (country_code,region_code,name), default $REGION_STORE_PATH")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
