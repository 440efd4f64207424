// Command udf evaluates the row-level functions from the shell.
//
// Each subcommand takes its inputs as arguments, or one per line on stdin
// when none are given, and prints one result per line. Absent values are
// printed as \N. Logs go to stderr so stdout stays machine-readable.
package main

import (
	"os"

	"github.com/evyataryagoni/udfkit/internal/config"
	"github.com/evyataryagoni/udfkit/internal/geoip"
	"github.com/evyataryagoni/udfkit/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	a := newApp(cfg, log, geoip.MaxMindOpener(cfg.GeoIPLanguage))
	defer a.close()

	if err := a.rootCmd().Execute(); err != nil {
		a.close()
		os.Exit(1)
	}
}
