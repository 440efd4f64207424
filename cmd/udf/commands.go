package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/evyataryagoni/udfkit/internal/config"
	"github.com/evyataryagoni/udfkit/internal/geoip"
	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/evyataryagoni/udfkit/internal/service"
	"github.com/evyataryagoni/udfkit/internal/store"
	"github.com/spf13/cobra"
)

// null is printed for absent values
const null = `\N`

// app holds what the subcommands share. The region store is only opened
// by the geoip command.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	opener geoip.Opener

	svc     *service.FunctionService
	regions store.RegionStore
}

func newApp(cfg *config.Config, log *logger.Logger, opener geoip.Opener) *app {
	return &app{cfg: cfg, log: log.WithComponent("CLI"), opener: opener}
}

func (a *app) close() {
	if a.regions != nil {
		a.regions.Close()
		a.regions = nil
	}
}

// service returns the function service, with GeoIP wired when withGeo is set
func (a *app) service(withGeo bool) (*service.FunctionService, error) {
	opts := service.Options{DefaultDatabase: a.cfg.GeoIPDatabasePath()}
	if !withGeo {
		return service.NewFunctionService(nil, opts, nil, a.log), nil
	}
	if a.svc != nil {
		return a.svc, nil
	}

	regions, err := store.New(store.Config{
		Type:          a.cfg.RegionStoreType,
		Path:          a.cfg.RegionStorePath,
		MySQLDSN:      a.cfg.MySQLDSN,
		RedisAddr:     a.cfg.RedisAddr,
		RedisPassword: a.cfg.RedisPassword,
		RedisDB:       a.cfg.RedisDB,
	}, a.log)
	if err != nil {
		return nil, err
	}
	a.regions = regions

	resolver := geoip.NewResolver(geoip.NewCache(a.opener, a.log, nil), regions, a.log, nil)
	a.svc = service.NewFunctionService(resolver, opts, nil, a.log)
	return a.svc, nil
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "udf",
		Short:        "Evaluate row-level data functions",
		SilenceUsage: true,
	}

	root.AddCommand(
		a.ipToLongCmd(),
		a.longToIPCmd(),
		a.searchKeywordCmd(),
		a.geoIPCmd(),
		a.ucwordsCmd(),
	)
	return root
}

func (a *app) ipToLongCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ip-to-long [ip...]",
		Short: "Convert dotted-quad IPv4 addresses to integers",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(false)
			if err != nil {
				return err
			}
			return eachInput(cmd, args, func(in string) (string, error) {
				n, err := svc.IPToLong(in)
				if err != nil {
					a.log.Warn().Err(err).Str("ip", in).Msg("Skipping invalid address")
					return null, nil
				}
				return strconv.FormatInt(n, 10), nil
			})
		},
	}
}

func (a *app) longToIPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "long-to-ip [n...]",
		Short: "Convert integers to dotted-quad IPv4 addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(false)
			if err != nil {
				return err
			}
			return eachInput(cmd, args, func(in string) (string, error) {
				n, err := strconv.ParseInt(in, 10, 64)
				if err != nil {
					a.log.Warn().Str("input", in).Msg("Skipping non-integer input")
					return null, nil
				}
				text, err := svc.LongToIP(n)
				if err != nil {
					a.log.Warn().Err(err).Int64("ip", n).Msg("Skipping out of range address")
					return null, nil
				}
				return text, nil
			})
		},
	}
}

func (a *app) searchKeywordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search-keyword [referrer...]",
		Short: "Extract search keywords from search-engine referrer URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(false)
			if err != nil {
				return err
			}
			return eachInput(cmd, args, func(in string) (string, error) {
				if kw, ok := svc.SearchKeyword(in); ok {
					return kw, nil
				}
				return null, nil
			})
		},
	}
}

func (a *app) geoIPCmd() *cobra.Command {
	var attribute, database string

	cmd := &cobra.Command{
		Use:   "geoip --attribute NAME [ip...]",
		Short: "Look up a GeoIP attribute for integer IPv4 addresses",
		Long: "Look up a GeoIP attribute for integer IPv4 addresses.\n\nAttributes: " +
			strings.Join(attributeNames(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(true)
			if err != nil {
				return err
			}
			return eachInput(cmd, args, func(in string) (string, error) {
				n, err := strconv.ParseInt(in, 10, 64)
				if err != nil {
					a.log.Warn().Str("input", in).Msg("Skipping non-integer input")
					return null, nil
				}
				res, err := svc.GeoIP(n, attribute, database)
				if err != nil {
					// missing or unreadable database: every remaining row would fail too
					return "", err
				}
				if !res.OK() {
					return null, nil
				}
				return res.Value, nil
			})
		},
	}

	cmd.Flags().StringVarP(&attribute, "attribute", "a", "", "attribute to return (e.g. COUNTRY_NAME)")
	cmd.Flags().StringVarP(&database, "database", "d", a.cfg.GeoIPDatabasePath(), "MMDB file path (default $GEOIP_DIR/$GEOIP_DATABASE)")
	cmd.MarkFlagRequired("attribute")
	return cmd
}

func (a *app) ucwordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ucwords [text...]",
		Short: "Upper-case the first letter of every word",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(false)
			if err != nil {
				return err
			}
			return eachInput(cmd, args, func(in string) (string, error) {
				return svc.UCWords(in), nil
			})
		},
	}
}

// eachInput applies fn to every argument, or to every stdin line when there
// are no arguments, printing one result per line
func eachInput(cmd *cobra.Command, args []string, fn func(string) (string, error)) error {
	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	emit := func(in string) error {
		result, err := fn(in)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, result)
		return err
	}

	if len(args) > 0 {
		for _, arg := range args {
			if err := emit(arg); err != nil {
				return err
			}
		}
		return nil
	}

	return eachLine(cmd.InOrStdin(), emit)
}

func eachLine(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := fn(strings.TrimRight(scanner.Text(), "\r")); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func attributeNames() []string {
	attrs := geoip.Attributes()
	names := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		names = append(names, attr.String())
	}
	return names
}
