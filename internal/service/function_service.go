package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/evyataryagoni/udfkit/internal/geoip"
	"github.com/evyataryagoni/udfkit/internal/ipaddr"
	"github.com/evyataryagoni/udfkit/internal/keyword"
	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/evyataryagoni/udfkit/internal/metrics"
	"github.com/evyataryagoni/udfkit/internal/models"
	"github.com/evyataryagoni/udfkit/internal/textcase"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput marks caller errors (bad arguments)
var ErrInvalidInput = errors.New("invalid input")

// Function names used in logs and metrics
const (
	FuncIPToLong      = "ip_to_long"
	FuncLongToIP      = "long_to_ip"
	FuncSearchKeyword = "search_keyword"
	FuncGeoIP         = "geoip"
	FuncUCWords       = "ucwords"
)

// FunctionService evaluates the row-level functions.
// It sits between the callers (HTTP handlers, CLI) and the core packages:
// it validates arguments, applies defaults, and records logs and metrics.
// It holds no per-call state and is safe for concurrent use.
type FunctionService struct {
	resolver        *geoip.Resolver
	extractor       *keyword.Extractor
	defaultDatabase string
	databaseDir     string
	validator       *validator.Validate
	metrics         *metrics.Metrics
	logger          *logger.Logger
}

// Options configures a FunctionService
type Options struct {
	// DefaultDatabase is used by GeoIP when the caller passes no database
	DefaultDatabase string
	// DatabaseDir, when set, confines GeoIP to files inside it: callers
	// pass a name relative to the directory and anything absolute or
	// leaving it is rejected. Empty means callers pass paths directly.
	DatabaseDir string
	// Rules overrides keyword.DefaultRules
	Rules []keyword.Rule
}

// NewFunctionService creates a new function service.
// resolver may be nil when GeoIP is not offered; m and log may be nil.
func NewFunctionService(resolver *geoip.Resolver, opts Options, m *metrics.Metrics, log *logger.Logger) *FunctionService {
	if log == nil {
		log = logger.NewDefault()
	}
	rules := opts.Rules
	if rules == nil {
		rules = keyword.DefaultRules
	}
	return &FunctionService{
		resolver:        resolver,
		extractor:       keyword.NewExtractor(rules),
		defaultDatabase: opts.DefaultDatabase,
		databaseDir:     opts.DatabaseDir,
		validator:       validator.New(),
		metrics:         m,
		logger:          log.WithComponent("FunctionService"),
	}
}

// IPToLong converts dotted-quad text to its integer value
func (s *FunctionService) IPToLong(ip string) (int64, error) {
	start := time.Now()

	if err := s.validator.Var(ip, "required"); err != nil {
		s.observe(FuncIPToLong, start, "invalid")
		return 0, fmt.Errorf("%w: missing IP address", ErrInvalidInput)
	}

	n, err := ipaddr.Encode(ip)
	if err != nil {
		s.logger.WithFunction(FuncIPToLong).Debug().Str("ip", ip).Msg("Invalid IP address format")
		s.observe(FuncIPToLong, start, "invalid")
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.observe(FuncIPToLong, start, "found")
	return int64(n), nil
}

// LongToIP converts an integer in [0, 2^32) to dotted-quad text
func (s *FunctionService) LongToIP(n int64) (string, error) {
	start := time.Now()

	if err := s.validator.Struct(models.LongToIPRequest{IP: n}); err != nil {
		s.logger.WithFunction(FuncLongToIP).Debug().Int64("ip", n).Msg("IP integer out of range")
		s.observe(FuncLongToIP, start, "invalid")
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, ipaddr.ErrOutOfRange)
	}

	text, err := ipaddr.Decode(n)
	if err != nil {
		s.observe(FuncLongToIP, start, "invalid")
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	s.observe(FuncLongToIP, start, "found")
	return text, nil
}

// SearchKeyword extracts the search term from a search-engine referrer URL.
// Any malformed or unrecognized referrer yields no keyword; it never fails.
func (s *FunctionService) SearchKeyword(referrer string) (string, bool) {
	start := time.Now()

	kw, ok := s.extractor.Extract(referrer)
	if !ok {
		s.observe(FuncSearchKeyword, start, "not_found")
		return "", false
	}

	s.observe(FuncSearchKeyword, start, "found")
	return kw, true
}

// GeoIP resolves one attribute of an address against a GeoIP database.
//
// Errors are limited to invalid arguments and databases that are missing
// or cannot be opened; every per-address outcome is in the Result.
func (s *FunctionService) GeoIP(ip int64, attribute, database string) (geoip.Result, error) {
	start := time.Now()

	if s.resolver == nil {
		s.observe(FuncGeoIP, start, "error")
		return geoip.Result{}, errors.New("geoip is not configured")
	}

	if database == "" {
		database = s.defaultDatabase
	}

	req := models.GeoIPRequest{IP: ip, Attribute: attribute, Database: database}
	if err := s.validator.Struct(req); err != nil {
		s.logger.WithFunction(FuncGeoIP).Debug().Err(err).Msg("Invalid geoip arguments")
		s.observe(FuncGeoIP, start, "invalid")
		return geoip.Result{}, fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	path, err := s.databasePath(req.Database)
	if err != nil {
		s.logger.WithFunction(FuncGeoIP).Warn().Str("database", req.Database).Msg("Rejected database outside the GeoIP directory")
		s.observe(FuncGeoIP, start, "invalid")
		return geoip.Result{}, err
	}

	res, err := s.resolver.ResolveName(req.IP, req.Attribute, path)
	if err != nil {
		s.logger.WithFunction(FuncGeoIP).Error().Err(err).Str("database", path).Msg("GeoIP database unavailable")
		s.observe(FuncGeoIP, start, "error")
		return geoip.Result{}, err
	}

	s.observe(FuncGeoIP, start, res.Status.String())
	return res, nil
}

// databasePath maps a caller's database argument to a file path
func (s *FunctionService) databasePath(database string) (string, error) {
	if s.databaseDir == "" {
		return database, nil
	}
	if !filepath.IsLocal(database) {
		return "", fmt.Errorf("%w: database %q must be a file name inside the GeoIP directory", ErrInvalidInput, database)
	}
	return filepath.Join(s.databaseDir, database), nil
}

// UCWords upper-cases the first letter of every whitespace-separated word
func (s *FunctionService) UCWords(text string) string {
	start := time.Now()
	out := textcase.Capitalize(text)
	s.observe(FuncUCWords, start, "found")
	return out
}

// observe records one evaluation
func (s *FunctionService) observe(function string, start time.Time, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.FunctionCallsTotal.WithLabelValues(function, result).Inc()
	s.metrics.FunctionDuration.WithLabelValues(function).Observe(time.Since(start).Seconds())
}

// describe turns validator errors into a short message naming the bad fields
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("missing %s", fe.Field())
	default:
		return fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag())
	}
}
