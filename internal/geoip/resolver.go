package geoip

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/evyataryagoni/udfkit/internal/ipaddr"
	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/evyataryagoni/udfkit/internal/metrics"
)

// Status explains why a Result does or does not carry a value
type Status int

const (
	// StatusFound means Value holds the attribute
	StatusFound Status = iota
	// StatusNoData means the database has no value for this address/attribute
	StatusNoData
	// StatusLookupFailed means the database failed for this address
	StatusLookupFailed
	// StatusUnknownAttribute means the attribute name is not recognized
	StatusUnknownAttribute
	// StatusInvalidAddress means the integer does not fit an IPv4 address
	StatusInvalidAddress
)

var statusNames = [...]string{
	StatusFound:            "found",
	StatusNoData:           "no_data",
	StatusLookupFailed:     "lookup_failed",
	StatusUnknownAttribute: "unknown_attribute",
	StatusInvalidAddress:   "invalid_address",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Result is the outcome of one attribute lookup
type Result struct {
	Value  string
	Status Status
}

// OK reports whether the result carries a value
func (r Result) OK() bool {
	return r.Status == StatusFound
}

// RegionNames maps a country code and region code to a region's full name
type RegionNames interface {
	RegionName(countryCode, regionCode string) (string, error)
}

var errUnknownAttribute = errors.New("unknown attribute")

// Resolver answers attribute lookups against cached databases
type Resolver struct {
	cache   *Cache
	regions RegionNames
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewResolver creates a resolver. regions and m may be nil; without a
// region table REGION_NAME uses the name stored in the database.
func NewResolver(cache *Cache, regions RegionNames, log *logger.Logger, m *metrics.Metrics) *Resolver {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Resolver{
		cache:   cache,
		regions: regions,
		logger:  log.WithComponent("GeoIPResolver"),
		metrics: m,
	}
}

// ResolveName resolves an attribute given by name (e.g. "COUNTRY_NAME")
func (r *Resolver) ResolveName(ip int64, name, databasePath string) (Result, error) {
	attr, ok := ParseAttribute(name)
	if !ok {
		// The database is still opened so a missing file is reported
		// regardless of the attribute
		if _, err := r.cache.Get(databasePath); err != nil {
			return Result{}, err
		}
		r.logger.Debug().Str("attribute", name).Msg("Unknown GeoIP attribute")
		return r.done(attr, Result{Status: StatusUnknownAttribute}), nil
	}
	return r.Resolve(ip, attr, databasePath)
}

// Resolve looks up one attribute of ip in the database at databasePath.
//
// The only errors returned wrap ErrDatabaseNotFound or ErrDatabaseOpen.
// Everything else, including failures of the database for this address,
// is reported through Result.Status with no value.
func (r *Resolver) Resolve(ip int64, attr Attribute, databasePath string) (Result, error) {
	db, err := r.cache.Get(databasePath)
	if err != nil {
		return Result{}, err
	}

	addr, err := ipaddr.ToUint32(ip)
	if err != nil {
		return r.done(attr, Result{Status: StatusInvalidAddress}), nil
	}

	value, err := r.lookup(db, addr, attr)
	switch {
	case errors.Is(err, errUnknownAttribute):
		return r.done(attr, Result{Status: StatusUnknownAttribute}), nil
	case errors.Is(err, ErrNoData):
		return r.done(attr, Result{Status: StatusNoData}), nil
	case err != nil:
		r.logger.Warn().
			Err(err).
			Str("ip", ipaddr.FromUint32(addr)).
			Str("attribute", attr.String()).
			Str("database", databasePath).
			Msg("GeoIP lookup failed")
		return r.done(attr, Result{Status: StatusLookupFailed}), nil
	case value == "":
		return r.done(attr, Result{Status: StatusNoData}), nil
	}
	return r.done(attr, Result{Value: value, Status: StatusFound}), nil
}

// lookup dispatches attr to the database. A panic inside the database
// (e.g. a truncated file) is turned into an error for this address only.
func (r *Resolver) lookup(db Database, ip uint32, attr Attribute) (value string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("database panicked: %v", p)
		}
	}()

	switch attr {
	case Org:
		return db.Organization(ip)
	case ID:
		return db.RecordID(ip)
	case CountryName, CountryCode, AreaCode, City, DMACode, Latitude,
		Longitude, MetroCode, PostalCode, Region, RegionName:
		rec, err := db.Lookup(ip)
		if err != nil {
			return "", err
		}
		return r.field(rec, attr), nil
	}
	return "", errUnknownAttribute
}

// field formats one attribute of a record; "" means no value
func (r *Resolver) field(rec Record, attr Attribute) string {
	switch attr {
	case CountryName:
		return rec.CountryName
	case CountryCode:
		return rec.CountryCode
	case AreaCode:
		return formatCode(rec.AreaCode)
	case City:
		return rec.City
	case DMACode:
		return formatCode(rec.DMACode)
	case Latitude:
		if !rec.HasLocation {
			return ""
		}
		return strconv.FormatFloat(rec.Latitude, 'f', -1, 64)
	case Longitude:
		if !rec.HasLocation {
			return ""
		}
		return strconv.FormatFloat(rec.Longitude, 'f', -1, 64)
	case MetroCode:
		return formatCode(rec.MetroCode)
	case PostalCode:
		return rec.PostalCode
	case Region:
		return rec.Region
	case RegionName:
		return r.regionName(rec)
	case Org, ID:
		// answered by their own database calls
	}
	return ""
}

// regionName prefers the region table and falls back to the database's name
func (r *Resolver) regionName(rec Record) string {
	if r.regions == nil || rec.CountryCode == "" || rec.Region == "" {
		return rec.RegionName
	}

	name, err := r.regions.RegionName(rec.CountryCode, rec.Region)
	if err != nil || name == "" {
		r.countRegion("fallback")
		return rec.RegionName
	}
	r.countRegion("hit")
	return name
}

func (r *Resolver) countRegion(result string) {
	if r.metrics != nil {
		r.metrics.RegionNameLookups.WithLabelValues(result).Inc()
	}
}

func (r *Resolver) done(attr Attribute, res Result) Result {
	if r.metrics != nil {
		r.metrics.GeoLookupsTotal.WithLabelValues(attr.String(), res.Status.String()).Inc()
	}
	return res
}

func formatCode(code uint) string {
	if code == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(code), 10)
}
