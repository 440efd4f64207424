package store

import (
	"errors"
	"strings"
)

// ErrRegionNotFound is returned when a table has no name for a country/region pair
var ErrRegionNotFound = errors.New("region not found")

// Region is one row of a region-name table
type Region struct {
	CountryCode string `json:"country_code"`
	RegionCode  string `json:"region_code"`
	Name        string `json:"name"`
}

// RegionStore maps an ISO country code and a region code to the region's full name.
// Allows multiple implementations (embedded, CSV, MySQL, Redis) and easy testing with mocks.
// Every RegionStore satisfies geoip.RegionNames.
type RegionStore interface {
	// RegionName returns the full name, or an error wrapping ErrRegionNotFound
	RegionName(countryCode, regionCode string) (string, error)

	// Close cleans up resources (database connections, etc.)
	Close() error
}

// normalizeCode upper-cases and trims a country or region code.
// Codes are compared case-insensitively by every backend.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func regionKey(countryCode, regionCode string) string {
	return normalizeCode(countryCode) + "/" + normalizeCode(regionCode)
}
