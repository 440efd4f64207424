// Package geoip resolves geo attributes for IPv4 addresses from on-disk
// lookup databases.
//
// Databases are opened on first use and kept in a Cache for the life of
// the process. A missing or unreadable database is an error; everything
// that goes wrong for a single address degrades to "no value".
package geoip

import "errors"

var (
	// ErrDatabaseNotFound is returned when the database file does not exist
	ErrDatabaseNotFound = errors.New("GeoIP database does not exist")

	// ErrDatabaseOpen is returned when the database exists but cannot be opened
	ErrDatabaseOpen = errors.New("failed to open GeoIP database")

	// ErrNoData is returned by a Database when it has no entry for an address
	ErrNoData = errors.New("IP address not found")
)

// Record is the location data a database holds for one address.
// Empty strings and zero codes mean the database has no value.
type Record struct {
	CountryName string
	CountryCode string
	Region      string // subdivision code, e.g. "CA"
	RegionName  string // subdivision name as stored in the database
	City        string
	PostalCode  string

	Latitude    float64
	Longitude   float64
	HasLocation bool

	MetroCode uint
	AreaCode  uint
	DMACode   uint
}

// Database answers lookups for IPv4 addresses.
// Implementations must be safe for concurrent use.
type Database interface {
	// Lookup returns the location record for ip, or ErrNoData
	Lookup(ip uint32) (Record, error)

	// Organization returns the organization that owns ip, or ErrNoData
	Organization(ip uint32) (string, error)

	// RecordID returns an identifier of the database record holding ip, or ErrNoData
	RecordID(ip uint32) (string, error)
}

// Opener opens the database stored at path
type Opener func(path string) (Database, error)
