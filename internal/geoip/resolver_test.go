package geoip

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/evyataryagoni/udfkit/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// stubDatabase is an in-memory Database for resolver tests
type stubDatabase struct {
	records map[uint32]Record
	orgs    map[uint32]string
	ids     map[uint32]string

	lookupErr error
	panicOn   uint32
}

func newStubDatabase() *stubDatabase {
	return &stubDatabase{
		records: map[uint32]Record{},
		orgs:    map[uint32]string{},
		ids:     map[uint32]string{},
	}
}

func (s *stubDatabase) Lookup(ip uint32) (Record, error) {
	if s.panicOn != 0 && ip == s.panicOn {
		panic("corrupt record")
	}
	if s.lookupErr != nil {
		return Record{}, s.lookupErr
	}
	rec, ok := s.records[ip]
	if !ok {
		return Record{}, ErrNoData
	}
	return rec, nil
}

func (s *stubDatabase) Organization(ip uint32) (string, error) {
	org, ok := s.orgs[ip]
	if !ok {
		return "", ErrNoData
	}
	return org, nil
}

func (s *stubDatabase) RecordID(ip uint32) (string, error) {
	id, ok := s.ids[ip]
	if !ok {
		return "", ErrNoData
	}
	return id, nil
}

// stubRegions is a RegionNames table backed by a map
type stubRegions map[string]string

func (s stubRegions) RegionName(country, region string) (string, error) {
	name, ok := s[country+"/"+region]
	if !ok {
		return "", errors.New("region not found")
	}
	return name, nil
}

const (
	googleDNS     = 134744072 // 8.8.8.8
	cloudflareDNS = 16843009  // 1.1.1.1
	unknownIP     = 167772161 // 10.0.0.1
)

func setupResolver(t *testing.T, db *stubDatabase, regions RegionNames) (*Resolver, string) {
	t.Helper()
	path := touchFile(t, "GeoIP.mmdb")
	opener := &countingOpener{db: db}
	cache := NewCache(opener.Open, logger.Nop(), nil)
	return NewResolver(cache, regions, logger.Nop(), nil), path
}

func sampleDatabase() *stubDatabase {
	db := newStubDatabase()
	db.records[googleDNS] = Record{
		CountryName: "United States",
		CountryCode: "US",
		Region:      "CA",
		RegionName:  "California (db)",
		City:        "Mountain View",
		PostalCode:  "94043",
		Latitude:    37.386,
		Longitude:   -122.0838,
		HasLocation: true,
		MetroCode:   807,
		AreaCode:    650,
		DMACode:     807,
	}
	db.records[cloudflareDNS] = Record{
		CountryName: "Australia",
		CountryCode: "AU",
	}
	db.orgs[googleDNS] = "Google LLC"
	db.ids[googleDNS] = "42"
	return db
}

// TestResolver_AllAttributes tests every attribute against a full record
func TestResolver_AllAttributes(t *testing.T) {
	resolver, path := setupResolver(t, sampleDatabase(), stubRegions{"US/CA": "California"})

	tests := []struct {
		attr     Attribute
		expected string
	}{
		{CountryName, "United States"},
		{CountryCode, "US"},
		{AreaCode, "650"},
		{City, "Mountain View"},
		{DMACode, "807"},
		{Latitude, "37.386"},
		{Longitude, "-122.0838"},
		{MetroCode, "807"},
		{PostalCode, "94043"},
		{Region, "CA"},
		{RegionName, "California"},
		{Org, "Google LLC"},
		{ID, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.attr.String(), func(t *testing.T) {
			res, err := resolver.Resolve(googleDNS, tt.attr, path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.OK() {
				t.Fatalf("expected a value, got status %v", res.Status)
			}
			if res.Value != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, res.Value)
			}
		})
	}
}

// TestResolver_PartialRecord tests that empty fields resolve to no value
func TestResolver_PartialRecord(t *testing.T) {
	resolver, path := setupResolver(t, sampleDatabase(), nil)

	for _, attr := range []Attribute{City, Latitude, Longitude, MetroCode, AreaCode, Region, RegionName, PostalCode, Org, ID} {
		t.Run(attr.String(), func(t *testing.T) {
			res, err := resolver.Resolve(cloudflareDNS, attr, path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Status != StatusNoData {
				t.Errorf("expected no_data, got %v (%q)", res.Status, res.Value)
			}
		})
	}

	res, _ := resolver.Resolve(cloudflareDNS, CountryName, path)
	if res.Value != "Australia" {
		t.Errorf("expected 'Australia', got %q", res.Value)
	}
}

// TestResolver_RegionNameFallback tests that the database name is used when the table misses
func TestResolver_RegionNameFallback(t *testing.T) {
	resolver, path := setupResolver(t, sampleDatabase(), stubRegions{})

	res, err := resolver.Resolve(googleDNS, RegionName, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value != "California (db)" {
		t.Errorf("expected database name, got %q", res.Value)
	}
}

// TestResolver_IPNotInDatabase tests the no-data outcome
func TestResolver_IPNotInDatabase(t *testing.T) {
	resolver, path := setupResolver(t, sampleDatabase(), nil)

	res, err := resolver.Resolve(unknownIP, CountryName, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK() || res.Status != StatusNoData {
		t.Errorf("expected no_data, got %v", res.Status)
	}
}

// TestResolver_LookupErrorIsAbsorbed tests that a failing database degrades to no value
func TestResolver_LookupErrorIsAbsorbed(t *testing.T) {
	db := sampleDatabase()
	db.lookupErr = errors.New("invalid data section")
	resolver, path := setupResolver(t, db, nil)

	res, err := resolver.Resolve(googleDNS, CountryName, path)
	if err != nil {
		t.Fatalf("expected error to be absorbed, got %v", err)
	}
	if res.Status != StatusLookupFailed || res.Value != "" {
		t.Errorf("expected lookup_failed with no value, got %v %q", res.Status, res.Value)
	}
}

// TestResolver_PanicIsAbsorbed tests that a panicking database only affects one record
func TestResolver_PanicIsAbsorbed(t *testing.T) {
	db := sampleDatabase()
	db.panicOn = cloudflareDNS
	resolver, path := setupResolver(t, db, nil)

	res, err := resolver.Resolve(cloudflareDNS, CountryName, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusLookupFailed {
		t.Errorf("expected lookup_failed, got %v", res.Status)
	}

	// The next record still resolves
	res, _ = resolver.Resolve(googleDNS, CountryName, path)
	if res.Value != "United States" {
		t.Errorf("expected 'United States', got %q", res.Value)
	}
}

// TestResolver_InvalidAddress tests integers outside the IPv4 range
func TestResolver_InvalidAddress(t *testing.T) {
	resolver, path := setupResolver(t, sampleDatabase(), nil)

	for _, ip := range []int64{-1, 1 << 32} {
		res, err := resolver.Resolve(ip, CountryName, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != StatusInvalidAddress {
			t.Errorf("ip %d: expected invalid_address, got %v", ip, res.Status)
		}
	}
}

// TestResolver_UnknownAttribute tests that unknown names are absent, not errors
func TestResolver_UnknownAttribute(t *testing.T) {
	resolver, path := setupResolver(t, sampleDatabase(), nil)

	res, err := resolver.ResolveName(googleDNS, "BOGUS_ATTR", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK() || res.Status != StatusUnknownAttribute {
		t.Errorf("expected unknown_attribute, got %v", res.Status)
	}

	res, err = resolver.Resolve(googleDNS, Attribute(0), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusUnknownAttribute {
		t.Errorf("expected unknown_attribute for zero attribute, got %v", res.Status)
	}
}

// TestResolver_ResolveName tests name-based resolution
func TestResolver_ResolveName(t *testing.T) {
	resolver, path := setupResolver(t, sampleDatabase(), nil)

	res, err := resolver.ResolveName(googleDNS, "country_code", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value != "US" {
		t.Errorf("expected 'US', got %q", res.Value)
	}
}

// TestResolver_MissingDatabase tests that a missing file is a hard error for any attribute
func TestResolver_MissingDatabase(t *testing.T) {
	resolver, _ := setupResolver(t, sampleDatabase(), nil)
	missing := filepath.Join(t.TempDir(), "missing.dat")

	if _, err := resolver.Resolve(googleDNS, CountryName, missing); !errors.Is(err, ErrDatabaseNotFound) {
		t.Errorf("expected ErrDatabaseNotFound, got %v", err)
	}
	if _, err := resolver.ResolveName(googleDNS, "BOGUS_ATTR", missing); !errors.Is(err, ErrDatabaseNotFound) {
		t.Errorf("expected ErrDatabaseNotFound for unknown attribute too, got %v", err)
	}
}

// TestResolver_Metrics tests lookup status counters
func TestResolver_Metrics(t *testing.T) {
	path := touchFile(t, "GeoIP.mmdb")
	m := metrics.New(prometheus.NewRegistry())
	cache := NewCache((&countingOpener{db: sampleDatabase()}).Open, logger.Nop(), m)
	resolver := NewResolver(cache, stubRegions{"US/CA": "California"}, logger.Nop(), m)

	_, _ = resolver.Resolve(googleDNS, CountryName, path)
	_, _ = resolver.Resolve(unknownIP, CountryName, path)
	_, _ = resolver.Resolve(googleDNS, RegionName, path)

	if got := testutil.ToFloat64(m.GeoLookupsTotal.WithLabelValues("COUNTRY_NAME", "found")); got != 1 {
		t.Errorf("expected 1 found lookup, got %v", got)
	}
	if got := testutil.ToFloat64(m.GeoLookupsTotal.WithLabelValues("COUNTRY_NAME", "no_data")); got != 1 {
		t.Errorf("expected 1 no_data lookup, got %v", got)
	}
	if got := testutil.ToFloat64(m.RegionNameLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 region table hit, got %v", got)
	}
}

// TestStatus_String tests status labels
func TestStatus_String(t *testing.T) {
	if StatusFound.String() != "found" || StatusLookupFailed.String() != "lookup_failed" {
		t.Error("unexpected status labels")
	}
	if Status(99).String() != "unknown" {
		t.Errorf("expected 'unknown', got %s", Status(99).String())
	}
}
