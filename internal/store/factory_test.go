package store

import (
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/evyataryagoni/udfkit/internal/logger"
)

// TestNew tests backend selection
func TestNew(t *testing.T) {
	csvPath := writeCSV(t, `country_code,region_code,name
US,CA,California`)

	tests := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{"default is embedded", Config{}, "*store.CSVStore"},
		{"embedded", Config{Type: "embedded"}, "*store.CSVStore"},
		{"csv with spaces and case", Config{Type: " CSV ", Path: csvPath}, "*store.CSVStore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg, logger.Nop())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer s.Close()

			name, err := s.RegionName("US", "CA")
			if err != nil || name != "California" {
				t.Errorf("expected 'California', got '%s' (%v)", name, err)
			}
		})
	}
}

// TestNew_Redis tests that an empty Redis is seeded on startup
func TestNew_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := New(Config{Type: "redis", RedisAddr: mr.Addr()}, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if _, ok := s.(*RedisStore); !ok {
		t.Fatalf("expected *RedisStore, got %T", s)
	}

	name, err := s.RegionName("CA", "QC")
	if err != nil {
		t.Fatalf("expected seeded region, got error: %v", err)
	}
	if name != "Quebec" {
		t.Errorf("expected 'Quebec', got '%s'", name)
	}
}

// TestNew_RedisNotReseeded tests that existing data is left alone
func TestNew_RedisNotReseeded(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Set("region:US:CA", `{"country_code":"US","region_code":"CA","name":"Custom"}`)

	s, err := New(Config{Type: "redis", RedisAddr: mr.Addr()}, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	name, _ := s.RegionName("US", "CA")
	if name != "Custom" {
		t.Errorf("expected existing value to be kept, got '%s'", name)
	}
	if _, err := s.RegionName("US", "NY"); !errors.Is(err, ErrRegionNotFound) {
		t.Errorf("expected no seeding of a non-empty Redis, got %v", err)
	}
}

// TestNew_Errors tests invalid configurations
func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown type", Config{Type: "postgres"}},
		{"missing csv file", Config{Type: "csv", Path: "/nonexistent/regions.csv"}},
		{"unreachable redis", Config{Type: "redis", RedisAddr: "invalid:9999"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, logger.Nop()); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// TestMockRegionStore tests the mock's call tracking
func TestMockRegionStore(t *testing.T) {
	m := NewMockRegionStore()

	name, err := m.RegionName("us", "ca")
	if err != nil || name != "California" {
		t.Errorf("expected 'California', got '%s' (%v)", name, err)
	}
	if _, err := m.RegionName("US", "ZZ"); !errors.Is(err, ErrRegionNotFound) {
		t.Errorf("expected ErrRegionNotFound, got %v", err)
	}
	if len(m.RegionNameCalls) != 2 || m.RegionNameCalls[0] != "US/CA" {
		t.Errorf("unexpected calls: %v", m.RegionNameCalls)
	}

	m.Close()
	if !m.CloseCalled {
		t.Error("expected Close to be recorded")
	}
}
