package store

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// defaultRegions is the built-in table of US states and Canadian provinces.
// CSV Format: country_code,region_code,name
//
//go:embed data/regions.csv
var defaultRegions []byte

// CSVStore implements RegionStore from CSV data.
// It loads all rows into memory and is read-only afterwards,
// so it is safe for concurrent use.
type CSVStore struct {
	// data maps "COUNTRY/REGION" to the row
	data map[string]Region
}

// NewEmbeddedStore creates a store from the built-in region table
func NewEmbeddedStore() (*CSVStore, error) {
	return newCSVStore(bytes.NewReader(defaultRegions))
}

// NewCSVStore creates a new CSV store by reading a CSV file
//
// CSV Format: country_code,region_code,name
// Example: US,CA,California
func NewCSVStore(filePath string) (*CSVStore, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return newCSVStore(file)
}

func newCSVStore(r io.Reader) (*CSVStore, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if len(records) == 0 {
		return nil, errors.New("CSV file is empty")
	}

	store := &CSVStore{
		data: make(map[string]Region, len(records)-1),
	}

	for i, record := range records {
		// header
		if i == 0 {
			continue
		}
		if len(record) != 3 || record[2] == "" {
			continue
		}

		region := Region{
			CountryCode: normalizeCode(record[0]),
			RegionCode:  normalizeCode(record[1]),
			Name:        record[2],
		}
		store.data[regionKey(region.CountryCode, region.RegionCode)] = region
	}

	return store, nil
}

// RegionName implements RegionStore
func (s *CSVStore) RegionName(countryCode, regionCode string) (string, error) {
	region, exists := s.data[regionKey(countryCode, regionCode)]
	if !exists {
		return "", fmt.Errorf("%w: %s/%s", ErrRegionNotFound, countryCode, regionCode)
	}
	return region.Name, nil
}

// Regions returns every row, ordered by country and region code
func (s *CSVStore) Regions() []Region {
	regions := make([]Region, 0, len(s.data))
	for _, region := range s.data {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].CountryCode != regions[j].CountryCode {
			return regions[i].CountryCode < regions[j].CountryCode
		}
		return regions[i].RegionCode < regions[j].RegionCode
	})
	return regions
}

// Len returns the number of rows loaded
func (s *CSVStore) Len() int {
	return len(s.data)
}

// Close implements RegionStore. All data is in memory, nothing to release.
func (s *CSVStore) Close() error {
	return nil
}
