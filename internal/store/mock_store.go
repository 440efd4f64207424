package store

import "fmt"

// MockRegionStore is a test double for the RegionStore interface
type MockRegionStore struct {
	// Data maps "COUNTRY/REGION" to a name
	Data map[string]string

	// Track method calls for verification in tests
	RegionNameCalls []string
	CloseCalled     bool

	// Control behavior for error scenarios
	RegionNameError error
	CloseError      error
}

// NewMockRegionStore creates a mock store with a few regions
func NewMockRegionStore() *MockRegionStore {
	return &MockRegionStore{
		Data: map[string]string{
			"US/CA": "California",
			"US/NY": "New York",
			"CA/QC": "Quebec",
		},
		RegionNameCalls: []string{},
	}
}

// RegionName implements RegionStore
func (m *MockRegionStore) RegionName(countryCode, regionCode string) (string, error) {
	key := regionKey(countryCode, regionCode)
	m.RegionNameCalls = append(m.RegionNameCalls, key)

	if m.RegionNameError != nil {
		return "", m.RegionNameError
	}

	name, exists := m.Data[key]
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrRegionNotFound, key)
	}
	return name, nil
}

// Close implements RegionStore
func (m *MockRegionStore) Close() error {
	m.CloseCalled = true
	return m.CloseError
}
