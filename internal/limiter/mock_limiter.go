package limiter

import "sync"

// MockLimiter is a test double for the Limiter interface
type MockLimiter struct {
	mu sync.Mutex

	// AllowResult is returned by every Allow call
	AllowResult bool

	// Track method calls for verification in tests
	AllowCalls  []string
	CloseCalled bool

	CloseError error
}

// NewMockLimiter creates a mock limiter that allows (or denies) everything
func NewMockLimiter(allowResult bool) *MockLimiter {
	return &MockLimiter{
		AllowResult: allowResult,
		AllowCalls:  []string{},
	}
}

// Allow implements Limiter
func (m *MockLimiter) Allow(client string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AllowCalls = append(m.AllowCalls, client)
	return m.AllowResult
}

// Close implements Limiter
func (m *MockLimiter) Close() error {
	m.CloseCalled = true
	return m.CloseError
}
