package limiter

// Limiter decides whether a client may make another request.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow reports whether a request from client should be served
	Allow(client string) bool

	// Close releases resources (Redis connections, etc.)
	Close() error
}
