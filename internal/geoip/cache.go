package geoip

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/evyataryagoni/udfkit/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Cache keeps opened databases keyed by the path string they were opened with.
//
// Entries are never evicted or replaced. Two different strings naming the
// same file ("GeoIP.mmdb" and "./GeoIP.mmdb") are two entries.
type Cache struct {
	open    Opener
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	handles map[string]Database

	// opening collapses concurrent first opens of the same path into one call
	opening singleflight.Group
}

// NewCache creates an empty cache that opens databases with open.
// m may be nil.
func NewCache(open Opener, log *logger.Logger, m *metrics.Metrics) *Cache {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Cache{
		open:    open,
		logger:  log.WithComponent("GeoIPCache"),
		metrics: m,
		handles: make(map[string]Database),
	}
}

// Get returns the database for path, opening it on first use.
// Errors wrap ErrDatabaseNotFound or ErrDatabaseOpen; failed opens are
// not remembered, so a later call tries again.
func (c *Cache) Get(path string) (Database, error) {
	if db, ok := c.cached(path); ok {
		c.countLookup("hit")
		return db, nil
	}
	c.countLookup("miss")

	v, err, _ := c.opening.Do(path, func() (interface{}, error) {
		// Another caller may have finished opening between our check and Do
		if db, ok := c.cached(path); ok {
			return db, nil
		}

		db, err := c.openDatabase(path)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.handles[path] = db
		size := len(c.handles)
		c.mu.Unlock()

		if c.metrics != nil {
			c.metrics.GeoDatabasesOpen.Set(float64(size))
		}
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Database), nil
}

// Len returns the number of cached databases
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}

func (c *Cache) cached(path string) (Database, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	db, ok := c.handles[path]
	return db, ok
}

func (c *Cache) openDatabase(path string) (Database, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.countOpen("not_found")
			c.logger.Error().Str("path", path).Msg("GeoIP database does not exist")
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
		}
		c.countOpen("error")
		return nil, fmt.Errorf("%w: %s: %w", ErrDatabaseOpen, path, err)
	}
	// Devices, FIFOs and directories would block or never stop reading
	if !fi.Mode().IsRegular() {
		c.countOpen("error")
		c.logger.Error().Str("path", path).Str("mode", fi.Mode().String()).Msg("GeoIP database is not a regular file")
		return nil, fmt.Errorf("%w: %s: not a regular file", ErrDatabaseOpen, path)
	}

	start := time.Now()
	db, err := c.open(path)
	if err != nil {
		c.countOpen("error")
		c.logger.Error().Err(err).Str("path", path).Msg("Failed to open GeoIP database")
		if errors.Is(err, ErrDatabaseNotFound) || errors.Is(err, ErrDatabaseOpen) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDatabaseOpen, path, err)
	}

	c.countOpen("success")
	c.logger.Info().
		Str("path", path).
		Dur("duration", time.Since(start)).
		Msg("GeoIP database opened")
	return db, nil
}

func (c *Cache) countLookup(result string) {
	if c.metrics != nil {
		c.metrics.GeoCacheLookups.WithLabelValues(result).Inc()
	}
}

func (c *Cache) countOpen(result string) {
	if c.metrics != nil {
		c.metrics.GeoDatabaseOpens.WithLabelValues(result).Inc()
	}
}
