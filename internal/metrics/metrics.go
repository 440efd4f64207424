package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Function Metrics
	FunctionCallsTotal *prometheus.CounterVec
	FunctionDuration   *prometheus.HistogramVec

	// GeoIP Metrics
	GeoDatabaseOpens  *prometheus.CounterVec
	GeoCacheLookups   *prometheus.CounterVec
	GeoDatabasesOpen  prometheus.Gauge
	GeoLookupsTotal   *prometheus.CounterVec
	RegionNameLookups *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint", "status"},
		),

		FunctionCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "udf_calls_total",
				Help: "Total number of function evaluations by outcome",
			},
			[]string{"function", "result"},
		),

		FunctionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "udf_call_duration_seconds",
				Help:    "Function evaluation latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"function"},
		),

		GeoDatabaseOpens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoip_database_opens_total",
				Help: "Total number of GeoIP database open attempts",
			},
			[]string{"result"},
		),

		GeoCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoip_cache_lookups_total",
				Help: "Total number of GeoIP database cache hits vs misses",
			},
			[]string{"result"},
		),

		GeoDatabasesOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "geoip_databases_open",
				Help: "Number of GeoIP databases held in the cache",
			},
		),

		GeoLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoip_lookups_total",
				Help: "Total number of GeoIP attribute lookups by status",
			},
			[]string{"attribute", "status"},
		),

		RegionNameLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "region_name_lookups_total",
				Help: "Total number of region name table lookups",
			},
			[]string{"result"},
		),
	}
}
