package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Histogram buckets covering fast in-process ledger operations up to slow external sinks
	CustomAPIBuckets = []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21}

	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method", "http_route"},
	)

	// Ledger Metrics
	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "escrow_ledger_operation_duration_seconds",
			Help:    "Ledger operation duration in seconds, including commit",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	LedgerOperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_ledger_operation_total",
			Help: "Total number of ledger operations by outcome (ok or error kind)",
		},
		[]string{"operation", "status"},
	)

	LedgerHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "escrow_ledger_height",
			Help: "Number of committed ledger operations",
		},
	)

	LedgerEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_ledger_events_total",
			Help: "Total number of committed ledger events",
		},
		[]string{"event"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "escrow_active_sessions",
			Help: "Number of sessions currently holding funds in custody",
		},
	)

	SettledVolume = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_settled_volume_tokens",
			Help: "Settled token volume in whole EDU, split by recipient",
		},
		[]string{"recipient"},
	)

	// Event Sink Metrics
	EventSinkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "escrow_event_sink_duration_seconds",
			Help:    "Event delivery duration per sink in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"sink", "status"},
	)

	EventSinkTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_event_sink_total",
			Help: "Total number of event deliveries per sink",
		},
		[]string{"sink", "status"},
	)

	EventQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escrow_event_queue_dropped_total",
			Help: "Events dropped because the delivery queue was full",
		},
	)

	// Database Client Metrics (Postgres event log)
	DBClientOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_client_operation_duration_seconds",
			Help:    "Database client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	DBClientOperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_client_operation_total",
			Help: "Total number of database client operations",
		},
		[]string{"operation", "status"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries in cache",
		},
		[]string{"cache_name"},
	)

	// Storage Client Metrics (S3 achievement metadata)
	StorageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_client_operation_duration_seconds",
			Help:    "Storage client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	StorageRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_client_operation_total",
			Help: "Total number of storage client operations",
		},
		[]string{"operation", "status"},
	)

	// 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "escrow_circuit_breaker_state",
			Help: "Circuit breaker state per event sink",
		},
		[]string{"breaker"},
	)

	RateLimitRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_rate_limit_rejected_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	// Wallet Session Metrics
	WalletSessionsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_wallet_sessions_issued_total",
			Help: "Total number of wallet session tokens issued",
		},
		[]string{"status"},
	)

	// Infrastructure Metrics
	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
