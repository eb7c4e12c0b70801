package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	requestsTotal    *prometheus.CounterVec
	statementEntries *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	lockoutsTotal    prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "banco_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banco_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		statementEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banco_statement_entries_total",
				Help: "Statement entries recorded, by kind.",
			},
			[]string{"kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banco_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banco_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		lockoutsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "banco_login_lockouts_total",
				Help: "Accounts locked after repeated failed logins.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// RecordStatementEntry counts a statement entry by kind.
func (m *Metrics) RecordStatementEntry(kind string) {
	m.statementEntries.WithLabelValues(kind).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordLockout counts a login lockout event.
func (m *Metrics) RecordLockout() {
	m.lockoutsTotal.Inc()
}

// GetEngineSnapshot returns a snapshot of engine metrics suitable for the
// GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "accounts")
	cacheMisses := getCounterValue(m.cacheMisses, "accounts")

	errorRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.EngineMetrics{
		TotalRequests: int64(totalRequests),
		ErrorRate:     errorRate,
		CacheHitRate:  cacheHitRate,
		Deposits:      int64(getCounterValue(m.statementEntries, domain.StatementDeposit)),
		Withdrawals:   int64(getCounterValue(m.statementEntries, domain.StatementWithdrawal)),
		TransfersIn:   int64(getCounterValue(m.statementEntries, domain.StatementTransferIn)),
		TransfersOut:  int64(getCounterValue(m.statementEntries, domain.StatementTransferOut)),
		Lockouts:      int64(counterValue(m.lockoutsTotal)),
		Period:        "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
