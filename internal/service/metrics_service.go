package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a JSON-friendly summary of the collected metrics.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	StoreLoads               uint64    `json:"storeLoads"`
	StoreSaves               uint64    `json:"storeSaves"`
	StoreFailures            uint64    `json:"storeFailures"`
	AverageLockWaitMs        float64   `json:"averageLockWaitMs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	storeFailures   *prometheus.CounterVec
	lockWait        prometheus.Histogram

	requestCount         uint64
	requestDurationTotal uint64
	storeLoadCount       uint64
	storeSaveCount       uint64
	storeFailureCount    uint64
	lockWaitCount        uint64
	lockWaitTotal        uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "semester_store_operation_seconds",
		Help:    "Duration of whole-collection loads and saves",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	storeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "semester_store_failures_total",
		Help: "Storage medium failures by operation",
	}, []string{"op"})

	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "writer_lock_wait_seconds",
		Help:    "Time spent waiting for the collection writer lock",
		Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeDuration, storeFailures, lockWait, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storeDuration:   storeDuration,
		storeFailures:   storeFailures,
		lockWait:        lockWait,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveStoreOperation records one load or save against the storage medium.
func (m *MetricsService) ObserveStoreOperation(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
	switch op {
	case "load":
		atomic.AddUint64(&m.storeLoadCount, 1)
	case "save":
		atomic.AddUint64(&m.storeSaveCount, 1)
	}
	if err != nil {
		m.storeFailures.WithLabelValues(op).Inc()
		atomic.AddUint64(&m.storeFailureCount, 1)
	}
}

// ObserveLockWait records how long a writer queued for the lock.
func (m *MetricsService) ObserveLockWait(duration time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(duration.Seconds())
	atomic.AddUint64(&m.lockWaitCount, 1)
	atomic.AddUint64(&m.lockWaitTotal, uint64(duration.Nanoseconds()))
}

// Snapshot returns aggregated metrics.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	waits := atomic.LoadUint64(&m.lockWaitCount)
	waitTotal := atomic.LoadUint64(&m.lockWaitTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgWaitMs float64
	if waits > 0 {
		avgWaitMs = float64(waitTotal) / float64(waits) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StoreLoads:               atomic.LoadUint64(&m.storeLoadCount),
		StoreSaves:               atomic.LoadUint64(&m.storeSaveCount),
		StoreFailures:            atomic.LoadUint64(&m.storeFailureCount),
		AverageLockWaitMs:        avgWaitMs,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
