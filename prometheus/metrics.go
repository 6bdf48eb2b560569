package prometheus

import (
	"time"

	"repairshop-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthErrorsCounter           prometheus.Counter
	TenantContextMissingCounter prometheus.Counter

	// Job lifecycle metrics
	JobTransitionsCounter prometheus.CounterVec

	// Quota metrics
	QuotaDenialsCounter prometheus.CounterVec

	// Inventory metrics
	StockAdjustmentsCounter  prometheus.CounterVec
	InsufficientStockCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	JobTransitionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_job_transitions_total",
			Help: "Total number of job status transitions",
		},
		[]string{"transition"},
	)

	QuotaDenialsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_quota_denials_total",
			Help: "Total number of plan quota and feature denials",
		},
		[]string{"resource"},
	)

	StockAdjustmentsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_stock_adjustments_total",
			Help: "Total number of inventory stock adjustments",
		},
		[]string{"direction"},
	)

	InsufficientStockCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_insufficient_stock_total",
			Help: "Total number of repairs rejected for insufficient stock",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordJobTransition increments the counter for a job transition
func RecordJobTransition(transition string) {
	JobTransitionsCounter.WithLabelValues(transition).Inc()
}

// RecordQuotaDenial increments the quota denial counter for a resource
func RecordQuotaDenial(resource string) {
	QuotaDenialsCounter.WithLabelValues(resource).Inc()
}

// RecordStockAdjustment increments the stock adjustment counter
func RecordStockAdjustment(delta int) {
	direction := "increase"
	if delta < 0 {
		direction = "decrease"
	}
	StockAdjustmentsCounter.WithLabelValues(direction).Inc()
}
