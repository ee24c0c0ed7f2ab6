package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DBQueryDuration = histogram("db", "query_duration_seconds",
		"Duration of database statements in seconds.",
		[]float64{.001, .005, .01, .025, .05, .1, .5, 1}, "operation")

	QueueJobsProcessed = counter("queue", "jobs_processed_total",
		"Queue jobs processed by result.", "status") // success | failed
	QueueJobDuration = histogram("queue", "job_duration_seconds",
		"Duration of queue job handling in seconds.", prometheus.DefBuckets, "job_type")

	CacheHits   = counter("cache", "hits_total", "Cache hits.", "driver")
	CacheMisses = counter("cache", "misses_total", "Cache misses.", "driver")

	// OrdersPlaced counts CreateOrder outcomes by result: ok or the error kind.
	OrdersPlaced = counter("orders", "placed_total",
		"Order placement attempts by result.", "result")

	// StockNotifications counts stock-change fan-out per notifier.
	StockNotifications = counter("inventory", "stock_notifications_total",
		"Stock change notifications by notifier and result.", "notifier", "result")

	// ReconcileRows counts CSV rows by kind: applied or unparsed.
	ReconcileRows = counter("inventory", "reconcile_rows_total",
		"Rows processed by inventory reconciliation.", "kind")
)

// ObserveDBQuery records one statement's duration.
func ObserveDBQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordQueueJob records one job attempt.
func RecordQueueJob(jobType, status string, start time.Time) {
	QueueJobsProcessed.WithLabelValues(status).Inc()
	QueueJobDuration.WithLabelValues(jobType).Observe(time.Since(start).Seconds())
}
