// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gamedata"

const (
	MetricImportRows       = "import_rows_total"
	MetricImports          = "imports_total"
	MetricImportDuration   = "import_duration_seconds"
	MetricReferencesLinked = "references_linked_total"
	MetricTasks            = "tasks_total"
	MetricTaskQueueDepth   = "task_queue_depth"
	MetricHTTPRequests     = "http_requests_total"
	MetricHTTPDuration     = "http_request_duration_seconds"
)

var CounterImportRows = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      MetricImportRows,
		Help:      "CSV rows processed by result.",
	},
	[]string{"result"},
)

var CounterImports = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      MetricImports,
		Help:      "Finished imports by classified status.",
	},
	[]string{"status"},
)

var HistogramImportDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      MetricImportDuration,
		Help:      "Wall time of one import from fetch to commit.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	},
)

var CounterReferencesLinked = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      MetricReferencesLinked,
		Help:      "New game to reference entity links inserted, by kind.",
	},
	[]string{"kind"},
)

var CounterTasks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      MetricTasks,
		Help:      "Background tasks reaching a terminal state.",
	},
	[]string{"state"},
)

var GaugeTaskQueueDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      MetricTaskQueueDepth,
		Help:      "Tasks waiting for a worker.",
	},
)

var CounterHTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      MetricHTTPRequests,
		Help:      "HTTP requests by route and status code.",
	},
	[]string{"method", "route", "code"},
)

var HistogramHTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      MetricHTTPDuration,
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

func init() {
	prometheus.MustRegister(CounterImportRows)
	prometheus.MustRegister(CounterImports)
	prometheus.MustRegister(HistogramImportDuration)
	prometheus.MustRegister(CounterReferencesLinked)
	prometheus.MustRegister(CounterTasks)
	prometheus.MustRegister(GaugeTaskQueueDepth)
	prometheus.MustRegister(CounterHTTPRequests)
	prometheus.MustRegister(HistogramHTTPDuration)
}
