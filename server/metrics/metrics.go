package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metastore_calls_total",
		Help: "Total number of catalog operations invoked.",
	}, []string{"op"})

	CatalogErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metastore_errors_total",
		Help: "Total number of catalog operations that returned an error, by kind.",
	}, []string{"op", "kind"})

	CatalogDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "metastore_call_duration_seconds",
		Help:    "Duration of catalog operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	CompensationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metastore_compensation_failures_total",
		Help: "Total number of directories that could not be removed after a failed create.",
	})

	DirectoryDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metastore_directory_deletes_total",
		Help: "Total number of data directory deletions after a committed drop, by outcome.",
	}, []string{"outcome"})

	SessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metastore_sessions_open",
		Help: "Number of metadata store sessions pinned to workers.",
	})

	WorkersBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metastore_workers_busy",
		Help: "Number of workers currently handling a request.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metastore_queue_depth",
		Help: "Number of requests waiting for a free worker.",
	})
)
