// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mdb_rows_inserted_total",
		Help: "Total number of rows inserted.",
	}, []string{"table"})

	RowsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mdb_rows_deleted_total",
		Help: "Total number of rows deleted.",
	}, []string{"table"})

	PersistDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mdb_persist_duration_seconds",
		Help:    "Duration of table file rewrites.",
		Buckets: prometheus.DefBuckets,
	}, []string{"table"})

	PersistErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mdb_persist_errors_total",
		Help: "Total number of failed table file rewrites.",
	}, []string{"table"})

	TableRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mdb_table_rows",
		Help: "Number of rows in the table after the last successful write.",
	}, []string{"table"})

	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mdb_commands_total",
		Help: "Total number of line commands executed, by command word and status.",
	}, []string{"command", "status"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mdb_http_requests_total",
		Help: "Total number of HTTP requests, by method and status code.",
	}, []string{"method", "code"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mdb_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter.",
	})
)
