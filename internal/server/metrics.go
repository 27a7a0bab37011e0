// metrics.go - Prometheus metrics for the intake pipeline
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "intake"

var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "sessions_created_total",
		Help:      "Total number of upload sessions created",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "active_sessions",
		Help:      "Number of sessions currently registered",
	})

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "uploads_total",
		Help:      "Upload attempts by terminal outcome",
	}, []string{"outcome"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "upload_bytes_total",
		Help:      "Total bytes persisted to session storage",
	})

	scanVerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "scan_verdicts_total",
		Help:      "Virus scan outcomes by verdict",
	}, []string{"verdict"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "notifications_total",
		Help:      "Upload notification attempts by result",
	}, []string{"result"})

	mirrorOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "mirror_operations_total",
		Help:      "Object-storage mirror attempts by result",
	}, []string{"result"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status code",
	}, []string{"method", "status"})

	httpRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request handling duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)
