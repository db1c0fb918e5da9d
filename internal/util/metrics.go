package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PrescriptionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prescriptions_created_total",
		Help: "Total number of prescriptions created",
	})

	MatchesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matches_created_total",
		Help: "Total number of new prescription-medicine matches recorded",
	})

	MatchesExistingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matches_existing_total",
		Help: "Total number of matches skipped because the triple was already recorded",
	})

	ReconcileFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_failed_total",
		Help: "Total number of failed reconciliation runs",
	}, []string{"reason"})

	ReconcileLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconcile_latency_seconds",
		Help:    "Latency of prescription reconciliation runs",
		Buckets: prometheus.DefBuckets,
	})

	AvailabilityViewLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "availability_view_latency_seconds",
		Help:    "Latency of building patient availability views",
		Buckets: prometheus.DefBuckets,
	})

	AvailabilityCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_hits_total",
		Help: "Total number of availability views served from cache",
	})

	AvailabilityCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "availability_cache_misses_total",
		Help: "Total number of availability views built from the database",
	})

	NotificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of availability notifications delivered",
	})

	NotificationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of availability notifications that failed to send",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
