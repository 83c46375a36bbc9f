// README: Prometheus collectors for ride lifecycle, matching, and HTTP traffic.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shuttle", Name: "rides_requested_total", Help: "Ride requests created"})
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shuttle", Name: "ride_transitions_total", Help: "Committed ride status transitions"},
		[]string{"from", "to"})
	AcceptConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shuttle", Name: "accept_conflicts_total", Help: "Driver accepts lost to another writer"})
	AllocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shuttle", Name: "allocations_total", Help: "Auto-allocation attempts by outcome"},
		[]string{"outcome"})
	ReconciliationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shuttle", Name: "reconciliations_total", Help: "Driver/vehicle state repairs applied"})
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "shuttle", Name: "feed_subscribers", Help: "Connected change-feed subscribers"})
	NotificationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shuttle", Name: "notifications_dropped_total", Help: "Change notifications coalesced into an already pending one"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "shuttle", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shuttle",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
