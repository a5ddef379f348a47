// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification outcome labels.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
)

var (
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_notifications_total",
			Help: "Notification send attempts by outcome",
		},
		[]string{"outcome"},
	)

	NotificationRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agora_notification_recipients",
			Help:    "Distinct recipients per notification",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	MailBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agora_mail_breaker_open",
			Help: "1 while the mail transport circuit breaker is open",
		},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agora_search_duration_seconds",
			Help:    "Time spent filtering and ranking a search query",
			Buckets: prometheus.DefBuckets,
		},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agora_search_results",
			Help:    "Ranked results returned per search query",
			Buckets: []float64{0, 1, 5, 13, 26, 50, 100, 250},
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_events_published_total",
			Help: "Persistence events published on the bus",
		},
		[]string{"kind"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_rate_limited_total",
			Help: "Actions rejected by the per-user rate limit policy",
		},
		[]string{"action"},
	)
)
