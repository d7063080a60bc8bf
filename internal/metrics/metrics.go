// Package metrics holds the Prometheus collectors of the aggregator.
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "newsaggregator"

// Request outcomes for ObserveRequest.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

type Metrics struct {
	// News API requests by outcome
	APIRequests *prometheus.CounterVec
	// Moves to the next key after a rate-limit reply
	KeyRotations prometheus.Counter
	// Feeds that ended without data, by feed kind and reason
	FeedFailures *prometheus.CounterVec
	// Rows inserted by category
	ArticlesInserted *prometheus.CounterVec
	// Notifications handed to sinks by category and kind (article/summary)
	NotificationsSent *prometheus.CounterVec
	// Duration of a full refresh pass
	RefreshDuration prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "newsapi",
			Name:      "requests_total",
			Help:      "News API requests by outcome",
		}, []string{"outcome"}),
		KeyRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "newsapi",
			Name:      "key_rotations_total",
			Help:      "Retries with the next API key after a rate-limit reply",
		}),
		FeedFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetcher",
			Name:      "feed_failures_total",
			Help:      "Feeds that produced no data",
		}, []string{"feed", "reason"}),
		ArticlesInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "articles_inserted_total",
			Help:      "Articles written to the store",
		}, []string{"category"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "notifications_sent_total",
			Help:      "Notifications handed to sinks",
		}, []string{"category", "kind"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetcher",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a full refresh pass",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.APIRequests,
			m.KeyRotations,
			m.FeedFailures,
			m.ArticlesInserted,
			m.NotificationsSent,
			m.RefreshDuration,
		)
	}

	return m
}

func (m *Metrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveKeyRotation() {
	if m == nil {
		return
	}
	m.KeyRotations.Inc()
}

func (m *Metrics) ObserveFeedFailure(feed, reason string) {
	if m == nil {
		return
	}
	m.FeedFailures.WithLabelValues(feed, reason).Inc()
}

func (m *Metrics) ObserveInserted(category string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ArticlesInserted.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) ObserveNotification(category, kind string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(category, kind).Inc()
}

func (m *Metrics) ObserveRefresh(seconds float64) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(seconds)
}
