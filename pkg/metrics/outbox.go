package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records the notifier worker's publishing activity.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	latency   prometheus.Histogram
}

// NewOutboxMetrics registers the outbox publisher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events successfully published.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "Outbox events that failed to publish.",
	}, []string{"event_type"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_publish_duration_seconds",
		Help:    "Time spent publishing a single outbox event.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(published, failed, latency)
	return &OutboxMetrics{
		published: published,
		failed:    failed,
		latency:   latency,
	}
}

// IncPublished increments the published counter for the event type.
func (m *OutboxMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed increments the failed counter for the event type.
func (m *OutboxMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// ObservePublish records how long one publish took.
func (m *OutboxMetrics) ObservePublish(d time.Duration) {
	if m == nil || m.latency == nil {
		return
	}
	m.latency.Observe(d.Seconds())
}
