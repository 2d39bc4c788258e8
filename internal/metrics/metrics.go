// Package metrics defines the prometheus collectors for reportcast.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the collectors owned by one reportcast instance.
//
// Collectors are per-instance rather than package globals so that embedding
// applications (and tests) can run multiple instances without duplicate
// registration panics.
type Metrics struct {
	// ReportsPublished counts successful report publishes.
	ReportsPublished prometheus.Counter

	// PublishErrors counts failed publish attempts by reason.
	PublishErrors *prometheus.CounterVec

	// ActiveSubscribers tracks the current number of stream subscribers.
	ActiveSubscribers prometheus.Gauge

	// SubscribersNotified counts subscriber wakeups across all publishes.
	SubscribersNotified prometheus.Counter

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reportcast_reports_published_total",
			Help: "Number of reports persisted and broadcast to subscribers",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reportcast_publish_errors_total",
			Help: "Number of publish attempts that failed, by reason",
		}, []string{"reason"}),
		ActiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reportcast_active_subscribers",
			Help: "Gauge showing number of currently connected stream subscribers",
		}),
		SubscribersNotified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reportcast_subscribers_notified_total",
			Help: "Number of subscriber wakeups delivered across all publishes",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.ReportsPublished,
		m.PublishErrors,
		m.ActiveSubscribers,
		m.SubscribersNotified,
	)
	return m
}

// Registry returns the prometheus registry holding the collectors, for
// mounting a /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
