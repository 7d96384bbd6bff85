package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pair monitor collectors on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	EventsReceivedTotal   *prometheus.CounterVec
	AlertsDispatchedTotal *prometheus.CounterVec
	AlertsSuppressedTotal *prometheus.CounterVec
	DispatchFailuresTotal prometheus.Counter
	LookupFailuresTotal   prometheus.Counter
	DecodeFailuresTotal   *prometheus.CounterVec
	DispatchDuration      prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EventsReceivedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairalert_events_received_total",
				Help: "Total number of decoded pair events received",
			},
			[]string{"kind"},
		),
		AlertsDispatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairalert_alerts_dispatched_total",
				Help: "Total number of alerts handed to the dispatcher",
			},
			[]string{"kind"},
		),
		AlertsSuppressedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairalert_alerts_suppressed_total",
				Help: "Total number of events that did not produce an alert",
			},
			[]string{"kind", "reason"},
		),
		DispatchFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pairalert_dispatch_failures_total",
				Help: "Total number of failed notification calls",
			},
		),
		LookupFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pairalert_tx_lookup_failures_total",
				Help: "Total number of failed transaction lookups",
			},
		),
		DecodeFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairalert_decode_failures_total",
				Help: "Total number of log or calldata decode failures",
			},
			[]string{"stage"},
		),
		DispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pairalert_dispatch_duration_seconds",
				Help:    "Duration of notification calls",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	m.registry.MustRegister(
		m.EventsReceivedTotal,
		m.AlertsDispatchedTotal,
		m.AlertsSuppressedTotal,
		m.DispatchFailuresTotal,
		m.LookupFailuresTotal,
		m.DecodeFailuresTotal,
		m.DispatchDuration,
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EventReceived(kind string) {
	if m == nil {
		return
	}
	m.EventsReceivedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) AlertDispatched(kind string) {
	if m == nil {
		return
	}
	m.AlertsDispatchedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) AlertSuppressed(kind, reason string) {
	if m == nil {
		return
	}
	m.AlertsSuppressedTotal.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) LookupFailed() {
	if m == nil {
		return
	}
	m.LookupFailuresTotal.Inc()
}

// DecodeFailed counts a failure at stage "log" or "calldata".
func (m *Metrics) DecodeFailed(stage string) {
	if m == nil {
		return
	}
	m.DecodeFailuresTotal.WithLabelValues(stage).Inc()
}

// DispatchFinished records one notification call.
func (m *Metrics) DispatchFinished(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(duration.Seconds())
	if err != nil {
		m.DispatchFailuresTotal.Inc()
	}
}
