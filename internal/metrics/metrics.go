// Package metrics exposes storefront counters and backend latency to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Yulia51188/fish-house/internal/commerce"
)

const namespace = "fishhouse"

// Metrics implements the dispatch, credential and commerce observers.
type Metrics struct {
	events      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	faults      *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Inbound events by kind.",
			},
			[]string{"kind"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Persisted state transitions.",
			},
			[]string{"from", "to"},
		),
		faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "faults_total",
				Help:      "Dropped or failed events by fault kind.",
			},
			[]string{"kind"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Access token refresh attempts.",
			},
			[]string{"result"},
		),
		requests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Commerce backend call latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op", "status"},
		),
	}

	for _, c := range []prometheus.Collector{m.events, m.transitions, m.faults, m.refreshes, m.requests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// EventReceived counts an inbound event.
func (m *Metrics) EventReceived(kind string) {
	m.events.WithLabelValues(kind).Inc()
}

// Transitioned counts a persisted transition.
func (m *Metrics) Transitioned(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

// Faulted counts a failed dispatch.
func (m *Metrics) Faulted(kind string) {
	m.faults.WithLabelValues(kind).Inc()
}

// TokenRefreshed counts a credential refresh.
func (m *Metrics) TokenRefreshed(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.refreshes.WithLabelValues(result).Inc()
}

// ObserveRequest records a commerce backend call.
func (m *Metrics) ObserveRequest(op string, d time.Duration, err error) {
	m.requests.WithLabelValues(op, requestStatus(err)).Observe(d.Seconds())
}

func requestStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *commerce.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode >= 500:
			return "5xx"
		case apiErr.StatusCode >= 400:
			return "4xx"
		}
	}
	return "error"
}
