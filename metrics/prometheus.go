// Package metrics provides a Prometheus implementation of packet.Metrics.
package metrics

import (
	"fmt"

	"github.com/hupe1980/addonbridge/packet"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultPrefix prefixes every metric name when no prefix is given.
const DefaultPrefix = "addonbridge"

// TickBuckets are the round-trip histogram buckets, in ticks.
var TickBuckets = []float64{1, 2, 3, 5, 10, 20, 40, 100}

// Collector records transport and dispatch measurements as Prometheus
// metrics:
//
//   - {prefix}_requests_sent_total{namespace}
//   - {prefix}_requests_total{namespace, outcome}
//   - {prefix}_round_trip_ticks{namespace, outcome}
//   - {prefix}_messages_received_total{type}
//   - {prefix}_protocol_errors_total
//   - {prefix}_listener_failures_total{namespace}
//   - {prefix}_pending_requests
type Collector struct {
	requestsSent     *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	roundTripTicks   *prometheus.HistogramVec
	messagesReceived *prometheus.CounterVec
	protocolErrors   prometheus.Counter
	listenerFailures *prometheus.CounterVec
	pending          prometheus.Gauge
}

var _ packet.Metrics = (*Collector)(nil)

// New creates the collector and registers it with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(prefix string, reg prometheus.Registerer) (*Collector, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		requestsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_requests_sent_total", prefix),
				Help: "Requests broadcast, by namespace.",
			},
			[]string{"namespace"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_requests_total", prefix),
				Help: "Requests sent, by namespace and outcome.",
			},
			[]string{"namespace", "outcome"},
		),
		roundTripTicks: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    fmt.Sprintf("%s_round_trip_ticks", prefix),
				Help:    "Ticks from send to settlement.",
				Buckets: TickBuckets,
			},
			[]string{"namespace", "outcome"},
		),
		messagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_messages_received_total", prefix),
				Help: "Inbound envelopes, by type.",
			},
			[]string{"type"},
		),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_protocol_errors_total", prefix),
			Help: "Inbound messages dropped as malformed or of unknown type.",
		}),
		listenerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_listener_failures_total", prefix),
				Help: "Listener errors and panics, by namespace.",
			},
			[]string{"namespace"},
		),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_pending_requests", prefix),
			Help: "Requests awaiting a response.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.requestsSent,
		c.requestsTotal,
		c.roundTripTicks,
		c.messagesReceived,
		c.protocolErrors,
		c.listenerFailures,
		c.pending,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return c, nil
}

// RequestSent implements packet.Metrics.
func (c *Collector) RequestSent(namespace string) {
	c.requestsSent.WithLabelValues(namespace).Inc()
}

// RequestSettled implements packet.Metrics.
func (c *Collector) RequestSettled(namespace string, outcome packet.Outcome, ticks int) {
	c.requestsTotal.WithLabelValues(namespace, string(outcome)).Inc()
	c.roundTripTicks.WithLabelValues(namespace, string(outcome)).Observe(float64(ticks))
}

// MessageReceived implements packet.Metrics.
func (c *Collector) MessageReceived(kind string) {
	c.messagesReceived.WithLabelValues(kind).Inc()
}

// ProtocolError implements packet.Metrics.
func (c *Collector) ProtocolError() { c.protocolErrors.Inc() }

// ListenerFailed implements packet.Metrics.
func (c *Collector) ListenerFailed(namespace string) {
	c.listenerFailures.WithLabelValues(namespace).Inc()
}

// PendingRequests implements packet.Metrics.
func (c *Collector) PendingRequests(n int) { c.pending.Set(float64(n)) }
