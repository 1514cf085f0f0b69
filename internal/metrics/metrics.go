package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec
	Checkouts       *prometheus.CounterVec
	Reconciliations *prometheus.CounterVec
	IntentsExpired  prometheus.Counter
	EventsPublished *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by protocol and outcome.",
		}, []string{"mode", "outcome"}),
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "payment_reconciliations_total",
			Help:      "Captured payments that could not be turned into an order.",
		}, []string{"reason"}),
		IntentsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "payment_intents_expired_total",
			Help:      "Gateway orders that never received a callback.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "outbox_events_published_total",
			Help:      "Outbox events handed to the publisher.",
		}, []string{"event_type", "result"}),
		gatherer: reg,
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.Checkouts, m.Reconciliations, m.IntentsExpired, m.EventsPublished)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) CheckoutFinished(mode domain.CheckoutMode, outcome string) {
	m.Checkouts.WithLabelValues(string(mode), outcome).Inc()
}

func (m *Metrics) ReconciliationRecorded(reason string) {
	m.Reconciliations.WithLabelValues(reason).Inc()
}

func (m *Metrics) IntentsExpiredAdd(n int64) {
	m.IntentsExpired.Add(float64(n))
}

func (m *Metrics) EventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, result).Inc()
}
