package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики сессий оформления заказа.
type CheckoutMetrics struct {
	sessionsOpened  prometheus.Counter
	submits         *prometheus.CounterVec
	submitDuration  prometheus.Histogram
	inFlight        prometheus.Gauge
	confirmedAmount prometheus.Histogram
}

// NewCheckoutMetrics создаёт метрики в DefaultRegisterer.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer создаёт метрики в переданном реестре.
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	return &CheckoutMetrics{
		sessionsOpened: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookcart_checkout_sessions_opened_total",
			Help: "Total number of checkout sessions opened.",
		}), "bookcart_checkout_sessions_opened_total"),
		submits: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookcart_checkout_submits_total",
			Help: "Total number of checkout submit attempts grouped by result.",
		}, []string{"result"}), "bookcart_checkout_submits_total"),
		submitDuration: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookcart_checkout_submit_duration_seconds",
			Help:    "Duration of the payment step of checkout submits.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}), "bookcart_checkout_submit_duration_seconds"),
		inFlight: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bookcart_checkout_submits_in_flight",
			Help: "Number of checkout sessions currently in submitting state.",
		}), "bookcart_checkout_submits_in_flight"),
		confirmedAmount: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookcart_checkout_confirmed_amount",
			Help:    "Order totals of confirmed checkouts.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}), "bookcart_checkout_confirmed_amount"),
	}
}

// RecordSessionOpened увеличивает счётчик открытых сессий.
func (m *CheckoutMetrics) RecordSessionOpened() {
	m.sessionsOpened.Inc()
}

// RecordSubmit фиксирует исход попытки submit.
func (m *CheckoutMetrics) RecordSubmit(result string) {
	m.submits.WithLabelValues(result).Inc()
}

// RecordSubmitStarted увеличивает число платежей в процессе.
func (m *CheckoutMetrics) RecordSubmitStarted() {
	m.inFlight.Inc()
}

// RecordSubmitFinished уменьшает число платежей в процессе и пишет длительность.
func (m *CheckoutMetrics) RecordSubmitFinished(duration time.Duration) {
	m.inFlight.Dec()
	m.submitDuration.Observe(duration.Seconds())
}

// RecordConfirmed пишет сумму подтверждённого заказа.
func (m *CheckoutMetrics) RecordConfirmed(total float64) {
	m.confirmedAmount.Observe(total)
}
