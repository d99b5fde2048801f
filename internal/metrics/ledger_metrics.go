package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics содержит метрики леджеров корзины и объявлений.
type LedgerMetrics struct {
	commands        *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	rehydrations    *prometheus.CounterVec
	items           *prometheus.GaugeVec
}

// NewLedgerMetrics создаёт метрики в DefaultRegisterer.
func NewLedgerMetrics() *LedgerMetrics {
	return NewLedgerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewLedgerMetricsWithRegisterer создаёт метрики в переданном реестре.
func NewLedgerMetricsWithRegisterer(registerer prometheus.Registerer) *LedgerMetrics {
	return &LedgerMetrics{
		commands: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookcart_ledger_commands_total",
			Help: "Total number of commands applied to ledgers.",
		}, []string{"ledger", "command"}), "bookcart_ledger_commands_total"),
		persistFailures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookcart_ledger_persist_failures_total",
			Help: "Total number of failed snapshot writes.",
		}, []string{"ledger"}), "bookcart_ledger_persist_failures_total"),
		rehydrations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookcart_ledger_rehydrations_total",
			Help: "Total number of ledger rehydrations grouped by result.",
		}, []string{"ledger", "result"}), "bookcart_ledger_rehydrations_total"),
		items: register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bookcart_ledger_last_size",
			Help: "Number of entries in the most recently mutated ledger.",
		}, []string{"ledger"}), "bookcart_ledger_last_size"),
	}
}

// RecordCommand увеличивает счётчик применённых команд.
func (m *LedgerMetrics) RecordCommand(ledger, command string, size int) {
	m.commands.WithLabelValues(ledger, command).Inc()
	m.items.WithLabelValues(ledger).Set(float64(size))
}

// RecordPersistFailure фиксирует неудачную запись снимка.
func (m *LedgerMetrics) RecordPersistFailure(ledger string) {
	m.persistFailures.WithLabelValues(ledger).Inc()
}

// RecordRehydrate фиксирует результат восстановления: restored, empty или corrupt.
func (m *LedgerMetrics) RecordRehydrate(ledger, result string) {
	m.rehydrations.WithLabelValues(ledger, result).Inc()
}
