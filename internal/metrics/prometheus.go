package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the admission and ledger collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	AdmissionDecisions *prometheus.CounterVec
	AdmissionDuration  prometheus.Histogram

	LedgerOperations *prometheus.CounterVec
	LedgerDuration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AdmissionDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_admission_decisions_total",
				Help: "Admission decisions by outcome (admitted or failure kind)",
			},
			[]string{"outcome"},
		),
		AdmissionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "clinic_admission_duration_seconds",
				Help:    "Time spent deciding request admission",
				Buckets: prometheus.DefBuckets,
			},
		),
		LedgerOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_ledger_operations_total",
				Help: "Token ledger operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		LedgerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clinic_ledger_operation_duration_seconds",
				Help:    "Token ledger operation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) RecordAdmission(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.AdmissionDecisions.WithLabelValues(outcome).Inc()
	m.AdmissionDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) RecordLedger(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.LedgerOperations.WithLabelValues(operation, result).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
