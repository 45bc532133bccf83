package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 流水线各阶段的 prometheus 指标
type Metrics struct {
	JobsScheduled   prometheus.Counter
	JobsDropped     prometheus.Counter
	Outcomes        *prometheus.CounterVec // labels: kind
	Deactivations   prometheus.Counter
	Signals         *prometheus.CounterVec // labels: status=emitted|delivered|dropped
	CalculationDur  prometheus.Histogram
	InFlight        prometheus.Gauge
	PersistFailures prometheus.Counter
}

// NewMetrics reg 为 nil 时不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strategy_monitor_jobs_scheduled_total",
			Help: "Evaluation jobs handed to the calculation queue",
		}),
		JobsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strategy_monitor_jobs_dropped_total",
			Help: "Evaluation jobs dropped because the calculation queue was full",
		}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strategy_monitor_cycle_outcomes_total",
			Help: "Evaluation cycle outcomes by failure kind, ok for success",
		}, []string{"kind"}),
		Deactivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strategy_monitor_deactivations_total",
			Help: "Strategies deactivated after too many consecutive failures",
		}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strategy_monitor_signals_total",
			Help: "Signals by status",
		}, []string{"status"}),
		CalculationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "strategy_monitor_calculation_duration_seconds",
			Help:    "Fetch and evaluation latency per job",
			Buckets: prometheus.DefBuckets,
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "strategy_monitor_in_flight_strategies",
			Help: "Strategies currently leased by the pipeline",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strategy_monitor_persist_failures_total",
			Help: "Failed writes of strategy monitoring state",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.JobsScheduled,
			m.JobsDropped,
			m.Outcomes,
			m.Deactivations,
			m.Signals,
			m.CalculationDur,
			m.InFlight,
			m.PersistFailures,
		)
	}
	return m
}
