// Package metrics holds the Prometheus collectors of the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/m3rciful/postbot/internal/delivery"
)

const namespace = "postbot"

// Metrics holds all Prometheus metrics for the bot
type Metrics struct {
	Registry *prometheus.Registry

	// Delivery metrics
	Deliveries *prometheus.CounterVec

	// Scheduler metrics
	Ticks        prometheus.Counter
	DuePosts     prometheus.Counter
	TickErrors   prometheus.Counter
	TickDuration prometheus.Histogram

	// Operator flow metrics
	FlowsCompleted *prometheus.CounterVec
}

// New registers every collector on a fresh registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		Registry: reg,
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Scheduled post deliveries by outcome",
		}, []string{"outcome"}),
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_total",
			Help:      "Scheduler sweeps performed",
		}),
		DuePosts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_due_posts_total",
			Help:      "Posts found due across all sweeps",
		}),
		TickErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_tick_errors_total",
			Help:      "Sweeps skipped because the store query failed",
		}),
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_tick_duration_seconds",
			Help:      "Time spent querying and enqueuing one sweep",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		FlowsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_completed_total",
			Help:      "Operator flows finished with a store write",
		}, []string{"flow"}),
	}
	for _, o := range []delivery.Outcome{delivery.OutcomeFormatted, delivery.OutcomeFallback, delivery.OutcomeFailed} {
		m.Deliveries.WithLabelValues(string(o))
	}
	return m
}

// PoolStats is implemented by *sender.Dispatcher.
type PoolStats interface {
	Processed() uint64
	ErrorCount() uint64
}

// ObserveSessions exports the number of live operator sessions.
func (m *Metrics) ObserveSessions(count func() int) error {
	return m.Registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "flow_sessions",
		Help:      "Operators holding a conversation session",
	}, func() float64 { return float64(count()) }))
}

// ObservePool exports the delivery pool's job counters.
func (m *Metrics) ObservePool(p PoolStats) error {
	jobs := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_jobs_total",
		Help:      "Jobs finished by the delivery pool",
	}, func() float64 { return float64(p.Processed()) })
	if err := m.Registry.Register(jobs); err != nil {
		return err
	}
	return m.Registry.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_job_errors_total",
		Help:      "Jobs the delivery pool finished with an error",
	}, func() float64 { return float64(p.ErrorCount()) }))
}

// Delivered implements delivery.Recorder.
func (m *Metrics) Delivered(outcome delivery.Outcome) {
	m.Deliveries.WithLabelValues(string(outcome)).Inc()
}

// FlowCompleted implements flow.Recorder.
func (m *Metrics) FlowCompleted(flow string) {
	m.FlowsCompleted.WithLabelValues(flow).Inc()
}

// TickDone records one finished sweep.
func (m *Metrics) TickDone(due int, seconds float64) {
	m.Ticks.Inc()
	m.DuePosts.Add(float64(due))
	m.TickDuration.Observe(seconds)
}

// TickFailed records a skipped sweep.
func (m *Metrics) TickFailed() {
	m.Ticks.Inc()
	m.TickErrors.Inc()
}
