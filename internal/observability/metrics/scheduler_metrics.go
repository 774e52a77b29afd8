package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerMetrics captures occurrence scheduler health signals.
type SchedulerMetrics struct {
	ticks                *prometheus.CounterVec
	tickDuration         prometheus.Observer
	materialized         prometheus.Counter
	provisioningFailures *prometheus.CounterVec
	notified             prometheus.Counter
}

// Config carries the constant labels stamped onto every series.
type Config struct {
	ServiceName string
	Environment string
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig returns the singleton scheduler metrics registry using config labels.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return schedulerMetrics
}

// ResetSchedulerMetricsForTest resets the scheduler metrics singleton for tests.
func ResetSchedulerMetricsForTest() {
	schedulerMetricsOnce = sync.Once{}
	schedulerMetrics = nil
}

func newSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "attendly"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "attendly_scheduler_ticks_total",
		Help:        "Scheduler poll cycles by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "attendly_scheduler_tick_duration_seconds",
		Help:        "Scheduler poll cycle latency including external provisioning calls.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		ConstLabels: constLabels,
	})
	materialized := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "attendly_occurrences_materialized_total",
		Help:        "Occurrences created from recurrence rules.",
		ConstLabels: constLabels,
	})
	provisioningFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "attendly_provisioning_failures_total",
		Help:        "External provisioning failures by collaborator.",
		ConstLabels: constLabels,
	}, []string{"collaborator"})
	notified := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "attendly_occurrences_notified_total",
		Help:        "Occurrences flagged as notified inside the lookahead window.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		ticks,
		tickDuration,
		materialized,
		provisioningFailures,
		notified,
	)

	return &SchedulerMetrics{
		ticks:                ticks,
		tickDuration:         tickDuration,
		materialized:         materialized,
		provisioningFailures: provisioningFailures,
		notified:             notified,
	}
}

// IncTick increments the poll cycle counter with an ok/error outcome.
func (m *SchedulerMetrics) IncTick(err error) {
	if m == nil || m.ticks == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ticks.WithLabelValues(outcome).Inc()
}

// ObserveTickDuration records poll cycle latency in seconds.
func (m *SchedulerMetrics) ObserveTickDuration(duration time.Duration) {
	if m == nil || m.tickDuration == nil {
		return
	}
	m.tickDuration.Observe(duration.Seconds())
}

// IncMaterialized increments the created-occurrence counter.
func (m *SchedulerMetrics) IncMaterialized() {
	if m == nil || m.materialized == nil {
		return
	}
	m.materialized.Inc()
}

// IncProvisioningFailure counts a failed external provisioning call.
func (m *SchedulerMetrics) IncProvisioningFailure(collaborator string) {
	if m == nil || m.provisioningFailures == nil {
		return
	}
	m.provisioningFailures.WithLabelValues(collaborator).Inc()
}

// IncNotified increments the notified-occurrence counter.
func (m *SchedulerMetrics) IncNotified() {
	if m == nil || m.notified == nil {
		return
	}
	m.notified.Inc()
}
