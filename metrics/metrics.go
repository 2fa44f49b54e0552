// Package metrics registers and serves the Prometheus collectors for a
// running World. ecs.NewMetricsObserver feeds GroupDuration, SystemDuration,
// SystemRetriesTotal and SystemFailuresTotal after each group; TicksTotal,
// TickDuration, CommitOpsTotal, ConflictsTotal and EntitiesAlive are
// registered, but nothing in this module updates them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecs_ticks_total",
			Help: "Total number of scheduler ticks completed",
		},
	)

	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ecs_tick_duration_seconds",
			Help:    "Wall-clock duration of a full scheduler tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	GroupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecs_group_duration_seconds",
			Help:    "Duration of one scheduler group's execution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"group"},
	)

	SystemDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecs_system_duration_seconds",
			Help:    "Duration of one system's Run call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"system"},
	)

	SystemRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecs_system_retries_total",
			Help: "Total number of retry attempts made for a system",
		},
		[]string{"system"},
	)

	SystemFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecs_system_failures_total",
			Help: "Total number of system executions that failed after exhausting retries",
		},
		[]string{"system"},
	)

	CommitOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecs_commit_ops_total",
			Help: "Total number of ops applied to storage by apply_result, by kind",
		},
		[]string{"kind"},
	)

	ConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ecs_conflicts_total",
			Help: "Total number of strict-merge conflicts detected between concurrent systems",
		},
	)

	EntitiesAlive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecs_entities_alive",
			Help: "Number of currently live entities, sampled at tick boundaries",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		TickDuration,
		GroupDuration,
		SystemDuration,
		SystemRetriesTotal,
		SystemFailuresTotal,
		CommitOpsTotal,
		ConflictsTotal,
		EntitiesAlive,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing one tick/group/system execution.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
