package ecs

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/extensivelabs/ecs/metrics"
)

// Logger captures structured log output from the scheduler and its systems.
type Logger interface {
	With(key string, value any) Logger
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Tracer coordinates tracing spans for observability tooling external to the
// built-in logging/metrics observers.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, TraceSpan)
}

// TraceSpan represents an active tracing region.
type TraceSpan interface {
	End()
}

type noopLogger struct{}

func (noopLogger) With(string, any) Logger       { return noopLogger{} }
func (noopLogger) Info(string, ...any)           {}
func (noopLogger) Error(string, ...any)          {}

// GroupSummary captures one scheduler group's execution outcome within a tick.
type GroupSummary struct {
	GroupIndex      int
	Tick            uint64
	Duration        time.Duration
	SystemsTotal    int
	SystemsExecuted int
	SystemsFailed   int
	Err             error
	Systems         []SystemSummary
}

// SystemSummary captures one system's single execution outcome.
type SystemSummary struct {
	Name     string
	Duration time.Duration
	Attempts int
	Mode     SystemMode
	Ops      int
	Err      error
}

// TickObserver receives a summary after each group completes.
type TickObserver interface {
	GroupCompleted(summary GroupSummary)
}

type noopObserver struct{}

func (noopObserver) GroupCompleted(GroupSummary) {}

type compositeObserver struct {
	observers []TickObserver
}

func (c compositeObserver) GroupCompleted(summary GroupSummary) {
	for _, o := range c.observers {
		o.GroupCompleted(summary)
	}
}

// NewObserverChain combines several observers into one, skipping any nil
// entries. Returns a no-op observer if none are given.
func NewObserverChain(observers ...TickObserver) TickObserver {
	var filtered []TickObserver
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return noopObserver{}
	case 1:
		return filtered[0]
	default:
		return compositeObserver{observers: filtered}
	}
}

type loggingObserver struct {
	logger Logger
}

// NewLoggingObserver logs one structured line per completed group.
func NewLoggingObserver(logger Logger) TickObserver {
	if logger == nil {
		return noopObserver{}
	}
	return loggingObserver{logger: logger}
}

func (o loggingObserver) GroupCompleted(summary GroupSummary) {
	payload := map[string]any{
		"group":            summary.GroupIndex,
		"tick":             summary.Tick,
		"duration_ms":      float64(summary.Duration) / float64(time.Millisecond),
		"systems_total":    summary.SystemsTotal,
		"systems_executed": summary.SystemsExecuted,
		"systems_failed":   summary.SystemsFailed,
	}
	if summary.Err != nil {
		payload["error"] = summary.Err.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.Error("group summary marshal error", "err", err)
		return
	}
	o.logger.Info(string(data))
}

type metricsObserver struct{}

// NewMetricsObserver publishes each completed group's outcome to the
// metrics package's Prometheus collectors.
func NewMetricsObserver() TickObserver {
	return metricsObserver{}
}

func (metricsObserver) GroupCompleted(summary GroupSummary) {
	metrics.GroupDuration.WithLabelValues(groupLabel(summary.GroupIndex)).Observe(summary.Duration.Seconds())
	for _, sys := range summary.Systems {
		metrics.SystemDuration.WithLabelValues(sys.Name).Observe(sys.Duration.Seconds())
		if sys.Attempts > 1 {
			metrics.SystemRetriesTotal.WithLabelValues(sys.Name).Add(float64(sys.Attempts - 1))
		}
		if sys.Err != nil {
			metrics.SystemFailuresTotal.WithLabelValues(sys.Name).Inc()
		}
	}
}

func groupLabel(index int) string {
	return "group-" + strconv.Itoa(index)
}
