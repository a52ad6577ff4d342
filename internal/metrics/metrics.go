// Package metrics exposes traversal counters in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/shindan/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several engines (and tests) never collide.
type Collector struct {
	registry    *prometheus.Registry
	advances    *prometheus.CounterVec
	results     *prometheus.CounterVec
	usageErrors *prometheus.CounterVec
}

// New registers the shindan counters plus the Go runtime collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		advances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shindan_advance_total",
				Help: "Total number of answered questions",
			},
			[]string{"node_id"},
		),
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shindan_result_total",
				Help: "Total number of walks that reached a result",
			},
			[]string{"result_id"},
		),
		usageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shindan_usage_errors_total",
				Help: "Total number of rejected traversal calls",
			},
			[]string{"reason"},
		),
	}
	c.registry.MustRegister(
		c.advances,
		c.results,
		c.usageErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Hooks returns lifecycle hooks that feed the counters.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAdvance: func(_ context.Context, e *domain.AdvanceEvent) {
			c.advances.WithLabelValues(e.FromID).Inc()
		},
		OnResult: func(_ context.Context, e *domain.AdvanceEvent) {
			c.results.WithLabelValues(e.ToID).Inc()
		},
		OnUsageError: func(_ context.Context, e *domain.UsageEvent) {
			c.usageErrors.WithLabelValues(Reason(e.Err)).Inc()
		},
	}
}

// Handler serves the registry at /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry (e.g. for testutil).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Reason maps a usage error to a low-cardinality label.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownNode):
		return "unknown_node"
	case errors.Is(err, domain.ErrTerminalNode):
		return "terminal_node"
	case errors.Is(err, domain.ErrAnswerOutOfRange):
		return "answer_out_of_range"
	default:
		return "other"
	}
}

// Advances returns the per-question counter.
func (c *Collector) Advances() *prometheus.CounterVec { return c.advances }

// Results returns the per-result counter.
func (c *Collector) Results() *prometheus.CounterVec { return c.results }

// UsageErrors returns the rejected-call counter.
func (c *Collector) UsageErrors() *prometheus.CounterVec { return c.usageErrors }
