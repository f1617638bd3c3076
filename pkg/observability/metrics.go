package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/genui/pkg/domain"
)

const namespace = "genui"

// Metrics holds the collectors fed by Hooks, on a registry of its own.
type Metrics struct {
	registry *prometheus.Registry

	generations    *prometheus.CounterVec
	firstChunk     prometheus.Histogram
	generationTime *prometheus.HistogramVec
	toolCalls      *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	misses         *prometheus.CounterVec
	failures       *prometheus.CounterVec
	heals          *prometheus.CounterVec
	actions        *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. Process and Go runtime
// collectors are included.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Streamed generations by outcome.",
		}, []string{"outcome"}),
		firstChunk: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "first_chunk_seconds",
			Help:      "Time from request to the first streamed chunk.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		generationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of streamed generations.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool and result.",
		}, []string{"tool_name", "result"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of tool executions.",
		}, []string{"tool_name"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_misses_total",
			Help:      "Nodes whose key matched no component, by the unknown key.",
		}, []string{"key"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_failures_total",
			Help:      "Subtrees that failed to render, by component.",
		}, []string{"component"}),
		heals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heals_total",
			Help:      "Self-heal attempts by result.",
		}, []string{"result"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Dispatched actions by type.",
		}, []string{"type", "handled"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.generations, m.firstChunk, m.generationTime,
		m.toolCalls, m.toolDuration,
		m.misses, m.failures, m.heals, m.actions,
	)
	return m
}

// Registry exposes the registry, e.g. for tests or extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks records lifecycle events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFirstChunk: func(_ context.Context, e *domain.GenerationEvent) {
			m.firstChunk.Observe(e.Elapsed.Seconds())
		},
		OnGenerationEnd: func(_ context.Context, e *domain.GenerationEvent) {
			outcome := string(e.Outcome)
			m.generations.WithLabelValues(outcome).Inc()
			m.generationTime.WithLabelValues(outcome).Observe(e.Elapsed.Seconds())
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			result := "ok"
			if e.IsError {
				result = "error"
			}
			m.toolCalls.WithLabelValues(e.ToolName, result).Inc()
			m.toolDuration.WithLabelValues(e.ToolName).Observe(e.Elapsed.Seconds())
		},
		OnClassificationMiss: func(_ context.Context, e *domain.NodeEvent) {
			for _, k := range e.Keys {
				m.misses.WithLabelValues(k).Inc()
			}
		},
		OnRenderFailure: func(_ context.Context, e *domain.NodeEvent) {
			m.failures.WithLabelValues(e.Component).Inc()
		},
		OnHeal: func(_ context.Context, e *domain.NodeEvent) {
			result := "failed"
			if e.Healed {
				result = "healed"
			}
			m.heals.WithLabelValues(result).Inc()
		},
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			handled := "false"
			if e.Handled {
				handled = "true"
			}
			m.actions.WithLabelValues(string(e.Action.Type), handled).Inc()
		},
	}
}
