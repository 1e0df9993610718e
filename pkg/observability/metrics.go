package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server.
type Metrics struct {
	registry *prometheus.Registry

	HistoryEvents *prometheus.CounterVec   // by event type
	NodesChanged  *prometheus.CounterVec   // by change kind: added, removed, changed
	Persistence   *prometheus.HistogramVec // by operation and outcome
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors under namespace and registers them in a fresh registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HistoryEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_events_total",
			Help:      "Slide history events by type (commit, undo, redo, noop).",
		}, []string{"type"}),
		NodesChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_changed_total",
			Help:      "Nodes added, removed or changed by history events.",
		}, []string{"change"}),
		Persistence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persistence_duration_seconds",
			Help:      "Duration of presentation loads and saves.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.HistoryEvents,
		m.NodesChanged,
		m.Persistence,
		m.HTTPRequests,
		m.HTTPDuration,
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Hooks returns editor lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	history := func(_ context.Context, e *domain.HistoryEvent) {
		m.HistoryEvents.WithLabelValues(string(e.Type)).Inc()
		if e.Diff == nil {
			return
		}
		m.NodesChanged.WithLabelValues("added").Add(float64(len(e.Diff.Added)))
		m.NodesChanged.WithLabelValues("removed").Add(float64(len(e.Diff.Removed)))
		m.NodesChanged.WithLabelValues("changed").Add(float64(len(e.Diff.Changed)))
	}
	persistence := func(_ context.Context, e *domain.PersistenceEvent) {
		outcome := "ok"
		switch {
		case e.Err != nil:
			outcome = "error"
		case e.NotFound:
			outcome = "not_found"
		}
		m.Persistence.WithLabelValues(string(e.Type), outcome).Observe(e.Duration.Seconds())
	}

	return domain.LifecycleHooks{
		OnCommit: history,
		OnUndo:   history,
		OnRedo:   history,
		OnNoop:   history,
		OnLoad:   persistence,
		OnSave:   persistence,
	}
}
