package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redirect_controller"

// Metrics holds every collector of the operator on its own registry
type Metrics struct {
	registry *prometheus.Registry

	reconcileRuns     prometheus.Counter
	reconcileFailures *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpFailures      *prometheus.CounterVec
	leader            prometheus.Gauge
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Reconciliation attempts.",
		}),
		reconcileFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "failures_total",
			Help:      "Failed reconciliation attempts by redirect and error kind.",
		}, []string{"instance", "error"}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Duration of reconciliation attempts, failed ones included.",
			Buckets:   []float64{0.01, 0.1, 0.25, 0.5, 1, 5, 15, 60},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Redirects served by requested host.",
		}, []string{"host"}),
		httpFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "failures_total",
			Help:      "Requests without a matching redirect by requested host.",
		}, []string{"host"}),
		leader: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "leader",
			Help:      "1 while this replica holds the leader lease.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reconcileRuns,
		m.reconcileFailures,
		m.reconcileDuration,
		m.httpRequests,
		m.httpFailures,
		m.leader,
	)
	return m
}

// Registry backing the exposition handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the text exposition format. Encoding errors are reported
// through the response, they never abort collection.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
		Registry:      m.registry,
	})
}

// Measurer observes the duration of one reconciliation attempt
type Measurer struct {
	start time.Time
	hist  prometheus.Histogram
}

// Done records the elapsed time since CountAndMeasure
func (d *Measurer) Done() {
	d.hist.Observe(time.Since(d.start).Seconds())
}

// CountAndMeasure counts a reconciliation attempt and starts its timer
func (m *Metrics) CountAndMeasure() *Measurer {
	m.reconcileRuns.Inc()
	return &Measurer{start: time.Now(), hist: m.reconcileDuration}
}

// ReconcileFailure counts a failed attempt for instance, labelled by error kind
func (m *Metrics) ReconcileFailure(instance, errorLabel string) {
	m.reconcileFailures.WithLabelValues(instance, errorLabel).Inc()
}

// HTTPRequest counts a served redirect
func (m *Metrics) HTTPRequest(host string) {
	m.httpRequests.WithLabelValues(host).Inc()
}

// HTTPFailure counts a request without a matching redirect
func (m *Metrics) HTTPFailure(host string) {
	m.httpFailures.WithLabelValues(host).Inc()
}

// SetLeader records the leadership state of this replica
func (m *Metrics) SetLeader(leading bool) {
	if leading {
		m.leader.Set(1)
		return
	}
	m.leader.Set(0)
}
