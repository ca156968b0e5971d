package internal

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "consent"

// Metrics groups the analyser's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	dispatches    *prometheus.CounterVec
	failures      *prometheus.CounterVec
	embedLatency  *prometheus.HistogramVec
	embedFailures *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dispatch_total",
			Help:      "Analysed replies by action and result.",
		}, []string{"action", "result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dispatch_errors_total",
			Help:      "Failed analyses by action and error kind.",
		}, []string{"action", "kind"}),
		embedLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "embedding_duration_seconds",
			Help:      "Latency of embedding provider calls.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"backend", "op"}),
		embedFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "embedding_errors_total",
			Help:      "Failed embedding provider calls.",
		}, []string{"backend"}),
	}

	reg.MustRegister(m.dispatches, m.failures, m.embedLatency, m.embedFailures)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDispatch(action Action, result string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(action.String(), result).Inc()
}

func (m *Metrics) ObserveFailure(action Action, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(action.String(), kind).Inc()
}

// Instrument wraps e so that every provider call is timed.
func (m *Metrics) Instrument(e Embedder, backend string) Embedder {
	if m == nil {
		return e
	}
	return &instrumentedEmbedder{next: e, backend: backend, metrics: m}
}

type instrumentedEmbedder struct {
	next    Embedder
	backend string
	metrics *Metrics
}

func (i *instrumentedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := i.next.Embed(ctx, text)
	i.observe("embed", start, err)
	return vec, err
}

func (i *instrumentedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := i.next.EmbedBatch(ctx, texts)
	i.observe("embed_batch", start, err)
	return vecs, err
}

func (i *instrumentedEmbedder) Dimension() int {
	return i.next.Dimension()
}

func (i *instrumentedEmbedder) Close() error {
	return i.next.Close()
}

func (i *instrumentedEmbedder) observe(op string, start time.Time, err error) {
	i.metrics.embedLatency.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		i.metrics.embedFailures.WithLabelValues(i.backend).Inc()
	}
}
