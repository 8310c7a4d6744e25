// Package promhooks implements the observability hooks with Prometheus
// metrics.
//
//	reg := prometheus.NewRegistry()
//	h := promhooks.New(reg)
//	observability.SetLayoutHooks(h)
//	observability.SetDocumentHooks(h)
//
// All metrics are prefixed with "stacklayout_".
package promhooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/stacklayout/pkg/observability"
)

var (
	_ observability.LayoutHooks   = (*Hooks)(nil)
	_ observability.DocumentHooks = (*Hooks)(nil)
)

// Hooks records layout and document events as Prometheus metrics.
type Hooks struct {
	LayoutPasses    *prometheus.CounterVec
	LayoutDuration  *prometheus.HistogramVec
	LayoutEntities  *prometheus.HistogramVec
	Iterations      *prometheus.CounterVec
	NonConvergence  *prometheus.CounterVec
	Documents       *prometheus.CounterVec
	DocumentLatency *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	return &Hooks{
		LayoutPasses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stacklayout_layout_passes_total",
				Help: "Layout passes by algorithm and result",
			},
			[]string{"algorithm", "result"},
		),
		LayoutDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stacklayout_layout_duration_seconds",
				Help:    "Duration of layout passes",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"algorithm"},
		),
		LayoutEntities: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stacklayout_layout_entities",
				Help:    "Entities per layout pass",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"algorithm"},
		),
		Iterations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stacklayout_iterations_total",
				Help: "Iterations performed by iterative strategies",
			},
			[]string{"algorithm"},
		),
		NonConvergence: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stacklayout_non_convergence_total",
				Help: "Bounded loops that stopped at their cap",
			},
			[]string{"algorithm"},
		),
		Documents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stacklayout_documents_total",
				Help: "Graph documents read and written",
			},
			[]string{"op", "format", "result"},
		),
		DocumentLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stacklayout_document_duration_seconds",
				Help:    "Duration of graph document I/O",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnLayoutStart implements observability.LayoutHooks.
func (h *Hooks) OnLayoutStart(algorithm string, entities int) {
	h.LayoutEntities.WithLabelValues(algorithm).Observe(float64(entities))
}

// OnLayoutComplete implements observability.LayoutHooks.
func (h *Hooks) OnLayoutComplete(algorithm string, duration time.Duration, err error) {
	h.LayoutPasses.WithLabelValues(algorithm, result(err)).Inc()
	h.LayoutDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// OnIteration implements observability.LayoutHooks.
func (h *Hooks) OnIteration(algorithm string, _ int) {
	h.Iterations.WithLabelValues(algorithm).Inc()
}

// OnNonConvergence implements observability.LayoutHooks.
func (h *Hooks) OnNonConvergence(algorithm, _ string) {
	h.NonConvergence.WithLabelValues(algorithm).Inc()
}

// OnDocumentRead implements observability.DocumentHooks.
func (h *Hooks) OnDocumentRead(format string, _, _ int, duration time.Duration, err error) {
	h.Documents.WithLabelValues("read", format, result(err)).Inc()
	h.DocumentLatency.WithLabelValues("read").Observe(duration.Seconds())
}

// OnDocumentWrite implements observability.DocumentHooks.
func (h *Hooks) OnDocumentWrite(format string, duration time.Duration, err error) {
	h.Documents.WithLabelValues("write", format, result(err)).Inc()
	h.DocumentLatency.WithLabelValues("write").Observe(duration.Seconds())
}
