// Package metrics exposes evaluation counters for Prometheus scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
)

// #region recorder
// Recorder counts evaluations. A nil *Recorder is a no-op.
type Recorder struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	gates       *prometheus.CounterVec
	hri         prometheus.Histogram
}

// NewRecorder registers the collectors on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "h2ready_evaluations_total",
			Help: "Readiness evaluations by resulting class.",
		}, []string{"readiness_class"}),
		gates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "h2ready_gate_triggers_total",
			Help: "Gate triggers by gate.",
		}, []string{"gate"}),
		hri: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "h2ready_hri",
			Help:    "Distribution of final readiness index values.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 85, 90, 95, 100},
		}),
	}
	r.registry.MustRegister(r.evaluations, r.gates, r.hri)
	return r
}

// Observe records one evaluation result.
func (r *Recorder) Observe(res engine.Result) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(string(res.ReadinessClass)).Inc()
	for _, g := range res.Gates {
		r.gates.WithLabelValues(string(g.Type)).Inc()
	}
	r.hri.Observe(res.HRI)
}

// Registry returns the registry the collectors live on.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// #endregion recorder
