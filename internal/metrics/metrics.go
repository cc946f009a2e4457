// Package metrics holds the Prometheus collectors for classification runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds figclass collectors. Methods are safe on a nil receiver so
// components can run without metrics.
type Metrics struct {
	ClassificationsTotal *prometheus.CounterVec
	EscalationsTotal     *prometheus.CounterVec
	RuleFailuresTotal    *prometheus.CounterVec
	CompositeRewrites    *prometheus.CounterVec
	RescuedNodesTotal    prometheus.Counter
	ShadowDisagreements  prometheus.Counter

	RenderCacheHits   prometheus.Counter
	RenderCacheMisses prometheus.Counter
	RenderCacheSize   prometheus.Gauge

	BuildDuration prometheus.Histogram
}

// New registers the collectors with the default registry once and returns
// the shared instance.
//
//   - figclass_classifications_total{kind,method}
//   - figclass_escalations_total{outcome}
//   - figclass_rule_failures_total{rule}
//   - figclass_composite_rewrites_total{pattern}
//   - figclass_rescued_nodes_total
//   - figclass_shadow_disagreements_total
//   - figclass_render_cache_hits_total, _misses_total, figclass_render_cache_size
//   - figclass_build_duration_seconds
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics(promauto.With(prometheus.DefaultRegisterer))
	})
	return globalMetrics
}

// NewWithRegistry registers a fresh set of collectors on reg. Tests use it
// to keep counts isolated.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		ClassificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "figclass_classifications_total",
			Help: "Nodes classified, by widget kind and decision method",
		}, []string{"kind", "method"}),
		EscalationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "figclass_escalations_total",
			Help: "Verifier consultations by outcome (agreed, overridden, kept, failed, skipped)",
		}, []string{"outcome"}),
		RuleFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "figclass_rule_failures_total",
			Help: "Heuristic rules that panicked or returned an invalid candidate",
		}, []string{"rule"}),
		CompositeRewrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "figclass_composite_rewrites_total",
			Help: "Containers collapsed into composite widgets, by pattern",
		}, []string{"pattern"}),
		RescuedNodesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "figclass_rescued_nodes_total",
			Help: "Visible source nodes recovered by the rescue pass",
		}),
		ShadowDisagreements: f.NewCounter(prometheus.CounterOpts{
			Name: "figclass_shadow_disagreements_total",
			Help: "Nodes where the keyword baseline disagreed with the decision",
		}),
		RenderCacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "figclass_render_cache_hits_total",
			Help: "Render cache hits",
		}),
		RenderCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "figclass_render_cache_misses_total",
			Help: "Render cache misses",
		}),
		RenderCacheSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "figclass_render_cache_size",
			Help: "Rendered images currently cached",
		}),
		BuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "figclass_build_duration_seconds",
			Help:    "Time to build a widget schema from a design tree",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
}

// RecordClassification counts one decided node.
func (m *Metrics) RecordClassification(kind, method string) {
	if m == nil {
		return
	}
	m.ClassificationsTotal.WithLabelValues(kind, method).Inc()
}

// RecordEscalation counts one verifier consultation outcome.
func (m *Metrics) RecordEscalation(outcome string) {
	if m == nil {
		return
	}
	m.EscalationsTotal.WithLabelValues(outcome).Inc()
}

// RecordRuleFailure counts one failed rule evaluation.
func (m *Metrics) RecordRuleFailure(rule string) {
	if m == nil {
		return
	}
	m.RuleFailuresTotal.WithLabelValues(rule).Inc()
}

// RecordCompositeRewrite counts one collapsed motif.
func (m *Metrics) RecordCompositeRewrite(pattern string) {
	if m == nil {
		return
	}
	m.CompositeRewrites.WithLabelValues(pattern).Inc()
}

// RecordRescued counts nodes recovered by the rescue pass.
func (m *Metrics) RecordRescued(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RescuedNodesTotal.Add(float64(n))
}

// RecordShadowDisagreement counts one baseline disagreement.
func (m *Metrics) RecordShadowDisagreement() {
	if m == nil {
		return
	}
	m.ShadowDisagreements.Inc()
}

// RecordCacheHit counts a render cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.RenderCacheHits.Inc()
}

// RecordCacheMiss counts a render cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.RenderCacheMisses.Inc()
}

// SetCacheSize updates the render cache size gauge.
func (m *Metrics) SetCacheSize(size int) {
	if m == nil {
		return
	}
	m.RenderCacheSize.Set(float64(size))
}

// ObserveBuild records one build duration.
func (m *Metrics) ObserveBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
}
