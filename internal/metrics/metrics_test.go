package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ReturnsSingleton(t *testing.T) {
	assert.Same(t, New(), New())
}

func TestRecorders(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordClassification("heading", "heuristic")
	m.RecordClassification("heading", "heuristic")
	m.RecordClassification("button", "explicit")
	m.RecordEscalation("agreed")
	m.RecordRuleFailure("icon")
	m.RecordCompositeRewrite("card")
	m.RecordRescued(3)
	m.RecordRescued(0)
	m.RecordShadowDisagreement()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordCacheMiss()
	m.SetCacheSize(7)
	m.ObserveBuild(25 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ClassificationsTotal.WithLabelValues("heading", "heuristic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClassificationsTotal.WithLabelValues("button", "explicit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EscalationsTotal.WithLabelValues("agreed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleFailuresTotal.WithLabelValues("icon")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompositeRewrites.WithLabelValues("card")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RescuedNodesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ShadowDisagreements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenderCacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RenderCacheMisses))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.RenderCacheSize))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BuildDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordClassification("heading", "heuristic")
		m.RecordEscalation("failed")
		m.RecordRuleFailure("x")
		m.RecordCompositeRewrite("hero")
		m.RecordRescued(1)
		m.RecordShadowDisagreement()
		m.RecordCacheHit()
		m.RecordCacheMiss()
		m.SetCacheSize(1)
		m.ObserveBuild(time.Second)
	})
}
