// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue returns the value of the counter name with the given labels,
// or -1 when no such series was gathered.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return -1
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	pt := surfaceTrees(t, WithMetrics(m))
	_, err = pt.GetDrawTransforms(3, 2)
	require.NoError(t, err)
	_, err = pt.GetDrawTransforms(3, 2)
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, reg, "proptree_rebuilds_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "proptree_update_passes_total", map[string]string{"tree": "transform"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "proptree_update_passes_total", map[string]string{"tree": "effect"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "proptree_cache_lookups_total",
		map[string]string{"cache": "draw_transforms", "result": "hit"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "proptree_cache_lookups_total",
		map[string]string{"cache": "draw_transforms", "result": "miss"}))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "proptree_update_duration_seconds")
}

func TestMetrics_AnimationScaleLookups(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	pt, _ := animatedTrees(t, WithMetrics(m))

	lookups := func(result string) float64 {
		return counterValue(t, reg, "proptree_cache_lookups_total",
			map[string]string{"cache": "animation_scales", "result": result})
	}

	// Node 5 and each of its ancestors are computed once.
	_, err = pt.GetAnimationScales(5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, lookups("miss"))
	assert.Equal(t, -1.0, lookups("hit"))

	// Node 3 shares ancestor 2 with node 5.
	_, err = pt.GetAnimationScales(3)
	require.NoError(t, err)
	_, err = pt.GetAnimationScales(5)
	require.NoError(t, err)
	assert.Equal(t, 6.0, lookups("miss"))
	assert.Equal(t, 2.0, lookups("hit"))

	_, stats := pt.CacheStats()
	assert.Equal(t, 6, stats.Len)
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 6, stats.Misses)
}

func TestNewMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	NewPropertyTrees(WithMetrics(first)).UpdateAll()
	NewPropertyTrees(WithMetrics(second)).UpdateAll()

	assert.Equal(t, 2.0, counterValue(t, reg, "proptree_update_passes_total", map[string]string{"tree": "effect"}))
}

func TestNewMetrics_Conflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "proptree",
		Name:      "rebuilds_total",
		Help:      "Something else.",
	}))
	_, err := NewMetrics(reg)
	require.Error(t, err)
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.cacheLookup(cacheDrawTransforms, true)
		m.updatePass("transform")
		m.rebuild()
	})

	pt := NewPropertyTrees()
	assert.NotPanics(t, func() {
		pt.UpdateAll()
		_, _ = pt.GetDrawTransforms(RootNodeID, RootNodeID)
	})
}
