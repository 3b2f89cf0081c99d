// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache names used as the "cache" label of the lookup counter.
const (
	cacheDrawTransforms  = "draw_transforms"
	cacheAnimationScales = "animation_scales"
)

// Metrics holds the prometheus instruments updated by PropertyTrees.
// A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups   *prometheus.CounterVec
	updatePasses   *prometheus.CounterVec
	updateDuration *prometheus.HistogramVec
	rebuilds       prometheus.Counter
}

// NewMetrics creates the instruments and registers them with reg. Creating
// metrics twice against the same registerer reuses the registered
// collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proptree",
			Name:      "cache_lookups_total",
			Help:      "Memoized draw transform and animation scale lookups by result.",
		}, []string{"cache", "result"}),
		updatePasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proptree",
			Name:      "update_passes_total",
			Help:      "Full update passes by tree.",
		}, []string{"tree"}),
		updateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "proptree",
			Name:      "update_duration_seconds",
			Help:      "Duration of full update passes.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 14),
		}, []string{"tree"}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proptree",
			Name:      "rebuilds_total",
			Help:      "Property tree rebuilds.",
		}),
	}

	var err error
	if m.cacheLookups, err = register(reg, m.cacheLookups); err != nil {
		return nil, err
	}
	if m.updatePasses, err = register(reg, m.updatePasses); err != nil {
		return nil, err
	}
	if m.updateDuration, err = register(reg, m.updateDuration); err != nil {
		return nil, err
	}
	if m.rebuilds, err = register(reg, m.rebuilds); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, returning the already registered collector when
// an identical one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("proptree: register metrics: %w", err)
	}
	return c, nil
}

func (m *Metrics) cacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) updatePass(tree string) {
	if m == nil {
		return
	}
	m.updatePasses.WithLabelValues(tree).Inc()
}

// observeUpdate records the duration of a pass started at start.
func (m *Metrics) observeUpdate(tree string, start time.Time) {
	if m == nil {
		return
	}
	m.updateDuration.WithLabelValues(tree).Observe(time.Since(start).Seconds())
}

func (m *Metrics) rebuild() {
	if m == nil {
		return
	}
	m.rebuilds.Inc()
}
