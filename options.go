// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

// Mode identifies which of the three pipelined tree instances a
// PropertyTrees value plays.
type Mode int

const (
	// ModeMain is the authoring instance owned by the main thread.
	ModeMain Mode = iota
	// ModePending is the in-flight instance waiting for activation.
	ModePending
	// ModeActive is the instance currently being drawn.
	ModeActive
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeMain:
		return "main"
	case ModePending:
		return "pending"
	case ModeActive:
		return "active"
	default:
		return "unknown"
	}
}

// Option configures a PropertyTrees during creation.
//
// Example:
//
//	// Main-thread trees, silent and without metrics
//	main := proptree.NewPropertyTrees()
//
//	// Active trees reporting cache metrics
//	m, _ := proptree.NewMetrics(prometheus.DefaultRegisterer)
//	active := proptree.NewPropertyTrees(
//	    proptree.WithMode(proptree.ModeActive),
//	    proptree.WithMetrics(m),
//	)
type Option func(*options)

// options holds optional configuration for PropertyTrees creation.
type options struct {
	mode            Mode
	metrics         *Metrics
	animationScales AnimationScaleProvider
	scaleContents   bool
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		mode:          ModeMain,
		scaleContents: true,
	}
}

// WithMode sets the instance role. The default is ModeMain.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithMetrics attaches prometheus instruments created by NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithAnimationScaleProvider sets the animation host queried by
// GetAnimationScales for nodes with scale animations.
func WithAnimationScaleProvider(p AnimationScaleProvider) Option {
	return func(o *options) {
		o.animationScales = p
	}
}

// WithLayerTransformsScaleContents controls whether layer transforms
// affect raster scale. When disabled GetAnimationScales always reports 0.
func WithLayerTransformsScaleContents(enabled bool) Option {
	return func(o *options) {
		o.scaleContents = enabled
	}
}
