// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/proptree"
	"github.com/gogpu/proptree/internal/config"
	"github.com/gogpu/proptree/internal/scenefile"
)

var modes = map[string]proptree.Mode{
	config.ModeMain:    proptree.ModeMain,
	config.ModePending: proptree.ModePending,
	config.ModeActive:  proptree.ModeActive,
}

// session is a loaded scene committed to the instance selected by the
// mode setting.
type session struct {
	cfg   *config.Config
	scene *scenefile.Scene

	// registry is nil unless metrics are enabled.
	registry *prometheus.Registry
	metrics  *proptree.Metrics

	// main is the instance the scene was built into. trees is the
	// instance being inspected and may be main itself.
	main  *proptree.PropertyTrees
	trees *proptree.PropertyTrees
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}

	if g.format != "" {
		cfg.Output.Format = g.format
	}
	if g.mode != "" {
		cfg.Trees.Mode = g.mode
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate flags: %w", err)
	}
	return cfg, nil
}

// setupLogger routes library logging to w at the configured level.
func setupLogger(level string, w io.Writer) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	proptree.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// openSession loads the scene at path, builds it on a main-thread
// instance and commits it down to the configured instance.
func openSession(g *globalFlags, path string, stderr io.Writer) (*session, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	if err := setupLogger(cfg.Log.Level, stderr); err != nil {
		return nil, err
	}

	scene, err := scenefile.Load(path)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, scene: scene}
	if cfg.Trees.Metrics {
		s.registry = prometheus.NewRegistry()
		s.metrics, err = proptree.NewMetrics(s.registry)
		if err != nil {
			return nil, err
		}
	}

	s.main = s.newTrees(proptree.ModeMain)
	err = s.main.Rebuild(func(pt *proptree.PropertyTrees) error {
		return scene.Build(pt, scenefile.BuildOptions{
			DeviceScaleFactor: cfg.Scene.DeviceScaleFactor,
			PageScaleFactor:   cfg.Scene.PageScaleFactor,
			OnCopyResult: func(layerID int, res proptree.CopyOutputResult) {
				proptree.Logger().Info("ptdump: copy request finished",
					"layer", layerID, "empty", res.IsEmpty())
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	s.main.UpdateAll()

	s.trees, err = s.commit(modes[cfg.Trees.Mode])
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) newTrees(mode proptree.Mode) *proptree.PropertyTrees {
	return proptree.NewPropertyTrees(
		proptree.WithMode(mode),
		proptree.WithMetrics(s.metrics),
		proptree.WithAnimationScaleProvider(s.scene.AnimationHost()),
		proptree.WithLayerTransformsScaleContents(s.cfg.Trees.ScaleContents),
	)
}

// commit copies the main instance into a pending instance and, for the
// active mode, activates the pending one. Copy requests travel with the
// trees.
func (s *session) commit(mode proptree.Mode) (*proptree.PropertyTrees, error) {
	if mode == proptree.ModeMain {
		return s.main, nil
	}

	pending := s.newTrees(proptree.ModePending)
	pending.CopyFrom(s.main)
	if err := pending.ScrollTree.PushScrollUpdatesFromMainThread(s.main, nil); err != nil {
		return nil, fmt.Errorf("commit to pending: %w", err)
	}
	s.main.EffectTree.PushCopyRequestsTo(&pending.EffectTree)
	pending.UpdateAll()
	if mode == proptree.ModePending {
		return pending, nil
	}

	active := s.newTrees(proptree.ModeActive)
	active.CopyFrom(pending)
	if err := active.ScrollTree.PushScrollUpdatesFromPendingTree(pending, nil); err != nil {
		return nil, fmt.Errorf("activate: %w", err)
	}
	pending.EffectTree.PushCopyRequestsTo(&active.EffectTree)
	active.UpdateAll()
	return active, nil
}

// close aborts copy requests nobody took.
func (s *session) close() {
	s.trees.EffectTree.ClearCopyRequests()
	if s.main != s.trees {
		s.main.EffectTree.ClearCopyRequests()
	}
}
