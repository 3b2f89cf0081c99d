// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package proptree implements compositor property trees.
//
// # Overview
//
// A layer tree is summarized by four parallel trees: transforms, effects
// (opacity, filters, render surfaces, copy requests), clips and scrolling.
// Layers point into the trees by node id. Each tree stores its nodes in an
// indexed array in pre-order, so parents always have smaller ids than
// their children and a single ascending pass updates the whole tree.
//
// # Quick Start
//
//	pt := proptree.NewPropertyTrees(proptree.WithMode(proptree.ModeMain))
//
//	err := pt.Rebuild(func(pt *proptree.PropertyTrees) error {
//	    n := proptree.NewTransformNode()
//	    n.OwnerID = 1
//	    n.Local = geom.Identity().Scale(2, 2)
//	    pt.TransformIDToIndex[1] = pt.TransformTree.Insert(n, proptree.RootNodeID)
//	    return nil
//	})
//
//	pt.UpdateAll()
//	m, ok, err := pt.TransformTree.ComputeTransform(1, proptree.RootNodeID)
//
// # Instances
//
// A compositor keeps three instances: the main-thread instance owned by
// the builder, and the pending and active instances on the compositor
// side. Instances are synchronized with CopyFrom. Scroll offsets follow a
// separate protocol: the main thread owns plain offsets, while the pending
// and active instances share one SyncedScrollOffset per scroller so that
// compositor scrolls are visible to both and can be reconciled with the
// next commit.
//
// # Caching
//
// Draw transforms and animation scales are memoized per instance. Entries
// are stamped with the generation in which they were computed; bumping the
// generation with UpdateCachedNumber invalidates all of them at once.
//
// # Concurrency
//
// An instance is not safe for concurrent use. Distinct instances may be
// used from different goroutines.
//
// # Observability
//
// Logging goes through log/slog; see SetLogger. Cache hit rates and update
// pass timings are exported to Prometheus when WithMetrics is given.
// AsTracedValue renders an instance as JSON and MarshalTLS encodes it in
// binary form.
package proptree

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
