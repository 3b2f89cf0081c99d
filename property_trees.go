// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"fmt"
	"maps"

	"github.com/RoaringBitmap/roaring"

	"github.com/gogpu/proptree/geom"
	"github.com/gogpu/proptree/internal/memo"
)

// TreeType names one of the four trees.
type TreeType int

const (
	TransformTreeType TreeType = iota
	EffectTreeType
	ClipTreeType
	ScrollTreeType
)

// String returns the tree name.
func (t TreeType) String() string {
	switch t {
	case TransformTreeType:
		return "transform"
	case EffectTreeType:
		return "effect"
	case ClipTreeType:
		return "clip"
	case ScrollTreeType:
		return "scroll"
	default:
		return "unknown"
	}
}

type drawTransformsKey struct {
	effectID    int
	transformID int
}

// cachedData holds the memoized cross-tree results. Entries stored in an
// older generation are stale.
type cachedData struct {
	updateNumber    memo.Generation
	drawTransforms  *memo.Table[drawTransformsKey, DrawTransforms]
	animationScales *memo.Table[int, animationScaleData]
}

func newCachedData() cachedData {
	return cachedData{
		drawTransforms:  memo.New[drawTransformsKey, DrawTransforms](),
		animationScales: memo.New[int, animationScaleData](),
	}
}

// PropertyTrees owns the four trees of one instance and answers queries
// that span them.
//
// A PropertyTrees must not be copied by value: its trees point back at it.
// Use CopyFrom to synchronize instances.
type PropertyTrees struct {
	TransformTree TransformTree
	EffectTree    EffectTree
	ClipTree      ClipTree
	ScrollTree    ScrollTree

	// Owner id to node id maps, maintained by the builder.
	TransformIDToIndex map[int]int
	EffectIDToIndex    map[int]int
	ClipIDToIndex      map[int]int
	ScrollIDToIndex    map[int]int

	NeedsRebuild           bool
	NonRootSurfacesEnabled bool
	Changed                bool
	FullTreeDamaged        bool
	SequenceNumber         int

	IsMainThread bool
	IsActive     bool

	innerViewportContainerBoundsDelta geom.Vector2D
	outerViewportContainerBoundsDelta geom.Vector2D
	innerViewportScrollBoundsDelta    geom.Vector2D

	cached cachedData

	metrics         *Metrics
	animationScales AnimationScaleProvider
	scaleContents   bool
	rebuilding      bool
}

// NewPropertyTrees creates an instance with four root-only trees.
func NewPropertyTrees(opts ...Option) *PropertyTrees {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	pt := &PropertyTrees{
		TransformIDToIndex:     make(map[int]int),
		EffectIDToIndex:        make(map[int]int),
		ClipIDToIndex:          make(map[int]int),
		ScrollIDToIndex:        make(map[int]int),
		NeedsRebuild:           true,
		NonRootSurfacesEnabled: true,
		IsMainThread:           o.mode == ModeMain,
		IsActive:               o.mode == ModeActive,
		cached:                 newCachedData(),
		metrics:                o.metrics,
		animationScales:        o.animationScales,
		scaleContents:          o.scaleContents,
	}
	pt.TransformTree.init()
	pt.EffectTree.init()
	pt.ClipTree.init()
	pt.ScrollTree.init()
	pt.wire()
	return pt
}

func (pt *PropertyTrees) wire() {
	pt.TransformTree.SetPropertyTrees(pt)
	pt.EffectTree.SetPropertyTrees(pt)
	pt.ScrollTree.SetPropertyTrees(pt)
}

// instruments returns the metrics of pt, or nil when pt is nil.
func (pt *PropertyTrees) instruments() *Metrics {
	if pt == nil {
		return nil
	}
	return pt.metrics
}

// Mode returns the role of the instance.
func (pt *PropertyTrees) Mode() Mode {
	switch {
	case pt.IsMainThread:
		return ModeMain
	case pt.IsActive:
		return ModeActive
	default:
		return ModePending
	}
}

// Clear resets every tree and map and marks the instance for rebuild.
func (pt *PropertyTrees) Clear() {
	pt.TransformTree.Clear()
	pt.EffectTree.Clear()
	pt.ClipTree.Clear()
	pt.ScrollTree.Clear()

	clear(pt.TransformIDToIndex)
	clear(pt.EffectIDToIndex)
	clear(pt.ClipIDToIndex)
	clear(pt.ScrollIDToIndex)

	pt.NeedsRebuild = true
	pt.FullTreeDamaged = false
	pt.Changed = false
	pt.NonRootSurfacesEnabled = true
	pt.ResetCachedData()
}

// Rebuild clears the trees and calls build to repopulate them. A rebuild
// started from inside build fails with ErrInvalidState.
func (pt *PropertyTrees) Rebuild(build func(*PropertyTrees) error) error {
	if pt.rebuilding {
		return stateError("Rebuild", "rebuild already in progress")
	}
	pt.rebuilding = true
	defer func() { pt.rebuilding = false }()

	pt.Clear()
	if err := build(pt); err != nil {
		return fmt.Errorf("proptree: rebuild: %w", err)
	}
	pt.NeedsRebuild = false
	pt.SequenceNumber++
	pt.ResetCachedData()
	pt.metrics.rebuild()
	Logger().Debug("proptree: rebuilt",
		"mode", pt.Mode(),
		"sequence", pt.SequenceNumber,
		"transform_nodes", pt.TransformTree.Size(),
		"effect_nodes", pt.EffectTree.Size(),
		"clip_nodes", pt.ClipTree.Size(),
		"scroll_nodes", pt.ScrollTree.Size())
	return nil
}

// CopyFrom replaces the contents of pt with those of from. The scroll
// offsets, the copy requests and the mode flags of pt are kept. The
// currently scrolling node is reset and cached data is cleared.
func (pt *PropertyTrees) CopyFrom(from *PropertyTrees) {
	if pt == from {
		return
	}
	pt.TransformTree.copyFrom(&from.TransformTree)
	pt.EffectTree.copyFrom(&from.EffectTree)
	pt.ClipTree.copyFrom(&from.ClipTree)
	pt.ScrollTree.copyFrom(&from.ScrollTree)

	pt.TransformIDToIndex = maps.Clone(from.TransformIDToIndex)
	pt.EffectIDToIndex = maps.Clone(from.EffectIDToIndex)
	pt.ClipIDToIndex = maps.Clone(from.ClipIDToIndex)
	pt.ScrollIDToIndex = maps.Clone(from.ScrollIDToIndex)

	pt.NeedsRebuild = from.NeedsRebuild
	pt.Changed = from.Changed
	pt.FullTreeDamaged = from.FullTreeDamaged
	pt.NonRootSurfacesEnabled = from.NonRootSurfacesEnabled
	pt.SequenceNumber = from.SequenceNumber

	pt.innerViewportContainerBoundsDelta = from.innerViewportContainerBoundsDelta
	pt.outerViewportContainerBoundsDelta = from.outerViewportContainerBoundsDelta
	pt.innerViewportScrollBoundsDelta = from.innerViewportScrollBoundsDelta

	pt.wire()
	pt.ResetCachedData()
}

// Equal compares the trees, maps and flags of two instances.
func (pt *PropertyTrees) Equal(other *PropertyTrees) bool {
	return pt.TransformTree.Equal(&other.TransformTree) &&
		pt.EffectTree.Equal(&other.EffectTree) &&
		pt.ClipTree.Equal(&other.ClipTree) &&
		pt.ScrollTree.Equal(&other.ScrollTree) &&
		maps.Equal(pt.TransformIDToIndex, other.TransformIDToIndex) &&
		maps.Equal(pt.EffectIDToIndex, other.EffectIDToIndex) &&
		maps.Equal(pt.ClipIDToIndex, other.ClipIDToIndex) &&
		maps.Equal(pt.ScrollIDToIndex, other.ScrollIDToIndex) &&
		pt.NeedsRebuild == other.NeedsRebuild &&
		pt.Changed == other.Changed &&
		pt.FullTreeDamaged == other.FullTreeDamaged &&
		pt.IsMainThread == other.IsMainThread &&
		pt.IsActive == other.IsActive &&
		pt.NonRootSurfacesEnabled == other.NonRootSurfacesEnabled &&
		pt.SequenceNumber == other.SequenceNumber
}

// UpdateAll runs a transform pass followed by an effect pass.
func (pt *PropertyTrees) UpdateAll() {
	pt.TransformTree.UpdateAllTransforms()
	pt.EffectTree.UpdateAllEffects()
}

// Viewport bounds deltas.

func (pt *PropertyTrees) InnerViewportContainerBoundsDelta() geom.Vector2D {
	return pt.innerViewportContainerBoundsDelta
}

func (pt *PropertyTrees) OuterViewportContainerBoundsDelta() geom.Vector2D {
	return pt.outerViewportContainerBoundsDelta
}

func (pt *PropertyTrees) InnerViewportScrollBoundsDelta() geom.Vector2D {
	return pt.innerViewportScrollBoundsDelta
}

// SetInnerViewportContainerBoundsDelta sets the inner viewport resize
// delta and schedules the nodes positioned against it for update.
func (pt *PropertyTrees) SetInnerViewportContainerBoundsDelta(d geom.Vector2D) {
	if pt.innerViewportContainerBoundsDelta == d {
		return
	}
	pt.innerViewportContainerBoundsDelta = d
	pt.TransformTree.updateInnerViewportContainerBoundsDelta()
}

// SetOuterViewportContainerBoundsDelta sets the outer viewport resize
// delta and schedules the nodes positioned against it for update.
func (pt *PropertyTrees) SetOuterViewportContainerBoundsDelta(d geom.Vector2D) {
	if pt.outerViewportContainerBoundsDelta == d {
		return
	}
	pt.outerViewportContainerBoundsDelta = d
	pt.TransformTree.updateOuterViewportContainerBoundsDelta()
}

// SetInnerViewportScrollBoundsDelta sets the growth of the inner viewport
// scroll bounds.
func (pt *PropertyTrees) SetInnerViewportScrollBoundsDelta(d geom.Vector2D) {
	pt.innerViewportScrollBoundsDelta = d
}

// UpdateCachedNumber starts a new cache generation, invalidating every
// memoized draw transform and animation scale.
func (pt *PropertyTrees) UpdateCachedNumber() {
	pt.cached.updateNumber = pt.cached.updateNumber.Next()
}

// CachedNumber returns the current cache generation.
func (pt *PropertyTrees) CachedNumber() memo.Generation {
	return pt.cached.updateNumber
}

// ResetCachedData drops every memoized entry.
func (pt *PropertyTrees) ResetCachedData() {
	pt.cached.updateNumber = 0
	pt.cached.drawTransforms.Reset()
	pt.cached.animationScales.Reset()
}

// CacheStats returns the statistics of the draw transform and animation
// scale memos.
func (pt *PropertyTrees) CacheStats() (drawTransforms, animationScales memo.Stats) {
	return pt.cached.drawTransforms.Stats(), pt.cached.animationScales.Stats()
}

// UpdateChangeTracking propagates EffectChanged and TransformChanged from
// parents to children.
func (pt *PropertyTrees) UpdateChangeTracking() {
	et := &pt.EffectTree
	for id := ContentsRootNodeID; id < et.Size(); id++ {
		node := et.Node(id)
		et.updateEffectChanged(node, et.Parent(node))
	}
	tt := &pt.TransformTree
	for id := ContentsRootNodeID; id < tt.Size(); id++ {
		node := tt.Node(id)
		tt.updateTransformChanged(node, tt.Parent(node), tt.Node(node.SourceNodeID))
	}
}

// PushChangeTrackingTo marks in target every node changed in pt, then lets
// target propagate the marks. Both instances must have the same shape.
func (pt *PropertyTrees) PushChangeTrackingTo(target *PropertyTrees) error {
	if target.EffectTree.Size() < pt.EffectTree.Size() {
		return fmt.Errorf("proptree: push change tracking: %w",
			&NodeError{Tree: "effect", ID: pt.EffectTree.Size() - 1, Size: target.EffectTree.Size()})
	}
	if target.TransformTree.Size() < pt.TransformTree.Size() {
		return fmt.Errorf("proptree: push change tracking: %w",
			&NodeError{Tree: "transform", ID: pt.TransformTree.Size() - 1, Size: target.TransformTree.Size()})
	}

	changedEffects := roaring.New()
	for id := ContentsRootNodeID; id < pt.EffectTree.Size(); id++ {
		if pt.EffectTree.Node(id).EffectChanged {
			changedEffects.Add(uint32(id))
		}
	}
	changedTransforms := roaring.New()
	for id := ContentsRootNodeID; id < pt.TransformTree.Size(); id++ {
		if pt.TransformTree.Node(id).TransformChanged {
			changedTransforms.Add(uint32(id))
		}
	}

	it := changedEffects.Iterator()
	for it.HasNext() {
		target.EffectTree.Node(int(it.Next())).EffectChanged = true
	}
	it = changedTransforms.Iterator()
	for it.HasNext() {
		target.TransformTree.Node(int(it.Next())).TransformChanged = true
	}

	target.UpdateChangeTracking()
	target.FullTreeDamaged = pt.FullTreeDamaged
	return nil
}

// ResetAllChangeTracking clears every change flag.
func (pt *PropertyTrees) ResetAllChangeTracking() {
	pt.TransformTree.ResetChangeTracking()
	pt.EffectTree.ResetChangeTracking()
	pt.Changed = false
	pt.FullTreeDamaged = false
}

func (pt *PropertyTrees) idToIndex(tree TreeType) map[int]int {
	switch tree {
	case TransformTreeType:
		return pt.TransformIDToIndex
	case EffectTreeType:
		return pt.EffectIDToIndex
	case ClipTreeType:
		return pt.ClipIDToIndex
	case ScrollTreeType:
		return pt.ScrollIDToIndex
	default:
		return nil
	}
}

// IsInIDToIndexMap reports whether ownerID has a node in tree.
func (pt *PropertyTrees) IsInIDToIndexMap(tree TreeType, ownerID int) bool {
	_, ok := pt.idToIndex(tree)[ownerID]
	return ok
}

// NodeIndex returns the node id of ownerID in tree, or InvalidNodeID.
func (pt *PropertyTrees) NodeIndex(tree TreeType, ownerID int) int {
	if id, ok := pt.idToIndex(tree)[ownerID]; ok {
		return id
	}
	return InvalidNodeID
}

// RemoveIDFromIDToIndexMaps forgets ownerID in every tree.
func (pt *PropertyTrees) RemoveIDFromIDToIndexMaps(ownerID int) {
	delete(pt.TransformIDToIndex, ownerID)
	delete(pt.EffectIDToIndex, ownerID)
	delete(pt.ClipIDToIndex, ownerID)
	delete(pt.ScrollIDToIndex, ownerID)
}
