// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"slices"
	"time"

	"github.com/gogpu/proptree/geom"
)

// FilterType identifies a filter operation.
type FilterType uint8

// Filter operations understood by effect nodes.
const (
	FilterGrayscale FilterType = iota
	FilterSepia
	FilterSaturate
	FilterHueRotate
	FilterInvert
	FilterBrightness
	FilterContrast
	FilterOpacity
	FilterBlur
	FilterDropShadow
)

// Filter is one filter operation with its amount.
type Filter struct {
	Type   FilterType
	Amount float64
}

// EffectNode is a node of the EffectTree.
type EffectNode struct {
	TreeNode

	Opacity float64
	// ScreenSpaceOpacity is the product of the effective opacities from
	// the root down to this node. Computed.
	ScreenSpaceOpacity float64

	// IsDrawn is computed by UpdateEffects.
	IsDrawn bool

	HasCopyRequest           bool
	NumCopyRequestsInSubtree int
	HasRenderSurface         bool
	DoubleSided              bool
	SubtreeHidden            bool

	HasPotentialOpacityAnimation bool
	IsCurrentlyAnimatingOpacity  bool

	Filters           []Filter
	BackgroundFilters []Filter

	// HiddenByBackfaceVisibility is computed by UpdateEffects.
	HiddenByBackfaceVisibility bool

	// TransformID is the transform node of the layer that owns the effect.
	TransformID int
	ClipID      int
	// TargetID is the effect node of the render surface this node draws
	// into.
	TargetID int

	// SurfaceContentsScale is computed for nodes with a render surface.
	SurfaceContentsScale geom.Vector2D
	EffectChanged        bool
}

// NewEffectNode returns an opaque, drawn node targeting the contents root.
func NewEffectNode() EffectNode {
	return EffectNode{
		TreeNode:             TreeNode{ID: InvalidNodeID, ParentID: InvalidNodeID, OwnerID: InvalidNodeID},
		Opacity:              1,
		ScreenSpaceOpacity:   1,
		IsDrawn:              true,
		TransformID:          RootNodeID,
		ClipID:               RootNodeID,
		TargetID:             ContentsRootNodeID,
		SurfaceContentsScale: geom.V2(1, 1),
	}
}

// EffectiveOpacity is the node's opacity, or zero when its subtree is
// hidden.
func (n *EffectNode) EffectiveOpacity() float64 {
	if n.SubtreeHidden {
		return 0
	}
	return n.Opacity
}

// EffectTree computes opacity, visibility and surface scale, and routes
// copy output requests to render surfaces.
type EffectTree struct {
	PropertyTree[EffectNode, *EffectNode]

	copyRequests map[int][]*CopyOutputRequest

	propertyTrees *PropertyTrees
}

// NewEffectTree returns a tree holding only the root node.
func NewEffectTree() *EffectTree {
	t := &EffectTree{}
	t.init()
	return t
}

func (t *EffectTree) init() {
	t.PropertyTree = newPropertyTree[EffectNode, *EffectNode]("effect", NewEffectNode)
	t.copyRequests = make(map[int][]*CopyOutputRequest)
}

// SetPropertyTrees wires the back-reference used to reach the transform
// tree and mode flags.
func (t *EffectTree) SetPropertyTrees(pt *PropertyTrees) {
	t.propertyTrees = pt
}

// Clear resets the tree. Pending copy requests are aborted.
func (t *EffectTree) Clear() {
	t.PropertyTree.Clear()
	t.dropCopyRequests()
}

// Equal reports node-wise equality. Copy requests are not compared.
func (t *EffectTree) Equal(other *EffectTree) bool {
	return t.PropertyTree.Equal(&other.PropertyTree)
}

// copyFrom copies the nodes. Copy requests move between instances only
// through PushCopyRequestsTo.
func (t *EffectTree) copyFrom(from *EffectTree) {
	t.PropertyTree.copyFrom(&from.PropertyTree)
	for i := range t.nodes {
		t.nodes[i].Filters = slices.Clone(t.nodes[i].Filters)
		t.nodes[i].BackgroundFilters = slices.Clone(t.nodes[i].BackgroundFilters)
	}
}

func (t *EffectTree) isActive() bool {
	return t.propertyTrees != nil && t.propertyTrees.IsActive
}

func (t *EffectTree) isMainThread() bool {
	return t.propertyTrees == nil || t.propertyTrees.IsMainThread
}

// UpdateEffects refreshes the derived state of node id from its parent.
// It must be called in ascending id order within a pass, after the
// transform tree was updated.
func (t *EffectTree) UpdateEffects(id int) error {
	if err := t.checkID(id); err != nil {
		return err
	}
	t.updateEffects(id)
	return nil
}

// UpdateAllEffects runs UpdateEffects over every node below the root and
// clears the dirty bit.
func (t *EffectTree) UpdateAllEffects() {
	start := time.Now()
	for id := ContentsRootNodeID; id < t.Size(); id++ {
		t.updateEffects(id)
	}
	t.needsUpdate = false

	m := t.propertyTrees.instruments()
	m.updatePass("effect")
	m.observeUpdate("effect", start)
	Logger().Debug("proptree: effect update pass", "nodes", t.Size())
}

func (t *EffectTree) updateEffects(id int) {
	node := t.Node(id)
	parent := t.Parent(node)
	t.updateOpacities(node, parent)
	t.updateIsDrawn(node, parent)
	t.updateEffectChanged(node, parent)
	t.updateBackfaceVisibility(node, parent)
	t.updateSurfaceContentsScale(node)
}

func (t *EffectTree) updateOpacities(node, parent *EffectNode) {
	node.ScreenSpaceOpacity = node.EffectiveOpacity()
	if parent != nil {
		node.ScreenSpaceOpacity *= parent.ScreenSpaceOpacity
	}
}

// updateIsDrawn hides nodes with zero opacity. Copy requests and
// background filters keep a node drawn, as does a potential opacity
// animation outside the active instance.
func (t *EffectTree) updateIsDrawn(node, parent *EffectNode) {
	switch {
	case node.HasCopyRequest:
		node.IsDrawn = true
	case node.EffectiveOpacity() == 0 &&
		(!node.HasPotentialOpacityAnimation || t.isActive()) &&
		len(node.BackgroundFilters) == 0:
		node.IsDrawn = false
	case parent != nil:
		node.IsDrawn = parent.IsDrawn
	default:
		node.IsDrawn = true
	}
}

func (t *EffectTree) updateEffectChanged(node, parent *EffectNode) {
	if parent != nil && parent.EffectChanged {
		node.EffectChanged = true
	}
}

func (t *EffectTree) updateBackfaceVisibility(node, parent *EffectNode) {
	if parent == nil {
		node.HiddenByBackfaceVisibility = false
		return
	}
	if parent.HiddenByBackfaceVisibility {
		node.HiddenByBackfaceVisibility = true
		return
	}
	node.HiddenByBackfaceVisibility = false
	if !node.HasRenderSurface || node.DoubleSided || t.propertyTrees == nil {
		return
	}

	tt := &t.propertyTrees.TransformTree
	tn := tt.Node(node.TransformID)
	if tn == nil || !tn.IsInvertible || !tn.AncestorsAreInvertible {
		return
	}
	if tn.SortingContextID != 0 {
		if pn := tt.Parent(tn); pn != nil && pn.SortingContextID == tn.SortingContextID {
			m, _ := t.propertyTrees.computeTransformToTarget(tn.ID, node.TargetID)
			node.HiddenByBackfaceVisibility = m.IsBackFaceVisible()
			return
		}
	}
	node.HiddenByBackfaceVisibility = tn.Local.IsBackFaceVisible()
}

func (t *EffectTree) updateSurfaceContentsScale(node *EffectNode) {
	if !node.HasRenderSurface || t.propertyTrees == nil {
		node.SurfaceContentsScale = geom.V2(1, 1)
		return
	}
	tt := &t.propertyTrees.TransformTree
	tn := tt.Node(node.TransformID)
	if tn == nil {
		node.SurfaceContentsScale = geom.V2(1, 1)
		return
	}
	f := tt.layerScaleFactor(tn)
	toScreen := tt.ToScreen(tn.ID)
	if toScreen.HasPerspective() {
		node.SurfaceContentsScale = geom.V2(f, f)
		return
	}
	node.SurfaceContentsScale = toScreen.Scale2dComponents(f).Scale(f, f)
}

// ResetChangeTracking clears EffectChanged on every node.
func (t *EffectTree) ResetChangeTracking() {
	for i := range t.nodes {
		t.nodes[i].EffectChanged = false
	}
}

// ContributesToDrawnSurface reports whether node id is drawn into a drawn
// surface. Hidden nodes drawn only for a copy request do not contribute.
func (t *EffectTree) ContributesToDrawnSurface(id int) (bool, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return false, err
	}
	parent := t.Parent(node)
	return node.IsDrawn && (parent == nil || parent.IsDrawn), nil
}

// ClosestAncestorWithCopyRequest returns the nearest node at or above id
// that has a copy request, or InvalidNodeID.
func (t *EffectTree) ClosestAncestorWithCopyRequest(id int) (int, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return InvalidNodeID, err
	}
	for ; node != nil; node = t.Parent(node) {
		if node.HasCopyRequest {
			return node.ID, nil
		}
	}
	return InvalidNodeID, nil
}

// LowestCommonAncestorWithRenderSurface walks both nodes up their target
// chains until they meet.
func (t *EffectTree) LowestCommonAncestorWithRenderSurface(id1, id2 int) (int, error) {
	if err := t.checkID(id1); err != nil {
		return InvalidNodeID, err
	}
	if err := t.checkID(id2); err != nil {
		return InvalidNodeID, err
	}
	for id1 != id2 {
		if id1 < id2 {
			id2 = t.nextTarget(id2)
		} else {
			id1 = t.nextTarget(id1)
		}
		if id1 == InvalidNodeID || id2 == InvalidNodeID {
			return InvalidNodeID, nil
		}
	}
	return id1, nil
}

// nextTarget returns the target of id, falling back to its parent when the
// target would not move up the tree.
func (t *EffectTree) nextTarget(id int) int {
	node := t.Node(id)
	if node == nil {
		return InvalidNodeID
	}
	if node.TargetID >= 0 && node.TargetID < id {
		return node.TargetID
	}
	return node.ParentID
}

// AddCopyRequest queues req on node id.
func (t *EffectTree) AddCopyRequest(id int, req *CopyOutputRequest) error {
	if err := t.checkID(id); err != nil {
		return err
	}
	t.copyRequests[id] = append(t.copyRequests[id], req)
	return nil
}

// CopyRequestCount returns the number of queued requests on node id.
func (t *EffectTree) CopyRequestCount(id int) int {
	return len(t.copyRequests[id])
}

// HasCopyRequests reports whether any request is queued.
func (t *EffectTree) HasCopyRequests() bool {
	return len(t.copyRequests) > 0
}

// PushCopyRequestsTo moves the queued requests into other. Requests still
// queued on other are from a commit that was never drawn; they are
// aborted.
func (t *EffectTree) PushCopyRequestsTo(other *EffectTree) {
	if len(other.copyRequests) > 0 {
		n := abortCopyRequests(other.copyRequests)
		other.copyRequests = make(map[int][]*CopyOutputRequest)
		Logger().Debug("proptree: aborted undrawn copy requests", "count", n)
	}
	if len(t.copyRequests) == 0 {
		return
	}
	for id, reqs := range t.copyRequests {
		other.copyRequests[id] = append(other.copyRequests[id], reqs...)
	}
	t.copyRequests = make(map[int][]*CopyOutputRequest)
	if t.isMainThread() && t.propertyTrees != nil {
		t.propertyTrees.NeedsRebuild = true
	}
}

// TakeCopyRequestsAndTransformToSurface removes the requests queued on
// node id and maps their areas into the space of the node's surface.
func (t *EffectTree) TakeCopyRequestsAndTransformToSurface(id int) ([]*CopyOutputRequest, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return nil, err
	}
	if !node.HasRenderSurface {
		return nil, stateError("TakeCopyRequestsAndTransformToSurface", "node has no render surface")
	}
	reqs := t.copyRequests[id]
	delete(t.copyRequests, id)

	m := geom.Identity()
	if id == ContentsRootNodeID && t.propertyTrees != nil {
		// The root surface maps from the contents root to the device.
		m, _ = t.propertyTrees.TransformTree.computeTransform(ContentsRootNodeID, RootNodeID)
	}
	m = m.PostScale(node.SurfaceContentsScale.X, node.SurfaceContentsScale.Y)

	for _, r := range reqs {
		if area, ok := r.Area(); ok {
			r.SetArea(m.MapEnclosingRect(area))
		}
	}
	return reqs, nil
}

// ClearCopyRequests aborts every queued request and resets the copy
// request flags of all nodes.
func (t *EffectTree) ClearCopyRequests() {
	for i := range t.nodes {
		t.nodes[i].HasCopyRequest = false
		t.nodes[i].NumCopyRequestsInSubtree = 0
	}
	t.dropCopyRequests()
	t.needsUpdate = true
}

func (t *EffectTree) dropCopyRequests() {
	if n := abortCopyRequests(t.copyRequests); n > 0 {
		Logger().Debug("proptree: aborted copy requests", "count", n)
	}
	t.copyRequests = make(map[int][]*CopyOutputRequest)
}
