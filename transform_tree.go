// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"math"
	"reflect"
	"slices"
	"time"

	"github.com/gogpu/proptree/geom"
)

// snapTolerance bounds how far a snapping delta may drift from a pure
// translation before it is considered a numeric error.
const snapTolerance = 1e-4

// TransformTree composes layer transforms into screen and target space.
//
// Each node has a parallel TransformCachedNodeData entry holding its
// screen-space and target-space matrices. UpdateTransforms refreshes one
// node from its parent; UpdateAllTransforms runs a full pass.
type TransformTree struct {
	PropertyTree[TransformNode, *TransformNode]

	cached []TransformCachedNodeData

	sourceToParentUpdatesAllowed bool
	pageScaleFactor              float64
	deviceScaleFactor            float64
	deviceTransformScaleFactor   float64

	nodesAffectedByInnerViewportBoundsDelta []int
	nodesAffectedByOuterViewportBoundsDelta []int

	propertyTrees *PropertyTrees
}

// NewTransformTree returns a tree holding only the root node.
func NewTransformTree() *TransformTree {
	t := &TransformTree{}
	t.init()
	return t
}

func (t *TransformTree) init() {
	t.PropertyTree = newPropertyTree[TransformNode, *TransformNode]("transform", NewTransformNode)
	t.resetScalars()
}

func (t *TransformTree) resetScalars() {
	t.cached = []TransformCachedNodeData{newTransformCachedNodeData()}
	t.sourceToParentUpdatesAllowed = true
	t.pageScaleFactor = 1
	t.deviceScaleFactor = 1
	t.deviceTransformScaleFactor = 1
	t.nodesAffectedByInnerViewportBoundsDelta = nil
	t.nodesAffectedByOuterViewportBoundsDelta = nil
}

// SetPropertyTrees wires the back-reference used for viewport deltas and
// cache invalidation. NewPropertyTrees does this for its own trees.
func (t *TransformTree) SetPropertyTrees(pt *PropertyTrees) {
	t.propertyTrees = pt
}

// Insert appends node under parentID. A node without a source defaults to
// its parent.
func (t *TransformTree) Insert(node TransformNode, parentID int) int {
	if node.SourceNodeID == InvalidNodeID {
		node.SourceNodeID = parentID
	}
	id := t.PropertyTree.Insert(node, parentID)
	t.cached = append(t.cached, newTransformCachedNodeData())
	return id
}

// Clear resets the tree, its cached data and its scale factors.
func (t *TransformTree) Clear() {
	t.PropertyTree.Clear()
	t.resetScalars()
}

// Equal reports whether both trees hold the same nodes, cached data and
// scale factors.
func (t *TransformTree) Equal(other *TransformTree) bool {
	return t.PropertyTree.Equal(&other.PropertyTree) &&
		reflect.DeepEqual(t.cached, other.cached) &&
		t.sourceToParentUpdatesAllowed == other.sourceToParentUpdatesAllowed &&
		t.pageScaleFactor == other.pageScaleFactor &&
		t.deviceScaleFactor == other.deviceScaleFactor &&
		t.deviceTransformScaleFactor == other.deviceTransformScaleFactor &&
		slices.Equal(t.nodesAffectedByInnerViewportBoundsDelta, other.nodesAffectedByInnerViewportBoundsDelta) &&
		slices.Equal(t.nodesAffectedByOuterViewportBoundsDelta, other.nodesAffectedByOuterViewportBoundsDelta)
}

func (t *TransformTree) copyFrom(from *TransformTree) {
	t.PropertyTree.copyFrom(&from.PropertyTree)
	t.cached = slices.Clone(from.cached)
	t.sourceToParentUpdatesAllowed = from.sourceToParentUpdatesAllowed
	t.pageScaleFactor = from.pageScaleFactor
	t.deviceScaleFactor = from.deviceScaleFactor
	t.deviceTransformScaleFactor = from.deviceTransformScaleFactor
	t.nodesAffectedByInnerViewportBoundsDelta = slices.Clone(from.nodesAffectedByInnerViewportBoundsDelta)
	t.nodesAffectedByOuterViewportBoundsDelta = slices.Clone(from.nodesAffectedByOuterViewportBoundsDelta)
}

// Scale factors.

func (t *TransformTree) PageScaleFactor() float64            { return t.pageScaleFactor }
func (t *TransformTree) DeviceScaleFactor() float64          { return t.deviceScaleFactor }
func (t *TransformTree) DeviceTransformScaleFactor() float64 { return t.deviceTransformScaleFactor }

// SetPageScaleFactor sets the scale applied to nodes in the subtree of the
// page scale layer.
func (t *TransformTree) SetPageScaleFactor(f float64) {
	if t.pageScaleFactor != f {
		t.pageScaleFactor = f
		t.needsUpdate = true
	}
}

// SetDeviceScaleFactor sets the scale applied to every node.
func (t *TransformTree) SetDeviceScaleFactor(f float64) {
	if t.deviceScaleFactor != f {
		t.deviceScaleFactor = f
		t.needsUpdate = true
	}
}

// SourceToParentUpdatesAllowed reports whether fixed-position and scroll
// child nodes recompute their source offset during updates.
func (t *TransformTree) SourceToParentUpdatesAllowed() bool {
	return t.sourceToParentUpdatesAllowed
}

// SetSourceToParentUpdatesAllowed enables or disables source offset updates.
func (t *TransformTree) SetSourceToParentUpdatesAllowed(allowed bool) {
	t.sourceToParentUpdatesAllowed = allowed
}

// SetRootTransformsAndScales installs the device transform and root scale.
//
// Screen space keeps the orientation of deviceTransform with its scale
// normalized out; the device transform scale, the device scale factor and
// pageScaleFactorForRoot are applied through surface contents scale
// instead. rootPosition offsets the contents root.
func (t *TransformTree) SetRootTransformsAndScales(deviceScaleFactor, pageScaleFactorForRoot float64, deviceTransform geom.Transform, rootPosition geom.PointF) {
	dts := deviceTransform.Scale2dComponents(1)
	t.deviceTransformScaleFactor = math.Max(dts.X, dts.Y)
	if f := deviceScaleFactor * pageScaleFactorForRoot; t.deviceScaleFactor != f {
		t.deviceScaleFactor = f
		t.needsUpdate = true
	}

	if !t.cached[RootNodeID].ToScreen.IsIdentity() {
		t.cached[RootNodeID].ToScreen = geom.Identity()
		t.cached[RootNodeID].FromScreen = geom.Identity()
		t.needsUpdate = true
	}

	contentsRoot := t.Node(ContentsRootNodeID)
	if contentsRoot == nil {
		return
	}
	local := deviceTransform
	if dts.X != 0 && dts.Y != 0 && !deviceTransform.HasPerspective() {
		local = local.PostScale(1/dts.X, 1/dts.Y)
	}
	local = local.Translate(rootPosition.X, rootPosition.Y)
	if contentsRoot.Local != local {
		contentsRoot.Local = local
		contentsRoot.NeedsLocalTransformUpdate = true
		t.needsUpdate = true
	}
}

// Cached data accessors. Out-of-range ids read as identity data.

func (t *TransformTree) cachedData(id int) TransformCachedNodeData {
	if id < 0 || id >= len(t.cached) {
		return newTransformCachedNodeData()
	}
	return t.cached[id]
}

// CachedNodeData returns the cached matrices of node id.
func (t *TransformTree) CachedNodeData(id int) TransformCachedNodeData { return t.cachedData(id) }

func (t *TransformTree) ToScreen(id int) geom.Transform   { return t.cachedData(id).ToScreen }
func (t *TransformTree) FromScreen(id int) geom.Transform { return t.cachedData(id).FromScreen }
func (t *TransformTree) ToTarget(id int) geom.Transform   { return t.cachedData(id).ToTarget }
func (t *TransformTree) FromTarget(id int) geom.Transform { return t.cachedData(id).FromTarget }
func (t *TransformTree) TargetID(id int) int              { return t.cachedData(id).TargetID }
func (t *TransformTree) ContentTargetID(id int) int       { return t.cachedData(id).ContentTargetID }

func (t *TransformTree) setToScreen(id int, m geom.Transform)   { t.cached[id].ToScreen = m }
func (t *TransformTree) setFromScreen(id int, m geom.Transform) { t.cached[id].FromScreen = m }

// SetTargetID sets the transform node of the surface node id draws into.
func (t *TransformTree) SetTargetID(id, targetID int) error {
	if err := t.checkID(id); err != nil {
		return err
	}
	t.cached[id].TargetID = targetID
	return nil
}

// SetContentTargetID sets the transform node of the surface node id's
// contents draw into.
func (t *TransformTree) SetContentTargetID(id, contentTargetID int) error {
	if err := t.checkID(id); err != nil {
		return err
	}
	t.cached[id].ContentTargetID = contentTargetID
	return nil
}

// checkEndpoint accepts a node id or InvalidNodeID, which stands for screen
// space.
func (t *TransformTree) checkEndpoint(id int) error {
	if id == InvalidNodeID {
		return nil
	}
	return t.checkID(id)
}

// ComputeTransform returns the transform mapping the space of src into the
// space of dst. InvalidNodeID names screen space. The boolean is false when
// the inverse path met a singular matrix; a matrix is returned regardless.
func (t *TransformTree) ComputeTransform(src, dst int) (geom.Transform, bool, error) {
	if err := t.checkEndpoint(src); err != nil {
		return geom.Identity(), false, err
	}
	if err := t.checkEndpoint(dst); err != nil {
		return geom.Identity(), false, err
	}
	m, ok := t.computeTransform(src, dst)
	return m, ok, nil
}

func (t *TransformTree) computeTransform(src, dst int) (geom.Transform, bool) {
	switch {
	case src == dst:
		return geom.Identity(), true
	case src > dst:
		return t.combineTransformsBetween(src, dst), true
	default:
		return t.combineInversesBetween(src, dst)
	}
}

// CombineTransformsBetween returns the transform from src to its ancestor
// (in id order) dst. src must be greater than dst.
func (t *TransformTree) CombineTransformsBetween(src, dst int) (geom.Transform, error) {
	if err := t.checkID(src); err != nil {
		return geom.Identity(), err
	}
	if err := t.checkEndpoint(dst); err != nil {
		return geom.Identity(), err
	}
	if src <= dst {
		return geom.Identity(), stateError("CombineTransformsBetween", "source id must be greater than destination id")
	}
	return t.combineTransformsBetween(src, dst), nil
}

func (t *TransformTree) combineTransformsBetween(srcID, dstID int) geom.Transform {
	dest := t.Node(dstID)

	// Screen-space matrices can only be combined when no flattening happens
	// above dest: the inverse of flatten(A*R) is not R^-1 * A^-1.
	if dest == nil || (dest.AncestorsAreInvertible && dest.NodeAndAncestorsAreFlat) {
		m := t.ToScreen(srcID)
		if dest != nil {
			m = t.FromScreen(dstID).PreConcat(m)
		}
		return m
	}

	// Collect the path upward, then recompose it downward so flattening
	// is applied in tree order. Stop early at a node whose target is dest
	// and reuse its target-space matrix, unless dest has a zero surface
	// contents scale that could not be divided out.
	path := []int{srcID}
	current := t.Parent(t.Node(srcID))
	destScale := dest.SurfaceContentsScale
	nonZeroScale := destScale.X != 0 && destScale.Y != 0
	for ; current != nil && current.ID > dstID; current = t.Parent(current) {
		if nonZeroScale && t.TargetID(current.ID) == dstID && t.ContentTargetID(current.ID) == dstID {
			break
		}
		path = append(path, current.ID)
	}

	combined := geom.Identity()
	switch {
	case current == nil:
	case current.ID > dstID:
		combined = t.ToTarget(current.ID).PostScale(1/destScale.X, 1/destScale.Y)
	case current.ID < dstID:
		// current is the lowest common ancestor of src and dest, as with a
		// fixed-position layer and the surface it draws into.
		combined, _ = t.combineInversesBetween(current.ID, dstID)
	}

	for i := len(path) - 1; i >= 0; i-- {
		node := t.Node(path[i])
		if node.FlattensInheritedTransform {
			combined = combined.Flatten()
		}
		combined = combined.PreConcat(node.ToParent)
	}
	return combined
}

// CombineInversesBetween returns the transform from src to its descendant
// (in id order) dst. src must be smaller than dst. The boolean is false
// when the forward transform was singular.
func (t *TransformTree) CombineInversesBetween(src, dst int) (geom.Transform, bool, error) {
	if err := t.checkEndpoint(src); err != nil {
		return geom.Identity(), false, err
	}
	if err := t.checkID(dst); err != nil {
		return geom.Identity(), false, err
	}
	if src >= dst {
		return geom.Identity(), false, stateError("CombineInversesBetween", "source id must be smaller than destination id")
	}
	m, ok := t.combineInversesBetween(src, dst)
	return m, ok, nil
}

func (t *TransformTree) combineInversesBetween(srcID, dstID int) (geom.Transform, bool) {
	current := t.Node(dstID)
	if current.AncestorsAreInvertible && current.NodeAndAncestorsAreFlat {
		m := t.FromScreen(dstID)
		if srcID != InvalidNodeID {
			m = m.PreConcat(t.ToScreen(srcID))
		}
		return m, true
	}

	// Inverting a flattened product is not the product of flattened
	// inverses, so compose forward and invert once.
	return t.combineTransformsBetween(dstID, srcID).Inverse()
}

// IsDescendant reports whether descID is source or lies below it.
func (t *TransformTree) IsDescendant(descID, sourceID int) bool {
	for descID != sourceID {
		node := t.Node(descID)
		if node == nil {
			return false
		}
		descID = node.ParentID
	}
	return true
}

// ComputeTranslation returns the 2D translation from src to dst. When
// every ToParent between them is a pure translation the offsets are summed
// directly; otherwise the translation part of ComputeTransform is used.
func (t *TransformTree) ComputeTranslation(src, dst int) (geom.Vector2D, error) {
	if err := t.checkEndpoint(src); err != nil {
		return geom.Vector2D{}, err
	}
	if err := t.checkEndpoint(dst); err != nil {
		return geom.Vector2D{}, err
	}
	if src > dst && t.IsDescendant(src, dst) {
		var sum geom.Vector2D
		pure := true
		for node := t.Node(src); node != nil && node.ID != dst; node = t.Parent(node) {
			if !node.ToParent.IsIdentityOrTranslation() {
				pure = false
				break
			}
			sum = sum.Add(node.ToParent.To2dTranslation())
		}
		if pure {
			return sum, nil
		}
	}
	m, _ := t.computeTransform(src, dst)
	return m.To2dTranslation(), nil
}

// ToScreenSpaceTransformWithoutSurfaceContentsScale recomputes the
// screen-space transform of id from its parent, ignoring the snapping
// folded into the cached value.
func (t *TransformTree) ToScreenSpaceTransformWithoutSurfaceContentsScale(id int) (geom.Transform, error) {
	if err := t.checkID(id); err != nil {
		return geom.Identity(), err
	}
	if id == RootNodeID {
		return geom.Identity(), nil
	}
	node := t.Node(id)
	parent := t.Parent(node)
	if parent == nil || parent.ID == RootNodeID {
		return node.ToParent, nil
	}
	m := t.ToScreen(parent.ID)
	if node.FlattensInheritedTransform {
		m = m.Flatten()
	}
	return m.PreConcat(node.ToParent), nil
}

// needsSourceToParentUpdate reports whether node is positioned relative to
// a node other than its tree parent.
func (t *TransformTree) needsSourceToParentUpdate(node *TransformNode) bool {
	return t.sourceToParentUpdatesAllowed && node.ParentID != node.SourceNodeID
}

// UpdateTransforms refreshes the derived state of node id from its parent.
// It must be called in ascending id order within a pass and invalidates
// the PropertyTrees caches.
func (t *TransformTree) UpdateTransforms(id int) error {
	if err := t.checkID(id); err != nil {
		return err
	}
	if t.propertyTrees != nil {
		t.propertyTrees.UpdateCachedNumber()
	}
	t.updateTransforms(id)
	return nil
}

// UpdateAllTransforms runs UpdateTransforms over every node below the root
// in id order, invalidating caches once, and clears the dirty bit.
func (t *TransformTree) UpdateAllTransforms() {
	start := time.Now()
	if t.propertyTrees != nil {
		t.propertyTrees.UpdateCachedNumber()
	}
	for id := ContentsRootNodeID; id < t.Size(); id++ {
		t.updateTransforms(id)
	}
	t.needsUpdate = false

	m := t.propertyTrees.instruments()
	m.updatePass("transform")
	m.observeUpdate("transform", start)
	Logger().Debug("proptree: transform update pass", "nodes", t.Size())
}

func (t *TransformTree) updateTransforms(id int) {
	node := t.Node(id)
	parent := t.Parent(node)
	target := t.Node(t.TargetID(id))
	if target == nil {
		target = t.Node(RootNodeID)
	}
	source := t.Node(node.SourceNodeID)

	if node.NeedsLocalTransformUpdate || t.needsSourceToParentUpdate(node) {
		t.updateLocalTransform(node)
	} else {
		t.undoSnapping(node)
	}
	t.updateScreenSpaceTransform(node, parent)
	t.updateSurfaceContentsScale(node)
	t.updateAnimationProperties(node, parent)
	t.updateSnapping(node)
	t.updateTargetSpaceTransform(node, target)
	t.updateNodeAndAncestorsHaveIntegerTranslations(node, parent)
	t.updateTransformChanged(node, parent, source)
	t.updateNodeAndAncestorsAreAnimatedOrInvertible(node, parent)
}

func (t *TransformTree) viewportAdjustment(node *TransformNode) geom.Vector2D {
	var inner, outer, adj geom.Vector2D
	if t.propertyTrees != nil {
		inner = t.propertyTrees.InnerViewportContainerBoundsDelta()
		outer = t.propertyTrees.OuterViewportContainerBoundsDelta()
	}
	if node.AffectedByInnerViewportBoundsDeltaX {
		adj.X = inner.X
	} else if node.AffectedByOuterViewportBoundsDeltaX {
		adj.X = outer.X
	}
	if node.AffectedByInnerViewportBoundsDeltaY {
		adj.Y = inner.Y
	} else if node.AffectedByOuterViewportBoundsDeltaY {
		adj.Y = outer.Y
	}
	return adj
}

func (t *TransformTree) updateLocalTransform(node *TransformNode) {
	if t.needsSourceToParentUpdate(node) {
		toParent, _ := t.computeTransform(node.SourceNodeID, node.ParentID)
		// The snapping applied to nodes between source and parent this
		// frame is not part of the offset.
		var unsnap geom.Vector2D
		for cur := t.Node(node.SourceNodeID); cur != nil && cur.ID > node.ParentID; cur = t.Parent(cur) {
			unsnap = unsnap.Sub(cur.ScrollSnap)
		}
		for cur := t.Node(node.ParentID); cur != nil && cur.ID > node.SourceNodeID; cur = t.Parent(cur) {
			unsnap = unsnap.Add(cur.ScrollSnap)
		}
		node.SourceToParent = toParent.To2dTranslation().Add(unsnap)
	}

	adj := t.viewportAdjustment(node)
	m := node.PostLocal.Translate(
		node.SourceToParent.X-node.ScrollOffset.X+adj.X,
		node.SourceToParent.Y-node.ScrollOffset.Y+adj.Y,
	)
	m = m.PreConcat(node.Local).PreConcat(node.PreLocal)
	node.ToParent = m
	node.IsInvertible = m.IsInvertible()
	node.NeedsLocalTransformUpdate = false
}

// undoSnapping removes last pass's snapping from ToParent.
func (t *TransformTree) undoSnapping(node *TransformNode) {
	node.ToParent = node.ToParent.Translate(-node.ScrollSnap.X, -node.ScrollSnap.Y)
}

func (t *TransformTree) updateScreenSpaceTransform(node, parent *TransformNode) {
	if parent == nil {
		t.setToScreen(node.ID, node.ToParent)
		node.AncestorsAreInvertible = true
		node.ToScreenIsPotentiallyAnimated = false
		node.NodeAndAncestorsAreFlat = node.ToParent.IsFlat()
	} else {
		m := t.ToScreen(parent.ID)
		if node.FlattensInheritedTransform {
			m = m.Flatten()
		}
		t.setToScreen(node.ID, m.PreConcat(node.ToParent))
		node.AncestorsAreInvertible = parent.AncestorsAreInvertible
		node.NodeAndAncestorsAreFlat = parent.NodeAndAncestorsAreFlat && node.ToParent.IsFlat()
	}

	fromScreen, ok := t.ToScreen(node.ID).Inverse()
	if !ok {
		node.AncestorsAreInvertible = false
	}
	t.setFromScreen(node.ID, fromScreen)
}

// layerScaleFactor is the raster scale applied on top of screen space.
func (t *TransformTree) layerScaleFactor(node *TransformNode) float64 {
	f := t.deviceScaleFactor * t.deviceTransformScaleFactor
	if node.InSubtreeOfPageScaleLayer {
		f *= t.pageScaleFactor
	}
	return f
}

func (t *TransformTree) updateSurfaceContentsScale(node *TransformNode) {
	if !node.NeedsSurfaceContentsScale {
		node.SurfaceContentsScale = geom.V2(1, 1)
		return
	}
	f := t.layerScaleFactor(node)
	toScreen := t.ToScreen(node.ID)
	if toScreen.HasPerspective() {
		node.SurfaceContentsScale = geom.V2(f, f)
		return
	}
	node.SurfaceContentsScale = toScreen.Scale2dComponents(f).Scale(f, f)
}

func (t *TransformTree) updateAnimationProperties(node, parent *TransformNode) {
	ancestorAnimating := parent != nil && parent.ToScreenIsPotentiallyAnimated
	node.ToScreenIsPotentiallyAnimated = node.HasPotentialAnimation || ancestorAnimating
}

// updateSnapping rounds the screen-space translation of scrolling nodes to
// whole pixels and records the correction in ScrollSnap.
func (t *TransformTree) updateSnapping(node *TransformNode) {
	toScreen := t.ToScreen(node.ID)
	if !node.Scrolls || node.ToScreenIsPotentiallyAnimated ||
		!toScreen.IsScaleOrTranslation() || !node.AncestorsAreInvertible {
		node.ScrollSnap = geom.Vector2D{}
		return
	}

	// With ST the screen-space transform and ST' its rounded version, the
	// snap delta X satisfies ST * X = ST', so X = ST^-1 * ST'.
	rounded := toScreen.RoundTranslation()
	delta := t.FromScreen(node.ID).PreConcat(rounded)
	if !delta.IsApproximatelyIdentityOrTranslation(snapTolerance) {
		Logger().Debug("proptree: snap delta is not a translation", "node", node.ID)
	}
	tr := delta.To2dTranslation()

	t.setToScreen(node.ID, rounded)
	node.ToParent = node.ToParent.Translate(tr.X, tr.Y)
	t.setFromScreen(node.ID, t.FromScreen(node.ID).PostTranslate(-tr.X, -tr.Y))
	node.ScrollSnap = tr
}

func (t *TransformTree) updateTargetSpaceTransform(node, target *TransformNode) {
	var toTarget geom.Transform
	if node.NeedsSurfaceContentsScale {
		toTarget = geom.NewScale(node.SurfaceContentsScale.X, node.SurfaceContentsScale.Y)
	} else {
		// The root surface includes the root transform, so the walk goes
		// all the way to target even when it is the root.
		toTarget, _ = t.computeTransform(node.ID, target.ID)
		if target.ID != RootNodeID {
			toTarget = toTarget.PostScale(target.SurfaceContentsScale.X, target.SurfaceContentsScale.Y)
		}
	}

	fromTarget, ok := toTarget.Inverse()
	if !ok {
		node.AncestorsAreInvertible = false
	}
	t.cached[node.ID].ToTarget = toTarget
	t.cached[node.ID].FromTarget = fromTarget
}

func (t *TransformTree) updateNodeAndAncestorsHaveIntegerTranslations(node, parent *TransformNode) {
	v := node.ToParent.IsIdentityOrIntegerTranslation()
	if parent != nil {
		v = v && parent.NodeAndAncestorsHaveOnlyIntegerTranslation
	}
	node.NodeAndAncestorsHaveOnlyIntegerTranslation = v
}

func (t *TransformTree) updateTransformChanged(node, parent, source *TransformNode) {
	if parent != nil && parent.TransformChanged {
		node.TransformChanged = true
		return
	}
	if source != nil && parent != nil && source.ID != parent.ID &&
		t.sourceToParentUpdatesAllowed && source.TransformChanged {
		node.TransformChanged = true
	}
}

func (t *TransformTree) updateNodeAndAncestorsAreAnimatedOrInvertible(node, parent *TransformNode) {
	if parent == nil {
		node.NodeAndAncestorsAreAnimatedOrInvertible = node.HasPotentialAnimation || node.IsInvertible
		return
	}
	if !parent.NodeAndAncestorsAreAnimatedOrInvertible {
		node.NodeAndAncestorsAreAnimatedOrInvertible = false
		return
	}
	invertible := node.IsInvertible
	// Invertible factors can still produce a singular screen-space product
	// in floating point.
	if !node.AncestorsAreInvertible && parent.AncestorsAreInvertible {
		invertible = false
	}
	node.NodeAndAncestorsAreAnimatedOrInvertible = node.HasPotentialAnimation || invertible
}

// ResetChangeTracking clears TransformChanged on every node.
func (t *TransformTree) ResetChangeTracking() {
	for i := range t.nodes {
		t.nodes[i].TransformChanged = false
	}
}

// AddNodeAffectedByInnerViewportBoundsDelta registers a node whose local
// transform depends on the inner viewport container bounds delta.
func (t *TransformTree) AddNodeAffectedByInnerViewportBoundsDelta(id int) {
	t.nodesAffectedByInnerViewportBoundsDelta = append(t.nodesAffectedByInnerViewportBoundsDelta, id)
}

// AddNodeAffectedByOuterViewportBoundsDelta registers a node whose local
// transform depends on the outer viewport container bounds delta.
func (t *TransformTree) AddNodeAffectedByOuterViewportBoundsDelta(id int) {
	t.nodesAffectedByOuterViewportBoundsDelta = append(t.nodesAffectedByOuterViewportBoundsDelta, id)
}

func (t *TransformTree) HasNodesAffectedByInnerViewportBoundsDelta() bool {
	return len(t.nodesAffectedByInnerViewportBoundsDelta) > 0
}

func (t *TransformTree) HasNodesAffectedByOuterViewportBoundsDelta() bool {
	return len(t.nodesAffectedByOuterViewportBoundsDelta) > 0
}

func (t *TransformTree) NodesAffectedByInnerViewportBoundsDelta() []int {
	return t.nodesAffectedByInnerViewportBoundsDelta
}

func (t *TransformTree) NodesAffectedByOuterViewportBoundsDelta() []int {
	return t.nodesAffectedByOuterViewportBoundsDelta
}

// updateInnerViewportContainerBoundsDelta marks the registered nodes for a
// local transform update.
func (t *TransformTree) updateInnerViewportContainerBoundsDelta() {
	t.markForLocalUpdate(t.nodesAffectedByInnerViewportBoundsDelta)
}

func (t *TransformTree) updateOuterViewportContainerBoundsDelta() {
	t.markForLocalUpdate(t.nodesAffectedByOuterViewportBoundsDelta)
}

func (t *TransformTree) markForLocalUpdate(ids []int) {
	if len(ids) == 0 {
		return
	}
	t.needsUpdate = true
	for _, id := range ids {
		if node := t.Node(id); node != nil {
			node.NeedsLocalTransformUpdate = true
		}
	}
}
