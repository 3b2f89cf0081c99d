// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring"

	"github.com/gogpu/proptree/geom"
)

// ScrollNode is a node of the ScrollTree.
type ScrollNode struct {
	TreeNode

	// Bounds is the size of the scrolled content.
	Bounds geom.Size
	// ScrollClipLayerBounds is the size of the visible viewport onto the
	// content.
	ScrollClipLayerBounds geom.Size

	Scrollable                         bool
	UserScrollableHorizontal           bool
	UserScrollableVertical             bool
	MaxScrollOffsetAffectedByPageScale bool
	IsInnerViewportScrollLayer         bool
	IsOuterViewportScrollLayer         bool
	ShouldFlatten                      bool

	// OffsetToTransformParent positions the scroller in the space of
	// TransformID.
	OffsetToTransformParent geom.Vector2D
	TransformID             int
}

// NewScrollNode returns a non-scrollable node in root space.
func NewScrollNode() ScrollNode {
	return ScrollNode{
		TreeNode:    TreeNode{ID: InvalidNodeID, ParentID: InvalidNodeID, OwnerID: InvalidNodeID},
		TransformID: RootNodeID,
	}
}

// ScrollOffsetObserver is notified when the scroll offset of an owner
// changes through a push or a scroll.
type ScrollOffsetObserver interface {
	DidUpdateScrollOffset(ownerID int)
}

// ScrollOffsetObserverFunc adapts a function to ScrollOffsetObserver.
type ScrollOffsetObserverFunc func(ownerID int)

// DidUpdateScrollOffset calls f(ownerID).
func (f ScrollOffsetObserverFunc) DidUpdateScrollOffset(ownerID int) { f(ownerID) }

func notifyScrollOffset(obs ScrollOffsetObserver, ownerID int) {
	if obs != nil {
		obs.DidUpdateScrollOffset(ownerID)
	}
}

// ScrollUpdateInfo is a scroll delta for one owner, sent to the main
// thread.
type ScrollUpdateInfo struct {
	OwnerID int
	Delta   geom.Vector2D
}

// ScrollDeltas groups the deltas collected by CollectScrollDeltas. The
// inner viewport is reported separately; its OwnerID is InvalidNodeID when
// it did not scroll.
type ScrollDeltas struct {
	InnerViewportScroll ScrollUpdateInfo
	Scrolls             []ScrollUpdateInfo
}

// ScrollTree stores scrollers and their offsets.
//
// On the main thread offsets are plain values keyed by owner id. The
// pending and active instances hold SyncedScrollOffset pointers that they
// share, so a value set while pending is visible once activated.
type ScrollTree struct {
	PropertyTree[ScrollNode, *ScrollNode]

	currentlyScrollingNodeID int

	// Main thread only.
	scrollOffsets map[int]geom.ScrollOffset
	clobbered     *roaring.Bitmap

	// Pending and active only.
	syncedScrollOffsets map[int]*SyncedScrollOffset

	propertyTrees *PropertyTrees
}

// NewScrollTree returns a tree holding only the root node.
func NewScrollTree() *ScrollTree {
	t := &ScrollTree{}
	t.init()
	return t
}

func (t *ScrollTree) init() {
	t.PropertyTree = newPropertyTree[ScrollNode, *ScrollNode]("scroll", NewScrollNode)
	t.currentlyScrollingNodeID = InvalidNodeID
	t.scrollOffsets = make(map[int]geom.ScrollOffset)
	t.clobbered = roaring.New()
	t.syncedScrollOffsets = make(map[int]*SyncedScrollOffset)
}

// SetPropertyTrees wires the back-reference used for mode flags, page
// scale and viewport deltas.
func (t *ScrollTree) SetPropertyTrees(pt *PropertyTrees) {
	t.propertyTrees = pt
}

func (t *ScrollTree) isMainThread() bool {
	return t.propertyTrees == nil || t.propertyTrees.IsMainThread
}

func (t *ScrollTree) isActive() bool {
	return t.propertyTrees != nil && t.propertyTrees.IsActive
}

// Clear resets the nodes. On the main thread the offsets and the
// currently scrolling node are reset too; the synced offsets of the other
// instances survive a rebuild.
func (t *ScrollTree) Clear() {
	t.PropertyTree.Clear()
	if t.isMainThread() {
		t.currentlyScrollingNodeID = InvalidNodeID
		t.scrollOffsets = make(map[int]geom.ScrollOffset)
		t.clobbered.Clear()
	}
}

// Equal compares nodes, offsets and the currently scrolling node.
func (t *ScrollTree) Equal(other *ScrollTree) bool {
	if !t.PropertyTree.Equal(&other.PropertyTree) ||
		t.currentlyScrollingNodeID != other.currentlyScrollingNodeID ||
		!maps.Equal(t.scrollOffsets, other.scrollOffsets) ||
		!t.clobbered.Equals(other.clobbered) {
		return false
	}
	return maps.EqualFunc(t.syncedScrollOffsets, other.syncedScrollOffsets,
		func(a, b *SyncedScrollOffset) bool { return *a == *b })
}

// copyFrom copies the nodes only. Offsets are synchronized through
// UpdateScrollOffsetMap and the currently scrolling node is reset.
func (t *ScrollTree) copyFrom(from *ScrollTree) {
	t.PropertyTree.copyFrom(&from.PropertyTree)
	t.currentlyScrollingNodeID = InvalidNodeID
}

// CurrentlyScrollingNode returns the node being scrolled, or nil.
func (t *ScrollTree) CurrentlyScrollingNode() *ScrollNode {
	return t.Node(t.currentlyScrollingNodeID)
}

// CurrentlyScrollingNodeID returns the id of the node being scrolled.
func (t *ScrollTree) CurrentlyScrollingNodeID() int {
	return t.currentlyScrollingNodeID
}

// SetCurrentlyScrollingNode sets the node being scrolled. InvalidNodeID
// clears it.
func (t *ScrollTree) SetCurrentlyScrollingNode(id int) error {
	if id != InvalidNodeID {
		if err := t.checkID(id); err != nil {
			return err
		}
	}
	t.currentlyScrollingNodeID = id
	return nil
}

// ScrollClipLayerBounds returns the visible bounds of node id, grown by the
// viewport container delta for viewport scrollers.
func (t *ScrollTree) ScrollClipLayerBounds(id int) (geom.Size, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return geom.Size{}, err
	}
	return t.scrollClipLayerBounds(node), nil
}

func (t *ScrollTree) scrollClipLayerBounds(node *ScrollNode) geom.Size {
	bounds := node.ScrollClipLayerBounds
	var delta geom.Vector2D
	if t.propertyTrees != nil {
		if node.IsInnerViewportScrollLayer {
			delta = t.propertyTrees.InnerViewportContainerBoundsDelta()
		} else if node.IsOuterViewportScrollLayer {
			delta = t.propertyTrees.OuterViewportContainerBoundsDelta()
		}
	}
	d := delta.Ceil()
	bounds.W += int(d.X)
	bounds.H += int(d.Y)
	return bounds
}

// MaxScrollOffset returns the largest offset node id can scroll to.
func (t *ScrollTree) MaxScrollOffset(id int) (geom.ScrollOffset, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return geom.ScrollOffset{}, err
	}
	return t.maxScrollOffset(node), nil
}

func (t *ScrollTree) maxScrollOffset(node *ScrollNode) geom.ScrollOffset {
	bounds := node.Bounds.ToSizeF()
	if node.IsInnerViewportScrollLayer && t.propertyTrees != nil {
		d := t.propertyTrees.InnerViewportScrollBoundsDelta()
		bounds = bounds.Enlarge(d.X, d.Y)
	}
	if !node.Scrollable || bounds.IsEmpty() {
		return geom.ScrollOffset{}
	}

	scale := 1.0
	if node.MaxScrollOffsetAffectedByPageScale && t.propertyTrees != nil {
		scale = t.propertyTrees.TransformTree.PageScaleFactor()
	}
	scaled := bounds.Scale(scale).Floor()
	clip := t.scrollClipLayerBounds(node)

	limit := geom.Offset(scaled.W-float64(clip.W), scaled.H-float64(clip.H))
	limit = limit.Scale(1 / scale)
	return limit.Max(geom.ScrollOffset{})
}

// ScreenSpaceTransform returns the transform from the scroller's space to
// screen space.
func (t *ScrollTree) ScreenSpaceTransform(id int) (geom.Transform, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return geom.Identity(), err
	}
	m := geom.NewTranslation(node.OffsetToTransformParent.X, node.OffsetToTransformParent.Y)
	if t.propertyTrees != nil {
		m = t.propertyTrees.TransformTree.ToScreen(node.TransformID).PreConcat(m)
	}
	if node.ShouldFlatten {
		m = m.Flatten()
	}
	return m, nil
}

// SyncedScrollOffset returns the shared offset of ownerID, creating it on
// first use. Main-thread trees have none.
func (t *ScrollTree) SyncedScrollOffset(ownerID int) (*SyncedScrollOffset, error) {
	if t.isMainThread() {
		return nil, stateError("SyncedScrollOffset", "main thread trees hold plain offsets")
	}
	return t.getOrCreateSynced(ownerID), nil
}

func (t *ScrollTree) getOrCreateSynced(ownerID int) *SyncedScrollOffset {
	s, ok := t.syncedScrollOffsets[ownerID]
	if !ok {
		s = NewSyncedScrollOffset()
		t.syncedScrollOffsets[ownerID] = s
	}
	return s
}

// CurrentScrollOffset returns the offset of ownerID as seen by this
// instance. Unknown owners are at zero.
func (t *ScrollTree) CurrentScrollOffset(ownerID int) geom.ScrollOffset {
	if t.isMainThread() {
		return t.scrollOffsets[ownerID]
	}
	if s, ok := t.syncedScrollOffsets[ownerID]; ok {
		return s.Current(t.isActive())
	}
	return geom.ScrollOffset{}
}

// SetScrollOffset sets the offset of ownerID and reports whether it
// changed. Pending trees ignore the call; they only receive offsets
// through pushes.
func (t *ScrollTree) SetScrollOffset(ownerID int, offset geom.ScrollOffset) bool {
	if t.isMainThread() {
		if cur, ok := t.scrollOffsets[ownerID]; ok && cur == offset {
			return false
		}
		t.scrollOffsets[ownerID] = offset
		return true
	}
	if t.isActive() {
		return t.getOrCreateSynced(ownerID).SetCurrent(offset)
	}
	return false
}

// ClobberActiveScrollOffset marks the main-thread offset of ownerID as
// authoritative: the next push discards the impl-side delta.
func (t *ScrollTree) ClobberActiveScrollOffset(ownerID int) error {
	if !t.isMainThread() {
		return stateError("ClobberActiveScrollOffset", "only main thread offsets can clobber")
	}
	t.clobbered.Add(uint32(int32(ownerID)))
	return nil
}

// PullDeltaForMainThread pulls the delta of s with its fractional part
// left behind in the current value, so only whole pixels are reported.
func (t *ScrollTree) PullDeltaForMainThread(s *SyncedScrollOffset) geom.ScrollOffset {
	active := t.isActive()
	current := s.Current(active)
	delta := s.PendingDelta()
	if active {
		delta = s.Delta()
	}
	floored := delta.Floor()
	s.SetCurrent(current.Add(floored.Sub(delta)))
	pulled := s.PullDeltaForMainThread()
	s.SetCurrent(current)
	return pulled
}

// CollectScrollDeltas pulls the delta of every synced offset. Deltas are
// visited in owner id order.
func (t *ScrollTree) CollectScrollDeltas(innerViewportOwnerID int) ScrollDeltas {
	out := ScrollDeltas{InnerViewportScroll: ScrollUpdateInfo{OwnerID: InvalidNodeID}}
	for _, ownerID := range slices.Sorted(maps.Keys(t.syncedScrollOffsets)) {
		d := t.PullDeltaForMainThread(t.syncedScrollOffsets[ownerID])
		if d.IsZero() {
			continue
		}
		info := ScrollUpdateInfo{OwnerID: ownerID, Delta: d.Vector()}
		if ownerID == innerViewportOwnerID {
			out.InnerViewportScroll = info
		} else {
			out.Scrolls = append(out.Scrolls, info)
		}
	}
	return out
}

// UpdateScrollOffsetMap synchronizes offsets from the previous instance in
// the pipeline. From the main thread new synced offsets take the pushed
// values; from the pending instance the synced offsets are shared and
// activated. Owners missing from the source are dropped. obs is notified
// for every owner whose offset changed.
func (t *ScrollTree) UpdateScrollOffsetMap(from *ScrollTree, obs ScrollOffsetObserver) error {
	if t.isMainThread() {
		return stateError("UpdateScrollOffsetMap", "main thread trees do not receive offsets")
	}
	if from.isMainThread() {
		t.pushFromMainThread(from, obs)
		return nil
	}
	if !t.isActive() || from.isActive() {
		return stateError("UpdateScrollOffsetMap", "offsets flow from pending to active")
	}
	t.pushFromPendingTree(from, obs)
	return nil
}

// PushScrollUpdatesFromMainThread pushes the main thread's offsets into
// this pending or active tree.
func (t *ScrollTree) PushScrollUpdatesFromMainThread(main *PropertyTrees, obs ScrollOffsetObserver) error {
	if !main.IsMainThread {
		return stateError("PushScrollUpdatesFromMainThread", "source is not a main thread tree")
	}
	return t.UpdateScrollOffsetMap(&main.ScrollTree, obs)
}

// PushScrollUpdatesFromPendingTree shares the pending tree's synced
// offsets with this active tree and activates them.
func (t *ScrollTree) PushScrollUpdatesFromPendingTree(pending *PropertyTrees, obs ScrollOffsetObserver) error {
	if pending.IsMainThread || pending.IsActive {
		return stateError("PushScrollUpdatesFromPendingTree", "source is not a pending tree")
	}
	return t.UpdateScrollOffsetMap(&pending.ScrollTree, obs)
}

func (t *ScrollTree) pushFromMainThread(main *ScrollTree, obs ScrollOffsetObserver) {
	pruned := 0
	for ownerID := range t.syncedScrollOffsets {
		if _, ok := main.scrollOffsets[ownerID]; !ok {
			delete(t.syncedScrollOffsets, ownerID)
			pruned++
		}
	}
	if pruned > 0 {
		Logger().Debug("proptree: pruned synced scroll offsets", "count", pruned)
	}

	for _, ownerID := range slices.Sorted(maps.Keys(main.scrollOffsets)) {
		s := t.getOrCreateSynced(ownerID)
		changed := s.PushFromMainThread(main.scrollOffsets[ownerID])
		if main.clobbered.Contains(uint32(int32(ownerID))) {
			s.SetClobberActiveValue()
			changed = true
		}
		// Committing directly to the active tree activates at once.
		if t.isActive() {
			if s.PushPendingToActive() {
				changed = true
			}
		}
		if changed {
			notifyScrollOffset(obs, ownerID)
		}
	}
	main.clobbered.Clear()
}

func (t *ScrollTree) pushFromPendingTree(pending *ScrollTree, obs ScrollOffsetObserver) {
	t.syncedScrollOffsets = make(map[int]*SyncedScrollOffset, len(pending.syncedScrollOffsets))
	for _, ownerID := range slices.Sorted(maps.Keys(pending.syncedScrollOffsets)) {
		s := pending.syncedScrollOffsets[ownerID]
		t.syncedScrollOffsets[ownerID] = s
		if s.PushPendingToActive() {
			notifyScrollOffset(obs, ownerID)
		}
	}
}

// ClampScrollOffsetToLimits clamps offset into [0, MaxScrollOffset(id)].
func (t *ScrollTree) ClampScrollOffsetToLimits(offset geom.ScrollOffset, id int) (geom.ScrollOffset, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return geom.ScrollOffset{}, err
	}
	return t.clampScrollOffsetToLimits(offset, node), nil
}

func (t *ScrollTree) clampScrollOffsetToLimits(offset geom.ScrollOffset, node *ScrollNode) geom.ScrollOffset {
	return offset.Min(t.maxScrollOffset(node)).Max(geom.ScrollOffset{})
}

// ScrollBy scrolls node id by scroll, masked to the user-scrollable axes
// and clamped to the scroll limits. It returns the part of scroll that was
// not applied.
func (t *ScrollTree) ScrollBy(id int, scroll geom.Vector2D, obs ScrollOffsetObserver) (geom.Vector2D, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return geom.Vector2D{}, err
	}
	return t.scrollBy(node, scroll, obs), nil
}

func (t *ScrollTree) scrollBy(node *ScrollNode, scroll geom.Vector2D, obs ScrollOffsetObserver) geom.Vector2D {
	adjusted := scroll
	if !node.UserScrollableHorizontal {
		adjusted.X = 0
	}
	if !node.UserScrollableVertical {
		adjusted.Y = 0
	}
	old := t.CurrentScrollOffset(node.OwnerID)
	next := t.clampScrollOffsetToLimits(old.Add(geom.OffsetFromVector(adjusted)), node)
	if t.SetScrollOffset(node.OwnerID, next) {
		notifyScrollOffset(obs, node.OwnerID)
	}
	return old.Add(geom.OffsetFromVector(scroll)).Sub(next).Vector()
}

// BuildScrollChain returns the scrollable nodes from the outermost
// ancestor of id down to id itself. The root is never part of a chain.
func (t *ScrollTree) BuildScrollChain(id int) ([]int, error) {
	node, err := t.Lookup(id)
	if err != nil {
		return nil, err
	}
	var chain []int
	for ; node != nil && node.ParentID != InvalidNodeID; node = t.Parent(node) {
		if node.Scrollable {
			chain = append(chain, node.ID)
		}
	}
	slices.Reverse(chain)
	return chain, nil
}

// DistributeScroll offers the remaining delta of s to node id after its
// descendants in the scroll chain had their turn.
func (t *ScrollTree) DistributeScroll(id int, s *ScrollState, obs ScrollOffsetObserver) error {
	node, err := t.Lookup(id)
	if err != nil {
		return err
	}
	if s.FullyConsumed() {
		return nil
	}
	if err := t.DistributeToScrollChainDescendant(s, obs); err != nil {
		return err
	}
	// A non-propagating gesture stays with the scroller that took it.
	if !s.ShouldPropagate && s.DeltaConsumedForScrollSequence &&
		s.currentNativeScrollingNode != node.ID {
		return nil
	}
	if !node.Scrollable || s.FullyConsumed() {
		return nil
	}
	t.applyScroll(node, s, obs)
	return nil
}

// DistributeToScrollChainDescendant hands s to the next node of its chain.
func (t *ScrollTree) DistributeToScrollChainDescendant(s *ScrollState, obs ScrollOffsetObserver) error {
	next, ok := s.nextInChain()
	if !ok {
		return nil
	}
	return t.DistributeScroll(next, s, obs)
}
