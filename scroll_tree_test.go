// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/proptree/geom"
)

func addScroller(st *ScrollTree, parent, owner int, content, clip geom.Size) int {
	n := NewScrollNode()
	n.OwnerID = owner
	n.Bounds = content
	n.ScrollClipLayerBounds = clip
	n.Scrollable = true
	n.UserScrollableHorizontal = true
	n.UserScrollableVertical = true
	return st.Insert(n, parent)
}

// ownerLog records the owners an observer was notified for.
type ownerLog []int

func (l *ownerLog) observer() ScrollOffsetObserver {
	return ScrollOffsetObserverFunc(func(owner int) { *l = append(*l, owner) })
}

func TestScrollTree_Limits(t *testing.T) {
	st := NewScrollTree()
	id := addScroller(st, RootNodeID, 10, geom.Size{W: 200, H: 1000}, geom.Size{W: 100, H: 100})

	limit, err := st.MaxScrollOffset(id)
	require.NoError(t, err)
	assert.Equal(t, geom.Offset(100, 900), limit)

	tests := []struct {
		in, want geom.ScrollOffset
	}{
		{geom.Offset(50, 50), geom.Offset(50, 50)},
		{geom.Offset(-5, 2000), geom.Offset(0, 900)},
		{geom.Offset(500, -1), geom.Offset(100, 0)},
	}
	for _, tt := range tests {
		got, err := st.ClampScrollOffsetToLimits(tt.in, id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "clamp %v", tt.in)
	}

	st.Node(id).Scrollable = false
	limit, err = st.MaxScrollOffset(id)
	require.NoError(t, err)
	assert.True(t, limit.IsZero())

	_, err = st.MaxScrollOffset(5)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestScrollTree_LimitsWithPageScale(t *testing.T) {
	pt := NewPropertyTrees()
	st := &pt.ScrollTree
	id := addScroller(st, RootNodeID, 10, geom.Size{W: 200, H: 1000}, geom.Size{W: 100, H: 100})
	st.Node(id).MaxScrollOffsetAffectedByPageScale = true
	pt.TransformTree.SetPageScaleFactor(2)

	limit, err := st.MaxScrollOffset(id)
	require.NoError(t, err)
	assert.Equal(t, geom.Offset(150, 950), limit)
}

func TestScrollTree_InnerViewportDeltas(t *testing.T) {
	pt := NewPropertyTrees()
	st := &pt.ScrollTree
	id := addScroller(st, RootNodeID, 10, geom.Size{W: 200, H: 1000}, geom.Size{W: 100, H: 100})
	st.Node(id).IsInnerViewportScrollLayer = true

	pt.SetInnerViewportContainerBoundsDelta(geom.V2(0, 20.5))
	bounds, err := st.ScrollClipLayerBounds(id)
	require.NoError(t, err)
	assert.Equal(t, geom.Size{W: 100, H: 121}, bounds)

	pt.SetInnerViewportScrollBoundsDelta(geom.V2(0, 10))
	limit, err := st.MaxScrollOffset(id)
	require.NoError(t, err)
	assert.Equal(t, geom.Offset(100, 889), limit)
}

func TestScrollTree_ScrollBy(t *testing.T) {
	st := NewScrollTree()
	id := addScroller(st, RootNodeID, 10, geom.Size{W: 200, H: 1000}, geom.Size{W: 100, H: 100})

	var log ownerLog
	unused, err := st.ScrollBy(id, geom.V2(50, 950), log.observer())
	require.NoError(t, err)
	assert.Equal(t, geom.V2(0, 50), unused)
	assert.Equal(t, geom.Offset(50, 900), st.CurrentScrollOffset(10))
	assert.Equal(t, ownerLog{10}, log)

	// Already at the limit: nothing moves and nobody is notified.
	unused, err = st.ScrollBy(id, geom.V2(0, 10), log.observer())
	require.NoError(t, err)
	assert.Equal(t, geom.V2(0, 10), unused)
	assert.Len(t, log, 1)

	st.Node(id).UserScrollableHorizontal = false
	unused, err = st.ScrollBy(id, geom.V2(-30, -100), nil)
	require.NoError(t, err)
	assert.Equal(t, geom.V2(-30, 0), unused)
	assert.Equal(t, geom.Offset(50, 800), st.CurrentScrollOffset(10))
}

func TestScrollTree_BuildScrollChain(t *testing.T) {
	st := NewScrollTree()
	size := geom.Size{W: 100, H: 100}
	outer := addScroller(st, RootNodeID, 10, size, size)
	plain := st.Insert(NewScrollNode(), outer)
	inner := addScroller(st, plain, 30, size, size)

	chain, err := st.BuildScrollChain(inner)
	require.NoError(t, err)
	assert.Equal(t, []int{outer, inner}, chain)

	chain, err = st.BuildScrollChain(RootNodeID)
	require.NoError(t, err)
	assert.Empty(t, chain)

	_, err = st.BuildScrollChain(7)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestScrollTree_DistributeScroll(t *testing.T) {
	st := NewScrollTree()
	outer := addScroller(st, RootNodeID, 10, geom.Size{W: 100, H: 300}, geom.Size{W: 100, H: 100})
	inner := addScroller(st, outer, 20, geom.Size{W: 100, H: 150}, geom.Size{W: 100, H: 100})

	distribute := func(s *ScrollState) {
		t.Helper()
		chain, err := st.BuildScrollChain(inner)
		require.NoError(t, err)
		s.SetScrollChain(chain)
		require.NoError(t, st.DistributeToScrollChainDescendant(s, nil))
	}

	// The inner scroller latches the whole gesture.
	s := NewScrollState(geom.V2(0, 80))
	distribute(s)
	assert.True(t, s.FullyConsumed())
	assert.True(t, s.CausedScrollY)
	assert.Equal(t, geom.Offset(0, 50), st.CurrentScrollOffset(20))
	assert.True(t, st.CurrentScrollOffset(10).IsZero())
	assert.Equal(t, inner, st.CurrentlyScrollingNodeID())
	assert.Equal(t, inner, s.CurrentNativeScrollingNode())

	// At its limit the inner scroller passes the delta outward.
	s = NewScrollState(geom.V2(0, 80))
	distribute(s)
	assert.True(t, s.FullyConsumed())
	assert.Equal(t, geom.Offset(0, 80), st.CurrentScrollOffset(10))
	assert.Equal(t, outer, st.CurrentlyScrollingNodeID())

	// A gesture that may not propagate stays with its scroller.
	st.SetScrollOffset(10, geom.ScrollOffset{})
	s = NewScrollState(geom.V2(0, 80))
	s.ShouldPropagate = false
	s.DeltaConsumedForScrollSequence = true
	s.SetCurrentNativeScrollingNode(inner)
	distribute(s)
	assert.Equal(t, geom.V2(0, 80), s.Delta)
	assert.True(t, st.CurrentScrollOffset(10).IsZero())
}

func TestScrollTree_DistributeScrollOffAxis(t *testing.T) {
	st := NewScrollTree()
	id := addScroller(st, RootNodeID, 10, geom.Size{W: 100, H: 300}, geom.Size{W: 100, H: 100})
	st.Node(id).UserScrollableHorizontal = false

	s := NewScrollState(geom.V2(60, 20))
	require.NoError(t, st.DistributeScroll(id, s, nil))

	// Only the component along the applied direction is consumed.
	assert.Equal(t, geom.V2(60, 0), s.Delta)
	assert.False(t, s.CausedScrollX)
	assert.True(t, s.CausedScrollY)
	assert.Equal(t, geom.Offset(0, 20), st.CurrentScrollOffset(10))
}

func TestScrollTree_ScreenSpaceTransform(t *testing.T) {
	pt := NewPropertyTrees()
	tid := addTransform(&pt.TransformTree, RootNodeID, geom.NewTranslation(10, 20))
	pt.UpdateAll()

	n := NewScrollNode()
	n.TransformID = tid
	n.OffsetToTransformParent = geom.V2(3, 4)
	id := pt.ScrollTree.Insert(n, RootNodeID)

	m, err := pt.ScrollTree.ScreenSpaceTransform(id)
	require.NoError(t, err)
	assert.Equal(t, geom.V2(13, 24), m.To2dTranslation())
}

// syncedTrees returns main, pending and active instances holding the same
// scroller owned by layer 10.
func syncedTrees(t *testing.T) (main, pending, active *PropertyTrees) {
	t.Helper()
	main = NewPropertyTrees()
	pending = NewPropertyTrees(WithMode(ModePending))
	active = NewPropertyTrees(WithMode(ModeActive))
	for _, pt := range []*PropertyTrees{main, pending, active} {
		addScroller(&pt.ScrollTree, RootNodeID, 10, geom.Size{W: 100, H: 1000}, geom.Size{W: 100, H: 100})
		pt.ScrollIDToIndex[10] = 1
	}
	return main, pending, active
}

func TestScrollTree_SyncProtocol(t *testing.T) {
	main, pending, active := syncedTrees(t)
	var log ownerLog

	main.ScrollTree.SetScrollOffset(10, geom.Offset(0, 100))
	require.NoError(t, pending.ScrollTree.PushScrollUpdatesFromMainThread(main, log.observer()))
	assert.Equal(t, geom.Offset(0, 100), pending.ScrollTree.CurrentScrollOffset(10))
	assert.True(t, active.ScrollTree.CurrentScrollOffset(10).IsZero())

	require.NoError(t, active.ScrollTree.PushScrollUpdatesFromPendingTree(pending, log.observer()))
	assert.Equal(t, geom.Offset(0, 100), active.ScrollTree.CurrentScrollOffset(10))
	assert.Equal(t, ownerLog{10, 10}, log)

	// Impl-side scroll; only whole pixels go to the main thread.
	assert.True(t, active.ScrollTree.SetScrollOffset(10, geom.Offset(0, 130.5)))
	deltas := active.ScrollTree.CollectScrollDeltas(InvalidNodeID)
	assert.Equal(t, InvalidNodeID, deltas.InnerViewportScroll.OwnerID)
	require.Equal(t, []ScrollUpdateInfo{{OwnerID: 10, Delta: geom.V2(0, 30)}}, deltas.Scrolls)
	assert.Equal(t, geom.Offset(0, 130.5), active.ScrollTree.CurrentScrollOffset(10))

	// The main thread applies the delta and commits.
	main.ScrollTree.SetScrollOffset(10, geom.Offset(0, 130))
	require.NoError(t, pending.ScrollTree.PushScrollUpdatesFromMainThread(main, nil))
	assert.Equal(t, geom.Offset(0, 130.5), pending.ScrollTree.CurrentScrollOffset(10))
	assert.Equal(t, geom.Offset(0, 130.5), active.ScrollTree.CurrentScrollOffset(10))

	// Activation keeps the fractional remainder and does not apply the
	// reflected delta twice.
	require.NoError(t, active.ScrollTree.PushScrollUpdatesFromPendingTree(pending, nil))
	assert.Equal(t, geom.Offset(0, 130.5), active.ScrollTree.CurrentScrollOffset(10))
	s, err := active.ScrollTree.SyncedScrollOffset(10)
	require.NoError(t, err)
	assert.Equal(t, geom.Offset(0, 130), s.ActiveBase())
	assert.Equal(t, geom.Offset(0, 0.5), s.Delta())
}

func TestScrollTree_Clobber(t *testing.T) {
	main, pending, active := syncedTrees(t)
	main.ScrollTree.SetScrollOffset(10, geom.Offset(0, 100))
	require.NoError(t, pending.ScrollTree.PushScrollUpdatesFromMainThread(main, nil))
	require.NoError(t, active.ScrollTree.PushScrollUpdatesFromPendingTree(pending, nil))
	active.ScrollTree.SetScrollOffset(10, geom.Offset(0, 120))

	main.ScrollTree.SetScrollOffset(10, geom.Offset(0, 40))
	require.NoError(t, main.ScrollTree.ClobberActiveScrollOffset(10))
	var log ownerLog
	require.NoError(t, pending.ScrollTree.PushScrollUpdatesFromMainThread(main, log.observer()))
	assert.Equal(t, ownerLog{10}, log)
	assert.Equal(t, geom.Offset(0, 40), pending.ScrollTree.CurrentScrollOffset(10))

	require.NoError(t, active.ScrollTree.PushScrollUpdatesFromPendingTree(pending, nil))
	assert.Equal(t, geom.Offset(0, 40), active.ScrollTree.CurrentScrollOffset(10))

	s, err := pending.ScrollTree.SyncedScrollOffset(10)
	require.NoError(t, err)
	assert.False(t, s.ClobberActiveValue())
}

func TestScrollTree_CommitToActive(t *testing.T) {
	main, _, active := syncedTrees(t)
	main.ScrollTree.SetScrollOffset(10, geom.Offset(0, 60))

	require.NoError(t, active.ScrollTree.PushScrollUpdatesFromMainThread(main, nil))
	assert.Equal(t, geom.Offset(0, 60), active.ScrollTree.CurrentScrollOffset(10))
}

func TestScrollTree_PrunesRemovedOwners(t *testing.T) {
	main, pending, _ := syncedTrees(t)
	main.ScrollTree.SetScrollOffset(10, geom.Offset(0, 5))

	stale, err := pending.ScrollTree.SyncedScrollOffset(99)
	require.NoError(t, err)
	require.NoError(t, pending.ScrollTree.PushScrollUpdatesFromMainThread(main, nil))

	again, err := pending.ScrollTree.SyncedScrollOffset(99)
	require.NoError(t, err)
	assert.NotSame(t, stale, again)
}

func TestScrollTree_ModeGuards(t *testing.T) {
	main, pending, active := syncedTrees(t)

	assert.False(t, pending.ScrollTree.SetScrollOffset(10, geom.Offset(0, 5)), "pending trees only receive pushes")
	assert.True(t, pending.ScrollTree.CurrentScrollOffset(10).IsZero())

	require.ErrorIs(t, pending.ScrollTree.ClobberActiveScrollOffset(10), ErrInvalidState)
	_, err := main.ScrollTree.SyncedScrollOffset(10)
	require.ErrorIs(t, err, ErrInvalidState)
	require.ErrorIs(t, main.ScrollTree.UpdateScrollOffsetMap(&pending.ScrollTree, nil), ErrInvalidState)
	require.ErrorIs(t, pending.ScrollTree.PushScrollUpdatesFromPendingTree(pending, nil), ErrInvalidState)
	require.ErrorIs(t, active.ScrollTree.PushScrollUpdatesFromMainThread(pending, nil), ErrInvalidState)
	require.ErrorIs(t, active.ScrollTree.PushScrollUpdatesFromPendingTree(main, nil), ErrInvalidState)
	require.ErrorIs(t, main.ScrollTree.SetCurrentlyScrollingNode(9), ErrOutOfRange)
}

func TestScrollTree_CollectScrollDeltas(t *testing.T) {
	active := NewPropertyTrees(WithMode(ModeActive))
	st := &active.ScrollTree
	st.SetScrollOffset(30, geom.Offset(0, 5))
	st.SetScrollOffset(20, geom.Offset(3, 0))
	st.SetScrollOffset(10, geom.Offset(0, 7.75))
	st.SetScrollOffset(40, geom.Offset(0.5, 0))

	deltas := st.CollectScrollDeltas(10)
	assert.Equal(t, ScrollUpdateInfo{OwnerID: 10, Delta: geom.V2(0, 7)}, deltas.InnerViewportScroll)
	assert.Equal(t, []ScrollUpdateInfo{
		{OwnerID: 20, Delta: geom.V2(3, 0)},
		{OwnerID: 30, Delta: geom.V2(0, 5)},
	}, deltas.Scrolls)
}

func TestScrollTree_ClearOnPendingKeepsOffsets(t *testing.T) {
	main, pending, _ := syncedTrees(t)
	main.ScrollTree.SetScrollOffset(10, geom.Offset(0, 70))
	require.NoError(t, pending.ScrollTree.PushScrollUpdatesFromMainThread(main, nil))

	pending.ScrollTree.Clear()
	main.ScrollTree.Clear()
	assert.Equal(t, geom.Offset(0, 70), pending.ScrollTree.CurrentScrollOffset(10))
	assert.True(t, main.ScrollTree.CurrentScrollOffset(10).IsZero())

	// A cleared main tree is a fresh one; pending still holds its synced
	// offsets until the next push prunes them.
	assert.True(t, main.ScrollTree.Equal(&NewPropertyTrees().ScrollTree))
	fresh := NewPropertyTrees(WithMode(ModePending))
	assert.False(t, pending.ScrollTree.Equal(&fresh.ScrollTree))
	assert.Equal(t, 1, pending.ScrollTree.Size())

	require.NoError(t, pending.ScrollTree.PushScrollUpdatesFromMainThread(main, nil))
	assert.True(t, pending.ScrollTree.Equal(&fresh.ScrollTree))
}

func TestScrollTree_ActivationKeepsUnreflectedDelta(t *testing.T) {
	main, pending, active := syncedTrees(t)
	main.ScrollTree.SetScrollOffset(10, geom.Offset(0, 100))
	require.NoError(t, pending.ScrollTree.PushScrollUpdatesFromMainThread(main, nil))
	require.NoError(t, active.ScrollTree.PushScrollUpdatesFromPendingTree(pending, nil))
	require.True(t, active.ScrollTree.SetScrollOffset(10, geom.Offset(0, 120)))

	// A commit that does not move the base still activates the delta the
	// main thread has not seen yet.
	var log ownerLog
	require.NoError(t, pending.ScrollTree.PushScrollUpdatesFromMainThread(main, log.observer()))
	assert.Empty(t, log)
	require.NoError(t, active.ScrollTree.PushScrollUpdatesFromPendingTree(pending, log.observer()))
	assert.Equal(t, ownerLog{10}, log)
	assert.Equal(t, geom.Offset(0, 120), active.ScrollTree.CurrentScrollOffset(10))
}

func TestSyncedScrollOffset(t *testing.T) {
	s := NewSyncedScrollOffset()
	assert.True(t, s.PushFromMainThread(geom.Offset(0, 10)))
	assert.False(t, s.PushFromMainThread(geom.Offset(0, 10)))
	assert.True(t, s.PushPendingToActive())
	assert.Equal(t, geom.Offset(0, 10), s.Current(true))

	assert.True(t, s.SetCurrent(geom.Offset(0, 15)))
	assert.False(t, s.SetCurrent(geom.Offset(0, 15)))
	assert.Equal(t, geom.Offset(0, 5), s.PullDeltaForMainThread())

	t.Run("abort commit", func(t *testing.T) {
		s.AbortCommit()
		assert.Equal(t, geom.Offset(0, 15), s.PendingBase())
		assert.Equal(t, geom.Offset(0, 15), s.ActiveBase())
		assert.True(t, s.Delta().IsZero())
		assert.Equal(t, geom.Offset(0, 15), s.Current(true))
		assert.Equal(t, geom.Offset(0, 15), s.Current(false))
	})

	t.Run("carried delta", func(t *testing.T) {
		assert.False(t, s.PushFromMainThread(geom.Offset(0, 15)))
		s.SetCurrent(geom.Offset(0, 18))
		assert.True(t, s.PushPendingToActive(), "unreflected delta counts as a change")
		assert.Equal(t, geom.Offset(0, 18), s.Current(true))
		assert.Equal(t, geom.Offset(0, 3), s.Delta())
		s.SetCurrent(geom.Offset(0, 15))
		assert.False(t, s.PushPendingToActive())
	})

	t.Run("clobber", func(t *testing.T) {
		s.SetCurrent(geom.Offset(0, 25))
		s.SetClobberActiveValue()
		assert.True(t, s.ClobberActiveValue())
		assert.True(t, s.PendingDelta().IsZero())

		s.PushPendingToActive()
		assert.False(t, s.ClobberActiveValue())
		assert.Equal(t, geom.Offset(0, 15), s.Current(true))
	})
}
