// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/proptree/geom"
)

// approxEqual fails the test when got and want differ by more than 1e-4 in
// any element.
func approxEqual(t *testing.T, want, got geom.Transform) {
	t.Helper()
	if !got.ApproximatelyEqual(want, 1e-4) {
		assert.Failf(t, "transforms differ", "want %v\ngot  %v", want, got)
	}
}

func TestPropertyTree_InsertAndLookup(t *testing.T) {
	tree := NewClipTree()
	require.Equal(t, 1, tree.Size())

	a := NewClipNode()
	a.OwnerID = 7
	idA := tree.Insert(a, RootNodeID)
	idB := tree.Insert(NewClipNode(), idA)

	assert.Equal(t, 1, idA)
	assert.Equal(t, 2, idB)
	assert.Equal(t, 3, tree.Size())

	b, err := tree.Lookup(idB)
	require.NoError(t, err)
	assert.Equal(t, idA, b.ParentID)
	assert.Equal(t, 7, tree.Parent(b).OwnerID)
	assert.Nil(t, tree.Parent(tree.Node(RootNodeID)), "root has no parent")
	assert.Equal(t, InvalidNodeID, tree.Node(RootNodeID).ParentID)

	assert.Nil(t, tree.Node(-1))
	assert.Nil(t, tree.Node(3))

	_, err = tree.Lookup(3)
	require.ErrorIs(t, err, ErrOutOfRange)
	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "clip", nodeErr.Tree)
	assert.Equal(t, 3, nodeErr.ID)
	assert.Equal(t, 3, nodeErr.Size)
}

func TestPropertyTree_ParentsPrecedeChildren(t *testing.T) {
	tree := NewEffectTree()
	parent := RootNodeID
	for range 5 {
		parent = tree.Insert(NewEffectNode(), parent)
	}
	for _, n := range tree.Nodes()[1:] {
		assert.Less(t, n.ParentID, n.ID)
	}
}

func TestPropertyTree_ClearEqualsFresh(t *testing.T) {
	t.Run("transform", func(t *testing.T) {
		tree := NewTransformTree()
		n := NewTransformNode()
		n.Local = geom.NewScale(2, 2)
		tree.Insert(n, RootNodeID)
		tree.SetPageScaleFactor(3)
		tree.SetDeviceScaleFactor(2)
		tree.AddNodeAffectedByInnerViewportBoundsDelta(1)
		tree.UpdateAllTransforms()

		tree.Clear()
		assert.True(t, tree.Equal(NewTransformTree()))
	})

	t.Run("effect", func(t *testing.T) {
		tree := NewEffectTree()
		n := NewEffectNode()
		n.Opacity = 0.25
		n.Filters = []Filter{{Type: FilterBlur, Amount: 3}}
		tree.Insert(n, RootNodeID)
		tree.SetNeedsUpdate(true)

		tree.Clear()
		assert.True(t, tree.Equal(NewEffectTree()))
	})

	t.Run("clip", func(t *testing.T) {
		tree := NewClipTree()
		tree.Insert(NewClipNode(), RootNodeID)
		require.NoError(t, tree.SetViewportClip(geom.NewRectF(0, 0, 10, 10)))
		assert.True(t, tree.NeedsUpdate())

		tree.Clear()
		assert.True(t, tree.Equal(NewClipTree()))
	})

	t.Run("scroll", func(t *testing.T) {
		tree := NewScrollTree()
		n := NewScrollNode()
		n.OwnerID = 4
		tree.Insert(n, RootNodeID)
		tree.SetScrollOffset(4, geom.Offset(0, 12))
		require.NoError(t, tree.ClobberActiveScrollOffset(4))
		require.NoError(t, tree.SetCurrentlyScrollingNode(1))

		tree.Clear()
		assert.True(t, tree.Equal(NewScrollTree()))
	})
}

func TestPropertyTree_NeedsUpdate(t *testing.T) {
	tree := NewClipTree()
	assert.False(t, tree.NeedsUpdate())

	require.ErrorIs(t, tree.SetViewportClip(geom.NewRectF(0, 0, 1, 1)), ErrOutOfRange)

	tree.Insert(NewClipNode(), RootNodeID)
	clip := geom.NewRectF(0, 0, 100, 50)
	require.NoError(t, tree.SetViewportClip(clip))
	assert.True(t, tree.NeedsUpdate())

	tree.SetNeedsUpdate(false)
	require.NoError(t, tree.SetViewportClip(clip))
	assert.False(t, tree.NeedsUpdate(), "unchanged clip must not dirty the tree")

	got, err := tree.ViewportClip()
	require.NoError(t, err)
	assert.Equal(t, clip, got)
}

func TestStateError(t *testing.T) {
	err := stateError("Op", "not now")
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), "Op: not now")
}
