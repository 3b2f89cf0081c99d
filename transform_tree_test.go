// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/proptree/geom"
)

// addTransform inserts a node with the given local transform.
func addTransform(tt *TransformTree, parent int, local geom.Transform) int {
	n := NewTransformNode()
	n.Local = local
	return tt.Insert(n, parent)
}

// flatTrees builds
//
//	root
//	└── 1 translate(10, 20)
//	    ├── 2 scale(2)
//	    │   └── 3 rotate(30)
//	    └── 4 translate(5, 5)
func flatTrees(t *testing.T) *PropertyTrees {
	t.Helper()
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	one := addTransform(tt, RootNodeID, geom.NewTranslation(10, 20))
	two := addTransform(tt, one, geom.NewScale(2, 2))
	addTransform(tt, two, geom.Identity().RotateAboutZAxis(30))
	addTransform(tt, one, geom.NewTranslation(5, 5))
	pt.UpdateAll()
	return pt
}

func TestComputeTransform_SameNode(t *testing.T) {
	pt := flatTrees(t)
	for id := InvalidNodeID; id < pt.TransformTree.Size(); id++ {
		m, ok, err := pt.TransformTree.ComputeTransform(id, id)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, m.IsIdentity(), "node %d", id)
	}
}

func TestComputeTransform_ToScreen(t *testing.T) {
	pt := flatTrees(t)

	m, ok, err := pt.TransformTree.ComputeTransform(2, InvalidNodeID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, geom.Pt(12, 22), m.MapPoint(geom.Pt(1, 1)))
	assert.Equal(t, pt.TransformTree.ToScreen(2), m)
}

func TestComputeTransform_InverseRoundTrip(t *testing.T) {
	pt := flatTrees(t)
	tt := &pt.TransformTree

	pairs := [][2]int{{3, 4}, {4, 3}, {3, 1}, {1, 3}, {2, InvalidNodeID}, {RootNodeID, 3}}
	for _, p := range pairs {
		forward, ok, err := tt.ComputeTransform(p[0], p[1])
		require.NoError(t, err)
		require.True(t, ok)
		backward, ok, err := tt.ComputeTransform(p[1], p[0])
		require.NoError(t, err)
		require.True(t, ok)

		approxEqual(t, geom.Identity(), forward.PreConcat(backward))
	}
}

func TestComputeTransform_Flattening(t *testing.T) {
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	tilt := geom.Identity().RotateAboutXAxis(45)
	a := addTransform(tt, RootNodeID, tilt)

	n := NewTransformNode()
	n.Local = geom.NewTranslation(3, 4)
	n.FlattensInheritedTransform = true
	b := tt.Insert(n, a)
	pt.UpdateAll()

	want := tilt.Flatten().PreConcat(geom.NewTranslation(3, 4))
	approxEqual(t, want, tt.ToScreen(b))

	node := tt.Node(b)
	assert.False(t, node.NodeAndAncestorsAreFlat)
	assert.True(t, node.AncestorsAreInvertible)

	// Flattening above the destination is not part of the path.
	m, ok, err := tt.ComputeTransform(b, a)
	require.NoError(t, err)
	assert.True(t, ok)
	approxEqual(t, node.ToParent, m)

	// The inverse path composes forward and inverts once.
	inv, ok, err := tt.ComputeTransform(RootNodeID, b)
	require.NoError(t, err)
	require.True(t, ok)
	approxEqual(t, geom.Identity(), inv.PreConcat(tt.ToScreen(b)))
}

func TestComputeTransform_FlattensAccumulatedAncestors(t *testing.T) {
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	tilt := geom.Identity().RotateAboutXAxis(45)
	a := addTransform(tt, RootNodeID, tilt)

	local := geom.Identity().RotateAboutYAxis(30).Translate3d(0, 0, 7)
	n := NewTransformNode()
	n.Local = local
	n.FlattensInheritedTransform = true
	b := tt.Insert(n, a)
	pt.UpdateAll()

	node := tt.Node(b)
	approxEqual(t, local, node.ToParent)

	// Only what b inherits is flattened; b's own 3d part survives.
	approxEqual(t, tilt.Flatten().PreConcat(local), tt.ToScreen(b))
	assert.False(t, tt.ToScreen(b).ApproximatelyEqual(tilt.PreConcat(local).Flatten(), 1e-4))
	assert.False(t, tt.ToScreen(b).IsFlat())
}

// pathTransform composes ToParent from just below ancestor down to id,
// flattening the accumulated transform where a node asks for it.
func pathTransform(tt *TransformTree, id, ancestor int) geom.Transform {
	var path []int
	for ; id != ancestor; id = tt.Node(id).ParentID {
		path = append(path, id)
	}
	m := geom.Identity()
	for i := len(path) - 1; i >= 0; i-- {
		node := tt.Node(path[i])
		if node.FlattensInheritedTransform {
			m = m.Flatten()
		}
		m = m.PreConcat(node.ToParent)
	}
	return m
}

func TestComputeTransform_MatchesPathComposition(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	span := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	locals := []func() geom.Transform{
		func() geom.Transform { return geom.NewTranslation(span(-20, 20), span(-20, 20)) },
		func() geom.Transform { return geom.NewScale(span(0.5, 2), span(0.5, 2)) },
		func() geom.Transform { return geom.Identity().RotateAboutZAxis(span(0, 360)) },
		func() geom.Transform { return geom.Identity().RotateAboutXAxis(span(-40, 40)) },
		func() geom.Transform {
			return geom.Identity().RotateAboutYAxis(span(-40, 40)).Translate3d(0, 0, span(-10, 10))
		},
	}

	for round := range 25 {
		pt := NewPropertyTrees()
		tt := &pt.TransformTree
		for range 8 {
			n := NewTransformNode()
			n.Local = locals[rng.IntN(len(locals))]()
			n.FlattensInheritedTransform = rng.IntN(2) == 0
			tt.Insert(n, rng.IntN(tt.Size()))
		}
		pt.UpdateAll()

		for src := 1; src < tt.Size(); src++ {
			approxEqual(t, pathTransform(tt, src, RootNodeID), tt.ToScreen(src))

			for dst := tt.Node(src).ParentID; dst != InvalidNodeID; dst = tt.Node(dst).ParentID {
				forward, ok, err := tt.ComputeTransform(src, dst)
				require.NoError(t, err)
				require.True(t, ok)
				if want := pathTransform(tt, src, dst); !forward.ApproximatelyEqual(want, 1e-6) {
					t.Errorf("round %d: ComputeTransform(%d, %d) = %v, want %v", round, src, dst, forward, want)
				}

				backward, ok, err := tt.ComputeTransform(dst, src)
				require.NoError(t, err)
				if !ok {
					continue
				}
				if !forward.PreConcat(backward).ApproximatelyEqual(geom.Identity(), 1e-6) {
					t.Errorf("round %d: ComputeTransform(%d, %d) does not invert ComputeTransform(%d, %d)",
						round, dst, src, src, dst)
				}
			}
		}
	}
}

func TestComputeTransform_Errors(t *testing.T) {
	pt := flatTrees(t)
	tt := &pt.TransformTree

	_, _, err := tt.ComputeTransform(9, 1)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, _, err = tt.ComputeTransform(1, -2)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = tt.CombineTransformsBetween(1, 3)
	require.ErrorIs(t, err, ErrInvalidState)
	_, _, err = tt.CombineInversesBetween(3, 1)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestComputeTransform_Singular(t *testing.T) {
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	flat := addTransform(tt, RootNodeID, geom.NewScale(0, 1))
	pt.UpdateAll()

	node := tt.Node(flat)
	assert.False(t, node.IsInvertible)
	assert.False(t, node.AncestorsAreInvertible)
	assert.False(t, node.NodeAndAncestorsAreAnimatedOrInvertible)

	_, ok, err := tt.ComputeTransform(InvalidNodeID, flat)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComputeTranslation(t *testing.T) {
	pt := flatTrees(t)
	tt := &pt.TransformTree

	got, err := tt.ComputeTranslation(4, RootNodeID)
	require.NoError(t, err)
	assert.Equal(t, geom.V2(15, 25), got)

	got, err = tt.ComputeTranslation(4, 1)
	require.NoError(t, err)
	assert.Equal(t, geom.V2(5, 5), got)

	// A scale in the path falls back to the full transform.
	got, err = tt.ComputeTranslation(2, InvalidNodeID)
	require.NoError(t, err)
	assert.Equal(t, geom.V2(10, 20), got)
}

func TestUpdateTransforms_SurfaceContentsScale(t *testing.T) {
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	tt.SetDeviceScaleFactor(2)
	tt.SetPageScaleFactor(3)

	contents := addTransform(tt, RootNodeID, geom.Identity())

	page := NewTransformNode()
	page.Local = geom.NewScale(1.5, 1.5)
	page.NeedsSurfaceContentsScale = true
	page.InSubtreeOfPageScaleLayer = true
	pageID := tt.Insert(page, contents)

	plain := NewTransformNode()
	plain.NeedsSurfaceContentsScale = true
	plainID := tt.Insert(plain, contents)

	leaf := addTransform(tt, pageID, geom.NewTranslation(2, 0))
	require.NoError(t, tt.SetTargetID(leaf, pageID))
	pt.UpdateAll()

	// Screen scale times device and page scale.
	assert.Equal(t, geom.V2(9, 9), tt.Node(pageID).SurfaceContentsScale)
	assert.Equal(t, geom.V2(2, 2), tt.Node(plainID).SurfaceContentsScale)
	assert.Equal(t, geom.V2(1, 1), tt.Node(leaf).SurfaceContentsScale)

	assert.Equal(t, geom.NewScale(9, 9), tt.ToTarget(pageID))
	// Target space of a surface's descendant includes the surface's scale.
	origin := tt.ToTarget(leaf).MapPoint(geom.Pt(0, 0))
	assert.InDelta(t, 18, origin.X, 1e-9)
	assert.InDelta(t, 0, origin.Y, 1e-9)
	approxEqual(t, geom.Identity(), tt.ToTarget(leaf).PreConcat(tt.FromTarget(leaf)))
}

func TestUpdateTransforms_ScrollSnapping(t *testing.T) {
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	n := NewTransformNode()
	n.Scrolls = true
	n.ScrollOffset = geom.Offset(0, 10.3)
	id := tt.Insert(n, RootNodeID)

	for pass := range 2 {
		pt.UpdateAll()

		node := tt.Node(id)
		assert.InDelta(t, 0.3, node.ScrollSnap.Y, 1e-9, "pass %d", pass)
		assert.InDelta(t, -10, tt.ToScreen(id).To2dTranslation().Y, 1e-9, "pass %d", pass)
		assert.InDelta(t, -10, node.ToParent.To2dTranslation().Y, 1e-9, "pass %d", pass)
		approxEqual(t, geom.Identity(), tt.ToScreen(id).PreConcat(tt.FromScreen(id)))
	}

	raw, err := tt.ToScreenSpaceTransformWithoutSurfaceContentsScale(id)
	require.NoError(t, err)
	assert.InDelta(t, -10, raw.To2dTranslation().Y, 1e-9)
}

func TestUpdateTransforms_NoSnappingWhileAnimating(t *testing.T) {
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	n := NewTransformNode()
	n.Scrolls = true
	n.HasPotentialAnimation = true
	n.ScrollOffset = geom.Offset(0, 10.3)
	id := tt.Insert(n, RootNodeID)
	pt.UpdateAll()

	assert.Equal(t, geom.Vector2D{}, tt.Node(id).ScrollSnap)
	assert.True(t, tt.Node(id).ToScreenIsPotentiallyAnimated)
	assert.InDelta(t, -10.3, tt.ToScreen(id).To2dTranslation().Y, 1e-9)
}

func TestUpdateTransforms_FixedPosition(t *testing.T) {
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	contents := addTransform(tt, RootNodeID, geom.Identity())

	scroller := NewTransformNode()
	scroller.ScrollOffset = geom.Offset(0, 50)
	scrollerID := tt.Insert(scroller, contents)

	fixed := NewTransformNode()
	fixed.SourceNodeID = contents
	fixedID := tt.Insert(fixed, scrollerID)
	pt.UpdateAll()

	assert.Equal(t, geom.V2(0, 50), tt.Node(fixedID).SourceToParent)
	approxEqual(t, geom.Identity(), tt.ToScreen(fixedID))

	t.Run("updates disabled", func(t *testing.T) {
		tt.SetSourceToParentUpdatesAllowed(false)
		t.Cleanup(func() { tt.SetSourceToParentUpdatesAllowed(true) })

		tt.Node(scrollerID).ScrollOffset = geom.Offset(0, 80)
		tt.Node(scrollerID).NeedsLocalTransformUpdate = true
		pt.UpdateAll()
		// The stale source offset is kept.
		assert.Equal(t, geom.V2(0, 50), tt.Node(fixedID).SourceToParent)
	})
}

func TestUpdateTransforms_ViewportBoundsDelta(t *testing.T) {
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	n := NewTransformNode()
	n.AffectedByInnerViewportBoundsDeltaX = true
	n.AffectedByOuterViewportBoundsDeltaY = true
	id := tt.Insert(n, RootNodeID)
	tt.AddNodeAffectedByInnerViewportBoundsDelta(id)
	tt.AddNodeAffectedByOuterViewportBoundsDelta(id)
	pt.UpdateAll()
	assert.False(t, tt.NeedsUpdate())
	assert.True(t, tt.HasNodesAffectedByInnerViewportBoundsDelta())
	assert.Equal(t, []int{id}, tt.NodesAffectedByOuterViewportBoundsDelta())

	pt.SetInnerViewportContainerBoundsDelta(geom.V2(4, 6))
	pt.SetOuterViewportContainerBoundsDelta(geom.V2(7, 9))
	assert.True(t, tt.NeedsUpdate())
	assert.True(t, tt.Node(id).NeedsLocalTransformUpdate)

	pt.UpdateAll()
	assert.Equal(t, geom.V2(4, 9), tt.Node(id).ToParent.To2dTranslation())
}

func TestSetRootTransformsAndScales(t *testing.T) {
	pt := NewPropertyTrees()
	tt := &pt.TransformTree
	contents := addTransform(tt, RootNodeID, geom.Identity())
	pt.UpdateAll()

	tt.SetRootTransformsAndScales(2, 1.5, geom.NewScale(3, 3), geom.Pt(5, 7))
	assert.True(t, tt.NeedsUpdate())
	assert.Equal(t, 3.0, tt.DeviceTransformScaleFactor())
	assert.Equal(t, 3.0, tt.DeviceScaleFactor())

	pt.UpdateAll()
	assert.True(t, tt.ToScreen(RootNodeID).IsIdentity())
	assert.Equal(t, geom.NewTranslation(5, 7), tt.ToScreen(contents))

	// The same values again do not dirty the tree.
	tt.SetRootTransformsAndScales(2, 1.5, geom.NewScale(3, 3), geom.Pt(5, 7))
	assert.False(t, tt.NeedsUpdate())
}

func TestUpdateTransforms_ChangeTracking(t *testing.T) {
	pt := flatTrees(t)
	tt := &pt.TransformTree
	tt.Node(2).TransformChanged = true

	pt.UpdateChangeTracking()
	assert.True(t, tt.Node(3).TransformChanged)
	assert.False(t, tt.Node(4).TransformChanged)

	tt.ResetChangeTracking()
	for _, n := range tt.Nodes() {
		assert.False(t, n.TransformChanged)
	}
}

func TestUpdateTransforms_IntegerTranslation(t *testing.T) {
	pt := flatTrees(t)
	tt := &pt.TransformTree
	assert.True(t, tt.Node(1).NodeAndAncestorsHaveOnlyIntegerTranslation)
	assert.False(t, tt.Node(2).NodeAndAncestorsHaveOnlyIntegerTranslation)
	assert.False(t, tt.Node(3).NodeAndAncestorsHaveOnlyIntegerTranslation)
	assert.True(t, tt.Node(4).NodeAndAncestorsHaveOnlyIntegerTranslation)
}

func TestUpdateTransforms_OutOfRange(t *testing.T) {
	pt := flatTrees(t)
	require.ErrorIs(t, pt.TransformTree.UpdateTransforms(pt.TransformTree.Size()), ErrOutOfRange)
	require.NoError(t, pt.TransformTree.UpdateTransforms(1))
}
