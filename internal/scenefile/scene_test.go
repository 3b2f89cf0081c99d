// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/proptree"
	"github.com/gogpu/proptree/geom"
	"github.com/gogpu/proptree/internal/scenefile"
)

const nestedScene = `
device_scale_factor: 2
viewport: [0, 0, 800, 600]
layers:
  - id: 10
    position: [10, 20]
    bounds: [400, 300]
    opacity: 0.5
    render_surface: true
    children:
      - id: 11
        position: [5, 5]
        bounds: [100, 100]
        transform:
          - scale: [3, 3]
        masks_to_bounds: true
      - id: 12
        bounds: [200, 200]
        scroll:
          content: [200, 1000]
          offset: [0, 150]
        copy_request:
          area: [0, 0, 10, 10]
`

func buildScene(t *testing.T, src string) (*scenefile.Scene, *proptree.PropertyTrees) {
	t.Helper()

	scene, err := scenefile.Parse(strings.NewReader(src))
	require.NoError(t, err)

	pt := proptree.NewPropertyTrees(proptree.WithAnimationScaleProvider(scene.AnimationHost()))
	err = pt.Rebuild(func(pt *proptree.PropertyTrees) error {
		return scene.Build(pt, scenefile.BuildOptions{})
	})
	require.NoError(t, err)
	pt.UpdateAll()
	return scene, pt
}

func TestParse_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{"duplicate id", "layers:\n  - id: 1\n  - id: 1\n", scenefile.ErrDuplicateLayerID},
		{"zero id", "layers:\n  - id: 0\n", scenefile.ErrInvalidLayerID},
		{"opacity", "layers:\n  - id: 1\n    opacity: 2\n", scenefile.ErrInvalidOpacity},
		{"scale", "device_scale_factor: 0\n", scenefile.ErrInvalidScale},
		{"two ops", "layers:\n  - id: 1\n    transform:\n      - {rotate: 1, scale: [1, 1]}\n", scenefile.ErrInvalidTransformOp},
		{"filter", "layers:\n  - id: 1\n    filters:\n      - {type: glow}\n", scenefile.ErrUnknownFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := scenefile.Parse(strings.NewReader(tt.src))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_UnknownKeyRejected(t *testing.T) {
	t.Parallel()

	_, err := scenefile.Parse(strings.NewReader("layers:\n  - id: 1\n    colour: red\n"))
	require.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	scene, err := scenefile.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, scene.LayerCount())
}

func TestBuild_NodeCounts(t *testing.T) {
	t.Parallel()

	scene, pt := buildScene(t, nestedScene)

	assert.Equal(t, 3, scene.LayerCount())
	// Root, contents root and one node per layer.
	assert.Equal(t, 5, pt.TransformTree.Size())
	// Root, contents root surface, layer 10 and layer 12.
	assert.Equal(t, 4, pt.EffectTree.Size())
	// Root, viewport and layer 11.
	assert.Equal(t, 3, pt.ClipTree.Size())
	assert.Equal(t, 2, pt.ScrollTree.Size())

	assert.True(t, pt.IsInIDToIndexMap(proptree.TransformTreeType, 11))
	assert.False(t, pt.IsInIDToIndexMap(proptree.EffectTreeType, 11))
	assert.Equal(t, 1, pt.SequenceNumber)
	assert.False(t, pt.NeedsRebuild)
}

func TestBuild_Transforms(t *testing.T) {
	t.Parallel()

	_, pt := buildScene(t, nestedScene)
	tt := &pt.TransformTree

	id := pt.NodeIndex(proptree.TransformTreeType, 11)
	m, err := tt.ToScreenSpaceTransformWithoutSurfaceContentsScale(id)
	require.NoError(t, err)
	p := m.MapPoint(geom.Pt(1, 1))
	assert.InDelta(t, 18.0, p.X, 1e-9)
	assert.InDelta(t, 28.0, p.Y, 1e-9)

	surface := pt.EffectTree.Node(pt.NodeIndex(proptree.EffectTreeType, 10))
	assert.InDelta(t, 2.0, surface.SurfaceContentsScale.X, 1e-9)
	assert.InDelta(t, 0.5, surface.ScreenSpaceOpacity, 1e-9)

	vp, err := pt.ClipTree.ViewportClip()
	require.NoError(t, err)
	assert.Equal(t, geom.NewRectF(0, 0, 800, 600), vp)
}

func TestBuild_Scrolling(t *testing.T) {
	t.Parallel()

	_, pt := buildScene(t, nestedScene)

	assert.Equal(t, geom.Offset(0, 150), pt.ScrollTree.CurrentScrollOffset(12))

	id := pt.NodeIndex(proptree.ScrollTreeType, 12)
	limit, err := pt.ScrollTree.MaxScrollOffset(id)
	require.NoError(t, err)
	assert.Equal(t, geom.Offset(0, 800), limit)

	tn := pt.TransformTree.Node(pt.NodeIndex(proptree.TransformTreeType, 12))
	assert.True(t, tn.Scrolls)
	assert.Equal(t, geom.Offset(0, 150), tn.ScrollOffset)
}

func TestBuild_CopyRequests(t *testing.T) {
	t.Parallel()

	scene, err := scenefile.Parse(strings.NewReader(nestedScene))
	require.NoError(t, err)

	var got []int
	pt := proptree.NewPropertyTrees()
	err = pt.Rebuild(func(pt *proptree.PropertyTrees) error {
		return scene.Build(pt, scenefile.BuildOptions{
			OnCopyResult: func(layerID int, res proptree.CopyOutputResult) {
				assert.True(t, res.IsEmpty())
				got = append(got, layerID)
			},
		})
	})
	require.NoError(t, err)
	pt.UpdateAll()

	effectID := pt.NodeIndex(proptree.EffectTreeType, 12)
	assert.Equal(t, 1, pt.EffectTree.CopyRequestCount(effectID))
	assert.Equal(t, 1, pt.EffectTree.Node(proptree.ContentsRootNodeID).NumCopyRequestsInSubtree)

	reqs, err := pt.EffectTree.TakeCopyRequestsAndTransformToSurface(effectID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	area, ok := reqs[0].Area()
	require.True(t, ok)
	assert.Equal(t, geom.NewRect(0, 0, 20, 20), area)

	// Requests still queued are aborted.
	require.NoError(t, pt.EffectTree.AddCopyRequest(effectID, reqs[0]))
	pt.EffectTree.ClearCopyRequests()
	assert.Equal(t, []int{12}, got)
}

func TestAnimationHost(t *testing.T) {
	t.Parallel()

	src := `
layers:
  - id: 1
    animation:
      max_scale: 4
      start_scale: 2
  - id: 2
    animation:
      translate: true
`
	scene, err := scenefile.Parse(strings.NewReader(src))
	require.NoError(t, err)

	host := scene.AnimationHost()
	v, ok := host.MaximumTargetScale(1, proptree.AnimationTargetActive)
	assert.True(t, ok)
	assert.InDelta(t, 4.0, v, 0)
	v, ok = host.AnimationStartScale(1, proptree.AnimationTargetPending)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, v, 0)
	_, ok = host.MaximumTargetScale(2, proptree.AnimationTargetActive)
	assert.False(t, ok)
}
