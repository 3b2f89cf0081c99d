// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"errors"

	"github.com/gogpu/proptree"
	"github.com/gogpu/proptree/geom"
)

var filterTypes = map[string]proptree.FilterType{
	"grayscale":   proptree.FilterGrayscale,
	"sepia":       proptree.FilterSepia,
	"saturate":    proptree.FilterSaturate,
	"hue_rotate":  proptree.FilterHueRotate,
	"invert":      proptree.FilterInvert,
	"brightness":  proptree.FilterBrightness,
	"contrast":    proptree.FilterContrast,
	"opacity":     proptree.FilterOpacity,
	"blur":        proptree.FilterBlur,
	"drop_shadow": proptree.FilterDropShadow,
}

// BuildOptions supplies the values a scene does not set itself.
type BuildOptions struct {
	DeviceScaleFactor float64
	PageScaleFactor   float64
	// OnCopyResult receives the results of the scene's copy requests. The
	// default logs them.
	OnCopyResult func(layerID int, res proptree.CopyOutputResult)
}

// frame is the state inherited from the ancestors of a layer.
type frame struct {
	transformID       int
	effectID          int
	clipID            int
	scrollID          int
	targetTransformID int
	targetEffectID    int
	pageScale         bool
}

type builder struct {
	pt   *proptree.PropertyTrees
	opts BuildOptions
}

// Build populates pt with the scene. It is meant to run inside
// PropertyTrees.Rebuild, which clears pt first:
//
//	err := pt.Rebuild(func(pt *proptree.PropertyTrees) error {
//	    return scene.Build(pt, opts)
//	})
//
// Every layer gets a transform node. Effect, clip and scroll nodes are
// created only for layers that need them. Scroll offsets are written to
// the scroll tree, so the instance should be a main-thread one.
func (s *Scene) Build(pt *proptree.PropertyTrees, opts BuildOptions) error {
	if opts.DeviceScaleFactor == 0 {
		opts.DeviceScaleFactor = 1
	}
	if opts.PageScaleFactor == 0 {
		opts.PageScaleFactor = 1
	}
	if s.DeviceScaleFactor != nil {
		opts.DeviceScaleFactor = *s.DeviceScaleFactor
	}
	if s.PageScaleFactor != nil {
		opts.PageScaleFactor = *s.PageScaleFactor
	}

	b := &builder{pt: pt, opts: opts}
	root, err := b.addContentsRoot(s)
	if err != nil {
		return err
	}

	copies := 0
	for i := range s.Layers {
		n, err := b.addLayer(&s.Layers[i], root)
		if err != nil {
			return err
		}
		copies += n
	}
	pt.EffectTree.Node(proptree.ContentsRootNodeID).NumCopyRequestsInSubtree = copies

	tt := &pt.TransformTree
	tt.SetPageScaleFactor(opts.PageScaleFactor)
	tt.SetRootTransformsAndScales(opts.DeviceScaleFactor, 1, composeOps(s.DeviceTransform), geom.Pt(0, 0))
	pt.SetInnerViewportContainerBoundsDelta(geom.V2(s.InnerViewportContainerBoundsDelta[0], s.InnerViewportContainerBoundsDelta[1]))
	pt.SetOuterViewportContainerBoundsDelta(geom.V2(s.OuterViewportContainerBoundsDelta[0], s.OuterViewportContainerBoundsDelta[1]))

	tt.SetNeedsUpdate(true)
	pt.EffectTree.SetNeedsUpdate(true)
	pt.ClipTree.SetNeedsUpdate(true)
	pt.ScrollTree.SetNeedsUpdate(true)

	proptree.Logger().Debug("scenefile: built scene",
		"layers", s.LayerCount(),
		"copy_requests", copies,
		"device_scale_factor", opts.DeviceScaleFactor,
		"page_scale_factor", opts.PageScaleFactor)
	return nil
}

// addContentsRoot inserts the nodes every scene has: the contents root
// transform, the root render surface and the viewport clip.
func (b *builder) addContentsRoot(s *Scene) (frame, error) {
	pt := b.pt

	tn := proptree.NewTransformNode()
	tn.NeedsSurfaceContentsScale = true
	transformID := pt.TransformTree.Insert(tn, proptree.RootNodeID)
	if err := pt.TransformTree.SetTargetID(transformID, proptree.RootNodeID); err != nil {
		return frame{}, err
	}
	if err := pt.TransformTree.SetContentTargetID(transformID, transformID); err != nil {
		return frame{}, err
	}

	cn := proptree.NewClipNode()
	cn.Clip = geom.NewRectF(s.Viewport[0], s.Viewport[1], s.Viewport[2], s.Viewport[3])
	clipID := pt.ClipTree.Insert(cn, proptree.RootNodeID)

	en := proptree.NewEffectNode()
	en.HasRenderSurface = true
	en.TransformID = transformID
	en.ClipID = clipID
	en.TargetID = proptree.RootNodeID
	effectID := pt.EffectTree.Insert(en, proptree.RootNodeID)

	if transformID != proptree.ContentsRootNodeID || effectID != proptree.ContentsRootNodeID || clipID != proptree.ViewportNodeID {
		return frame{}, errors.New("scenefile: trees were not empty")
	}

	return frame{
		transformID:       transformID,
		effectID:          effectID,
		clipID:            clipID,
		scrollID:          proptree.RootNodeID,
		targetTransformID: transformID,
		targetEffectID:    effectID,
	}, nil
}

// addLayer inserts the nodes of l and its subtree and returns the number
// of copy requests in it.
func (b *builder) addLayer(l *Layer, parent frame) (int, error) {
	pt := b.pt
	tt := &pt.TransformTree
	surface := l.needsSurface()
	child := parent
	child.pageScale = parent.pageScale || l.PageScale

	transformID, err := b.addTransform(l, parent, child.pageScale, surface)
	if err != nil {
		return 0, err
	}
	child.transformID = transformID
	if surface {
		child.targetTransformID = transformID
	}

	if l.MasksToBounds {
		cn := proptree.NewClipNode()
		cn.OwnerID = l.ID
		cn.Clip = geom.NewRectF(0, 0, l.Bounds[0], l.Bounds[1])
		cn.TransformID = transformID
		cn.TargetID = parent.targetTransformID
		child.clipID = pt.ClipTree.Insert(cn, parent.clipID)
		pt.ClipIDToIndex[l.ID] = child.clipID
	}

	if l.Scroll != nil {
		sn := proptree.NewScrollNode()
		sn.OwnerID = l.ID
		sn.Bounds = geom.Size{W: int(l.Scroll.Content[0]), H: int(l.Scroll.Content[1])}
		sn.ScrollClipLayerBounds = geom.Size{W: int(l.Bounds[0]), H: int(l.Bounds[1])}
		sn.Scrollable = true
		sn.UserScrollableHorizontal = boolOr(l.Scroll.Horizontal, true)
		sn.UserScrollableVertical = boolOr(l.Scroll.Vertical, true)
		sn.IsInnerViewportScrollLayer = l.Scroll.InnerViewport
		sn.IsOuterViewportScrollLayer = l.Scroll.OuterViewport
		sn.MaxScrollOffsetAffectedByPageScale = child.pageScale
		sn.ShouldFlatten = boolOr(l.Flatten, true)
		sn.TransformID = transformID
		child.scrollID = pt.ScrollTree.Insert(sn, parent.scrollID)
		pt.ScrollIDToIndex[l.ID] = child.scrollID
	}

	effectID := proptree.InvalidNodeID
	if l.needsEffect() {
		effectID, err = b.addEffect(l, transformID, child.clipID, parent)
		if err != nil {
			return 0, err
		}
		child.effectID = effectID
		if surface {
			child.targetEffectID = effectID
		}
	}

	copies := 0
	if l.CopyRequest != nil {
		copies++
	}
	for i := range l.Children {
		n, err := b.addLayer(&l.Children[i], child)
		if err != nil {
			return 0, err
		}
		copies += n
	}
	if effectID != proptree.InvalidNodeID {
		pt.EffectTree.Node(effectID).NumCopyRequestsInSubtree = copies
	}
	// Content target depends on the surface decision only.
	if err := tt.SetContentTargetID(transformID, child.targetTransformID); err != nil {
		return 0, err
	}
	return copies, nil
}

func (b *builder) addTransform(l *Layer, parent frame, pageScale, surface bool) (int, error) {
	pt := b.pt
	tt := &pt.TransformTree

	origin := l.TransformOrigin
	tn := proptree.NewTransformNode()
	tn.OwnerID = l.ID
	tn.PreLocal = geom.NewTranslation(-origin[0], -origin[1])
	tn.Local = composeOps(l.Transform)
	tn.PostLocal = geom.NewTranslation(l.Position[0]+origin[0], l.Position[1]+origin[1])
	tn.FlattensInheritedTransform = boolOr(l.Flatten, true)
	tn.SortingContextID = l.SortingContext
	tn.InSubtreeOfPageScaleLayer = pageScale
	tn.NeedsSurfaceContentsScale = surface
	tn.HasPotentialAnimation = l.Animation.transform()
	tn.HasOnlyTranslationAnimations = !l.Animation.scale()
	tn.Scrolls = l.Scroll != nil

	parentID := parent.transformID
	if l.Fixed {
		tn.SourceNodeID = parent.transformID
		parentID = proptree.ContentsRootNodeID
		tn.AffectedByOuterViewportBoundsDeltaX = l.FixedToRight
		tn.AffectedByOuterViewportBoundsDeltaY = l.FixedToBottom
	}
	if l.Scroll != nil {
		pt.ScrollTree.SetScrollOffset(l.ID, geom.Offset(l.Scroll.Offset[0], l.Scroll.Offset[1]))
		tn.ScrollOffset = pt.ScrollTree.CurrentScrollOffset(l.ID)
	}

	id := tt.Insert(tn, parentID)
	pt.TransformIDToIndex[l.ID] = id
	if l.FixedToRight || l.FixedToBottom {
		tt.AddNodeAffectedByOuterViewportBoundsDelta(id)
	}
	if err := tt.SetTargetID(id, parent.targetTransformID); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *builder) addEffect(l *Layer, transformID, clipID int, parent frame) (int, error) {
	pt := b.pt

	en := proptree.NewEffectNode()
	en.OwnerID = l.ID
	if l.Opacity != nil {
		en.Opacity = *l.Opacity
	}
	en.SubtreeHidden = l.Hidden
	en.HasRenderSurface = l.needsSurface()
	en.DoubleSided = boolOr(l.DoubleSided, true)
	en.Filters = convertFilters(l.Filters)
	en.BackgroundFilters = convertFilters(l.BackgroundFilters)
	en.HasPotentialOpacityAnimation = l.Animation != nil && l.Animation.Opacity
	en.IsCurrentlyAnimatingOpacity = en.HasPotentialOpacityAnimation
	en.HasCopyRequest = l.CopyRequest != nil
	en.TransformID = transformID
	en.ClipID = clipID
	en.TargetID = parent.targetEffectID

	id := pt.EffectTree.Insert(en, parent.effectID)
	pt.EffectIDToIndex[l.ID] = id

	if l.CopyRequest != nil {
		req := proptree.NewCopyOutputRequest(b.copyCallback(l.ID))
		if a := l.CopyRequest.Area; len(a) == 4 {
			req.SetArea(geom.NewRect(a[0], a[1], a[2], a[3]))
		}
		if err := pt.EffectTree.AddCopyRequest(id, req); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (b *builder) copyCallback(layerID int) func(proptree.CopyOutputResult) {
	if b.opts.OnCopyResult != nil {
		return func(res proptree.CopyOutputResult) { b.opts.OnCopyResult(layerID, res) }
	}
	return func(res proptree.CopyOutputResult) {
		proptree.Logger().Info("scenefile: copy result",
			"layer", layerID,
			"empty", res.IsEmpty(),
			"area", res.Area)
	}
}

func (l *Layer) needsSurface() bool {
	return l.RenderSurface || l.CopyRequest != nil ||
		len(l.Filters) > 0 || len(l.BackgroundFilters) > 0
}

func (l *Layer) needsEffect() bool {
	return l.needsSurface() || l.Opacity != nil || l.Hidden || l.DoubleSided != nil ||
		(l.Animation != nil && l.Animation.Opacity)
}

func convertFilters(fs []Filter) []proptree.Filter {
	if len(fs) == 0 {
		return nil
	}
	out := make([]proptree.Filter, len(fs))
	for i, f := range fs {
		out[i] = proptree.Filter{Type: filterTypes[f.Type], Amount: f.Amount}
	}
	return out
}

// composeOps multiplies the operations left to right, so the last one is
// applied to points first.
func composeOps(ops []TransformOp) geom.Transform {
	m := geom.Identity()
	for _, op := range ops {
		switch {
		case op.Translate != nil:
			m = m.Translate(op.Translate[0], op.Translate[1])
		case op.Scale != nil:
			m = m.Scale(op.Scale[0], op.Scale[1])
		case op.Rotate != nil:
			m = m.RotateAboutZAxis(*op.Rotate)
		case op.RotateX != nil:
			m = m.RotateAboutXAxis(*op.RotateX)
		case op.RotateY != nil:
			m = m.RotateAboutYAxis(*op.RotateY)
		case op.Perspective != nil:
			m = m.ApplyPerspectiveDepth(*op.Perspective)
		}
	}
	return m
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// AnimationHost answers animation scale queries for the layers of a scene.
type AnimationHost struct {
	maxScale   map[int]float64
	startScale map[int]float64
}

// AnimationHost collects the scale animations of the scene's layers.
func (s *Scene) AnimationHost() *AnimationHost {
	h := &AnimationHost{maxScale: make(map[int]float64), startScale: make(map[int]float64)}
	_ = walk(s.Layers, func(l *Layer) error {
		if l.Animation == nil {
			return nil
		}
		if l.Animation.MaxScale != nil {
			h.maxScale[l.ID] = *l.Animation.MaxScale
		}
		if l.Animation.StartScale != nil {
			h.startScale[l.ID] = *l.Animation.StartScale
		}
		return nil
	})
	return h
}

// MaximumTargetScale implements proptree.AnimationScaleProvider. Scenes
// describe a single timeline, so both instances see the same values.
func (h *AnimationHost) MaximumTargetScale(ownerID int, _ proptree.AnimationTargetType) (float64, bool) {
	v, ok := h.maxScale[ownerID]
	return v, ok
}

// AnimationStartScale implements proptree.AnimationScaleProvider.
func (h *AnimationHost) AnimationStartScale(ownerID int, _ proptree.AnimationTargetType) (float64, bool) {
	v, ok := h.startScale[ownerID]
	return v, ok
}
