// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"math"

	"github.com/gogpu/proptree/geom"
)

// AnimationTargetType selects which instance's animations are queried.
type AnimationTargetType int

const (
	AnimationTargetActive AnimationTargetType = iota
	AnimationTargetPending
)

// AnimationScaleProvider answers scale queries about the animations of a
// layer. It is only consulted for nodes whose animations are not all
// translations. A false result means the scale is unknown.
type AnimationScaleProvider interface {
	// MaximumTargetScale returns the largest scale any running animation
	// of ownerID reaches.
	MaximumTargetScale(ownerID int, target AnimationTargetType) (float64, bool)
	// AnimationStartScale returns the scale at which the animations of
	// ownerID start.
	AnimationStartScale(ownerID int, target AnimationTargetType) (float64, bool)
}

// AnimationScales are the raster scales a subtree may reach while
// animating, combined with the scales of its ancestors. Zero means the
// scale could not be determined.
type AnimationScales struct {
	CombinedMaximumAnimationTargetScale float64
	CombinedStartingAnimationScale      float64
}

type animationScaleData struct {
	AnimationScales
	// toScreenHasScaleAnimation is set when this node or an ancestor
	// animates scale, or when tracking failed above.
	toScreenHasScaleAnimation bool
}

// GetAnimationScales returns the combined animation scales of transform
// node id. Results are memoized until the next UpdateCachedNumber.
func (pt *PropertyTrees) GetAnimationScales(id int) (AnimationScales, error) {
	if err := pt.TransformTree.checkID(id); err != nil {
		return AnimationScales{}, err
	}
	return pt.animationScalesOf(id).AnimationScales, nil
}

func (pt *PropertyTrees) animationScalesOf(id int) animationScaleData {
	hit := true
	d := pt.cached.animationScales.GetOrCompute(id, pt.cached.updateNumber, func() animationScaleData {
		hit = false
		pt.metrics.cacheLookup(cacheAnimationScales, false)
		// Ancestors are memoized by the recursive calls.
		return pt.computeAnimationScales(id)
	})
	if hit {
		pt.metrics.cacheLookup(cacheAnimationScales, true)
	}
	return d
}

func (pt *PropertyTrees) computeAnimationScales(id int) animationScaleData {
	var d animationScaleData
	if !pt.scaleContents {
		return d
	}

	tt := &pt.TransformTree
	node := tt.Node(id)
	parent := tt.Parent(node)

	var ancestor animationScaleData
	if parent != nil {
		ancestor = pt.animationScalesOf(parent.ID)
	}
	ancestorAnimatingScale := ancestor.toScreenHasScaleAnimation
	d.toScreenHasScaleAnimation = !node.HasOnlyTranslationAnimations || ancestorAnimatingScale

	failedAtAncestor := ancestorAnimatingScale && ancestor.CombinedMaximumAnimationTargetScale == 0
	failedForNonScaleOrTranslation := !node.ToParent.IsScaleOrTranslation()
	// Scales of concurrent animations are not combined: one node growing
	// 1 to 10 while another shrinks 10 to 1 would report 100.
	failedForMultipleScaleAnimations := ancestorAnimatingScale && !node.HasOnlyTranslationAnimations

	switch {
	case failedAtAncestor || failedForNonScaleOrTranslation || failedForMultipleScaleAnimations:
		// Descendants see the failure through the animation flag.
		d.toScreenHasScaleAnimation = true
	case !d.toScreenHasScaleAnimation:
	case node.HasOnlyTranslationAnimations:
		// Only an ancestor animates scale.
		local := node.Local.Scale2dComponents(0)
		maxLocal := math.Max(local.X, local.Y)
		d.CombinedMaximumAnimationTargetScale = maxLocal * ancestor.CombinedMaximumAnimationTargetScale
		d.CombinedStartingAnimationScale = maxLocal * ancestor.CombinedStartingAnimationScale
	default:
		target := AnimationTargetPending
		if pt.IsActive {
			target = AnimationTargetActive
		}
		var maxTarget, start float64
		if pt.animationScales != nil {
			if v, ok := pt.animationScales.MaximumTargetScale(node.OwnerID, target); ok {
				maxTarget = v
			}
			if v, ok := pt.animationScales.AnimationStartScale(node.OwnerID, target); ok {
				start = v
			}
		}
		ancestorScales := geom.V2(1, 1)
		if parent != nil {
			ancestorScales = tt.ToScreen(parent.ID).Scale2dComponents(0)
		}
		maxAncestor := math.Max(ancestorScales.X, ancestorScales.Y)
		d.CombinedMaximumAnimationTargetScale = maxAncestor * maxTarget
		d.CombinedStartingAnimationScale = maxAncestor * start
	}
	return d
}
