// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import "github.com/gogpu/proptree/geom"

// DrawTransforms maps a layer's space to the space of the render surface it
// draws into, with the surface contents scale applied.
type DrawTransforms struct {
	ToTarget   geom.Transform
	FromTarget geom.Transform
	// Invertible reports whether FromTarget is a true inverse.
	Invertible bool
	// TargetID is the transform node of the surface.
	TargetID int
}

// GetDrawTransforms returns the draw transforms of transform node
// transformID into the surface of effect node effectID. Results are
// memoized until the next UpdateCachedNumber.
func (pt *PropertyTrees) GetDrawTransforms(transformID, effectID int) (DrawTransforms, error) {
	if err := pt.TransformTree.checkID(transformID); err != nil {
		return DrawTransforms{}, err
	}
	effect, err := pt.EffectTree.Lookup(effectID)
	if err != nil {
		return DrawTransforms{}, err
	}
	if err := pt.TransformTree.checkID(effect.TransformID); err != nil {
		return DrawTransforms{}, err
	}

	key := drawTransformsKey{effectID: effectID, transformID: transformID}
	if dt, ok := pt.cached.drawTransforms.Lookup(key, pt.cached.updateNumber); ok {
		pt.metrics.cacheLookup(cacheDrawTransforms, true)
		return dt, nil
	}
	pt.metrics.cacheLookup(cacheDrawTransforms, false)

	dt := pt.computeDrawTransforms(transformID, effect)
	pt.cached.drawTransforms.Store(key, dt, pt.cached.updateNumber)
	return dt, nil
}

func (pt *PropertyTrees) computeDrawTransforms(transformID int, effect *EffectNode) DrawTransforms {
	tt := &pt.TransformTree
	destID := effect.TransformID
	scs := effect.SurfaceContentsScale
	dt := DrawTransforms{TargetID: destID}

	switch {
	case transformID == destID:
		dt.ToTarget = geom.NewScale(scs.X, scs.Y)
		dt.FromTarget, dt.Invertible = dt.ToTarget.Inverse()
	case transformID > destID:
		dt.ToTarget = tt.combineTransformsBetween(transformID, destID).PostScale(scs.X, scs.Y)
		dt.FromTarget, dt.Invertible = dt.ToTarget.Inverse()
	default:
		// The layer is an ancestor of its surface in id order, as with a
		// fixed-position surface: compose surface to layer and invert.
		combined := tt.combineTransformsBetween(destID, transformID)
		if scs.X != 0 && scs.Y != 0 {
			combined = combined.Scale(1/scs.X, 1/scs.Y)
		}
		dt.FromTarget = combined
		dt.ToTarget, dt.Invertible = combined.Inverse()
	}
	return dt
}

// ComputeTransformToTarget returns the transform from transformID into the
// space of the surface of effectID, surface contents scale included. With
// effectID InvalidNodeID the target is the transform node's cached target.
func (pt *PropertyTrees) ComputeTransformToTarget(transformID, effectID int) (geom.Transform, bool, error) {
	if err := pt.checkTargetQuery(transformID, effectID); err != nil {
		return geom.Identity(), false, err
	}
	m, ok := pt.computeTransformToTarget(transformID, effectID)
	return m, ok, nil
}

// ComputeTransformFromTarget is the inverse of ComputeTransformToTarget.
func (pt *PropertyTrees) ComputeTransformFromTarget(transformID, effectID int) (geom.Transform, bool, error) {
	if err := pt.checkTargetQuery(transformID, effectID); err != nil {
		return geom.Identity(), false, err
	}
	m, ok := pt.computeTransformFromTarget(transformID, effectID)
	return m, ok, nil
}

func (pt *PropertyTrees) checkTargetQuery(transformID, effectID int) error {
	if err := pt.TransformTree.checkEndpoint(transformID); err != nil {
		return err
	}
	if effectID == InvalidNodeID {
		return nil
	}
	return pt.EffectTree.checkID(effectID)
}

// targetOf resolves the target transform node and scale of a target query.
func (pt *PropertyTrees) targetOf(transformID, effectID int) (int, geom.Vector2D) {
	tt := &pt.TransformTree
	if effect := pt.EffectTree.Node(effectID); effect != nil {
		return effect.TransformID, effect.SurfaceContentsScale
	}
	targetID := tt.TargetID(transformID)
	scale := geom.V2(1, 1)
	if target := tt.Node(targetID); target != nil && targetID != RootNodeID {
		scale = target.SurfaceContentsScale
	}
	return targetID, scale
}

func (pt *PropertyTrees) computeTransformToTarget(transformID, effectID int) (geom.Transform, bool) {
	if transformID == InvalidNodeID {
		return geom.Identity(), true
	}
	targetID, scale := pt.targetOf(transformID, effectID)
	m, ok := pt.TransformTree.computeTransform(transformID, targetID)
	return m.PostScale(scale.X, scale.Y), ok
}

func (pt *PropertyTrees) computeTransformFromTarget(transformID, effectID int) (geom.Transform, bool) {
	if transformID == InvalidNodeID {
		return geom.Identity(), true
	}
	targetID, scale := pt.targetOf(transformID, effectID)
	m, ok := pt.TransformTree.computeTransform(targetID, transformID)
	if scale.X == 0 || scale.Y == 0 {
		return m, false
	}
	return m.Scale(1/scale.X, 1/scale.Y), ok
}
