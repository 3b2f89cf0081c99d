// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import "github.com/gogpu/proptree/geom"

// TransformNode is a node of the TransformTree.
//
// The builder sets the local matrices and the input flags; UpdateTransforms
// computes ToParent and the derived flags.
type TransformNode struct {
	TreeNode

	// Local is the layer's own transform, applied around its origin.
	Local geom.Transform
	// PreLocal moves the transform origin before Local is applied.
	PreLocal geom.Transform
	// PostLocal positions the layer in its parent's space.
	PostLocal geom.Transform
	// ToParent is computed:
	// PostLocal * T(SourceToParent - ScrollOffset + viewport adjustment) * Local * PreLocal.
	ToParent geom.Transform

	// SourceNodeID is the node whose space the layer is positioned in. It
	// differs from ParentID for fixed-position layers and scroll children.
	SourceNodeID int
	// SourceToParent is the translation from SourceNodeID to ParentID.
	SourceToParent geom.Vector2D

	ScrollOffset geom.ScrollOffset
	// ScrollSnap is the rounding translation folded into ToParent by the
	// last update, undone before the next one.
	ScrollSnap geom.Vector2D

	// SortingContextID groups nodes that are depth-sorted together. Zero
	// means no 3D sorting context.
	SortingContextID int

	NeedsLocalTransformUpdate bool
	// IsInvertible reports whether ToParent is invertible.
	IsInvertible                 bool
	HasPotentialAnimation        bool
	HasOnlyTranslationAnimations bool
	FlattensInheritedTransform   bool
	NeedsSurfaceContentsScale    bool
	InSubtreeOfPageScaleLayer    bool
	Scrolls                      bool

	AffectedByInnerViewportBoundsDeltaX bool
	AffectedByInnerViewportBoundsDeltaY bool
	AffectedByOuterViewportBoundsDeltaX bool
	AffectedByOuterViewportBoundsDeltaY bool

	// Derived by UpdateTransforms.
	AncestorsAreInvertible                     bool
	NodeAndAncestorsAreFlat                    bool
	NodeAndAncestorsHaveOnlyIntegerTranslation bool
	TransformChanged                           bool
	NodeAndAncestorsAreAnimatedOrInvertible    bool
	ToScreenIsPotentiallyAnimated              bool
	SurfaceContentsScale                       geom.Vector2D
}

// NewTransformNode returns a node with identity matrices and default flags.
func NewTransformNode() TransformNode {
	return TransformNode{
		TreeNode:                     TreeNode{ID: InvalidNodeID, ParentID: InvalidNodeID, OwnerID: InvalidNodeID},
		Local:                        geom.Identity(),
		PreLocal:                     geom.Identity(),
		PostLocal:                    geom.Identity(),
		ToParent:                     geom.Identity(),
		SourceNodeID:                 InvalidNodeID,
		NeedsLocalTransformUpdate:    true,
		IsInvertible:                 true,
		HasOnlyTranslationAnimations: true,
		AncestorsAreInvertible:       true,
		NodeAndAncestorsAreFlat:      true,
		NodeAndAncestorsHaveOnlyIntegerTranslation: true,
		NodeAndAncestorsAreAnimatedOrInvertible:    true,
		SurfaceContentsScale:                       geom.V2(1, 1),
	}
}

// SetLocal replaces Local and schedules a ToParent rebuild.
func (n *TransformNode) SetLocal(local geom.Transform) {
	n.Local = local
	n.NeedsLocalTransformUpdate = true
}

// TransformCachedNodeData holds the per-node matrices cached next to the
// transform nodes, indexed identically.
type TransformCachedNodeData struct {
	ToScreen   geom.Transform
	FromScreen geom.Transform
	ToTarget   geom.Transform
	FromTarget geom.Transform
	// TargetID is the transform node of the render surface the node draws
	// into.
	TargetID int
	// ContentTargetID is the transform node of the surface the node's
	// contents draw into. It equals the node itself when the node owns a
	// surface.
	ContentTargetID int
}

func newTransformCachedNodeData() TransformCachedNodeData {
	return TransformCachedNodeData{
		ToScreen:        geom.Identity(),
		FromScreen:      geom.Identity(),
		ToTarget:        geom.Identity(),
		FromTarget:      geom.Identity(),
		TargetID:        RootNodeID,
		ContentTargetID: RootNodeID,
	}
}
