// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import "github.com/gogpu/proptree/geom"

// ClipNode is a node of the ClipTree.
type ClipNode struct {
	TreeNode

	// Clip is the clip rect in the space of TransformID.
	Clip geom.RectF
	// TransformID is the transform node the clip is expressed in.
	TransformID int
	// TargetID is the transform node of the surface the clip applies to.
	TargetID int
}

// NewClipNode returns a node with an empty clip in root space.
func NewClipNode() ClipNode {
	return ClipNode{
		TreeNode:    TreeNode{ID: InvalidNodeID, ParentID: InvalidNodeID, OwnerID: InvalidNodeID},
		TransformID: RootNodeID,
		TargetID:    RootNodeID,
	}
}

// ClipTree stores clip rects. Node ViewportNodeID holds the viewport clip.
type ClipTree struct {
	PropertyTree[ClipNode, *ClipNode]
}

// NewClipTree returns a tree holding only the root node.
func NewClipTree() *ClipTree {
	t := &ClipTree{}
	t.init()
	return t
}

func (t *ClipTree) init() {
	t.PropertyTree = newPropertyTree[ClipNode, *ClipNode]("clip", NewClipNode)
}

// Equal reports node-wise equality.
func (t *ClipTree) Equal(other *ClipTree) bool {
	return t.PropertyTree.Equal(&other.PropertyTree)
}

func (t *ClipTree) copyFrom(from *ClipTree) {
	t.PropertyTree.copyFrom(&from.PropertyTree)
}

// SetViewportClip replaces the viewport clip. The tree is marked for update
// only when the rect changes.
func (t *ClipTree) SetViewportClip(r geom.RectF) error {
	if err := t.checkID(ViewportNodeID); err != nil {
		return err
	}
	node := t.Node(ViewportNodeID)
	if node.Clip == r {
		return nil
	}
	node.Clip = r
	t.needsUpdate = true
	return nil
}

// ViewportClip returns the viewport clip.
func (t *ClipTree) ViewportClip() (geom.RectF, error) {
	node, err := t.Lookup(ViewportNodeID)
	if err != nil {
		return geom.RectF{}, err
	}
	return node.Clip, nil
}
