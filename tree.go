// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"reflect"
	"slices"
)

// Well-known node ids shared by all trees.
const (
	// InvalidNodeID marks a missing node, such as the parent of the root.
	InvalidNodeID = -1
	// RootNodeID is the always-present root created with every tree.
	RootNodeID = 0
	// ContentsRootNodeID is the first node inserted by a builder. It owns
	// the root render surface.
	ContentsRootNodeID = 1
	// ViewportNodeID is the clip node holding the viewport clip.
	ViewportNodeID = 1
)

// TreeNode holds the fields every property tree node has. Node types embed
// it.
type TreeNode struct {
	// ID is the node's index in its tree. Assigned by Insert.
	ID int
	// ParentID is the parent's index, InvalidNodeID for the root.
	ParentID int
	// OwnerID is the id of the external layer that owns the node.
	OwnerID int
}

func (n *TreeNode) treeNode() *TreeNode { return n }

// NodePtr is the constraint satisfied by pointers to node types that embed
// TreeNode.
type NodePtr[N any] interface {
	*N
	treeNode() *TreeNode
}

// PropertyTree is an indexed, parent-pointer node array.
//
// Nodes are stored in insertion order and a node's id is its index. Because
// builders insert in pre-order, every node's ParentID is smaller than its
// ID, so ascending id order visits parents before children.
//
// The zero value is not usable; trees are created by the typed
// constructors such as NewTransformTree.
type PropertyTree[N any, P NodePtr[N]] struct {
	name        string
	newNode     func() N
	nodes       []N
	needsUpdate bool
}

func newPropertyTree[N any, P NodePtr[N]](name string, newNode func() N) PropertyTree[N, P] {
	t := PropertyTree[N, P]{name: name, newNode: newNode}
	t.reset()
	return t
}

// reset replaces the nodes with a single root.
func (t *PropertyTree[N, P]) reset() {
	root := t.newNode()
	base := P(&root).treeNode()
	base.ID = RootNodeID
	base.ParentID = InvalidNodeID
	t.nodes = append(t.nodes[:0:0], root)
	t.needsUpdate = false
}

// Insert appends node as a child of parentID and returns its id.
func (t *PropertyTree[N, P]) Insert(node N, parentID int) int {
	base := P(&node).treeNode()
	base.ID = len(t.nodes)
	base.ParentID = parentID
	t.nodes = append(t.nodes, node)
	return base.ID
}

// Clear resets the tree to a single root node. A cleared tree is Equal to a
// freshly constructed one.
func (t *PropertyTree[N, P]) Clear() {
	t.reset()
}

// Size returns the number of nodes, the root included.
func (t *PropertyTree[N, P]) Size() int {
	return len(t.nodes)
}

// Node returns the node with the given id, or nil if id is out of range.
// The pointer is invalidated by the next Insert or Clear.
func (t *PropertyTree[N, P]) Node(id int) *N {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Lookup is Node with an error for out-of-range ids.
func (t *PropertyTree[N, P]) Lookup(id int) (*N, error) {
	if err := t.checkID(id); err != nil {
		return nil, err
	}
	return &t.nodes[id], nil
}

// Parent returns the parent of node, or nil for the root.
func (t *PropertyTree[N, P]) Parent(node *N) *N {
	return t.Node(P(node).treeNode().ParentID)
}

// Nodes returns the backing node slice. Callers must not append to it.
func (t *PropertyTree[N, P]) Nodes() []N {
	return t.nodes
}

// NeedsUpdate reports whether the tree was mutated since the last update
// pass.
func (t *PropertyTree[N, P]) NeedsUpdate() bool {
	return t.needsUpdate
}

// SetNeedsUpdate sets or clears the dirty bit.
func (t *PropertyTree[N, P]) SetNeedsUpdate(v bool) {
	t.needsUpdate = v
}

// Equal reports deep value equality of the node arrays and dirty bits.
func (t *PropertyTree[N, P]) Equal(other *PropertyTree[N, P]) bool {
	return t.needsUpdate == other.needsUpdate &&
		len(t.nodes) == len(other.nodes) &&
		reflect.DeepEqual(t.nodes, other.nodes)
}

// copyFrom replaces the nodes and dirty bit with copies of from's.
func (t *PropertyTree[N, P]) copyFrom(from *PropertyTree[N, P]) {
	t.nodes = slices.Clone(from.nodes)
	t.needsUpdate = from.needsUpdate
}

func (t *PropertyTree[N, P]) checkID(id int) error {
	if id < 0 || id >= len(t.nodes) {
		return &NodeError{Tree: t.name, ID: id, Size: len(t.nodes)}
	}
	return nil
}
