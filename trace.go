// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/gogpu/proptree/geom"
)

// Trace values are plain JSON-shaped data: maps with string keys, []any
// lists, float64, int, bool and string. Matrices are row-major lists of 16
// numbers.

func matrixValue(t geom.Transform) []any {
	m := t.Mat4()
	out := make([]any, len(m))
	for i, v := range m {
		out[i] = v
	}
	return out
}

func vectorValue(v geom.Vector2D) []any {
	return []any{v.X, v.Y}
}

func indexValue(m map[int]int) map[string]any {
	out := make(map[string]any, len(m))
	for _, owner := range slices.Sorted(maps.Keys(m)) {
		out[strconv.Itoa(owner)] = m[owner]
	}
	return out
}

func treeNodeValue(n TreeNode) map[string]any {
	return map[string]any{
		"id":        n.ID,
		"parent_id": n.ParentID,
		"owner_id":  n.OwnerID,
	}
}

// AsValue returns the node as trace data.
func (n *TransformNode) AsValue() map[string]any {
	v := treeNodeValue(n.TreeNode)
	v["pre_local"] = matrixValue(n.PreLocal)
	v["local"] = matrixValue(n.Local)
	v["post_local"] = matrixValue(n.PostLocal)
	v["to_parent"] = matrixValue(n.ToParent)
	v["source_node_id"] = n.SourceNodeID
	v["source_to_parent"] = vectorValue(n.SourceToParent)
	v["scroll_offset"] = []any{n.ScrollOffset.X, n.ScrollOffset.Y}
	v["scroll_snap"] = vectorValue(n.ScrollSnap)
	v["sorting_context_id"] = n.SortingContextID
	v["flattens_inherited_transform"] = n.FlattensInheritedTransform
	v["needs_surface_contents_scale"] = n.NeedsSurfaceContentsScale
	v["in_subtree_of_page_scale_layer"] = n.InSubtreeOfPageScaleLayer
	v["is_invertible"] = n.IsInvertible
	v["ancestors_are_invertible"] = n.AncestorsAreInvertible
	v["node_and_ancestors_are_flat"] = n.NodeAndAncestorsAreFlat
	v["transform_changed"] = n.TransformChanged
	v["surface_contents_scale"] = vectorValue(n.SurfaceContentsScale)
	return v
}

// AsValue returns the node as trace data.
func (n *EffectNode) AsValue() map[string]any {
	v := treeNodeValue(n.TreeNode)
	v["opacity"] = n.Opacity
	v["screen_space_opacity"] = n.ScreenSpaceOpacity
	v["is_drawn"] = n.IsDrawn
	v["has_render_surface"] = n.HasRenderSurface
	v["has_copy_request"] = n.HasCopyRequest
	v["num_copy_requests_in_subtree"] = n.NumCopyRequestsInSubtree
	v["double_sided"] = n.DoubleSided
	v["subtree_hidden"] = n.SubtreeHidden
	v["hidden_by_backface_visibility"] = n.HiddenByBackfaceVisibility
	v["transform_id"] = n.TransformID
	v["clip_id"] = n.ClipID
	v["target_id"] = n.TargetID
	v["surface_contents_scale"] = vectorValue(n.SurfaceContentsScale)
	filters := make([]any, 0, len(n.Filters))
	for _, f := range n.Filters {
		filters = append(filters, map[string]any{"type": int(f.Type), "amount": f.Amount})
	}
	v["filters"] = filters
	return v
}

// AsValue returns the node as trace data.
func (n *ClipNode) AsValue() map[string]any {
	v := treeNodeValue(n.TreeNode)
	v["clip"] = []any{n.Clip.X, n.Clip.Y, n.Clip.W, n.Clip.H}
	v["transform_id"] = n.TransformID
	v["target_id"] = n.TargetID
	return v
}

// AsValue returns the node as trace data.
func (n *ScrollNode) AsValue() map[string]any {
	v := treeNodeValue(n.TreeNode)
	v["scrollable"] = n.Scrollable
	v["bounds"] = []any{n.Bounds.W, n.Bounds.H}
	v["scroll_clip_layer_bounds"] = []any{n.ScrollClipLayerBounds.W, n.ScrollClipLayerBounds.H}
	v["user_scrollable_horizontal"] = n.UserScrollableHorizontal
	v["user_scrollable_vertical"] = n.UserScrollableVertical
	v["offset_to_transform_parent"] = vectorValue(n.OffsetToTransformParent)
	v["transform_id"] = n.TransformID
	return v
}

type valuer interface {
	AsValue() map[string]any
}

func nodesValue[N any, P interface {
	*N
	valuer
}](nodes []N) []any {
	out := make([]any, len(nodes))
	for i := range nodes {
		out[i] = P(&nodes[i]).AsValue()
	}
	return out
}

// AsValue returns the tree as trace data.
func (t *TransformTree) AsValue() map[string]any {
	cached := make([]any, len(t.cached))
	for i, c := range t.cached {
		cached[i] = map[string]any{
			"to_screen":         matrixValue(c.ToScreen),
			"from_screen":       matrixValue(c.FromScreen),
			"target_id":         c.TargetID,
			"content_target_id": c.ContentTargetID,
		}
	}
	return map[string]any{
		"nodes":                            nodesValue(t.nodes),
		"cached_data":                      cached,
		"page_scale_factor":                t.pageScaleFactor,
		"device_scale_factor":              t.deviceScaleFactor,
		"device_transform_scale_factor":    t.deviceTransformScaleFactor,
		"source_to_parent_updates_allowed": t.sourceToParentUpdatesAllowed,
		"nodes_affected_by_inner_viewport_bounds_delta": idsValue(t.nodesAffectedByInnerViewportBoundsDelta),
		"nodes_affected_by_outer_viewport_bounds_delta": idsValue(t.nodesAffectedByOuterViewportBoundsDelta),
	}
}

func idsValue(ids []int) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// AsValue returns the tree as trace data.
func (t *EffectTree) AsValue() map[string]any {
	return map[string]any{"nodes": nodesValue(t.nodes)}
}

// AsValue returns the tree as trace data.
func (t *ClipTree) AsValue() map[string]any {
	return map[string]any{"nodes": nodesValue(t.nodes)}
}

// AsValue returns the tree as trace data. Offsets are listed by owner id.
func (t *ScrollTree) AsValue() map[string]any {
	offsets := make(map[string]any, len(t.scrollOffsets))
	for owner, o := range t.scrollOffsets {
		offsets[strconv.Itoa(owner)] = []any{o.X, o.Y}
	}
	for owner, s := range t.syncedScrollOffsets {
		o := s.Current(t.isActive())
		offsets[strconv.Itoa(owner)] = []any{o.X, o.Y}
	}
	return map[string]any{
		"nodes":                       nodesValue(t.nodes),
		"currently_scrolling_node_id": t.currentlyScrollingNodeID,
		"scroll_offsets":              offsets,
	}
}

// AsValue returns the four trees and the instance state as trace data.
func (pt *PropertyTrees) AsValue() map[string]any {
	return map[string]any{
		"transform_tree":            pt.TransformTree.AsValue(),
		"effect_tree":               pt.EffectTree.AsValue(),
		"clip_tree":                 pt.ClipTree.AsValue(),
		"scroll_tree":               pt.ScrollTree.AsValue(),
		"transform_id_to_index_map": indexValue(pt.TransformIDToIndex),
		"effect_id_to_index_map":    indexValue(pt.EffectIDToIndex),
		"clip_id_to_index_map":      indexValue(pt.ClipIDToIndex),
		"scroll_id_to_index_map":    indexValue(pt.ScrollIDToIndex),
		"needs_rebuild":             pt.NeedsRebuild,
		"non_root_surfaces_enabled": pt.NonRootSurfacesEnabled,
		"changed":                   pt.Changed,
		"full_tree_damaged":         pt.FullTreeDamaged,
		"is_main_thread":            pt.IsMainThread,
		"is_active":                 pt.IsActive,
		"sequence_number":           pt.SequenceNumber,
		"inner_viewport_container_bounds_delta": vectorValue(pt.innerViewportContainerBoundsDelta),
		"outer_viewport_container_bounds_delta": vectorValue(pt.outerViewportContainerBoundsDelta),
		"inner_viewport_scroll_bounds_delta":    vectorValue(pt.innerViewportScrollBoundsDelta),
	}
}

// AsTracedValue renders AsValue as indented JSON with sorted keys.
func (pt *PropertyTrees) AsTracedValue() string {
	return oj.JSON(pt.AsValue(), &oj.Options{Indent: 2, Sort: true})
}

// QueryTrace evaluates a JSONPath expression against AsValue, for example
// "$.transform_tree.nodes[*].surface_contents_scale".
func (pt *PropertyTrees) QueryTrace(selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("proptree: invalid jsonpath %q: %w", selector, err)
	}
	return x.Get(pt.AsValue()), nil
}
