// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring"
	syntax "github.com/cisco/go-tls-syntax"

	"github.com/gogpu/proptree/geom"
)

// The wire format is TLS presentation language: big-endian fixed-width
// integers and length-prefixed vectors. Floats travel as their IEEE-754
// bits, ids as two's complement 32-bit values and booleans as bits of a
// flag word. Copy requests, observers and synced scroll offsets are not
// encoded.

type wireVector struct {
	X, Y uint64
}

type wireMatrix struct {
	M []uint64 `tls:"head=1"`
}

type wireIndexEntry struct {
	OwnerID uint32
	NodeID  uint32
}

func encodeFloat(f float64) uint64 { return math.Float64bits(f) }
func decodeFloat(u uint64) float64 { return math.Float64frombits(u) }

func encodeID(id int) uint32 { return uint32(int32(id)) }
func decodeID(u uint32) int  { return int(int32(u)) }

func encodeBool(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func decodeBool(u uint8) bool { return u != 0 }

func encodeVector(v geom.Vector2D) wireVector {
	return wireVector{X: encodeFloat(v.X), Y: encodeFloat(v.Y)}
}

func (w wireVector) vector() geom.Vector2D {
	return geom.V2(decodeFloat(w.X), decodeFloat(w.Y))
}

func encodeMatrix(t geom.Transform) wireMatrix {
	m := t.Mat4()
	w := wireMatrix{M: make([]uint64, len(m))}
	for i, v := range m {
		w.M[i] = encodeFloat(v)
	}
	return w
}

func (w wireMatrix) transform() (geom.Transform, error) {
	var m [16]float64
	if len(w.M) != len(m) {
		return geom.Transform{}, fmt.Errorf("proptree: matrix has %d elements, want %d", len(w.M), len(m))
	}
	for i, u := range w.M {
		m[i] = decodeFloat(u)
	}
	return geom.FromMat4(m), nil
}

// packFlags stores flags[i] in bit i.
func packFlags(flags ...bool) uint32 {
	var w uint32
	for i, f := range flags {
		if f {
			w |= 1 << i
		}
	}
	return w
}

// unpackFlags is the inverse of packFlags.
func unpackFlags(w uint32, flags ...*bool) {
	for i, f := range flags {
		*f = w&(1<<i) != 0
	}
}

func encodeIndex(m map[int]int) []wireIndexEntry {
	out := make([]wireIndexEntry, 0, len(m))
	for _, owner := range slices.Sorted(maps.Keys(m)) {
		out = append(out, wireIndexEntry{OwnerID: encodeID(owner), NodeID: encodeID(m[owner])})
	}
	return out
}

func decodeIndex(entries []wireIndexEntry) map[int]int {
	m := make(map[int]int, len(entries))
	for _, e := range entries {
		m[decodeID(e.OwnerID)] = decodeID(e.NodeID)
	}
	return m
}

func checkParent(tree string, id, parentID int) error {
	if id == RootNodeID {
		if parentID != InvalidNodeID {
			return fmt.Errorf("proptree: %s root has parent %d", tree, parentID)
		}
		return nil
	}
	if parentID < 0 || parentID >= id {
		return fmt.Errorf("proptree: %s node %d has parent %d", tree, id, parentID)
	}
	return nil
}

// Transform tree.

type wireTransformNode struct {
	ID, ParentID, OwnerID uint32

	Local, PreLocal, PostLocal, ToParent wireMatrix

	SourceNodeID     uint32
	SourceToParent   wireVector
	ScrollOffset     wireVector
	ScrollSnap       wireVector
	SortingContextID uint32
	Flags            uint32

	SurfaceContentsScale wireVector

	ToScreen, FromScreen, ToTarget, FromTarget wireMatrix
	TargetID, ContentTargetID                  uint32
}

type wireTransformTree struct {
	NeedsUpdate                  uint8
	SourceToParentUpdatesAllowed uint8
	PageScaleFactor              uint64
	DeviceScaleFactor            uint64
	DeviceTransformScaleFactor   uint64
	InnerViewportAffected        []uint32            `tls:"head=4"`
	OuterViewportAffected        []uint32            `tls:"head=4"`
	Nodes                        []wireTransformNode `tls:"head=4"`
}

func transformFlags(n *TransformNode) []*bool {
	return []*bool{
		&n.NeedsLocalTransformUpdate,
		&n.IsInvertible,
		&n.HasPotentialAnimation,
		&n.HasOnlyTranslationAnimations,
		&n.FlattensInheritedTransform,
		&n.NeedsSurfaceContentsScale,
		&n.InSubtreeOfPageScaleLayer,
		&n.Scrolls,
		&n.AffectedByInnerViewportBoundsDeltaX,
		&n.AffectedByInnerViewportBoundsDeltaY,
		&n.AffectedByOuterViewportBoundsDeltaX,
		&n.AffectedByOuterViewportBoundsDeltaY,
		&n.AncestorsAreInvertible,
		&n.NodeAndAncestorsAreFlat,
		&n.NodeAndAncestorsHaveOnlyIntegerTranslation,
		&n.TransformChanged,
		&n.NodeAndAncestorsAreAnimatedOrInvertible,
		&n.ToScreenIsPotentiallyAnimated,
	}
}

func derefFlags(ptrs []*bool) []bool {
	out := make([]bool, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}

func encodeIDs(ids []int) []uint32 {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = encodeID(id)
	}
	return out
}

func decodeIDs(ws []uint32) []int {
	if len(ws) == 0 {
		return nil
	}
	out := make([]int, len(ws))
	for i, w := range ws {
		out[i] = decodeID(w)
	}
	return out
}

// MarshalTLS encodes the nodes, their cached data and the scale factors.
func (t *TransformTree) MarshalTLS() ([]byte, error) {
	w := wireTransformTree{
		NeedsUpdate:                  encodeBool(t.needsUpdate),
		SourceToParentUpdatesAllowed: encodeBool(t.sourceToParentUpdatesAllowed),
		PageScaleFactor:              encodeFloat(t.pageScaleFactor),
		DeviceScaleFactor:            encodeFloat(t.deviceScaleFactor),
		DeviceTransformScaleFactor:   encodeFloat(t.deviceTransformScaleFactor),
		InnerViewportAffected:        encodeIDs(t.nodesAffectedByInnerViewportBoundsDelta),
		OuterViewportAffected:        encodeIDs(t.nodesAffectedByOuterViewportBoundsDelta),
		Nodes:                        make([]wireTransformNode, len(t.nodes)),
	}
	for i := range t.nodes {
		n := &t.nodes[i]
		c := t.cached[i]
		w.Nodes[i] = wireTransformNode{
			ID:                   encodeID(n.ID),
			ParentID:             encodeID(n.ParentID),
			OwnerID:              encodeID(n.OwnerID),
			Local:                encodeMatrix(n.Local),
			PreLocal:             encodeMatrix(n.PreLocal),
			PostLocal:            encodeMatrix(n.PostLocal),
			ToParent:             encodeMatrix(n.ToParent),
			SourceNodeID:         encodeID(n.SourceNodeID),
			SourceToParent:       encodeVector(n.SourceToParent),
			ScrollOffset:         wireVector{X: encodeFloat(n.ScrollOffset.X), Y: encodeFloat(n.ScrollOffset.Y)},
			ScrollSnap:           encodeVector(n.ScrollSnap),
			SortingContextID:     encodeID(n.SortingContextID),
			Flags:                packFlags(derefFlags(transformFlags(n))...),
			SurfaceContentsScale: encodeVector(n.SurfaceContentsScale),
			ToScreen:             encodeMatrix(c.ToScreen),
			FromScreen:           encodeMatrix(c.FromScreen),
			ToTarget:             encodeMatrix(c.ToTarget),
			FromTarget:           encodeMatrix(c.FromTarget),
			TargetID:             encodeID(c.TargetID),
			ContentTargetID:      encodeID(c.ContentTargetID),
		}
	}
	data, err := syntax.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("proptree: marshal transform tree: %w", err)
	}
	return data, nil
}

// UnmarshalTLS replaces the tree's contents with the decoded ones.
func (t *TransformTree) UnmarshalTLS(data []byte) (int, error) {
	var w wireTransformTree
	read, err := syntax.Unmarshal(data, &w)
	if err != nil {
		return 0, fmt.Errorf("proptree: unmarshal transform tree: %w", err)
	}
	if len(w.Nodes) == 0 {
		return 0, fmt.Errorf("proptree: transform tree without root")
	}

	nodes := make([]TransformNode, len(w.Nodes))
	cached := make([]TransformCachedNodeData, len(w.Nodes))
	for i, wn := range w.Nodes {
		n := &nodes[i]
		n.ID = decodeID(wn.ID)
		n.ParentID = decodeID(wn.ParentID)
		n.OwnerID = decodeID(wn.OwnerID)
		if n.ID != i {
			return 0, fmt.Errorf("proptree: transform node %d encoded at index %d", n.ID, i)
		}
		if err := checkParent("transform", n.ID, n.ParentID); err != nil {
			return 0, err
		}
		mats := []struct {
			dst *geom.Transform
			src wireMatrix
		}{
			{&n.Local, wn.Local}, {&n.PreLocal, wn.PreLocal},
			{&n.PostLocal, wn.PostLocal}, {&n.ToParent, wn.ToParent},
			{&cached[i].ToScreen, wn.ToScreen}, {&cached[i].FromScreen, wn.FromScreen},
			{&cached[i].ToTarget, wn.ToTarget}, {&cached[i].FromTarget, wn.FromTarget},
		}
		for _, m := range mats {
			if *m.dst, err = m.src.transform(); err != nil {
				return 0, err
			}
		}
		n.SourceNodeID = decodeID(wn.SourceNodeID)
		n.SourceToParent = wn.SourceToParent.vector()
		n.ScrollOffset = geom.Offset(decodeFloat(wn.ScrollOffset.X), decodeFloat(wn.ScrollOffset.Y))
		n.ScrollSnap = wn.ScrollSnap.vector()
		n.SortingContextID = decodeID(wn.SortingContextID)
		unpackFlags(wn.Flags, transformFlags(n)...)
		n.SurfaceContentsScale = wn.SurfaceContentsScale.vector()
		cached[i].TargetID = decodeID(wn.TargetID)
		cached[i].ContentTargetID = decodeID(wn.ContentTargetID)
	}

	t.nodes = nodes
	t.cached = cached
	t.needsUpdate = decodeBool(w.NeedsUpdate)
	t.sourceToParentUpdatesAllowed = decodeBool(w.SourceToParentUpdatesAllowed)
	t.pageScaleFactor = decodeFloat(w.PageScaleFactor)
	t.deviceScaleFactor = decodeFloat(w.DeviceScaleFactor)
	t.deviceTransformScaleFactor = decodeFloat(w.DeviceTransformScaleFactor)
	t.nodesAffectedByInnerViewportBoundsDelta = decodeIDs(w.InnerViewportAffected)
	t.nodesAffectedByOuterViewportBoundsDelta = decodeIDs(w.OuterViewportAffected)
	return read, nil
}

// Effect tree.

type wireFilter struct {
	Type   uint8
	Amount uint64
}

type wireEffectNode struct {
	ID, ParentID, OwnerID uint32

	Opacity            uint64
	ScreenSpaceOpacity uint64
	Flags              uint32

	NumCopyRequestsInSubtree uint32

	Filters           []wireFilter `tls:"head=2"`
	BackgroundFilters []wireFilter `tls:"head=2"`

	TransformID, ClipID, TargetID uint32
	SurfaceContentsScale          wireVector
}

type wireEffectTree struct {
	NeedsUpdate uint8
	Nodes       []wireEffectNode `tls:"head=4"`
}

func effectFlags(n *EffectNode) []*bool {
	return []*bool{
		&n.IsDrawn,
		&n.HasCopyRequest,
		&n.HasRenderSurface,
		&n.DoubleSided,
		&n.SubtreeHidden,
		&n.HasPotentialOpacityAnimation,
		&n.IsCurrentlyAnimatingOpacity,
		&n.HiddenByBackfaceVisibility,
		&n.EffectChanged,
	}
}

func encodeFilters(fs []Filter) []wireFilter {
	out := make([]wireFilter, len(fs))
	for i, f := range fs {
		out[i] = wireFilter{Type: uint8(f.Type), Amount: encodeFloat(f.Amount)}
	}
	return out
}

func decodeFilters(ws []wireFilter) []Filter {
	if len(ws) == 0 {
		return nil
	}
	out := make([]Filter, len(ws))
	for i, w := range ws {
		out[i] = Filter{Type: FilterType(w.Type), Amount: decodeFloat(w.Amount)}
	}
	return out
}

// MarshalTLS encodes the nodes. Pending copy requests are not encoded.
func (t *EffectTree) MarshalTLS() ([]byte, error) {
	w := wireEffectTree{
		NeedsUpdate: encodeBool(t.needsUpdate),
		Nodes:       make([]wireEffectNode, len(t.nodes)),
	}
	for i := range t.nodes {
		n := &t.nodes[i]
		w.Nodes[i] = wireEffectNode{
			ID:                       encodeID(n.ID),
			ParentID:                 encodeID(n.ParentID),
			OwnerID:                  encodeID(n.OwnerID),
			Opacity:                  encodeFloat(n.Opacity),
			ScreenSpaceOpacity:       encodeFloat(n.ScreenSpaceOpacity),
			Flags:                    packFlags(derefFlags(effectFlags(n))...),
			NumCopyRequestsInSubtree: uint32(n.NumCopyRequestsInSubtree),
			Filters:                  encodeFilters(n.Filters),
			BackgroundFilters:        encodeFilters(n.BackgroundFilters),
			TransformID:              encodeID(n.TransformID),
			ClipID:                   encodeID(n.ClipID),
			TargetID:                 encodeID(n.TargetID),
			SurfaceContentsScale:     encodeVector(n.SurfaceContentsScale),
		}
	}
	data, err := syntax.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("proptree: marshal effect tree: %w", err)
	}
	return data, nil
}

// UnmarshalTLS replaces the tree's nodes with the decoded ones. Pending
// copy requests are kept.
func (t *EffectTree) UnmarshalTLS(data []byte) (int, error) {
	var w wireEffectTree
	read, err := syntax.Unmarshal(data, &w)
	if err != nil {
		return 0, fmt.Errorf("proptree: unmarshal effect tree: %w", err)
	}
	if len(w.Nodes) == 0 {
		return 0, fmt.Errorf("proptree: effect tree without root")
	}

	nodes := make([]EffectNode, len(w.Nodes))
	for i, wn := range w.Nodes {
		n := &nodes[i]
		n.ID = decodeID(wn.ID)
		n.ParentID = decodeID(wn.ParentID)
		n.OwnerID = decodeID(wn.OwnerID)
		if n.ID != i {
			return 0, fmt.Errorf("proptree: effect node %d encoded at index %d", n.ID, i)
		}
		if err := checkParent("effect", n.ID, n.ParentID); err != nil {
			return 0, err
		}
		n.Opacity = decodeFloat(wn.Opacity)
		n.ScreenSpaceOpacity = decodeFloat(wn.ScreenSpaceOpacity)
		unpackFlags(wn.Flags, effectFlags(n)...)
		n.NumCopyRequestsInSubtree = int(wn.NumCopyRequestsInSubtree)
		n.Filters = decodeFilters(wn.Filters)
		n.BackgroundFilters = decodeFilters(wn.BackgroundFilters)
		n.TransformID = decodeID(wn.TransformID)
		n.ClipID = decodeID(wn.ClipID)
		n.TargetID = decodeID(wn.TargetID)
		n.SurfaceContentsScale = wn.SurfaceContentsScale.vector()
	}
	t.nodes = nodes
	t.needsUpdate = decodeBool(w.NeedsUpdate)
	return read, nil
}

// Clip tree.

type wireClipNode struct {
	ID, ParentID, OwnerID uint32

	X, Y, W, H            uint64
	TransformID, TargetID uint32
}

type wireClipTree struct {
	NeedsUpdate uint8
	Nodes       []wireClipNode `tls:"head=4"`
}

// MarshalTLS encodes the nodes.
func (t *ClipTree) MarshalTLS() ([]byte, error) {
	w := wireClipTree{
		NeedsUpdate: encodeBool(t.needsUpdate),
		Nodes:       make([]wireClipNode, len(t.nodes)),
	}
	for i := range t.nodes {
		n := &t.nodes[i]
		w.Nodes[i] = wireClipNode{
			ID:          encodeID(n.ID),
			ParentID:    encodeID(n.ParentID),
			OwnerID:     encodeID(n.OwnerID),
			X:           encodeFloat(n.Clip.X),
			Y:           encodeFloat(n.Clip.Y),
			W:           encodeFloat(n.Clip.W),
			H:           encodeFloat(n.Clip.H),
			TransformID: encodeID(n.TransformID),
			TargetID:    encodeID(n.TargetID),
		}
	}
	data, err := syntax.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("proptree: marshal clip tree: %w", err)
	}
	return data, nil
}

// UnmarshalTLS replaces the tree's nodes with the decoded ones.
func (t *ClipTree) UnmarshalTLS(data []byte) (int, error) {
	var w wireClipTree
	read, err := syntax.Unmarshal(data, &w)
	if err != nil {
		return 0, fmt.Errorf("proptree: unmarshal clip tree: %w", err)
	}
	if len(w.Nodes) == 0 {
		return 0, fmt.Errorf("proptree: clip tree without root")
	}

	nodes := make([]ClipNode, len(w.Nodes))
	for i, wn := range w.Nodes {
		n := &nodes[i]
		n.ID = decodeID(wn.ID)
		n.ParentID = decodeID(wn.ParentID)
		n.OwnerID = decodeID(wn.OwnerID)
		if n.ID != i {
			return 0, fmt.Errorf("proptree: clip node %d encoded at index %d", n.ID, i)
		}
		if err := checkParent("clip", n.ID, n.ParentID); err != nil {
			return 0, err
		}
		n.Clip = geom.NewRectF(decodeFloat(wn.X), decodeFloat(wn.Y), decodeFloat(wn.W), decodeFloat(wn.H))
		n.TransformID = decodeID(wn.TransformID)
		n.TargetID = decodeID(wn.TargetID)
	}
	t.nodes = nodes
	t.needsUpdate = decodeBool(w.NeedsUpdate)
	return read, nil
}

// Scroll tree.

type wireSize struct {
	W, H uint32
}

type wireScrollNode struct {
	ID, ParentID, OwnerID uint32

	Bounds                  wireSize
	ScrollClipLayerBounds   wireSize
	Flags                   uint32
	OffsetToTransformParent wireVector
	TransformID             uint32
}

type wireScrollOffset struct {
	OwnerID uint32
	Offset  wireVector
}

type wireScrollTree struct {
	NeedsUpdate              uint8
	CurrentlyScrollingNodeID uint32
	Nodes                    []wireScrollNode   `tls:"head=4"`
	Offsets                  []wireScrollOffset `tls:"head=4"`
	// Clobbered is the portable roaring serialization.
	Clobbered []byte `tls:"head=4"`
}

func scrollFlags(n *ScrollNode) []*bool {
	return []*bool{
		&n.Scrollable,
		&n.UserScrollableHorizontal,
		&n.UserScrollableVertical,
		&n.MaxScrollOffsetAffectedByPageScale,
		&n.IsInnerViewportScrollLayer,
		&n.IsOuterViewportScrollLayer,
		&n.ShouldFlatten,
	}
}

func encodeSize(s geom.Size) wireSize {
	return wireSize{W: encodeID(s.W), H: encodeID(s.H)}
}

func (w wireSize) size() geom.Size {
	return geom.Size{W: decodeID(w.W), H: decodeID(w.H)}
}

// MarshalTLS encodes the nodes, the currently scrolling node and the
// main-thread scroll offsets.
func (t *ScrollTree) MarshalTLS() ([]byte, error) {
	clobbered, err := t.clobbered.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("proptree: marshal scroll tree: %w", err)
	}
	w := wireScrollTree{
		NeedsUpdate:              encodeBool(t.needsUpdate),
		CurrentlyScrollingNodeID: encodeID(t.currentlyScrollingNodeID),
		Nodes:                    make([]wireScrollNode, len(t.nodes)),
		Offsets:                  make([]wireScrollOffset, 0, len(t.scrollOffsets)),
		Clobbered:                clobbered,
	}
	for i := range t.nodes {
		n := &t.nodes[i]
		w.Nodes[i] = wireScrollNode{
			ID:                      encodeID(n.ID),
			ParentID:                encodeID(n.ParentID),
			OwnerID:                 encodeID(n.OwnerID),
			Bounds:                  encodeSize(n.Bounds),
			ScrollClipLayerBounds:   encodeSize(n.ScrollClipLayerBounds),
			Flags:                   packFlags(derefFlags(scrollFlags(n))...),
			OffsetToTransformParent: encodeVector(n.OffsetToTransformParent),
			TransformID:             encodeID(n.TransformID),
		}
	}
	for _, owner := range slices.Sorted(maps.Keys(t.scrollOffsets)) {
		o := t.scrollOffsets[owner]
		w.Offsets = append(w.Offsets, wireScrollOffset{
			OwnerID: encodeID(owner),
			Offset:  wireVector{X: encodeFloat(o.X), Y: encodeFloat(o.Y)},
		})
	}
	data, err := syntax.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("proptree: marshal scroll tree: %w", err)
	}
	return data, nil
}

// UnmarshalTLS replaces the nodes, the currently scrolling node and the
// main-thread scroll offsets. Synced offsets are kept.
func (t *ScrollTree) UnmarshalTLS(data []byte) (int, error) {
	var w wireScrollTree
	read, err := syntax.Unmarshal(data, &w)
	if err != nil {
		return 0, fmt.Errorf("proptree: unmarshal scroll tree: %w", err)
	}
	if len(w.Nodes) == 0 {
		return 0, fmt.Errorf("proptree: scroll tree without root")
	}

	nodes := make([]ScrollNode, len(w.Nodes))
	for i, wn := range w.Nodes {
		n := &nodes[i]
		n.ID = decodeID(wn.ID)
		n.ParentID = decodeID(wn.ParentID)
		n.OwnerID = decodeID(wn.OwnerID)
		if n.ID != i {
			return 0, fmt.Errorf("proptree: scroll node %d encoded at index %d", n.ID, i)
		}
		if err := checkParent("scroll", n.ID, n.ParentID); err != nil {
			return 0, err
		}
		n.Bounds = wn.Bounds.size()
		n.ScrollClipLayerBounds = wn.ScrollClipLayerBounds.size()
		unpackFlags(wn.Flags, scrollFlags(n)...)
		n.OffsetToTransformParent = wn.OffsetToTransformParent.vector()
		n.TransformID = decodeID(wn.TransformID)
	}
	current := decodeID(w.CurrentlyScrollingNodeID)
	if current != InvalidNodeID && (current < 0 || current >= len(nodes)) {
		return 0, fmt.Errorf("proptree: currently scrolling node %d out of range", current)
	}
	clobbered := roaring.New()
	if err := clobbered.UnmarshalBinary(w.Clobbered); err != nil {
		return 0, fmt.Errorf("proptree: unmarshal clobbered set: %w", err)
	}

	t.nodes = nodes
	t.needsUpdate = decodeBool(w.NeedsUpdate)
	t.currentlyScrollingNodeID = current
	t.scrollOffsets = make(map[int]geom.ScrollOffset, len(w.Offsets))
	for _, o := range w.Offsets {
		t.scrollOffsets[decodeID(o.OwnerID)] = geom.Offset(decodeFloat(o.Offset.X), decodeFloat(o.Offset.Y))
	}
	t.clobbered = clobbered
	return read, nil
}

// Property trees.

type wirePropertyTrees struct {
	Flags          uint32
	SequenceNumber uint32

	InnerViewportContainerBoundsDelta wireVector
	OuterViewportContainerBoundsDelta wireVector
	InnerViewportScrollBoundsDelta    wireVector

	TransformIDToIndex []wireIndexEntry `tls:"head=4"`
	EffectIDToIndex    []wireIndexEntry `tls:"head=4"`
	ClipIDToIndex      []wireIndexEntry `tls:"head=4"`
	ScrollIDToIndex    []wireIndexEntry `tls:"head=4"`

	Transform []byte `tls:"head=4"`
	Effect    []byte `tls:"head=4"`
	Clip      []byte `tls:"head=4"`
	Scroll    []byte `tls:"head=4"`
}

func (pt *PropertyTrees) flags() []*bool {
	return []*bool{&pt.NeedsRebuild, &pt.NonRootSurfacesEnabled, &pt.Changed, &pt.FullTreeDamaged}
}

// MarshalTLS encodes the four trees, the id maps and the instance flags.
// The mode flags are not encoded: they belong to the receiving instance.
func (pt *PropertyTrees) MarshalTLS() ([]byte, error) {
	w := wirePropertyTrees{
		Flags:                             packFlags(derefFlags(pt.flags())...),
		SequenceNumber:                    encodeID(pt.SequenceNumber),
		InnerViewportContainerBoundsDelta: encodeVector(pt.innerViewportContainerBoundsDelta),
		OuterViewportContainerBoundsDelta: encodeVector(pt.outerViewportContainerBoundsDelta),
		InnerViewportScrollBoundsDelta:    encodeVector(pt.innerViewportScrollBoundsDelta),
		TransformIDToIndex:                encodeIndex(pt.TransformIDToIndex),
		EffectIDToIndex:                   encodeIndex(pt.EffectIDToIndex),
		ClipIDToIndex:                     encodeIndex(pt.ClipIDToIndex),
		ScrollIDToIndex:                   encodeIndex(pt.ScrollIDToIndex),
	}
	var err error
	if w.Transform, err = pt.TransformTree.MarshalTLS(); err != nil {
		return nil, err
	}
	if w.Effect, err = pt.EffectTree.MarshalTLS(); err != nil {
		return nil, err
	}
	if w.Clip, err = pt.ClipTree.MarshalTLS(); err != nil {
		return nil, err
	}
	if w.Scroll, err = pt.ScrollTree.MarshalTLS(); err != nil {
		return nil, err
	}
	data, err := syntax.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("proptree: marshal property trees: %w", err)
	}
	return data, nil
}

// UnmarshalTLS replaces the contents of pt with the decoded ones and
// resets the cached data. The mode flags of pt are kept.
func (pt *PropertyTrees) UnmarshalTLS(data []byte) (int, error) {
	var w wirePropertyTrees
	read, err := syntax.Unmarshal(data, &w)
	if err != nil {
		return 0, fmt.Errorf("proptree: unmarshal property trees: %w", err)
	}
	if _, err := pt.TransformTree.UnmarshalTLS(w.Transform); err != nil {
		return 0, err
	}
	if _, err := pt.EffectTree.UnmarshalTLS(w.Effect); err != nil {
		return 0, err
	}
	if _, err := pt.ClipTree.UnmarshalTLS(w.Clip); err != nil {
		return 0, err
	}
	if _, err := pt.ScrollTree.UnmarshalTLS(w.Scroll); err != nil {
		return 0, err
	}

	unpackFlags(w.Flags, pt.flags()...)
	pt.SequenceNumber = decodeID(w.SequenceNumber)
	pt.innerViewportContainerBoundsDelta = w.InnerViewportContainerBoundsDelta.vector()
	pt.outerViewportContainerBoundsDelta = w.OuterViewportContainerBoundsDelta.vector()
	pt.innerViewportScrollBoundsDelta = w.InnerViewportScrollBoundsDelta.vector()
	pt.TransformIDToIndex = decodeIndex(w.TransformIDToIndex)
	pt.EffectIDToIndex = decodeIndex(w.EffectIDToIndex)
	pt.ClipIDToIndex = decodeIndex(w.ClipIDToIndex)
	pt.ScrollIDToIndex = decodeIndex(w.ScrollIDToIndex)

	pt.wire()
	pt.ResetCachedData()
	return read, nil
}
