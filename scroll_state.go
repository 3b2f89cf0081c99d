// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"math"

	"github.com/gogpu/proptree/geom"
)

const (
	// scrollEpsilon is the smallest applied delta that counts as a scroll.
	scrollEpsilon = 0.1
	// scrollLatchAngle is the largest angle, in degrees, between the
	// requested and applied delta for which a scroller consumes the whole
	// request.
	scrollLatchAngle = 45
)

// ScrollState carries a scroll gesture delta along a scroll chain.
//
// The chain lists scroll node ids from the outermost ancestor to the
// innermost scroller. DistributeScroll visits the innermost scroller first
// and passes whatever it leaves unconsumed outward.
type ScrollState struct {
	Delta geom.Vector2D

	// ShouldPropagate allows the delta to move on to ancestors once the
	// scroller that started the sequence has scrolled.
	ShouldPropagate bool
	// DeltaConsumedForScrollSequence is set once any scroller in the
	// current gesture consumed delta.
	DeltaConsumedForScrollSequence bool

	CausedScrollX bool
	CausedScrollY bool

	chain                      []int
	currentNativeScrollingNode int
}

// NewScrollState creates a state for delta that propagates to ancestors.
func NewScrollState(delta geom.Vector2D) *ScrollState {
	return &ScrollState{
		Delta:                      delta,
		ShouldPropagate:            true,
		currentNativeScrollingNode: InvalidNodeID,
	}
}

// SetScrollChain replaces the chain, outermost node first.
func (s *ScrollState) SetScrollChain(chain []int) {
	s.chain = chain
}

// ScrollChain returns the nodes not yet visited.
func (s *ScrollState) ScrollChain() []int { return s.chain }

// CurrentNativeScrollingNode returns the last node that scrolled, or
// InvalidNodeID.
func (s *ScrollState) CurrentNativeScrollingNode() int { return s.currentNativeScrollingNode }

// SetCurrentNativeScrollingNode records the node that scrolls for this
// gesture.
func (s *ScrollState) SetCurrentNativeScrollingNode(id int) { s.currentNativeScrollingNode = id }

// FullyConsumed reports whether no delta remains.
func (s *ScrollState) FullyConsumed() bool {
	return s.Delta.IsZero()
}

// ConsumeDelta removes d from the remaining delta.
func (s *ScrollState) ConsumeDelta(d geom.Vector2D) {
	s.Delta = s.Delta.Sub(d)
	if !d.IsZero() {
		s.DeltaConsumedForScrollSequence = true
	}
}

// nextInChain pops the outermost unvisited node.
func (s *ScrollState) nextInChain() (int, bool) {
	if len(s.chain) == 0 {
		return InvalidNodeID, false
	}
	id := s.chain[0]
	s.chain = s.chain[1:]
	return id, true
}

// applyScroll scrolls node by the remaining delta and consumes what moved
// it. A scroller that moves roughly along the gesture consumes all of it;
// otherwise only the component along the applied direction is consumed.
func (t *ScrollTree) applyScroll(node *ScrollNode, s *ScrollState, obs ScrollOffsetObserver) {
	delta := s.Delta
	unused := t.scrollBy(node, delta, obs)
	applied := delta.Sub(unused)

	scrolled := math.Abs(applied.X) > scrollEpsilon || math.Abs(applied.Y) > scrollEpsilon
	if scrolled && !node.IsInnerViewportScrollLayer {
		if applied.AngleTo(delta) < scrollLatchAngle {
			applied = delta
		} else {
			applied = delta.ProjectOnto(applied)
		}
	}
	s.CausedScrollX = math.Abs(applied.X) > scrollEpsilon
	s.CausedScrollY = math.Abs(applied.Y) > scrollEpsilon
	if !scrolled {
		return
	}
	t.currentlyScrollingNodeID = node.ID
	s.currentNativeScrollingNode = node.ID
	s.ConsumeDelta(applied)
}
