// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import "github.com/gogpu/proptree/geom"

// SyncedScrollOffset is a scroll offset shared by the pending and active
// instances and synchronized with the main thread.
//
// The main thread pushes a base value to the pending instance; activation
// copies it to the active instance. Scrolls on the active instance are a
// delta over that base. Deltas sent to the main thread are remembered as
// reflected until the commit carrying them back activates, so they are not
// applied twice.
type SyncedScrollOffset struct {
	pendingBase geom.ScrollOffset
	activeBase  geom.ScrollOffset
	activeDelta geom.ScrollOffset

	reflectedDeltaInMainTree    geom.ScrollOffset
	reflectedDeltaInPendingTree geom.ScrollOffset

	clobberActiveValue bool
}

// NewSyncedScrollOffset returns a zero offset.
func NewSyncedScrollOffset() *SyncedScrollOffset {
	return &SyncedScrollOffset{}
}

// Current returns the value seen by the active or pending instance.
func (s *SyncedScrollOffset) Current(isActive bool) geom.ScrollOffset {
	if isActive {
		return s.activeBase.Add(s.activeDelta)
	}
	return s.pendingBase.Add(s.PendingDelta())
}

// SetCurrent sets the active value and reports whether it changed.
func (s *SyncedScrollOffset) SetCurrent(current geom.ScrollOffset) bool {
	delta := current.Sub(s.activeBase)
	if s.activeDelta == delta {
		return false
	}
	s.activeDelta = delta
	return true
}

// Delta returns the active delta over the active base.
func (s *SyncedScrollOffset) Delta() geom.ScrollOffset { return s.activeDelta }

// PendingBase returns the value last pushed from the main thread.
func (s *SyncedScrollOffset) PendingBase() geom.ScrollOffset { return s.pendingBase }

// ActiveBase returns the value last activated.
func (s *SyncedScrollOffset) ActiveBase() geom.ScrollOffset { return s.activeBase }

// PendingDelta is the delta the active instance would keep if the pending
// instance activated now: the active delta minus what the pending base
// already reflects. It is zero while the active value is clobbered.
func (s *SyncedScrollOffset) PendingDelta() geom.ScrollOffset {
	if s.clobberActiveValue {
		return geom.ScrollOffset{}
	}
	return s.activeDelta.Sub(s.reflectedDeltaInPendingTree)
}

// PullDeltaForMainThread returns the delta to send to the main thread and
// records it as reflected in the main tree.
func (s *SyncedScrollOffset) PullDeltaForMainThread() geom.ScrollOffset {
	s.reflectedDeltaInMainTree = s.PendingDelta()
	return s.reflectedDeltaInMainTree
}

// PushFromMainThread installs the main thread's value as the pending base.
// It reports whether the pending base changed.
func (s *SyncedScrollOffset) PushFromMainThread(v geom.ScrollOffset) bool {
	changed := s.pendingBase != v
	s.reflectedDeltaInPendingTree = s.reflectedDeltaInMainTree
	s.reflectedDeltaInMainTree = geom.ScrollOffset{}
	s.pendingBase = v
	return changed
}

// PushPendingToActive activates the pending base and keeps only the delta
// not yet reflected in it. It reports whether the active value changed.
func (s *SyncedScrollOffset) PushPendingToActive() bool {
	pendingDelta := s.PendingDelta()
	changed := s.activeBase != s.pendingBase || !pendingDelta.IsZero()
	s.activeBase = s.pendingBase
	s.activeDelta = pendingDelta
	s.reflectedDeltaInPendingTree = geom.ScrollOffset{}
	s.clobberActiveValue = false
	return changed
}

// AbortCommit behaves as if the delta sent to the main thread had been
// committed and activated.
func (s *SyncedScrollOffset) AbortCommit() {
	s.pendingBase = s.pendingBase.Add(s.reflectedDeltaInMainTree)
	s.activeBase = s.activeBase.Add(s.reflectedDeltaInMainTree)
	s.activeDelta = s.activeDelta.Sub(s.reflectedDeltaInMainTree)
	s.reflectedDeltaInMainTree = geom.ScrollOffset{}
}

// SetClobberActiveValue makes the next activation discard the active
// delta, as when the main thread sets an offset explicitly.
func (s *SyncedScrollOffset) SetClobberActiveValue() { s.clobberActiveValue = true }

// ClobberActiveValue reports whether the active delta will be discarded.
func (s *SyncedScrollOffset) ClobberActiveValue() bool { return s.clobberActiveValue }
