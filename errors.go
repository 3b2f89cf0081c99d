// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package proptree

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller-contract violations.
var (
	// ErrOutOfRange is returned when a node id does not name a node of the
	// tree it is used with.
	ErrOutOfRange = errors.New("proptree: node id out of range")

	// ErrInvalidState is returned when an operation is not allowed in the
	// tree's current mode or lifecycle stage.
	ErrInvalidState = errors.New("proptree: invalid state")
)

// NodeError describes an out-of-range node access.
// It unwraps to ErrOutOfRange.
type NodeError struct {
	Tree string
	ID   int
	Size int
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("proptree: %s node %d out of range [0, %d)", e.Tree, e.ID, e.Size)
}

// Unwrap returns ErrOutOfRange.
func (e *NodeError) Unwrap() error {
	return ErrOutOfRange
}

// stateError wraps ErrInvalidState with the operation that was refused.
func stateError(op, reason string) error {
	return fmt.Errorf("%s: %s: %w", op, reason, ErrInvalidState)
}
