// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geom provides the value types property trees compute with:
// a 4x4 Transform, 2D vectors and points, sizes, rectangles and scroll
// offsets.
//
// # Conventions
//
// Transform applies to column vectors. For transforms A and B:
//
//	A.PreConcat(B)  // A * B: B is applied first, then A
//	A.Concat(B)     // B * A: A is applied first, then B
//
// Translate, Scale and the Rotate helpers pre-concatenate, matching the
// way transform nodes build their local-to-parent matrix. The Post
// variants concatenate instead.
//
// All types have value semantics. Methods never mutate the receiver.
//
// # Coordinate System
//
// Origin at the top-left, X grows right, Y grows down, Z grows towards the
// viewer. A layer faces the viewer when its (0, 0, 1) normal keeps a
// positive Z after transformation.
package geom
