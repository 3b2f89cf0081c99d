// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geom

import "math"

// SizeF is a floating point size.
type SizeF struct {
	W, H float64
}

// IsEmpty reports whether either dimension is non-positive.
func (s SizeF) IsEmpty() bool {
	return s.W <= 0 || s.H <= 0
}

// Enlarge grows the size by the given amounts.
func (s SizeF) Enlarge(dw, dh float64) SizeF {
	return SizeF{W: s.W + dw, H: s.H + dh}
}

// Scale multiplies both dimensions by f.
func (s SizeF) Scale(f float64) SizeF {
	return SizeF{W: s.W * f, H: s.H * f}
}

// Floor rounds both dimensions down.
func (s SizeF) Floor() SizeF {
	return SizeF{W: math.Floor(s.W), H: math.Floor(s.H)}
}

// Size is an integer size.
type Size struct {
	W, H int
}

// ToSizeF converts to floating point.
func (s Size) ToSizeF() SizeF {
	return SizeF{W: float64(s.W), H: float64(s.H)}
}

// RectF represents a rectangle with float64 coordinates.
type RectF struct {
	X, Y float64 // Top-left corner
	W, H float64 // Width and height
}

// NewRectF creates a RectF from position and size.
func NewRectF(x, y, w, h float64) RectF {
	return RectF{X: x, Y: y, W: w, H: h}
}

// Right returns the right edge x-coordinate.
func (r RectF) Right() float64 {
	return r.X + r.W
}

// Bottom returns the bottom edge y-coordinate.
func (r RectF) Bottom() float64 {
	return r.Y + r.H
}

// IsEmpty returns true if the rectangle has zero area.
func (r RectF) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains returns true if the point is inside the rectangle.
func (r RectF) Contains(p PointF) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Intersect returns the intersection of two rectangles.
// Returns an empty rectangle if they don't intersect.
func (r RectF) Intersect(other RectF) RectF {
	x0 := math.Max(r.X, other.X)
	y0 := math.Max(r.Y, other.Y)
	x1 := math.Min(r.Right(), other.Right())
	y1 := math.Min(r.Bottom(), other.Bottom())

	if x1 <= x0 || y1 <= y0 {
		return RectF{}
	}
	return RectF{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Rect is an integer rectangle, used for pixel-aligned areas such as copy
// request capture regions.
type Rect struct {
	X, Y int
	W, H int
}

// NewRect creates a Rect from position and size.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// ToRectF converts to floating point.
func (r Rect) ToRectF() RectF {
	return RectF{X: float64(r.X), Y: float64(r.Y), W: float64(r.W), H: float64(r.H)}
}

// IsEmpty returns true if the rectangle has zero area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// ToEnclosingRect returns the smallest integer rectangle containing r.
func ToEnclosingRect(r RectF) Rect {
	x0 := math.Floor(r.X)
	y0 := math.Floor(r.Y)
	x1 := math.Ceil(r.Right())
	y1 := math.Ceil(r.Bottom())
	return Rect{X: int(x0), Y: int(y0), W: int(x1 - x0), H: int(y1 - y0)}
}
