// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geom

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Vector2D is a 2D displacement.
type Vector2D struct {
	X, Y float64
}

// V2 is a convenience function to create a Vector2D.
func V2(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

// Add returns the sum of two vectors.
func (v Vector2D) Add(w Vector2D) Vector2D {
	return Vector2D{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vector2D) Sub(w Vector2D) Vector2D {
	return Vector2D{X: v.X - w.X, Y: v.Y - w.Y}
}

// Scale returns the vector scaled per axis.
func (v Vector2D) Scale(x, y float64) Vector2D {
	return Vector2D{X: v.X * x, Y: v.Y * y}
}

// IsZero reports whether both components are zero.
func (v Vector2D) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Ceil rounds both components up.
func (v Vector2D) Ceil() Vector2D {
	return Vector2D{X: math.Ceil(v.X), Y: math.Ceil(v.Y)}
}

// Dot returns the dot product.
func (v Vector2D) Dot(w Vector2D) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Length returns the Euclidean length.
func (v Vector2D) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// AngleTo returns the smallest angle between v and w in degrees. The angle
// involving a zero vector is 0.
func (v Vector2D) AngleTo(w Vector2D) float64 {
	lv, lw := v.Length(), w.Length()
	if lv == 0 || lw == 0 {
		return 0
	}
	c := v.Dot(w) / (lv * lw)
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}

// ProjectOnto returns the projection of v onto the direction of w. A zero w
// yields the zero vector.
func (v Vector2D) ProjectOnto(w Vector2D) Vector2D {
	d := w.Dot(w)
	if d == 0 {
		return Vector2D{}
	}
	s := v.Dot(w) / d
	return Vector2D{X: w.X * s, Y: w.Y * s}
}

// Vec2 converts to the x/image vector type.
func (v Vector2D) Vec2() f64.Vec2 {
	return f64.Vec2{v.X, v.Y}
}

// PointF is a 2D position.
type PointF struct {
	X, Y float64
}

// Pt is a convenience function to create a PointF.
func Pt(x, y float64) PointF {
	return PointF{X: x, Y: y}
}

// Add offsets the point by a vector.
func (p PointF) Add(v Vector2D) PointF {
	return PointF{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns the vector from q to p.
func (p PointF) Sub(q PointF) Vector2D {
	return Vector2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// ScrollOffset is the scroll position of a scroller, in layer space.
type ScrollOffset struct {
	X, Y float64
}

// Offset is a convenience function to create a ScrollOffset.
func Offset(x, y float64) ScrollOffset {
	return ScrollOffset{X: x, Y: y}
}

// OffsetFromVector converts a displacement into a scroll offset.
func OffsetFromVector(v Vector2D) ScrollOffset {
	return ScrollOffset{X: v.X, Y: v.Y}
}

// Add returns the componentwise sum.
func (o ScrollOffset) Add(other ScrollOffset) ScrollOffset {
	return ScrollOffset{X: o.X + other.X, Y: o.Y + other.Y}
}

// Sub returns the componentwise difference.
func (o ScrollOffset) Sub(other ScrollOffset) ScrollOffset {
	return ScrollOffset{X: o.X - other.X, Y: o.Y - other.Y}
}

// Scale multiplies both components by s.
func (o ScrollOffset) Scale(s float64) ScrollOffset {
	return ScrollOffset{X: o.X * s, Y: o.Y * s}
}

// Min returns the componentwise minimum.
func (o ScrollOffset) Min(other ScrollOffset) ScrollOffset {
	return ScrollOffset{X: math.Min(o.X, other.X), Y: math.Min(o.Y, other.Y)}
}

// Max returns the componentwise maximum.
func (o ScrollOffset) Max(other ScrollOffset) ScrollOffset {
	return ScrollOffset{X: math.Max(o.X, other.X), Y: math.Max(o.Y, other.Y)}
}

// Floor rounds both components down.
func (o ScrollOffset) Floor() ScrollOffset {
	return ScrollOffset{X: math.Floor(o.X), Y: math.Floor(o.Y)}
}

// IsZero reports whether both components are zero.
func (o ScrollOffset) IsZero() bool {
	return o.X == 0 && o.Y == 0
}

// Vector returns the offset as a displacement.
func (o ScrollOffset) Vector() Vector2D {
	return Vector2D{X: o.X, Y: o.Y}
}
