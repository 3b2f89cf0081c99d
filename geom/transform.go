// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geom

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
)

// backFaceEpsilon is the single precision machine epsilon. Back-face tests
// treat smaller magnitudes as facing the viewer.
const backFaceEpsilon = 1.1920929e-07

// Transform is a 4x4 matrix in row-major order:
//
//	| m[0]  m[1]  m[2]  m[3]  |
//	| m[4]  m[5]  m[6]  m[7]  |
//	| m[8]  m[9]  m[10] m[11] |
//	| m[12] m[13] m[14] m[15] |
//
// The zero value is the zero matrix, not the identity. Use Identity or one
// of the constructors.
type Transform struct {
	m f64.Mat4
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: f64.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// FromMat4 wraps a row-major 4x4 matrix.
func FromMat4(m f64.Mat4) Transform {
	return Transform{m: m}
}

// NewAffine creates a 2D affine transform from the six values used by
// canvas-style APIs:
//
//	| a  c  0  tx |
//	| b  d  0  ty |
//	| 0  0  1  0  |
//	| 0  0  0  1  |
func NewAffine(a, b, c, d, tx, ty float64) Transform {
	return Transform{m: f64.Mat4{
		a, c, 0, tx,
		b, d, 0, ty,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// NewTranslation creates a 2D translation.
func NewTranslation(x, y float64) Transform {
	return Identity().Translate(x, y)
}

// NewScale creates a 2D scale.
func NewScale(x, y float64) Transform {
	return Identity().Scale(x, y)
}

// Mat4 returns the row-major matrix.
func (t Transform) Mat4() f64.Mat4 {
	return t.m
}

// At returns the element at the given row and column.
func (t Transform) At(row, col int) float64 {
	return t.m[row*4+col]
}

// Set returns a copy of t with one element replaced.
func (t Transform) Set(row, col int, v float64) Transform {
	t.m[row*4+col] = v
	return t
}

func mul(a, b *f64.Mat4) f64.Mat4 {
	var r f64.Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i*4+j] = a[i*4]*b[j] + a[i*4+1]*b[4+j] + a[i*4+2]*b[8+j] + a[i*4+3]*b[12+j]
		}
	}
	return r
}

// PreConcat returns t * other. other is applied first.
func (t Transform) PreConcat(other Transform) Transform {
	return Transform{m: mul(&t.m, &other.m)}
}

// Concat returns other * t. t is applied first.
func (t Transform) Concat(other Transform) Transform {
	return Transform{m: mul(&other.m, &t.m)}
}

// Translate pre-concatenates a 2D translation.
func (t Transform) Translate(x, y float64) Transform {
	return t.Translate3d(x, y, 0)
}

// Translate3d pre-concatenates a 3D translation.
func (t Transform) Translate3d(x, y, z float64) Transform {
	for r := 0; r < 4; r++ {
		t.m[r*4+3] += t.m[r*4]*x + t.m[r*4+1]*y + t.m[r*4+2]*z
	}
	return t
}

// PostTranslate concatenates a 2D translation.
func (t Transform) PostTranslate(x, y float64) Transform {
	for c := 0; c < 4; c++ {
		t.m[c] += x * t.m[12+c]
		t.m[4+c] += y * t.m[12+c]
	}
	return t
}

// Scale pre-concatenates a 2D scale.
func (t Transform) Scale(x, y float64) Transform {
	return t.Scale3d(x, y, 1)
}

// Scale3d pre-concatenates a 3D scale.
func (t Transform) Scale3d(x, y, z float64) Transform {
	for r := 0; r < 4; r++ {
		t.m[r*4] *= x
		t.m[r*4+1] *= y
		t.m[r*4+2] *= z
	}
	return t
}

// PostScale concatenates a 2D scale.
func (t Transform) PostScale(x, y float64) Transform {
	for c := 0; c < 4; c++ {
		t.m[c] *= x
		t.m[4+c] *= y
	}
	return t
}

// sinCosDegrees returns exact values for multiples of 90 degrees so that
// quarter turns stay axis aligned.
func sinCosDegrees(degrees float64) (sin, cos float64) {
	if q := degrees / 90; q == math.Trunc(q) {
		switch int(math.Mod(math.Mod(q, 4)+4, 4)) {
		case 0:
			return 0, 1
		case 1:
			return 1, 0
		case 2:
			return 0, -1
		default:
			return -1, 0
		}
	}
	return math.Sincos(degrees * math.Pi / 180)
}

// RotateAboutXAxis pre-concatenates a rotation around the X axis.
func (t Transform) RotateAboutXAxis(degrees float64) Transform {
	s, c := sinCosDegrees(degrees)
	r := Identity()
	r.m[5], r.m[6] = c, -s
	r.m[9], r.m[10] = s, c
	return t.PreConcat(r)
}

// RotateAboutYAxis pre-concatenates a rotation around the Y axis.
func (t Transform) RotateAboutYAxis(degrees float64) Transform {
	s, c := sinCosDegrees(degrees)
	r := Identity()
	r.m[0], r.m[2] = c, s
	r.m[8], r.m[10] = -s, c
	return t.PreConcat(r)
}

// RotateAboutZAxis pre-concatenates a rotation in the XY plane.
func (t Transform) RotateAboutZAxis(degrees float64) Transform {
	s, c := sinCosDegrees(degrees)
	r := Identity()
	r.m[0], r.m[1] = c, -s
	r.m[4], r.m[5] = s, c
	return t.PreConcat(r)
}

// ApplyPerspectiveDepth pre-concatenates a perspective projection with the
// given viewer distance. A zero depth is ignored.
func (t Transform) ApplyPerspectiveDepth(depth float64) Transform {
	if depth == 0 {
		return t
	}
	p := Identity()
	p.m[14] = -1 / depth
	return t.PreConcat(p)
}

// Flatten projects the transform onto the XY plane by discarding every
// component that reads or writes Z.
func (t Transform) Flatten() Transform {
	t.m[2], t.m[6], t.m[14] = 0, 0, 0
	t.m[8], t.m[9], t.m[11] = 0, 0, 0
	t.m[10] = 1
	return t
}

// IsFlat reports whether Flatten would leave the transform unchanged.
func (t Transform) IsFlat() bool {
	return t.m[2] == 0 && t.m[6] == 0 && t.m[14] == 0 &&
		t.m[8] == 0 && t.m[9] == 0 && t.m[11] == 0 &&
		t.m[10] == 1
}

// IsIdentity reports whether t is exactly the identity.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// HasPerspective reports whether the last row differs from (0, 0, 0, 1).
func (t Transform) HasPerspective() bool {
	return t.m[12] != 0 || t.m[13] != 0 || t.m[14] != 0 || t.m[15] != 1
}

// IsIdentityOrTranslation reports whether t only translates.
func (t Transform) IsIdentityOrTranslation() bool {
	return t.m[0] == 1 && t.m[1] == 0 && t.m[2] == 0 &&
		t.m[4] == 0 && t.m[5] == 1 && t.m[6] == 0 &&
		t.m[8] == 0 && t.m[9] == 0 && t.m[10] == 1 &&
		!t.HasPerspective()
}

// IsIdentityOrIntegerTranslation reports whether t only translates by whole
// units.
func (t Transform) IsIdentityOrIntegerTranslation() bool {
	if !t.IsIdentityOrTranslation() {
		return false
	}
	return t.m[3] == math.Trunc(t.m[3]) &&
		t.m[7] == math.Trunc(t.m[7]) &&
		t.m[11] == math.Trunc(t.m[11])
}

// IsApproximatelyIdentityOrTranslation is IsIdentityOrTranslation with every
// comparison relaxed by tolerance.
func (t Transform) IsApproximatelyIdentityOrTranslation(tolerance float64) bool {
	near := func(v, want float64) bool { return math.Abs(v-want) <= tolerance }
	return near(t.m[0], 1) && near(t.m[1], 0) && near(t.m[2], 0) &&
		near(t.m[4], 0) && near(t.m[5], 1) && near(t.m[6], 0) &&
		near(t.m[8], 0) && near(t.m[9], 0) && near(t.m[10], 1) &&
		near(t.m[12], 0) && near(t.m[13], 0) && near(t.m[14], 0) &&
		near(t.m[15], 1)
}

// IsScaleOrTranslation reports whether t only scales and translates.
func (t Transform) IsScaleOrTranslation() bool {
	return t.m[1] == 0 && t.m[2] == 0 &&
		t.m[4] == 0 && t.m[6] == 0 &&
		t.m[8] == 0 && t.m[9] == 0 &&
		!t.HasPerspective()
}

// To2dTranslation returns the X and Y translation components.
func (t Transform) To2dTranslation() Vector2D {
	return Vector2D{X: t.m[3], Y: t.m[7]}
}

// RoundTranslation rounds the X and Y translation components to the nearest
// integers.
func (t Transform) RoundTranslation() Transform {
	t.m[3] = math.Round(t.m[3])
	t.m[7] = math.Round(t.m[7])
	return t
}

// adjugate returns the adjugate (transposed cofactor matrix) of m together
// with its determinant.
func adjugate(m *f64.Mat4) (f64.Mat4, float64) {
	var inv f64.Mat4
	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] +
		m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] -
		m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] +
		m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] -
		m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]
	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] -
		m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] +
		m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] -
		m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] +
		m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]
	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] +
		m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] -
		m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] +
		m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] -
		m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]
	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] -
		m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] +
		m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] -
		m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] +
		m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]

	det := m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
	return inv, det
}

// Inverse returns the inverse of t. When t is singular the identity is
// returned together with false.
func (t Transform) Inverse() (Transform, bool) {
	if t.IsScaleOrTranslation() {
		sx, sy, sz := t.m[0], t.m[5], t.m[10]
		if sx == 0 || sy == 0 || sz == 0 {
			return Identity(), false
		}
		inv := Identity()
		inv.m[0], inv.m[5], inv.m[10] = 1/sx, 1/sy, 1/sz
		inv.m[3] = -t.m[3] / sx
		inv.m[7] = -t.m[7] / sy
		inv.m[11] = -t.m[11] / sz
		return inv, true
	}

	adj, det := adjugate(&t.m)
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Identity(), false
	}
	invDet := 1 / det
	if math.IsInf(invDet, 0) {
		return Identity(), false
	}
	for i := range adj {
		adj[i] *= invDet
	}
	return Transform{m: adj}, true
}

// IsInvertible reports whether t has an inverse.
func (t Transform) IsInvertible() bool {
	_, ok := t.Inverse()
	return ok
}

// IsBackFaceVisible reports whether a layer transformed by t shows its back
// to the viewer. Singular transforms are treated as facing the viewer.
func (t Transform) IsBackFaceVisible() bool {
	if t.IsIdentityOrTranslation() {
		return false
	}
	adj, det := adjugate(&t.m)
	if det == 0 {
		return false
	}
	// The transformed normal's Z is cofactor(2,2) / det; only its sign matters.
	return adj[10]*det < -backFaceEpsilon
}

// Scale2dComponents returns the lengths of the transformed X and Y unit
// vectors. Transforms with perspective return fallback for both axes.
func (t Transform) Scale2dComponents(fallback float64) Vector2D {
	if t.HasPerspective() {
		return Vector2D{X: fallback, Y: fallback}
	}
	return Vector2D{
		X: math.Sqrt(t.m[0]*t.m[0] + t.m[4]*t.m[4] + t.m[8]*t.m[8]),
		Y: math.Sqrt(t.m[1]*t.m[1] + t.m[5]*t.m[5] + t.m[9]*t.m[9]),
	}
}

// MapPoint transforms a point in the z=0 plane, applying the homogeneous
// divide when w is neither 0 nor 1.
func (t Transform) MapPoint(p PointF) PointF {
	x := t.m[0]*p.X + t.m[1]*p.Y + t.m[3]
	y := t.m[4]*p.X + t.m[5]*p.Y + t.m[7]
	w := t.m[12]*p.X + t.m[13]*p.Y + t.m[15]
	if w != 1 && w != 0 {
		x /= w
		y /= w
	}
	return PointF{X: x, Y: y}
}

// MapRect returns the bounding box of the four transformed corners of r.
func (t Transform) MapRect(r RectF) RectF {
	if t.IsIdentityOrTranslation() {
		return RectF{X: r.X + t.m[3], Y: r.Y + t.m[7], W: r.W, H: r.H}
	}
	corners := [4]PointF{
		t.MapPoint(PointF{X: r.X, Y: r.Y}),
		t.MapPoint(PointF{X: r.Right(), Y: r.Y}),
		t.MapPoint(PointF{X: r.Right(), Y: r.Bottom()}),
		t.MapPoint(PointF{X: r.X, Y: r.Bottom()}),
	}
	minX, minY := corners[0].X, corners[0].Y
	maxX, maxY := minX, minY
	for _, c := range corners[1:] {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	return RectF{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// MapEnclosingRect maps an integer rect and returns the smallest integer
// rect that contains the result.
func (t Transform) MapEnclosingRect(r Rect) Rect {
	return ToEnclosingRect(t.MapRect(r.ToRectF()))
}

// ApproximatelyEqual reports whether every element of t is within
// tolerance of the matching element of other.
func (t Transform) ApproximatelyEqual(other Transform, tolerance float64) bool {
	for i := range t.m {
		if math.Abs(t.m[i]-other.m[i]) > tolerance {
			return false
		}
	}
	return true
}

// String formats the matrix row by row.
func (t Transform) String() string {
	return fmt.Sprintf("[ %+.4g %+.4g %+.4g %+.4g\n  %+.4g %+.4g %+.4g %+.4g\n  %+.4g %+.4g %+.4g %+.4g\n  %+.4g %+.4g %+.4g %+.4g ]",
		t.m[0], t.m[1], t.m[2], t.m[3],
		t.m[4], t.m[5], t.m[6], t.m[7],
		t.m[8], t.m[9], t.m[10], t.m[11],
		t.m[12], t.m[13], t.m[14], t.m[15])
}
