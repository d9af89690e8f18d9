package common

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// slerpLinearThreshold is the quaternion dot product above which Slerp falls back to a normalized lerp.
// Past this point sin(theta) is too small to divide by safely.
const slerpLinearThreshold = 0.9995

// Mat4 is a 4x4 matrix stored in column-major order.
type Mat4 [16]float64

// QuatIdentity returns the identity rotation.
//
// Returns:
//   - quat.Number: the identity quaternion (w=1)
func QuatIdentity() quat.Number {
	return quat.Number{Real: 1}
}

// QuatDot returns the 4D dot product of two quaternions.
//
// Parameters:
//   - a, b: the quaternions to compare
//
// Returns:
//   - float64: the dot product
func QuatDot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// NormalizeQuat returns q scaled to unit length. A zero quaternion normalizes to the identity.
//
// Parameters:
//   - q: the quaternion to normalize
//
// Returns:
//   - quat.Number: the unit quaternion
func NormalizeQuat(q quat.Number) quat.Number {
	l := quat.Abs(q)
	if l == 0 || math.IsNaN(l) {
		return QuatIdentity()
	}
	return quat.Scale(1/l, q)
}

// QuatMul returns the Hamilton product a*b, which applies b first and then a.
func QuatMul(a, b quat.Number) quat.Number {
	return quat.Mul(a, b)
}

// QuatInverse returns the inverse rotation of a unit quaternion.
func QuatInverse(q quat.Number) quat.Number {
	return quat.Conj(NormalizeQuat(q))
}

// RotateVec rotates v by the unit quaternion q.
//
// Parameters:
//   - q: the rotation
//   - v: the vector to rotate
//
// Returns:
//   - r3.Vec: the rotated vector
func RotateVec(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(NormalizeQuat(q)).Rotate(v)
}

// Slerp spherically interpolates from a to b along the shortest arc.
// t is not clamped; callers pass ratios already limited to [0, 1].
//
// Parameters:
//   - a: the source rotation (t=0)
//   - b: the target rotation (t=1)
//   - t: the interpolation ratio
//
// Returns:
//   - quat.Number: the interpolated unit quaternion
func Slerp(a, b quat.Number, t float64) quat.Number {
	a = NormalizeQuat(a)
	b = NormalizeQuat(b)
	dot := QuatDot(a, b)
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}
	if dot > slerpLinearThreshold {
		return NormalizeQuat(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}
	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta
	return quat.Add(quat.Scale(wa, a), quat.Scale(wb, b))
}

// Lerp linearly interpolates between two vectors.
//
// Parameters:
//   - a: the source vector (t=0)
//   - b: the target vector (t=1)
//   - t: the interpolation ratio
//
// Returns:
//   - r3.Vec: the interpolated vector
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Identity returns the 4x4 identity matrix.
func Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// Mul4 multiplies two 4x4 matrices.
// Result: a * b
//
// Parameters:
//   - a: left-hand matrix
//   - b: right-hand matrix
//
// Returns:
//   - Mat4: the product
func Mul4(a, b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// Invert4 computes the inverse of a 4x4 column-major matrix using the Laplace
// expansion (cofactor) method. If the matrix is singular the identity is returned
// together with false.
//
// Parameters:
//   - m: source matrix
//
// Returns:
//   - Mat4: the inverse, or the identity when m is singular
//   - bool: true if the matrix was successfully inverted, false if singular
func Invert4(m Mat4) (Mat4, bool) {
	// 2x2 sub-determinants of the upper-left and lower-right quadrants.
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return Identity(), false
	}

	invDet := 1.0 / det
	var out Mat4

	out[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * invDet
	out[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * invDet
	out[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * invDet
	out[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * invDet

	out[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * invDet
	out[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * invDet
	out[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * invDet
	out[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * invDet

	out[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * invDet
	out[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * invDet
	out[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * invDet
	out[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * invDet

	out[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * invDet
	out[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * invDet
	out[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * invDet
	out[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * invDet

	return out, true
}

// ComposeTRS builds a local-to-parent matrix from translation, rotation and scale.
// The result applies scale, then rotation, then translation.
//
// Parameters:
//   - pos: translation
//   - rot: rotation quaternion
//   - scale: scale factors along each axis
//
// Returns:
//   - Mat4: the composed matrix
func ComposeTRS(pos r3.Vec, rot quat.Number, scale r3.Vec) Mat4 {
	q := NormalizeQuat(rot)
	x, y, z, w := q.Imag, q.Jmag, q.Kmag, q.Real
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	var m Mat4
	m[0] = (1 - 2*(yy+zz)) * scale.X
	m[1] = 2 * (xy + wz) * scale.X
	m[2] = 2 * (xz - wy) * scale.X

	m[4] = 2 * (xy - wz) * scale.Y
	m[5] = (1 - 2*(xx+zz)) * scale.Y
	m[6] = 2 * (yz + wx) * scale.Y

	m[8] = 2 * (xz + wy) * scale.Z
	m[9] = 2 * (yz - wx) * scale.Z
	m[10] = (1 - 2*(xx+yy)) * scale.Z

	m[12] = pos.X
	m[13] = pos.Y
	m[14] = pos.Z
	m[15] = 1
	return m
}

// TransformPoint applies m to the point p (w=1).
func TransformPoint(m Mat4, p r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		Y: m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		Z: m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}
