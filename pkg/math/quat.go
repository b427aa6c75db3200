package math

import "math"

// Quat is a rotation quaternion with W as the scalar part, matching the glTF
// [x, y, z, w] layout.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the no-op rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle returns a rotation of angle radians about a unit axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math.Sincos(float64(angle) / 2)
	v := axis.Scale(float32(sin))
	return Quat{X: v.X, Y: v.Y, Z: v.Z, W: float32(cos)}
}

// QuatFromFloat64 converts a glTF node rotation.
func QuatFromFloat64(r [4]float64) Quat {
	return Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])}
}

// Normalize returns q at unit length. Degenerate input becomes the identity.
func (q Quat) Normalize() Quat {
	n := math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W))
	if n < 1e-4 {
		return QuatIdentity()
	}
	inv := float32(1 / n)
	return Quat{X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv, W: q.W * inv}
}

// Mat4 returns the rotation matrix of q. q need not be normalized.
func (q Quat) Mat4() Mat4 {
	q = q.Normalize()
	x, y, z, w := q.X, q.Y, q.Z, q.W

	m := Identity()
	m.Set(0, 0, 1-2*(y*y+z*z))
	m.Set(0, 1, 2*(x*y-z*w))
	m.Set(0, 2, 2*(x*z+y*w))

	m.Set(1, 0, 2*(x*y+z*w))
	m.Set(1, 1, 1-2*(x*x+z*z))
	m.Set(1, 2, 2*(y*z-x*w))

	m.Set(2, 0, 2*(x*z-y*w))
	m.Set(2, 1, 2*(y*z+x*w))
	m.Set(2, 2, 1-2*(x*x+y*y))
	return m
}
