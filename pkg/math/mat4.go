package math

import "math"

// Mat4 is a 4x4 matrix stored column by column: element (row r, column c)
// lives at index c*4+r, and the translation occupies indices 12..14.
type Mat4 [16]float32

// At returns the element at row r, column c.
func (m *Mat4) At(r, c int) float32 { return m[c*4+r] }

// Set stores v at row r, column c.
func (m *Mat4) Set(r, c int, v float32) { m[c*4+r] = v }

// Ptr returns a pointer to the first element (for OpenGL uniform calls).
func (m *Mat4) Ptr() *float32 { return &m[0] }

// Identity returns the identity matrix.
func Identity() Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// IsIdentity reports whether m equals the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == Identity()
}

// FromFloat64 converts a column-major float64 matrix such as a glTF node matrix.
func FromFloat64(src [16]float64) Mat4 {
	var m Mat4
	for i := range src {
		m[i] = float32(src[i])
	}
	return m
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m.Set(0, 3, x)
	m.Set(1, 3, y)
	m.Set(2, 3, z)
	return m
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	m := Identity()
	m.Set(0, 0, x)
	m.Set(1, 1, y)
	m.Set(2, 2, z)
	return m
}

// RotateY returns a rotation of angle radians about +Y.
func RotateY(angle float32) Mat4 {
	sin, cos := math.Sincos(float64(angle))
	s, c := float32(sin), float32(cos)

	m := Identity()
	m.Set(0, 0, c)
	m.Set(0, 2, s)
	m.Set(2, 0, -s)
	m.Set(2, 2, c)
	return m
}

// Compose builds translation * rotation * scale, the glTF node order.
func Compose(t Vec3, r Quat, s Vec3) Mat4 {
	return Translate(t.X, t.Y, t.Z).Mul(r.Mat4()).Mul(Scale(s.X, s.Y, s.Z))
}

// Perspective returns an OpenGL projection with a vertical field of view of
// fovY radians, mapping depth [near, far] to clip [-1, 1].
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	depth := near - far

	var m Mat4
	m.Set(0, 0, f/aspect)
	m.Set(1, 1, f)
	m.Set(2, 2, (far+near)/depth)
	m.Set(2, 3, 2*far*near/depth)
	m.Set(3, 2, -1)
	return m
}

// Ortho returns an orthographic projection of the given box.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	w, h, d := right-left, top-bottom, far-near

	m := Identity()
	m.Set(0, 0, 2/w)
	m.Set(1, 1, 2/h)
	m.Set(2, 2, -2/d)
	m.Set(0, 3, -(right+left)/w)
	m.Set(1, 3, -(top+bottom)/h)
	m.Set(2, 3, -(far+near)/d)
	return m
}

// LookAt returns the view matrix of a camera at eye looking at center.
func LookAt(eye, center, up Vec3) Mat4 {
	forward := center.Sub(eye).Normalize()
	side := forward.Cross(up).Normalize()
	camUp := side.Cross(forward)

	m := Identity()
	for c, v := range [3]float32{side.X, side.Y, side.Z} {
		m.Set(0, c, v)
	}
	for c, v := range [3]float32{camUp.X, camUp.Y, camUp.Z} {
		m.Set(1, c, v)
	}
	for c, v := range [3]float32{forward.X, forward.Y, forward.Z} {
		m.Set(2, c, -v)
	}
	m.Set(0, 3, -side.Dot(eye))
	m.Set(1, 3, -camUp.Dot(eye))
	m.Set(2, 3, forward.Dot(eye))
	return m
}

// Mul returns m * o; applied to a point, o acts first.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m.At(r, k) * o.At(k, c)
			}
			out.Set(r, c, sum)
		}
	}
	return out
}

// TransformPoint applies m to a point (w = 1), dividing by w when projective.
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	var out [4]float32
	for r := 0; r < 4; r++ {
		out[r] = m.At(r, 0)*p[0] + m.At(r, 1)*p[1] + m.At(r, 2)*p[2] + m.At(r, 3)
	}
	if w := out[3]; w != 0 && w != 1 {
		return [3]float32{out[0] / w, out[1] / w, out[2] / w}
	}
	return [3]float32{out[0], out[1], out[2]}
}

// TransformDirection applies the linear part of m to a direction (w = 0).
func (m Mat4) TransformDirection(d [3]float32) [3]float32 {
	var out [3]float32
	for r := 0; r < 3; r++ {
		out[r] = m.At(r, 0)*d[0] + m.At(r, 1)*d[1] + m.At(r, 2)*d[2]
	}
	return out
}
