// Package math provides the small vector, matrix and quaternion set the viewer
// needs. Matrices are column-major float32, ready for glUniformMatrix4fv.
package math

import "math"

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// V3 builds a Vec3 from a [3]float32, the layout used by vertex data.
func V3(a [3]float32) Vec3 {
	return Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// Array returns the vector as a [3]float32.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

// Scale multiplies every component by s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s} }

func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns v x o (right-handed).
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns v scaled to unit length. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	if l := v.Length(); l > 0 {
		return v.Scale(1 / l)
	}
	return Vec3{}
}

// Distance returns |v - o|.
func (v Vec3) Distance(o Vec3) float32 {
	return v.Sub(o).Length()
}

// WrapAngle maps an angle in radians into [0, 2*pi).
func WrapAngle(a float32) float32 {
	const turn = 2 * math.Pi
	w := math.Mod(float64(a), turn)
	if w < 0 {
		w += turn
	}
	return float32(w)
}
