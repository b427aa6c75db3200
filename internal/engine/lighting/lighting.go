// Package lighting describes the scene's fixed light rig.
package lighting

import "github.com/Faultbox/glbview/pkg/math"

// Fixed light rig.
const (
	AmbientIntensity     = 0.7
	DirectionalIntensity = 0.5
)

// DirectionalPosition is where the directional light sits; it shines toward the origin.
var DirectionalPosition = math.Vec3{X: 10, Y: 10, Z: 10}

var white = math.Vec3{X: 1, Y: 1, Z: 1}

// Rig holds the uniforms the model shader needs for lighting.
type Rig struct {
	AmbientColor     math.Vec3
	AmbientIntensity float32

	DirectionalColor     math.Vec3
	DirectionalIntensity float32
	DirectionalPosition  math.Vec3
	DirectionalTarget    math.Vec3
}

// Default returns white ambient and directional lights at the fixed intensities.
func Default() Rig {
	return Rig{
		AmbientColor:         white,
		AmbientIntensity:     AmbientIntensity,
		DirectionalColor:     white,
		DirectionalIntensity: DirectionalIntensity,
		DirectionalPosition:  DirectionalPosition,
	}
}

// Direction returns the unit vector from the target toward the light, or
// straight up when the light sits on its target.
func (r Rig) Direction() [3]float32 {
	d := r.DirectionalPosition.Sub(r.DirectionalTarget)
	if d.Length() == 0 {
		return [3]float32{0, 1, 0}
	}
	return d.Normalize().Array()
}

// Ambient returns the ambient colour scaled by its intensity.
func (r Rig) Ambient() [3]float32 {
	return r.AmbientColor.Scale(r.AmbientIntensity).Array()
}

// Diffuse returns the directional colour scaled by its intensity.
func (r Rig) Diffuse() [3]float32 {
	return r.DirectionalColor.Scale(r.DirectionalIntensity).Array()
}
