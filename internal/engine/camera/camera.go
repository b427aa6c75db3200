// Package camera provides the perspective camera and its mouse orbit controls.
package camera

import (
	gomath "math"

	"github.com/Faultbox/glbview/pkg/math"
)

// Default viewing parameters.
const (
	DefaultFOV      = 60.0 // degrees
	DefaultNear     = 0.1
	DefaultFar      = 1000.0
	DefaultDistance = 8.0

	MinDistance = 5.0
	MaxDistance = 20.0

	DampingFactor = 0.05
)

// polarEpsilon keeps the polar angle off the poles, where the up vector
// would be parallel to the view direction.
const polarEpsilon = 1e-6

// OrbitControls orbits a perspective camera around a target point.
// Rotation and panning are damped: input queues a delta that Update
// applies a fraction of per frame. Zoom is applied immediately.
type OrbitControls struct {
	Target math.Vec3

	// Spherical coordinates of the camera relative to Target.
	Distance float32
	Azimuth  float32 // around +Y, 0 looks down -Z
	Polar    float32 // from +Y, pi/2 is the horizon

	MinDistance float32
	MaxDistance float32

	FOV  float32 // degrees
	Near float32
	Far  float32

	EnableDamping bool
	DampingFactor float32

	// Sensitivity
	RotateSensitivity float32
	ZoomSensitivity   float32
	PanSensitivity    float32

	deltaAzimuth float32
	deltaPolar   float32
	panOffset    math.Vec3
}

// NewOrbitControls returns controls with the camera at (0, 0, 8) looking at the origin.
func NewOrbitControls() *OrbitControls {
	return &OrbitControls{
		Distance:          DefaultDistance,
		Azimuth:           0,
		Polar:             gomath.Pi / 2,
		MinDistance:       MinDistance,
		MaxDistance:       MaxDistance,
		FOV:               DefaultFOV,
		Near:              DefaultNear,
		Far:               DefaultFar,
		EnableDamping:     true,
		DampingFactor:     DampingFactor,
		RotateSensitivity: 0.008,
		ZoomSensitivity:   0.05,
		PanSensitivity:    0.0015,
	}
}

// Position returns the camera position in world space.
func (c *OrbitControls) Position() math.Vec3 {
	sinPolar := float32(gomath.Sin(float64(c.Polar)))
	return math.Vec3{
		X: c.Target.X + c.Distance*sinPolar*float32(gomath.Sin(float64(c.Azimuth))),
		Y: c.Target.Y + c.Distance*float32(gomath.Cos(float64(c.Polar))),
		Z: c.Target.Z + c.Distance*sinPolar*float32(gomath.Cos(float64(c.Azimuth))),
	}
}

// ViewMatrix returns the view matrix for the current camera position.
func (c *OrbitControls) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Target, math.Vec3{X: 0, Y: 1, Z: 0})
}

// ProjectionMatrix returns the perspective projection for the given aspect ratio.
func (c *OrbitControls) ProjectionMatrix(aspect float32) math.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return math.Perspective(c.FOV*gomath.Pi/180, aspect, c.Near, c.Far)
}

// HandleDrag queues a rotation from a mouse drag delta in pixels.
func (c *OrbitControls) HandleDrag(deltaX, deltaY float32) {
	c.deltaAzimuth -= deltaX * c.RotateSensitivity
	c.deltaPolar -= deltaY * c.RotateSensitivity
	if !c.EnableDamping {
		c.Update()
	}
}

// HandleZoom dollies toward (positive delta) or away from the target.
// The distance never leaves [MinDistance, MaxDistance].
func (c *OrbitControls) HandleZoom(delta float32) {
	scale := float32(gomath.Pow(1-float64(c.ZoomSensitivity), float64(delta)))
	c.Distance = c.clampDistance(c.Distance * scale)
}

// HandlePan queues a translation of the target in the camera plane.
func (c *OrbitControls) HandlePan(deltaX, deltaY float32) {
	right, up := c.basis()
	step := c.Distance * c.PanSensitivity
	c.panOffset = c.panOffset.
		Add(right.Scale(-deltaX * step)).
		Add(up.Scale(deltaY * step))
	if !c.EnableDamping {
		c.Update()
	}
}

// Update applies queued input. Call once per frame.
func (c *OrbitControls) Update() {
	factor := float32(1)
	if c.EnableDamping {
		factor = c.DampingFactor
	}

	c.Azimuth = math.WrapAngle(c.Azimuth + c.deltaAzimuth*factor)
	c.Polar = clamp(c.Polar+c.deltaPolar*factor, polarEpsilon, gomath.Pi-polarEpsilon)
	c.Target = c.Target.Add(c.panOffset.Scale(factor))
	c.Distance = c.clampDistance(c.Distance)

	if c.EnableDamping {
		c.deltaAzimuth *= 1 - factor
		c.deltaPolar *= 1 - factor
		c.panOffset = c.panOffset.Scale(1 - factor)
	} else {
		c.deltaAzimuth, c.deltaPolar = 0, 0
		c.panOffset = math.Vec3{}
	}
}

// Settled reports whether no queued motion remains.
func (c *OrbitControls) Settled() bool {
	const eps = 1e-5
	return abs(c.deltaAzimuth) < eps && abs(c.deltaPolar) < eps && c.panOffset.Length() < eps
}

// basis returns the camera's right and up vectors.
func (c *OrbitControls) basis() (right, up math.Vec3) {
	forward := c.Target.Sub(c.Position()).Normalize()
	right = forward.Cross(math.Vec3{X: 0, Y: 1, Z: 0}).Normalize()
	up = right.Cross(forward)
	return right, up
}

func (c *OrbitControls) clampDistance(d float32) float32 {
	return clamp(d, c.MinDistance, c.MaxDistance)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
