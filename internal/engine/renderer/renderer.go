// Package renderer draws lit triangle meshes with OpenGL 4.1 core.
package renderer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/glbview/internal/engine/lighting"
	"github.com/Faultbox/glbview/internal/engine/shader"
	"github.com/Faultbox/glbview/internal/logger"
	"github.com/Faultbox/glbview/pkg/math"
)

// Config sets the initial viewport and the background colour.
type Config struct {
	Width  int
	Height int

	// ClearColor is the background behind the model.
	ClearColor [4]float32
}

// DefaultClearColor is a plain white page.
var DefaultClearColor = [4]float32{1, 1, 1, 1}

const modelVertexShader = `#version 410 core
layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vNormal;

void main() {
    vNormal = mat3(uModel) * aNormal;
    gl_Position = uProjection * uView * uModel * vec4(aPosition, 1.0);
}
`

const modelFragmentShader = `#version 410 core
in vec3 vNormal;

uniform vec4 uBaseColor;
uniform vec3 uLightDir;
uniform vec3 uAmbient;
uniform vec3 uDiffuse;

out vec4 FragColor;

void main() {
    vec3 normal = normalize(vNormal);
    if (!gl_FrontFacing) {
        normal = -normal;
    }
    float diff = max(dot(normal, normalize(uLightDir)), 0.0);
    vec3 result = (uAmbient + diff * uDiffuse) * uBaseColor.rgb;
    FragColor = vec4(result, uBaseColor.a);
}
`

// Renderer owns the mesh shader and the per-frame GL state.
type Renderer struct {
	config Config
	model  *shader.Program
}

// New loads GL function pointers and compiles the mesh shader.
// A GL context must be current on the calling thread.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	c := cfg.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.model, err = shader.New(modelVertexShader, modelFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create model shader: %w", err)
	}
	logger.Debug("model shader created", zap.Uint32("program", r.model.ID))

	return r, nil
}

// Close deletes the mesh shader.
func (r *Renderer) Close() {
	if r.model != nil {
		r.model.Delete()
	}
}

// Resize updates the viewport to a new drawable size.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the viewport size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	return aspect(r.config.Width, r.config.Height)
}

// Begin clears colour and depth.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End unbinds what DrawMesh left bound.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// Frame holds the per-frame matrices and lights shared by every draw.
type Frame struct {
	View       math.Mat4
	Projection math.Mat4
	Lights     lighting.Rig
}

// DrawMesh draws an uploaded mesh with the given model matrix.
func (r *Renderer) DrawMesh(m *Mesh, model math.Mat4, f Frame) {
	if m == nil {
		return
	}

	p := r.model
	p.Use()
	p.SetMat4("uProjection", f.Projection)
	p.SetMat4("uView", f.View)
	p.SetMat4("uModel", model)
	p.SetVec3("uLightDir", f.Lights.Direction())
	p.SetVec3("uAmbient", f.Lights.Ambient())
	p.SetVec3("uDiffuse", f.Lights.Diffuse())

	for i := range m.parts {
		part := &m.parts[i]
		p.SetVec4("uBaseColor", part.color)
		gl.BindVertexArray(part.vao)
		gl.DrawElements(gl.TRIANGLES, part.indexCount, gl.UNSIGNED_INT, nil)
	}
}

func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
