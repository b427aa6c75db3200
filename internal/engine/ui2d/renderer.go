// Package ui2d draws screen-space text over the 3D scene.
package ui2d

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/glbview/internal/engine/shader"
	"github.com/Faultbox/glbview/pkg/math"
)

// floatsPerVertex is pos(2) + uv(2) + color(4).
const floatsPerVertex = 8

const textVertexShader = `#version 410 core
layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aTexCoord;
layout (location = 2) in vec4 aColor;

uniform mat4 uProjection;

out vec2 vTexCoord;
out vec4 vColor;

void main() {
    gl_Position = uProjection * vec4(aPos, 0.0, 1.0);
    vTexCoord = aTexCoord;
    vColor = aColor;
}
`

const textFragmentShader = `#version 410 core
uniform sampler2D uTexture;

in vec2 vTexCoord;
in vec4 vColor;
out vec4 FragColor;

void main() {
    float coverage = texture(uTexture, vTexCoord).r;
    FragColor = vec4(vColor.rgb, vColor.a * coverage);
}
`

// Renderer batches text quads for one frame and draws them in End.
type Renderer struct {
	screenWidth  int
	screenHeight int

	program *shader.Program
	vao     uint32
	vbo     uint32

	font     *Font
	vertices []float32
}

// New creates a text renderer. Requires a current GL context.
func New(width, height int) (*Renderer, error) {
	r := &Renderer{
		screenWidth:  width,
		screenHeight: height,
		vertices:     make([]float32, 0, 1024),
	}

	var err error
	r.program, err = shader.New(textVertexShader, textFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("create text shader: %w", err)
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 2*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, stride, 4*4)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.font = NewFont(DefaultAtlas())
	return r, nil
}

// Resize sets the size the orthographic projection covers.
func (r *Renderer) Resize(width, height int) {
	r.screenWidth = width
	r.screenHeight = height
}

// ScreenSize returns the current screen dimensions.
func (r *Renderer) ScreenSize() (int, int) {
	return r.screenWidth, r.screenHeight
}

// Begin drops the text queued last frame.
func (r *Renderer) Begin() {
	r.vertices = r.vertices[:0]
}

// DrawText queues text with its top-left corner at (x, y) in pixels.
func (r *Renderer) DrawText(x, y float32, text string, scale float32, color Color) {
	r.vertices = appendText(r.vertices, r.font.Atlas, x, y, text, scale, color)
}

// DrawTextCentered queues text centred on the screen.
func (r *Renderer) DrawTextCentered(text string, scale float32, color Color) {
	x, y := centerText(r.font.Atlas, r.screenWidth, r.screenHeight, text, scale)
	r.DrawText(x, y, text, scale, color)
}

// MeasureText is the pixel size text would occupy at scale.
func (r *Renderer) MeasureText(text string, scale float32) (float32, float32) {
	return r.font.MeasureText(text, scale)
}

// End draws everything queued since Begin.
func (r *Renderer) End() {
	if len(r.vertices) == 0 {
		return
	}

	var prevBlend, prevDepth int32
	gl.GetIntegerv(gl.BLEND, &prevBlend)
	gl.GetIntegerv(gl.DEPTH_TEST, &prevDepth)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)

	r.program.Use()
	r.program.SetMat4("uProjection", math.Ortho(0, float32(r.screenWidth), float32(r.screenHeight), 0, -1, 1))
	r.program.SetInt("uTexture", 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.font.TextureID())

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(r.vertices)*4, gl.Ptr(r.vertices), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(r.vertices)/floatsPerVertex))

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)

	if prevBlend == gl.FALSE {
		gl.Disable(gl.BLEND)
	}
	if prevDepth == gl.TRUE {
		gl.Enable(gl.DEPTH_TEST)
	}
}

// Close deletes the GL objects and the font texture.
func (r *Renderer) Close() {
	if r.font != nil {
		r.font.Close()
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// centerText returns the top-left corner that centres text on a screen,
// snapped to whole pixels so the bitmap glyphs stay crisp.
func centerText(a *Atlas, screenW, screenH int, text string, scale float32) (float32, float32) {
	w, h := a.MeasureText(text, scale)
	x := float32(int((float32(screenW) - w) / 2))
	y := float32(int((float32(screenH) - h) / 2))
	return x, y
}

// appendText appends two triangles per glyph to dst.
func appendText(dst []float32, a *Atlas, x, y float32, text string, scale float32, c Color) []float32 {
	charW := float32(a.GlyphW) * scale
	charH := float32(a.GlyphH) * scale

	if need := len(dst) + runeCount(text)*6*floatsPerVertex; cap(dst) < need {
		grown := make([]float32, len(dst), need)
		copy(grown, dst)
		dst = grown
	}

	curX := x
	for _, ch := range text {
		if ch == '\n' {
			curX = x
			y += charH
			continue
		}
		if ch != ' ' {
			u0, v0, u1, v1 := a.GlyphUV(ch)
			x1, y1 := curX+charW, y+charH
			dst = append(dst,
				curX, y, u0, v0, c.R, c.G, c.B, c.A,
				x1, y, u1, v0, c.R, c.G, c.B, c.A,
				x1, y1, u1, v1, c.R, c.G, c.B, c.A,
				curX, y, u0, v0, c.R, c.G, c.B, c.A,
				x1, y1, u1, v1, c.R, c.G, c.B, c.A,
				curX, y1, u0, v1, c.R, c.G, c.B, c.A,
			)
		}
		curX += charW
	}
	return dst
}
