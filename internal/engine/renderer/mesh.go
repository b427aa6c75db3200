package renderer

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/glbview/internal/logger"
	"github.com/Faultbox/glbview/internal/scene"
)

// Mesh holds the GPU buffers of a decoded scene node, one part per primitive.
type Mesh struct {
	parts []meshPart
}

type meshPart struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	color      [4]float32
}

// Upload copies every primitive of node into GPU buffers.
func (r *Renderer) Upload(node *scene.Node) *Mesh {
	m := &Mesh{parts: make([]meshPart, 0, len(node.Primitives))}
	for i := range node.Primitives {
		prim := &node.Primitives[i]
		if len(prim.Vertices) == 0 || len(prim.Indices) == 0 {
			continue
		}
		m.parts = append(m.parts, uploadPrimitive(prim))
	}

	logger.Debug("mesh uploaded",
		zap.String("name", node.Name),
		zap.Int("parts", len(m.parts)),
		zap.Int("vertices", node.VertexCount()),
		zap.Int("triangles", node.TriangleCount()),
	)
	return m
}

func uploadPrimitive(prim *scene.Primitive) meshPart {
	part := meshPart{
		indexCount: int32(len(prim.Indices)),
		color:      prim.Color,
	}
	stride := int32(unsafe.Sizeof(scene.Vertex{}))

	gl.GenVertexArrays(1, &part.vao)
	gl.BindVertexArray(part.vao)

	gl.GenBuffers(1, &part.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, part.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(prim.Vertices)*int(stride), unsafe.Pointer(&prim.Vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &part.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, part.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(prim.Indices)*4, unsafe.Pointer(&prim.Indices[0]), gl.STATIC_DRAW)

	// Position attribute (location = 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)

	// Normal attribute (location = 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	return part
}

// Parts returns the number of uploaded primitives.
func (m *Mesh) Parts() int {
	return len(m.parts)
}

// Delete releases all GPU buffers.
func (m *Mesh) Delete() {
	for i := range m.parts {
		p := &m.parts[i]
		gl.DeleteVertexArrays(1, &p.vao)
		gl.DeleteBuffers(1, &p.vbo)
		gl.DeleteBuffers(1, &p.ebo)
	}
	m.parts = nil
}
