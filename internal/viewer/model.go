package viewer

import (
	"github.com/Faultbox/glbview/internal/engine/renderer"
	"github.com/Faultbox/glbview/internal/scene"
)

// RotationStep is the per-frame rotation about +Y, in radians.
const RotationStep = 0.01

// Model is the loaded scene node placed at the origin at unit scale.
type Model struct {
	node *scene.Node
	mesh *renderer.Mesh
}

// NewModel wraps a decoded node.
func NewModel(node *scene.Node) *Model {
	return &Model{node: node}
}

// Node returns the underlying scene node.
func (m *Model) Node() *scene.Node {
	return m.node
}

// Advance is the per-frame update: one RotationStep about +Y.
// Rotation speed follows the frame rate.
func (m *Model) Advance() {
	m.node.RotateY(RotationStep)
}

// Angle returns the accumulated rotation in radians.
func (m *Model) Angle() float64 {
	return m.node.RotationY()
}

// Uploaded reports whether the GPU buffers exist.
func (m *Model) Uploaded() bool {
	return m.mesh != nil
}

// Upload creates the GPU buffers.
func (m *Model) Upload(r *renderer.Renderer) {
	if m.mesh == nil {
		m.mesh = r.Upload(m.node)
	}
}

// Draw renders the node with its current rotation.
func (m *Model) Draw(r *renderer.Renderer, f renderer.Frame) {
	r.DrawMesh(m.mesh, m.node.Matrix(), f)
}

// Release frees the GPU buffers.
func (m *Model) Release() {
	if m.mesh != nil {
		m.mesh.Delete()
		m.mesh = nil
	}
}
