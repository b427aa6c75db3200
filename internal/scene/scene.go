// Package scene decodes binary glTF (GLB) assets into a single drawable node.
package scene

import (
	"errors"
	"fmt"
	"io"
	stdmath "math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/glbview/pkg/math"
)

// ErrNoGeometry is returned when an asset decodes but contains no triangles.
var ErrNoGeometry = errors.New("scene has no drawable geometry")

const (
	attrPosition = "POSITION"
	attrNormal   = "NORMAL"
)

// Vertex is the GPU vertex layout: position then normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Primitive is one indexed triangle list with a flat base colour.
type Primitive struct {
	Vertices []Vertex
	Indices  []uint32
	Color    [4]float32
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the middle of the box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Node is a decoded scene with the glTF hierarchy baked into its primitives.
// Its own transform is a rotation about +Y at unit scale, placed at the origin.
type Node struct {
	Name       string
	Primitives []Primitive
	Bounds     Bounds

	rotationY float64
}

// RotationY returns the accumulated rotation about the vertical axis, in
// radians. It is not wrapped.
func (n *Node) RotationY() float64 {
	return n.rotationY
}

// RotateY adds delta radians to the rotation about the vertical axis.
func (n *Node) RotateY(delta float64) {
	n.rotationY += delta
}

// Matrix returns the node's model matrix.
func (n *Node) Matrix() math.Mat4 {
	return math.RotateY(float32(stdmath.Mod(n.rotationY, 2*stdmath.Pi)))
}

// VertexCount returns the total vertex count over all primitives.
func (n *Node) VertexCount() int {
	total := 0
	for i := range n.Primitives {
		total += len(n.Primitives[i].Vertices)
	}
	return total
}

// TriangleCount returns the total triangle count over all primitives.
func (n *Node) TriangleCount() int {
	total := 0
	for i := range n.Primitives {
		total += len(n.Primitives[i].Indices) / 3
	}
	return total
}

// Decode reads a GLB (or self-contained glTF JSON) stream.
func Decode(r io.Reader) (*Node, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding gltf: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument flattens the default scene of doc into a Node.
func FromDocument(doc *gltf.Document) (*Node, error) {
	b := &builder{
		doc: doc,
		node: &Node{
			Bounds: Bounds{
				Min: [3]float32{1e10, 1e10, 1e10},
				Max: [3]float32{-1e10, -1e10, -1e10},
			},
		},
	}

	roots, name := sceneRoots(doc)
	b.node.Name = name

	for _, idx := range roots {
		if err := b.visit(idx, math.Identity(), 0); err != nil {
			return nil, err
		}
	}

	if len(b.node.Primitives) == 0 {
		return nil, ErrNoGeometry
	}
	return b.node, nil
}

// sceneRoots returns the root node indices of the default scene. Documents
// without scenes fall back to every node that is nobody's child.
func sceneRoots(doc *gltf.Document) ([]int, string) {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes, doc.Scenes[idx].Name
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}

	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots, ""
}

type builder struct {
	doc  *gltf.Document
	node *Node
}

// maxDepth guards against cyclic hierarchies in malformed files.
const maxDepth = 64

func (b *builder) visit(idx int, parent math.Mat4, depth int) error {
	if idx < 0 || idx >= len(b.doc.Nodes) || depth > maxDepth {
		return nil
	}
	n := b.doc.Nodes[idx]
	world := parent.Mul(localMatrix(n))

	if n.Mesh != nil && *n.Mesh < len(b.doc.Meshes) {
		mesh := b.doc.Meshes[*n.Mesh]
		for _, p := range mesh.Primitives {
			if err := b.addPrimitive(p, world); err != nil {
				return fmt.Errorf("mesh %q: %w", mesh.Name, err)
			}
		}
	}

	for _, child := range n.Children {
		if err := b.visit(child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func localMatrix(n *gltf.Node) math.Mat4 {
	if m := math.FromFloat64(n.MatrixOrDefault()); !m.IsIdentity() {
		return m
	}
	t := n.TranslationOrDefault()
	s := n.ScaleOrDefault()
	return math.Compose(
		math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])},
		math.QuatFromFloat64(n.RotationOrDefault()),
		math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])},
	)
}

func (b *builder) addPrimitive(p *gltf.Primitive, world math.Mat4) error {
	if p.Mode != gltf.PrimitiveTriangles {
		return nil
	}

	posIdx, ok := p.Attributes[attrPosition]
	if !ok || posIdx >= len(b.doc.Accessors) {
		return nil
	}

	positions, err := modeler.ReadPosition(b.doc, b.doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("reading positions: %w", err)
	}
	if len(positions) == 0 {
		return nil
	}

	var normals [][3]float32
	if nIdx, ok := p.Attributes[attrNormal]; ok && nIdx < len(b.doc.Accessors) {
		normals, err = modeler.ReadNormal(b.doc, b.doc.Accessors[nIdx], nil)
		if err != nil {
			return fmt.Errorf("reading normals: %w", err)
		}
	}

	var indices []uint32
	if p.Indices != nil && *p.Indices < len(b.doc.Accessors) {
		indices, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*p.Indices], nil)
		if err != nil {
			return fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	indices = validTriangles(indices, len(positions))
	if len(indices) == 0 {
		return nil
	}

	prim := Primitive{
		Vertices: make([]Vertex, len(positions)),
		Indices:  indices,
		Color:    b.baseColor(p),
	}

	for i, pos := range positions {
		wp := world.TransformPoint(pos)
		prim.Vertices[i].Position = wp
		b.grow(wp)

		if i < len(normals) {
			prim.Vertices[i].Normal = math.V3(world.TransformDirection(normals[i])).Normalize().Array()
		}
	}
	if len(normals) < len(positions) {
		smoothNormals(prim.Vertices, prim.Indices)
	}

	b.node.Primitives = append(b.node.Primitives, prim)
	return nil
}

// baseColor returns the material's base colour factor, white when unset.
func (b *builder) baseColor(p *gltf.Primitive) [4]float32 {
	color := [4]float32{1, 1, 1, 1}
	if p.Material == nil || *p.Material >= len(b.doc.Materials) {
		return color
	}
	pbr := b.doc.Materials[*p.Material].PBRMetallicRoughness
	if pbr == nil {
		return color
	}
	f := pbr.BaseColorFactorOrDefault()
	return [4]float32{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}
}

func (b *builder) grow(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.node.Bounds.Min[i] {
			b.node.Bounds.Min[i] = p[i]
		}
		if p[i] > b.node.Bounds.Max[i] {
			b.node.Bounds.Max[i] = p[i]
		}
	}
}

// validTriangles drops trailing partial triangles and triangles that
// reference vertices out of range.
func validTriangles(indices []uint32, vertexCount int) []uint32 {
	out := indices[:0]
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= vertexCount || int(b) >= vertexCount || int(c) >= vertexCount {
			continue
		}
		out = append(out, a, b, c)
	}
	return out
}

// smoothNormals fills vertex normals by accumulating area-weighted face normals.
func smoothNormals(vertices []Vertex, indices []uint32) {
	acc := make([]math.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		p0 := math.V3(vertices[indices[i]].Position)
		p1 := math.V3(vertices[indices[i+1]].Position)
		p2 := math.V3(vertices[indices[i+2]].Position)
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, idx := range indices[i : i+3] {
			acc[idx] = acc[idx].Add(n)
		}
	}
	for i := range vertices {
		vertices[i].Normal = acc[i].Normalize().Array()
	}
}
