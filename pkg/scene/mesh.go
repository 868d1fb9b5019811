package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nifkit/pkg/mesh"
)

// Mesh is an editor mesh. Polygons may have any number of corners; loop
// attributes follow the polygons' corners in order.
type Mesh struct {
	Verts    []mgl32.Vec3 `yaml:"verts"`
	Polygons [][]int      `yaml:"polygons"`

	LoopUVs     []mgl32.Vec2 `yaml:"loop_uvs,omitempty"`     // V grows upward
	LoopNormals []mgl32.Vec3 `yaml:"loop_normals,omitempty"` // Custom split normals
	LoopColors  []mgl32.Vec4 `yaml:"loop_colors,omitempty"`
	LoopAlpha   []mgl32.Vec4 `yaml:"loop_alpha,omitempty"` // VERTEX_ALPHA layer, alpha in RGB

	Weights   []mesh.VertexWeights `yaml:"weights,omitempty"` // One per vertex
	ShapeKeys []ShapeKey           `yaml:"shape_keys,omitempty"`
}

// ShapeKey holds absolute vertex positions for one shape key.
type ShapeKey struct {
	Name  string       `yaml:"name"`
	Verts []mgl32.Vec3 `yaml:"verts"`
}

// LoopCount returns the number of polygon corners.
func (m *Mesh) LoopCount() int {
	n := 0
	for _, p := range m.Polygons {
		n += len(p)
	}
	return n
}

// Loops returns the polygon corners flattened in order.
func (m *Mesh) Loops() []int {
	loops := make([]int, 0, m.LoopCount())
	for _, p := range m.Polygons {
		loops = append(loops, p...)
	}
	return loops
}

// ShapeKey returns the key called name, or nil.
func (m *Mesh) ShapeKey(name string) *ShapeKey {
	for i := range m.ShapeKeys {
		if m.ShapeKeys[i].Name == name {
			return &m.ShapeKeys[i]
		}
	}
	return nil
}

// SetShapeKey replaces or appends the key called name.
func (m *Mesh) SetShapeKey(name string, verts []mgl32.Vec3) {
	if k := m.ShapeKey(name); k != nil {
		k.Verts = verts
		return
	}
	m.ShapeKeys = append(m.ShapeKeys, ShapeKey{Name: name, Verts: verts})
}

func (m *Mesh) ensureWeights() {
	for len(m.Weights) < len(m.Verts) {
		m.Weights = append(m.Weights, mesh.VertexWeights{})
	}
	for i, w := range m.Weights {
		if w == nil {
			m.Weights[i] = mesh.VertexWeights{}
		}
	}
}

// Triangulate fan-splits every polygon into triangles in place, carrying
// the loop attributes along. Polygons with fewer than 3 corners are
// dropped.
func (m *Mesh) Triangulate() error {
	nloops := m.LoopCount()
	for name, n := range map[string]int{
		"uvs":     len(m.LoopUVs),
		"normals": len(m.LoopNormals),
		"colors":  len(m.LoopColors),
		"alpha":   len(m.LoopAlpha),
	} {
		if n != 0 && n != nloops {
			return fmt.Errorf("%w: %d loop %s for %d loops", mesh.ErrShapeMismatch, n, name, nloops)
		}
	}

	var (
		polys   [][]int
		uvs     []mgl32.Vec2
		normals []mgl32.Vec3
		colors  []mgl32.Vec4
		alpha   []mgl32.Vec4
	)
	offset := 0
	for _, p := range m.Polygons {
		for i := 1; i+1 < len(p); i++ {
			corners := [3]int{0, i, i + 1}
			poly := make([]int, 3)
			for j, c := range corners {
				poly[j] = p[c]
				l := offset + c
				if len(m.LoopUVs) > 0 {
					uvs = append(uvs, m.LoopUVs[l])
				}
				if len(m.LoopNormals) > 0 {
					normals = append(normals, m.LoopNormals[l])
				}
				if len(m.LoopColors) > 0 {
					colors = append(colors, m.LoopColors[l])
				}
				if len(m.LoopAlpha) > 0 {
					alpha = append(alpha, m.LoopAlpha[l])
				}
			}
			polys = append(polys, poly)
		}
		offset += len(p)
	}

	m.Polygons = polys
	m.LoopUVs, m.LoopNormals, m.LoopColors, m.LoopAlpha = uvs, normals, colors, alpha
	return nil
}
