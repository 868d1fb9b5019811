// Package mesh converts between the face-corner mesh layout used by editors
// and the indexed-vertex layout used by NIF shapes.
//
// Editors attach UVs and normals to loops (face corners); a NIF vertex carries
// exactly one UV and one normal. SplitByUV duplicates vertices along seams so
// that every output vertex is used with a single (UV, normal) pair, and keeps
// the per-vertex arrays (bone weights, morph targets) aligned with the grown
// vertex list. WeightsByBone inverts the per-vertex weight maps into the
// per-bone lists NIF skins store.
package mesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh errors.
var (
	ErrVertexIndexOutOfRange = errors.New("vertex index out of range")
	ErrShapeMismatch         = errors.New("per-vertex array length mismatch")
	ErrLoopCount             = errors.New("loop count is not a multiple of 3")
)

// Mesh is a triangulated mesh in face-corner layout.
//
// Verts, Weights and every Morphs entry are indexed by vertex. Loops, UVs,
// Normals and Colors are indexed by loop; every 3 consecutive loops form one
// triangle.
type Mesh struct {
	Verts   []mgl32.Vec3
	Loops   []int        // Vertex index of each loop
	UVs     []mgl32.Vec2 // One per loop
	Normals []mgl32.Vec3 // One per loop
	Colors  []mgl32.Vec4 // One per loop, or empty

	Weights []VertexWeights         // One per vertex, or empty
	Morphs  map[string][]mgl32.Vec3 // Shape key name -> positions, one per vertex
}

// TriangleCount returns the number of triangles described by Loops.
func (m *Mesh) TriangleCount() int {
	return len(m.Loops) / 3
}

// MorphNames returns the morph names in sorted order.
func (m *Mesh) MorphNames() []string {
	names := make([]string, 0, len(m.Morphs))
	for name := range m.Morphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every parallel array has the length its index space
// requires and that every loop references an existing vertex.
func (m *Mesh) Validate() error {
	nverts := len(m.Verts)
	nloops := len(m.Loops)

	if nloops%3 != 0 {
		return fmt.Errorf("%w: %d loops", ErrLoopCount, nloops)
	}
	if len(m.UVs) != nloops {
		return fmt.Errorf("%w: %d uvs for %d loops", ErrShapeMismatch, len(m.UVs), nloops)
	}
	if len(m.Normals) != nloops {
		return fmt.Errorf("%w: %d normals for %d loops", ErrShapeMismatch, len(m.Normals), nloops)
	}
	if len(m.Colors) != 0 && len(m.Colors) != nloops {
		return fmt.Errorf("%w: %d colors for %d loops", ErrShapeMismatch, len(m.Colors), nloops)
	}
	if len(m.Weights) != 0 && len(m.Weights) != nverts {
		return fmt.Errorf("%w: %d weight maps for %d vertices", ErrShapeMismatch, len(m.Weights), nverts)
	}
	for _, name := range m.MorphNames() {
		if n := len(m.Morphs[name]); n != nverts {
			return fmt.Errorf("%w: morph %q has %d positions for %d vertices", ErrShapeMismatch, name, n, nverts)
		}
	}
	for i, v := range m.Loops {
		if v < 0 || v >= nverts {
			return fmt.Errorf("%w: loop %d references vertex %d of %d", ErrVertexIndexOutOfRange, i, v, nverts)
		}
	}
	return nil
}
