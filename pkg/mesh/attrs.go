package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// FlattenLoops returns per-vertex UVs, normals and colors for a mesh whose
// loops have been split with SplitByUV. Colors is nil when the mesh has no
// loop colors.
func FlattenLoops(m *Mesh) (uvs []mgl32.Vec2, normals []mgl32.Vec3, colors []mgl32.Vec4, err error) {
	nverts := len(m.Verts)
	if len(m.UVs) != len(m.Loops) || len(m.Normals) != len(m.Loops) {
		return nil, nil, nil, fmt.Errorf("%w: %d uvs, %d normals for %d loops",
			ErrShapeMismatch, len(m.UVs), len(m.Normals), len(m.Loops))
	}

	uvs = make([]mgl32.Vec2, nverts)
	normals = make([]mgl32.Vec3, nverts)
	if len(m.Colors) > 0 {
		colors = make([]mgl32.Vec4, nverts)
	}

	for i, v := range m.Loops {
		if v < 0 || v >= nverts {
			return nil, nil, nil, fmt.Errorf("%w: loop %d references vertex %d of %d",
				ErrVertexIndexOutOfRange, i, v, nverts)
		}
		uvs[v] = m.UVs[i]
		normals[v] = m.Normals[i]
		if colors != nil {
			colors[v] = m.Colors[i]
		}
	}
	return uvs, normals, colors, nil
}

// Triangles groups a flat loop list into vertex index triples.
func Triangles(loops []int) ([][3]int, error) {
	if len(loops)%3 != 0 {
		return nil, fmt.Errorf("%w: %d loops", ErrLoopCount, len(loops))
	}
	tris := make([][3]int, len(loops)/3)
	for i := range tris {
		tris[i] = [3]int{loops[i*3], loops[i*3+1], loops[i*3+2]}
	}
	return tris, nil
}

// LoopsFromTriangles is the inverse of Triangles.
func LoopsFromTriangles(tris [][3]int) []int {
	loops := make([]int, 0, len(tris)*3)
	for _, t := range tris {
		loops = append(loops, t[0], t[1], t[2])
	}
	return loops
}

// VertexUVsToLoops spreads per-vertex UVs onto loops. NIF stores V from the
// top of the texture, editors from the bottom; flipV converts between them.
func VertexUVsToLoops(loops []int, uvs []mgl32.Vec2, flipV bool) ([]mgl32.Vec2, error) {
	result := make([]mgl32.Vec2, len(loops))
	for i, v := range loops {
		if v < 0 || v >= len(uvs) {
			return nil, fmt.Errorf("%w: loop %d references vertex %d of %d",
				ErrVertexIndexOutOfRange, i, v, len(uvs))
		}
		uv := uvs[v]
		if flipV {
			uv[1] = 1 - uv[1]
		}
		result[i] = uv
	}
	return result, nil
}

// FlipV returns a copy of uvs with V mirrored.
func FlipV(uvs []mgl32.Vec2) []mgl32.Vec2 {
	result := make([]mgl32.Vec2, len(uvs))
	for i, uv := range uvs {
		result[i] = mgl32.Vec2{uv[0], 1 - uv[1]}
	}
	return result
}

// SmoothNormals computes area-weighted vertex normals for a triangle loop
// list. Degenerate triangles contribute nothing; vertices without a valid
// triangle get a zero normal.
func SmoothNormals(verts []mgl32.Vec3, loops []int) ([]mgl32.Vec3, error) {
	tris, err := Triangles(loops)
	if err != nil {
		return nil, err
	}

	normals := make([]mgl32.Vec3, len(verts))
	for i, t := range tris {
		for _, v := range t {
			if v < 0 || v >= len(verts) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d of %d",
					ErrVertexIndexOutOfRange, i, v, len(verts))
			}
		}
		e1 := verts[t[1]].Sub(verts[t[0]])
		e2 := verts[t[2]].Sub(verts[t[0]])
		n := e1.Cross(e2) // length is twice the area
		if n.Len() < 1e-12 {
			continue
		}
		for _, v := range t {
			normals[v] = normals[v].Add(n)
		}
	}

	for i, n := range normals {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		}
	}
	return normals, nil
}
