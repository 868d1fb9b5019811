package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/floats/scalar"
)

// SplitOptions controls how two loops of the same vertex are compared.
// With zero tolerances the comparison is exact, so UVs that differ only in
// the last bit stay split.
type SplitOptions struct {
	UVTolerance     float64
	NormalTolerance float64
}

// SplitResult describes the vertex set produced by SplitByUV.
type SplitResult struct {
	VertexCount int   // Vertex count after splitting
	Origin      []int // Original index of each output vertex
	Split       int   // Number of vertices appended
}

// usage is one distinct (UV, normal) pair seen on a vertex.
type usage struct {
	uv     mgl32.Vec2
	normal mgl32.Vec3
	index  int // Output vertex index
}

// SplitByUV splits the vertices of m so that every vertex is used with a
// single UV and a single normal.
//
// The first (UV, normal) pair seen on a vertex keeps the original index.
// Every further distinct pair gets a vertex appended after the existing
// ones, allocated in ascending original-vertex order. Loops are rewritten to
// the new indices and Verts, Weights and Morphs are extended with copies of
// the origin vertex's data. Vertices used by no loop are left as they are.
//
// m is validated before anything is modified; on error it is unchanged.
func SplitByUV(m *Mesh, opts SplitOptions) (*SplitResult, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	nverts := len(m.Verts)
	if len(m.Weights) == 0 {
		m.Weights = make([]VertexWeights, nverts)
		for i := range m.Weights {
			m.Weights[i] = VertexWeights{}
		}
	}

	// Group loop usages per vertex in loop order.
	usages := make([][]usage, nverts)
	loopUsage := make([]int, len(m.Loops))
	for i, v := range m.Loops {
		uv, normal := m.UVs[i], m.Normals[i]
		k := -1
		for j := range usages[v] {
			if opts.same(&usages[v][j], uv, normal) {
				k = j
				break
			}
		}
		if k < 0 {
			k = len(usages[v])
			usages[v] = append(usages[v], usage{uv: uv, normal: normal, index: v})
		}
		loopUsage[i] = k
	}

	origin := make([]int, nverts, nverts+len(m.Loops)/3)
	for i := range origin {
		origin[i] = i
	}
	for v := range usages {
		for j := 1; j < len(usages[v]); j++ {
			usages[v][j].index = len(origin)
			origin = append(origin, v)
		}
	}

	for i, v := range m.Loops {
		m.Loops[i] = usages[v][loopUsage[i]].index
	}

	for _, src := range origin[nverts:] {
		m.Verts = append(m.Verts, m.Verts[src])
		m.Weights = append(m.Weights, m.Weights[src].Clone())
	}
	for name, positions := range m.Morphs {
		for _, src := range origin[nverts:] {
			positions = append(positions, positions[src])
		}
		m.Morphs[name] = positions
	}

	return &SplitResult{
		VertexCount: len(origin),
		Origin:      origin,
		Split:       len(origin) - nverts,
	}, nil
}

func (o SplitOptions) same(u *usage, uv mgl32.Vec2, normal mgl32.Vec3) bool {
	if o.UVTolerance <= 0 && o.NormalTolerance <= 0 {
		return u.uv == uv && u.normal == normal
	}
	return within(u.uv[:], uv[:], o.UVTolerance) && within(u.normal[:], normal[:], o.NormalTolerance)
}

// within compares a and b component-wise; tol <= 0 means exact.
func within(a, b []float32, tol float64) bool {
	for i := range a {
		if tol <= 0 {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		if !scalar.EqualWithinAbs(float64(a[i]), float64(b[i]), tol) {
			return false
		}
	}
	return true
}
