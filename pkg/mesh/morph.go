package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Offset is a sparse morph entry: the displacement of one vertex.
type Offset struct {
	Index int
	Delta mgl32.Vec3
}

// ApplyMorphOffsets applies an absolute morph that was authored against
// base onto target: each result vertex is target + (morph - base). This lets
// a morph stored for one mesh drive another mesh with the same topology.
func ApplyMorphOffsets(target, base, morph []mgl32.Vec3) ([]mgl32.Vec3, error) {
	if len(base) != len(target) || len(morph) != len(target) {
		return nil, fmt.Errorf("%w: target %d, base %d, morph %d",
			ErrShapeMismatch, len(target), len(base), len(morph))
	}
	result := make([]mgl32.Vec3, len(target))
	for i := range target {
		result[i] = target[i].Add(morph[i].Sub(base[i]))
	}
	return result, nil
}

// SparseOffsets returns the non-zero displacements from base to morph.
func SparseOffsets(base, morph []mgl32.Vec3) ([]Offset, error) {
	if len(base) != len(morph) {
		return nil, fmt.Errorf("%w: base %d, morph %d", ErrShapeMismatch, len(base), len(morph))
	}
	var result []Offset
	for i := range base {
		d := morph[i].Sub(base[i])
		if d != (mgl32.Vec3{}) {
			result = append(result, Offset{Index: i, Delta: d})
		}
	}
	return result, nil
}

// ApplySparseOffsets returns a copy of base with offsets added.
func ApplySparseOffsets(base []mgl32.Vec3, offsets []Offset) ([]mgl32.Vec3, error) {
	result := make([]mgl32.Vec3, len(base))
	copy(result, base)
	for _, o := range offsets {
		if o.Index < 0 || o.Index >= len(base) {
			return nil, fmt.Errorf("%w: offset for vertex %d of %d",
				ErrVertexIndexOutOfRange, o.Index, len(base))
		}
		result[o.Index] = result[o.Index].Add(o.Delta)
	}
	return result, nil
}

// Stitch is the inverse of SplitByUV for positions: every vertex is mapped
// to the first vertex with an identical position. It returns, for each input
// vertex, its index in the stitched vertex set, and the stitched count.
//
// Because SplitByUV keeps original indices and appends duplicates, stitching
// a split mesh maps vertex i to i for every original vertex. Vertices that
// were already coincident before splitting are merged too.
func Stitch(verts []mgl32.Vec3) (remap []int, count int) {
	remap = make([]int, len(verts))
	first := make(map[mgl32.Vec3]int, len(verts))
	for i, v := range verts {
		if j, ok := first[v]; ok {
			remap[i] = j
			continue
		}
		first[v] = count
		remap[i] = count
		count++
	}
	return remap, count
}

// MergeMorph reduces a morph over a split vertex set to the stitched set
// described by remap and count. The first vertex mapped to each stitched
// index supplies its position.
func MergeMorph(morph []mgl32.Vec3, remap []int, count int) ([]mgl32.Vec3, error) {
	if len(morph) != len(remap) {
		return nil, fmt.Errorf("%w: morph %d, remap %d", ErrShapeMismatch, len(morph), len(remap))
	}
	result := make([]mgl32.Vec3, count)
	seen := make([]bool, count)
	for i, j := range remap {
		if j < 0 || j >= count {
			return nil, fmt.Errorf("%w: remap %d -> %d of %d", ErrVertexIndexOutOfRange, i, j, count)
		}
		if seen[j] {
			continue
		}
		seen[j] = true
		result[j] = morph[i]
	}
	return result, nil
}
