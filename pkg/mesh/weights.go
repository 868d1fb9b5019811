package mesh

import (
	"fmt"
	"sort"
)

// WeightEpsilon is the smallest weight that counts as an influence.
const WeightEpsilon float32 = 0.0001

// VertexWeights maps bone (vertex group) names to the weight of one vertex.
type VertexWeights map[string]float32

// Clone returns a copy of w that shares no storage with it.
func (w VertexWeights) Clone() VertexWeights {
	c := make(VertexWeights, len(w))
	for k, v := range w {
		c[k] = v
	}
	return c
}

// Max returns the largest weight in w, or 0 for an empty map.
func (w VertexWeights) Max() float32 {
	var best float32
	for _, v := range w {
		if v > best {
			best = v
		}
	}
	return best
}

// VertexWeight is one entry of a bone's weight list.
type VertexWeight struct {
	Index  int
	Weight float32
}

// BoneWeights maps bone names to their weighted vertices in ascending
// vertex order.
type BoneWeights map[string][]VertexWeight

// Bones returns the bone names in sorted order.
func (bw BoneWeights) Bones() []string {
	names := make([]string, 0, len(bw))
	for name := range bw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WeightsByBone reorganizes per-vertex weight maps into per-bone lists.
// Vertices are visited in index order, so every list comes out sorted by
// vertex index. Weights at or below WeightEpsilon are dropped, and a bone
// that only has such weights does not appear at all.
func WeightsByBone(weights []VertexWeights) BoneWeights {
	result := make(BoneWeights)
	for i, vw := range weights {
		for bone, w := range vw {
			if w <= WeightEpsilon {
				continue
			}
			result[bone] = append(result[bone], VertexWeight{Index: i, Weight: w})
		}
	}
	return result
}

// WeightsByVertex is the inverse of WeightsByBone for a mesh of count
// vertices.
func WeightsByVertex(bw BoneWeights, count int) ([]VertexWeights, error) {
	result := make([]VertexWeights, count)
	for i := range result {
		result[i] = VertexWeights{}
	}
	for _, bone := range bw.Bones() {
		for _, vw := range bw[bone] {
			if vw.Index < 0 || vw.Index >= count {
				return nil, fmt.Errorf("%w: bone %q weights vertex %d of %d",
					ErrVertexIndexOutOfRange, bone, vw.Index, count)
			}
			result[vw.Index][bone] = vw.Weight
		}
	}
	return result, nil
}

// Unweighted returns the indices of vertices whose largest weight is below
// threshold.
func Unweighted(weights []VertexWeights, threshold float32) []int {
	var result []int
	for i, vw := range weights {
		if vw.Max() < threshold {
			result = append(result, i)
		}
	}
	return result
}

// GroupsWithWeight returns the sorted names of the groups w actually
// weights.
func GroupsWithWeight(w VertexWeights) []string {
	var result []string
	for g, v := range w {
		if v > WeightEpsilon {
			result = append(result, g)
		}
	}
	sort.Strings(result)
	return result
}
