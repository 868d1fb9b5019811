package mesh

import (
	"fmt"
	"sort"
)

// AssignPartitions assigns each triangle to a body partition. A triangle
// belongs to a partition when all three of its vertices are weighted to the
// partition's vertex group. ids maps group names to partition ids.
//
// Triangulation can put a triangle in more than one partition; the group
// that sorts first wins. Triangles with no partition get id 0 and are
// returned in unassigned.
func AssignPartitions(tris [][3]int, weights []VertexWeights, ids map[string]int) (triIDs []int, unassigned []int, err error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Strings(names)

	triIDs = make([]int, len(tris))
	for i, t := range tris {
		for _, v := range t {
			if v < 0 || v >= len(weights) {
				return nil, nil, fmt.Errorf("%w: triangle %d references vertex %d of %d",
					ErrVertexIndexOutOfRange, i, v, len(weights))
			}
		}

		found := false
		for _, name := range names {
			if inGroup(weights[t[0]], name) && inGroup(weights[t[1]], name) && inGroup(weights[t[2]], name) {
				triIDs[i] = ids[name]
				found = true
				break
			}
		}
		if !found {
			unassigned = append(unassigned, i)
		}
	}
	return triIDs, unassigned, nil
}

func inGroup(w VertexWeights, group string) bool {
	return w[group] > WeightEpsilon
}
