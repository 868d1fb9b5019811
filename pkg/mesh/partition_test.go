package mesh

import (
	"errors"
	"reflect"
	"testing"
)

func TestAssignPartitions(t *testing.T) {
	tris := [][3]int{{0, 1, 2}, {1, 2, 3}, {2, 3, 4}}
	weights := []VertexWeights{
		{"SBP_32_BODY": 1},
		{"SBP_32_BODY": 1, "SBP_34_FOREARMS": 1},
		{"SBP_32_BODY": 1, "SBP_34_FOREARMS": 1},
		{"SBP_34_FOREARMS": 1},
		{},
	}
	ids := map[string]int{"SBP_32_BODY": 32, "SBP_34_FOREARMS": 34}

	got, unassigned, err := AssignPartitions(tris, weights, ids)
	if err != nil {
		t.Fatalf("AssignPartitions: %v", err)
	}
	if want := []int{32, 34, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids: got %v, want %v", got, want)
	}
	if want := []int{2}; !reflect.DeepEqual(unassigned, want) {
		t.Errorf("unassigned: got %v, want %v", unassigned, want)
	}
}

func TestAssignPartitions_FirstGroupWins(t *testing.T) {
	tris := [][3]int{{0, 1, 2}}
	all := VertexWeights{"B": 1, "A": 1}
	weights := []VertexWeights{all, all, all}

	got, _, err := AssignPartitions(tris, weights, map[string]int{"A": 1, "B": 2})
	if err != nil {
		t.Fatalf("AssignPartitions: %v", err)
	}
	if got[0] != 1 {
		t.Errorf("got partition %d, want 1", got[0])
	}
}

func TestAssignPartitions_NoPartitions(t *testing.T) {
	got, unassigned, err := AssignPartitions([][3]int{{0, 1, 2}}, nil, nil)
	if err != nil || got != nil || unassigned != nil {
		t.Errorf("got %v %v %v, want all nil", got, unassigned, err)
	}
}

func TestAssignPartitions_OutOfRange(t *testing.T) {
	_, _, err := AssignPartitions([][3]int{{0, 1, 5}}, make([]VertexWeights, 3), map[string]int{"A": 1})
	if !errors.Is(err, ErrVertexIndexOutOfRange) {
		t.Errorf("expected ErrVertexIndexOutOfRange, got %v", err)
	}
}
