package mesh

import (
	"errors"
	"reflect"
	"testing"
)

func TestWeightsByBone(t *testing.T) {
	weights := []VertexWeights{
		{"a": 0.1, "c": 0.5},
		{"b": 0.2},
		{"d": 0.0, "b": 0.6},
		{"a": 0.4},
	}

	got := WeightsByBone(weights)
	want := BoneWeights{
		"a": {{0, 0.1}, {3, 0.4}},
		"b": {{1, 0.2}, {2, 0.6}},
		"c": {{0, 0.5}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WeightsByBone:\n got %v\nwant %v", got, want)
	}
	if _, ok := got["d"]; ok {
		t.Error("bone with only zero weights should be absent")
	}
}

func TestWeightsByBone_Epsilon(t *testing.T) {
	tests := []struct {
		name   string
		weight float32
		kept   bool
	}{
		{"zero", 0, false},
		{"below", 0.00005, false},
		{"equal", WeightEpsilon, false},
		{"above", 0.0002, true},
		{"full", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightsByBone([]VertexWeights{{"Spine": tt.weight}})
			_, ok := got["Spine"]
			if ok != tt.kept {
				t.Errorf("weight %v kept=%v, want %v", tt.weight, ok, tt.kept)
			}
		})
	}
}

func TestWeightsByBone_Empty(t *testing.T) {
	if got := WeightsByBone(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if got := WeightsByBone([]VertexWeights{{}, {}}); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestWeightsByBone_SortedByVertex(t *testing.T) {
	weights := make([]VertexWeights, 50)
	for i := range weights {
		weights[i] = VertexWeights{"Spine": 0.5, "Pelvis": float32(i%3) * 0.25}
	}

	for bone, list := range WeightsByBone(weights) {
		for i := 1; i < len(list); i++ {
			if list[i-1].Index >= list[i].Index {
				t.Fatalf("bone %s: index %d follows %d", bone, list[i].Index, list[i-1].Index)
			}
		}
	}
}

func TestWeightsByVertex(t *testing.T) {
	bw := BoneWeights{
		"a": {{0, 0.1}, {3, 0.4}},
		"b": {{1, 0.2}, {2, 0.6}},
	}

	got, err := WeightsByVertex(bw, 5)
	if err != nil {
		t.Fatalf("WeightsByVertex: %v", err)
	}
	want := []VertexWeights{{"a": 0.1}, {"b": 0.2}, {"b": 0.6}, {"a": 0.4}, {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := WeightsByVertex(bw, 3); !errors.Is(err, ErrVertexIndexOutOfRange) {
		t.Errorf("expected ErrVertexIndexOutOfRange, got %v", err)
	}
}

func TestUnweighted(t *testing.T) {
	weights := []VertexWeights{
		{"a": 1},
		{},
		{"a": 0.00001, "b": 0.00002},
		{"b": 0.3},
	}
	got := Unweighted(weights, WeightEpsilon)
	want := []int{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGroupsWithWeight(t *testing.T) {
	got := GroupsWithWeight(VertexWeights{"z": 0.5, "a": 0.2, "m": 0})
	want := []string{"a", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
