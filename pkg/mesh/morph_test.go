package mesh

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestApplyMorphOffsets(t *testing.T) {
	base := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}}
	morph := []mgl32.Vec3{{0, 0, 1}, {1, 0, 0}}
	target := []mgl32.Vec3{{5, 5, 5}, {6, 5, 5}}

	got, err := ApplyMorphOffsets(target, base, morph)
	if err != nil {
		t.Fatalf("ApplyMorphOffsets: %v", err)
	}
	want := []mgl32.Vec3{{5, 5, 6}, {6, 5, 5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := ApplyMorphOffsets(target, base, morph[:1]); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSparseOffsets(t *testing.T) {
	base := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	morph := []mgl32.Vec3{{0, 0, 0}, {1, 0, 2}, {0, 1, 0}}

	offsets, err := SparseOffsets(base, morph)
	if err != nil {
		t.Fatalf("SparseOffsets: %v", err)
	}
	want := []Offset{{Index: 1, Delta: mgl32.Vec3{0, 0, 2}}}
	if !reflect.DeepEqual(offsets, want) {
		t.Errorf("got %v, want %v", offsets, want)
	}

	back, err := ApplySparseOffsets(base, offsets)
	if err != nil {
		t.Fatalf("ApplySparseOffsets: %v", err)
	}
	if !reflect.DeepEqual(back, morph) {
		t.Errorf("applied offsets: got %v, want %v", back, morph)
	}
	if base[1] != (mgl32.Vec3{1, 0, 0}) {
		t.Error("ApplySparseOffsets modified base")
	}
}

func TestApplySparseOffsets_OutOfRange(t *testing.T) {
	base := []mgl32.Vec3{{0, 0, 0}}
	_, err := ApplySparseOffsets(base, []Offset{{Index: 3}})
	if !errors.Is(err, ErrVertexIndexOutOfRange) {
		t.Errorf("expected ErrVertexIndexOutOfRange, got %v", err)
	}
}

func TestStitchUndoesSplit(t *testing.T) {
	m := makeQuad(true)
	orig := append([]mgl32.Vec3(nil), m.Morphs["Fat"]...)

	res, err := SplitByUV(m, SplitOptions{})
	if err != nil {
		t.Fatalf("SplitByUV: %v", err)
	}

	remap, count := Stitch(m.Verts)
	if count != 4 {
		t.Fatalf("stitched count: got %d, want 4", count)
	}
	for i, j := range remap {
		if j != res.Origin[i] {
			t.Errorf("vertex %d stitched to %d, origin is %d", i, j, res.Origin[i])
		}
	}

	merged, err := MergeMorph(m.Morphs["Fat"], remap, count)
	if err != nil {
		t.Fatalf("MergeMorph: %v", err)
	}
	if !reflect.DeepEqual(merged, orig) {
		t.Errorf("merged morph: got %v, want %v", merged, orig)
	}
}

func TestMergeMorph_Errors(t *testing.T) {
	morph := []mgl32.Vec3{{0, 0, 0}, {1, 1, 1}}
	if _, err := MergeMorph(morph, []int{0}, 1); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := MergeMorph(morph, []int{0, 4}, 2); !errors.Is(err, ErrVertexIndexOutOfRange) {
		t.Errorf("expected ErrVertexIndexOutOfRange, got %v", err)
	}
}
