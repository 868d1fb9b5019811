package nif

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nifkit/pkg/mesh"
)

func TestClassifyMorphs(t *testing.T) {
	keys := []string{
		"Basis", "_Thin", "*Helper", ">Breasts", ">Butt",
		"BlinkLeft", "aah", "Nose", "Cheeks",
	}
	got := ClassifyMorphs(keys, DefaultDictionary())
	want := MorphSets{
		Expression: []string{"BlinkLeft", "aah"},
		Chargen:    []string{"Cheeks", "Nose"},
		Trip:       []string{">Breasts", ">Butt"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestClassifyMorphsEmpty(t *testing.T) {
	s := ClassifyMorphs([]string{"Basis", "_Fat"}, DefaultDictionary())
	if !s.Empty() {
		t.Errorf("expected no exported keys, got %+v", s)
	}
}

func TestExportable(t *testing.T) {
	tests := map[string]bool{
		"Basis":  false,
		"_Fat":   false,
		"*Tag":   false,
		"":       false,
		"Smile":  true,
		">Trip":  true,
		"Basis2": true,
	}
	for name, want := range tests {
		if got := Exportable(name); got != want {
			t.Errorf("Exportable(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCustomDictionary(t *testing.T) {
	d := NewMorphDictionary([]string{"Smile"})
	if !d.IsExpression("SMILE") || d.IsExpression("BlinkLeft") {
		t.Error("custom dictionary lookups wrong")
	}
}

func TestTripSetMorphs(t *testing.T) {
	base := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}}
	morphs := map[string][]mgl32.Vec3{
		"Basis":    base,
		">Breasts": {{0, 0, 0}, {1, 0, 0.5}},
		"Smile":    {{0, 1, 0}, {1, 0, 0}},
	}

	trip := NewTripFile()
	if err := trip.SetMorphs("Body", morphs, base); err != nil {
		t.Fatalf("SetMorphs: %v", err)
	}

	want := map[string]map[string][]mesh.Offset{
		"Body": {"Breasts": {{Index: 1, Delta: mgl32.Vec3{0, 0, 0.5}}}},
	}
	if !reflect.DeepEqual(trip.Shapes, want) {
		t.Errorf("got %v, want %v", trip.Shapes, want)
	}
	if got := trip.ShapeNames(); !reflect.DeepEqual(got, []string{"Body"}) {
		t.Errorf("ShapeNames: %v", got)
	}
}

func TestTripSetMorphsMismatch(t *testing.T) {
	trip := NewTripFile()
	err := trip.SetMorphs("Body", map[string][]mgl32.Vec3{">X": {{0, 0, 0}}}, make([]mgl32.Vec3, 2))
	if !errors.Is(err, mesh.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if len(trip.Shapes) != 0 {
		t.Errorf("shape stored on error: %v", trip.Shapes)
	}
}

func TestTripNoMorphs(t *testing.T) {
	trip := NewTripFile()
	if err := trip.SetMorphs("Body", map[string][]mgl32.Vec3{"Smile": nil}, nil); err != nil {
		t.Fatalf("SetMorphs: %v", err)
	}
	if len(trip.Shapes) != 0 {
		t.Errorf("shape without trip morphs was stored: %v", trip.Shapes)
	}
}

func TestTriFileMorphNames(t *testing.T) {
	tri := NewTriFile(nil, nil, nil)
	tri.Morphs["b"] = nil
	tri.Morphs["a"] = nil
	if got := tri.MorphNames(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("got %v", got)
	}
}

func TestTripMorphNames(t *testing.T) {
	trip := NewTripFile()
	trip.Shapes["Body"] = map[string][]mesh.Offset{"Waist": nil, "Belly": nil, "Hips": nil}
	if got := trip.MorphNames("Body"); !reflect.DeepEqual(got, []string{"Belly", "Hips", "Waist"}) {
		t.Errorf("MorphNames = %v", got)
	}
	if got := trip.MorphNames("Hands"); len(got) != 0 {
		t.Errorf("MorphNames of a missing shape = %v", got)
	}
}
