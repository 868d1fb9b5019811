package nif

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nifkit/pkg/mesh"
)

func TestParseGame(t *testing.T) {
	tests := []struct {
		in      string
		want    Game
		wantErr bool
	}{
		{"SKYRIM", GameSkyrim, false},
		{"skyrimse", GameSkyrimSE, false},
		{" FO4 ", GameFO4, false},
		{"FO76", GameFO76, false},
		{"Oblivion", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGame(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownGame) {
					t.Errorf("expected ErrUnknownGame, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGame: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGameKinds(t *testing.T) {
	if !GameSkyrimSE.IsSkyrim() || GameFO4.IsSkyrim() {
		t.Error("IsSkyrim wrong")
	}
	if !GameFO4.UsesSegments() || GameSkyrim.UsesSegments() {
		t.Error("UsesSegments wrong")
	}
}

func TestShaderFlags(t *testing.T) {
	var s Shader
	s.SetFlag1(ShaderFlags1ModelSpaceNormals, true)
	s.SetFlag1(ShaderFlags1Skinned, true)
	s.SetFlag2(ShaderFlags2VertexColors, true)
	if s.Flags1 != ShaderFlags1ModelSpaceNormals|ShaderFlags1Skinned {
		t.Errorf("Flags1 = %#x", s.Flags1)
	}

	s.SetFlag1(ShaderFlags1ModelSpaceNormals, false)
	s.SetFlag2(ShaderFlags2VertexColors, false)
	if s.Flags1 != ShaderFlags1Skinned || s.Flags2 != 0 {
		t.Errorf("after clear: Flags1 = %#x, Flags2 = %#x", s.Flags1, s.Flags2)
	}
}

func TestShapeValidate(t *testing.T) {
	valid := func() *Shape {
		return &Shape{
			Name:    "Body",
			Verts:   make([]mgl32.Vec3, 3),
			Tris:    [][3]int{{0, 1, 2}},
			UVs:     make([]mgl32.Vec2, 3),
			Normals: make([]mgl32.Vec3, 3),
		}
	}

	tests := []struct {
		name    string
		mutate  func(s *Shape)
		wantErr error
	}{
		{"valid", func(s *Shape) {}, nil},
		{"model space normals", func(s *Shape) { s.Normals = nil }, nil},
		{"bad tri", func(s *Shape) { s.Tris[0][2] = 3 }, mesh.ErrVertexIndexOutOfRange},
		{"short uvs", func(s *Shape) { s.UVs = s.UVs[:2] }, ErrInvalidShape},
		{"short colors", func(s *Shape) { s.Colors = make([]mgl32.Vec4, 1) }, ErrInvalidShape},
		{"partition ids", func(s *Shape) { s.PartitionTris = []int{1, 2} }, ErrInvalidShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSkinVertexWeights(t *testing.T) {
	skin := &Skin{Bones: []Bone{
		{Name: "a", Weights: []mesh.VertexWeight{{Index: 0, Weight: 0.1}, {Index: 3, Weight: 0.4}}},
		{Name: "c", Weights: []mesh.VertexWeight{{Index: 0, Weight: 0.5}}},
	}}
	got, err := skin.VertexWeights(4)
	if err != nil {
		t.Fatalf("VertexWeights: %v", err)
	}
	want := []mesh.VertexWeights{{"a": 0.1, "c": 0.5}, {}, {}, {"a": 0.4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFileLookups(t *testing.T) {
	f := NewFile(GameSkyrimSE, "out.nif")
	f.Shapes = append(f.Shapes, &Shape{Name: "Body"})
	f.StringData = append(f.StringData, ExtraData{Name: "BODYTRI", Value: "body.tri"})

	if f.Shape("Body") == nil || f.Shape("Hands") != nil {
		t.Error("Shape lookup wrong")
	}
	if v, ok := f.StringValue("BODYTRI"); !ok || v != "body.tri" {
		t.Errorf("StringValue: %q %v", v, ok)
	}
	if _, ok := f.StringValue("HDT"); ok {
		t.Error("StringValue found a missing entry")
	}
}
