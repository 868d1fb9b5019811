package main

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/nifkit/internal/config"
	"github.com/Faultbox/nifkit/internal/exporter"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/nif/gltfcodec"
	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/scene"
	"github.com/Faultbox/nifkit/pkg/xform"
)

func testScene() *scene.Scene {
	sc := &scene.Scene{}
	for _, name := range []string{"Body", "Hands"} {
		o := scene.NewObject(name, scene.KindMesh)
		o.Mesh = &scene.Mesh{
			Verts:    []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Polygons: [][]int{{0, 1, 2}},
		}
		sc.Add(o)
	}
	x := scene.NewObject("Note", scene.KindExtra)
	x.Extra = &scene.ExtraData{Kind: scene.ExtraString, Name: "Note", Value: "x"}
	sc.Add(x)
	return sc
}

func TestSelectObjects(t *testing.T) {
	sc := testScene()
	tests := []struct {
		names   string
		want    []string
		wantErr bool
	}{
		{"", []string{"Body", "Hands"}, false},
		{"Hands", []string{"Hands"}, false},
		{"Hands, Body", []string{"Hands", "Body"}, false},
		{"Feet", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.names, func(t *testing.T) {
			got, err := selectObjects(sc, tt.names)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d objects, want %v", len(got), tt.want)
			}
			for i, o := range got {
				if o.Name != tt.want[i] {
					t.Errorf("object %d = %s, want %s", i, o.Name, tt.want[i])
				}
			}
		})
	}
}

func TestReadAny(t *testing.T) {
	dir := t.TempDir()
	sc := testScene()
	body := sc.Find("Body")
	body.Mesh.SetShapeKey(nif.BasisKey, body.Mesh.Verts)
	body.Mesh.SetShapeKey("Aah", []mgl32.Vec3{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}})
	hands := sc.Find("Hands")
	hands.Mesh.SetShapeKey(">Grip", []mgl32.Vec3{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}})

	for _, step := range []struct {
		path string
		obj  *scene.Object
	}{
		{filepath.Join(dir, "head.gltf"), body},
		{filepath.Join(dir, "hands.glb"), hands},
	} {
		e := exporter.New(step.path, nif.GameSkyrimSE, gltfcodec.New(), exportOptions(config.Default()))
		e.AddObject(sc, step.obj)
		if _, err := e.Export(); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		file string
		want string
	}{
		{"head.gltf", "*nif.File"},
		{"hands.glb", "*nif.File"},
		{"head.tri", "*nif.TriFile"},
		{"hands.tri", "*nif.TripFile"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			v, err := readAny(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatal(err)
			}
			var got string
			switch v.(type) {
			case *nif.File:
				got = "*nif.File"
			case *nif.TriFile:
				got = "*nif.TriFile"
			case *nif.TripFile:
				got = "*nif.TripFile"
			}
			if got != tt.want {
				t.Errorf("read %T, want %s", v, tt.want)
			}
		})
	}
}

func TestExportOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Export.UVTolerance = 0.5
	cfg.Export.WriteColors = false

	opts := exportOptions(cfg)
	if opts.Split.UVTolerance != 0.5 || opts.Split.NormalTolerance != 0 {
		t.Errorf("Split = %+v", opts.Split)
	}
	if opts.WriteColors || !opts.UseLoopNormals {
		t.Errorf("opts = %+v", opts)
	}

	imp := importOptions(cfg)
	if !imp.CreateBones || !imp.StitchMorphs || imp.RotateModel {
		t.Errorf("import options = %+v", imp)
	}
}

func TestReadAnyMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.gltf")
	doc := gltf.NewDocument()
	doc.Extras = map[string]any{"nifkit": "nif"}
	doc.Nodes = []*gltf.Node{{Name: "Body", Mesh: gltf.Index(7)}}
	if err := gltf.Save(doc, path); err != nil {
		t.Fatal(err)
	}

	_, err := readAny(path)
	if !errors.Is(err, nif.ErrNotNIF) || !errors.Is(err, nif.ErrNotTRI) {
		t.Fatalf("readAny error = %v", err)
	}
	if !strings.Contains(err.Error(), "mesh 7 of 0") {
		t.Errorf("error %q does not say what was wrong with the NIF", err)
	}
}

func TestPrintInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.gltf")
	f := nif.NewFile(nif.GameSkyrimSE, path)
	tri := [][3]int{{0, 1, 2}}
	verts := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	f.Shapes = []*nif.Shape{
		{
			Name:  "Moved",
			Verts: verts,
			Tris:  tri,
			Transform: xform.Transform{
				Translation: mgl32.Vec3{0, 0, 120},
				Rotation:    xform.FromEuler(0, 0, math.Pi/2),
				Scale:       1,
			},
		},
		{Name: "Static", Verts: verts, Tris: tri, Transform: xform.Identity()},
	}
	if err := gltfcodec.New().WriteNIF(f); err != nil {
		t.Fatal(err)
	}
	v, err := readAny(path)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printInfo(&buf, path, v)
	out := buf.String()
	if !strings.Contains(out, "Shapes: 2") {
		t.Errorf("missing shape count:\n%s", out)
	}
	if n := strings.Count(out, "transform:"); n != 1 {
		t.Errorf("got %d transform lines, want 1 for the moved shape:\n%s", n, out)
	}
	if !strings.Contains(out, "loc (0, 0, 120)") || !strings.Contains(out, "deg scale 1") {
		t.Errorf("transform not printed:\n%s", out)
	}
}

func TestPrintVertexGroups(t *testing.T) {
	o := scene.NewObject("Body", scene.KindMesh)
	o.Mesh = &scene.Mesh{
		Verts: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}},
		Weights: []mesh.VertexWeights{
			{"NPC Spine": 0.75, "NPC Pelvis": 0.25, "Ghost": 0.00001},
			{},
		},
	}

	tests := []struct {
		vertex  int
		want    string
		wantErr bool
	}{
		{0, "NPC Pelvis 0.2500\nNPC Spine 0.7500\n", false},
		{1, "", false},
		{2, "", true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		err := printVertexGroups(&buf, o, tt.vertex)
		if (err != nil) != tt.wantErr {
			t.Errorf("vertex %d: error = %v, wantErr %v", tt.vertex, err, tt.wantErr)
		}
		if buf.String() != tt.want {
			t.Errorf("vertex %d: got %q, want %q", tt.vertex, buf.String(), tt.want)
		}
	}
}
