// Package nif defines the in-memory form of the game files nifkit writes
// and reads: NIF shape files, TRI morph files and BodySlide TRIP files.
//
// Serialization is behind the Codec interface; see the gltfcodec
// subpackage for the implementation nifkit ships.
package nif

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/xform"
)

// NIF errors.
var (
	ErrUnknownGame  = errors.New("unknown game")
	ErrInvalidShape = errors.New("invalid shape")
	ErrNotNIF       = errors.New("not a NIF file")
	ErrNotTRI       = errors.New("not a TRI file")
	ErrNotTRIP      = errors.New("not a TRIP file")
)

// Game identifies the target game, which decides NIF version and block
// types.
type Game string

// Supported games.
const (
	GameSkyrim   Game = "SKYRIM"
	GameSkyrimSE Game = "SKYRIMSE"
	GameFO4      Game = "FO4"
	GameFO76     Game = "FO76"
	GameFO3      Game = "FO3"
)

// ParseGame parses a game name, case-insensitively.
func ParseGame(s string) (Game, error) {
	g := Game(strings.ToUpper(strings.TrimSpace(s)))
	switch g {
	case GameSkyrim, GameSkyrimSE, GameFO4, GameFO76, GameFO3:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGame, s)
}

// IsSkyrim reports whether g is either edition of Skyrim.
func (g Game) IsSkyrim() bool {
	return g == GameSkyrim || g == GameSkyrimSE
}

// UsesSegments reports whether g partitions skinned shapes with FO4-style
// segments rather than Skyrim body parts.
func (g Game) UsesSegments() bool {
	return g == GameFO4 || g == GameFO76
}

// Shader property flags nifkit sets on export.
const (
	ShaderFlags1Skinned           uint32 = 1 << 1
	ShaderFlags1ModelSpaceNormals uint32 = 1 << 12
	ShaderFlags2VertexColors      uint32 = 1 << 5
)

// ShaderType is the kind of shader property block.
type ShaderType string

// Shader property block types.
const (
	ShaderLighting ShaderType = "BSLightingShaderProperty"
	ShaderEffect   ShaderType = "BSEffectShaderProperty"
)

// Shader is a shape's shader property.
type Shader struct {
	Name     string
	Type     ShaderType
	Flags1   uint32
	Flags2   uint32
	Textures []string

	// Lighting shader values.
	Glossiness       float32
	SpecularColor    mgl32.Vec3
	SpecularStrength float32
	EmissiveColor    mgl32.Vec4
	EmissiveMult     float32
	Alpha            float32

	// Effect shader values.
	BaseColor      mgl32.Vec4
	BaseColorScale float32
	FalloffStart   float32
	FalloffStop    float32
}

// SetFlag1 sets or clears flag in Flags1.
func (s *Shader) SetFlag1(flag uint32, on bool) {
	if on {
		s.Flags1 |= flag
	} else {
		s.Flags1 &^= flag
	}
}

// SetFlag2 sets or clears flag in Flags2.
func (s *Shader) SetFlag2(flag uint32, on bool) {
	if on {
		s.Flags2 |= flag
	} else {
		s.Flags2 &^= flag
	}
}

// Shape is one triangle shape in a NIF file. Verts, UVs, Normals and
// Colors are parallel.
type Shape struct {
	Name       string
	Verts      []mgl32.Vec3
	Tris       [][3]int
	UVs        []mgl32.Vec2 // V grows downward
	Normals    []mgl32.Vec3 // nil for model-space normal maps
	Colors     []mgl32.Vec4 // nil when the shape has no vertex colors
	IsHeadPart bool

	Transform xform.Transform
	Skin      *Skin
	Shader    *Shader

	Partitions    []Partition
	PartitionTris []int // Partition ID of each triangle
	SegmentFile   string

	StringData        []ExtraData
	BehaviorGraphData []ExtraData
}

// Validate checks the shape's parallel arrays and triangle indices.
func (s *Shape) Validate() error {
	n := len(s.Verts)
	if len(s.UVs) != 0 && len(s.UVs) != n {
		return fmt.Errorf("%w: %s: %d uvs for %d verts", ErrInvalidShape, s.Name, len(s.UVs), n)
	}
	if s.Normals != nil && len(s.Normals) != n {
		return fmt.Errorf("%w: %s: %d normals for %d verts", ErrInvalidShape, s.Name, len(s.Normals), n)
	}
	if s.Colors != nil && len(s.Colors) != n {
		return fmt.Errorf("%w: %s: %d colors for %d verts", ErrInvalidShape, s.Name, len(s.Colors), n)
	}
	for i, t := range s.Tris {
		for _, v := range t {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: %s: triangle %d references vertex %d of %d",
					mesh.ErrVertexIndexOutOfRange, s.Name, i, v, n)
			}
		}
	}
	if s.PartitionTris != nil && len(s.PartitionTris) != len(s.Tris) {
		return fmt.Errorf("%w: %s: %d partition ids for %d triangles",
			ErrInvalidShape, s.Name, len(s.PartitionTris), len(s.Tris))
	}
	return nil
}

// Skin binds a shape to skeleton bones.
type Skin struct {
	// GlobalToSkin maps the skeleton's space to the shape's skin space.
	GlobalToSkin xform.Transform
	Bones        []Bone
}

// Bone is one skin bone: its skeleton-space rest transform and the vertices
// it weights, in ascending vertex order.
type Bone struct {
	Name      string
	Transform xform.Transform
	Weights   []mesh.VertexWeight
}

// VertexWeights returns the skin's weights per vertex for a shape with
// count vertices.
func (s *Skin) VertexWeights(count int) ([]mesh.VertexWeights, error) {
	bw := make(mesh.BoneWeights, len(s.Bones))
	for _, b := range s.Bones {
		bw[b.Name] = append(bw[b.Name], b.Weights...)
	}
	return mesh.WeightsByVertex(bw, count)
}

// ExtraData is a NiStringExtraData or BSBehaviorGraphExtraData entry.
type ExtraData struct {
	Name                 string
	Value                string
	ControlsBaseSkeleton bool
}

// File is a NIF file.
type File struct {
	Game              Game
	Path              string
	Shapes            []*Shape
	StringData        []ExtraData
	BehaviorGraphData []ExtraData
}

// NewFile returns an empty file for game at path.
func NewFile(game Game, path string) *File {
	return &File{Game: game, Path: path}
}

// Shape returns the shape called name, or nil.
func (f *File) Shape(name string) *Shape {
	for _, s := range f.Shapes {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// StringValue returns the value of the string extra data called name.
func (f *File) StringValue(name string) (string, bool) {
	for _, d := range f.StringData {
		if d.Name == name {
			return d.Value, true
		}
	}
	return "", false
}

// Codec reads and writes the nif package's file types.
type Codec interface {
	WriteNIF(f *File) error
	ReadNIF(path string) (*File, error)
	WriteTRI(path string, tri *TriFile) error
	ReadTRI(path string) (*TriFile, error)
	WriteTRIP(path string, trip *TripFile) error
	ReadTRIP(path string) (*TripFile, error)
}
