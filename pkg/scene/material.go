package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nifkit/pkg/xform"
)

// ShaderKind selects which shader block of a Shader is in use.
type ShaderKind string

// Shader kinds.
const (
	ShaderLighting ShaderKind = "lighting"
	ShaderEffect   ShaderKind = "effect"
)

// Material is the shader assigned to a mesh object.
type Material struct {
	Name   string `yaml:"name"`
	Shader Shader `yaml:"shader"`
}

// Shader describes a NIF shader property. Exactly one of Lighting and
// Effect is set, as Kind says.
type Shader struct {
	Kind     ShaderKind `yaml:"kind"`
	Flags1   uint32     `yaml:"flags1,omitempty"`
	Flags2   uint32     `yaml:"flags2,omitempty"`
	Textures []string   `yaml:"textures,omitempty"`

	// ModelSpaceNormals is set when the normal map is in object space. Such
	// shapes carry no vertex normals.
	ModelSpaceNormals bool `yaml:"model_space_normals,omitempty"`

	Lighting *LightingShader `yaml:"lighting,omitempty"`
	Effect   *EffectShader   `yaml:"effect,omitempty"`
}

// LightingShader holds the BSLightingShaderProperty values nifkit carries.
type LightingShader struct {
	Glossiness       float32    `yaml:"glossiness"`
	SpecularColor    mgl32.Vec3 `yaml:"specular_color"`
	SpecularStrength float32    `yaml:"specular_strength"`
	EmissiveColor    mgl32.Vec4 `yaml:"emissive_color"`
	EmissiveMult     float32    `yaml:"emissive_mult"`
	Alpha            float32    `yaml:"alpha"`
}

// EffectShader holds the BSEffectShaderProperty values nifkit carries.
type EffectShader struct {
	BaseColor      mgl32.Vec4 `yaml:"base_color"`
	BaseColorScale float32    `yaml:"base_color_scale"`
	FalloffStart   float32    `yaml:"falloff_start"`
	FalloffStop    float32    `yaml:"falloff_stop"`
}

// ExtraKind is the type of an extra data object.
type ExtraKind string

// Extra data kinds.
const (
	ExtraString   ExtraKind = "string"
	ExtraBehavior ExtraKind = "behavior"
)

// ExtraData is a named string or behavior-graph value attached to a file.
type ExtraData struct {
	Kind                 ExtraKind `yaml:"kind"`
	Name                 string    `yaml:"name"`
	Value                string    `yaml:"value"`
	ControlsBaseSkeleton bool      `yaml:"controls_base_skeleton,omitempty"`
}

// Armature is a skeleton in rest pose.
type Armature struct {
	Bones []Bone `yaml:"bones"`
}

// Bone is one armature bone. Head and Rotation are in armature space.
type Bone struct {
	Name     string     `yaml:"name"`
	Parent   string     `yaml:"parent,omitempty"`
	Head     mgl32.Vec3 `yaml:"head"`
	Rotation mgl32.Mat3 `yaml:"rotation"`
}

// Transform returns the bone's armature-space rest transform.
func (b *Bone) Transform() xform.Transform {
	return xform.Transform{Translation: b.Head, Rotation: b.Rotation, Scale: 1}
}

// Bone returns the bone called name, or nil.
func (a *Armature) Bone(name string) *Bone {
	for i := range a.Bones {
		if a.Bones[i].Name == name {
			return &a.Bones[i]
		}
	}
	return nil
}

// AddBone appends a bone unless one with the same name exists.
func (a *Armature) AddBone(b Bone) {
	if a.Bone(b.Name) == nil {
		a.Bones = append(a.Bones, b)
	}
}
