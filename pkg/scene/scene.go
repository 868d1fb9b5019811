// Package scene is the editor-side object model nifkit exports from and
// imports into: named objects holding polygon meshes with loop attributes,
// vertex groups and shape keys, armatures, materials and extra data.
//
// Scenes are stored as YAML.
package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tiendc/go-deepcopy"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/xform"
)

// Scene errors.
var (
	ErrDuplicateObject = errors.New("duplicate object name")
	ErrUnknownKind     = errors.New("unknown object kind")
	ErrMissingData     = errors.New("object has no data for its kind")
)

// Kind is the type of an object.
type Kind string

// Object kinds.
const (
	KindMesh     Kind = "mesh"
	KindArmature Kind = "armature"
	KindExtra    Kind = "extra"
)

// Scene is a flat list of objects. Parenting is by name.
type Scene struct {
	Objects []*Object `yaml:"objects"`
}

// Object is one scene object.
type Object struct {
	Name     string     `yaml:"name"`
	Kind     Kind       `yaml:"kind"`
	Parent   string     `yaml:"parent,omitempty"`
	Location mgl32.Vec3 `yaml:"location"`
	Rotation mgl32.Vec3 `yaml:"rotation"` // XYZ euler, radians
	Scale    mgl32.Vec3 `yaml:"scale"`

	Mesh     *Mesh      `yaml:"mesh,omitempty"`
	Armature *Armature  `yaml:"armature,omitempty"`
	Material *Material  `yaml:"material,omitempty"`
	Extra    *ExtraData `yaml:"extra,omitempty"`

	// VertexGroups lists group names in creation order. A group can exist
	// without any weighted vertex.
	VertexGroups []string          `yaml:"vertex_groups,omitempty"`
	Props        map[string]string `yaml:"props,omitempty"`
}

// NewObject returns an object of the given kind at the origin with unit
// scale.
func NewObject(name string, kind Kind) *Object {
	return &Object{Name: name, Kind: kind, Scale: mgl32.Vec3{1, 1, 1}}
}

// Transform returns the object's placement. Only the X component of Scale is
// used.
func (o *Object) Transform() xform.Transform {
	return xform.New(o.Location, o.Rotation, o.Scale[0])
}

// SetTransform places the object at t.
func (o *Object) SetTransform(t xform.Transform) {
	o.Location = t.Translation
	o.Rotation = t.Euler()
	o.Scale = mgl32.Vec3{t.Scale, t.Scale, t.Scale}
}

// Clone returns a deep copy of o.
func (o *Object) Clone() (*Object, error) {
	var c Object
	if err := deepcopy.Copy(&c, o); err != nil {
		return nil, fmt.Errorf("cloning %s: %w", o.Name, err)
	}
	return &c, nil
}

// Find returns the object named name, or nil.
func (s *Scene) Find(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Add appends o, renaming it with a numeric suffix if the name is taken.
func (s *Scene) Add(o *Object) {
	base := o.Name
	for i := 1; s.Find(o.Name) != nil; i++ {
		o.Name = fmt.Sprintf("%s.%03d", base, i)
	}
	s.Objects = append(s.Objects, o)
}

// Children returns the objects parented to name.
func (s *Scene) Children(name string) []*Object {
	var result []*Object
	for _, o := range s.Objects {
		if o.Parent == name {
			result = append(result, o)
		}
	}
	return result
}

// Validate checks object names and that each object carries data matching
// its kind.
func (s *Scene) Validate() error {
	seen := make(map[string]bool, len(s.Objects))
	for _, o := range s.Objects {
		if seen[o.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateObject, o.Name)
		}
		seen[o.Name] = true

		switch o.Kind {
		case KindMesh:
			if o.Mesh == nil {
				return fmt.Errorf("%w: %q", ErrMissingData, o.Name)
			}
		case KindArmature:
			if o.Armature == nil {
				return fmt.Errorf("%w: %q", ErrMissingData, o.Name)
			}
		case KindExtra:
			if o.Extra == nil {
				return fmt.Errorf("%w: %q", ErrMissingData, o.Name)
			}
		default:
			return fmt.Errorf("%w: %q on %q", ErrUnknownKind, o.Kind, o.Name)
		}
	}
	return nil
}

// Load reads a scene from a YAML file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Save writes the scene to path, creating parent directories as needed.
func (s *Scene) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// HasGroup reports whether o has a vertex group called name.
func (o *Object) HasGroup(name string) bool {
	for _, g := range o.VertexGroups {
		if g == name {
			return true
		}
	}
	return false
}

// AddToGroup weights verts to the group name, creating the group if needed.
func (o *Object) AddToGroup(name string, verts []int, weight float32) error {
	if !o.HasGroup(name) {
		o.VertexGroups = append(o.VertexGroups, name)
	}
	if o.Mesh == nil || len(verts) == 0 {
		return nil
	}
	o.Mesh.ensureWeights()
	for _, v := range verts {
		if v < 0 || v >= len(o.Mesh.Verts) {
			return fmt.Errorf("%w: group %q vertex %d of %d",
				mesh.ErrVertexIndexOutOfRange, name, v, len(o.Mesh.Verts))
		}
		o.Mesh.Weights[v][name] = weight
	}
	return nil
}

// RemoveGroup deletes the group name and its weights. Removing a missing
// group does nothing.
func (o *Object) RemoveGroup(name string) {
	for i, g := range o.VertexGroups {
		if g == name {
			o.VertexGroups = append(o.VertexGroups[:i], o.VertexGroups[i+1:]...)
			break
		}
	}
	if o.Mesh == nil {
		return
	}
	for _, w := range o.Mesh.Weights {
		delete(w, name)
	}
}
