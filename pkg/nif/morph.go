package nif

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nifkit/pkg/mesh"
)

// Morph name prefixes.
const (
	// TripPrefix marks a shape key exported to the BodySlide TRIP file.
	TripPrefix = ">"
	// BasisKey is the editor's rest shape key.
	BasisKey = "Basis"
)

// TriFile is a TRI morph file: a base mesh and absolute morph positions.
type TriFile struct {
	Verts  []mgl32.Vec3
	Tris   [][3]int
	UVs    []mgl32.Vec2
	Morphs map[string][]mgl32.Vec3
}

// NewTriFile returns a TRI file with the given base mesh and no morphs.
func NewTriFile(verts []mgl32.Vec3, tris [][3]int, uvs []mgl32.Vec2) *TriFile {
	return &TriFile{Verts: verts, Tris: tris, UVs: uvs, Morphs: make(map[string][]mgl32.Vec3)}
}

// MorphNames returns the morph names sorted.
func (t *TriFile) MorphNames() []string {
	return sortedKeys(t.Morphs)
}

// TripFile is a BodySlide TRIP file: sparse morph offsets per shape.
type TripFile struct {
	Shapes map[string]map[string][]mesh.Offset
}

// NewTripFile returns an empty TRIP file.
func NewTripFile() *TripFile {
	return &TripFile{Shapes: make(map[string]map[string][]mesh.Offset)}
}

// SetMorphs stores the TRIP morphs of shape. Only keys with TripPrefix are
// used; the prefix is dropped from the stored name.
func (t *TripFile) SetMorphs(shape string, morphs map[string][]mgl32.Vec3, base []mgl32.Vec3) error {
	for _, name := range sortedKeys(morphs) {
		if !strings.HasPrefix(name, TripPrefix) {
			continue
		}
		offsets, err := mesh.SparseOffsets(base, morphs[name])
		if err != nil {
			return fmt.Errorf("trip morph %s on %s: %w", name, shape, err)
		}
		if t.Shapes[shape] == nil {
			t.Shapes[shape] = make(map[string][]mesh.Offset)
		}
		t.Shapes[shape][strings.TrimPrefix(name, TripPrefix)] = offsets
	}
	return nil
}

// ShapeNames returns the shape names sorted.
func (t *TripFile) ShapeNames() []string {
	return sortedKeys(t.Shapes)
}

// MorphNames returns the morph names of shape sorted.
func (t *TripFile) MorphNames(shape string) []string {
	return sortedKeys(t.Shapes[shape])
}

// DefaultExpressions are the face expression morph names the game's
// facial animation drives.
var DefaultExpressions = []string{
	"Aah", "BigAah", "BlinkLeft", "BlinkRight", "BMP",
	"BrowDownLeft", "BrowDownRight", "BrowInLeft", "BrowInRight",
	"BrowUpLeft", "BrowUpRight", "ChJSh", "DST", "Eee", "Eh", "FV", "I", "K",
	"LookDown", "LookLeft", "LookRight", "LookUp", "N", "Oh", "OohQ", "R",
	"SquintLeft", "SquintRight", "Th", "W",
	"CombatAnger", "CombatShout",
	"DialogueAnger", "DialogueDisgusted", "DialogueFear", "DialogueHappy",
	"DialoguePuzzled", "DialogueSad", "DialogueSurprise",
	"MoodAnger", "MoodDisgusted", "MoodFear", "MoodHappy",
	"MoodPuzzled", "MoodSad", "MoodSurprise",
}

// MorphDictionary decides which shape keys are expression morphs.
type MorphDictionary struct {
	expressions map[string]bool
}

// NewMorphDictionary builds a dictionary from expression names.
// Matching is case-insensitive.
func NewMorphDictionary(expressions []string) *MorphDictionary {
	d := &MorphDictionary{expressions: make(map[string]bool, len(expressions))}
	for _, e := range expressions {
		d.expressions[strings.ToLower(e)] = true
	}
	return d
}

// DefaultDictionary returns the dictionary for DefaultExpressions.
func DefaultDictionary() *MorphDictionary {
	return NewMorphDictionary(DefaultExpressions)
}

// IsExpression reports whether name is an expression morph.
func (d *MorphDictionary) IsExpression(name string) bool {
	return d.expressions[strings.ToLower(name)]
}

// MorphSets is the routing of one shape's keys to output files.
type MorphSets struct {
	Expression []string // Written to <base>.tri
	Chargen    []string // Written to <base>_chargen.tri
	Trip       []string // Written to the TRIP file, prefix kept
}

// Empty reports whether no key is exported.
func (s MorphSets) Empty() bool {
	return len(s.Expression) == 0 && len(s.Chargen) == 0 && len(s.Trip) == 0
}

// Exportable reports whether a shape key is written anywhere. Keys starting
// with '_' select file variants and keys starting with '*' are editor-only.
func Exportable(name string) bool {
	return name != "" && name[0] != '_' && name[0] != '*' && name != BasisKey
}

// ClassifyMorphs routes shape keys: TRIP keys by prefix, expressions by
// dictionary, the remaining exportable keys to chargen. Each set is sorted.
func ClassifyMorphs(keys []string, dict *MorphDictionary) MorphSets {
	var s MorphSets
	for _, k := range keys {
		switch {
		case strings.HasPrefix(k, TripPrefix):
			s.Trip = append(s.Trip, k)
		case !Exportable(k):
		case dict.IsExpression(k):
			s.Expression = append(s.Expression, k)
		default:
			s.Chargen = append(s.Chargen, k)
		}
	}
	sort.Strings(s.Expression)
	sort.Strings(s.Chargen)
	sort.Strings(s.Trip)
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
