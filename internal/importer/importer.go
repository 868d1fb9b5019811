// Package importer reads game files back into a scene: NIF shapes become
// mesh objects with an armature, and TRI/TRIP morphs become shape keys.
package importer

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/scene"
)

// Warnings reported in Result.Warnings.
const (
	WarnNoMatch = "NO_MATCH"
)

// Options controls the import.
type Options struct {
	CreateBones  bool // Build an armature from the skin bones
	RenameBones  bool // Translate bone names with Namer
	RotateModel  bool // Turn imported objects half around Z
	StitchMorphs bool // Merge split TRI vertices back onto the target mesh
	Namer        nif.BoneNamer

	// Armature names an existing armature object to add bones to and parent
	// skinned shapes under. Empty creates a new one.
	Armature string
}

// DefaultOptions returns the options the config defaults describe.
func DefaultOptions() Options {
	return Options{
		CreateBones:  true,
		RenameBones:  true,
		StitchMorphs: true,
		Namer:        nif.IdentityNamer,
	}
}

// Result lists the objects created and the warnings raised.
type Result struct {
	Objects  []*scene.Object
	Warnings map[string]bool
}

// Importer adds objects read from files to a scene.
type Importer struct {
	scene *scene.Scene
	codec nif.Codec
	opts  Options

	result Result
}

// New returns an importer adding to sc.
func New(sc *scene.Scene, codec nif.Codec, opts Options) *Importer {
	if opts.Namer == nil {
		opts.Namer = nif.IdentityNamer
	}
	return &Importer{
		scene:  sc,
		codec:  codec,
		opts:   opts,
		result: Result{Warnings: make(map[string]bool)},
	}
}

// ImportNIF adds every shape of the NIF at path as a mesh object, skinned
// shapes parented to an armature built from their bones, plus the file's
// extra data.
func (im *Importer) ImportNIF(path string) (*Result, error) {
	f, err := im.codec.ReadNIF(path)
	if err != nil {
		return nil, err
	}
	logger.Sugar.Infof("Importing %s file %s", f.Game, path)

	var arma *scene.Object
	if im.opts.CreateBones && hasSkin(f) {
		if arma, err = im.armature(path); err != nil {
			return nil, err
		}
	}

	for _, s := range f.Shapes {
		o, err := im.importShape(s)
		if err != nil {
			return nil, errors.Wrapf(err, "importing shape %s from %s", s.Name, path)
		}
		if s.Skin != nil && arma != nil {
			im.addBones(arma, s.Skin)
			o.Parent = arma.Name
		}
		if im.opts.RotateModel {
			logger.Sugar.Infof(". . Rotating model to match the editor")
			rotate(o)
		}
		im.add(o)
		for _, x := range extraObjects(s.StringData, s.BehaviorGraphData) {
			x.Parent = o.Name
			im.add(x)
		}
	}

	for _, x := range extraObjects(f.StringData, f.BehaviorGraphData) {
		im.add(x)
	}
	return &im.result, nil
}

// armature returns the armature to add bones to, creating it when
// Options.Armature is empty or names nothing.
func (im *Importer) armature(path string) (*scene.Object, error) {
	if im.opts.Armature != "" {
		if a := im.scene.Find(im.opts.Armature); a != nil {
			if a.Kind != scene.KindArmature {
				return nil, errors.Errorf("%s is a %s, not an armature", a.Name, a.Kind)
			}
			logger.Sugar.Infof("..Parenting shapes to existing armature %s", a.Name)
			return a, nil
		}
		logger.Sugar.Warnf("Armature %s not found, creating a new one", im.opts.Armature)
	}

	name := nif.CleanFilename(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if name == "" {
		name = "Armature"
	}
	a := scene.NewObject(name, scene.KindArmature)
	a.Armature = &scene.Armature{}
	if im.opts.RotateModel {
		rotate(a)
	}
	logger.Sugar.Debugf("..Creating new armature %s for the import", name)
	im.add(a)
	return a, nil
}

// addBones adds the skin's bones to arma at their rest transforms. Bones
// already present are left alone.
func (im *Importer) addBones(arma *scene.Object, skin *nif.Skin) {
	for _, b := range skin.Bones {
		arma.Armature.AddBone(scene.Bone{
			Name:     im.boneName(b.Name),
			Head:     b.Transform.Translation,
			Rotation: b.Transform.Rotation,
		})
	}
}

func (im *Importer) boneName(nifName string) string {
	if im.opts.RenameBones {
		return im.opts.Namer.SceneName(nifName)
	}
	return nifName
}

func (im *Importer) add(o *scene.Object) {
	im.scene.Add(o)
	im.result.Objects = append(im.result.Objects, o)
}

func (im *Importer) warn(w string) {
	im.result.Warnings[w] = true
}

func hasSkin(f *nif.File) bool {
	for _, s := range f.Shapes {
		if s.Skin != nil {
			return true
		}
	}
	return false
}

// extraObjects returns one extra data object per entry.
func extraObjects(strs, behaviors []nif.ExtraData) []*scene.Object {
	var result []*scene.Object
	for _, d := range strs {
		x := scene.NewObject("NiStringExtraData", scene.KindExtra)
		x.Extra = &scene.ExtraData{Kind: scene.ExtraString, Name: d.Name, Value: d.Value}
		result = append(result, x)
	}
	for _, d := range behaviors {
		x := scene.NewObject("BSBehaviorGraphExtraData", scene.KindExtra)
		x.Extra = &scene.ExtraData{
			Kind:                 scene.ExtraBehavior,
			Name:                 d.Name,
			Value:                d.Value,
			ControlsBaseSkeleton: d.ControlsBaseSkeleton,
		}
		result = append(result, x)
	}
	return result
}
