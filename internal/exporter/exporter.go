// Package exporter writes scene objects to game files: one NIF per file
// variant, plus the TRI and TRIP morph files that go with it.
package exporter

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/scene"
)

// Vertex groups the exporter creates to show the user what went wrong.
// They are removed again at the start of every export.
const (
	GroupUnweighted         = "*UNWEIGHTED_VERTICES*"
	GroupMultiplePartitions = "*MULTIPLE_PARTITIONS*"
	GroupNoPartitions       = "*NO_PARTITIONS*"
)

// Warnings reported in Result.Warnings.
const (
	WarnScale       = "SCALE"
	WarnUnweighted  = "UNWEIGHTED"
	WarnNoPartition = "NO_PARTITION"
	WarnMorphs      = "MORPHS"
	WarnTexture     = "TEXTURE"
)

// Extra data names with special meaning.
const (
	BodyTriName     = "BODYTRI"
	SegmentFileProp = "FO4_SEGMENT_FILE"
)

// FaceBonesSuffix is appended to file names written for the FO4 face
// bones armature.
const FaceBonesSuffix = "_faceBones"

// unweightedThreshold is the largest weight a vertex can have and still
// count as unweighted.
const unweightedThreshold float32 = 0.0001

// ErrNothingToExport is returned by Export when no object was added.
var ErrNothingToExport = errors.New("nothing to export")

// Options controls the export.
type Options struct {
	Split          mesh.SplitOptions
	UseLoopNormals bool // Use custom loop normals when the mesh has them
	WriteColors    bool
	Dictionary     *nif.MorphDictionary
	Namer          nif.BoneNamer
}

// DefaultOptions returns exact seam splitting with custom normals, colors
// and the default expression dictionary.
func DefaultOptions() Options {
	return Options{
		UseLoopNormals: true,
		WriteColors:    true,
		Dictionary:     nif.DefaultDictionary(),
		Namer:          nif.IdentityNamer,
	}
}

// Result lists the files written and the warnings raised.
type Result struct {
	Files    []string
	Warnings map[string]bool
}

// Exporter collects objects and writes them out.
type Exporter struct {
	path  string
	game  nif.Game
	codec nif.Codec
	opts  Options

	scene     *scene.Scene
	meshes    []*scene.Object
	extras    []*scene.Object
	armature  *scene.Object
	facebones *scene.Object
	fileKeys  []string

	result Result
}

// New returns an exporter writing to path for game.
func New(path string, game nif.Game, codec nif.Codec, opts Options) *Exporter {
	if opts.Dictionary == nil {
		opts.Dictionary = nif.DefaultDictionary()
	}
	if opts.Namer == nil {
		opts.Namer = nif.IdentityNamer
	}
	return &Exporter{
		path:   path,
		game:   game,
		codec:  codec,
		opts:   opts,
		result: Result{Warnings: make(map[string]bool)},
	}
}

// SetObjects adds every object in objects. sc is used to resolve parents.
func (e *Exporter) SetObjects(sc *scene.Scene, objects []*scene.Object) {
	for _, o := range objects {
		e.AddObject(sc, o)
	}
}

// AddObject adds o to the export. A mesh parented to an armature brings the
// armature along. Extra data parented to an exported mesh is written with
// that mesh's shape instead of at file level.
func (e *Exporter) AddObject(sc *scene.Scene, o *scene.Object) {
	e.scene = sc
	switch o.Kind {
	case scene.KindArmature:
		if e.game == nif.GameFO4 && isFaceBones(o) && e.facebones == nil {
			e.facebones = o
		}
		if e.armature == nil {
			e.armature = o
		}

	case scene.KindMesh:
		if contains(e.meshes, o) {
			return
		}
		e.meshes = append(e.meshes, o)
		if p := sc.Find(o.Parent); p != nil && p.Kind == scene.KindArmature {
			e.AddObject(sc, p)
		}
		e.fileKeys = fileKeys(e.meshes)

	case scene.KindExtra:
		if !contains(e.extras, o) {
			e.extras = append(e.extras, o)
		}
	}

	kept := e.extras[:0]
	for _, x := range e.extras {
		if p := sc.Find(x.Parent); p != nil && contains(e.meshes, p) {
			continue
		}
		kept = append(kept, x)
	}
	e.extras = kept
}

// Export writes every file. With a face bones armature a second file set
// with FaceBonesSuffix is written for it.
func (e *Exporter) Export() (*Result, error) {
	if len(e.meshes) == 0 && len(e.extras) == 0 {
		return nil, ErrNothingToExport
	}
	logger.Sugar.Debugf("Exporting %d meshes, %d extra data objects, armature %v, face bones %v",
		len(e.meshes), len(e.extras), objectName(e.armature), objectName(e.facebones))

	if e.facebones != nil {
		if err := e.exportFileSet(e.facebones, FaceBonesSuffix); err != nil {
			return nil, err
		}
	}
	if e.armature != nil || e.facebones == nil {
		if err := e.exportFileSet(e.armature, ""); err != nil {
			return nil, err
		}
	}
	return &e.result, nil
}

// exportFileSet writes one NIF per file key, each with its TRIP file.
func (e *Exporter) exportFileSet(arma *scene.Object, suffix string) error {
	keys := e.fileKeys
	if len(keys) == 0 {
		keys = []string{""}
	}

	ext := filepath.Ext(e.path)
	base := strings.TrimSuffix(e.path, ext)
	for _, key := range keys {
		fbasename := base + key + suffix
		path := fbasename + ext
		logger.Sugar.Infof("Exporting to %s %s", e.game, path)

		f := nif.NewFile(e.game, path)
		bodyTriWritten := e.exportExtraData(f)

		trip := nif.NewTripFile()
		tripPath := fbasename + ".tri"

		for _, o := range e.meshes {
			if err := e.exportShape(f, trip, o, key, arma); err != nil {
				return errors.Wrapf(err, "exporting %s to %s", o.Name, path)
			}
		}

		if len(trip.Shapes) > 0 && e.written(tripPath) {
			logger.Sugar.Warnf("%s already holds expression morphs, writing BS tri shapes to %s_trip.tri",
				tripPath, fbasename)
			tripPath = fbasename + "_trip.tri"
			e.warn(WarnMorphs)
		}
		if len(trip.Shapes) > 0 && !bodyTriWritten {
			f.StringData = append(f.StringData, nif.ExtraData{
				Name:  BodyTriName,
				Value: nif.TruncatePath(tripPath, "meshes"),
			})
		}

		if err := e.codec.WriteNIF(f); err != nil {
			return err
		}
		e.result.Files = append(e.result.Files, path)
		logger.Sugar.Infof("Wrote %s", path)

		if len(trip.Shapes) > 0 {
			if err := e.codec.WriteTRIP(tripPath, trip); err != nil {
				return err
			}
			e.result.Files = append(e.result.Files, tripPath)
			logger.Sugar.Infof("Wrote %s", tripPath)
		}
	}
	return nil
}

// exportExtraData adds the file-level extra data and reports whether a
// BODYTRI entry was among it.
func (e *Exporter) exportExtraData(f *nif.File) bool {
	bodyTri := false
	for _, x := range e.extras {
		d := nif.ExtraData{Name: x.Extra.Name, Value: x.Extra.Value, ControlsBaseSkeleton: x.Extra.ControlsBaseSkeleton}
		switch x.Extra.Kind {
		case scene.ExtraBehavior:
			f.BehaviorGraphData = append(f.BehaviorGraphData, d)
		default:
			f.StringData = append(f.StringData, d)
			if d.Name == BodyTriName {
				bodyTri = true
			}
		}
	}
	return bodyTri
}

func (e *Exporter) written(path string) bool {
	for _, f := range e.result.Files {
		if f == path {
			return true
		}
	}
	return false
}

func (e *Exporter) warn(w string) {
	e.result.Warnings[w] = true
}

// isFaceBones reports whether an armature is the FO4 face rig.
func isFaceBones(arma *scene.Object) bool {
	if arma.Armature == nil {
		return false
	}
	n := 0
	for _, b := range arma.Armature.Bones {
		if strings.HasPrefix(b.Name, "skin_bone_") {
			n++
		}
	}
	return n > 5
}

// fileKeys returns the sorted '_' shape keys found on any of the objects.
func fileKeys(objects []*scene.Object) []string {
	seen := make(map[string]bool)
	for _, o := range objects {
		if o.Mesh == nil {
			continue
		}
		for _, k := range o.Mesh.ShapeKeys {
			if strings.HasPrefix(k.Name, "_") {
				seen[k.Name] = true
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []*scene.Object, o *scene.Object) bool {
	for _, x := range list {
		if x == o {
			return true
		}
	}
	return false
}

func objectName(o *scene.Object) string {
	if o == nil {
		return "none"
	}
	return o.Name
}
