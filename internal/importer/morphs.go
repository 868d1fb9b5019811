package importer

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/scene"
)

// ImportMorphs imports a file that is either a TRIP or a TRI file. TRIP
// shapes go onto the selected objects of the same name; a TRI file goes
// onto the first selected mesh.
func (im *Importer) ImportMorphs(path string, selected []*scene.Object) (*Result, error) {
	res, tripErr := im.ImportTRIP(path, selected)
	if !errors.Is(tripErr, nif.ErrNotTRIP) {
		return res, tripErr
	}
	logger.Sugar.Debugf("%s is not a BS tri file, reading as TRI", path)

	var target *scene.Object
	for _, o := range selected {
		if o.Kind == scene.KindMesh {
			target = o
			break
		}
	}
	res, err := im.ImportTRI(path, target)
	if errors.Is(err, nif.ErrNotTRI) {
		return nil, multierr.Append(tripErr, err)
	}
	return res, err
}

// ImportTRIP adds the '>' shape keys of the TRIP file at path to the
// targets named like its shapes. Shapes with no matching target are skipped
// with a warning.
func (im *Importer) ImportTRIP(path string, targets []*scene.Object) (*Result, error) {
	trip, err := im.codec.ReadTRIP(path)
	if err != nil {
		return nil, err
	}
	for _, shape := range trip.ShapeNames() {
		o := findMesh(targets, shape)
		if o == nil {
			logger.Sugar.Warnf("BS Tri file shape does not match any selected object: %s", shape)
			im.warn(WarnNoMatch)
			continue
		}
		ensureBasis(o.Mesh)

		morphs := trip.Shapes[shape]
		for _, name := range sortedNames(morphs) {
			verts, err := mesh.ApplySparseOffsets(o.Mesh.Verts, morphs[name])
			if err != nil {
				return nil, errors.Wrapf(err, "morph %s on %s", name, o.Name)
			}
			o.Mesh.SetShapeKey(nif.TripPrefix+name, verts)
		}
		logger.Sugar.Infof("Added %d BS tri morphs to %s", len(morphs), o.Name)
	}
	return &im.result, nil
}

// ImportTRI adds the morphs of the TRI file at path as shape keys.
//
// With a target of the same vertex count the morphs are applied to it as
// offsets from the TRI base. When the counts differ and StitchMorphs is set,
// the TRI's split vertices are stitched back together; if that matches the
// target's count it is used. Otherwise a new object is built from the TRI.
func (im *Importer) ImportTRI(path string, target *scene.Object) (*Result, error) {
	tri, err := im.codec.ReadTRI(path)
	if err != nil {
		return nil, err
	}

	base := tri.Verts
	morphs := tri.Morphs

	if target != nil && target.Mesh != nil && len(target.Mesh.Verts) != len(tri.Verts) && im.opts.StitchMorphs {
		remap, count := mesh.Stitch(tri.Verts)
		if count == len(target.Mesh.Verts) {
			logger.Sugar.Infof("Stitched %d tri vertices onto %d in %s", len(tri.Verts), count, target.Name)
			if base, morphs, err = stitch(tri, remap, count); err != nil {
				return nil, errors.Wrapf(err, "stitching %s", path)
			}
		}
	}

	var o *scene.Object
	if target != nil && target.Mesh != nil && len(target.Mesh.Verts) == len(base) {
		logger.Sugar.Infof("Verts match, loading tri into existing shape %s", target.Name)
		o = target
	} else {
		if target != nil {
			logger.Sugar.Infof("%s has %d vertices, tri file %d: creating a new object",
				target.Name, vertexCount(target), len(tri.Verts))
		}
		if o, err = triObject(path, tri); err != nil {
			return nil, err
		}
		base = tri.Verts
		morphs = tri.Morphs
		im.add(o)
	}

	ensureBasis(o.Mesh)
	for _, name := range sortedNames(morphs) {
		if o.Mesh.ShapeKey(name) != nil {
			continue
		}
		verts, err := mesh.ApplyMorphOffsets(o.Mesh.Verts, base, morphs[name])
		if err != nil {
			return nil, errors.Wrapf(err, "morph %s on %s", name, o.Name)
		}
		o.Mesh.SetShapeKey(name, verts)
	}
	return &im.result, nil
}

// stitch reduces the TRI's base and morphs to the stitched vertex set.
func stitch(tri *nif.TriFile, remap []int, count int) ([]mgl32.Vec3, map[string][]mgl32.Vec3, error) {
	base, err := mesh.MergeMorph(tri.Verts, remap, count)
	if err != nil {
		return nil, nil, err
	}
	morphs := make(map[string][]mgl32.Vec3, len(tri.Morphs))
	for name, m := range tri.Morphs {
		if morphs[name], err = mesh.MergeMorph(m, remap, count); err != nil {
			return nil, nil, errors.Wrapf(err, "morph %s", name)
		}
	}
	return base, morphs, nil
}

// triObject builds a mesh object from a TRI file's base mesh.
func triObject(path string, tri *nif.TriFile) (*scene.Object, error) {
	o := scene.NewObject(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), scene.KindMesh)
	m := &scene.Mesh{
		Verts:    append([]mgl32.Vec3(nil), tri.Verts...),
		Polygons: make([][]int, len(tri.Tris)),
	}
	for i, t := range tri.Tris {
		m.Polygons[i] = []int{t[0], t[1], t[2]}
	}
	if len(tri.UVs) > 0 {
		uvs, err := mesh.VertexUVsToLoops(mesh.LoopsFromTriangles(tri.Tris), tri.UVs, true)
		if err != nil {
			return nil, errors.Wrapf(err, "reading uvs of %s", path)
		}
		m.LoopUVs = uvs
	}
	o.Mesh = m
	return o, nil
}

// ensureBasis adds a Basis key holding the current positions if the mesh
// lacks one.
func ensureBasis(m *scene.Mesh) {
	if m.ShapeKey(nif.BasisKey) == nil {
		m.ShapeKeys = append([]scene.ShapeKey{{
			Name:  nif.BasisKey,
			Verts: append([]mgl32.Vec3(nil), m.Verts...),
		}}, m.ShapeKeys...)
	}
}

func findMesh(objects []*scene.Object, name string) *scene.Object {
	for _, o := range objects {
		if o.Name == name && o.Kind == scene.KindMesh && o.Mesh != nil {
			return o
		}
	}
	return nil
}

func vertexCount(o *scene.Object) int {
	if o.Mesh == nil {
		return 0
	}
	return len(o.Mesh.Verts)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
