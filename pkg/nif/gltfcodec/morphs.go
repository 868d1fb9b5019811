package gltfcodec

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
)

// WriteTRI writes tri as a single mesh whose morph targets hold each
// morph's displacement from the base.
func (Codec) WriteTRI(path string, tri *nif.TriFile) error {
	if len(tri.Verts) == 0 {
		return errors.Wrapf(mesh.ErrShapeMismatch, "writing %s: no base vertices", path)
	}
	if len(tri.UVs) != 0 && len(tri.UVs) != len(tri.Verts) {
		return errors.Wrapf(mesh.ErrShapeMismatch, "writing %s: %d uvs for %d verts",
			path, len(tri.UVs), len(tri.Verts))
	}

	doc := newDocument(&docMeta{Kind: kindTRI})
	attrs := map[string]uint32{
		gltf.POSITION: modeler.WritePosition(doc, vec3s(tri.Verts)),
	}
	if len(tri.UVs) > 0 {
		uvs := make([][2]float32, len(tri.UVs))
		for i, uv := range tri.UVs {
			uvs[i] = uv
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}

	prim := &gltf.Primitive{Attributes: attrs, Mode: gltf.PrimitiveTriangles}
	if len(tri.Tris) > 0 {
		indices := make([]uint32, 0, len(tri.Tris)*3)
		for _, t := range tri.Tris {
			for _, v := range t {
				if v < 0 || v >= len(tri.Verts) {
					return errors.Wrapf(mesh.ErrVertexIndexOutOfRange,
						"writing %s: vertex %d of %d", path, v, len(tri.Verts))
				}
				indices = append(indices, uint32(v))
			}
		}
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, indices))
	}

	meta := &shapeMeta{}
	for _, name := range tri.MorphNames() {
		d, err := deltas(tri.Verts, tri.Morphs[name])
		if err != nil {
			return errors.Wrapf(err, "writing %s: morph %s", path, name)
		}
		prim.Targets = append(prim.Targets, map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, d),
		})
		meta.TargetNames = append(meta.TargetNames, name)
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name:       "TRI",
		Primitives: []*gltf.Primitive{prim},
		Extras:     meta,
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "TRI", Mesh: gltf.Index(0)})
	return save(doc, path)
}

// ReadTRI reads a file written by WriteTRI. Morphs come back as absolute
// positions.
func (Codec) ReadTRI(path string) (*nif.TriFile, error) {
	doc, _, err := open(path, kindTRI, nif.ErrNotTRI)
	if err != nil {
		return nil, err
	}
	if len(doc.Meshes) != 1 || doc.Meshes[0] == nil || len(doc.Meshes[0].Primitives) != 1 || doc.Meshes[0].Primitives[0] == nil {
		return nil, errors.Wrapf(nif.ErrNotTRI, "%s: expected one mesh", path)
	}
	m := doc.Meshes[0]
	p := m.Primitives[0]

	pos, err := positions(doc, p, nif.ErrNotTRI)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	tri := nif.NewTriFile(toVec3s(pos), nil, nil)

	if a, ok, err := attribute(doc, p, gltf.TEXCOORD_0, nif.ErrNotTRI); err != nil {
		return nil, errors.Wrapf(err, "reading %s: uvs", path)
	} else if ok {
		uvs, err := modeler.ReadTextureCoord(doc, a, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		tri.UVs = make([]mgl32.Vec2, len(uvs))
		for i, uv := range uvs {
			tri.UVs[i] = uv
		}
	}
	if p.Indices != nil {
		if tri.Tris, err = triangles(doc, *p.Indices, len(tri.Verts), nif.ErrNotTRI); err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
	}

	var meta shapeMeta
	if m.Extras != nil {
		if err := decodeExtras(m.Extras, &meta); err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
	}
	if len(meta.TargetNames) != len(p.Targets) {
		return nil, errors.Wrapf(nif.ErrNotTRI, "%s: %d target names for %d targets",
			path, len(meta.TargetNames), len(p.Targets))
	}
	for i, target := range p.Targets {
		name := meta.TargetNames[i]
		ti, ok := target[gltf.POSITION]
		if !ok {
			return nil, errors.Wrapf(nif.ErrNotTRI, "%s: morph %s has no positions", path, name)
		}
		acr, err := accessorAt(doc, ti, nif.ErrNotTRI)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s: morph %s", path, name)
		}
		d, err := modeler.ReadPosition(doc, acr, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s: morph %s", path, name)
		}
		if len(d) != len(tri.Verts) {
			return nil, errors.Wrapf(mesh.ErrShapeMismatch, "reading %s: morph %s has %d verts",
				path, name, len(d))
		}
		morph := make([]mgl32.Vec3, len(d))
		for v := range d {
			morph[v] = tri.Verts[v].Add(d[v])
		}
		tri.Morphs[name] = morph
	}
	return tri, nil
}

func deltas(base, morph []mgl32.Vec3) ([][3]float32, error) {
	if len(base) != len(morph) {
		return nil, errors.Wrapf(mesh.ErrShapeMismatch, "base %d, morph %d", len(base), len(morph))
	}
	out := make([][3]float32, len(base))
	for i := range base {
		out[i] = morph[i].Sub(base[i])
	}
	return out, nil
}

// WriteTRIP writes trip. The file has no meshes; each morph is an index
// accessor and an offset accessor named in the top-level extras.
func (Codec) WriteTRIP(path string, trip *nif.TripFile) error {
	meta := &docMeta{Kind: kindTRIP, Trip: make(map[string]map[string]tripMorph)}
	doc := newDocument(meta)

	for _, shape := range trip.ShapeNames() {
		morphs := trip.Shapes[shape]
		meta.Trip[shape] = make(map[string]tripMorph, len(morphs))
		for _, name := range trip.MorphNames(shape) {
			offsets := morphs[name]
			var tm tripMorph
			if len(offsets) > 0 {
				indices := make([]uint32, len(offsets))
				moves := make([][3]float32, len(offsets))
				for i, o := range offsets {
					if o.Index < 0 {
						return errors.Wrapf(mesh.ErrVertexIndexOutOfRange,
							"writing %s: %s/%s offset for vertex %d", path, shape, name, o.Index)
					}
					indices[i] = uint32(o.Index)
					moves[i] = o.Delta
				}
				tm.Indices = gltf.Index(modeler.WriteIndices(doc, indices))
				tm.Offsets = gltf.Index(modeler.WritePosition(doc, moves))
			}
			meta.Trip[shape][name] = tm
		}
	}
	return save(doc, path)
}

// ReadTRIP reads a file written by WriteTRIP.
func (Codec) ReadTRIP(path string) (*nif.TripFile, error) {
	doc, meta, err := open(path, kindTRIP, nif.ErrNotTRIP)
	if err != nil {
		return nil, err
	}

	trip := nif.NewTripFile()
	for shape, morphs := range meta.Trip {
		trip.Shapes[shape] = make(map[string][]mesh.Offset, len(morphs))
		for name, tm := range morphs {
			if tm.Indices == nil || tm.Offsets == nil {
				trip.Shapes[shape][name] = nil
				continue
			}
			ia, err := accessorAt(doc, *tm.Indices, nif.ErrNotTRIP)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s: %s/%s", path, shape, name)
			}
			oa, err := accessorAt(doc, *tm.Offsets, nif.ErrNotTRIP)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s: %s/%s", path, shape, name)
			}
			indices, err := modeler.ReadIndices(doc, ia, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s: %s/%s", path, shape, name)
			}
			moves, err := modeler.ReadPosition(doc, oa, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s: %s/%s", path, shape, name)
			}
			if len(indices) != len(moves) {
				return nil, errors.Wrapf(nif.ErrNotTRIP, "%s: %s/%s has %d indices and %d offsets",
					path, shape, name, len(indices), len(moves))
			}
			offsets := make([]mesh.Offset, len(indices))
			for i := range indices {
				offsets[i] = mesh.Offset{Index: int(indices[i]), Delta: moves[i]}
			}
			trip.Shapes[shape][name] = offsets
		}
	}
	return trip, nil
}
