package gltfcodec

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
)

// WriteNIF writes f to f.Path.
func (Codec) WriteNIF(f *nif.File) error {
	doc := newDocument(&docMeta{
		Kind:              kindNIF,
		Game:              f.Game,
		StringData:        f.StringData,
		BehaviorGraphData: f.BehaviorGraphData,
	})

	bones := make(map[string]uint32)
	for _, s := range f.Shapes {
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "writing %s", f.Path)
		}
		if len(s.Verts) == 0 {
			return errors.Wrapf(nif.ErrInvalidShape, "writing %s: shape %s has no vertices", f.Path, s.Name)
		}
		if err := writeShape(doc, s, bones); err != nil {
			return errors.Wrapf(err, "writing %s: shape %s", f.Path, s.Name)
		}
	}
	return save(doc, f.Path)
}

func writeShape(doc *gltf.Document, s *nif.Shape, bones map[string]uint32) error {
	attrs := map[string]uint32{
		gltf.POSITION: modeler.WritePosition(doc, vec3s(s.Verts)),
	}
	if len(s.UVs) > 0 {
		uvs := make([][2]float32, len(s.UVs))
		for i, uv := range s.UVs {
			uvs[i] = uv
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}
	if s.Normals != nil {
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, vec3s(s.Normals))
	}
	if s.Colors != nil {
		colors := make([][4]float32, len(s.Colors))
		for i, c := range s.Colors {
			colors[i] = c
		}
		attrs[gltf.COLOR_0] = modeler.WriteColor(doc, colors)
	}

	indices := make([]uint32, 0, len(s.Tris)*3)
	for _, t := range s.Tris {
		indices = append(indices, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}

	meta := &shapeMeta{
		IsHeadPart:        s.IsHeadPart,
		Shader:            s.Shader,
		Partitions:        s.Partitions,
		PartitionTris:     s.PartitionTris,
		SegmentFile:       s.SegmentFile,
		StringData:        s.StringData,
		BehaviorGraphData: s.BehaviorGraphData,
	}

	node := &gltf.Node{Name: s.Name}
	nodeTRS(node, s.Transform)

	if s.Skin != nil {
		joints, weights, dropped, err := influences(s.Skin, len(s.Verts))
		if err != nil {
			return err
		}
		if dropped > 0 {
			logger.Sugar.Warnf("%s: %d bone weights beyond the %d largest per vertex were dropped",
				s.Name, dropped, MaxInfluences)
		}
		attrs[gltf.JOINTS_0] = modeler.WriteJoints(doc, joints)
		attrs[gltf.WEIGHTS_0] = modeler.WriteWeights(doc, weights)

		skin := &gltf.Skin{Name: s.Name}
		for _, b := range s.Skin.Bones {
			idx, ok := bones[b.Name]
			if !ok {
				bn := &gltf.Node{Name: b.Name}
				nodeTRS(bn, b.Transform)
				doc.Nodes = append(doc.Nodes, bn)
				idx = uint32(len(doc.Nodes) - 1)
				bones[b.Name] = idx
			}
			skin.Joints = append(skin.Joints, idx)
		}
		doc.Skins = append(doc.Skins, skin)
		node.Skin = gltf.Index(uint32(len(doc.Skins) - 1))

		g2s := s.Skin.GlobalToSkin
		meta.GlobalToSkin = &g2s
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: s.Name,
		Primitives: []*gltf.Primitive{{
			Attributes: attrs,
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Mode:       gltf.PrimitiveTriangles,
		}},
		Extras: meta,
	})
	node.Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))
	doc.Nodes = append(doc.Nodes, node)
	return nil
}

// influences packs skin weights into JOINTS_0/WEIGHTS_0, keeping the
// MaxInfluences largest weights per vertex. It returns how many weights did
// not fit.
func influences(skin *nif.Skin, count int) ([][4]uint16, [][4]float32, int, error) {
	type influence struct {
		joint  uint16
		weight float32
	}
	per := make([][]influence, count)
	for j, b := range skin.Bones {
		for _, w := range b.Weights {
			if w.Index < 0 || w.Index >= count {
				return nil, nil, 0, errors.Wrapf(mesh.ErrVertexIndexOutOfRange,
					"bone %s weights vertex %d of %d", b.Name, w.Index, count)
			}
			per[w.Index] = append(per[w.Index], influence{uint16(j), w.Weight})
		}
	}

	joints := make([][4]uint16, count)
	weights := make([][4]float32, count)
	dropped := 0
	for v, infl := range per {
		sort.SliceStable(infl, func(a, b int) bool { return infl[a].weight > infl[b].weight })
		if len(infl) > MaxInfluences {
			dropped += len(infl) - MaxInfluences
			infl = infl[:MaxInfluences]
		}
		for k, in := range infl {
			joints[v][k] = in.joint
			weights[v][k] = in.weight
		}
	}
	return joints, weights, dropped, nil
}

// ReadNIF reads a file written by WriteNIF.
func (Codec) ReadNIF(path string) (*nif.File, error) {
	doc, meta, err := open(path, kindNIF, nif.ErrNotNIF)
	if err != nil {
		return nil, err
	}

	f := nif.NewFile(meta.Game, path)
	f.StringData = meta.StringData
	f.BehaviorGraphData = meta.BehaviorGraphData

	for _, node := range doc.Nodes {
		if node == nil || node.Mesh == nil {
			continue
		}
		s, err := readShape(doc, node)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s: shape %s", path, node.Name)
		}
		f.Shapes = append(f.Shapes, s)
	}
	return f, nil
}

func readShape(doc *gltf.Document, node *gltf.Node) (*nif.Shape, error) {
	if int(*node.Mesh) >= len(doc.Meshes) || doc.Meshes[*node.Mesh] == nil {
		return nil, errors.Wrapf(nif.ErrNotNIF, "mesh %d of %d", *node.Mesh, len(doc.Meshes))
	}
	m := doc.Meshes[*node.Mesh]
	if len(m.Primitives) != 1 || m.Primitives[0] == nil {
		return nil, errors.Wrapf(nif.ErrNotNIF, "expected 1 primitive, found %d", len(m.Primitives))
	}
	p := m.Primitives[0]

	s := &nif.Shape{Name: node.Name, Transform: nodeTransform(node)}

	var meta shapeMeta
	if m.Extras != nil {
		if err := decodeExtras(m.Extras, &meta); err != nil {
			return nil, err
		}
	}
	s.IsHeadPart = meta.IsHeadPart
	s.Shader = meta.Shader
	s.Partitions = meta.Partitions
	s.PartitionTris = meta.PartitionTris
	s.SegmentFile = meta.SegmentFile
	s.StringData = meta.StringData
	s.BehaviorGraphData = meta.BehaviorGraphData

	pos, err := positions(doc, p, nif.ErrNotNIF)
	if err != nil {
		return nil, errors.Wrap(err, "positions")
	}
	s.Verts = toVec3s(pos)

	if a, ok, err := attribute(doc, p, gltf.TEXCOORD_0, nif.ErrNotNIF); err != nil {
		return nil, errors.Wrap(err, "uvs")
	} else if ok {
		uvs, err := modeler.ReadTextureCoord(doc, a, nil)
		if err != nil {
			return nil, errors.Wrap(err, "uvs")
		}
		s.UVs = make([]mgl32.Vec2, len(uvs))
		for i, uv := range uvs {
			s.UVs[i] = uv
		}
	}
	if a, ok, err := attribute(doc, p, gltf.NORMAL, nif.ErrNotNIF); err != nil {
		return nil, errors.Wrap(err, "normals")
	} else if ok {
		normals, err := modeler.ReadNormal(doc, a, nil)
		if err != nil {
			return nil, errors.Wrap(err, "normals")
		}
		s.Normals = toVec3s(normals)
	}
	if a, ok, err := attribute(doc, p, gltf.COLOR_0, nif.ErrNotNIF); err != nil {
		return nil, errors.Wrap(err, "colors")
	} else if ok {
		if s.Colors, err = readColors(doc, a); err != nil {
			return nil, errors.Wrap(err, "colors")
		}
	}

	if p.Indices != nil {
		if s.Tris, err = triangles(doc, *p.Indices, len(s.Verts), nif.ErrNotNIF); err != nil {
			return nil, errors.Wrap(err, "indices")
		}
	}

	if node.Skin != nil {
		if int(*node.Skin) >= len(doc.Skins) || doc.Skins[*node.Skin] == nil {
			return nil, errors.Wrapf(nif.ErrNotNIF, "skin %d of %d", *node.Skin, len(doc.Skins))
		}
		skin, err := readSkin(doc, doc.Skins[*node.Skin], p, len(s.Verts))
		if err != nil {
			return nil, err
		}
		if meta.GlobalToSkin != nil {
			skin.GlobalToSkin = *meta.GlobalToSkin
		} else {
			skin.GlobalToSkin = s.Transform.Invert()
		}
		s.Skin = skin
	}

	return s, s.Validate()
}

// readColors reads COLOR_0 as RGBA. Float colors are kept as written;
// normalized integer colors are scaled to [0, 1].
func readColors(doc *gltf.Document, acr *gltf.Accessor) ([]mgl32.Vec4, error) {
	if acr.ComponentType == gltf.ComponentFloat {
		data, err := modeler.ReadAccessor(doc, acr, nil)
		if err != nil {
			return nil, err
		}
		switch c := data.(type) {
		case [][4]float32:
			out := make([]mgl32.Vec4, len(c))
			for i := range c {
				out[i] = c[i]
			}
			return out, nil
		case [][3]float32:
			out := make([]mgl32.Vec4, len(c))
			for i := range c {
				out[i] = mgl32.Vec4{c[i][0], c[i][1], c[i][2], 1}
			}
			return out, nil
		}
	}
	colors, err := modeler.ReadColor(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec4, len(colors))
	for i, c := range colors {
		out[i] = mgl32.Vec4{fromByte(c[0]), fromByte(c[1]), fromByte(c[2]), fromByte(c[3])}
	}
	return out, nil
}

func readSkin(doc *gltf.Document, gs *gltf.Skin, p *gltf.Primitive, count int) (*nif.Skin, error) {
	skin := &nif.Skin{Bones: make([]nif.Bone, len(gs.Joints))}
	for i, j := range gs.Joints {
		if int(j) >= len(doc.Nodes) || doc.Nodes[j] == nil {
			return nil, errors.Wrapf(nif.ErrNotNIF, "joint node %d of %d", j, len(doc.Nodes))
		}
		n := doc.Nodes[j]
		skin.Bones[i] = nif.Bone{Name: n.Name, Transform: nodeTransform(n)}
	}

	ja, jok, err := attribute(doc, p, gltf.JOINTS_0, nif.ErrNotNIF)
	if err != nil {
		return nil, errors.Wrap(err, "joints")
	}
	wa, wok, err := attribute(doc, p, gltf.WEIGHTS_0, nif.ErrNotNIF)
	if err != nil {
		return nil, errors.Wrap(err, "weights")
	}
	if !jok || !wok {
		return skin, nil
	}
	joints, err := modeler.ReadJoints(doc, ja, nil)
	if err != nil {
		return nil, errors.Wrap(err, "joints")
	}
	weights, err := modeler.ReadWeights(doc, wa, nil)
	if err != nil {
		return nil, errors.Wrap(err, "weights")
	}
	if len(joints) != count || len(weights) != count {
		return nil, errors.Wrapf(mesh.ErrShapeMismatch, "%d joints, %d weights for %d verts",
			len(joints), len(weights), count)
	}

	for v := range weights {
		for k, w := range weights[v] {
			if w <= 0 {
				continue
			}
			j := int(joints[v][k])
			if j >= len(skin.Bones) {
				return nil, errors.Wrapf(nif.ErrNotNIF, "vertex %d uses joint %d of %d", v, j, len(skin.Bones))
			}
			skin.Bones[j].Weights = append(skin.Bones[j].Weights, mesh.VertexWeight{Index: v, Weight: w})
		}
	}
	return skin, nil
}

func vec3s(v []mgl32.Vec3) [][3]float32 {
	out := make([][3]float32, len(v))
	for i := range v {
		out[i] = v[i]
	}
	return out
}

func toVec3s(v [][3]float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(v))
	for i := range v {
		out[i] = v[i]
	}
	return out
}

func fromByte(b uint8) float32 {
	return float32(b) / 255
}
