package importer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nifkit/internal/exporter"
	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/scene"
	"github.com/Faultbox/nifkit/pkg/xform"
)

// importShape builds a mesh object from s.
func (im *Importer) importShape(s *nif.Shape) (*scene.Object, error) {
	logger.Sugar.Debugf(". Importing shape %s", s.Name)
	o := scene.NewObject(s.Name, scene.KindMesh)

	loops := mesh.LoopsFromTriangles(s.Tris)
	m := &scene.Mesh{
		Verts:    append([]mgl32.Vec3(nil), s.Verts...),
		Polygons: make([][]int, len(s.Tris)),
	}
	for i, t := range s.Tris {
		m.Polygons[i] = []int{t[0], t[1], t[2]}
	}
	o.Mesh = m

	if len(s.UVs) > 0 {
		uvs, err := mesh.VertexUVsToLoops(loops, s.UVs, true)
		if err != nil {
			return nil, err
		}
		m.LoopUVs = uvs
	}
	if s.Normals != nil {
		m.LoopNormals = make([]mgl32.Vec3, len(loops))
		for i, v := range loops {
			m.LoopNormals[i] = s.Normals[v]
		}
	}
	importColors(m, s, loops)

	if s.Skin == nil {
		logger.Sugar.Debugf(". . shape %s transform: %+v", s.Name, s.Transform)
		o.SetTransform(s.Transform)
	} else {
		// Global-to-skin offsets all vertices together; the inverse puts
		// the object where the vertices are skinned to.
		o.SetTransform(s.Skin.GlobalToSkin.Invert())
		if err := im.importBoneGroups(o, s.Skin); err != nil {
			return nil, err
		}
	}

	if err := importPartitionGroups(o, s); err != nil {
		return nil, err
	}
	if s.Shader != nil {
		o.Material = importMaterial(s.Shader)
	}
	return o, nil
}

// importColors splits vertex colors into an opaque color layer and the
// VERTEX_ALPHA layer with alpha in RGB.
func importColors(m *scene.Mesh, s *nif.Shape, loops []int) {
	if len(s.Colors) == 0 {
		return
	}
	logger.Sugar.Debugf("..Importing vertex colors for %s", s.Name)
	m.LoopColors = make([]mgl32.Vec4, len(loops))
	m.LoopAlpha = make([]mgl32.Vec4, len(loops))
	for i, v := range loops {
		c := s.Colors[v]
		m.LoopColors[i] = mgl32.Vec4{c[0], c[1], c[2], 1}
		m.LoopAlpha[i] = mgl32.Vec4{c[3], c[3], c[3], 1}
	}
}

// importBoneGroups creates one vertex group per skin bone, in skin order.
func (im *Importer) importBoneGroups(o *scene.Object, skin *nif.Skin) error {
	for _, b := range skin.Bones {
		name := im.boneName(b.Name)
		if err := o.AddToGroup(name, nil, 0); err != nil {
			return err
		}
		for _, w := range b.Weights {
			if err := o.AddToGroup(name, []int{w.Index}, w.Weight); err != nil {
				return err
			}
		}
	}
	return nil
}

// importPartitionGroups creates a vertex group per partition holding the
// vertices of its triangles.
func importPartitionGroups(o *scene.Object, s *nif.Shape) error {
	byID := make(map[int]string, len(s.Partitions))
	for _, p := range s.Partitions {
		name := nif.PartitionGroupName(p)
		logger.Sugar.Debugf("..found partition %s", name)
		byID[p.ID] = name
		if err := o.AddToGroup(name, nil, 0); err != nil {
			return err
		}
	}
	for i, id := range s.PartitionTris {
		name, ok := byID[id]
		if !ok || i >= len(s.Tris) {
			continue
		}
		t := s.Tris[i]
		if err := o.AddToGroup(name, t[:], 1); err != nil {
			return err
		}
	}
	if s.SegmentFile != "" {
		logger.Sugar.Debugf("..Putting segment file '%s' on '%s'", s.SegmentFile, o.Name)
		if o.Props == nil {
			o.Props = make(map[string]string)
		}
		o.Props[exporter.SegmentFileProp] = s.SegmentFile
	}
	return nil
}

func importMaterial(sh *nif.Shader) *scene.Material {
	src := scene.Shader{
		Kind:              scene.ShaderLighting,
		Flags1:            sh.Flags1,
		Flags2:            sh.Flags2,
		Textures:          append([]string(nil), sh.Textures...),
		ModelSpaceNormals: sh.Flags1&nif.ShaderFlags1ModelSpaceNormals != 0,
	}
	if sh.Type == nif.ShaderEffect {
		src.Kind = scene.ShaderEffect
		src.Effect = &scene.EffectShader{
			BaseColor:      sh.BaseColor,
			BaseColorScale: sh.BaseColorScale,
			FalloffStart:   sh.FalloffStart,
			FalloffStop:    sh.FalloffStop,
		}
	} else {
		src.Lighting = &scene.LightingShader{
			Glossiness:       sh.Glossiness,
			SpecularColor:    sh.SpecularColor,
			SpecularStrength: sh.SpecularStrength,
			EmissiveColor:    sh.EmissiveColor,
			EmissiveMult:     sh.EmissiveMult,
			Alpha:            sh.Alpha,
		}
	}
	return &scene.Material{Name: sh.Name, Shader: src}
}

// rotate turns o half around Z in place.
func rotate(o *scene.Object) {
	t := o.Transform()
	t.Rotation = xform.Z180.Rotation.Mul3(t.Rotation)
	o.SetTransform(t)
}
