package exporter

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/scene"
	"github.com/Faultbox/nifkit/pkg/xform"
)

// exportShape adds o to f as a shape and routes its morphs. targetKey, when
// set and present on o, replaces the base positions and suppresses morph
// export. arma is the armature to skin to, or nil.
func (e *Exporter) exportShape(f *nif.File, trip *nif.TripFile, o *scene.Object, targetKey string, arma *scene.Object) error {
	logger.Sugar.Infof("Exporting %s", o.Name)
	skinned := arma != nil

	o.RemoveGroup(GroupUnweighted)
	o.RemoveGroup(GroupMultiplePartitions)
	o.RemoveGroup(GroupNoPartitions)

	var unweighted []int
	if skinned {
		unweighted = mesh.Unweighted(o.Mesh.Weights, unweightedThreshold)
		if len(o.Mesh.Weights) < len(o.Mesh.Verts) {
			for v := len(o.Mesh.Weights); v < len(o.Mesh.Verts); v++ {
				unweighted = append(unweighted, v)
			}
		}
	}

	work, err := o.Clone()
	if err != nil {
		return err
	}
	if err := e.applyScale(work); err != nil {
		return err
	}

	m, err := e.extractMesh(work, targetKey)
	if err != nil {
		return err
	}
	split, err := mesh.SplitByUV(m, e.opts.Split)
	if err != nil {
		return err
	}
	if split.Split > 0 {
		logger.Sugar.Debugf("..Split %d vertices along UV seams", split.Split)
	}

	uvs, normals, colors, err := mesh.FlattenLoops(m)
	if err != nil {
		return err
	}
	tris, err := mesh.Triangles(m.Loops)
	if err != nil {
		return err
	}

	s := &nif.Shape{
		Name:    o.Name,
		Verts:   m.Verts,
		Tris:    tris,
		UVs:     mesh.FlipV(uvs),
		Normals: normals,
		Colors:  colors,
	}
	if len(o.Mesh.ShapeKeys) > 0 {
		s.IsHeadPart = len(nif.ClassifyMorphs(shapeKeyNames(o.Mesh), e.opts.Dictionary).Expression) > 0
	}

	msn := e.exportShader(s, o, skinned)
	if msn {
		s.Normals = nil
	}
	e.exportShapeData(s, o)

	t := work.Transform()
	s.Transform = t
	if skinned {
		if err := e.exportSkin(s, m, arma, t); err != nil {
			return err
		}
		if len(unweighted) > 0 {
			if err := o.AddToGroup(GroupUnweighted, unweighted, 1); err != nil {
				return err
			}
			logger.Sugar.Warnf("Some vertices are not weighted to the armature in object %s", o.Name)
			e.warn(WarnUnweighted)
		}
		if err := e.exportPartitions(s, o, m, tris, split.Origin); err != nil {
			return err
		}
	} else {
		logger.Sugar.Debugf("...Exporting %s with transform %+v", s.Name, t)
	}

	f.Shapes = append(f.Shapes, s)

	if err := e.exportTris(f.Path, trip, o, s, m.Morphs); err != nil {
		return err
	}
	logger.Sugar.Infof("..%s successfully exported to %s", o.Name, f.Path)
	return nil
}

// applyScale bakes a non-uniform object scale into the mesh.
func (e *Exporter) applyScale(o *scene.Object) error {
	if _, ok := xform.Uniform(o.Scale); ok {
		return nil
	}
	logger.Sugar.Warnf("Object %s scale not uniform, applying before export", o.Name)
	e.warn(WarnScale)

	sc := o.Scale
	scale := func(v mgl32.Vec3) mgl32.Vec3 {
		return mgl32.Vec3{v[0] * sc[0], v[1] * sc[1], v[2] * sc[2]}
	}
	for i, v := range o.Mesh.Verts {
		o.Mesh.Verts[i] = scale(v)
	}
	for k := range o.Mesh.ShapeKeys {
		for i, v := range o.Mesh.ShapeKeys[k].Verts {
			o.Mesh.ShapeKeys[k].Verts[i] = scale(v)
		}
	}
	for i, n := range o.Mesh.LoopNormals {
		if sc[0] == 0 || sc[1] == 0 || sc[2] == 0 {
			return errors.Errorf("object %s has zero scale", o.Name)
		}
		n = mgl32.Vec3{n[0] / sc[0], n[1] / sc[1], n[2] / sc[2]}
		if n.Len() > 0 {
			n = n.Normalize()
		}
		o.Mesh.LoopNormals[i] = n
	}
	o.Scale = mgl32.Vec3{1, 1, 1}
	return nil
}

// extractMesh triangulates o's mesh and lays it out for splitting.
func (e *Exporter) extractMesh(o *scene.Object, targetKey string) (*mesh.Mesh, error) {
	sm := o.Mesh
	if err := sm.Triangulate(); err != nil {
		return nil, err
	}
	loops := sm.Loops()

	verts := sm.Verts
	var morphs map[string][]mgl32.Vec3
	if k := sm.ShapeKey(targetKey); targetKey != "" && k != nil {
		logger.Sugar.Debugf("....exporting shape %s only", targetKey)
		verts = k.Verts
	} else if targetKey == "" && len(sm.ShapeKeys) > 0 {
		morphs = make(map[string][]mgl32.Vec3, len(sm.ShapeKeys))
		for _, k := range sm.ShapeKeys {
			morphs[k.Name] = k.Verts
		}
	}

	uvs := sm.LoopUVs
	if len(uvs) == 0 {
		logger.Sugar.Warnf("%s has no UV map", o.Name)
		uvs = make([]mgl32.Vec2, len(loops))
	}

	var normals []mgl32.Vec3
	if e.opts.UseLoopNormals && len(sm.LoopNormals) == len(loops) && len(loops) > 0 {
		normals = sm.LoopNormals
	} else {
		vn, err := mesh.SmoothNormals(verts, loops)
		if err != nil {
			return nil, err
		}
		normals = make([]mgl32.Vec3, len(loops))
		for i, v := range loops {
			normals[i] = vn[v]
		}
	}

	var colors []mgl32.Vec4
	if e.opts.WriteColors {
		colors = loopColors(sm)
	}

	weights := sm.Weights
	if n := len(weights); n > 0 && n < len(verts) {
		weights = append(weights, make([]mesh.VertexWeights, len(verts)-n)...)
	}

	return &mesh.Mesh{
		Verts:   verts,
		Loops:   loops,
		UVs:     uvs,
		Normals: normals,
		Colors:  colors,
		Weights: weights,
		Morphs:  morphs,
	}, nil
}

// loopColors returns the mesh's loop colors with the VERTEX_ALPHA layer
// folded into alpha, or nil when it has neither.
func loopColors(sm *scene.Mesh) []mgl32.Vec4 {
	n := len(sm.LoopColors)
	if n == 0 {
		n = len(sm.LoopAlpha)
	}
	if n == 0 {
		return nil
	}
	colors := make([]mgl32.Vec4, n)
	for i := range colors {
		c := mgl32.Vec4{1, 1, 1, 1}
		if len(sm.LoopColors) > 0 {
			c = sm.LoopColors[i]
		}
		if len(sm.LoopAlpha) > 0 {
			a := sm.LoopAlpha[i]
			c[3] = (a[0] + a[1] + a[2]) / 3
		}
		colors[i] = c
	}
	return colors
}

// exportShader builds the shape's shader from o's material and reports
// whether it uses model space normals.
func (e *Exporter) exportShader(s *nif.Shape, o *scene.Object, skinned bool) bool {
	if o.Material == nil {
		logger.Sugar.Debugf("..No material on %s", o.Name)
		return false
	}
	src := o.Material.Shader
	sh := &nif.Shader{
		Name:     o.Material.Name,
		Type:     nif.ShaderLighting,
		Flags1:   src.Flags1,
		Flags2:   src.Flags2,
		Textures: append([]string(nil), src.Textures...),
	}
	switch {
	case src.Kind == scene.ShaderEffect && src.Effect != nil:
		sh.Type = nif.ShaderEffect
		sh.BaseColor = src.Effect.BaseColor
		sh.BaseColorScale = src.Effect.BaseColorScale
		sh.FalloffStart = src.Effect.FalloffStart
		sh.FalloffStop = src.Effect.FalloffStop
	case src.Lighting != nil:
		sh.Glossiness = src.Lighting.Glossiness
		sh.SpecularColor = src.Lighting.SpecularColor
		sh.SpecularStrength = src.Lighting.SpecularStrength
		sh.EmissiveColor = src.Lighting.EmissiveColor
		sh.EmissiveMult = src.Lighting.EmissiveMult
		sh.Alpha = src.Lighting.Alpha
	}

	if len(sh.Textures) == 0 || sh.Textures[0] == "" {
		logger.Sugar.Warnf("%s has a material but no diffuse texture", o.Name)
		e.warn(WarnTexture)
	}

	sh.SetFlag1(nif.ShaderFlags1ModelSpaceNormals, src.ModelSpaceNormals)
	sh.SetFlag2(nif.ShaderFlags2VertexColors, s.Colors != nil)
	if skinned {
		sh.SetFlag1(nif.ShaderFlags1Skinned, true)
	}
	s.Shader = sh
	logger.Sugar.Debugf("....%s has textures: %v", s.Name, sh.Textures)
	return src.ModelSpaceNormals
}

// exportShapeData attaches the extra data objects parented to o.
func (e *Exporter) exportShapeData(s *nif.Shape, o *scene.Object) {
	if e.scene == nil {
		return
	}
	for _, x := range e.scene.Children(o.Name) {
		if x.Kind != scene.KindExtra || x.Extra == nil {
			continue
		}
		d := nif.ExtraData{Name: x.Extra.Name, Value: x.Extra.Value, ControlsBaseSkeleton: x.Extra.ControlsBaseSkeleton}
		if x.Extra.Kind == scene.ExtraBehavior {
			s.BehaviorGraphData = append(s.BehaviorGraphData, d)
		} else {
			s.StringData = append(s.StringData, d)
		}
	}
}

func shapeKeyNames(m *scene.Mesh) []string {
	names := make([]string, len(m.ShapeKeys))
	for i, k := range m.ShapeKeys {
		names[i] = k.Name
	}
	return names
}
