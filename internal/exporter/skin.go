package exporter

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/scene"
	"github.com/Faultbox/nifkit/pkg/xform"
)

// exportSkin binds s to the armature bones that weight it. Bones are taken
// in armature order and only when they weight at least one vertex.
func (e *Exporter) exportSkin(s *nif.Shape, m *mesh.Mesh, arma *scene.Object, t xform.Transform) error {
	if arma.Armature == nil {
		return errors.Errorf("armature %s has no bones", arma.Name)
	}
	logger.Sugar.Infof("..Parent is armature, skin the mesh")

	s.Skin = &nif.Skin{GlobalToSkin: t.Invert()}
	byBone := mesh.WeightsByBone(m.Weights)
	for _, b := range arma.Armature.Bones {
		weights := byBone[b.Name]
		if len(weights) == 0 {
			continue
		}
		name := e.opts.Namer.NifName(b.Name)
		s.Skin.Bones = append(s.Skin.Bones, nif.Bone{
			Name:      name,
			Transform: b.Transform(),
			Weights:   weights,
		})
		logger.Sugar.Debugf("....Adding bone %s", name)
	}
	return nil
}

// exportPartitions assigns the shape's triangles to the partitions named by
// o's vertex groups. Triangles in no partition are tagged on o with
// GroupNoPartitions, using o's own vertex indices.
func (e *Exporter) exportPartitions(s *nif.Shape, o *scene.Object, m *mesh.Mesh, tris [][3]int, origin []int) error {
	var groups []string
	for _, g := range o.VertexGroups {
		_, sky := nif.SkyPartitionID(g)
		if sky != e.game.UsesSegments() {
			groups = append(groups, g)
		}
	}
	parts := nif.PartitionsFromGroups(groups)
	if len(parts) == 0 {
		return nil
	}
	logger.Sugar.Debugf("....Found partitions %v", nif.PartitionIDs(parts))

	ids, unassigned, err := mesh.AssignPartitions(tris, m.Weights, nif.PartitionIDs(parts))
	if err != nil {
		return err
	}
	if len(unassigned) > 0 {
		seen := make(map[int]bool)
		var verts []int
		for _, i := range unassigned {
			for _, v := range tris[i] {
				if ov := origin[v]; !seen[ov] {
					seen[ov] = true
					verts = append(verts, ov)
				}
			}
		}
		logger.Sugar.Warnf("%d triangles of %s are not assigned any partition", len(unassigned), o.Name)
		if err := o.AddToGroup(GroupNoPartitions, verts, 1); err != nil {
			return err
		}
		e.warn(WarnNoPartition)
	}

	if sf, ok := o.Props[SegmentFileProp]; ok {
		logger.Sugar.Debugf("....Writing segment file %s", sf)
		s.SegmentFile = sf
	}
	s.Partitions = parts
	s.PartitionTris = ids
	return nil
}
