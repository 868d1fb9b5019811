package exporter

import (
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/scene"
)

// exportTris writes the TRI files for s next to nifPath and adds its TRIP
// morphs to trip. Expression morphs go to <base>.tri and the remaining
// exportable keys to <base>_chargen.tri. Face bones files get no TRI.
func (e *Exporter) exportTris(nifPath string, trip *nif.TripFile, o *scene.Object, s *nif.Shape, morphs map[string][]mgl32.Vec3) error {
	if len(morphs) == 0 {
		return nil
	}
	base := strings.TrimSuffix(nifPath, filepath.Ext(nifPath))
	if strings.HasSuffix(base, FaceBonesSuffix) {
		return nil
	}

	keys := make([]string, 0, len(morphs))
	for k := range morphs {
		keys = append(keys, k)
	}
	sets := nif.ClassifyMorphs(keys, e.opts.Dictionary)
	if sets.Empty() {
		logger.Sugar.Debugf("....No exportable morphs on %s", o.Name)
		return nil
	}

	if len(sets.Expression) > 0 && len(sets.Trip) > 0 {
		logger.Sugar.Warnf("Found both expression morphs and BS tri morphs in shape %s. May be an error.", o.Name)
		e.warn(WarnMorphs)
	}

	if len(sets.Expression) > 0 {
		logger.Sugar.Debugf("....Exporting expressions %v", sets.Expression)
		if err := e.writeTri(base+".tri", s, morphs, sets.Expression); err != nil {
			return err
		}
	}
	if len(sets.Chargen) > 0 {
		logger.Sugar.Debugf("....Exporting chargen morphs %v", sets.Chargen)
		if err := e.writeTri(base+"_chargen.tri", s, morphs, sets.Chargen); err != nil {
			return err
		}
	}
	if len(sets.Trip) > 0 {
		logger.Sugar.Infof("Generating BS tri shapes for %s", s.Name)
		if err := trip.SetMorphs(s.Name, morphs, s.Verts); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeTri(path string, s *nif.Shape, morphs map[string][]mgl32.Vec3, names []string) error {
	tri := nif.NewTriFile(s.Verts, s.Tris, s.UVs)
	for _, n := range names {
		tri.Morphs[n] = morphs[n]
	}
	logger.Sugar.Infof("Generating tri file %s", path)
	if err := e.codec.WriteTRI(path, tri); err != nil {
		return err
	}
	e.result.Files = append(e.result.Files, path)
	return nil
}
