// Package gltfcodec stores nif files as glTF 2.0 documents.
//
// Shapes become meshes with POSITION, NORMAL, TEXCOORD_0 and COLOR_0
// attributes. Skinned shapes get a glTF skin whose joints are nodes named
// after the bones and placed at the bones' skeleton-space transforms.
// Everything glTF has no slot for travels in extras. TRI morphs are morph
// targets; TRIP offsets are pairs of index and delta accessors.
//
// Vertex colors are stored as float RGBA so they survive repeated round
// trips; 8-bit normalized colors from other writers are read too.
//
// Paths ending in .glb are written as binary glTF; anything else is written
// as JSON with embedded buffers. Readers reject documents whose indices do
// not resolve with the ErrNot* sentinel of the expected kind.
package gltfcodec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/xform"
)

// MaxInfluences is the number of bone weights glTF keeps per vertex.
const MaxInfluences = 4

// Document kinds stored in the top-level extras.
const (
	kindNIF  = "nif"
	kindTRI  = "tri"
	kindTRIP = "trip"
)

// Codec implements nif.Codec on top of glTF.
type Codec struct{}

var _ nif.Codec = Codec{}

// New returns a glTF codec.
func New() Codec {
	return Codec{}
}

// docMeta is the top-level extras object.
type docMeta struct {
	Kind              string                          `json:"nifkit"`
	Game              nif.Game                        `json:"game,omitempty"`
	StringData        []nif.ExtraData                 `json:"stringData,omitempty"`
	BehaviorGraphData []nif.ExtraData                 `json:"behaviorGraphData,omitempty"`
	Trip              map[string]map[string]tripMorph `json:"trip,omitempty"`
}

// tripMorph locates one TRIP morph's accessors.
type tripMorph struct {
	Indices *uint32 `json:"indices,omitempty"`
	Offsets *uint32 `json:"offsets,omitempty"`
}

// shapeMeta is the extras object of a shape's mesh.
type shapeMeta struct {
	IsHeadPart        bool             `json:"isHeadPart,omitempty"`
	Shader            *nif.Shader      `json:"shader,omitempty"`
	Partitions        []nif.Partition  `json:"partitions,omitempty"`
	PartitionTris     []int            `json:"partitionTris,omitempty"`
	SegmentFile       string           `json:"segmentFile,omitempty"`
	GlobalToSkin      *xform.Transform `json:"globalToSkin,omitempty"`
	StringData        []nif.ExtraData  `json:"stringData,omitempty"`
	BehaviorGraphData []nif.ExtraData  `json:"behaviorGraphData,omitempty"`
	TargetNames       []string         `json:"targetNames,omitempty"`
}

// decodeExtras converts a decoded JSON extras value into dst.
func decodeExtras(extras any, dst any) error {
	if extras == nil {
		return errors.New("no extras")
	}
	data, err := json.Marshal(extras)
	if err != nil {
		return errors.Wrap(err, "re-encoding extras")
	}
	return errors.Wrap(json.Unmarshal(data, dst), "decoding extras")
}

func newDocument(meta *docMeta) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "nifkit"
	doc.Extras = meta
	return doc
}

// save writes doc to path as binary or JSON glTF depending on the extension,
// creating the directory if needed.
func save(doc *gltf.Document, path string) error {
	for i := range doc.Nodes {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(i))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".glb") {
		return errors.Wrapf(gltf.SaveBinary(doc, path), "writing %s", path)
	}
	for _, b := range doc.Buffers {
		if b.URI == "" {
			b.EmbeddedResource()
		}
	}
	return errors.Wrapf(gltf.Save(doc, path), "writing %s", path)
}

// open reads a glTF document and its nifkit extras, checking the kind.
func open(path, kind string, wrongKind error) (*gltf.Document, *docMeta, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading %s", path)
	}
	var meta docMeta
	if err := decodeExtras(doc.Extras, &meta); err != nil || meta.Kind != kind {
		return nil, nil, errors.Wrapf(wrongKind, "%s", path)
	}
	return doc, &meta, nil
}

// nodeTRS sets a node's TRS from a transform.
func nodeTRS(n *gltf.Node, t xform.Transform) {
	q := mgl32.Mat4ToQuat(t.Rotation.Mat4())
	n.Translation = t.Translation
	n.Rotation = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
	n.Scale = [3]float32{t.Scale, t.Scale, t.Scale}
}

// nodeTransform reads a node's transform back. A node with a matrix is
// decomposed; otherwise only the X scale of its TRS is used.
func nodeTransform(n *gltf.Node) xform.Transform {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return xform.FromMat4(mgl32.Mat4(m))
	}
	r := n.RotationOrDefault()
	q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
	return xform.Transform{
		Translation: n.TranslationOrDefault(),
		Rotation:    q.Normalize().Mat4().Mat3(),
		Scale:       n.ScaleOrDefault()[0],
	}
}

// accessorAt returns accessor i of doc. An index that does not resolve is
// reported as bad.
func accessorAt(doc *gltf.Document, i uint32, bad error) (*gltf.Accessor, error) {
	if int(i) >= len(doc.Accessors) || doc.Accessors[i] == nil {
		return nil, errors.Wrapf(bad, "accessor %d of %d", i, len(doc.Accessors))
	}
	return doc.Accessors[i], nil
}

// attribute returns the accessor of a primitive attribute; ok is false when
// the primitive has none.
func attribute(doc *gltf.Document, p *gltf.Primitive, name string, bad error) (acr *gltf.Accessor, ok bool, err error) {
	i, ok := p.Attributes[name]
	if !ok {
		return nil, false, nil
	}
	acr, err = accessorAt(doc, i, bad)
	return acr, true, err
}

// positions reads a primitive's required POSITION attribute.
func positions(doc *gltf.Document, p *gltf.Primitive, bad error) ([][3]float32, error) {
	acr, ok, err := attribute(doc, p, gltf.POSITION, bad)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(bad, "no POSITION attribute")
	}
	return modeler.ReadPosition(doc, acr, nil)
}

// triangles reads an index accessor as whole triangles over count vertices.
func triangles(doc *gltf.Document, i uint32, count int, bad error) ([][3]int, error) {
	acr, err := accessorAt(doc, i, bad)
	if err != nil {
		return nil, err
	}
	indices, err := modeler.ReadIndices(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	if len(indices)%3 != 0 {
		return nil, errors.Wrapf(mesh.ErrLoopCount, "%d indices", len(indices))
	}
	tris := make([][3]int, len(indices)/3)
	for t := range tris {
		for k := range tris[t] {
			v := int(indices[t*3+k])
			if v >= count {
				return nil, errors.Wrapf(mesh.ErrVertexIndexOutOfRange,
					"triangle %d references vertex %d of %d", t, v, count)
			}
			tris[t][k] = v
		}
	}
	return tris, nil
}
