package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/multierr"

	"github.com/Faultbox/nifkit/internal/config"
	"github.com/Faultbox/nifkit/internal/exporter"
	"github.com/Faultbox/nifkit/internal/importer"
	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
	"github.com/Faultbox/nifkit/pkg/nif/gltfcodec"
	"github.com/Faultbox/nifkit/pkg/scene"
	"github.com/Faultbox/nifkit/pkg/xform"
)

func cmdExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: nifkit export <scene.yaml> <out.gltf|glb> [object...]")
		os.Exit(1)
	}

	sc, err := scene.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	objects := sc.Objects
	if fs.NArg() > 2 {
		objects = nil
		for _, name := range fs.Args()[2:] {
			o := sc.Find(name)
			if o == nil {
				return fmt.Errorf("object %q not found in %s", name, fs.Arg(0))
			}
			objects = append(objects, o)
		}
	}

	opts := exportOptions(cfg)
	if opts.Namer, err = boneNamer(cfg); err != nil {
		return err
	}
	e := exporter.New(fs.Arg(1), cfg.ExportGame(), gltfcodec.New(), opts)
	e.SetObjects(sc, objects)
	res, err := e.Export()
	if err != nil {
		return err
	}

	for _, f := range res.Files {
		fmt.Println(f)
	}
	printWarnings(res.Warnings)

	// Export tags problem vertices on the scene objects.
	if res.Warnings[exporter.WarnUnweighted] || res.Warnings[exporter.WarnNoPartition] {
		if err := sc.Save(fs.Arg(0)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Marked problem vertices in %s\n", fs.Arg(0))
	}
	return nil
}

func cmdImport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	morphs := fs.Bool("tri", false, "Import a TRI or TRIP file as shape keys")
	objectList := fs.String("objects", "", "Comma-separated objects to receive morphs (default: all meshes)")
	armature := fs.String("armature", "", "Existing armature to parent skinned shapes to")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: nifkit import [-tri] [-objects a,b] [-armature name] <file> <scene.yaml>")
		os.Exit(1)
	}
	path, scenePath := fs.Arg(0), fs.Arg(1)

	sc, err := scene.Load(scenePath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Sugar.Infof("Creating new scene %s", scenePath)
		sc, err = &scene.Scene{}, nil
	}
	if err != nil {
		return err
	}

	opts := importOptions(cfg)
	opts.Armature = *armature
	if opts.Namer, err = boneNamer(cfg); err != nil {
		return err
	}
	im := importer.New(sc, gltfcodec.New(), opts)

	var res *importer.Result
	if *morphs {
		selected, err := selectObjects(sc, *objectList)
		if err != nil {
			return err
		}
		res, err = im.ImportMorphs(path, selected)
		if err != nil {
			return err
		}
	} else if res, err = im.ImportNIF(path); err != nil {
		return err
	}

	for _, o := range res.Objects {
		fmt.Printf("%s (%s)\n", o.Name, o.Kind)
	}
	printWarnings(res.Warnings)
	return sc.Save(scenePath)
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: nifkit info <file>")
		os.Exit(1)
	}

	v, err := readAny(args[0])
	if err != nil {
		return err
	}
	printInfo(os.Stdout, args[0], v)
	return nil
}

func printInfo(w io.Writer, path string, v any) {
	switch f := v.(type) {
	case *nif.File:
		fmt.Fprintf(w, "NIF:    %s\n", path)
		fmt.Fprintf(w, "Game:   %s\n", f.Game)
		fmt.Fprintf(w, "Shapes: %d\n", len(f.Shapes))
		for _, s := range f.Shapes {
			fmt.Fprintf(w, "  %-24s %6d verts %6d tris", s.Name, len(s.Verts), len(s.Tris))
			if s.Skin != nil {
				fmt.Fprintf(w, " %3d bones", len(s.Skin.Bones))
			}
			if len(s.Partitions) > 0 {
				fmt.Fprintf(w, " %3d partitions", len(s.Partitions))
			}
			fmt.Fprintln(w)
			if !s.Transform.IsIdentity() {
				printTransform(w, "transform", s.Transform)
			}
			if s.Skin != nil && !s.Skin.GlobalToSkin.IsIdentity() {
				printTransform(w, "global to skin", s.Skin.GlobalToSkin)
			}
		}
		for _, d := range f.StringData {
			fmt.Fprintf(w, "String data:   %s = %s\n", d.Name, d.Value)
		}
		for _, d := range f.BehaviorGraphData {
			fmt.Fprintf(w, "Behavior data: %s = %s\n", d.Name, d.Value)
		}
	case *nif.TriFile:
		fmt.Fprintf(w, "TRI:    %s\n", path)
		fmt.Fprintf(w, "Verts:  %d\n", len(f.Verts))
		fmt.Fprintf(w, "Tris:   %d\n", len(f.Tris))
		fmt.Fprintf(w, "Morphs: %s\n", strings.Join(f.MorphNames(), ", "))
	case *nif.TripFile:
		fmt.Fprintf(w, "TRIP:   %s\n", path)
		for _, shape := range f.ShapeNames() {
			fmt.Fprintf(w, "  %-24s %s\n", shape, strings.Join(f.MorphNames(shape), ", "))
		}
	}
}

func printTransform(w io.Writer, label string, t xform.Transform) {
	r := t.EulerDeg()
	fmt.Fprintf(w, "    %-15s loc (%.4g, %.4g, %.4g) rot (%.4g, %.4g, %.4g) deg scale %.4g\n", label+":",
		t.Translation[0], t.Translation[1], t.Translation[2], r[0], r[1], r[2], t.Scale)
}

func cmdWeights(args []string) error {
	fs := flag.NewFlagSet("weights", flag.ExitOnError)
	vertex := fs.Int("vertex", -1, "Show the groups of one vertex instead")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: nifkit weights [-vertex n] <scene.yaml> <object>")
		os.Exit(1)
	}

	sc, err := scene.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	o := sc.Find(fs.Arg(1))
	if o == nil || o.Mesh == nil {
		return fmt.Errorf("mesh object %q not found in %s", fs.Arg(1), fs.Arg(0))
	}

	if *vertex >= 0 {
		return printVertexGroups(os.Stdout, o, *vertex)
	}

	byBone := mesh.WeightsByBone(o.Mesh.Weights)
	for _, bone := range byBone.Bones() {
		fmt.Printf("%s (%d)\n", bone, len(byBone[bone]))
		for _, w := range byBone[bone] {
			fmt.Printf("  %6d %.4f\n", w.Index, w.Weight)
		}
	}
	if n := len(mesh.Unweighted(o.Mesh.Weights, mesh.WeightEpsilon)); n > 0 {
		fmt.Fprintf(os.Stderr, "\n(%d vertices unweighted)\n", n)
	}
	return nil
}

// printVertexGroups lists the groups that weight vertex v of o.
func printVertexGroups(w io.Writer, o *scene.Object, v int) error {
	if v >= len(o.Mesh.Verts) {
		return fmt.Errorf("%s has %d vertices, no vertex %d", o.Name, len(o.Mesh.Verts), v)
	}
	if v >= len(o.Mesh.Weights) {
		return nil
	}
	weights := o.Mesh.Weights[v]
	for _, g := range mesh.GroupsWithWeight(weights) {
		fmt.Fprintf(w, "%s %.4f\n", g, weights[g])
	}
	return nil
}

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	depth := fs.Int("depth", 0, "Maximum nesting depth (0 = unlimited)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: nifkit dump [-depth n] <file>")
		os.Exit(1)
	}

	v, err := readAny(fs.Arg(0))
	if err != nil {
		return err
	}
	cfg := spew.NewDefaultConfig()
	cfg.DisableCapacities = true
	cfg.DisablePointerAddresses = true
	cfg.SortKeys = true
	cfg.MaxDepth = *depth
	cfg.Fdump(os.Stdout, v)
	return nil
}

// readAny reads path as a NIF, TRIP or TRI file, whichever it is. A file
// that is none of them reports why each reader refused it.
func readAny(path string) (any, error) {
	codec := gltfcodec.New()
	f, nifErr := codec.ReadNIF(path)
	if nifErr == nil {
		return f, nil
	}
	if !errors.Is(nifErr, nif.ErrNotNIF) {
		return nil, nifErr
	}
	trip, tripErr := codec.ReadTRIP(path)
	if tripErr == nil {
		return trip, nil
	}
	if !errors.Is(tripErr, nif.ErrNotTRIP) {
		return nil, tripErr
	}
	tri, triErr := codec.ReadTRI(path)
	if triErr == nil {
		return tri, nil
	}
	if !errors.Is(triErr, nif.ErrNotTRI) {
		return nil, triErr
	}
	return nil, multierr.Combine(nifErr, tripErr, triErr)
}

// selectObjects returns the named objects, or every mesh when names is
// empty.
func selectObjects(sc *scene.Scene, names string) ([]*scene.Object, error) {
	var result []*scene.Object
	if names == "" {
		for _, o := range sc.Objects {
			if o.Kind == scene.KindMesh {
				result = append(result, o)
			}
		}
		return result, nil
	}
	for _, name := range strings.Split(names, ",") {
		o := sc.Find(strings.TrimSpace(name))
		if o == nil {
			return nil, fmt.Errorf("object %q not found", name)
		}
		result = append(result, o)
	}
	return result, nil
}

// boneNamer returns the bone dictionary the config names, or the identity.
func boneNamer(cfg *config.Config) (nif.BoneNamer, error) {
	if cfg.BoneNames == "" {
		return nif.IdentityNamer, nil
	}
	names, err := config.LoadBoneNames(cfg.BoneNames)
	if err != nil {
		return nil, err
	}
	logger.Sugar.Debugf("Loaded %d bone names from %s", len(names), cfg.BoneNames)
	return nif.NewBoneDictionary(names), nil
}

func printWarnings(warnings map[string]bool) {
	var list []string
	for w := range warnings {
		list = append(list, w)
	}
	if len(list) == 0 {
		return
	}
	sort.Strings(list)
	fmt.Fprintf(os.Stderr, "Warnings: %s\n", strings.Join(list, ", "))
}
