// nifkit converts editor scenes to game mesh files and back.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/nifkit/internal/config"
	"github.com/Faultbox/nifkit/internal/exporter"
	"github.com/Faultbox/nifkit/internal/importer"
	"github.com/Faultbox/nifkit/internal/logger"
	"github.com/Faultbox/nifkit/pkg/mesh"
	"github.com/Faultbox/nifkit/pkg/nif"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "export":
		err = cmdExport(cfg, args)
	case "import":
		err = cmdImport(cfg, args)
	case "info":
		err = cmdInfo(args)
	case "weights":
		err = cmdWeights(args)
	case "dump":
		err = cmdDump(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`nifkit - game mesh exporter and importer

Usage:
  nifkit [flags] <command> [options]

Commands:
  export <scene.yaml> <out.gltf|glb> [object...]  Write game files for a scene
  import <file> <scene.yaml>                      Add a NIF to a scene
  import -tri <file.tri> <scene.yaml>             Add TRI or TRIP morphs to scene objects
  info <file>                                     Summarize a NIF, TRI or TRIP file
  weights [-vertex n] <scene.yaml> <object>       List an object's weights by bone
  dump <file>                                     Dump a decoded file

Flags:
  -config <path>         Config file
  -debug                 Debug logging
  -game <name>           Target game (SKYRIM, SKYRIMSE, FO4, FO76)
  -uv-tolerance <d>      UV distance that still counts as the same UV
  -normal-tolerance <d>  Normal distance that still counts as the same normal
  -rotate                Rotate imported models 180 degrees around Z

Examples:
  nifkit -game SKYRIMSE export body.yaml meshes/armor/body.gltf
  nifkit import meshes/armor/body.gltf body.yaml
  nifkit import -tri -objects Body meshes/armor/body.tri body.yaml`)
}

func exportOptions(cfg *config.Config) exporter.Options {
	opts := exporter.DefaultOptions()
	opts.Split = mesh.SplitOptions{
		UVTolerance:     float64(cfg.Export.UVTolerance),
		NormalTolerance: float64(cfg.Export.NormalTolerance),
	}
	opts.UseLoopNormals = cfg.Export.UseLoopNormals
	opts.WriteColors = cfg.Export.WriteColors
	return opts
}

func importOptions(cfg *config.Config) importer.Options {
	return importer.Options{
		CreateBones:  cfg.Import.CreateBones,
		RenameBones:  cfg.Import.RenameBones,
		RotateModel:  cfg.Import.RotateModel,
		StitchMorphs: cfg.Import.StitchMorphs,
		Namer:        nif.IdentityNamer,
	}
}
