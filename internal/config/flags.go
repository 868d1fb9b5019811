package config

import "flag"

var (
	flagConfig          = flag.String("config", "", "Path to config file")
	flagDebug           = flag.Bool("debug", false, "Enable debug logging")
	flagGame            = flag.String("game", "", "Target game (SKYRIM, SKYRIMSE, FO4, FO76)")
	flagUVTolerance     = flag.Float64("uv-tolerance", -1, "UV distance that still counts as the same UV")
	flagNormalTolerance = flag.Float64("normal-tolerance", -1, "Normal distance that still counts as the same normal")
	flagRotate          = flag.Bool("rotate", false, "Rotate imported models 180 degrees around Z")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagGame != "" {
		cfg.Export.Game = *flagGame
	}
	if *flagUVTolerance >= 0 {
		cfg.Export.UVTolerance = float32(*flagUVTolerance)
	}
	if *flagNormalTolerance >= 0 {
		cfg.Export.NormalTolerance = float32(*flagNormalTolerance)
	}
	if *flagRotate {
		cfg.Import.RotateModel = true
	}
}
