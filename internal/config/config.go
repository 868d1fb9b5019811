// Package config handles nifkit configuration loading and management.
package config

// Config holds all nifkit settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`

	// BoneNames is a YAML file mapping NIF bone names to scene bone names.
	// Empty keeps names unchanged.
	BoneNames string `yaml:"bone_names"`
}

// ExportConfig holds settings for writing game files.
type ExportConfig struct {
	Game            string  `yaml:"game"`             // SKYRIM, SKYRIMSE, FO4, FO76
	UVTolerance     float32 `yaml:"uv_tolerance"`     // 0 splits on any UV difference
	NormalTolerance float32 `yaml:"normal_tolerance"` // 0 splits on any normal difference
	UseLoopNormals  bool    `yaml:"use_loop_normals"`
	WriteColors     bool    `yaml:"write_colors"`
}

// ImportConfig holds settings for reading game files into a scene.
type ImportConfig struct {
	CreateBones  bool `yaml:"create_bones"`
	RenameBones  bool `yaml:"rename_bones"`
	RotateModel  bool `yaml:"rotate_model"`
	StitchMorphs bool `yaml:"stitch_morphs"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Game:            "SKYRIM",
			UVTolerance:     0,
			NormalTolerance: 0,
			UseLoopNormals:  true,
			WriteColors:     true,
		},
		Import: ImportConfig{
			CreateBones:  true,
			RenameBones:  true,
			RotateModel:  false,
			StitchMorphs: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
