package config

import "flag"

// Flags are the config overrides shared by every subcommand.
type Flags struct {
	config  *string
	debug   *bool
	input   *string
	output  *string
	mesh    *string
	frame   *string
	name    *string
	replace *bool
}

// RegisterFlags defines the config override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:  fs.String("config", "", "Path to config file"),
		debug:   fs.Bool("debug", false, "Enable debug logging"),
		input:   fs.String("in", "", "Input GLB file"),
		output:  fs.String("out", "", "Output GLB file"),
		mesh:    fs.String("mesh", "", "Mesh name (default: first instanced mesh)"),
		frame:   fs.String("frame", "", "Coordinate frame: zup or native"),
		name:    fs.String("name", "", "Morph target name"),
		replace: fs.Bool("replace", false, "Replace an existing morph target with the same name"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.input != "" {
		cfg.Asset.Input = *f.input
	}
	if *f.output != "" {
		cfg.Asset.Output = *f.output
	}
	if *f.mesh != "" {
		cfg.Asset.Mesh = *f.mesh
	}
	if *f.frame != "" {
		cfg.Asset.Frame = *f.frame
	}
	if *f.name != "" {
		cfg.ShapeKey.Name = *f.name
	}
	if *f.replace {
		cfg.ShapeKey.Replace = true
	}
}
