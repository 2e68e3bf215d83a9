// Package config handles morphtool configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/morphkit/pkg/math"
	"github.com/Faultbox/morphkit/pkg/region"
	"github.com/Faultbox/morphkit/pkg/shapekey"
)

// Config holds all tool settings.
type Config struct {
	Asset    AssetConfig     `yaml:"asset"`
	Analysis region.Options  `yaml:"analysis"`
	ShapeKey shapekey.Params `yaml:"shape_key"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// AssetConfig holds the files to read and write.
type AssetConfig struct {
	Input  string `yaml:"input"`  // GLB to analyse or morph
	Output string `yaml:"output"` // GLB written by shapekey
	Mesh   string `yaml:"mesh"`   // Mesh name; empty picks the first instanced mesh
	Frame  string `yaml:"frame"`  // "zup" (DCC view) or "native" (raw glTF)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Asset: AssetConfig{
			Input:  "models/Meshy_AI_biped/Meshy_AI_Animation_Idle_11_withSkin.glb",
			Output: "models/Meshy_AI_biped/Phil_with_mouthshape.glb",
			Frame:  "zup",
		},
		Analysis: region.DefaultOptions(),
		ShapeKey: shapekey.DefaultParams(),
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Frame returns the parsed coordinate frame.
func (c *Config) Frame() (math.Frame, error) {
	return math.ParseFrame(c.Asset.Frame)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.Frame(); err != nil {
		return fmt.Errorf("asset: %w", err)
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := c.ShapeKey.Validate(); err != nil {
		return fmt.Errorf("shape_key: %w", err)
	}
	return nil
}
