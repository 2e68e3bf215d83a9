// morphtool inspects character meshes in GLB files and authors morph targets
// on them.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/morphkit/internal/config"
	"github.com/Faultbox/morphkit/internal/logger"
	"github.com/Faultbox/morphkit/pkg/formats"
	"github.com/Faultbox/morphkit/pkg/math"
	"github.com/Faultbox/morphkit/pkg/region"
	"github.com/Faultbox/morphkit/pkg/shapekey"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "analyze", "analyse":
		cmdAnalyze(args)
	case "shapekey", "morph":
		cmdShapeKey(args)
	case "info":
		cmdInfo(args)
	case "targets", "ls":
		cmdTargets(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`morphtool - GLB character mesh analysis and morph target authoring

Usage:
  morphtool <command> [options]

Commands:
  analyze  [flags] [file.glb]            Print vertex distribution by height
  shapekey [flags] [in.glb] [out.glb]    Add the configured morph target and save
  info     <file.glb>                    Show asset summary
  targets  <file.glb>                    List morph targets per mesh
  config   [path]                        Write the default config

Common flags:
  -config <file>   Config file (default ./morphtool.yaml or user config dir)
  -in, -out        Input / output GLB
  -mesh <name>     Mesh to use (default: first instanced mesh)
  -frame zup|native
  -name <target>   Morph target name
  -replace         Overwrite an existing target with the same name
  -debug           Debug logging

Examples:
  morphtool analyze Phil.glb
  morphtool analyze -format yaml Phil.glb > phil.yaml
  morphtool shapekey Phil.glb Phil_with_mouthshape.glb
  morphtool shapekey -config jaw.yaml -name JawDrop -replace`)
}

// fail logs err, flushes the logger and exits.
func fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Error(msg)
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	os.Exit(1)
}

// setup parses args, loads the config and starts logging.
func setup(fs *flag.FlagSet, flags *config.Flags, args []string) *config.Config {
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("config: %+v", *cfg)
	return cfg
}

// loadMesh opens the configured input and picks the mesh to work on.
func loadMesh(cfg *config.Config) (*formats.Asset, *formats.MeshRef, math.Frame) {
	frame, err := cfg.Frame()
	if err != nil {
		fail("%v", err)
	}

	asset, err := formats.LoadGLB(cfg.Asset.Input)
	if err != nil {
		fail("%v", err)
	}

	ref, err := asset.FindMesh(cfg.Asset.Mesh)
	if err != nil {
		fail("%s: %v", cfg.Asset.Input, err)
	}

	logger.Info("loaded asset",
		zap.String("path", cfg.Asset.Input),
		zap.String("mesh", ref.Mesh.Name),
		zap.Int("primitives", len(ref.Mesh.Primitives)),
		zap.Stringer("frame", frame))
	return asset, ref, frame
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	format := fs.String("format", "text", "Output format: text or yaml")
	cfg := setup(fs, flags, args)
	defer logger.Sync()

	if fs.NArg() > 0 {
		cfg.Asset.Input = fs.Arg(0)
	}

	asset, ref, frame := loadMesh(cfg)
	sets, err := asset.Positions(ref)
	if err != nil {
		fail("%v", err)
	}

	rep, err := region.Analyze(formats.Points(sets, frame), cfg.Analysis)
	if err != nil {
		fail("%v", err)
	}

	switch *format {
	case "yaml":
		err = rep.WriteYAML(os.Stdout)
	case "text":
		err = rep.WriteText(os.Stdout)
	default:
		fail("unknown format %q (want text or yaml)", *format)
	}
	if err != nil {
		fail("writing report: %v", err)
	}
}

func cmdShapeKey(args []string) {
	fs := flag.NewFlagSet("shapekey", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	cfg := setup(fs, flags, args)
	defer logger.Sync()

	if fs.NArg() > 0 {
		cfg.Asset.Input = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		cfg.Asset.Output = fs.Arg(1)
	}

	asset, ref, frame := loadMesh(cfg)

	p := cfg.ShapeKey
	logger.Info("targeting band",
		zap.String("name", p.Name),
		zap.Float64("band_min_z", p.BandMinZ),
		zap.Float64("band_max_z", p.BandMaxZ),
		zap.Float64("front_y", p.FrontY),
		zap.Float64("midline_fraction", p.MidlineFraction))

	res, err := shapekey.Author(asset, ref, frame, p)
	if err != nil {
		fail("%v", err)
	}
	if res.Modified == 0 {
		logger.Warn("no vertices matched; target is empty", zap.String("name", res.Name))
	}
	logger.Info("authored morph target",
		zap.String("name", res.Name),
		zap.Int("index", res.TargetIndex),
		zap.Bool("replaced", res.Replaced),
		zap.Int("modified", res.Modified),
		zap.Int("vertices", res.Total))

	if err := asset.SaveGLB(cfg.Asset.Output); err != nil {
		fail("%v", err)
	}

	fmt.Printf("Modified %d of %d vertices for %q\n", res.Modified, res.Total, res.Name)
	fmt.Printf("Exported: %s\n", cfg.Asset.Output)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: morphtool info <file.glb>")
		os.Exit(1)
	}

	asset, err := formats.LoadGLB(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	st := asset.Stats()
	fmt.Printf("Asset:      %s\n", args[0])
	if a := asset.Doc.Asset; a.Generator != "" {
		fmt.Printf("Generator:  %s\n", a.Generator)
	}
	fmt.Printf("Meshes:     %d (%d primitives)\n", st.Meshes, st.Primitives)
	fmt.Printf("Vertices:   %d\n", st.Vertices)
	fmt.Printf("Morphs:     %d\n", st.MorphTargets)
	fmt.Printf("Nodes:      %d\n", st.Nodes)
	fmt.Printf("Skins:      %d\n", st.Skins)
	fmt.Printf("Animations: %d\n", st.Animations)
	fmt.Printf("Materials:  %d\n", st.Materials)

	if st.Meshes == 0 {
		return
	}
	ref, err := asset.FindMesh("")
	if err != nil {
		return
	}
	sets, err := asset.Positions(ref)
	if err != nil {
		return
	}
	bounds := math.BoundsOf(formats.Points(sets, math.FrameNative))
	size := bounds.Size()
	fmt.Println()
	fmt.Printf("Mesh %q bounds (glTF Y-up):\n", ref.Mesh.Name)
	fmt.Printf("  X %.3f to %.3f (%.3f)\n", bounds.Min.X, bounds.Max.X, size.X)
	fmt.Printf("  Y %.3f to %.3f (%.3f)\n", bounds.Min.Y, bounds.Max.Y, size.Y)
	fmt.Printf("  Z %.3f to %.3f (%.3f)\n", bounds.Min.Z, bounds.Max.Z, size.Z)
	c := bounds.Center()
	fmt.Printf("  center (%.3f, %.3f, %.3f)\n", c.X, c.Y, c.Z)
}

func cmdTargets(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: morphtool targets <file.glb>")
		os.Exit(1)
	}

	asset, err := formats.LoadGLB(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	count := 0
	for i, m := range asset.Doc.Meshes {
		names := formats.TargetNames(m)
		if len(names) == 0 {
			continue
		}
		fmt.Printf("%d %s\n", i, m.Name)
		for ti, name := range names {
			weight := 0.0
			if ti < len(m.Weights) {
				weight = m.Weights[ti]
			}
			fmt.Printf("  [%d] %-20s weight=%.2f\n", ti, name, weight)
			count++
		}
	}

	if count == 0 {
		fmt.Fprintln(os.Stderr, "No morph targets found")
	} else {
		fmt.Fprintf(os.Stderr, "\n(%d targets)\n", count)
	}
}

func cmdConfig(args []string) {
	cfg := config.Default()

	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote: %s\n", args[0])
		return
	}

	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote: %s\n", config.DefaultPath())
}
