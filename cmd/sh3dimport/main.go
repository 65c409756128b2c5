package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"sh3d-importer/internal/common/config"
	"sh3d-importer/internal/importer/geometry"
	"sh3d-importer/internal/importer/mapper"
	"sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/importer/transform"
)

// ============================================================
// sh3dimport CLI
// ============================================================

type flags struct {
	config   string
	output   string
	indent   bool
	progress bool

	noDoors     bool
	noFurniture bool
	noLights    bool
	noCameras   bool
	noJoin      bool
	policy      string
	angleUnit   string
	tolerance   float64
	miterLimit  float64
	arcSegments int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "sh3dimport",
		Short:         "Import SweetHome3D .sh3d archives into a scene graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "TOML file with an [import] table")
	pf.StringVarP(&f.output, "output", "o", "-", "output file, - for stdout")
	pf.BoolVar(&f.progress, "progress", false, "log stage progress to stderr")
	pf.BoolVar(&f.noDoors, "no-doors", false, "skip doors and windows")
	pf.BoolVar(&f.noFurniture, "no-furniture", false, "skip furniture")
	pf.BoolVar(&f.noLights, "no-lights", false, "skip lights")
	pf.BoolVar(&f.noCameras, "no-cameras", false, "skip cameras")
	pf.BoolVar(&f.noJoin, "no-join", false, "do not join walls at junctions")
	pf.StringVar(&f.policy, "junction-policy", "", "junctions of 3+ walls: fan, miter or flat")
	pf.StringVar(&f.angleUnit, "angle-unit", "", "unit of angles in the document: radians or degrees")
	pf.Float64Var(&f.tolerance, "junction-tolerance", 0, "distance under which wall ends meet")
	pf.Float64Var(&f.miterLimit, "miter-limit", 0, "miter length limit in wall half-thicknesses")
	pf.IntVar(&f.arcSegments, "arc-segments", 0, "segments per arc wall")

	sceneCmd := &cobra.Command{
		Use:   "scene <file.sh3d>",
		Short: "Print the scene graph as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args[0], func(w io.Writer) mapper.Emitter {
				return mapper.NewJSONEmitter(w, f.indent)
			})
		},
	}
	sceneCmd.Flags().BoolVar(&f.indent, "indent", true, "indent JSON output")

	warningsCmd := &cobra.Command{
		Use:   "warnings <file.sh3d>",
		Short: "Print entity-level warnings, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args[0], func(w io.Writer) mapper.Emitter {
				return mapper.NewWarningsEmitter(w)
			})
		},
	}

	var level string
	planCmd := &cobra.Command{
		Use:   "plan <file.sh3d>",
		Short: "Render an SVG floor plan of one level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args[0], func(w io.Writer) mapper.Emitter {
				return &planEmitter{w: w, level: level}
			})
		},
	}
	planCmd.Flags().StringVar(&level, "level", "", "level id, selected level by default")

	root.AddCommand(sceneCmd, warningsCmd, planCmd)
	return root
}

// options собирает настройки: значения по умолчанию, затем TOML, затем флаги
func (f *flags) options() (mapper.Options, error) {
	opts, err := config.LoadImportOptions(f.config)
	if err != nil {
		return opts, err
	}

	if f.noDoors {
		opts.ImportDoors = false
	}
	if f.noFurniture {
		opts.ImportFurniture = false
	}
	if f.noLights {
		opts.ImportLights = false
	}
	if f.noCameras {
		opts.ImportCameras = false
	}
	if f.noJoin {
		opts.JoinWalls = false
	}
	if f.policy != "" {
		opts.JunctionPolicy = geometry.ParseJunctionPolicy(f.policy)
	}
	if f.angleUnit != "" {
		opts.AngleUnit = transform.ParseAngleUnit(f.angleUnit)
	}
	if f.tolerance > 0 {
		opts.JunctionTolerance = f.tolerance
	}
	if f.miterLimit > 0 {
		opts.MiterLimit = f.miterLimit
	}
	if f.arcSegments > 0 {
		opts.ArcSegments = f.arcSegments
	}
	if f.progress {
		opts.Progress = func(p models.Progress) {
			log.Printf("[PROGRESS] %s %d/%d", p.Stage, p.Completed, p.Total)
		}
	}
	return opts, nil
}

func run(ctx context.Context, f *flags, path string, emitter func(io.Writer) mapper.Emitter) error {
	opts, err := f.options()
	if err != nil {
		log.Printf("[CONFIG] %v", err)
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[IMPORT] %v", err)
		return err
	}

	res, err := mapper.New(opts).Import(ctx, data)
	if err != nil {
		log.Printf("[IMPORT] %s: %v", path, err)
		return err
	}

	out := io.Writer(os.Stdout)
	if f.output != "-" {
		file, err := os.Create(f.output)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	return emitter(out).Emit(ctx, res)
}

// planEmitter пишет SVG-план уровня
type planEmitter struct {
	w     io.Writer
	level string
}

func (e *planEmitter) Emit(_ context.Context, res *mapper.Result) error {
	svg, err := mapper.NewRenderer().Render(res.Scene, e.level)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.w, svg)
	return err
}

// exitCode: 2 для архива, 3 для документа, 4 для инварианта, 130 при отмене
func exitCode(err error) int {
	switch models.KindOf(err) {
	case models.KindArchiveCorrupt, models.KindArchiveMissingEntry:
		return 2
	case models.KindDocumentMalformed:
		return 3
	case models.KindInvariantViolation:
		return 4
	case models.KindCancelled:
		return 130
	}
	return 1
}
