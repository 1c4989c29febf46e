// Package cli — vtf.go implements the "foptimizer vtf" command group.
//
// The three texture optimizers run entirely in process on the built-in
// VTF codec; no external tool is involved:
//
//   - fit-alpha:     demote textures whose alpha channel is unused or
//     binary into a smaller pixel format.
//   - shrink-solid:  collapse flat-color textures to 4x4.
//   - halve-normals: halve detected normal maps.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/encoder"
	"github.com/foptimizer/foptimizer/internal/model"
)

// NewVTFCommand creates the "vtf" command group.
func NewVTFCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vtf",
		Short: "Optimize VTF textures in place",
		Long: `Rewrite Valve Texture Format files into smaller representations.

Each subcommand walks the input tree for .vtf files and applies one
optimization. Unsupported textures (cubemaps, volume textures, exotic
pixel formats) are skipped and reported, never rewritten.`,
	}

	cmd.AddCommand(newVTFFitAlphaCommand())
	cmd.AddCommand(newVTFShrinkSolidCommand())
	cmd.AddCommand(newVTFHalveNormalsCommand())

	return cmd
}

// newVTFFitAlphaCommand creates "vtf fit-alpha".
func newVTFFitAlphaCommand() *cobra.Command {
	var flags batchFlags
	var lossy bool

	cmd := &cobra.Command{
		Use:   "fit-alpha <input-dir>",
		Short: "Demote textures with unused or binary alpha",
		Long: `Refit each texture's pixel format to its actual alpha usage.

Opaque RGBA8888/BGRA8888 drop their alpha byte; opaque DXT5 drops to
DXT1; binary (on/off) alpha converts to DXT1 one-bit alpha. By default
the DXT conversion only happens when it reproduces the decoded pixels
exactly; --lossy converts whenever the alpha channel survives.

Textures whose alpha is zero everywhere are left untouched: that
pattern is a specularity mask, and collapsing it would render the
material black.

Examples:
  foptimizer vtf fit-alpha ./materials
  foptimizer vtf fit-alpha ./materials --lossy --output ./optimized`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runVTFBatch(cmd.Context(), "vtf fit-alpha", args[0], flags, encoder.FitAlphaOp(!lossy))
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write results to this directory instead of in place")
	cmd.Flags().BoolVar(&lossy, "lossy", false, "Convert binary alpha even when colors shift slightly")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Worker pool size (0 = CPU count)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a per-file YAML report to this path")

	return cmd
}

// newVTFShrinkSolidCommand creates "vtf shrink-solid".
func newVTFShrinkSolidCommand() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "shrink-solid <input-dir>",
		Short: "Collapse flat-color textures to 4x4",
		Long: `Find textures that are a single flat color and rewrite them at the
minimum 4x4 size. The engine tiles the color identically, so rendering
does not change.

Examples:
  foptimizer vtf shrink-solid ./materials`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runVTFBatch(cmd.Context(), "vtf shrink-solid", args[0], flags, encoder.ShrinkSolidOp)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write results to this directory instead of in place")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Worker pool size (0 = CPU count)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a per-file YAML report to this path")

	return cmd
}

// newVTFHalveNormalsCommand creates "vtf halve-normals".
func newVTFHalveNormalsCommand() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "halve-normals <input-dir>",
		Short: "Halve the resolution of detected normal maps",
		Long: `Detect tangent-space normal maps by their near-unit vector magnitude
and halve their dimensions. Normal maps tolerate downsampling far
better than diffuse textures and are frequently shipped oversized.

Halved textures are flagged so a second run never shrinks them again.

Examples:
  foptimizer vtf halve-normals ./materials`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runVTFBatch(cmd.Context(), "vtf halve-normals", args[0], flags, encoder.HalveNormalOp)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write results to this directory instead of in place")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Worker pool size (0 = CPU count)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a per-file YAML report to this path")

	return cmd
}

// runVTFBatch fans a texture operation over every VTF in the tree.
func runVTFBatch(ctx context.Context, operation, inputDir string, flags batchFlags, op encoder.TextureOp) error {
	manifest := loadManifestOptional()
	if flags.workers == 0 {
		flags.workers = manifest.Workers
	}

	jobs, err := batch.Walk(inputDir, ".vtf")
	if err != nil {
		return err
	}
	VerboseLog("Found %d VTF file(s) under %s", len(jobs), inputDir)

	outputDir := flags.outputDir(inputDir)
	pool := &batch.Pool{Workers: flags.workers, Progress: progressLog()}

	return runSummarized(operation, inputDir, outputDir, flags.reportPath, func() ([]model.FileResult, error) {
		return pool.Run(ctx, jobs, func(ctx context.Context, job batch.Job) (model.FileResult, error) {
			// Same path convention as the png command: empty work directory
			// for a distinct output tree, so absolute directories pass
			// through the join intact.
			inRel, outRel := job.Rel, job.Rel
			workDir := inputDir
			if outputDir != inputDir {
				workDir = ""
				inRel = job.Path
				outRel = batch.OutputPath(outputDir, job)
			}
			return encoder.ProcessVTF(workDir, inRel, outRel, op)
		})
	})
}
