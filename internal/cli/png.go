// Package cli — png.go implements the "foptimizer png" command.
//
// Recompresses every PNG under the input tree with oxipng, in place or
// into a mirrored output tree. Lossless by default; --lossy allows the
// encoder to strip all metadata, clear invisible pixels and reduce
// bit depth.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/config"
	"github.com/foptimizer/foptimizer/internal/encoder"
	"github.com/foptimizer/foptimizer/internal/model"
)

// NewPNGCommand creates the "png" cobra command.
func NewPNGCommand() *cobra.Command {
	var flags batchFlags
	var level int
	var lossy bool

	cmd := &cobra.Command{
		Use:   "png <input-dir>",
		Short: "Recompress PNG images with oxipng",
		Long: `Recompress every .png under the input directory with oxipng.

Without --output the files are rewritten in place. The optimization
level (0 fastest, 6 smallest) and lossless mode default to the
manifest's png section.

Examples:
  foptimizer png ./assets
  foptimizer png ./assets --output ./optimized --level 4
  foptimizer png ./assets --lossy`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			manifest := loadManifestOptional()

			// Manifest values back any flag the user left untouched.
			if !cmd.Flags().Changed("level") {
				level = *manifest.PNG.Level
			}
			if !cmd.Flags().Changed("lossy") {
				lossy = !*manifest.PNG.Lossless
			}
			if !cmd.Flags().Changed("workers") {
				flags.workers = manifest.Workers
			}

			return runPNG(cmd.Context(), manifest, args[0], flags, level, !lossy)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write results to this directory instead of in place")
	cmd.Flags().IntVar(&level, "level", config.DefaultPNGLevel, "oxipng optimization level (0-6)")
	cmd.Flags().BoolVar(&lossy, "lossy", false, "Allow lossy reductions and full metadata stripping")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Worker pool size (0 = CPU count)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a per-file YAML report to this path")

	return cmd
}

// runPNG is the main logic function for the png command.
func runPNG(ctx context.Context, manifest *config.Manifest, inputDir string, flags batchFlags, level int, lossless bool) error {
	runner, err := newRunner(ctx, manifest)
	if err != nil {
		return err
	}

	jobs, err := batch.Walk(inputDir, ".png")
	if err != nil {
		return err
	}
	VerboseLog("Found %d PNG file(s) under %s", len(jobs), inputDir)

	png := &encoder.PNG{Runner: runner, Level: level, Lossless: lossless}
	outputDir := flags.outputDir(inputDir)
	pool := &batch.Pool{Workers: flags.workers, Progress: progressLog()}

	return runSummarized("png", inputDir, outputDir, flags.reportPath, func() ([]model.FileResult, error) {
		return pool.Run(ctx, jobs, func(ctx context.Context, job batch.Job) (model.FileResult, error) {
			// In-place runs use the input root as the work directory with
			// relative paths, which keeps the container bind mount to a
			// single directory. A distinct output tree resolves both paths
			// from the process working directory instead; the work
			// directory must be empty, not ".", so absolute input and
			// output directories survive the join.
			inRel, outRel := job.Rel, job.Rel
			workDir := inputDir
			if outputDir != inputDir {
				workDir = ""
				inRel = job.Path
				outRel = batch.OutputPath(outputDir, job)
			}
			return png.Optimize(ctx, workDir, inRel, outRel)
		})
	})
}
