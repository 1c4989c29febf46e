// Package cli — cull.go implements the "foptimizer cull" command group.
//
// Culling removes files that ship in packaged content but serve no
// purpose at runtime: legacy per-platform model formats, and textures
// no material references. Both subcommands default to copy mode (build
// a cleaned output tree); --remove deletes in place after confirmation.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/cull"
	"github.com/foptimizer/foptimizer/internal/model"
)

// NewCullCommand creates the "cull" command group.
func NewCullCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cull",
		Short: "Remove redundant files from an asset tree",
	}

	cmd.AddCommand(newCullUnusedCommand())
	cmd.AddCommand(newCullUnaccessedCommand())

	return cmd
}

// newCullUnusedCommand creates "cull unused".
func newCullUnusedCommand() *cobra.Command {
	var flags batchFlags
	var remove bool

	cmd := &cobra.Command{
		Use:   "unused <input-dir>",
		Short: "Drop legacy per-platform model files",
		Long: `Handle the legacy model formats no current engine branch loads:
.360.vtx, .dx80.vtx, .sw.vtx and .xbox.vtx.

By default everything except those files is copied to --output.
With --remove the blacklisted files are deleted in place instead.

Examples:
  foptimizer cull unused ./addon --output ./addon-clean
  foptimizer cull unused ./addon --remove`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateCullMode(flags.output, remove); err != nil {
				return err
			}
			if remove {
				if err := confirmDestructive("This deletes legacy model files in place"); err != nil {
					return err
				}
			}
			return runCullUnused(cmd.Context(), args[0], flags, remove)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Copy the cleaned tree to this directory")
	cmd.Flags().BoolVar(&remove, "remove", false, "Delete blacklisted files in place instead of copying")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Worker pool size (0 = CPU count)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a per-file YAML report to this path")

	return cmd
}

// newCullUnaccessedCommand creates "cull unaccessed".
func newCullUnaccessedCommand() *cobra.Command {
	var flags batchFlags
	var remove bool

	cmd := &cobra.Command{
		Use:   "unaccessed <input-dir>",
		Short: "Drop textures no material references",
		Long: `Scan every VMT in the tree for texture references, then handle the
VTFs nothing references. Reference paths are compared case
insensitively and with the materials/ prefix tolerated, matching how
the engine resolves them.

By default referenced textures and all materials are copied to
--output. With --remove the unreferenced textures are deleted in place.

Examples:
  foptimizer cull unaccessed ./addon --output ./addon-clean
  foptimizer cull unaccessed ./addon --remove`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateCullMode(flags.output, remove); err != nil {
				return err
			}
			if remove {
				if err := confirmDestructive("This deletes unreferenced textures in place"); err != nil {
					return err
				}
			}
			return runCullUnaccessed(cmd.Context(), args[0], flags, remove)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Copy the cleaned tree to this directory")
	cmd.Flags().BoolVar(&remove, "remove", false, "Delete unreferenced textures in place instead of copying")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Worker pool size (0 = CPU count)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a per-file YAML report to this path")

	return cmd
}

// validateCullMode enforces that exactly one of copy and remove mode is
// selected: copy mode needs a destination, remove mode must not have one.
func validateCullMode(output string, remove bool) error {
	if remove && output != "" {
		return model.NewCLIError(model.ExitGeneralError, "--remove and --output are mutually exclusive")
	}
	if !remove && output == "" {
		return model.NewCLIError(model.ExitGeneralError, "either --output or --remove is required")
	}
	return nil
}

// runCullUnused is the main logic function for "cull unused".
func runCullUnused(ctx context.Context, inputDir string, flags batchFlags, remove bool) error {
	manifest := loadManifestOptional()
	if flags.workers == 0 {
		flags.workers = manifest.Workers
	}

	outputDir := flags.outputDir(inputDir)
	pool := &batch.Pool{Workers: flags.workers, Progress: progressLog()}

	return runSummarized("cull unused", inputDir, outputDir, flags.reportPath, func() ([]model.FileResult, error) {
		return cull.Unused(ctx, pool, inputDir, outputDir, remove)
	})
}

// runCullUnaccessed is the main logic function for "cull unaccessed".
func runCullUnaccessed(ctx context.Context, inputDir string, flags batchFlags, remove bool) error {
	manifest := loadManifestOptional()
	if flags.workers == 0 {
		flags.workers = manifest.Workers
	}

	outputDir := flags.outputDir(inputDir)
	pool := &batch.Pool{Workers: flags.workers, Progress: progressLog()}

	return runSummarized("cull unaccessed", inputDir, outputDir, flags.reportPath, func() ([]model.FileResult, error) {
		return cull.Unaccessed(ctx, pool, inputDir, outputDir, remove)
	})
}
