// Package cli — dedupe.go implements the "foptimizer dedupe" command.
//
// Byte-identical duplicate textures are endemic in packaged content:
// the same skybox or overlay copied into a dozen addon folders. Dedupe
// collapses each set into one file under the materials root and points
// every material at it.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/foptimizer/foptimizer/internal/cull"
	"github.com/foptimizer/foptimizer/internal/model"
)

// NewDedupeCommand creates the "dedupe" cobra command.
func NewDedupeCommand() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "dedupe <input-dir>",
		Short: "Collapse byte-identical duplicate textures",
		Long: `Hash every VTF under the tree's materials/ roots and collapse
byte-identical sets into materials/foptimizer_shared_duplicates/. The
originals are deleted and every VMT reference is rewritten to the
shared copy, with a comment naming the original path.

With --output the duplicate set is copied out for inspection instead
and the input tree is left untouched.

Examples:
  foptimizer dedupe ./addon
  foptimizer dedupe ./addon --output ./duplicates`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.output == "" {
				if err := confirmDestructive("This moves duplicate textures and rewrites materials in place"); err != nil {
					return err
				}
			}
			return runDedupe(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Copy duplicates here instead of collapsing in place")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a per-file YAML report to this path")

	return cmd
}

// runDedupe is the main logic function for the dedupe command.
func runDedupe(ctx context.Context, inputDir string, flags batchFlags) error {
	outputDir := flags.outputDir(inputDir)

	return runSummarized("dedupe", inputDir, outputDir, flags.reportPath, func() ([]model.FileResult, error) {
		return cull.Dedupe(ctx, inputDir, outputDir)
	})
}
