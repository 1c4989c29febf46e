// Package cli — audio.go implements the "foptimizer audio" command.
//
// Converts every WAV under the input tree to OGG Vorbis with oggenc2.
// The Source engine plays OGG from the same sound script entries, so
// the conversion is a pure size win at the configured quality.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/config"
	"github.com/foptimizer/foptimizer/internal/encoder"
	"github.com/foptimizer/foptimizer/internal/model"
)

// NewAudioCommand creates the "audio" cobra command.
func NewAudioCommand() *cobra.Command {
	var flags batchFlags
	var quality int
	var removeSource bool

	cmd := &cobra.Command{
		Use:   "audio <input-dir>",
		Short: "Convert WAV audio to OGG Vorbis with oggenc2",
		Long: `Convert every .wav under the input directory to .ogg.

The Vorbis quality level runs from -1 (smallest) to 10 (best) and
defaults to the manifest's audio section. --remove-source deletes each
WAV after its OGG is written.

Examples:
  foptimizer audio ./assets/sound
  foptimizer audio ./assets/sound --quality 6 --remove-source`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			manifest := loadManifestOptional()

			if !cmd.Flags().Changed("quality") {
				quality = *manifest.Audio.Quality
			}
			if !cmd.Flags().Changed("remove-source") {
				removeSource = manifest.Audio.RemoveSource
			}
			if !cmd.Flags().Changed("workers") {
				flags.workers = manifest.Workers
			}

			if removeSource {
				if err := confirmDestructive("This deletes each WAV after conversion"); err != nil {
					return err
				}
			}

			return runAudio(cmd.Context(), manifest, args[0], flags, quality, removeSource)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write results to this directory instead of in place")
	cmd.Flags().IntVarP(&quality, "quality", "q", config.DefaultOggQuality, "Vorbis quality level (-1 to 10)")
	cmd.Flags().BoolVar(&removeSource, "remove-source", false, "Delete each WAV after successful conversion")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Worker pool size (0 = CPU count)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "Write a per-file YAML report to this path")

	return cmd
}

// runAudio is the main logic function for the audio command.
func runAudio(ctx context.Context, manifest *config.Manifest, inputDir string, flags batchFlags, quality int, removeSource bool) error {
	runner, err := newRunner(ctx, manifest)
	if err != nil {
		return err
	}

	jobs, err := batch.Walk(inputDir, ".wav")
	if err != nil {
		return err
	}
	VerboseLog("Found %d WAV file(s) under %s", len(jobs), inputDir)

	audio := &encoder.Audio{Runner: runner, Quality: quality, RemoveSource: removeSource}
	outputDir := flags.outputDir(inputDir)
	pool := &batch.Pool{Workers: flags.workers, Progress: progressLog()}

	return runSummarized("audio", inputDir, outputDir, flags.reportPath, func() ([]model.FileResult, error) {
		return pool.Run(ctx, jobs, func(ctx context.Context, job batch.Job) (model.FileResult, error) {
			// Same path convention as the png command: empty work directory
			// for a distinct output tree, so absolute directories pass
			// through the join intact.
			inRel, outRel := job.Rel, encoder.OGGPath(job.Rel)
			workDir := inputDir
			if outputDir != inputDir {
				workDir = ""
				inRel = job.Path
				outRel = batch.OutputPath(outputDir, batch.Job{Rel: encoder.OGGPath(job.Rel)})
			}
			return audio.Convert(ctx, workDir, inRel, outRel)
		})
	})
}
