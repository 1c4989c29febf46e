package encoder

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/model"
	"github.com/foptimizer/foptimizer/internal/toolchain"
)

// PNG recompresses PNG files with oxipng.
type PNG struct {
	Runner toolchain.Runner

	// Level is the oxipng optimization level, 0 (fastest) to 6
	// (smallest).
	Level int

	// Lossless keeps the decoded pixels bit-identical: only safe
	// metadata chunks are stripped and the alpha channel is left alone.
	// Lossy mode additionally clears invisible-pixel color data, strips
	// all metadata and reduces 16-bit channels.
	Lossless bool
}

// Args builds the oxipng command line for one file. Paths are relative
// to the work directory so the same invocation works in the container
// runner.
func (p *PNG) Args(inRel, outRel string) []string {
	args := []string{"-o", strconv.Itoa(p.Level), "--force", "--out", outRel}
	if p.Lossless {
		args = append(args, "--strip", "safe")
	} else {
		args = append(args, "--strip", "all", "-a", "--scale16")
	}
	return append(args, inRel)
}

// Optimize recompresses workDir/inRel into workDir/outRel and reports
// the byte counts. inRel and outRel may name the same file.
func (p *PNG) Optimize(ctx context.Context, workDir, inRel, outRel string) (model.FileResult, error) {
	inPath := filepath.Join(workDir, filepath.FromSlash(inRel))
	outPath := filepath.Join(workDir, filepath.FromSlash(outRel))

	before, err := os.Stat(inPath)
	if err != nil {
		return model.FileResult{}, err
	}
	if err := batch.EnsureParent(outPath); err != nil {
		return model.FileResult{}, err
	}

	if err := p.Runner.Run(ctx, model.ToolOxipng, workDir, p.Args(inRel, outRel)...); err != nil {
		return model.FileResult{}, err
	}

	after, err := os.Stat(outPath)
	if err != nil {
		return model.FileResult{}, err
	}
	return model.FileResult{
		Path:        inRel,
		Action:      model.ActionOptimized,
		BytesBefore: before.Size(),
		BytesAfter:  after.Size(),
	}, nil
}
