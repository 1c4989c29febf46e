package encoder

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/model"
	"github.com/foptimizer/foptimizer/internal/toolchain"
)

// Audio converts WAV files to OGG Vorbis with oggenc2.
type Audio struct {
	Runner toolchain.Runner

	// Quality is the Vorbis quality level, -1 (smallest) to 10 (best).
	Quality int

	// RemoveSource deletes the WAV after a successful conversion.
	RemoveSource bool
}

// OGGPath swaps a .wav suffix, any casing, for .ogg. The walk that
// selects the files matches extensions case-insensitively, so this must
// too or mixed-case sources come out as "name.Wav.ogg".
func OGGPath(rel string) string {
	if ext := filepath.Ext(rel); strings.EqualFold(ext, ".wav") {
		rel = strings.TrimSuffix(rel, ext)
	}
	return rel + ".ogg"
}

// Convert encodes workDir/inRel to OGG next to the mirrored output
// location workDir/outRel.
func (a *Audio) Convert(ctx context.Context, workDir, inRel, outRel string) (model.FileResult, error) {
	inPath := filepath.Join(workDir, filepath.FromSlash(inRel))
	outPath := filepath.Join(workDir, filepath.FromSlash(outRel))

	before, err := os.Stat(inPath)
	if err != nil {
		return model.FileResult{}, err
	}
	if err := batch.EnsureParent(outPath); err != nil {
		return model.FileResult{}, err
	}

	args := []string{inRel, "-q", strconv.Itoa(a.Quality), "-o", outRel}
	if err := a.Runner.Run(ctx, model.ToolOggenc, workDir, args...); err != nil {
		return model.FileResult{}, err
	}

	after, err := os.Stat(outPath)
	if err != nil {
		return model.FileResult{}, err
	}

	detail := ""
	if a.RemoveSource {
		if err := os.Remove(inPath); err != nil {
			return model.FileResult{}, err
		}
		detail = "source removed"
	}

	return model.FileResult{
		Path:        inRel,
		Action:      model.ActionConverted,
		BytesBefore: before.Size(),
		BytesAfter:  after.Size(),
		Detail:      detail,
	}, nil
}
