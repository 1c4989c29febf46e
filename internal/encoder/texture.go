package encoder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/model"
	"github.com/foptimizer/foptimizer/internal/vtf"
)

// TextureOp transforms a parsed texture in place, reporting whether it
// changed anything and a human-readable detail.
type TextureOp func(*vtf.Texture) (changed bool, detail string, err error)

// FitAlphaOp returns the alpha-format reduction as a TextureOp.
func FitAlphaOp(lossless bool) TextureOp {
	return func(t *vtf.Texture) (bool, string, error) {
		return vtf.FitAlpha(t, lossless)
	}
}

// ShrinkSolidOp collapses flat-color textures to their minimum size.
func ShrinkSolidOp(t *vtf.Texture) (bool, string, error) {
	changed, detail := vtf.ShrinkSolid(t)
	return changed, detail, nil
}

// HalveNormalOp halves detected normal maps.
func HalveNormalOp(t *vtf.Texture) (bool, string, error) {
	changed, detail := vtf.HalveNormal(t)
	return changed, detail, nil
}

// ProcessVTF parses workDir/inRel, applies op, and writes the result to
// workDir/outRel. An unchanged texture is copied verbatim when the
// output location differs and reported as skipped, so output trees are
// always complete.
func ProcessVTF(workDir, inRel, outRel string, op TextureOp) (model.FileResult, error) {
	inPath := filepath.Join(workDir, filepath.FromSlash(inRel))
	outPath := filepath.Join(workDir, filepath.FromSlash(outRel))

	data, err := os.ReadFile(inPath)
	if err != nil {
		return model.FileResult{}, err
	}
	before := int64(len(data))

	tex, err := vtf.Parse(data)
	if err != nil {
		return model.FileResult{}, fmt.Errorf("%s: %w", inRel, err)
	}

	changed, detail, err := op(tex)
	if err != nil {
		return model.FileResult{}, fmt.Errorf("%s: %w", inRel, err)
	}

	if !changed {
		if outPath != inPath {
			if err := batch.CopyFile(inPath, outPath); err != nil {
				return model.FileResult{}, err
			}
		}
		return model.FileResult{
			Path:        inRel,
			Action:      model.ActionSkipped,
			BytesBefore: before,
			BytesAfter:  before,
		}, nil
	}

	baked, err := tex.Bake()
	if err != nil {
		return model.FileResult{}, fmt.Errorf("%s: %w", inRel, err)
	}
	if err := batch.EnsureParent(outPath); err != nil {
		return model.FileResult{}, err
	}
	if err := os.WriteFile(outPath, baked, 0o644); err != nil {
		return model.FileResult{}, err
	}

	return model.FileResult{
		Path:        inRel,
		Action:      model.ActionOptimized,
		BytesBefore: before,
		BytesAfter:  int64(len(baked)),
		Detail:      detail,
	}, nil
}
