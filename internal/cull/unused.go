package cull

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/model"
)

// fileBlacklist lists the legacy per-platform model formats that no
// current engine branch loads. They ship in ported content constantly
// and are pure dead weight.
var fileBlacklist = []string{
	".360.vtx",
	".dx80.vtx",
	".sw.vtx",
	".xbox.vtx",
}

// IsBlacklisted reports whether a file name matches one of the legacy
// formats.
func IsBlacklisted(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range fileBlacklist {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Unused walks the input tree and handles blacklisted legacy files.
// In remove mode they are deleted in place; otherwise every
// non-blacklisted file is copied into the output tree and blacklisted
// files are simply left behind.
func Unused(ctx context.Context, pool *batch.Pool, inputDir, outputDir string, remove bool) ([]model.FileResult, error) {
	jobs, err := batch.Walk(inputDir)
	if err != nil {
		return nil, err
	}

	return pool.Run(ctx, jobs, func(ctx context.Context, job batch.Job) (model.FileResult, error) {
		info, err := os.Stat(job.Path)
		if err != nil {
			return model.FileResult{}, err
		}
		size := info.Size()

		if IsBlacklisted(filepath.Base(job.Path)) {
			if !remove {
				return model.FileResult{Action: model.ActionSkipped, BytesBefore: size, BytesAfter: size, Detail: "legacy format"}, nil
			}
			if err := os.Remove(job.Path); err != nil {
				return model.FileResult{}, err
			}
			return model.FileResult{Action: model.ActionRemoved, BytesBefore: size, Detail: "legacy format"}, nil
		}

		if remove {
			return model.FileResult{Action: model.ActionSkipped, BytesBefore: size, BytesAfter: size}, nil
		}
		dst := filepath.Join(outputDir, filepath.FromSlash(job.Rel))
		if err := batch.CopyFile(job.Path, dst); err != nil {
			return model.FileResult{}, err
		}
		return model.FileResult{Action: model.ActionCopied, BytesBefore: size, BytesAfter: size}, nil
	})
}
