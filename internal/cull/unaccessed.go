package cull

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/model"
	"github.com/foptimizer/foptimizer/internal/vmt"
)

// ReferencedTextures scans every VMT under root and returns the set of
// texture paths they reference, normalized and with the .vtf suffix so
// they compare directly against on-disk relative paths.
func ReferencedTextures(root string) (map[string]struct{}, error) {
	vmts, err := batch.Walk(root, ".vmt")
	if err != nil {
		return nil, err
	}

	refs := make(map[string]struct{})
	for _, job := range vmts {
		fileRefs, err := vmt.ScanFile(job.Path)
		if err != nil {
			return nil, err
		}
		for _, r := range fileRefs {
			refs[vmt.WithVTFSuffix(r.Path)] = struct{}{}
		}
	}
	return refs, nil
}

// textureUsed reports whether a VTF's root-relative path matches a
// reference. Material references omit the materials/ prefix, so a path
// under one is also checked with the prefix stripped.
func textureUsed(rel string, refs map[string]struct{}) bool {
	rel = strings.ToLower(rel)
	if _, ok := refs[rel]; ok {
		return true
	}
	if stripped, found := strings.CutPrefix(rel, "materials/"); found {
		_, ok := refs[stripped]
		return ok
	}
	return false
}

// Unaccessed finds VTFs referenced by no VMT in the tree. In remove
// mode they are deleted in place; in copy mode referenced VTFs and all
// VMTs are carried to the output tree and unreferenced VTFs are left
// behind.
func Unaccessed(ctx context.Context, pool *batch.Pool, inputDir, outputDir string, remove bool) ([]model.FileResult, error) {
	refs, err := ReferencedTextures(inputDir)
	if err != nil {
		return nil, err
	}

	jobs, err := batch.Walk(inputDir, ".vtf")
	if err != nil {
		return nil, err
	}

	results, err := pool.Run(ctx, jobs, func(ctx context.Context, job batch.Job) (model.FileResult, error) {
		info, err := os.Stat(job.Path)
		if err != nil {
			return model.FileResult{}, err
		}
		size := info.Size()

		if textureUsed(job.Rel, refs) {
			if remove {
				return model.FileResult{Action: model.ActionSkipped, BytesBefore: size, BytesAfter: size}, nil
			}
			dst := filepath.Join(outputDir, filepath.FromSlash(job.Rel))
			if err := batch.CopyFile(job.Path, dst); err != nil {
				return model.FileResult{}, err
			}
			return model.FileResult{Action: model.ActionCopied, BytesBefore: size, BytesAfter: size}, nil
		}

		if remove {
			if err := os.Remove(job.Path); err != nil {
				return model.FileResult{}, err
			}
			return model.FileResult{Action: model.ActionRemoved, BytesBefore: size, Detail: "no material references it"}, nil
		}
		return model.FileResult{Action: model.ActionSkipped, BytesBefore: size, BytesAfter: size, Detail: "no material references it"}, nil
	})
	if err != nil {
		return nil, err
	}

	// Copy mode carries the materials themselves over too.
	if !remove {
		vmts, err := batch.Walk(inputDir, ".vmt")
		if err != nil {
			return nil, err
		}
		for _, job := range vmts {
			dst := filepath.Join(outputDir, filepath.FromSlash(job.Rel))
			if err := batch.CopyFile(job.Path, dst); err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}
