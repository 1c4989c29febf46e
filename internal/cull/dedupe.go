package cull

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/model"
	"github.com/foptimizer/foptimizer/internal/vmt"
)

// SharedDirName is the directory created under each materials root to
// hold the single surviving copy of each duplicate texture.
const SharedDirName = "foptimizer_shared_duplicates"

// MaterialsRoots returns every directory named "materials" in the tree,
// the root itself included when it matches. Deduplication scopes to
// these roots because material references resolve relative to them.
func MaterialsRoots(root string) ([]string, error) {
	var roots []string
	if strings.EqualFold(filepath.Base(root), "materials") {
		roots = append(roots, root)
	}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && d.IsDir() && strings.EqualFold(d.Name(), "materials") {
			roots = append(roots, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// duplicateHashes MD5-hashes every VTF under root and returns the
// path-to-hash mapping for files appearing more than once. MD5 is used
// as a grouping key for byte-identical files, not for integrity.
func duplicateHashes(root string) (map[string]string, error) {
	jobs, err := batch.Walk(root, ".vtf")
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]string)
	hashes := make(map[string]string)
	for _, job := range jobs {
		data, err := os.ReadFile(job.Path)
		if err != nil {
			return nil, err
		}
		sum := md5.Sum(data)
		h := hex.EncodeToString(sum[:])
		groups[h] = append(groups[h], job.Path)
		hashes[job.Path] = h
	}

	duplicates := make(map[string]string)
	for h, paths := range groups {
		if len(paths) < 2 {
			continue
		}
		for _, p := range paths {
			duplicates[p] = h
		}
	}
	return duplicates, nil
}

// Dedupe collapses byte-identical VTFs. When outputDir differs from
// inputDir the duplicates are copied out for inspection and the input
// is untouched. Otherwise, per materials root, one copy of each
// duplicate moves to materials/foptimizer_shared_duplicates/<hash>.vtf,
// the originals are deleted and every VMT reference to a deduplicated
// texture is redirected to the shared path.
func Dedupe(ctx context.Context, inputDir, outputDir string) ([]model.FileResult, error) {
	roots, err := MaterialsRoots(inputDir)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("no materials/ directory under %s", inputDir))
	}

	duplicates, err := duplicateHashes(inputDir)
	if err != nil {
		return nil, err
	}

	if outputDir != inputDir {
		return copyDuplicates(inputDir, outputDir, duplicates)
	}

	var results []model.FileResult
	for _, root := range roots {
		res, err := dedupeRoot(ctx, root, duplicates)
		if err != nil {
			return nil, err
		}
		results = append(results, res...)
	}
	return results, nil
}

// sortedPaths returns the map keys in path order, so results and the
// choice of surviving copy are deterministic across runs.
func sortedPaths(duplicates map[string]string) []string {
	paths := make([]string, 0, len(duplicates))
	for p := range duplicates {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// copyDuplicates mirrors each duplicate VTF into the output tree.
func copyDuplicates(inputDir, outputDir string, duplicates map[string]string) ([]model.FileResult, error) {
	var results []model.FileResult
	for _, path := range sortedPaths(duplicates) {
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if err := batch.CopyFile(path, filepath.Join(outputDir, rel)); err != nil {
			return nil, err
		}
		results = append(results, model.FileResult{
			Path:        filepath.ToSlash(rel),
			Action:      model.ActionCopied,
			BytesBefore: info.Size(),
			BytesAfter:  info.Size(),
			Detail:      "duplicate " + duplicates[path],
		})
	}
	return results, nil
}

// dedupeRoot performs the in-place collapse for one materials root.
func dedupeRoot(ctx context.Context, root string, duplicates map[string]string) ([]model.FileResult, error) {
	// Engine-form relative path (no extension, forward slashes, lower
	// case) to hash, for the VTFs under this root. This is the form VMT
	// references take.
	byRef := make(map[string]string)
	for path, h := range duplicates {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		ref := strings.ToLower(filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel))))
		byRef[ref] = h
	}
	if len(byRef) == 0 {
		return nil, nil
	}

	sharedDir := filepath.Join(root, SharedDirName)
	if err := os.MkdirAll(sharedDir, 0o755); err != nil {
		return nil, err
	}

	var results []model.FileResult
	for _, path := range sortedPaths(duplicates) {
		h := duplicates[path]
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		shared := filepath.Join(sharedDir, h+".vtf")
		bytesAfter := int64(0)
		if _, err := os.Stat(shared); os.IsNotExist(err) {
			if err := batch.CopyFile(path, shared); err != nil {
				return nil, err
			}
			bytesAfter = info.Size()
		}
		if err := os.Remove(path); err != nil {
			return nil, err
		}
		results = append(results, model.FileResult{
			Path:        filepath.ToSlash(rel),
			Action:      model.ActionRemoved,
			BytesBefore: info.Size(),
			BytesAfter:  bytesAfter,
			Detail:      "merged into " + SharedDirName + "/" + h + ".vtf",
		})
	}

	rewritten, err := rewriteReferences(root, byRef)
	if err != nil {
		return nil, err
	}
	return append(results, rewritten...), nil
}

// rewriteReferences redirects VMT references to deduplicated textures
// at the shared copies.
func rewriteReferences(root string, byRef map[string]string) ([]model.FileResult, error) {
	vmts, err := batch.Walk(root, ".vmt")
	if err != nil {
		return nil, err
	}

	var results []model.FileResult
	for _, job := range vmts {
		data, err := os.ReadFile(job.Path)
		if err != nil {
			return nil, err
		}
		// Backslash references never resolve in the shared-path form, so
		// the whole file is normalized up front.
		content := strings.ReplaceAll(string(data), "\\", "/")
		modified := content != string(data)

		redirects := 0
		for _, ref := range vmt.References(content) {
			h, ok := byRef[ref.Path]
			if !ok {
				continue
			}
			out, changed := vmt.RewriteReference(content, ref.Path, SharedDirName+"/"+h)
			if changed {
				content = out
				modified = true
				redirects++
			}
		}

		if !modified {
			continue
		}
		if err := os.WriteFile(job.Path, []byte(content), 0o644); err != nil {
			return nil, err
		}
		if redirects > 0 {
			results = append(results, model.FileResult{
				Path:        job.Rel,
				Action:      model.ActionOptimized,
				BytesBefore: int64(len(data)),
				BytesAfter:  int64(len(content)),
				Detail:      fmt.Sprintf("%d reference(s) redirected", redirects),
			})
		}
	}
	return results, nil
}
