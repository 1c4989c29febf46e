// Package batch runs a per-file operation across a directory tree with
// a bounded worker pool. Every optimizer pass in the pipeline is shaped
// the same way: walk the input tree for matching files, fan the files
// out to workers, collect per-file results without letting one bad file
// abort the rest.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/foptimizer/foptimizer/internal/model"
)

// Job is one file selected by a walk.
type Job struct {
	// Path is the absolute path of the input file.
	Path string
	// Rel is the path relative to the walk root, forward slashes. Output
	// trees mirror the input layout through this field.
	Rel string
}

// Func processes a single file. A returned error marks the file as
// failed in the collected results; it does not stop the pool.
type Func func(ctx context.Context, job Job) (model.FileResult, error)

// Progress is invoked after each file finishes, from whichever worker
// finished it. done counts completed files including this one.
type Progress func(done, total int, result model.FileResult)

// Workers returns the pool size to use: the configured value when
// positive, otherwise one worker per available CPU.
func Workers(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.GOMAXPROCS(0)
}

// Walk collects the files under root whose name ends in one of the
// given extensions (case insensitive, leading dot included). With no
// extensions, every regular file matches. Results are sorted by
// relative path so runs are deterministic.
func Walk(root string, exts ...string) ([]Job, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.NewCLIError(model.ExitInputNotFound, fmt.Sprintf("input directory not found: %s", root))
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, model.NewCLIError(model.ExitInputNotFound, fmt.Sprintf("input path is not a directory: %s", root))
	}

	var jobs []Job
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(exts) > 0 && !hasExt(d.Name(), exts) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, Job{Path: path, Rel: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Rel < jobs[j].Rel })
	return jobs, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Pool fans jobs out to at most Workers goroutines.
type Pool struct {
	Workers  int
	Progress Progress
}

// Run processes every job and returns the results in job order. Per-file
// failures are folded into the result list as ActionFailed entries; the
// only error Run itself returns is context cancellation.
func (p *Pool) Run(ctx context.Context, jobs []Job, fn Func) ([]model.FileResult, error) {
	results := make([]model.FileResult, len(jobs))
	total := len(jobs)

	var mu sync.Mutex
	done := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(p.Workers))

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := fn(ctx, job)
			if err != nil {
				// Cancellation aborts the pool; anything else is a
				// per-file failure that the rest of the run survives.
				if ctx.Err() != nil {
					return ctx.Err()
				}
				res = model.FileResult{
					Path:   job.Rel,
					Action: model.ActionFailed,
					Detail: err.Error(),
				}
			}
			if res.Path == "" {
				res.Path = job.Rel
			}
			results[i] = res

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			if p.Progress != nil {
				p.Progress(n, total, res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// OutputPath maps a job into an output tree, mirroring the input
// layout.
func OutputPath(outputDir string, job Job) string {
	return filepath.Join(outputDir, filepath.FromSlash(job.Rel))
}

// EnsureParent creates the directory hierarchy above path.
func EnsureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// CopyFile copies src to dst, creating parent directories as needed.
// Used by passes that mirror untouched files into the output tree.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := EnsureParent(dst); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
