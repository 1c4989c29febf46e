package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foptimizer/foptimizer/internal/model"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// TestWalk verifies extension filtering, relative path computation and
// the deterministic ordering of the result.
func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.png":            "b",
		"sub/a.PNG":        "a",
		"sub/deep/c.png":   "c",
		"sub/readme.txt":   "ignore",
		"model.dx80.vtx":   "ignore",
		"textures/wet.vtf": "ignore",
	})

	jobs, err := Walk(root, ".png")
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "b.png", jobs[0].Rel)
	assert.Equal(t, "sub/a.PNG", jobs[1].Rel, "extension match is case insensitive")
	assert.Equal(t, "sub/deep/c.png", jobs[2].Rel)
	assert.Equal(t, filepath.Join(root, "b.png"), jobs[0].Path)
}

// TestWalk_AllFiles verifies that with no extensions every file matches.
func TestWalk_AllFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.png": "a", "b.txt": "b"})

	jobs, err := Walk(root)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

// TestWalk_MissingRoot verifies the typed exit code for a bad input dir.
func TestWalk_MissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"))
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitInputNotFound, cliErr.Code)
}

// TestPoolRun verifies results come back in job order and per-file
// errors become failed entries instead of aborting the pool.
func TestPoolRun(t *testing.T) {
	jobs := []Job{
		{Path: "/in/a", Rel: "a"},
		{Path: "/in/b", Rel: "b"},
		{Path: "/in/c", Rel: "c"},
	}

	pool := &Pool{Workers: 2}
	results, err := pool.Run(context.Background(), jobs, func(ctx context.Context, job Job) (model.FileResult, error) {
		if job.Rel == "b" {
			return model.FileResult{}, errors.New("codec choked")
		}
		return model.FileResult{Path: job.Rel, Action: model.ActionOptimized}, nil
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, model.ActionOptimized, results[0].Action)
	assert.Equal(t, model.ActionFailed, results[1].Action)
	assert.Equal(t, "codec choked", results[1].Detail)
	assert.Equal(t, "b", results[1].Path)
	assert.Equal(t, model.ActionOptimized, results[2].Action)
}

// TestPoolRun_Progress verifies the callback fires once per file with a
// monotonically complete done count.
func TestPoolRun_Progress(t *testing.T) {
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = Job{Rel: string(rune('a' + i))}
	}

	var calls atomic.Int64
	var sawTotal atomic.Int64
	pool := &Pool{
		Workers: 4,
		Progress: func(done, total int, _ model.FileResult) {
			calls.Add(1)
			if done == total {
				sawTotal.Add(1)
			}
		},
	}

	_, err := pool.Run(context.Background(), jobs, func(ctx context.Context, job Job) (model.FileResult, error) {
		return model.FileResult{Action: model.ActionSkipped}, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 10, calls.Load())
	assert.EqualValues(t, 1, sawTotal.Load(), "exactly one call observes done == total")
}

// TestPoolRun_Cancellation verifies a cancelled context aborts the run
// with the context error.
func TestPoolRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{{Rel: "a"}, {Rel: "b"}}
	pool := &Pool{Workers: 1}
	_, err := pool.Run(ctx, jobs, func(ctx context.Context, job Job) (model.FileResult, error) {
		return model.FileResult{}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestWorkers verifies the configured count wins and zero falls back to
// the CPU count.
func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.GreaterOrEqual(t, Workers(0), 1)
}

// TestCopyFile verifies parent creation and content fidelity.
func TestCopyFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.bin")
	require.NoError(t, os.WriteFile(src, []byte{0, 1, 2}, 0o644))

	dst := filepath.Join(root, "out", "deep", "dst.bin")
	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, data)
}
