package cull

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foptimizer/foptimizer/internal/batch"
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

func countAction(results []model.FileResult, action model.FileAction) int {
	n := 0
	for _, r := range results {
		if r.Action == action {
			n++
		}
	}
	return n
}

// TestIsBlacklisted verifies legacy format matching is suffix based and
// case insensitive.
func TestIsBlacklisted(t *testing.T) {
	assert.True(t, IsBlacklisted("crate01.dx80.vtx"))
	assert.True(t, IsBlacklisted("CRATE01.SW.VTX"))
	assert.True(t, IsBlacklisted("door.360.vtx"))
	assert.False(t, IsBlacklisted("crate01.dx90.vtx"))
	assert.False(t, IsBlacklisted("crate01.vtx"))
	assert.False(t, IsBlacklisted("crate01.mdl"))
}

// TestUnused_CopyMode verifies blacklisted files stay behind and
// everything else mirrors into the output tree.
func TestUnused_CopyMode(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{
		"models/crate01.mdl":      "mdl",
		"models/crate01.dx90.vtx": "keep",
		"models/crate01.dx80.vtx": "drop",
		"models/crate01.sw.vtx":   "drop",
	})

	pool := &batch.Pool{Workers: 1}
	results, err := Unused(context.Background(), pool, in, out, false)
	require.NoError(t, err)

	assert.Equal(t, 2, countAction(results, model.ActionCopied))
	assert.Equal(t, 2, countAction(results, model.ActionSkipped))

	assert.FileExists(t, filepath.Join(out, "models", "crate01.mdl"))
	assert.FileExists(t, filepath.Join(out, "models", "crate01.dx90.vtx"))
	assert.NoFileExists(t, filepath.Join(out, "models", "crate01.dx80.vtx"))
	// Copy mode leaves the input untouched.
	assert.FileExists(t, filepath.Join(in, "models", "crate01.dx80.vtx"))
}

// TestUnused_RemoveMode verifies blacklisted files are deleted in place.
func TestUnused_RemoveMode(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{
		"models/crate01.mdl":      "mdl",
		"models/crate01.dx80.vtx": "drop",
	})

	pool := &batch.Pool{Workers: 1}
	results, err := Unused(context.Background(), pool, in, in, true)
	require.NoError(t, err)

	assert.Equal(t, 1, countAction(results, model.ActionRemoved))
	assert.NoFileExists(t, filepath.Join(in, "models", "crate01.dx80.vtx"))
	assert.FileExists(t, filepath.Join(in, "models", "crate01.mdl"))
}

// TestUnaccessed_RemoveMode verifies the reference check tolerates the
// materials/ prefix and deletes only unreferenced textures.
func TestUnaccessed_RemoveMode(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{
		"materials/brick/wall.vmt":    `"LightmappedGeneric" { "$basetexture" "brick/wall" }`,
		"materials/brick/wall.vtf":    "used",
		"materials/brick/orphan.vtf":  "unused",
		"materials/models/spare.vtf":  "unused",
		"materials/brick/descent.vmt": `"LightmappedGeneric" { "$bumpmap" "brick\wall_normal.vtf" }`,
		"materials/brick/wall_normal.vtf": "used",
	})

	pool := &batch.Pool{Workers: 1}
	results, err := Unaccessed(context.Background(), pool, in, in, true)
	require.NoError(t, err)

	assert.Equal(t, 2, countAction(results, model.ActionRemoved))
	assert.NoFileExists(t, filepath.Join(in, "materials", "brick", "orphan.vtf"))
	assert.NoFileExists(t, filepath.Join(in, "materials", "models", "spare.vtf"))
	assert.FileExists(t, filepath.Join(in, "materials", "brick", "wall.vtf"))
	assert.FileExists(t, filepath.Join(in, "materials", "brick", "wall_normal.vtf"),
		"backslash references must still count as usage")
}

// TestUnaccessed_CopyMode verifies referenced textures and all materials
// are carried over while orphans stay behind.
func TestUnaccessed_CopyMode(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{
		"materials/brick/wall.vmt":   `"LightmappedGeneric" { "$basetexture" "brick/wall" }`,
		"materials/brick/wall.vtf":   "used",
		"materials/brick/orphan.vtf": "unused",
	})

	pool := &batch.Pool{Workers: 1}
	_, err := Unaccessed(context.Background(), pool, in, out, false)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "materials", "brick", "wall.vtf"))
	assert.FileExists(t, filepath.Join(out, "materials", "brick", "wall.vmt"))
	assert.NoFileExists(t, filepath.Join(out, "materials", "brick", "orphan.vtf"))
}

// TestMaterialsRoots verifies discovery finds nested materials dirs and
// the root itself.
func TestMaterialsRoots(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"addon1/materials/x.vtf": "x",
		"addon2/materials/y.vtf": "y",
		"other/z.vtf":            "z",
	})

	roots, err := MaterialsRoots(root)
	require.NoError(t, err)
	assert.Len(t, roots, 2)

	named := filepath.Join(root, "addon1", "materials")
	sub, err := MaterialsRoots(named)
	require.NoError(t, err)
	assert.Equal(t, []string{named}, sub, "a root named materials counts as a head")
}

// TestDedupe_InPlace verifies duplicates collapse into the shared dir,
// originals disappear and material references are redirected with an
// audit comment.
func TestDedupe_InPlace(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{
		"materials/brick/wall_a.vtf": "same-bytes",
		"materials/brick/wall_b.vtf": "same-bytes",
		"materials/brick/unique.vtf": "different",
		"materials/brick/wall.vmt":   `"LightmappedGeneric" { "$basetexture" "brick/wall_a" }`,
	})

	results, err := Dedupe(context.Background(), in, in)
	require.NoError(t, err)

	assert.Equal(t, 2, countAction(results, model.ActionRemoved))
	assert.NoFileExists(t, filepath.Join(in, "materials", "brick", "wall_a.vtf"))
	assert.NoFileExists(t, filepath.Join(in, "materials", "brick", "wall_b.vtf"))
	assert.FileExists(t, filepath.Join(in, "materials", "brick", "unique.vtf"))

	shared, err := os.ReadDir(filepath.Join(in, "materials", SharedDirName))
	require.NoError(t, err)
	require.Len(t, shared, 1, "one surviving copy per content hash")
	assert.True(t, strings.HasSuffix(shared[0].Name(), ".vtf"))

	data, err := os.ReadFile(filepath.Join(in, "materials", "brick", "wall.vmt"))
	require.NoError(t, err)
	hash := strings.TrimSuffix(shared[0].Name(), ".vtf")
	assert.Contains(t, string(data), `"`+SharedDirName+`/`+hash+`" // Original: brick/wall_a`)
}

// TestDedupe_CopyMode verifies a distinct output dir gets the duplicate
// set copied out with the input untouched.
func TestDedupe_CopyMode(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{
		"materials/a.vtf": "same",
		"materials/b.vtf": "same",
		"materials/c.vtf": "different",
	})

	results, err := Dedupe(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, 2, countAction(results, model.ActionCopied))
	assert.FileExists(t, filepath.Join(out, "materials", "a.vtf"))
	assert.FileExists(t, filepath.Join(out, "materials", "b.vtf"))
	assert.NoFileExists(t, filepath.Join(out, "materials", "c.vtf"))
	assert.FileExists(t, filepath.Join(in, "materials", "a.vtf"))
}

// TestDedupe_NoMaterialsRoot verifies the guard for trees without a
// materials directory.
func TestDedupe_NoMaterialsRoot(t *testing.T) {
	in := t.TempDir()
	writeTree(t, in, map[string]string{"textures/a.vtf": "a"})

	_, err := Dedupe(context.Background(), in, in)
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
}
