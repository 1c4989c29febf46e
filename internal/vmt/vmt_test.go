package vmt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVMT = `"LightmappedGeneric"
{
	"$basetexture" "Brick/brickwall003a"
	$bumpmap "brick\brickwall003a_normal"
	"$surfaceprop" "brick"
	"$envmapmask"	"brick/brickwall003a_mask"
	"$color" "[1 1 1]"
}
`

// TestReferences verifies parameter matching for both quoting styles,
// path normalization and that non-texture parameters are ignored.
func TestReferences(t *testing.T) {
	refs := References(sampleVMT)
	require.Len(t, refs, 3)

	assert.Equal(t, Reference{Param: "$basetexture", Path: "brick/brickwall003a"}, refs[0])
	assert.Equal(t, Reference{Param: "$bumpmap", Path: "brick/brickwall003a_normal"}, refs[1],
		"backslashes should normalize to forward slashes")
	assert.Equal(t, Reference{Param: "$envmapmask", Path: "brick/brickwall003a_mask"}, refs[2])
}

// TestReferences_CaseInsensitive verifies matching survives the mixed
// casing found in shipped materials.
func TestReferences_CaseInsensitive(t *testing.T) {
	refs := References(`"$BaseTexture" "Models/Props/Crate01"`)
	require.Len(t, refs, 1)
	assert.Equal(t, "$basetexture", refs[0].Param)
	assert.Equal(t, "models/props/crate01", refs[0].Path)
}

// TestWithVTFSuffix verifies suffix handling is idempotent.
func TestWithVTFSuffix(t *testing.T) {
	assert.Equal(t, "brick/wall.vtf", WithVTFSuffix("brick/wall"))
	assert.Equal(t, "brick/wall.vtf", WithVTFSuffix("brick/wall.vtf"))
}

// TestScanFile verifies the file path wrapper.
func TestScanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.vmt")
	require.NoError(t, os.WriteFile(path, []byte(sampleVMT), 0o644))

	refs, err := ScanFile(path)
	require.NoError(t, err)
	assert.Len(t, refs, 3)

	_, err = ScanFile(filepath.Join(t.TempDir(), "missing.vmt"))
	assert.Error(t, err)
}

// TestRewriteReference verifies the redirect keeps an audit trail and
// replaces only the first occurrence.
func TestRewriteReference(t *testing.T) {
	content := `"$basetexture" "brick/wall"` + "\n" + `"$detail" "brick/wall"`

	out, ok := RewriteReference(content, "brick/wall", "foptimizer_shared_duplicates/abc123")
	assert.True(t, ok)
	assert.Contains(t, out, `"foptimizer_shared_duplicates/abc123" // Original: brick/wall`)
	assert.Contains(t, out, `"$detail" "brick/wall"`, "second occurrence must stay")

	// Case-insensitive match against mixed-case content.
	out, ok = RewriteReference(`"$basetexture" "Brick/Wall"`, "brick/wall", "x")
	assert.True(t, ok)
	assert.Contains(t, out, `"x" // Original: brick/wall`)

	_, ok = RewriteReference(content, "not/there", "x")
	assert.False(t, ok)
}
