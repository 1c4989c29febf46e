// Package cli — cli_test.go contains unit tests for the pure helper
// functions and an end-to-end exercise of the launch contract against
// a temporary workspace. No Docker daemon or real encoder is required;
// the toolchain is satisfied with stub binaries.
package cli

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foptimizer/foptimizer/internal/encoder"
	"github.com/foptimizer/foptimizer/internal/model"
	"github.com/foptimizer/foptimizer/internal/vtf"
)

// TestValidateCullMode verifies the copy/remove mode exclusivity rules.
func TestValidateCullMode(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		remove  bool
		wantErr bool
	}{
		{
			name:    "copy mode with output is valid",
			output:  "/out",
			remove:  false,
			wantErr: false,
		},
		{
			name:    "remove mode without output is valid",
			output:  "",
			remove:  true,
			wantErr: false,
		},
		{
			name:    "neither mode selected",
			output:  "",
			remove:  false,
			wantErr: true,
		},
		{
			name:    "both modes selected",
			output:  "/out",
			remove:  true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCullMode(tt.output, tt.remove)
			if tt.wantErr {
				var cliErr *model.CLIError
				require.ErrorAs(t, err, &cliErr)
				assert.Equal(t, model.ExitGeneralError, cliErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestBatchFlagsOutputDir verifies in-place defaulting.
func TestBatchFlagsOutputDir(t *testing.T) {
	f := &batchFlags{}
	assert.Equal(t, "/in", f.outputDir("/in"))

	f.output = "/out"
	assert.Equal(t, "/out", f.outputDir("/in"))
}

// TestRunVTFBatch_OutputTree verifies --output end to end with absolute
// input and output directories: the optimized file lands in the output
// tree, nested layout preserved, and the input tree is untouched.
func TestRunVTFBatch_OutputTree(t *testing.T) {
	t.Chdir(t.TempDir()) // no manifest in or above the working directory

	inDir := t.TempDir()
	outDir := t.TempDir()

	// A 16x16 flat green texture, so shrink-solid has work to do.
	frame := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < 16*16; i++ {
		frame.Pix[i*4+1] = 255
		frame.Pix[i*4+3] = 255
	}
	tex := &vtf.Texture{
		Width: 16, Height: 16,
		Format:       vtf.FormatRGB888,
		Frames:       []*image.NRGBA{frame},
		MajorVersion: 7, MinorVersion: 2,
	}
	data, err := tex.Bake()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(inDir, "brick"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "brick", "wall.vtf"), data, 0o644))

	flags := batchFlags{output: outDir}
	require.NoError(t, runVTFBatch(context.Background(), "vtf shrink-solid", inDir, flags, encoder.ShrinkSolidOp))

	outData, err := os.ReadFile(filepath.Join(outDir, "brick", "wall.vtf"))
	require.NoError(t, err)
	parsed, err := vtf.Parse(outData)
	require.NoError(t, err)
	assert.Equal(t, 4, parsed.Width, "the shrunk texture should land in the output tree")

	inData, err := os.ReadFile(filepath.Join(inDir, "brick", "wall.vtf"))
	require.NoError(t, err)
	assert.Equal(t, data, inData, "the input tree must stay untouched")
}

// writeStubTool creates an executable placeholder for a required tool.
func writeStubTool(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755))
}

// TestRunLaunch_MissingManifest verifies the manifest-missing fatal mode
// carries its dedicated exit code.
func TestRunLaunch_MissingManifest(t *testing.T) {
	t.Chdir(t.TempDir())

	err := runLaunch()
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitManifestMissing, cliErr.Code)
}

// TestRunLaunch_MissingToolchain verifies launch refuses to spawn the
// GUI when a required encoder cannot be resolved.
func TestRunLaunch_MissingToolchain(t *testing.T) {
	root := t.TempDir()
	toolsDir := filepath.Join(root, "tools")
	require.NoError(t, os.MkdirAll(toolsDir, 0o755))
	// Only one of the two required tools exists.
	writeStubTool(t, toolsDir, "oxipng")

	manifest := `{
	// test workspace
	"toolsDir": "tools",
	"gui": ["sh", "-c", "touch launched"],
}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "foptimizer.jsonc"), []byte(manifest), 0o644))

	t.Chdir(root)
	t.Setenv("PATH", toolsDir) // keep a host-installed oggenc2 out of the test

	err := runLaunch()
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitToolchainMissing, cliErr.Code)
	assert.NoFileExists(t, filepath.Join(root, "launched"), "GUI must not spawn on a fatal error")
}

// TestRunLaunch_SpawnsGUI verifies the full launch contract: workspace
// bootstrap, toolchain verification and the detached GUI spawn.
func TestRunLaunch_SpawnsGUI(t *testing.T) {
	root := t.TempDir()
	toolsDir := filepath.Join(root, "tools")
	require.NoError(t, os.MkdirAll(toolsDir, 0o755))
	writeStubTool(t, toolsDir, "oxipng")
	writeStubTool(t, toolsDir, "oggenc2")

	manifest := `{
	// comments exercise the JSONC parse
	"toolsDir": "tools",
	"gui": ["sh", "-c", "echo $FOPTIMIZER_TOOLS > launched"],
}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "foptimizer.jsonc"), []byte(manifest), 0o644))

	t.Chdir(root)

	require.NoError(t, runLaunch())

	// The GUI is detached; poll for its side effect.
	launched := filepath.Join(root, "launched")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(launched)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond, "the GUI process should have run")

	data, err := os.ReadFile(launched)
	require.NoError(t, err)
	assert.Contains(t, string(data), toolsDir, "FOPTIMIZER_TOOLS must point at the tool workspace")
}

// TestRunLaunch_BootstrapCreatesWorkspace verifies a missing tool
// workspace is created, and that verification still runs against it.
func TestRunLaunch_BootstrapCreatesWorkspace(t *testing.T) {
	root := t.TempDir()
	manifest := `{
	"toolsDir": "tools",
	"gui": ["sh", "-c", "true"],
}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "foptimizer.jsonc"), []byte(manifest), 0o644))

	t.Chdir(root)
	t.Setenv("PATH", root) // no tools anywhere

	err := runLaunch()
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitToolchainMissing, cliErr.Code)

	// The workspace was still created: install/update runs before
	// verification, so the user can drop binaries in and relaunch.
	assert.DirExists(t, filepath.Join(root, "tools"))
}
