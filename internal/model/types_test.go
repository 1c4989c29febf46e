package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseRunnerMode verifies string-to-enum conversion, including
// case folding and rejection of unknown values.
func TestParseRunnerMode(t *testing.T) {
	mode, err := ParseRunnerMode("local")
	require.NoError(t, err)
	assert.Equal(t, RunnerLocal, mode)

	mode, err = ParseRunnerMode("Container")
	require.NoError(t, err)
	assert.Equal(t, RunnerContainer, mode)

	_, err = ParseRunnerMode("remote")
	assert.Error(t, err, "unknown runner modes should be rejected")
	assert.Contains(t, err.Error(), "invalid runner mode")
}

// TestToolRequired verifies the required/optional split of the tool table.
// oxipng and oggenc2 gate the launch toolchain check; pngquant and crowbar
// only affect doctor output.
func TestToolRequired(t *testing.T) {
	assert.True(t, ToolOxipng.Required())
	assert.True(t, ToolOggenc.Required())
	assert.False(t, ToolPngquant.Required())
	assert.False(t, ToolCrowbar.Required())
}

// TestAllTools_RequiredFirst verifies the doctor display order: required
// tools come before optional ones.
func TestAllTools_RequiredFirst(t *testing.T) {
	tools := AllTools()
	require.Len(t, tools, 4)

	seenOptional := false
	for _, tool := range tools {
		if !tool.Required() {
			seenOptional = true
		} else {
			assert.False(t, seenOptional, "required tool %s listed after an optional one", tool)
		}
	}
}

// TestRunSummary_Aggregates verifies the derived counters over a mixed
// set of file results.
func TestRunSummary_Aggregates(t *testing.T) {
	s := &RunSummary{Operation: "png", Duration: time.Second}
	s.Add(FileResult{Path: "a.png", Action: ActionOptimized, BytesBefore: 1000, BytesAfter: 600})
	s.Add(FileResult{Path: "b.png", Action: ActionSkipped, BytesBefore: 500, BytesAfter: 500})
	s.Add(FileResult{Path: "c.png", Action: ActionFailed, BytesBefore: 200, Detail: "truncated file"})

	assert.Equal(t, 3, s.Processed())
	assert.Equal(t, 1, s.Failed())
	assert.Equal(t, int64(1700), s.BytesBefore())
	assert.Equal(t, int64(1100), s.BytesAfter())
	assert.Equal(t, int64(600), s.Saved())
}

// TestFileResult_Saved verifies that growth is reported as a negative saving
// rather than clamped, so totals stay honest.
func TestFileResult_Saved(t *testing.T) {
	r := FileResult{BytesBefore: 100, BytesAfter: 140}
	assert.Equal(t, int64(-40), r.Saved())
}

// TestCLIError_Unwrap verifies errors.Is works through CLIError wrapping.
func TestCLIError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := WrapCLIError(ExitToolFailed, "oxipng failed", inner)

	assert.True(t, errors.Is(err, inner))
	assert.Equal(t, ExitToolFailed, err.Code)
	assert.Contains(t, err.Error(), "oxipng failed")
	assert.Contains(t, err.Error(), "boom")
}

// TestCLIError_NoInner verifies the message-only form.
func TestCLIError_NoInner(t *testing.T) {
	err := NewCLIError(ExitManifestMissing, "foptimizer.jsonc not found")
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "foptimizer.jsonc not found", err.Error())
}
