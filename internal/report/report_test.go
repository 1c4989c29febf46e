package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/foptimizer/foptimizer/internal/model"
)

func sampleSummary() *model.RunSummary {
	return &model.RunSummary{
		Operation: "png",
		InputDir:  "/in",
		OutputDir: "/out",
		Duration:  1500 * time.Millisecond,
		Results: []model.FileResult{
			{Path: "a.png", Action: model.ActionOptimized, BytesBefore: 1000, BytesAfter: 400},
			{Path: "b.png", Action: model.ActionFailed, BytesBefore: 500, Detail: "corrupt IHDR"},
		},
	}
}

// TestWriteText verifies the counts, sizes and failure listing.
func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	WriteText(&buf, sampleSummary())
	out := buf.String()

	assert.Contains(t, out, "png: 2 file(s) processed")
	assert.Contains(t, out, "failed:  1")
	assert.Contains(t, out, "b.png: corrupt IHDR")
	assert.Contains(t, out, "before:  1.5 kB")
	assert.Contains(t, out, "saved:")
}

// TestWriteText_Growth verifies negative savings report as growth
// instead of underflowing the byte formatter.
func TestWriteText_Growth(t *testing.T) {
	s := &model.RunSummary{
		Operation: "audio",
		Results: []model.FileResult{
			{Path: "a.wav", Action: model.ActionConverted, BytesBefore: 100, BytesAfter: 300},
		},
	}

	var buf bytes.Buffer
	WriteText(&buf, s)
	assert.Contains(t, buf.String(), "grew by: 200 B")
}

// TestWriteJSON verifies the document round trips.
func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleSummary()))

	var decoded model.RunSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "png", decoded.Operation)
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, model.ActionFailed, decoded.Results[1].Action)
}

// TestWriteYAMLFile verifies the report file lands with the per-file
// breakdown intact.
func TestWriteYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	require.NoError(t, WriteYAMLFile(path, sampleSummary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded model.RunSummary
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "png", decoded.Operation)
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, "a.png", decoded.Results[0].Path)
	assert.EqualValues(t, 400, decoded.Results[0].BytesAfter)
}
