// Package report renders batch run summaries: a human-readable text
// block, a machine-readable JSON document, and an optional YAML report
// file with the per-file breakdown.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/foptimizer/foptimizer/internal/batch"
	"github.com/foptimizer/foptimizer/internal/model"
)

// WriteText renders the summary for terminal output.
func WriteText(w io.Writer, s *model.RunSummary) {
	fmt.Fprintf(w, "%s: %d file(s) processed in %s\n", s.Operation, s.Processed(), s.Duration.Round(1e6))
	if failed := s.Failed(); failed > 0 {
		fmt.Fprintf(w, "  failed:  %d\n", failed)
		for i := range s.Results {
			if s.Results[i].Action == model.ActionFailed {
				fmt.Fprintf(w, "    %s: %s\n", s.Results[i].Path, s.Results[i].Detail)
			}
		}
	}

	before := s.BytesBefore()
	after := s.BytesAfter()
	fmt.Fprintf(w, "  before:  %s\n", humanize.Bytes(uint64(before)))
	fmt.Fprintf(w, "  after:   %s\n", humanize.Bytes(uint64(after)))

	saved := s.Saved()
	switch {
	case before > 0 && saved >= 0:
		fmt.Fprintf(w, "  saved:   %s (%.1f%%)\n", humanize.Bytes(uint64(saved)), float64(saved)/float64(before)*100)
	case saved < 0:
		fmt.Fprintf(w, "  grew by: %s\n", humanize.Bytes(uint64(-saved)))
	}
}

// WriteJSON renders the summary as an indented JSON document, the
// --json counterpart of WriteText.
func WriteJSON(w io.Writer, s *model.RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteYAMLFile persists the full summary, per-file results included,
// to the given path. Used by the --report flag.
func WriteYAMLFile(path string, s *model.RunSummary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := batch.EnsureParent(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
