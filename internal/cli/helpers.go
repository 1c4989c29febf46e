// Package cli — helpers.go holds the scaffolding shared by the batch
// subcommands: manifest discovery, runner construction, destructive
// operation confirmation, and the run-summary plumbing around a batch
// operation.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/foptimizer/foptimizer/internal/config"
	"github.com/foptimizer/foptimizer/internal/model"
	"github.com/foptimizer/foptimizer/internal/report"
	"github.com/foptimizer/foptimizer/internal/toolchain"
)

// loadManifestOptional finds and loads the nearest manifest above the
// working directory. Batch commands run fine without one, falling back
// to defaults; only "launch" treats a missing manifest as fatal.
func loadManifestOptional() *config.Manifest {
	path, err := config.Find(".")
	if err != nil {
		VerboseLog("No manifest found, using defaults")
		return config.Default()
	}

	m, err := config.Load(path)
	if err != nil {
		VerboseLog("Manifest at %s failed to load (%v), using defaults", path, err)
		return config.Default()
	}

	VerboseLog("Using manifest %s", path)
	return m
}

// newRunner builds the tool runner declared by the manifest. Local mode
// also verifies the required tools resolve, so a missing encoder fails
// before the batch starts instead of on the first file.
func newRunner(ctx context.Context, m *config.Manifest) (toolchain.Runner, error) {
	mode, err := m.RunnerMode()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid manifest", err)
	}

	if mode == model.RunnerContainer {
		VerboseLog("Using container runner with image %s", m.ToolsImage)
		return toolchain.NewContainerRunner(ctx, m.ToolsImage)
	}

	chain := toolchain.New(m)
	if err := chain.Verify(); err != nil {
		return nil, err
	}
	VerboseLog("Using local runner, tool workspace %s", chain.Workspace())
	return toolchain.NewLocalRunner(chain), nil
}

// confirmDestructive prompts before an operation that deletes or
// rewrites files in place. Auto-approves when --no-prompt is set or
// stdin is not a terminal (scripted use), per the same convention as
// the launch acknowledgment.
//
// Returns a CLIError with ExitUserCancelled when the user declines.
func confirmDestructive(action string) error {
	if noPrompt || !stdinIsTerminal() {
		return nil
	}

	fmt.Fprintf(os.Stderr, "%s. Continue? [y/N] ", action)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return model.NewCLIError(model.ExitUserCancelled, "cancelled")
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return model.NewCLIError(model.ExitUserCancelled, "cancelled")
	}
}

// batchFlags are the flags every batch subcommand shares.
type batchFlags struct {
	// output is the tree results are written to; empty means in place.
	output string

	// workers caps the pool; zero derives from the CPU count (or the
	// manifest's workers field).
	workers int

	// reportPath, when set, receives the per-file YAML report.
	reportPath string
}

// outputDir resolves the effective output tree for an input tree.
func (f *batchFlags) outputDir(inputDir string) string {
	if f.output == "" {
		return inputDir
	}
	return f.output
}

// runSummarized times a batch operation, wraps its results in a
// RunSummary and emits it as text or JSON plus the optional YAML
// report file.
func runSummarized(operation, inputDir, outputDir, reportPath string, fn func() ([]model.FileResult, error)) error {
	start := time.Now()
	results, err := fn()
	if err != nil {
		return err
	}

	summary := &model.RunSummary{
		Operation: operation,
		InputDir:  inputDir,
		OutputDir: outputDir,
		Results:   results,
		Duration:  time.Since(start),
	}

	if IsJSONOutput() {
		if err := report.WriteJSON(os.Stdout, summary); err != nil {
			return err
		}
	} else {
		report.WriteText(os.Stdout, summary)
	}

	if reportPath != "" {
		if err := report.WriteYAMLFile(reportPath, summary); err != nil {
			return err
		}
		VerboseLog("Report written to %s", reportPath)
	}

	// A batch that recorded failures succeeded as a process but must not
	// exit zero, or CI would green-light half-converted trees.
	if failed := summary.Failed(); failed > 0 {
		return model.NewCLIError(model.ExitToolFailed,
			fmt.Sprintf("%d of %d file(s) failed", failed, summary.Processed()))
	}
	return nil
}

// progressLog returns a Progress callback that narrates each file in
// verbose mode.
func progressLog() func(done, total int, res model.FileResult) {
	return func(done, total int, res model.FileResult) {
		if res.Detail != "" {
			VerboseLog("[%d/%d] %s: %s (%s)", done, total, res.Path, res.Action, res.Detail)
		} else {
			VerboseLog("[%d/%d] %s: %s", done, total, res.Path, res.Action)
		}
	}
}
