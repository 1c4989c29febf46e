package model

import (
	"fmt"
	"strings"
	"time"
)

// Tool identifies an external command-line encoder or converter that
// foptimizer delegates to. The actual binaries are resolved at runtime
// by the toolchain package; this type only names them.
type Tool string

const (
	// ToolOxipng is the PNG recompressor. Required for "foptimizer png".
	ToolOxipng Tool = "oxipng"

	// ToolOggenc is the OGG Vorbis encoder (oggenc2). Required for
	// "foptimizer audio".
	ToolOggenc Tool = "oggenc2"

	// ToolPngquant is the lossy PNG palette quantizer. Optional; surfaced
	// by "foptimizer doctor" but not invoked by any pipeline yet.
	ToolPngquant Tool = "pngquant"

	// ToolCrowbar is the model decompiler (Crowbar command line / NekoMDL).
	// Optional; surfaced by "foptimizer doctor" only.
	ToolCrowbar Tool = "crowbar"
)

// String returns the tool's binary base name.
// This method satisfies the fmt.Stringer interface.
func (t Tool) String() string {
	return string(t)
}

// Required reports whether a missing resolution for this tool should be
// treated as a broken toolchain. Optional tools merely degrade "doctor"
// output.
func (t Tool) Required() bool {
	switch t {
	case ToolOxipng, ToolOggenc:
		return true
	default:
		return false
	}
}

// AllTools lists every tool foptimizer knows about, required first.
// The order is significant for "doctor" output.
func AllTools() []Tool {
	return []Tool{ToolOxipng, ToolOggenc, ToolPngquant, ToolCrowbar}
}

// RunnerMode selects how external tools are executed.
type RunnerMode string

const (
	// RunnerLocal executes tool binaries directly on the host via os/exec.
	RunnerLocal RunnerMode = "local"

	// RunnerContainer executes tools inside a pinned tools image via
	// "docker run --rm", with the working directory bind-mounted. This is
	// the escape hatch for platforms where an encoder (notably oggenc2)
	// has no native build.
	RunnerContainer RunnerMode = "container"
)

// String returns the string representation of RunnerMode.
func (m RunnerMode) String() string {
	return string(m)
}

// IsValid checks whether the RunnerMode value is one of the predefined
// valid modes.
func (m RunnerMode) IsValid() bool {
	switch m {
	case RunnerLocal, RunnerContainer:
		return true
	default:
		return false
	}
}

// ParseRunnerMode converts a string to a RunnerMode.
// Returns an error if the string does not match any valid mode.
func ParseRunnerMode(s string) (RunnerMode, error) {
	mode := RunnerMode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid runner mode: %q (valid: local, container)", s)
	}
	return mode, nil
}

// FileAction describes what a batch operation did to a single file.
type FileAction string

const (
	// ActionOptimized means the file was rewritten in a smaller or
	// better-fitting representation.
	ActionOptimized FileAction = "optimized"

	// ActionConverted means the file changed container format entirely
	// (e.g. WAV to OGG).
	ActionConverted FileAction = "converted"

	// ActionCopied means the file was carried over unchanged.
	ActionCopied FileAction = "copied"

	// ActionRemoved means the file was deleted from the input tree.
	ActionRemoved FileAction = "removed"

	// ActionSkipped means the operation decided the file needs no change.
	// The file is still written to the output tree when one is in use.
	ActionSkipped FileAction = "skipped"

	// ActionFailed means the per-file operation returned an error.
	// Batch runs record failures and continue.
	ActionFailed FileAction = "failed"
)

// String returns the string representation of FileAction.
func (a FileAction) String() string {
	return string(a)
}

// FileResult records the outcome of one file within a batch run.
type FileResult struct {
	// Path is the input file path, relative to the batch input root
	// where possible so reports stay readable.
	Path string `json:"path" yaml:"path"`

	// Action is what happened to the file.
	Action FileAction `json:"action" yaml:"action"`

	// BytesBefore is the file size before the operation.
	BytesBefore int64 `json:"bytesBefore" yaml:"bytesBefore"`

	// BytesAfter is the size of the produced file. Zero for removed files.
	BytesAfter int64 `json:"bytesAfter" yaml:"bytesAfter"`

	// Detail carries an operation-specific note, e.g. "DXT5 → DXT1"
	// for a format fit or the error text for a failed file.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Saved returns the byte reduction achieved for this file.
// Negative values mean the file grew (possible for already-optimal input
// run through a lossy encoder at a high quality setting).
func (r *FileResult) Saved() int64 {
	return r.BytesBefore - r.BytesAfter
}

// RunSummary aggregates the outcome of a whole batch run.
// It is rendered as text or JSON by the CLI layer, and optionally
// persisted as a YAML report.
type RunSummary struct {
	// Operation is the command that produced this summary,
	// e.g. "png", "vtf fit-alpha", "cull unaccessed".
	Operation string `json:"operation" yaml:"operation"`

	// InputDir and OutputDir are the trees the run read from and wrote to.
	// They are equal for in-place runs.
	InputDir  string `json:"inputDir" yaml:"inputDir"`
	OutputDir string `json:"outputDir" yaml:"outputDir"`

	// Results holds one entry per file the run touched.
	Results []FileResult `json:"results,omitempty" yaml:"results,omitempty"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Add appends a file result to the summary.
func (s *RunSummary) Add(r FileResult) {
	s.Results = append(s.Results, r)
}

// Processed returns the number of files the run touched.
func (s *RunSummary) Processed() int {
	return len(s.Results)
}

// Failed returns the number of files whose per-file operation errored.
func (s *RunSummary) Failed() int {
	n := 0
	for i := range s.Results {
		if s.Results[i].Action == ActionFailed {
			n++
		}
	}
	return n
}

// BytesBefore returns the total input size across all results.
func (s *RunSummary) BytesBefore() int64 {
	var total int64
	for i := range s.Results {
		total += s.Results[i].BytesBefore
	}
	return total
}

// BytesAfter returns the total output size across all results.
func (s *RunSummary) BytesAfter() int64 {
	var total int64
	for i := range s.Results {
		total += s.Results[i].BytesAfter
	}
	return total
}

// Saved returns the total byte reduction across all results.
func (s *RunSummary) Saved() int64 {
	return s.BytesBefore() - s.BytesAfter()
}

// ExitCode defines standard CLI exit codes. These codes allow scripts
// and CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitToolchainMissing indicates a required external tool could not
	// be resolved. This is one of the two fatal launch failure modes.
	ExitToolchainMissing ExitCode = 2

	// ExitManifestMissing indicates the foptimizer.jsonc manifest was not
	// found. This is the other fatal launch failure mode.
	ExitManifestMissing ExitCode = 3

	// ExitInputNotFound indicates the input directory for a batch command
	// does not exist or is not a directory.
	ExitInputNotFound ExitCode = 4

	// ExitToolFailed indicates an external tool was found but its
	// invocation returned a non-zero status.
	ExitToolFailed ExitCode = 5

	// ExitDockerNotRunning indicates container runner mode was requested
	// but the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 6

	// ExitUserCancelled indicates the user cancelled an interactive prompt.
	ExitUserCancelled ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
