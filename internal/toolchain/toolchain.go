package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/foptimizer/foptimizer/internal/config"
	"github.com/foptimizer/foptimizer/internal/model"
)

// EnvToolsDir is the environment variable exported by "launch" and
// honored during resolution. It points at the isolated tool workspace
// directory, so the spawned GUI and any child invocations resolve the
// same binaries as the launcher.
const EnvToolsDir = "FOPTIMIZER_TOOLS"

// Toolchain resolves tool names to runnable binaries.
//
// Resolution order per tool:
//  1. explicit path from the manifest ("tools" map)
//  2. the tool workspace directory (manifest toolsDir, then the
//     FOPTIMIZER_TOOLS environment variable)
//  3. the system PATH
//
// In container runner mode resolution is skipped entirely; the tools
// live inside the image.
type Toolchain struct {
	// overrides maps tool → explicit binary path from the manifest.
	overrides map[model.Tool]string

	// workspace is the isolated tool directory, or "" when unset.
	workspace string
}

// New builds a Toolchain from the manifest. The workspace directory is
// taken from the manifest's toolsDir, the FOPTIMIZER_TOOLS variable, or
// the per-user default, in that order; it is recorded but not created.
// Bootstrap does that.
func New(m *config.Manifest) *Toolchain {
	overrides := make(map[model.Tool]string)
	for _, tool := range model.AllTools() {
		if p := m.ToolOverride(tool); p != "" {
			overrides[tool] = p
		}
	}

	workspace := m.ToolsDir
	if workspace == "" {
		workspace = os.Getenv(EnvToolsDir)
	}
	if workspace == "" {
		workspace = DefaultWorkspace()
	}

	return &Toolchain{
		overrides: overrides,
		workspace: workspace,
	}
}

// DefaultWorkspace returns the per-user tool workspace directory:
// <user config dir>/foptimizer/tools, falling back to ".foptimizer/tools"
// under the current directory when the platform config dir is unknown.
func DefaultWorkspace() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".foptimizer", "tools")
	}
	return filepath.Join(base, "foptimizer", "tools")
}

// Workspace returns the tool workspace directory this chain resolves
// against.
func (t *Toolchain) Workspace() string {
	return t.workspace
}

// Bootstrap ensures the tool workspace directory exists, creating it
// (and parents) when absent. Returns true when the directory was created
// by this call, so "launch" can report first-run setup distinctly.
func (t *Toolchain) Bootstrap() (created bool, err error) {
	info, statErr := os.Stat(t.workspace)
	if statErr == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("tool workspace %s exists but is not a directory", t.workspace)
		}
		return false, nil
	}
	if !os.IsNotExist(statErr) {
		return false, fmt.Errorf("failed to stat tool workspace: %w", statErr)
	}

	if mkErr := os.MkdirAll(t.workspace, 0o755); mkErr != nil {
		return false, fmt.Errorf("failed to create tool workspace %s: %w", t.workspace, mkErr)
	}
	return true, nil
}

// Resolve returns the binary path for a tool, following the resolution
// order documented on Toolchain.
//
// Returns a model.CLIError with ExitToolchainMissing when the tool cannot
// be found anywhere; the caller decides whether that is fatal (required
// tools during launch) or informational (doctor output).
func (t *Toolchain) Resolve(tool model.Tool) (string, error) {
	// 1. Manifest override wins unconditionally; a broken override is an
	// error the user explicitly asked for, so it is not silently skipped.
	if override, ok := t.overrides[tool]; ok {
		if isExecutable(override) {
			return override, nil
		}
		return "", model.NewCLIError(
			model.ExitToolchainMissing,
			fmt.Sprintf("manifest pins %s to %q but no executable exists there", tool, override),
		)
	}

	// 2. The tool workspace directory.
	if t.workspace != "" {
		candidate := filepath.Join(t.workspace, binaryName(tool))
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	// 3. The system PATH.
	if path, err := exec.LookPath(tool.String()); err == nil {
		return path, nil
	}

	return "", model.NewCLIError(
		model.ExitToolchainMissing,
		fmt.Sprintf("%s not found in the manifest, the tool workspace (%s), or PATH", tool, t.workspace),
	)
}

// Verify resolves every required tool and returns the first failure.
// "launch" calls this on every run, also when the workspace already
// existed, which is the analogue of the original launcher re-running
// its dependency install step on every start.
func (t *Toolchain) Verify() error {
	for _, tool := range model.AllTools() {
		if !tool.Required() {
			continue
		}
		if _, err := t.Resolve(tool); err != nil {
			return err
		}
	}
	return nil
}

// ToolStatus describes one tool's resolution for "doctor" output.
type ToolStatus struct {
	Tool     model.Tool `json:"tool"`
	Required bool       `json:"required"`
	Path     string     `json:"path,omitempty"`
	Version  string     `json:"version,omitempty"`
	Err      string     `json:"error,omitempty"`
}

// Found reports whether the tool resolved to a binary.
func (s *ToolStatus) Found() bool {
	return s.Err == ""
}

// Inspect resolves every known tool and probes its version through the
// given runner. Version probe failures are non-fatal; the binary may be
// a build that predates the version flag.
func (t *Toolchain) Inspect(ctx context.Context, runner Runner, workDir string) []ToolStatus {
	statuses := make([]ToolStatus, 0, len(model.AllTools()))
	for _, tool := range model.AllTools() {
		status := ToolStatus{Tool: tool, Required: tool.Required()}

		path, err := t.Resolve(tool)
		if err != nil {
			status.Err = err.Error()
			statuses = append(statuses, status)
			continue
		}
		status.Path = path

		if out, verr := runner.Output(ctx, tool, workDir, VersionArg(tool)); verr == nil {
			status.Version = firstLine(out)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// binaryName appends the platform executable suffix.
func binaryName(tool model.Tool) string {
	if runtime.GOOS == "windows" {
		return tool.String() + ".exe"
	}
	return tool.String()
}

// VersionArg returns the flag that makes a tool print its version.
// oggenc2 uses a single-dash long flag; the rest follow GNU convention.
func VersionArg(tool model.Tool) string {
	if tool == model.ToolOggenc {
		return "-version"
	}
	return "--version"
}

// firstLine trims a possibly multi-line tool banner down to its first line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// isExecutable reports whether path names a regular file. Execute
// permission bits are not checked because they do not exist on Windows
// and a mode-stripped binary on Unix will fail loudly at exec time anyway.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
