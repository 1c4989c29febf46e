// Package config handles loading the foptimizer.jsonc project manifest.
//
// The manifest declares where the external encoder toolchain lives, how it
// should be executed (directly or inside a tools container image), which
// command launches the GUI front-end, and the default knobs for the batch
// pipelines. The file format is JSONC (JSON with Comments) so a shipped
// manifest can document its own fields; github.com/tidwall/jsonc strips
// comments and trailing commas before the standard encoding/json parse.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/foptimizer/foptimizer/internal/model"
)

// ManifestName is the canonical manifest file name, looked up in the
// workspace root by Find.
const ManifestName = "foptimizer.jsonc"

// Defaults applied when the manifest omits a field (or when a batch
// command runs without any manifest at all).
const (
	// DefaultPNGLevel is oxipng's own default effort level.
	DefaultPNGLevel = 6

	// DefaultOggQuality matches the original encoder default: highest
	// quality the -q scale offers is 10, and asset repacks generally keep
	// it there and win on container overhead alone.
	DefaultOggQuality = 10

	// DefaultToolsImage is the container image used by the container
	// runner when the manifest does not pin one.
	DefaultToolsImage = "ghcr.io/foptimizer/tools:latest"

	// DefaultGUICommand is the GUI entry point spawned by "launch" when
	// the manifest does not override it.
	DefaultGUICommand = "foptimizer-gui"
)

// Manifest is the parsed foptimizer.jsonc. Every field is optional; the
// zero value plus Normalize yields a usable default configuration. Only
// the presence of the file itself is mandatory for "launch".
type Manifest struct {
	// Runner selects tool execution: "local" (default) or "container".
	Runner string `json:"runner,omitempty"`

	// ToolsDir is the isolated tool workspace directory. Relative paths
	// are resolved against the manifest's directory. Empty means the
	// per-user default (see toolchain.DefaultWorkspace).
	ToolsDir string `json:"toolsDir,omitempty"`

	// ToolsImage is the container image holding the encoder toolchain.
	// Only consulted in container runner mode.
	ToolsImage string `json:"toolsImage,omitempty"`

	// Tools maps a tool name (oxipng, oggenc2, pngquant, crowbar) to an
	// explicit binary path, overriding workspace and PATH lookup.
	Tools map[string]string `json:"tools,omitempty"`

	// GUI is the command line spawned by "launch". The first element is
	// the program, the rest are arguments.
	GUI []string `json:"gui,omitempty"`

	// PNG holds defaults for the PNG pipeline.
	PNG PNGOptions `json:"png,omitempty"`

	// Audio holds defaults for the WAV→OGG pipeline.
	Audio AudioOptions `json:"audio,omitempty"`

	// Workers caps the batch worker pool. Zero means derive from the
	// available CPU count.
	Workers int `json:"workers,omitempty"`

	// path is where the manifest was loaded from. Empty for defaults
	// constructed without a file.
	path string
}

// PNGOptions are the manifest defaults for "foptimizer png". Level and
// Lossless are pointers so an explicit zero or false in the manifest is
// distinguishable from an absent key; Normalize fills nil with defaults.
type PNGOptions struct {
	// Level is the oxipng effort level (0-6).
	Level *int `json:"level,omitempty"`

	// Lossless keeps all safe metadata; when false the encoder is allowed
	// to strip everything and reduce bit depth / color type / palette.
	Lossless *bool `json:"lossless,omitempty"`
}

// AudioOptions are the manifest defaults for "foptimizer audio". Quality
// is a pointer for the same reason as PNGOptions: 0 is a valid level on
// the -1..10 scale and must survive loading.
type AudioOptions struct {
	// Quality is the Vorbis -q level (-1 to 10).
	Quality *int `json:"quality,omitempty"`

	// RemoveSource deletes each WAV after a successful conversion.
	RemoveSource bool `json:"removeSource,omitempty"`
}

// Default returns a manifest with all defaults applied and no backing file.
// Batch commands use this when no manifest is present; "launch" refuses to.
func Default() *Manifest {
	m := &Manifest{}
	m.Normalize()
	return m
}

// Load reads and parses a manifest file.
//
// Returns a CLIError with ExitManifestMissing if the file does not exist,
// because a missing manifest is one of the two fatal launch failure modes
// and the exit code must distinguish it.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitManifestMissing,
				fmt.Sprintf("manifest not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// parsing. Shipped manifests document their knobs inline, so real
	// files always contain comments.
	cleanJSON := jsonc.ToJSON(data)

	var m Manifest
	if err := json.Unmarshal(cleanJSON, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest at %s: %w", path, err)
	}

	m.path = path
	m.Normalize()
	return &m, nil
}

// Find locates the manifest by walking from dir upward to the filesystem
// root, mirroring how build tools find go.mod. Returns the manifest path,
// or a CLIError with ExitManifestMissing if no manifest exists anywhere
// above dir.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, ManifestName)
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without finding a manifest.
			return "", model.NewCLIError(
				model.ExitManifestMissing,
				fmt.Sprintf("no %s found in or above the working directory", ManifestName),
			)
		}
		dir = parent
	}
}

// Normalize fills unset fields with defaults and resolves relative paths
// against the manifest's directory. Safe to call on a zero Manifest.
func (m *Manifest) Normalize() {
	if m.Runner == "" {
		m.Runner = model.RunnerLocal.String()
	}
	if m.ToolsImage == "" {
		m.ToolsImage = DefaultToolsImage
	}
	if len(m.GUI) == 0 {
		m.GUI = []string{DefaultGUICommand}
	}
	if m.PNG.Level == nil {
		level := DefaultPNGLevel
		m.PNG.Level = &level
	}
	if m.PNG.Lossless == nil {
		lossless := true
		m.PNG.Lossless = &lossless
	}
	if m.Audio.Quality == nil {
		quality := DefaultOggQuality
		m.Audio.Quality = &quality
	}

	// Resolve a relative toolsDir against the manifest location so the
	// manifest behaves the same regardless of the invocation directory.
	if m.ToolsDir != "" && !filepath.IsAbs(m.ToolsDir) && m.path != "" {
		m.ToolsDir = filepath.Join(filepath.Dir(m.path), m.ToolsDir)
	}
}

// RunnerMode returns the typed runner mode declared by the manifest.
func (m *Manifest) RunnerMode() (model.RunnerMode, error) {
	return model.ParseRunnerMode(m.Runner)
}

// Path returns the file the manifest was loaded from, or "" for a
// default-constructed manifest.
func (m *Manifest) Path() string {
	return m.path
}

// Dir returns the manifest's directory, the workspace root. Falls back
// to "." for a default-constructed manifest.
func (m *Manifest) Dir() string {
	if m.path == "" {
		return "."
	}
	return filepath.Dir(m.path)
}

// ToolOverride returns the explicit binary path configured for a tool,
// or "" when the manifest leaves resolution to the toolchain.
func (m *Manifest) ToolOverride(tool model.Tool) string {
	if m.Tools == nil {
		return ""
	}
	return m.Tools[tool.String()]
}
