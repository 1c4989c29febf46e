package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/foptimizer/foptimizer/internal/model"
)

// Runner executes an external tool invocation. Two implementations exist:
// LocalRunner (direct os/exec) and ContainerRunner (docker run inside the
// pinned tools image). Pipelines depend only on this interface so tests
// can substitute a fake.
type Runner interface {
	// Run executes the tool with the given arguments. workDir is the
	// directory all relative file arguments are resolved against; for the
	// container runner it is also the bind mount root, so callers must
	// pass file paths relative to it.
	Run(ctx context.Context, tool model.Tool, workDir string, args ...string) error

	// Output executes the tool and returns its standard output. Used for
	// version probing by "doctor".
	Output(ctx context.Context, tool model.Tool, workDir string, args ...string) (string, error)
}

// LocalRunner executes tools directly on the host.
type LocalRunner struct {
	// chain resolves tool names to binary paths.
	chain *Toolchain
}

// NewLocalRunner creates a LocalRunner backed by the given toolchain.
func NewLocalRunner(chain *Toolchain) *LocalRunner {
	return &LocalRunner{chain: chain}
}

// Run executes the tool, discarding stdout. Stderr is captured and folded
// into the error on failure so the user sees the encoder's own diagnostic.
func (r *LocalRunner) Run(ctx context.Context, tool model.Tool, workDir string, args ...string) error {
	_, err := r.run(ctx, tool, workDir, args)
	return err
}

// Output executes the tool and returns trimmed stdout.
func (r *LocalRunner) Output(ctx context.Context, tool model.Tool, workDir string, args ...string) (string, error) {
	out, err := r.run(ctx, tool, workDir, args)
	return strings.TrimSpace(out), err
}

// run is the shared execution path. On success it returns stdout; on
// failure it returns a model.CLIError with ExitToolFailed that includes
// the tool's stderr output for diagnostics.
func (r *LocalRunner) run(ctx context.Context, tool model.Tool, workDir string, args []string) (string, error) {
	bin, err := r.chain.Resolve(tool)
	if err != nil {
		return "", err
	}

	// #nosec G204: the binary path comes from toolchain resolution and
	// args are constructed internally, not from untrusted input.
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = workDir

	// Capture stdout and stderr separately so stderr can be included in
	// error messages while stdout is returned on success.
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if runErr := cmd.Run(); runErr != nil {
		message := fmt.Sprintf("%s %s failed", tool, strings.Join(args, " "))
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return "", model.WrapCLIError(model.ExitToolFailed, message, runErr)
	}

	return stdout.String(), nil
}

// ContainerRunner executes tools inside a pinned tools image via
// "docker run --rm". The work directory is bind-mounted at a fixed path
// so the tool sees the same relative layout the host does.
//
// The SDK client is used for socket detection, daemon ping and image
// presence; the actual run shells out to the docker CLI, which accepts
// the same flags users already know and avoids hand-building the SDK's
// Config/HostConfig structs for a one-shot process.
type ContainerRunner struct {
	// image is the tools image reference, e.g. "ghcr.io/foptimizer/tools:1.2".
	image string
}

// containerWorkDir is where the host work directory is mounted inside
// the tools container.
const containerWorkDir = "/work"

// NewContainerRunner verifies the Docker daemon is reachable and the
// tools image is present, then returns a runner bound to that image.
//
// Returns a model.CLIError with ExitDockerNotRunning when the daemon is
// unreachable, and ExitToolchainMissing when the image has not been
// pulled; from the user's point of view a missing image is a missing
// toolchain.
func NewContainerRunner(ctx context.Context, imageRef string) (*ContainerRunner, error) {
	cli, err := NewDockerClient()
	if err != nil {
		return nil, err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return nil, err
	}

	present, err := cli.HasImage(ctx, imageRef)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, model.NewCLIError(
			model.ExitToolchainMissing,
			fmt.Sprintf("tools image %q is not present; run \"foptimizer doctor --pull\" first", imageRef),
		)
	}

	return &ContainerRunner{image: imageRef}, nil
}

// Run executes the tool inside the container with workDir bind-mounted.
func (r *ContainerRunner) Run(ctx context.Context, tool model.Tool, workDir string, args ...string) error {
	_, err := r.run(ctx, tool, workDir, args)
	return err
}

// Output executes the tool inside the container and returns trimmed stdout.
func (r *ContainerRunner) Output(ctx context.Context, tool model.Tool, workDir string, args ...string) (string, error) {
	out, err := r.run(ctx, tool, workDir, args)
	return strings.TrimSpace(out), err
}

// run builds and executes the "docker run" invocation:
//
//	docker run --rm -v <workDir>:/work -w /work <image> <tool> <args...>
//
// The container is removed on exit (--rm); tool invocations are one-shot
// and keep no state.
func (r *ContainerRunner) run(ctx context.Context, tool model.Tool, workDir string, args []string) (string, error) {
	absWork, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve work directory: %w", err)
	}

	dockerArgs := make([]string, 0, len(args)+9)
	dockerArgs = append(dockerArgs,
		"run", "--rm",
		"-v", absWork+":"+containerWorkDir,
		"-w", containerWorkDir,
		r.image,
		tool.String(),
	)
	dockerArgs = append(dockerArgs, args...)

	cmd := exec.CommandContext(ctx, "docker", dockerArgs...)
	cmd.Env = os.Environ()

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if runErr := cmd.Run(); runErr != nil {
		message := fmt.Sprintf("%s failed in container %s", tool, r.image)
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return "", model.WrapCLIError(model.ExitToolFailed, message, runErr)
	}

	return stdout.String(), nil
}
