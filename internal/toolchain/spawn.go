package toolchain

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/foptimizer/foptimizer/internal/model"
)

// SpawnDetached starts the GUI entry point as a background process and
// returns without waiting for it. The launcher's own exit is not gated
// on the GUI's lifetime.
//
// The command runs in workDir with the current environment plus the
// given extra variables (notably FOPTIMIZER_TOOLS). Stdout and stderr
// are left unwired: the GUI owns its own logging, and inheriting the
// launcher's terminal would keep the terminal busy after the launcher
// exits.
//
// Returns the child PID on success, or a CLIError with ExitGeneralError
// when the program cannot be started at all (e.g. the GUI binary is not
// installed).
func SpawnDetached(workDir string, command []string, extraEnv map[string]string) (int, error) {
	if len(command) == 0 {
		return 0, model.NewCLIError(model.ExitGeneralError, "no GUI command configured")
	}

	// #nosec G204: the command comes from the project manifest.
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = workDir

	cmd.Env = os.Environ()
	for k, v := range extraEnv {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Start(); err != nil {
		return 0, model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to start GUI %q", command[0]),
			err,
		)
	}

	pid := cmd.Process.Pid

	// Release detaches the child so it is not reparented to a zombie when
	// the launcher exits without calling Wait.
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release GUI process: %w", err)
	}

	return pid, nil
}
