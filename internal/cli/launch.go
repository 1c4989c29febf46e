// Package cli — launch.go implements the "foptimizer launch" command.
//
// Launch is the bootstrapper the GUI shortcut points at. It prepares
// the environment in a fixed order and then gets out of the way:
//
//  1. Find and load the project manifest (foptimizer.jsonc). A missing
//     manifest is fatal with its own exit code.
//  2. Create the isolated tool workspace directory if absent.
//  3. Verify the encoder toolchain resolves, on every run, so a tool
//     deleted since the last launch is caught now and not mid-batch.
//  4. Export FOPTIMIZER_TOOLS so the GUI and its children resolve the
//     same binaries.
//  5. Spawn the GUI exactly once as a detached process and exit
//     immediately without waiting for it.
//
// The two fatal failure modes (toolchain missing, manifest missing)
// carry distinct exit codes; Execute additionally pauses for
// acknowledgment on them when running interactively.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foptimizer/foptimizer/internal/config"
	"github.com/foptimizer/foptimizer/internal/toolchain"
)

// NewLaunchCommand creates the "launch" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewLaunchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Bootstrap the toolchain and start the GUI",
		Long: `Prepare the foptimizer environment and start the GUI front-end.

The command requires a foptimizer.jsonc manifest in the current
directory or any parent. It creates the tool workspace directory on
first run, verifies the encoder toolchain on every run, exports
FOPTIMIZER_TOOLS for the GUI process, and exits as soon as the GUI is
spawned.

Examples:
  foptimizer launch
  foptimizer launch --no-prompt`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch()
		},
	}

	return cmd
}

// runLaunch is the main logic function for the launch command.
func runLaunch() error {
	// Step 1: The manifest is mandatory for launch. Find walks upward
	// from the working directory like go.mod discovery.
	manifestPath, err := config.Find(".")
	if err != nil {
		return err
	}
	manifest, err := config.Load(manifestPath)
	if err != nil {
		return err
	}
	VerboseLog("Manifest: %s", manifestPath)

	// Step 2: Ensure the tool workspace exists. First run creates it.
	chain := toolchain.New(manifest)
	created, err := chain.Bootstrap()
	if err != nil {
		return err
	}
	if created {
		VerboseLog("Created tool workspace %s", chain.Workspace())
	} else {
		VerboseLog("Tool workspace: %s", chain.Workspace())
	}

	// Step 3: Verify the required tools resolve. This runs on every
	// launch, not just the first: the workspace existing says nothing
	// about the binaries inside it still being there.
	if err := chain.Verify(); err != nil {
		return err
	}
	VerboseLog("Toolchain verified")

	// Step 4 and 5: Spawn the GUI detached with FOPTIMIZER_TOOLS
	// exported, from the workspace root, then report and return. The
	// launcher's exit is not tied to the GUI's lifetime.
	env := map[string]string{
		toolchain.EnvToolsDir: chain.Workspace(),
	}
	pid, err := toolchain.SpawnDetached(manifest.Dir(), manifest.GUI, env)
	if err != nil {
		return err
	}

	printLaunchResult(manifest.GUI[0], pid, chain.Workspace(), created)
	return nil
}

// printLaunchResult outputs the launch result in text or JSON format.
func printLaunchResult(program string, pid int, workspace string, created bool) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"program":          program,
			"pid":              pid,
			"toolsDir":         workspace,
			"workspaceCreated": created,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if created {
		fmt.Printf("Initialized tool workspace %s\n", workspace)
	}
	fmt.Printf("Started %s (pid %d)\n", program, pid)
}
