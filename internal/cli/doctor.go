// Package cli — doctor.go implements the "foptimizer doctor" command.
//
// Doctor reports the health of the external toolchain: where each tool
// resolved from, its version banner, and (in container runner mode)
// whether the Docker daemon is reachable and the tools image present.
// It never fails on a missing optional tool; the point is the report.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foptimizer/foptimizer/internal/config"
	"github.com/foptimizer/foptimizer/internal/model"
	"github.com/foptimizer/foptimizer/internal/toolchain"
)

// NewDoctorCommand creates the "doctor" cobra command.
func NewDoctorCommand() *cobra.Command {
	var pull bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the external toolchain",
		Long: `Inspect the encoder toolchain and report each tool's resolution and
version. In container runner mode the Docker daemon and the tools
image are checked instead; --pull fetches the image when absent.

Examples:
  foptimizer doctor
  foptimizer doctor --json
  foptimizer doctor --pull`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), pull)
		},
	}

	cmd.Flags().BoolVar(&pull, "pull", false, "Pull the tools image if it is missing (container mode)")

	return cmd
}

// doctorReport is the structured result of a doctor run.
type doctorReport struct {
	Runner     string                 `json:"runner"`
	ToolsImage string                 `json:"toolsImage,omitempty"`
	Docker     string                 `json:"docker,omitempty"`
	Tools      []toolchain.ToolStatus `json:"tools,omitempty"`
}

// runDoctor is the main logic function for the doctor command.
func runDoctor(ctx context.Context, pull bool) error {
	manifest := loadManifestOptional()
	mode, err := manifest.RunnerMode()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid manifest", err)
	}

	rep := doctorReport{Runner: mode.String()}

	if mode == model.RunnerContainer {
		if err := doctorContainer(ctx, manifest, pull, &rep); err != nil {
			return err
		}
	} else {
		chain := toolchain.New(manifest)
		runner := toolchain.NewLocalRunner(chain)
		rep.Tools = chain.Inspect(ctx, runner, manifest.Dir())
	}

	printDoctorReport(&rep)

	// Missing required tools make doctor exit nonzero so scripts can
	// gate on it, after the full report has been printed.
	for _, s := range rep.Tools {
		if s.Required && !s.Found() {
			return model.NewCLIError(model.ExitToolchainMissing,
				fmt.Sprintf("required tool %s is missing", s.Tool))
		}
	}
	return nil
}

// doctorContainer checks daemon reachability and image presence, pulling
// the image when asked.
func doctorContainer(ctx context.Context, manifest *config.Manifest, pull bool, rep *doctorReport) error {
	rep.ToolsImage = manifest.ToolsImage

	cli, err := toolchain.NewDockerClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	rep.Docker = "reachable"

	present, err := cli.HasImage(ctx, manifest.ToolsImage)
	if err != nil {
		return err
	}
	if !present && pull {
		VerboseLog("Pulling %s...", manifest.ToolsImage)
		if err := cli.PullImage(ctx, manifest.ToolsImage); err != nil {
			return err
		}
		present = true
	}
	if !present {
		return model.NewCLIError(model.ExitToolchainMissing,
			fmt.Sprintf("tools image %q is not present (use --pull to fetch it)", manifest.ToolsImage))
	}

	// Version probing goes through the container runner, so the report
	// shows what a batch run would actually execute.
	runner, err := toolchain.NewContainerRunner(ctx, manifest.ToolsImage)
	if err != nil {
		return err
	}
	chain := toolchain.New(manifest)
	rep.Tools = containerInspect(ctx, chain, runner, manifest.Dir())
	return nil
}

// containerInspect probes versions inside the image. Host-side path
// resolution is meaningless in container mode, so each tool reports the
// image as its location.
func containerInspect(ctx context.Context, chain *toolchain.Toolchain, runner toolchain.Runner, workDir string) []toolchain.ToolStatus {
	statuses := make([]toolchain.ToolStatus, 0, len(model.AllTools()))
	for _, tool := range model.AllTools() {
		status := toolchain.ToolStatus{Tool: tool, Required: tool.Required(), Path: "(container)"}
		if out, err := runner.Output(ctx, tool, workDir, toolchain.VersionArg(tool)); err == nil {
			status.Version = out
		} else if tool.Required() {
			status.Err = err.Error()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// printDoctorReport outputs the report in text or JSON format.
func printDoctorReport(rep *doctorReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(rep, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Runner: %s\n", rep.Runner)
	if rep.ToolsImage != "" {
		fmt.Printf("Tools image: %s\n", rep.ToolsImage)
	}
	if rep.Docker != "" {
		fmt.Printf("Docker: %s\n", rep.Docker)
	}

	fmt.Println("Tools:")
	for _, s := range rep.Tools {
		requirement := "optional"
		if s.Required {
			requirement = "required"
		}
		switch {
		case !s.Found():
			fmt.Printf("  %-10s %-9s MISSING (%s)\n", s.Tool, requirement, s.Err)
		case s.Version != "":
			fmt.Printf("  %-10s %-9s %s (%s)\n", s.Tool, requirement, s.Path, s.Version)
		default:
			fmt.Printf("  %-10s %-9s %s\n", s.Tool, requirement, s.Path)
		}
	}
}
