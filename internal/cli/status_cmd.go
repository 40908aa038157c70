package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comfyhub-org/comfygit/internal/envstate"
	"github.com/comfyhub-org/comfygit/internal/workspace"
)

func newStatusCmd(workspaceRoot *string) *cobra.Command {
	var envName string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show an environment's drift against its manifest and git history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := setupAppState(cmd.Context(), *workspaceRoot, false)
			if err != nil {
				return err
			}
			env, err := resolveEnvironment(state, envName)
			if err != nil {
				return err
			}
			engine, err := env.Engine(cmd.Context(), state.WS.Config.GlobalModelsDirectory, workspace.EngineDeps{
				Models: state.Models, Nodes: state.Nodes,
			})
			if err != nil {
				return err
			}
			status, err := engine.Status(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(env.Name, status)
			return nil
		},
	}
	cmd.Flags().StringVar(&envName, "env", "", "environment to inspect (default: active environment)")
	return cmd
}

func printStatus(name string, status envstate.EnvironmentStatus) {
	fmt.Printf("environment %q\n", name)
	if status.Comparison.IsSynced() {
		fmt.Println("  packages: in sync")
	} else {
		fmt.Printf("  packages: %s\n", status.Comparison.PackageSyncNote)
		for _, n := range status.Comparison.MissingNodes {
			fmt.Printf("    missing node: %s\n", n)
		}
		for _, n := range status.Comparison.ExtraNodes {
			fmt.Printf("    extra node: %s\n", n)
		}
		for _, vm := range status.Comparison.VersionMismatches {
			fmt.Printf("    version mismatch: %s expected %s, found %s\n", vm.PackageID, vm.Expected, vm.Actual)
		}
	}
	if status.Git.HasChanges {
		fmt.Println("  git: uncommitted changes")
	} else {
		fmt.Println("  git: clean")
	}
	for wf, state := range status.Workflows.Status {
		fmt.Printf("  workflow %s: %s\n", wf, state)
	}
}
