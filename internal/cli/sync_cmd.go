package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comfyhub-org/comfygit/internal/envstate"
	"github.com/comfyhub-org/comfygit/internal/workspace"
)

func newSyncCmd(workspaceRoot *string) *cobra.Command {
	var envName string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Bring an environment's packages and custom nodes in line with its manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := setupAppState(cmd.Context(), *workspaceRoot, false)
			if err != nil {
				return err
			}
			env, err := resolveEnvironment(state, envName)
			if err != nil {
				return err
			}
			release, err := env.Lock(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			engine, err := env.Engine(cmd.Context(), state.WS.Config.GlobalModelsDirectory, workspace.EngineDeps{
				Models: state.Models, Nodes: state.Nodes,
			})
			if err != nil {
				return err
			}
			result, err := engine.Sync(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			printSyncResult(result, dryRun)
			return nil
		},
	}
	cmd.Flags().StringVar(&envName, "env", "", "environment to sync (default: active environment)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without changing anything")
	return cmd
}

func printSyncResult(result *envstate.SyncResult, dryRun bool) {
	verb := "synced"
	if dryRun {
		verb = "would sync"
	}
	if result.PackagesSynced {
		fmt.Printf("packages %s\n", verb)
	}
	for _, n := range result.NodesInstalled {
		fmt.Printf("node installed: %s\n", n)
	}
	for _, n := range result.NodesRemoved {
		fmt.Printf("node removed: %s\n", n)
	}
	for _, n := range result.NodesDisabled {
		fmt.Printf("node disabled: %s\n", n)
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	if result.Success {
		fmt.Println("sync complete")
	} else {
		fmt.Println("sync completed with errors")
	}
}
