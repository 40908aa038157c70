package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comfyhub-org/comfygit/internal/workspace"
)

func newRollbackCmd(workspaceRoot *string) *cobra.Command {
	var envName string
	var force bool
	cmd := &cobra.Command{
		Use:   "rollback <version>",
		Short: "Restore the manifest and workflows to a prior committed version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if err := engine.Rollback(cmd.Context(), args[0], force, huhRollbackStrategy{}); err != nil {
				return err
			}
			fmt.Printf("rolled back to %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&envName, "env", "", "environment to roll back (default: active environment)")
	cmd.Flags().BoolVar(&force, "force", false, "discard uncommitted changes without asking")
	return cmd
}
