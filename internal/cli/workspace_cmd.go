package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWorkspaceCmd(workspaceRoot *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage the comfygit workspace",
	}
	cmd.AddCommand(newWorkspaceInitCmd(workspaceRoot))
	cmd.AddCommand(newWorkspaceModelsDirCmd(workspaceRoot))
	return cmd
}

func newWorkspaceInitCmd(workspaceRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the workspace directory tree if it doesn't already exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := setupAppState(cmd.Context(), *workspaceRoot, true)
			if err != nil {
				return err
			}
			fmt.Printf("workspace ready at %s\n", state.WS.Paths.Root)
			return nil
		},
	}
}

func newWorkspaceModelsDirCmd(workspaceRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-models-dir <path>",
		Short: "Point the workspace at a shared models directory every environment symlinks into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := setupAppState(cmd.Context(), *workspaceRoot, false)
			if err != nil {
				return err
			}
			if err := state.WS.SetGlobalModelsDirectory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("global models directory set to %s\n", state.WS.Config.GlobalModelsDirectory)
			return nil
		},
	}
}
