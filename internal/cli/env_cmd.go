package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comfyhub-org/comfygit/internal/workspace"
)

func newEnvCmd(workspaceRoot *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "env",
		Aliases: []string{"environment"},
		Short:   "Create, list, and manage environments",
	}
	cmd.AddCommand(
		newEnvCreateCmd(workspaceRoot),
		newEnvListCmd(workspaceRoot),
		newEnvDeleteCmd(workspaceRoot),
		newEnvActivateCmd(workspaceRoot),
	)
	return cmd
}

func newEnvCreateCmd(workspaceRoot *string) *cobra.Command {
	var pythonVersion, comfyUIRepo, comfyUIRef string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new environment: clone ComfyUI, build its venv, and init its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := setupAppState(cmd.Context(), *workspaceRoot, false)
			if err != nil {
				return err
			}
			env, err := state.WS.CreateEnvironment(cmd.Context(), args[0], workspace.CreateOptions{
				PythonVersion: pythonVersion,
				ComfyUIRepo:   comfyUIRepo,
				ComfyUIRef:    comfyUIRef,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created environment %q at %s\n", env.Name, env.Paths.Root)
			return nil
		},
	}
	cmd.Flags().StringVar(&pythonVersion, "python", "", "Python version to pin (default 3.12)")
	cmd.Flags().StringVar(&comfyUIRepo, "comfyui-repo", "", "ComfyUI repository to clone (default upstream)")
	cmd.Flags().StringVar(&comfyUIRef, "comfyui-ref", "", "ComfyUI branch, tag, or commit to pin")
	return cmd
}

func newEnvListCmd(workspaceRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every environment in the workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := setupAppState(cmd.Context(), *workspaceRoot, false)
			if err != nil {
				return err
			}
			envs, err := state.WS.ListEnvironments()
			if err != nil {
				return err
			}
			active := state.WS.Config.ActiveEnvironment
			for _, env := range envs {
				marker := "  "
				if env.Name == active {
					marker = "* "
				}
				fmt.Printf("%s%s\n", marker, env.Name)
			}
			return nil
		},
	}
}

func newEnvDeleteCmd(workspaceRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Permanently remove an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := setupAppState(cmd.Context(), *workspaceRoot, false)
			if err != nil {
				return err
			}
			if err := state.WS.DeleteEnvironment(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted environment %q\n", args[0])
			return nil
		},
	}
}

func newEnvActivateCmd(workspaceRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <name>",
		Short: "Set the active environment commands default to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := setupAppState(cmd.Context(), *workspaceRoot, false)
			if err != nil {
				return err
			}
			if err := state.WS.SetActiveEnvironment(args[0]); err != nil {
				return err
			}
			fmt.Printf("active environment set to %q\n", args[0])
			return nil
		},
	}
}

// resolveEnvironment opens name, falling back to the workspace's active
// environment when name is empty. Every status/sync/rollback/resolve
// command shares this so "comfygit sync" with no argument operates on
// whatever "env activate" last selected.
func resolveEnvironment(state *appState, name string) (*workspace.Environment, error) {
	if name != "" {
		return state.WS.OpenEnvironment(name)
	}
	env, err := state.WS.ActiveEnvironment()
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, fmt.Errorf("no active environment set; pass --env or run \"comfygit env activate\"")
	}
	return env, nil
}
