package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(workspaceRoot *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <git-url> <name>",
		Short: "Import an environment from a git repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := setupAppState(cmd.Context(), *workspaceRoot, false)
			if err != nil {
				return err
			}
			env, err := state.WS.ImportFromGit(cmd.Context(), args[0], args[1], state.Models, printingImportCallbacks{})
			if err != nil {
				return err
			}
			fmt.Printf("imported environment %q at %s\n", env.Name, env.Paths.Root)
			return nil
		},
	}
}

// printingImportCallbacks prints each phase as it starts, the plainest
// possible implementation of workspace.ImportCallbacks for a
// non-interactive CLI run.
type printingImportCallbacks struct{}

func (printingImportCallbacks) OnPhase(phase, message string) {
	fmt.Printf("[%s] %s\n", phase, message)
}

func (printingImportCallbacks) OnError(message string) {
	fmt.Printf("error: %s\n", message)
}
