package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comfyhub-org/comfygit/internal/logging"
)

// version is set at build time via -ldflags; "dev" otherwise.
var version = "dev"

// RootCmd builds the comfygit command tree.
func RootCmd() *cobra.Command {
	var workspaceRoot string

	root := &cobra.Command{
		Use:           "comfygit",
		Short:         "Manage reproducible ComfyUI environments",
		Long:          "comfygit tracks a ComfyUI installation's custom nodes, models, and workflows in a versioned, reproducible manifest.",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       version,
	}
	root.PersistentFlags().StringVar(&workspaceRoot, "workspace", "", "workspace root (default: $HOME/.comfygit)")

	root.AddCommand(
		newWorkspaceCmd(&workspaceRoot),
		newEnvCmd(&workspaceRoot),
		newStatusCmd(&workspaceRoot),
		newSyncCmd(&workspaceRoot),
		newRollbackCmd(&workspaceRoot),
		newResolveCmd(&workspaceRoot),
		newImportCmd(&workspaceRoot),
	)
	return root
}

// Execute runs the root command. Any top-level error is logged through a
// fresh default logger and also printed to stdout.
func Execute() int {
	root := RootCmd()
	if err := root.Execute(); err != nil {
		logging.NewLogger(logging.DefaultConfig()).Error("comfygit failed", "error", err)
		fmt.Println(err)
		return 1
	}
	return 0
}
