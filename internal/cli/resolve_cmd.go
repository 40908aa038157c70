package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comfyhub-org/comfygit/internal/envmanager"
	"github.com/comfyhub-org/comfygit/internal/gitrepo"
	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
)

func newResolveCmd(workspaceRoot *string) *cobra.Command {
	var envName string
	var autoSelect bool
	cmd := &cobra.Command{
		Use:   "resolve <workflow>",
		Short: "Resolve a tracked workflow's custom nodes and models, prompting interactively where automatic resolution falls short",
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

			store, err := manifest.Load(env.Paths.ManifestPath)
			if err != nil {
				return err
			}
			table, err := nodemap.Load(env.Paths.NodeMappingsPath)
			if err != nil {
				// No downloaded node-mapping table yet: proceed with an
				// empty one rather than blocking resolution entirely —
				// every node type simply falls through to the
				// unresolved/interactive path.
				table = &nodemap.Table{}
			}
			git := gitrepo.Open(env.Paths.CecPath)
			manager := envmanager.New(store, state.Models, table, git, env.Paths.WorkflowsActivePath)

			analysis, err := manager.AnalyzeWorkflow(cmd.Context(), args[0], autoSelect)
			if err != nil {
				return err
			}
			result := manager.ResolveWorkflow(analysis)
			if !result.HasRemainingWork() {
				if err := manager.ApplyResolution(cmd.Context(), analysis, result); err != nil {
					return err
				}
				fmt.Printf("workflow %q fully resolved automatically\n", args[0])
				return nil
			}

			final, err := manager.FixResolution(cmd.Context(), analysis, result,
				huhNodeStrategy{autoSelect: autoSelect}, huhModelStrategy{autoSelect: autoSelect})
			if err != nil {
				return err
			}
			if final.HasRemainingWork() {
				fmt.Printf("workflow %q partially resolved; run \"comfygit resolve %s\" again to continue\n", args[0], args[0])
				return nil
			}
			fmt.Printf("workflow %q fully resolved\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&envName, "env", "", "environment the workflow belongs to (default: active environment)")
	cmd.Flags().BoolVar(&autoSelect, "auto", false, "pick the highest-ranked candidate automatically instead of prompting")
	return cmd
}
