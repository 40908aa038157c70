// Package cli assembles comfygit's cobra command tree: workspace and
// environment lifecycle, status/sync/rollback over one environment's
// engine, interactive dependency resolution, and git-sourced import.
// Recovered in structure from the teacher's cli/root.go (a PersistentPreRunE
// that loads configuration and attaches a logger to the command's context,
// one subcommand package per concern) and generalized to comfygit's own
// domain.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/comfyhub-org/comfygit/internal/appconfig"
	"github.com/comfyhub-org/comfygit/internal/logging"
	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/noderegistry"
	"github.com/comfyhub-org/comfygit/internal/workspace"
)

// appState is the set of process-wide collaborators every subcommand
// needs: the loaded configuration, a logger, the open workspace, and the
// shared model index and node registry. Built by setupAppState, which each
// subcommand's RunE calls for itself.
type appState struct {
	Config *appconfig.Config
	Logger logging.Logger
	WS     *workspace.Workspace
	Models *modelindex.Store
	Nodes  *noderegistry.Service
}

type appStateKey struct{}

func contextWithAppState(ctx context.Context, s *appState) context.Context {
	return context.WithValue(ctx, appStateKey{}, s)
}

func appStateFromContext(ctx context.Context) *appState {
	s, _ := ctx.Value(appStateKey{}).(*appState)
	return s
}

// setupAppState loads configuration, opens (or initializes) the
// workspace at workspaceRoot, and wires the model index and node
// registry every command needs. It mirrors SetupGlobalConfig's role in
// the teacher's root command, narrowed to comfygit's own collaborators.
func setupAppState(ctx context.Context, workspaceRoot string, initIfMissing bool) (*appState, error) {
	svc := appconfig.NewService()
	cfg, err := svc.Load(ctx, appconfig.NewDefaultProvider(), appconfig.NewEnvProvider())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewLogger(logging.DefaultConfig())

	root, err := resolveWorkspaceRoot(workspaceRoot)
	if err != nil {
		return nil, err
	}

	var ws *workspace.Workspace
	if initIfMissing {
		ws, err = workspace.Init(root)
	} else {
		ws, err = workspace.Open(root)
	}
	if err != nil {
		return nil, err
	}

	models, err := modelindex.Open(ctx, filepath.Join(ws.Paths.Metadata, "models.db"))
	if err != nil {
		return nil, fmt.Errorf("open model index: %w", err)
	}

	nodes := noderegistry.NewService(cfg.Registry.BaseURL, filepath.Join(ws.Paths.Cache, "custom_nodes"))

	return &appState{Config: cfg, Logger: logger, WS: ws, Models: models, Nodes: nodes}, nil
}

// resolveWorkspaceRoot defaults to "$HOME/.comfygit" when root is empty,
// the same default-location convention workspace.py's CLI driver uses.
func resolveWorkspaceRoot(root string) (string, error) {
	if root != "" {
		return filepath.Abs(root)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".comfygit"), nil
}
