package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/comfyhub-org/comfygit/internal/envmanager"
	"github.com/comfyhub-org/comfygit/internal/envstate"
	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/modelresolve"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
)

// huhRollbackStrategy asks for confirmation before Rollback discards
// uncommitted changes, the interactive half of envstate.RollbackStrategy.
type huhRollbackStrategy struct{}

func (huhRollbackStrategy) ConfirmDiscard(_ context.Context, status envstate.GitStatus) (bool, error) {
	title := "Discard uncommitted changes and continue rolling back?"
	if status.ManifestDiff != "" {
		title = "The manifest has uncommitted changes that rollback would discard. Continue?"
	}
	var discard bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Discard and continue").
		Negative("Cancel").
		Value(&discard).
		Run()
	if err != nil {
		return false, err
	}
	return discard, nil
}

// huhNodeStrategy implements envmanager.NodeStrategy with a huh select
// prompt per ambiguous node type, and a confirm prompt for node types the
// resolver found nothing for at all.
type huhNodeStrategy struct {
	autoSelect bool
}

func (s huhNodeStrategy) ResolveUnknown(nodeType string, candidates []nodemap.Candidate) (envmanager.NodeDecision, error) {
	if len(candidates) == 0 {
		var optional bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("No package found for node type %q. Mark as optional (not required to run)?", nodeType)).
			Affirmative("Optional").
			Negative("Leave unresolved").
			Value(&optional).
			Run()
		if err != nil {
			return envmanager.NodeDecision{}, envmanager.ErrCancelled
		}
		if !optional {
			return envmanager.NodeDecision{}, envmanager.ErrCancelled
		}
		return envmanager.NodeDecision{Optional: true}, nil
	}
	if s.autoSelect {
		return envmanager.NodeDecision{PackageID: candidates[0].PackageID}, nil
	}

	options := make([]huh.Option[string], 0, len(candidates)+1)
	for _, c := range candidates {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", c.PackageID, c.MatchType), c.PackageID))
	}
	options = append(options, huh.NewOption("None of these — mark optional", ""))

	var chosen string
	err := huh.NewSelect[string]().
		Title(fmt.Sprintf("Which package provides node type %q?", nodeType)).
		Options(options...).
		Value(&chosen).
		Run()
	if err != nil {
		return envmanager.NodeDecision{}, envmanager.ErrCancelled
	}
	if chosen == "" {
		return envmanager.NodeDecision{Optional: true}, nil
	}
	return envmanager.NodeDecision{PackageID: chosen}, nil
}

// huhModelStrategy implements envmanager.ModelStrategy, prompting for a
// choice among indexed candidates and, for models with none at all,
// accepting a download URL to fetch on the next sync.
type huhModelStrategy struct {
	autoSelect bool
}

func (s huhModelStrategy) ResolveAmbiguous(
	ref modelresolve.Reference,
	candidates []modelindex.LocationWithModel,
) (envmanager.ModelDecision, error) {
	if s.autoSelect && len(candidates) > 0 {
		return envmanager.ModelDecision{Hash: candidates[0].Model.Hash}, nil
	}

	options := make([]huh.Option[string], 0, len(candidates)+1)
	for _, c := range candidates {
		options = append(options, huh.NewOption(
			fmt.Sprintf("%s (%s)", c.Location.Filename, c.Model.Hash[:min(12, len(c.Model.Hash))]),
			c.Model.Hash,
		))
	}
	options = append(options, huh.NewOption("None of these — mark optional", ""))

	var chosen string
	err := huh.NewSelect[string]().
		Title(fmt.Sprintf("Which file does %q refer to?", ref.WidgetValue)).
		Options(options...).
		Value(&chosen).
		Run()
	if err != nil {
		return envmanager.ModelDecision{}, envmanager.ErrCancelled
	}
	if chosen == "" {
		return envmanager.ModelDecision{Optional: true}, nil
	}
	return envmanager.ModelDecision{Hash: chosen}, nil
}

func (s huhModelStrategy) HandleMissing(ref modelresolve.Reference) (envmanager.ModelDecision, error) {
	var url string
	err := huh.NewInput().
		Title(fmt.Sprintf("No indexed model matches %q. Paste a download URL, or leave blank to mark optional.", ref.WidgetValue)).
		Value(&url).
		Run()
	if err != nil {
		return envmanager.ModelDecision{}, envmanager.ErrCancelled
	}
	if url == "" {
		return envmanager.ModelDecision{Optional: true}, nil
	}
	return envmanager.ModelDecision{DownloadURL: url}, nil
}
