package envmanager

import (
	"context"
	"errors"

	"github.com/comfyhub-org/comfygit/internal/modelresolve"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
)

// FixResolution drives the interactive fix loop over whatever
// ResolveWorkflow left ambiguous or unresolved, in four stages —
// ambiguous nodes, unresolved nodes, ambiguous models, unresolved models
// — in that order. Every positive decision is applied and saved to the
// manifest immediately, one item at a time — the progressive-persistence
// property — so a cancellation midway through leaves everything decided
// so far on disk and nothing half-written.
//
// On a strategy returning ErrCancelled, the loop stops at that item and
// returns a ResolutionResult carrying that item, everything after it in
// its own stage, and every later stage untouched — exactly the queue the
// driver would need to resume with on a later call.
func (m *Manager) FixResolution(
	ctx context.Context,
	analysis *WorkflowAnalysis,
	result *ResolutionResult,
	nodeStrategy NodeStrategy,
	modelStrategy ModelStrategy,
) (*ResolutionResult, error) {
	remaining := &ResolutionResult{WorkflowName: result.WorkflowName, ResolvedNodes: result.ResolvedNodes, ResolvedModels: result.ResolvedModels}

	for i, nt := range result.AmbiguousNodes {
		decision, err := nodeStrategy.ResolveUnknown(nt.NodeType, nt.Candidates)
		if errors.Is(err, ErrCancelled) {
			remaining.AmbiguousNodes = append(remaining.AmbiguousNodes, result.AmbiguousNodes[i:]...)
			remaining.UnresolvedNodes = result.UnresolvedNodes
			remaining.AmbiguousModels = result.AmbiguousModels
			remaining.UnresolvedModels = result.UnresolvedModels
			return remaining, nil
		}
		if err != nil {
			return nil, err
		}
		remaining.ResolvedNodes = append(remaining.ResolvedNodes, matchTypeForNodeDecision(nt.NodeType, decision))
		if err := m.applyAndSave(ctx, analysis, remaining); err != nil {
			return nil, err
		}
	}

	for i, nodeType := range result.UnresolvedNodes {
		decision, err := nodeStrategy.ResolveUnknown(nodeType, nil)
		if errors.Is(err, ErrCancelled) {
			remaining.UnresolvedNodes = append(remaining.UnresolvedNodes, result.UnresolvedNodes[i:]...)
			remaining.AmbiguousModels = result.AmbiguousModels
			remaining.UnresolvedModels = result.UnresolvedModels
			return remaining, nil
		}
		if err != nil {
			return nil, err
		}
		remaining.ResolvedNodes = append(remaining.ResolvedNodes, matchTypeForNodeDecision(nodeType, decision))
		if err := m.applyAndSave(ctx, analysis, remaining); err != nil {
			return nil, err
		}
	}

	for i, mm := range result.AmbiguousModels {
		decision, err := modelStrategy.ResolveAmbiguous(mm.Reference, mm.Resolution.Candidates)
		if errors.Is(err, ErrCancelled) {
			remaining.AmbiguousModels = append(remaining.AmbiguousModels, result.AmbiguousModels[i:]...)
			remaining.UnresolvedModels = result.UnresolvedModels
			return remaining, nil
		}
		if err != nil {
			return nil, err
		}
		mr, err := m.modelResolutionForDecision(ctx, mm.Reference, decision)
		if err != nil {
			return nil, err
		}
		remaining.ResolvedModels = append(remaining.ResolvedModels, mr)
		if err := m.applyAndSave(ctx, analysis, remaining); err != nil {
			return nil, err
		}
	}

	for i, ref := range result.UnresolvedModels {
		decision, err := modelStrategy.HandleMissing(ref)
		if errors.Is(err, ErrCancelled) {
			remaining.UnresolvedModels = append(remaining.UnresolvedModels, result.UnresolvedModels[i:]...)
			return remaining, nil
		}
		if err != nil {
			return nil, err
		}
		mr, err := m.modelResolutionForDecision(ctx, ref, decision)
		if err != nil {
			return nil, err
		}
		remaining.ResolvedModels = append(remaining.ResolvedModels, mr)
		if err := m.applyAndSave(ctx, analysis, remaining); err != nil {
			return nil, err
		}
	}

	return remaining, nil
}

// applyAndSave writes the manifest changes accumulated so far in
// remaining. Called after every single decision, which is what makes
// persistence progressive rather than batched at the end of the loop;
// ApplyResolution's upserts make repeated calls with a growing list safe.
func (m *Manager) applyAndSave(ctx context.Context, analysis *WorkflowAnalysis, remaining *ResolutionResult) error {
	applied := &ResolutionResult{
		WorkflowName:   remaining.WorkflowName,
		ResolvedNodes:  remaining.ResolvedNodes,
		ResolvedModels: remaining.ResolvedModels,
	}
	return m.ApplyResolution(ctx, analysis, applied)
}

func matchTypeForNodeDecision(nodeType string, decision NodeDecision) NodeResolution {
	return NodeResolution{
		NodeType:  nodeType,
		PackageID: decision.PackageID,
		MatchType: nodemap.MatchUserConfirmed,
		Optional:  decision.Optional,
	}
}

// modelResolutionForDecision turns a ModelDecision into a ModelResolution,
// looking the model up by hash when the strategy picked an existing
// index entry rather than a download intent.
func (m *Manager) modelResolutionForDecision(ctx context.Context, ref modelresolve.Reference, decision ModelDecision) (ModelResolution, error) {
	if decision.DownloadURL != "" {
		target := decision.TargetPath
		if target == "" {
			target = ref.WidgetValue
		}
		return ModelResolution{
			Reference:   modelresolve.Reference{NodeID: ref.NodeID, NodeType: ref.NodeType, WidgetIndex: ref.WidgetIndex, WidgetValue: target},
			MatchType:   modelresolve.MatchNotFound,
			DownloadURL: decision.DownloadURL,
		}, nil
	}
	if decision.Hash == "" {
		return ModelResolution{Reference: ref, MatchType: modelresolve.MatchNotFound}, nil
	}
	model, err := m.Models.GetModel(ctx, decision.Hash)
	if err != nil {
		return ModelResolution{}, err
	}
	return ModelResolution{Reference: ref, MatchType: modelresolve.MatchUserConfirmed, Model: model}, nil
}
