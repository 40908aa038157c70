package envmanager

import (
	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/modelresolve"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
)

// ResolveWorkflow performs every resolution that needs no prompt: exactly
// unique node candidates, exactly unique model candidates, and hits the
// model resolver already produced from a previous-resolution or path match.
// It never touches the manifest or the index; ApplyResolution does that.
func (m *Manager) ResolveWorkflow(analysis *WorkflowAnalysis) *ResolutionResult {
	result := &ResolutionResult{WorkflowName: analysis.Name}

	wf := m.Store.Manifest().Workflows[analysis.Name]

	for _, nt := range analysis.NodeTypes {
		switch len(nt.Candidates) {
		case 0:
			result.UnresolvedNodes = append(result.UnresolvedNodes, nt.NodeType)
		case 1:
			c := nt.Candidates[0]
			result.ResolvedNodes = append(result.ResolvedNodes, NodeResolution{
				NodeType: nt.NodeType, PackageID: c.PackageID, MatchType: c.MatchType,
			})
		default:
			if pick, ok := selectAmbiguousNode(nt.NodeType, nt.Candidates, wf, analysis.AutoSelect); ok {
				result.ResolvedNodes = append(result.ResolvedNodes, pick)
			} else {
				result.AmbiguousNodes = append(result.AmbiguousNodes, nt)
			}
		}
	}

	for _, mm := range analysis.ModelRefs {
		switch mm.Resolution.MatchType {
		case modelresolve.MatchNotFound:
			result.UnresolvedModels = append(result.UnresolvedModels, mm.Reference)
		case modelresolve.MatchAmbiguous:
			result.AmbiguousModels = append(result.AmbiguousModels, mm)
		default:
			result.ResolvedModels = append(result.ResolvedModels, ModelResolution{
				Reference: mm.Reference, MatchType: mm.Resolution.MatchType, Model: mm.Resolution.Model,
			})
		}
	}

	return result
}

// selectAmbiguousNode implements the spec's selection policy: prefer a
// candidate whose package is already installed (picking the best rank
// among those), otherwise auto-select rank 1 if the caller opted in,
// otherwise leave it for the interactive fix loop.
func selectAmbiguousNode(nodeType string, candidates []nodemap.Candidate, wf manifest.Workflow, autoSelect bool) (NodeResolution, bool) {
	installed := map[string]bool{}
	for _, id := range wf.Requires.Nodes {
		installed[id] = true
	}

	var bestInstalled *nodemap.Candidate
	for i := range candidates {
		c := &candidates[i]
		if !installed[c.PackageID] {
			continue
		}
		if bestInstalled == nil || c.Rank < bestInstalled.Rank {
			bestInstalled = c
		}
	}
	if bestInstalled != nil {
		return NodeResolution{NodeType: nodeType, PackageID: bestInstalled.PackageID, MatchType: bestInstalled.MatchType}, true
	}

	if autoSelect {
		for i := range candidates {
			if candidates[i].Rank == 1 {
				return NodeResolution{NodeType: nodeType, PackageID: candidates[i].PackageID, MatchType: candidates[i].MatchType}, true
			}
		}
	}
	return NodeResolution{}, false
}
