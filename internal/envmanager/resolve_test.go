package envmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/modelresolve"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
)

func candidate(packageID string, rank int) nodemap.Candidate {
	return nodemap.Candidate{PackageID: packageID, MatchType: nodemap.MatchTypeOnly, Rank: rank}
}

func TestResolveWorkflow_UniqueCandidateAutoResolves(t *testing.T) {
	analysis := &WorkflowAnalysis{
		Name: "wf",
		NodeTypes: []NodeMatch{
			{NodeType: "KSamplerAdvanced", Candidates: []nodemap.Candidate{candidate("pkg-a", 1)}},
		},
	}
	m := &Manager{Store: manifest.Create("unused.toml", "test")}

	result := m.ResolveWorkflow(analysis)

	require.Len(t, result.ResolvedNodes, 1)
	assert.Equal(t, "KSamplerAdvanced", result.ResolvedNodes[0].NodeType)
	assert.Equal(t, "pkg-a", result.ResolvedNodes[0].PackageID)
	assert.Empty(t, result.AmbiguousNodes)
}

func TestResolveWorkflow_NoCandidatesIsUnresolved(t *testing.T) {
	analysis := &WorkflowAnalysis{
		Name:      "wf",
		NodeTypes: []NodeMatch{{NodeType: "MysteryNode", Candidates: nil}},
	}
	m := &Manager{Store: manifest.Create("unused.toml", "test")}

	result := m.ResolveWorkflow(analysis)

	assert.Equal(t, []string{"MysteryNode"}, result.UnresolvedNodes)
	assert.Empty(t, result.ResolvedNodes)
}

func TestResolveWorkflow_AmbiguousPrefersAlreadyInstalled(t *testing.T) {
	store := manifest.Create("unused.toml", "test")
	store.Manifest().Workflows = map[string]manifest.Workflow{
		"wf": {Requires: manifest.WorkflowRequires{Nodes: []string{"pkg-b"}}},
	}
	m := &Manager{Store: store}

	analysis := &WorkflowAnalysis{
		Name: "wf",
		NodeTypes: []NodeMatch{
			{NodeType: "ImpactSwitch", Candidates: []nodemap.Candidate{candidate("pkg-a", 1), candidate("pkg-b", 2)}},
		},
	}

	result := m.ResolveWorkflow(analysis)

	require.Len(t, result.ResolvedNodes, 1)
	assert.Equal(t, "pkg-b", result.ResolvedNodes[0].PackageID)
	assert.Equal(t, "ImpactSwitch", result.ResolvedNodes[0].NodeType)
	assert.Empty(t, result.AmbiguousNodes)
}

func TestResolveWorkflow_AmbiguousAutoSelectsRankOne(t *testing.T) {
	m := &Manager{Store: manifest.Create("unused.toml", "test")}

	analysis := &WorkflowAnalysis{
		Name:       "wf",
		AutoSelect: true,
		NodeTypes: []NodeMatch{
			{NodeType: "ImpactSwitch", Candidates: []nodemap.Candidate{candidate("pkg-a", 1), candidate("pkg-b", 2)}},
		},
	}

	result := m.ResolveWorkflow(analysis)

	require.Len(t, result.ResolvedNodes, 1)
	assert.Equal(t, "pkg-a", result.ResolvedNodes[0].PackageID)
	assert.Equal(t, "ImpactSwitch", result.ResolvedNodes[0].NodeType)
}

func TestResolveWorkflow_AmbiguousWithoutAutoSelectStaysAmbiguous(t *testing.T) {
	m := &Manager{Store: manifest.Create("unused.toml", "test")}

	analysis := &WorkflowAnalysis{
		Name: "wf",
		NodeTypes: []NodeMatch{
			{NodeType: "ImpactSwitch", Candidates: []nodemap.Candidate{candidate("pkg-a", 1), candidate("pkg-b", 2)}},
		},
	}

	result := m.ResolveWorkflow(analysis)

	assert.Empty(t, result.ResolvedNodes)
	require.Len(t, result.AmbiguousNodes, 1)
	assert.Equal(t, "ImpactSwitch", result.AmbiguousNodes[0].NodeType)
}

func TestResolveWorkflow_ModelMatchTypesPartition(t *testing.T) {
	m := &Manager{Store: manifest.Create("unused.toml", "test")}

	analysis := &WorkflowAnalysis{
		Name: "wf",
		ModelRefs: []ModelMatch{
			{Reference: modelresolve.Reference{NodeID: "1"}, Resolution: modelresolve.Resolution{MatchType: modelresolve.MatchExact}},
			{Reference: modelresolve.Reference{NodeID: "2"}, Resolution: modelresolve.Resolution{MatchType: modelresolve.MatchNotFound}},
			{Reference: modelresolve.Reference{NodeID: "3"}, Resolution: modelresolve.Resolution{MatchType: modelresolve.MatchAmbiguous}},
		},
	}

	result := m.ResolveWorkflow(analysis)

	require.Len(t, result.ResolvedModels, 1)
	assert.Equal(t, "1", result.ResolvedModels[0].Reference.NodeID)
	require.Len(t, result.UnresolvedModels, 1)
	assert.Equal(t, "2", result.UnresolvedModels[0].NodeID)
	require.Len(t, result.AmbiguousModels, 1)
	assert.Equal(t, "3", result.AmbiguousModels[0].Reference.NodeID)
}
