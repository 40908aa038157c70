package envmanager

import (
	"context"
	"sort"

	"github.com/mohae/deepcopy"

	"github.com/comfyhub-org/comfygit/internal/manifest"
)

// ApplyResolution writes every resolved item in result into the manifest,
// then reconciles the workflow's requires block against the current
// graph: node types and model references no longer present are dropped,
// package ids carried over from prior runs for node types still present
// are retained, and everything is written in one Save so a crash never
// leaves the manifest half-reconciled.
//
// analysis.Graph supplies "currently present" for reconciliation; it must
// be the same analysis ResolveWorkflow (and, if used, FixResolution) ran
// against.
func (m *Manager) ApplyResolution(ctx context.Context, analysis *WorkflowAnalysis, result *ResolutionResult) error {
	manifestDoc := m.Store.Manifest()
	before := deepcopy.Copy(manifestDoc.Workflows[analysis.Name]).(manifest.Workflow)
	wf := before

	if wf.Requires.CustomNodeMap == nil {
		wf.Requires.CustomNodeMap = map[string]any{}
	}

	for _, nr := range result.ResolvedNodes {
		if nr.Optional {
			wf.Requires.CustomNodeMap[nr.NodeType] = false
			continue
		}
		wf.Requires.CustomNodeMap[nr.NodeType] = nr.PackageID
	}

	presentTypes := map[string]bool{}
	for _, nt := range analysis.NodeTypes {
		presentTypes[nt.NodeType] = true
	}
	for nodeType := range wf.Requires.CustomNodeMap {
		if !presentTypes[nodeType] {
			delete(wf.Requires.CustomNodeMap, nodeType)
		}
	}

	packageIDs := map[string]bool{}
	for _, v := range wf.Requires.CustomNodeMap {
		if id, ok := v.(string); ok && id != "" {
			packageIDs[id] = true
		}
	}
	wf.Requires.Nodes = sortedSet(packageIDs)

	if wf.Requires.NodeLocations == nil {
		wf.Requires.NodeLocations = map[string]manifest.NodeLocation{}
	}
	for id, n := range analysis.Graph.Nodes {
		wf.Requires.NodeLocations[id] = manifest.NodeLocation{ClassType: n.Type}
	}
	for id := range wf.Requires.NodeLocations {
		if _, ok := analysis.Graph.Nodes[id]; !ok {
			delete(wf.Requires.NodeLocations, id)
		}
	}

	for _, mr := range result.ResolvedModels {
		ref := manifest.ModelRef{
			NodeID:      mr.Reference.NodeID,
			WidgetIndex: mr.Reference.WidgetIndex,
			Filename:    mr.Reference.WidgetValue,
			Resolved:    true,
			Status:      "resolved",
		}
		if mr.Model != nil {
			ref.Hash = mr.Model.Hash
		}
		if mr.DownloadURL != "" {
			ref.Resolved = false
			ref.Status = "unresolved"
			ref.Sources = []string{mr.DownloadURL}
			ref.RelativePath = mr.Reference.WidgetValue
			ref.Hash = ""
		}
		upsertModelRef(&wf, ref)
	}

	presentNodeIDs := map[string]bool{}
	for id := range analysis.Graph.Nodes {
		presentNodeIDs[id] = true
	}
	kept := wf.Requires.Models[:0]
	for _, ref := range wf.Requires.Models {
		if presentNodeIDs[ref.NodeID] {
			kept = append(kept, ref)
		}
	}
	wf.Requires.Models = kept

	manifestDoc.Workflows[analysis.Name] = wf
	return m.Store.Save(ctx)
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func upsertModelRef(wf *manifest.Workflow, ref manifest.ModelRef) {
	for i, existing := range wf.Requires.Models {
		if existing.NodeID == ref.NodeID && existing.WidgetIndex == ref.WidgetIndex {
			wf.Requires.Models[i] = ref
			return
		}
	}
	wf.Requires.Models = append(wf.Requires.Models, ref)
}
