package envmanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/modelresolve"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
	"github.com/comfyhub-org/comfygit/internal/workflow"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// AnalyzeWorkflow reads name's workflow file, parses and classifies it,
// and resolves every custom node type and model reference against the
// current state of the node-mapping table and model index. It never
// writes anything — not to the manifest, not to the index — and never
// prompts; ResolveWorkflow and ApplyResolution do the writing.
func (m *Manager) AnalyzeWorkflow(ctx context.Context, name string, autoSelect bool) (*WorkflowAnalysis, error) {
	path := filepath.Join(m.WorkflowsDir, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.New(xerrors.KindManifestNotFound, err, map[string]any{"workflow": name, "path": path})
	}
	graph, err := workflow.ParseGraph(raw)
	if err != nil {
		return nil, fmt.Errorf("parse workflow %q: %w", name, err)
	}

	analysis := &WorkflowAnalysis{
		Name:       name,
		Graph:      graph,
		SyncState:  m.syncState(ctx, name, raw),
		AutoSelect: autoSelect,
	}

	wf := m.Store.Manifest().Workflows[name]

	classification := workflow.ClassifyNodes(graph)
	byType := map[string][]*workflow.Node{}
	var order []string
	for _, n := range classification.CustomNodes {
		if _, seen := byType[n.Type]; !seen {
			order = append(order, n.Type)
		}
		byType[n.Type] = append(byType[n.Type], n)
	}
	for _, nodeType := range order {
		nodes := byType[nodeType]
		candidates := m.resolveNodeType(nodeType, nodes, wf)
		analysis.NodeTypes = append(analysis.NodeTypes, NodeMatch{NodeType: nodeType, Candidates: candidates})
	}

	for _, ref := range extractModelReferences(graph) {
		previousHash := previousHashFor(wf, ref)
		resolution, err := modelresolve.Resolve(ctx, ref, m.modelIndex(), previousHash)
		if err != nil {
			return nil, fmt.Errorf("resolve model reference %s/%d: %w", ref.NodeID, ref.WidgetIndex, err)
		}
		analysis.ModelRefs = append(analysis.ModelRefs, ModelMatch{Reference: ref, Resolution: resolution})
	}

	return analysis, nil
}

// syncState compares raw against the workflow's committed copy at HEAD.
// A git error (no commits yet, or the path was never committed) is
// treated as "untracked" rather than surfaced, since an environment's
// first analysis always predates its first commit.
func (m *Manager) syncState(ctx context.Context, name string, raw []byte) SyncState {
	if m.Git == nil {
		return SyncUntracked
	}
	relPath := filepath.Join("workflows", name+".json")
	committed, err := m.Git.Show(ctx, "HEAD", relPath)
	if err != nil {
		return SyncUntracked
	}
	if committed == string(raw) {
		return SyncSynced
	}
	return SyncModified
}

// resolveNodeType runs the node-mapping resolver for one distinct node
// type, deriving the compound-key signature and any declared
// registry-package id from a representative node of that type, and
// honoring a per-workflow custom_node_map override when present.
func (m *Manager) resolveNodeType(nodeType string, nodes []*workflow.Node, wf manifest.Workflow) []nodemap.Candidate {
	representative := nodes[0]

	var custom *nodemap.CustomNodeChoice
	if raw, ok := wf.Requires.CustomNodeMap[nodeType]; ok {
		switch v := raw.(type) {
		case string:
			custom = &nodemap.CustomNodeChoice{PackageID: v}
		case bool:
			if !v {
				custom = &nodemap.CustomNodeChoice{Optional: true}
			}
		}
	}

	cnrID, _ := representative.Properties["cnr_id"].(string)

	inputs := make([]nodemap.NodeInput, len(representative.Inputs))
	for i, in := range representative.Inputs {
		inputs[i] = nodemap.NodeInput{Name: in.Name, Type: in.Type, IsLinked: in.Link != nil}
	}

	return m.Nodes.ResolveNode(nodeType, inputs, cnrID, custom)
}

// extractModelReferences walks every node whose type has a known loader
// base directory and pulls its model filename from widget index 0 — the
// convention every single-model loader in the base-directory table
// follows. Multi-widget loaders (e.g. a combined model+clip loader) are
// not in the table and so are skipped here until a documented exception
// arises.
func extractModelReferences(g *workflow.Graph) []modelresolve.Reference {
	var refs []modelresolve.Reference
	for id, n := range g.Nodes {
		if _, ok := modelresolve.LoaderBaseDir(n.Type); !ok {
			continue
		}
		if len(n.WidgetsValues) == 0 {
			continue
		}
		value, _ := n.WidgetsValues[0].(string)
		if value == "" {
			continue
		}
		refs = append(refs, modelresolve.Reference{
			NodeID:      id,
			NodeType:    n.Type,
			WidgetIndex: 0,
			WidgetValue: value,
		})
	}
	return refs
}

// previousHashFor looks up whether (node_id, widget_index) already has a
// resolved hash recorded from an earlier session, giving the model
// resolver's priority-0 strategy something to check.
func previousHashFor(wf manifest.Workflow, ref modelresolve.Reference) string {
	for _, m := range wf.Requires.Models {
		if m.NodeID == ref.NodeID && m.WidgetIndex == ref.WidgetIndex && m.Resolved {
			return m.Hash
		}
	}
	return ""
}
