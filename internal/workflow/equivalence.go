package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// randomizeControlValues are the widget values ComfyUI's frontend
// attaches as the sibling "control_after_generate" widget for a seed
// input. When one of these follows a widget in the array, the
// preceding value is a seed that the frontend may have already
// randomized purely for the next queued run — it carries no semantic
// change to the workflow's resolved dependencies.
var randomizeControlValues = map[string]bool{
	"randomize": true,
}

// EquivalenceDigest computes a stable hash of a workflow graph that
// ignores cosmetic, frontend-only churn: the revision counter,
// extra.ds (viewport pan/zoom) and extra.frontendVersion, and any seed
// widget whose control sibling is set to randomize. Two saves of the
// same workflow that differ only in these respects produce the same
// digest, which is what lets the environment state engine report a
// workflow as unchanged instead of perpetually "modified".
func EquivalenceDigest(g *Graph) (string, error) {
	payload := canonicalPayload(g)
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalPayload(g *Graph) map[string]any {
	nodeIDs := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	nodes := make([]map[string]any, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		n := g.Nodes[id]
		nodes = append(nodes, map[string]any{
			"id":             id,
			"type":           n.Type,
			"widgets_values": normalizeSeedWidgets(n.WidgetsValues),
			"inputs":         n.Inputs,
		})
	}

	extra := map[string]any{}
	for k, v := range g.Extra {
		if k == "ds" || k == "frontendVersion" {
			continue
		}
		extra[k] = v
	}

	return map[string]any{
		"nodes": nodes,
		"links": g.Links,
		"extra": extra,
	}
}

// normalizeSeedWidgets zeroes any widget value immediately followed by
// a randomize-style control value, leaving fixed seeds untouched.
func normalizeSeedWidgets(values []any) []any {
	if len(values) == 0 {
		return values
	}
	out := make([]any, len(values))
	copy(out, values)
	for i := 0; i < len(out)-1; i++ {
		if s, ok := out[i+1].(string); ok && randomizeControlValues[s] {
			out[i] = 0
		}
	}
	return out
}
