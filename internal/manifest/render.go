package manifest

import (
	"fmt"
	"sort"
	"strings"
)

// render produces the manifest's TOML text by hand rather than through a
// generic struct encoder: the format invariant requires model entries and
// uv source entries to stay inline tables while every other section stays
// a conventional table, a distinction go-toml's struct marshaler doesn't
// expose a knob for. Sections are emitted in a fixed, stable order so
// repeated saves of an unchanged manifest produce byte-identical output.
func render(m *Manifest) ([]byte, error) {
	var b strings.Builder

	writeProject(&b, m.Project)
	writeDependencies(&b, m.Dependencies)
	writeUV(&b, m.UV)
	writeNodes(&b, m.Nodes)
	writeModels(&b, m.Models)
	writeWorkflows(&b, m.Workflows)
	writeNodeMappings(&b, m.NodeMappings)

	return []byte(b.String()), nil
}

func writeProject(b *strings.Builder, p Project) {
	b.WriteString("[project]\n")
	fmt.Fprintf(b, "name = %s\n", quote(p.Name))
	if p.ComfyUIVersion != "" {
		fmt.Fprintf(b, "comfyui_version = %s\n", quote(p.ComfyUIVersion))
	}
	if p.CreatedAt != "" {
		fmt.Fprintf(b, "created_at = %s\n", quote(p.CreatedAt))
	}
	b.WriteString("\n")
}

func writeDependencies(b *strings.Builder, deps map[string][]string) {
	if len(deps) == 0 {
		return
	}
	b.WriteString("[dependencies]\n")
	for _, group := range sortedKeys(deps) {
		fmt.Fprintf(b, "%s = %s\n", quoteKey(group), stringArray(deps[group]))
	}
	b.WriteString("\n")
}

func writeUV(b *strings.Builder, uv UVConfig) {
	hasAny := len(uv.Constraints) > 0 || len(uv.Indexes) > 0 || len(uv.Sources) > 0
	if !hasAny {
		return
	}
	if len(uv.Constraints) > 0 {
		b.WriteString("[uv]\n")
		fmt.Fprintf(b, "constraints = %s\n\n", stringArray(uv.Constraints))
	}
	for _, idx := range uv.Indexes {
		b.WriteString("[[uv.index]]\n")
		fmt.Fprintf(b, "name = %s\n", quote(idx.Name))
		fmt.Fprintf(b, "url = %s\n", quote(idx.URL))
		b.WriteString("\n")
	}
	if len(uv.Sources) > 0 {
		b.WriteString("[uv.sources]\n")
		for _, name := range sortedKeys(uv.Sources) {
			srcs := uv.Sources[name]
			if len(srcs) == 1 {
				fmt.Fprintf(b, "%s = %s\n", quoteKey(name), inlineSource(srcs[0]))
				continue
			}
			rendered := make([]string, len(srcs))
			for i, s := range srcs {
				rendered[i] = inlineSource(s)
			}
			fmt.Fprintf(b, "%s = [%s]\n", quoteKey(name), strings.Join(rendered, ", "))
		}
		b.WriteString("\n")
	}
}

func inlineSource(s Source) string {
	var parts []string
	if s.Index != "" {
		parts = append(parts, fmt.Sprintf("index = %s", quote(s.Index)))
	}
	if s.Git != "" {
		parts = append(parts, fmt.Sprintf("git = %s", quote(s.Git)))
	}
	if s.Rev != "" {
		parts = append(parts, fmt.Sprintf("rev = %s", quote(s.Rev)))
	}
	if s.Path != "" {
		parts = append(parts, fmt.Sprintf("path = %s", quote(s.Path)))
	}
	if s.URL != "" {
		parts = append(parts, fmt.Sprintf("url = %s", quote(s.URL)))
	}
	if len(s.Markers) > 0 {
		parts = append(parts, fmt.Sprintf("marker = %s", stringArray(s.Markers)))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func writeNodes(b *strings.Builder, nodes map[string]Node) {
	for _, id := range sortedKeys(nodes) {
		n := nodes[id]
		fmt.Fprintf(b, "[nodes.%s]\n", quoteKey(id))
		fmt.Fprintf(b, "name = %s\n", quote(n.Name))
		if n.Repository != "" {
			fmt.Fprintf(b, "repository = %s\n", quote(n.Repository))
		}
		if n.Version != "" {
			fmt.Fprintf(b, "version = %s\n", quote(n.Version))
		}
		if n.CommitHash != "" {
			fmt.Fprintf(b, "commit_hash = %s\n", quote(n.CommitHash))
		}
		if n.Source != "" {
			fmt.Fprintf(b, "source = %s\n", quote(n.Source))
		}
		if n.PackageID != "" {
			fmt.Fprintf(b, "package_id = %s\n", quote(n.PackageID))
		}
		b.WriteString("\n")
	}
}

func writeModels(b *strings.Builder, models ModelTable) {
	writeModelCategory(b, "models.required", models.Required)
	writeModelCategory(b, "models.optional", models.Optional)
}

func writeModelCategory(b *strings.Builder, header string, entries map[string]ModelEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "[%s]\n", header)
	for _, hash := range sortedKeys(entries) {
		fmt.Fprintf(b, "%s = %s\n", quoteKey(hash), inlineModel(entries[hash]))
	}
	b.WriteString("\n")
}

func inlineModel(e ModelEntry) string {
	parts := []string{
		fmt.Sprintf("filename = %s", quote(e.Filename)),
		fmt.Sprintf("file_size = %d", e.FileSize),
	}
	if e.Blake3 != "" {
		parts = append(parts, fmt.Sprintf("blake3_hash = %s", quote(e.Blake3)))
	}
	if e.SHA256 != "" {
		parts = append(parts, fmt.Sprintf("sha256_hash = %s", quote(e.SHA256)))
	}
	if len(e.Metadata) > 0 {
		var meta []string
		for _, k := range sortedKeys(e.Metadata) {
			meta = append(meta, fmt.Sprintf("%s = %s", quoteKey(k), quote(e.Metadata[k])))
		}
		parts = append(parts, "metadata = { "+strings.Join(meta, ", ")+" }")
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func writeWorkflows(b *strings.Builder, workflows map[string]Workflow) {
	for _, name := range sortedKeys(workflows) {
		wf := workflows[name]
		fmt.Fprintf(b, "[workflows.%s.requires]\n", quoteKey(name))
		if len(wf.Requires.Nodes) > 0 {
			fmt.Fprintf(b, "nodes = %s\n", stringArray(wf.Requires.Nodes))
		}
		if len(wf.Requires.CustomNodeMap) > 0 {
			b.WriteString("custom_node_map = { ")
			var parts []string
			for _, nodeType := range sortedKeys(wf.Requires.CustomNodeMap) {
				parts = append(parts, fmt.Sprintf("%s = %s", quoteKey(nodeType), customNodeMapValue(wf.Requires.CustomNodeMap[nodeType])))
			}
			b.WriteString(strings.Join(parts, ", "))
			b.WriteString(" }\n")
		}
		if len(wf.Requires.Models) == 0 {
			b.WriteString("models = []\n\n")
		} else {
			b.WriteString("models = [\n")
			for _, ref := range wf.Requires.Models {
				b.WriteString("  " + inlineModelRef(ref) + ",\n")
			}
			b.WriteString("]\n\n")
		}
		for _, nodeID := range sortedKeys(wf.Requires.NodeLocations) {
			loc := wf.Requires.NodeLocations[nodeID]
			fmt.Fprintf(b, "[workflows.%s.requires.node_locations.%s]\n", quoteKey(name), quoteKey(nodeID))
			fmt.Fprintf(b, "class_type = %s\n", quote(loc.ClassType))
			if loc.GitHash != "" {
				fmt.Fprintf(b, "git_hash = %s\n", quote(loc.GitHash))
			}
			b.WriteString("\n")
		}
	}
}

// customNodeMapValue renders a custom_node_map entry, whose value is either
// a registry package id (string) or the literal false marking a node type
// as deliberately unmapped.
func customNodeMapValue(v any) string {
	switch val := v.(type) {
	case string:
		return quote(val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func inlineModelRef(r ModelRef) string {
	parts := []string{
		fmt.Sprintf("node_id = %s", quote(r.NodeID)),
		fmt.Sprintf("widget_index = %d", r.WidgetIndex),
		fmt.Sprintf("filename = %s", quote(r.Filename)),
		fmt.Sprintf("resolved = %t", r.Resolved),
	}
	if r.Hash != "" {
		parts = append(parts, fmt.Sprintf("hash = %s", quote(r.Hash)))
	}
	if r.Status != "" {
		parts = append(parts, fmt.Sprintf("status = %s", quote(r.Status)))
	}
	if len(r.Sources) > 0 {
		parts = append(parts, fmt.Sprintf("sources = %s", stringArray(r.Sources)))
	}
	if r.RelativePath != "" {
		parts = append(parts, fmt.Sprintf("relative_path = %s", quote(r.RelativePath)))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func writeNodeMappings(b *strings.Builder, mappings map[string]NodeMapping) {
	if len(mappings) == 0 {
		return
	}
	b.WriteString("[node_mappings]\n")
	for _, key := range sortedKeys(mappings) {
		nm := mappings[key]
		parts := []string{fmt.Sprintf("package_id = %s", quote(nm.PackageID))}
		if nm.Source != "" {
			parts = append(parts, fmt.Sprintf("source = %s", quote(nm.Source)))
		}
		fmt.Fprintf(b, "%s = { %s }\n", quoteKey(key), strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

// quoteKey quotes a TOML key unless it is a bare key (ASCII letters,
// digits, underscore, dash).
func quoteKey(k string) string {
	if k == "" {
		return quote(k)
	}
	for _, r := range k {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return quote(k)
		}
	}
	return k
}

func stringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
