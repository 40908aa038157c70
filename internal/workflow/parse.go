package workflow

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

type nodeJSON struct {
	ID            json.Number    `json:"id"`
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	WidgetsValues []any          `json:"widgets_values"`
	Properties    map[string]any `json:"properties"`
	Inputs        []inputJSON    `json:"inputs"`
	Outputs       []outputJSON   `json:"outputs"`
}

type inputJSON struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Link     *int   `json:"link"`
	Widget   any    `json:"widget"`
	SlotIdx  *int   `json:"slot_index"`
}

type outputJSON struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Links   []int  `json:"links"`
	SlotIdx *int   `json:"slot_index"`
}

type graphJSON struct {
	ID       *string        `json:"id"`
	Revision int            `json:"revision"`
	Version  float64        `json:"version"`
	Links    [][]any        `json:"links"`
	Groups   []groupJSON    `json:"groups"`
	Config   map[string]any `json:"config"`
	Extra    map[string]any `json:"extra"`
}

type groupJSON struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Bounding []float64 `json:"bounding"`
	Color    string    `json:"color"`
}

// ParseGraph parses ComfyUI workflow JSON. The "nodes" field is
// tolerated in either of ComfyUI's two storage shapes — an array of
// node objects carrying their own "id", or an object keyed by node id
// — and normalized to the latter: every Graph.Nodes key is the node's
// id as a string, regardless of which shape the source document used
// or whether the id was originally a JSON number.
func ParseGraph(raw []byte) (*Graph, error) {
	var meta graphJSON
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, xerrors.New(xerrors.KindManifestInvalid, err, map[string]any{"stage": "workflow_metadata"})
	}

	g := &Graph{
		Nodes:    map[string]*Node{},
		Revision: meta.Revision,
		Version:  meta.Version,
		Config:   meta.Config,
		Extra:    meta.Extra,
	}
	if meta.ID != nil {
		g.ID = *meta.ID
	}

	nodesField := gjson.GetBytes(raw, "nodes")
	switch {
	case nodesField.IsArray():
		var list []nodeJSON
		if err := json.Unmarshal([]byte(nodesField.Raw), &list); err != nil {
			return nil, xerrors.New(xerrors.KindManifestInvalid, err, map[string]any{"stage": "nodes_array"})
		}
		for _, nj := range list {
			node, id := toNode(nj)
			g.Nodes[id] = node
		}
	case nodesField.IsObject():
		var obj map[string]nodeJSON
		if err := json.Unmarshal([]byte(nodesField.Raw), &obj); err != nil {
			return nil, xerrors.New(xerrors.KindManifestInvalid, err, map[string]any{"stage": "nodes_object"})
		}
		for key, nj := range obj {
			node, id := toNode(nj)
			if id == "" {
				id = key
			}
			g.Nodes[id] = node
		}
	}

	for _, arr := range meta.Links {
		link, err := parseLink(arr)
		if err != nil {
			return nil, xerrors.New(xerrors.KindManifestInvalid, err, map[string]any{"stage": "links"})
		}
		g.Links = append(g.Links, link)
	}

	for _, gr := range meta.Groups {
		group := Group{ID: gr.ID, Title: gr.Title, Color: gr.Color}
		for i := 0; i < len(gr.Bounding) && i < 4; i++ {
			group.Bounding[i] = gr.Bounding[i]
		}
		g.Groups = append(g.Groups, group)
	}

	return g, nil
}

func toNode(nj nodeJSON) (*Node, string) {
	n := &Node{
		Type:          nj.Type,
		Title:         nj.Title,
		WidgetsValues: nj.WidgetsValues,
		Properties:    nj.Properties,
	}
	for idx, in := range nj.Inputs {
		slot := idx
		if in.SlotIdx != nil {
			slot = *in.SlotIdx
		}
		n.Inputs = append(n.Inputs, Input{
			Name:     in.Name,
			Type:     in.Type,
			Link:     in.Link,
			IsWidget: in.Widget != nil,
			SlotIdx:  slot,
		})
	}
	for idx, out := range nj.Outputs {
		slot := idx
		if out.SlotIdx != nil {
			slot = *out.SlotIdx
		}
		n.Outputs = append(n.Outputs, Output{Name: out.Name, Type: out.Type, Links: out.Links, SlotIdx: slot})
	}
	return n, nj.ID.String()
}

func parseLink(arr []any) (Link, error) {
	if len(arr) < 6 {
		return Link{}, fmt.Errorf("link array has %d elements, want 6", len(arr))
	}
	id, err := toInt(arr[0])
	if err != nil {
		return Link{}, err
	}
	srcSlot, err := toInt(arr[2])
	if err != nil {
		return Link{}, err
	}
	dstSlot, err := toInt(arr[4])
	if err != nil {
		return Link{}, err
	}
	linkType, _ := arr[5].(string)
	return Link{
		ID:           id,
		SourceNodeID: toNodeID(arr[1]),
		SourceSlot:   srcSlot,
		TargetNodeID: toNodeID(arr[3]),
		TargetSlot:   dstSlot,
		Type:         linkType,
	}, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	default:
		return 0, fmt.Errorf("expected numeric value, got %T", v)
	}
}

func toNodeID(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case json.Number:
		return n.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
