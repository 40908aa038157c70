package workflow

import "testing"

const arrayShapeWorkflow = `{
  "id": "wf-1",
  "revision": 3,
  "nodes": [
    {"id": 1, "type": "LoadImage", "widgets_values": ["image.png"], "inputs": []},
    {"id": 2, "type": "NodeX", "widgets_values": [5, "randomize"], "inputs": [{"name": "model", "type": "MODEL", "link": 10}]}
  ],
  "links": [[10, 1, 0, 2, 0, "IMAGE"]],
  "groups": [{"id": 1, "title": "g", "bounding": [0, 0, 100, 100], "color": "#fff"}],
  "extra": {"ds": {"scale": 1}, "frontendVersion": "1.2.3", "keep": "me"}
}`

const objectShapeWorkflow = `{
  "nodes": {
    "1": {"type": "LoadImage", "widgets_values": ["image.png"]},
    "2": {"type": "NodeX", "widgets_values": [5]}
  },
  "links": []
}`

func TestParseGraph_ArrayShape(t *testing.T) {
	g, err := ParseGraph([]byte(arrayShapeWorkflow))
	if err != nil {
		t.Fatalf("ParseGraph: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	n, ok := g.Nodes["1"]
	if !ok {
		t.Fatalf("expected numeric id normalized to string key \"1\"")
	}
	if n.Type != "LoadImage" {
		t.Errorf("type = %q", n.Type)
	}
	if len(g.Links) != 1 || g.Links[0].SourceNodeID != "1" || g.Links[0].TargetNodeID != "2" {
		t.Errorf("unexpected links: %+v", g.Links)
	}
	if len(g.Groups) != 1 || g.Groups[0].Title != "g" {
		t.Errorf("unexpected groups: %+v", g.Groups)
	}
}

func TestParseGraph_ObjectShape(t *testing.T) {
	g, err := ParseGraph([]byte(objectShapeWorkflow))
	if err != nil {
		t.Fatalf("ParseGraph: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes["2"].Type != "NodeX" {
		t.Errorf("unexpected node: %+v", g.Nodes["2"])
	}
}

func TestParseGraph_InvalidJSON(t *testing.T) {
	_, err := ParseGraph([]byte("not json"))
	if err == nil {
		t.Fatal("expected error for invalid json")
	}
}
