package workflow

import "testing"

func TestClassifyNodes(t *testing.T) {
	g, err := ParseGraph([]byte(arrayShapeWorkflow))
	if err != nil {
		t.Fatal(err)
	}
	result := ClassifyNodes(g)
	if len(result.BuiltinNodes) != 1 || result.BuiltinNodes[0].Type != "LoadImage" {
		t.Errorf("unexpected builtin nodes: %+v", result.BuiltinNodes)
	}
	if len(result.CustomNodes) != 1 || result.CustomNodes[0].Type != "NodeX" {
		t.Errorf("unexpected custom nodes: %+v", result.CustomNodes)
	}
}

func TestIsBuiltinType(t *testing.T) {
	if !IsBuiltinType("KSampler") {
		t.Error("KSampler should be built-in")
	}
	if IsBuiltinType("TotallyMadeUpNode") {
		t.Error("unknown type should not be built-in")
	}
}
