package nodemap

import "testing"

func TestWorkflowInputSignature_DeterministicAndOrderSensitive(t *testing.T) {
	a := []NodeInput{{Name: "model", Type: "MODEL", IsLinked: true}, {Name: "seed", Type: "INT", IsLinked: false}}
	b := []NodeInput{{Name: "model", Type: "MODEL", IsLinked: true}, {Name: "seed", Type: "INT", IsLinked: false}}
	c := []NodeInput{{Name: "seed", Type: "INT", IsLinked: false}, {Name: "model", Type: "MODEL", IsLinked: true}}

	sigA := WorkflowInputSignature(a)
	sigB := WorkflowInputSignature(b)
	sigC := WorkflowInputSignature(c)

	if sigA != sigB {
		t.Fatalf("same ordered inputs should hash identically: %q != %q", sigA, sigB)
	}
	if sigA == sigC {
		t.Fatalf("reordered inputs should not collide")
	}
	if sigA == "" {
		t.Fatalf("non-empty inputs should not produce an empty signature")
	}
}

func TestWorkflowInputSignature_LinkedVsWidgetDistinguished(t *testing.T) {
	linked := []NodeInput{{Name: "seed", Type: "INT", IsLinked: true}}
	widget := []NodeInput{{Name: "seed", Type: "INT", IsLinked: false}}
	if WorkflowInputSignature(linked) == WorkflowInputSignature(widget) {
		t.Fatalf("linked vs widget input should produce distinct signatures")
	}
}

func TestWorkflowInputSignature_Empty(t *testing.T) {
	if got := WorkflowInputSignature(nil); got != "" {
		t.Fatalf("empty inputs should yield empty signature, got %q", got)
	}
}

func TestCreateNodeKey(t *testing.T) {
	if got := CreateNodeKey("KSampler", "abc123"); got != "KSampler::abc123" {
		t.Fatalf("got %q", got)
	}
	if got := CreateNodeKey("KSampler", ""); got != "KSampler::_" {
		t.Fatalf("got %q", got)
	}
}
