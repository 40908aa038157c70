package workflow

import "testing"

func TestEquivalenceDigest_IgnoresVolatileExtraFields(t *testing.T) {
	a, err := ParseGraph([]byte(`{"nodes":{"1":{"type":"LoadImage","widgets_values":["x.png"]}},"links":[],"extra":{"ds":{"scale":1},"frontendVersion":"1.0.0"}}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseGraph([]byte(`{"nodes":{"1":{"type":"LoadImage","widgets_values":["x.png"]}},"links":[],"extra":{"ds":{"scale":99},"frontendVersion":"9.9.9"}}`))
	if err != nil {
		t.Fatal(err)
	}

	digestA, err := EquivalenceDigest(a)
	if err != nil {
		t.Fatal(err)
	}
	digestB, err := EquivalenceDigest(b)
	if err != nil {
		t.Fatal(err)
	}
	if digestA != digestB {
		t.Errorf("digests should match despite differing ds/frontendVersion: %q != %q", digestA, digestB)
	}
}

func TestEquivalenceDigest_IgnoresRandomizedSeed(t *testing.T) {
	a, err := ParseGraph([]byte(`{"nodes":{"1":{"type":"NodeX","widgets_values":[111,"randomize"]}},"links":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseGraph([]byte(`{"nodes":{"1":{"type":"NodeX","widgets_values":[999,"randomize"]}},"links":[]}`))
	if err != nil {
		t.Fatal(err)
	}

	digestA, _ := EquivalenceDigest(a)
	digestB, _ := EquivalenceDigest(b)
	if digestA != digestB {
		t.Errorf("digests should match when only a randomized seed differs")
	}
}

func TestEquivalenceDigest_FixedSeedChangeIsSignificant(t *testing.T) {
	a, err := ParseGraph([]byte(`{"nodes":{"1":{"type":"NodeX","widgets_values":[111,"fixed"]}},"links":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseGraph([]byte(`{"nodes":{"1":{"type":"NodeX","widgets_values":[999,"fixed"]}},"links":[]}`))
	if err != nil {
		t.Fatal(err)
	}

	digestA, _ := EquivalenceDigest(a)
	digestB, _ := EquivalenceDigest(b)
	if digestA == digestB {
		t.Errorf("digests should differ when a fixed seed actually changes")
	}
}
