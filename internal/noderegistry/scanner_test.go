package noderegistry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanRequirements_RequirementsTxt(t *testing.T) {
	dir := t.TempDir()
	content := "numpy>=1.0\n# comment\n\ntorch==2.1.0\n-e git+https://example.com/foo.git\n"
	if err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	reqs, err := ScanRequirements(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"numpy>=1.0", "torch==2.1.0"}
	if len(reqs) != len(want) || reqs[0] != want[0] || reqs[1] != want[1] {
		t.Errorf("got %v, want %v", reqs, want)
	}
}

func TestScanRequirements_PyprojectFallback(t *testing.T) {
	dir := t.TempDir()
	content := "[project]\nname = \"mynode\"\ndependencies = [\"pillow>=9\", \"requests\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	reqs, err := ScanRequirements(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 2 || reqs[0] != "pillow>=9" || reqs[1] != "requests" {
		t.Errorf("got %v", reqs)
	}
}

func TestScanRequirements_NeitherFilePresent(t *testing.T) {
	dir := t.TempDir()
	reqs, err := ScanRequirements(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 0 {
		t.Errorf("expected no requirements, got %v", reqs)
	}
}
