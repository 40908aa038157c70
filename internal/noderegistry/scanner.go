package noderegistry

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ScanRequirements reads Python requirement specifiers out of a node's
// source tree: requirements.txt lines and pyproject.toml's
// [project.dependencies], in that preference order. A node carrying
// neither file has no requirements.
func ScanRequirements(nodePath string) ([]string, error) {
	if reqs, err := scanRequirementsTxt(filepath.Join(nodePath, "requirements.txt")); err == nil {
		return reqs, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return scanPyprojectDependencies(filepath.Join(nodePath, "pyproject.toml"))
}

func scanRequirementsTxt(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reqs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		reqs = append(reqs, line)
	}
	return reqs, scanner.Err()
}

type pyprojectDoc struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
}

func scanPyprojectDependencies(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var doc pyprojectDoc
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc.Project.Dependencies, nil
}
