// Package uvrunner wraps the `uv` binary: creating and syncing an
// environment's virtual environment against its pinned lock file. It is
// the subprocess-facing half of the package-manager concern; the
// dependency-table-editing half lives in internal/manifest, which owns
// the uv section of manifest.toml but never shells out itself.
package uvrunner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// Runner executes `uv` in a given environment directory. It is stateless —
// every call takes the directory it operates in, so one Runner can be
// shared across every environment in a workspace.
type Runner struct {
	// PythonBin, when set, is exported as UV_PYTHON for every invocation,
	// pinning interpreter selection instead of trusting uv's own
	// discovery. Empty means "let uv decide".
	PythonBin string
}

// New returns a Runner with no interpreter override.
func New() *Runner {
	return &Runner{}
}

func (r *Runner) run(ctx context.Context, dir string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "uv", args...)
	cmd.Dir = dir
	if r.PythonBin != "" {
		cmd.Env = append(cmd.Environ(), "UV_PYTHON="+r.PythonBin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	out, errOut := strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String())
	if err != nil {
		return out, errOut, xerrors.New(xerrors.KindUVCommandError, err, map[string]any{
			"args":           args,
			"stdout":         out,
			"stderr":         errOut,
			"conflict_lines": conflictLines(errOut),
		})
	}
	return out, errOut, nil
}

// conflictLines pulls the lines uv's resolver prints when dependency
// resolution fails (they start with "×" or "help:" in uv's error output),
// so a caller surfacing KindUVCommandError can show just the relevant
// part of a long resolver trace instead of the whole stderr blob.
func conflictLines(stderr string) []string {
	var lines []string
	for _, line := range strings.Split(stderr, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "×") || strings.HasPrefix(trimmed, "help:") || strings.HasPrefix(trimmed, "╰─") {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// Sync brings the virtual environment in dir in line with its lock file,
// across every dependency group — satisfies envstate.PackageSyncer.
func (r *Runner) Sync(ctx context.Context, dir string) error {
	_, _, err := r.run(ctx, dir, "sync", "--all-groups")
	return err
}

// DryRunSync reports whether dir's virtual environment already matches
// its lock file without changing anything — satisfies
// envstate.PackageSyncer. uv's own --dry-run flag prints "Would make no
// changes" when nothing is out of date; any other non-empty plan is
// surfaced verbatim as note.
func (r *Runner) DryRunSync(ctx context.Context, dir string) (bool, string, error) {
	stdout, stderr, err := r.run(ctx, dir, "sync", "--all-groups", "--dry-run")
	if err != nil {
		return false, "", err
	}
	combined := strings.TrimSpace(stdout + "\n" + stderr)
	if combined == "" || strings.Contains(combined, "Would make no changes") {
		return true, "", nil
	}
	return false, combined, nil
}

// Lock regenerates dir's uv.lock from pyproject.toml without syncing the
// virtual environment.
func (r *Runner) Lock(ctx context.Context, dir string) error {
	_, _, err := r.run(ctx, dir, "lock")
	return err
}

// AddConstraint adds a PEP 508 constraint to the project without
// installing it as a direct dependency — used for pins recorded in
// manifest.toml's [uv] constraints list.
func (r *Runner) AddConstraint(ctx context.Context, dir, constraint string) error {
	_, _, err := r.run(ctx, dir, "add", "--constraint", constraint)
	return err
}

// AddRequirements imports a requirements.txt (ComfyUI's own, at
// environment-creation time) as frozen direct dependencies, pinning
// exactly the versions listed rather than letting uv re-resolve them.
func (r *Runner) AddRequirements(ctx context.Context, dir, requirementsFile string, frozen bool) error {
	args := []string{"add", "-r", requirementsFile}
	if frozen {
		args = append(args, "--frozen")
	}
	_, _, err := r.run(ctx, dir, args...)
	return err
}

// CreateVenv creates dir's .venv pinned to pythonVersion and performs the
// first sync, the step EnvironmentFactory.create calls once pyproject.toml
// exists and ComfyUI's requirements have been imported.
func (r *Runner) CreateVenv(ctx context.Context, dir, pythonVersion string) error {
	if _, _, err := r.run(ctx, dir, "venv", "--python", pythonVersion); err != nil {
		return err
	}
	_, _, err := r.run(ctx, dir, "sync", "--all-groups")
	return err
}

// PythonExecutable returns the path to the interpreter inside dir's
// .venv, the same path Environment.run resolves before launching
// ComfyUI's main.py.
func PythonExecutable(envDir string) string {
	return fmt.Sprintf("%s/.venv/bin/python", envDir)
}
