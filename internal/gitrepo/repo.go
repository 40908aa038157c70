// Package gitrepo wraps the external `git` binary for per-environment
// history tracking: every comfygit environment is itself a git repository
// rooted at its .cec metadata directory, with each mutation to the
// manifest or a tracked workflow becoming a commit. This is a thin
// os/exec layer, not a git implementation — comfygit relies on the real
// git binary rather than a Go git library so the repository it produces is
// byte-for-byte what any other git tooling would produce.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// Repo wraps a single git working tree.
type Repo struct {
	path string
}

// Open returns a Repo rooted at path. It does not require path to already
// be a git repository — InitializeEnvironmentRepo creates that.
func Open(path string) *Repo {
	return &Repo{path: path}
}

// Path returns the working tree root this Repo operates on.
func (r *Repo) Path() string { return r.path }

// run executes git with args in the repo's working tree and returns
// trimmed stdout.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", xerrors.New(xerrors.KindGitCommandError, err, map[string]any{
			"args":   args,
			"stderr": strings.TrimSpace(stderr.String()),
		})
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Exists reports whether path is already a git working tree.
func (r *Repo) Exists(ctx context.Context) bool {
	_, err := r.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// Show returns the content of path as it existed at commitish (e.g.
// "HEAD" or a resolved commit hash), the authoritative way to read a
// committed file's contents without touching the working tree — used by
// the workflow analyzer to compare a workflow file against its committed
// copy.
func (r *Repo) Show(ctx context.Context, commitish, path string) (string, error) {
	out, err := r.run(ctx, "show", fmt.Sprintf("%s:%s", commitish, path))
	if err != nil {
		return "", err
	}
	return out, nil
}

// Diff returns the unstaged+staged diff for path relative to HEAD, or ""
// if path has no changes. `git diff` exits 0 with empty output in that
// case, so no error path distinguishes "clean" from "not tracked yet" —
// callers needing that distinction use Show against HEAD instead.
func (r *Repo) Diff(ctx context.Context, path string) (string, error) {
	return r.run(ctx, "diff", "HEAD", "--", path)
}
