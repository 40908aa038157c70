package gitrepo

import (
	"context"
	"os"
	"path/filepath"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// gitignoreContent is written into every new environment repository so
// staging directories, metadata, logs, and bytecode never get committed
// alongside the manifest and workflows.
const gitignoreContent = `# Staging area
staging/

# Staging metadata
metadata/

# logs
logs/

# Python cache
__pycache__/
*.pyc

# Temporary files
*.tmp
*.bak
`

// InitializeEnvironmentRepo runs `git init`, configures a local identity,
// writes the standard .gitignore, and — if the working tree is non-empty
// — creates the initial commit.
func (r *Repo) InitializeEnvironmentRepo(ctx context.Context, message string) error {
	if _, err := r.run(ctx, "init"); err != nil {
		return err
	}
	if err := r.EnsureIdentity(ctx); err != nil {
		return err
	}
	if err := r.writeGitignore(); err != nil {
		return err
	}
	nonEmpty, err := r.hasAnyFiles()
	if err != nil {
		return err
	}
	if nonEmpty {
		if err := r.CommitAll(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) writeGitignore() error {
	path := filepath.Join(r.path, ".gitignore")
	if err := os.WriteFile(path, []byte(gitignoreContent), 0o644); err != nil {
		return xerrors.New(xerrors.KindGitCommandError, err, map[string]any{"path": path})
	}
	return nil
}

func (r *Repo) hasAnyFiles() (bool, error) {
	entries, err := os.ReadDir(r.path)
	if err != nil {
		return false, xerrors.New(xerrors.KindGitCommandError, err, map[string]any{"path": r.path})
	}
	return len(entries) > 0, nil
}

// CommitAll stages every change (including untracked files) and commits,
// ensuring an identity is configured first.
func (r *Repo) CommitAll(ctx context.Context, message string) error {
	if message == "" {
		message = "Committing all changes"
	}
	if err := r.EnsureIdentity(ctx); err != nil {
		return err
	}
	if _, err := r.run(ctx, "add", "-A"); err != nil {
		return err
	}
	if _, err := r.run(ctx, "commit", "-m", message); err != nil {
		if r.hasNothingToCommit(ctx) {
			return nil
		}
		return err
	}
	return nil
}

// hasNothingToCommit distinguishes a commit failure caused by an empty
// diff (not a real error — the tree already matches what we wanted to
// record) from any other git failure.
func (r *Repo) hasNothingToCommit(ctx context.Context) bool {
	changed, err := r.HasUncommittedChanges(ctx)
	return err == nil && !changed
}
