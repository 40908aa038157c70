package gitrepo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// Version is one entry of an environment's commit history, relabeled so
// users reason about "v1, v2, v3" rather than hashes.
type Version struct {
	Label   string
	Hash    string
	Message string
	Date    string
}

// GetVersionHistory returns up to limit most recent commits, relabeled
// chronologically: the oldest commit in the returned window is always
// "v1", and labels count up from there. Because labeling only covers the
// fetched window, a caller who increases limit later may see an earlier
// commit's label shift — this mirrors the original tool's behavior and is
// why ResolveVersion always re-derives labels from a fresh, wide fetch
// rather than caching them.
func (r *Repo) GetVersionHistory(ctx context.Context, limit int) ([]Version, error) {
	out, err := r.run(ctx, "log", fmt.Sprintf("--max-count=%d", limit), "--pretty=format:%H|%s|%ai")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	lines := strings.Split(out, "\n")
	versions := make([]Version, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			continue
		}
		versions = append(versions, Version{Hash: parts[0], Message: parts[1], Date: parts[2]})
	}
	// git log lists newest first; reverse so oldest is first, then number.
	for i, j := 0, len(versions)-1; i < j; i, j = i+1, j-1 {
		versions[i], versions[j] = versions[j], versions[i]
	}
	for i := range versions {
		versions[i].Label = fmt.Sprintf("v%d", i+1)
	}
	return versions, nil
}

// ResolveVersion maps a version label ("v3") back to its full commit hash.
// Input that looks like a commit hash (seven or more hex characters) is
// returned unchanged, without checking that such a commit exists.
func (r *Repo) ResolveVersion(ctx context.Context, version string) (string, error) {
	if looksLikeHash(version) {
		return version, nil
	}
	versions, err := r.GetVersionHistory(ctx, 100)
	if err != nil {
		return "", err
	}
	for _, v := range versions {
		if v.Label == version {
			return v.Hash, nil
		}
	}
	return "", xerrors.Newf(xerrors.KindGitCommandError, map[string]any{"version": version}, "version %q not found", version)
}

func looksLikeHash(s string) bool {
	if len(s) < 7 {
		return false
	}
	for _, c := range strings.ToLower(s) {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

// ApplyVersion checks out every file from version into the working tree
// without committing, leaving the restored content as uncommitted changes
// so the caller (typically an interactive rollback flow) can review
// before calling CommitAll.
func (r *Repo) ApplyVersion(ctx context.Context, version string) error {
	hash, err := r.ResolveVersion(ctx, version)
	if err != nil {
		return err
	}
	_, err = r.run(ctx, "checkout", hash, "--", ".")
	return err
}

// DiscardUncommitted checks HEAD back out over the entire working tree,
// discarding every uncommitted change.
func (r *Repo) DiscardUncommitted(ctx context.Context) error {
	_, err := r.run(ctx, "checkout", "HEAD", "--", ".")
	return err
}

// CommitCount is a small helper for tests and diagnostics; not used on any
// hot path.
func (r *Repo) CommitCount(ctx context.Context) (int, error) {
	out, err := r.run(ctx, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// HeadCommit returns the full hash of the repository's current HEAD
// commit, used to record an installed custom node's exact checked-out
// version for comparison against a manifest's declared commit hash.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "HEAD")
}
