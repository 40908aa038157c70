package gitrepo

import (
	"context"
	"strings"
)

// State is the manifest repository's coarse state machine: Uninitialized
// before `git init` has run, Clean once everything is committed, Dirty
// whenever the working tree differs from HEAD.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateClean         State = "clean"
	StateDirty         State = "dirty"
)

// State reports the repo's current position in the state machine.
func (r *Repo) State(ctx context.Context) (State, error) {
	if !r.Exists(ctx) {
		return StateUninitialized, nil
	}
	dirty, err := r.HasUncommittedChanges(ctx)
	if err != nil {
		return "", err
	}
	if dirty {
		return StateDirty, nil
	}
	return StateClean, nil
}

// HasUncommittedChanges reports whether the working tree (staged or not)
// differs from HEAD.
func (r *Repo) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

type porcelainEntry struct {
	indexStatus   byte
	workingStatus byte
	filename      string
}

func parsePorcelain(out string) []porcelainEntry {
	var entries []porcelainEntry
	for i, line := range strings.Split(out, "\n") {
		// run trims stdout, which strips the blank index-status column
		// from the first entry (" M path" arrives as "M path").
		if i == 0 && len(line) > 2 && line[2] != ' ' {
			line = " " + line
		}
		if len(line) < 4 {
			continue
		}
		filename := strings.TrimSpace(line[3:])
		// Renames report as "old -> new"; keep the new path.
		if idx := strings.Index(filename, " -> "); idx != -1 {
			filename = filename[idx+4:]
		}
		entries = append(entries, porcelainEntry{
			indexStatus:   line[0],
			workingStatus: line[1],
			filename:      filename,
		})
	}
	return entries
}

// GetWorkflowGitChanges returns, per tracked workflow name, whether it was
// "modified", "added", or "deleted" since the last commit — parsed from
// porcelain status entries scoped to the workflows/ directory. The checks
// run in the order modified, deleted, added, and each looks at both the
// working-tree and the index column, so an entry staged as modified and
// deleted in the working tree reports as "modified".
func (r *Repo) GetWorkflowGitChanges(ctx context.Context) (map[string]string, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	changes := map[string]string{}
	for _, e := range parsePorcelain(out) {
		if !strings.HasPrefix(e.filename, "workflows/") || !strings.HasSuffix(e.filename, ".json") {
			continue
		}
		name := workflowStem(e.filename)
		switch {
		case e.workingStatus == 'M' || e.indexStatus == 'M':
			changes[name] = "modified"
		case e.workingStatus == 'D' || e.indexStatus == 'D':
			changes[name] = "deleted"
		case e.workingStatus == '?' || e.indexStatus == 'A':
			changes[name] = "added"
		}
	}
	return changes, nil
}

func workflowStem(path string) string {
	base := path
	if idx := strings.LastIndex(base, "/"); idx != -1 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".json")
}
