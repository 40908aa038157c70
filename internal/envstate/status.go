package envstate

import "context"

// Status computes the full three-part EnvironmentStatus: the
// manifest-vs-filesystem comparison, the git change status, and the
// per-workflow sync classification.
func (e *Engine) Status(ctx context.Context) (EnvironmentStatus, error) {
	comparison, err := e.Compare(ctx)
	if err != nil {
		return EnvironmentStatus{}, err
	}
	git, err := e.BuildGitStatus(ctx)
	if err != nil {
		return EnvironmentStatus{}, err
	}
	workflows, err := e.BuildWorkflowStatus(ctx)
	if err != nil {
		return EnvironmentStatus{}, err
	}
	return EnvironmentStatus{Comparison: comparison, Git: git, Workflows: workflows}, nil
}
