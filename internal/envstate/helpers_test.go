package envstate

import (
	"context"
	"os/exec"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

type fakeSyncer struct {
	inSync     bool
	note       string
	dryRunErr  error
	syncErr    error
	syncCalled bool
}

func (f *fakeSyncer) DryRunSync(_ context.Context, _ string) (bool, string, error) {
	return f.inSync, f.note, f.dryRunErr
}

func (f *fakeSyncer) Sync(_ context.Context, _ string) error {
	f.syncCalled = true
	return f.syncErr
}

type fakeRollbackStrategy struct {
	confirm bool
	err     error
	called  bool
}

func (f *fakeRollbackStrategy) ConfirmDiscard(_ context.Context, _ GitStatus) (bool, error) {
	f.called = true
	return f.confirm, f.err
}
