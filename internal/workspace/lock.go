package workspace

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// lockFileName is the advisory writer lock created under .cec/, per
// spec.md §5: at most one writer per environment within a single host.
// Cross-host/cross-process-tree enforcement beyond that is explicitly
// the driver's responsibility, unchanged from spec.md.
const lockFileName = "writer.lock"

func (e *Environment) lockPath() string {
	return filepath.Join(e.Paths.CecPath, lockFileName)
}

// Lock acquires this environment's advisory writer lock, retrying every
// 50ms until it succeeds or ctx is done. The returned release func must
// be called (typically deferred) to drop the lock; it never returns an
// error worth surfacing, since releasing a held flock cannot meaningfully
// fail short of the process being in a broken state already.
func (e *Environment) Lock(ctx context.Context) (release func(), err error) {
	fl := flock.New(e.lockPath())
	locked, lockErr := fl.TryLockContext(ctx, 50*time.Millisecond)
	if lockErr != nil {
		return nil, xerrors.New(xerrors.KindEnvironmentLocked, lockErr, map[string]any{"environment": e.Name})
	}
	if !locked {
		return nil, xerrors.Newf(xerrors.KindEnvironmentLocked, map[string]any{"environment": e.Name},
			"environment %q is locked by another process", e.Name)
	}
	return func() { _ = fl.Unlock() }, nil
}

// TryLock acquires the lock without blocking, returning locked=false
// rather than an error when another process already holds it.
func (e *Environment) TryLock() (release func(), locked bool, err error) {
	fl := flock.New(e.lockPath())
	locked, err = fl.TryLock()
	if err != nil {
		return nil, false, xerrors.New(xerrors.KindEnvironmentLocked, err, map[string]any{"environment": e.Name})
	}
	if !locked {
		return nil, false, nil
	}
	return func() { _ = fl.Unlock() }, true, nil
}
