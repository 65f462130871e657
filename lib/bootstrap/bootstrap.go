// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap prepares the filesystem layout a wrapped service
// expects before it starts.
//
// An add-on declares its layout as a sequence of [Step] values:
// directory creation, ownership and permission adjustment, and symbolic
// links bridging the service's fixed paths to the persistent data
// mount. Every step is idempotent — re-running a launcher against a
// fully or partially bootstrapped tree produces the same layout and no
// error — but any genuine failure aborts startup. A service started
// against a half-built layout fails in far more confusing ways than a
// launcher that refuses to continue.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/addon-foundry/launchkit/lib/identity"
)

// StepError reports a failed bootstrap step. Op names the step kind,
// Path the filesystem location it was operating on.
type StepError struct {
	Op   string
	Path string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("bootstrap %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Step is one idempotent filesystem operation.
type Step interface {
	// Apply performs the operation.
	Apply(logger *slog.Logger) error

	// Describe returns a one-line human-readable summary for dry-run
	// output.
	Describe() string
}

// Run applies the steps in order, logging each, and stops at the first
// failure. The returned error is always a *StepError.
func Run(logger *slog.Logger, steps []Step) error {
	for _, step := range steps {
		logger.Debug("bootstrap step", "step", step.Describe())
		if err := step.Apply(logger); err != nil {
			return err
		}
	}
	return nil
}

// Dir creates a directory tree, parents included. An existing
// directory is left as is (its mode is not rewritten — use Chmod for
// that).
type Dir struct {
	Path string
	Mode os.FileMode
}

func (s Dir) Apply(logger *slog.Logger) error {
	mode := s.Mode
	if mode == 0 {
		mode = 0755
	}
	if err := os.MkdirAll(s.Path, mode); err != nil {
		return &StepError{Op: "dir", Path: s.Path, Err: err}
	}
	return nil
}

func (s Dir) Describe() string {
	return fmt.Sprintf("create directory %s", s.Path)
}

// Own transfers ownership of a path (optionally recursively) to the
// named service account. Skipped with a warning when the launcher is
// not running as root — development runs and tests cannot chown to
// other users, and the wrapped service runs as the current user there
// anyway.
type Own struct {
	Path      string
	User      string
	Recursive bool
}

func (s Own) Apply(logger *slog.Logger) error {
	account, err := identity.Lookup(s.User)
	if err != nil {
		return &StepError{Op: "own", Path: s.Path, Err: err}
	}

	if !identity.IsRoot() && account.UID != os.Getuid() {
		logger.Warn("skipping ownership change (not running as root)",
			"path", s.Path, "user", s.User)
		return nil
	}

	chown := func(path string) error {
		return os.Chown(path, account.UID, account.GID)
	}

	if !s.Recursive {
		if err := chown(s.Path); err != nil {
			return &StepError{Op: "own", Path: s.Path, Err: err}
		}
		return nil
	}

	walkErr := filepath.WalkDir(s.Path, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return chown(path)
	})
	if walkErr != nil {
		return &StepError{Op: "own", Path: s.Path, Err: walkErr}
	}
	return nil
}

func (s Own) Describe() string {
	suffix := ""
	if s.Recursive {
		suffix = " (recursive)"
	}
	return fmt.Sprintf("own %s as %s%s", s.Path, s.User, suffix)
}

// Chmod sets exact permission bits on a path. Used to grant traversal
// bits on parent directories so the service account can reach its data
// directory.
type Chmod struct {
	Path string
	Mode os.FileMode
}

func (s Chmod) Apply(logger *slog.Logger) error {
	if err := os.Chmod(s.Path, s.Mode); err != nil {
		return &StepError{Op: "chmod", Path: s.Path, Err: err}
	}
	return nil
}

func (s Chmod) Describe() string {
	return fmt.Sprintf("chmod %s to %04o", s.Path, s.Mode)
}

// Symlink creates Link pointing at Target. An existing symlink at the
// link path is accepted as is (re-runs must not fail, and a deliberate
// retarget requires removing the old link first); anything else
// occupying the path is an error.
type Symlink struct {
	Target string
	Link   string
}

func (s Symlink) Apply(logger *slog.Logger) error {
	info, err := os.Lstat(s.Link)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		if existing, readErr := os.Readlink(s.Link); readErr == nil && existing != s.Target {
			logger.Warn("existing symlink points elsewhere, leaving it",
				"link", s.Link, "existing", existing, "wanted", s.Target)
		}
		return nil
	case err == nil:
		return &StepError{Op: "symlink", Path: s.Link,
			Err: fmt.Errorf("path exists and is not a symlink (mode %s)", info.Mode())}
	case !os.IsNotExist(err):
		return &StepError{Op: "symlink", Path: s.Link, Err: err}
	}

	if parent := filepath.Dir(s.Link); parent != "." {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return &StepError{Op: "symlink", Path: s.Link, Err: err}
		}
	}
	if err := os.Symlink(s.Target, s.Link); err != nil {
		return &StepError{Op: "symlink", Path: s.Link, Err: err}
	}
	return nil
}

func (s Symlink) Describe() string {
	return fmt.Sprintf("symlink %s -> %s", s.Link, s.Target)
}

// Lock takes an advisory flock on the data directory, guarding against
// a second launcher instance bootstrapping the same tree. The lock file
// lives inside the directory. The caller must keep the returned handle
// referenced until exec: a dropped handle is finalized by the GC, which
// closes the descriptor and releases the lock. Go opens the descriptor
// close-on-exec, so a handle held to the end releases exactly at
// handoff.
func Lock(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StepError{Op: "lock", Path: dir, Err: err}
	}

	lock := flock.New(filepath.Join(dir, ".launchkit.lock"))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, &StepError{Op: "lock", Path: lock.Path(), Err: err}
	}
	if !acquired {
		return nil, &StepError{Op: "lock", Path: lock.Path(),
			Err: fmt.Errorf("another launcher instance holds the lock")}
	}
	return lock, nil
}
