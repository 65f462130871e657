// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package launcher

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/addon-foundry/launchkit/lib/binhash"
	"github.com/addon-foundry/launchkit/lib/envmap"
	"github.com/addon-foundry/launchkit/lib/identity"
)

// ExecError reports that the wrapped service could not be handed the
// process: the binary was not found, the privilege drop failed, or the
// exec syscall itself failed.
type ExecError struct {
	Path string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Path, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// exec resolves, fingerprints, and executes the wrapped service,
// replacing the launcher's process image. Never returns on success.
func (d *Definition) exec(command []string, set envmap.Set, logger *slog.Logger) error {
	if len(command) == 0 {
		return &ExecError{Path: "", Err: fmt.Errorf("no command configured")}
	}

	binaryPath, err := exec.LookPath(command[0])
	if err != nil {
		return &ExecError{Path: command[0], Err: err}
	}

	// Fingerprint the binary so the add-on log records exactly which
	// build ran. Best effort: a hashing failure must not block launch.
	if digest, hashErr := binhash.HashFile(binaryPath); hashErr == nil {
		logger.Info("wrapped service binary resolved",
			"path", binaryPath, "blake3", digest.String())
	} else {
		logger.Warn("failed to hash wrapped service binary",
			"path", binaryPath, "error", hashErr)
	}

	if d.RunAs != "" {
		account, err := identity.Lookup(d.RunAs)
		if err != nil {
			return &ExecError{Path: binaryPath, Err: err}
		}

		// The service sees the account's identity in its environment
		// regardless of whether a drop actually happens below.
		set["HOME"] = account.Home
		set["USER"] = account.Name
		set["LOGNAME"] = account.Name

		if identity.IsRoot() {
			if err := dropPrivileges(account); err != nil {
				return &ExecError{Path: binaryPath, Err: err}
			}
			logger.Info("privileges dropped",
				"user", account.Name, "uid", account.UID, "gid", account.GID)
		} else if os.Getuid() != account.UID {
			logger.Warn("not running as root, cannot drop privileges",
				"wanted_user", account.Name, "current_uid", os.Getuid())
		}
	}

	if d.Dir != "" {
		if err := os.Chdir(d.Dir); err != nil {
			return &ExecError{Path: binaryPath, Err: fmt.Errorf("changing directory to %s: %w", d.Dir, err)}
		}
	}

	environ := set.Environ(os.Environ())

	logger.Info("handing off to wrapped service",
		"path", binaryPath, "args", command[1:])

	execFunction := d.execFunc
	if execFunction == nil {
		execFunction = unix.Exec
	}
	if err := execFunction(binaryPath, command, environ); err != nil {
		return &ExecError{Path: binaryPath, Err: err}
	}
	// Reachable only with an injected execFunc.
	return nil
}

// dropPrivileges switches the process to the service account before the
// wrapped service gains control. Groups first, then gid, then uid — the
// moment the uid drops, the process can no longer change its groups, so
// the reverse order would leave root's supplementary groups attached.
func dropPrivileges(account identity.Account) error {
	if err := unix.Setgroups([]int{account.GID}); err != nil {
		return fmt.Errorf("setgroups(%d): %w", account.GID, err)
	}
	if err := unix.Setresgid(account.GID, account.GID, account.GID); err != nil {
		return fmt.Errorf("setresgid(%d): %w", account.GID, err)
	}
	if err := unix.Setresuid(account.UID, account.UID, account.UID); err != nil {
		return fmt.Errorf("setresuid(%d): %w", account.UID, err)
	}
	return nil
}
