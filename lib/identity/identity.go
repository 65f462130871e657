// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity resolves the non-root account an add-on's wrapped
// service runs as.
package identity

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// Account is a resolved service account.
type Account struct {
	Name string
	UID  int
	GID  int
	Home string
}

// Lookup resolves an account by name, falling back to numeric UID
// lookup when the name is all digits. Container images frequently
// declare the service user only by number.
func Lookup(name string) (Account, error) {
	resolved, err := user.Lookup(name)
	if err != nil {
		if _, convErr := strconv.Atoi(name); convErr == nil {
			resolved, err = user.LookupId(name)
		}
		if err != nil {
			return Account{}, fmt.Errorf("looking up service account %q: %w", name, err)
		}
	}

	uid, err := strconv.Atoi(resolved.Uid)
	if err != nil {
		return Account{}, fmt.Errorf("account %q has non-numeric uid %q", name, resolved.Uid)
	}
	gid, err := strconv.Atoi(resolved.Gid)
	if err != nil {
		return Account{}, fmt.Errorf("account %q has non-numeric gid %q", name, resolved.Gid)
	}

	return Account{
		Name: resolved.Username,
		UID:  uid,
		GID:  gid,
		Home: resolved.HomeDir,
	}, nil
}

// IsRoot reports whether the launcher currently runs with root
// privileges. When it does not (integration tests, development runs),
// privilege drop and ownership changes are skipped with a warning
// instead of failing.
func IsRoot() bool {
	return os.Geteuid() == 0
}
