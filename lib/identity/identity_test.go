// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"os"
	"os/user"
	"testing"
)

func TestLookupCurrentUser(t *testing.T) {
	t.Parallel()

	current, err := user.Current()
	if err != nil {
		t.Skipf("no current user: %v", err)
	}

	account, err := Lookup(current.Username)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", current.Username, err)
	}
	if account.Name != current.Username {
		t.Errorf("Name = %q, want %q", account.Name, current.Username)
	}
	if account.UID != os.Getuid() {
		t.Errorf("UID = %d, want %d", account.UID, os.Getuid())
	}
}

func TestLookupNumericFallback(t *testing.T) {
	t.Parallel()

	current, err := user.Current()
	if err != nil {
		t.Skipf("no current user: %v", err)
	}

	account, err := Lookup(current.Uid)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", current.Uid, err)
	}
	if account.UID != os.Getuid() {
		t.Errorf("UID = %d, want %d", account.UID, os.Getuid())
	}
}

func TestLookupUnknown(t *testing.T) {
	t.Parallel()

	if _, err := Lookup("no-such-account-launchkit"); err == nil {
		t.Fatal("expected error for unknown account")
	}
}
