// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func currentUser(t *testing.T) string {
	t.Helper()
	current, err := user.Current()
	if err != nil {
		t.Skipf("no current user: %v", err)
	}
	return current.Username
}

func TestRunIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dataDir := filepath.Join(root, "data", "service")
	link := filepath.Join(root, "home", ".service")
	steps := []Step{
		Dir{Path: dataDir, Mode: 0755},
		Own{Path: dataDir, User: currentUser(t), Recursive: true},
		Chmod{Path: filepath.Join(root, "data"), Mode: 0755},
		Symlink{Target: dataDir, Link: link},
	}

	for run := 0; run < 2; run++ {
		if err := Run(testLogger(), steps); err != nil {
			t.Fatalf("run %d: %v", run+1, err)
		}
	}

	info, err := os.Stat(dataDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("data dir missing after bootstrap: %v", err)
	}
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("reading symlink: %v", err)
	}
	if target != dataDir {
		t.Errorf("symlink target = %q, want %q", target, dataDir)
	}

	parentInfo, err := os.Stat(filepath.Join(root, "data"))
	if err != nil {
		t.Fatalf("stat parent: %v", err)
	}
	if mode := parentInfo.Mode().Perm(); mode != 0755 {
		t.Errorf("parent mode = %04o, want 0755", mode)
	}
}

func TestDirCreatesParents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	if err := Run(testLogger(), []Step{Dir{Path: deep}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if info, err := os.Stat(deep); err != nil || !info.IsDir() {
		t.Errorf("deep directory not created: %v", err)
	}
}

func TestSymlinkSkipsExistingLink(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(root, "data")
	link := filepath.Join(root, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("pre-creating symlink: %v", err)
	}

	if err := Run(testLogger(), []Step{Symlink{Target: target, Link: link}}); err != nil {
		t.Fatalf("existing symlink must not error: %v", err)
	}
}

func TestSymlinkRefusesRegularFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	link := filepath.Join(root, "occupied")
	if err := os.WriteFile(link, []byte("not a link"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	err := Run(testLogger(), []Step{Symlink{Target: filepath.Join(root, "data"), Link: link}})
	if err == nil {
		t.Fatal("expected error for non-symlink at link path")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error %v is not a StepError", err)
	}
	if stepErr.Op != "symlink" {
		t.Errorf("StepError.Op = %q, want symlink", stepErr.Op)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	markerDir := filepath.Join(root, "after")
	steps := []Step{
		Chmod{Path: filepath.Join(root, "absent"), Mode: 0755}, // fails
		Dir{Path: markerDir},
	}

	if err := Run(testLogger(), steps); err == nil {
		t.Fatal("expected failure from chmod on missing path")
	}
	if _, err := os.Stat(markerDir); !os.IsNotExist(err) {
		t.Error("steps after a failure must not run")
	}
}

func TestOwnUnknownUser(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	err := Run(testLogger(), []Step{Own{Path: root, User: "no-such-account-launchkit"}})
	if err == nil {
		t.Fatal("expected error for unknown account")
	}
}

func TestLockExcludesSecondInstance(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first, err := Lock(dir)
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}
	defer first.Unlock()

	if _, err := Lock(dir); err == nil {
		t.Fatal("second Lock must fail while the first is held")
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	second, err := Lock(dir)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	second.Unlock()
}
