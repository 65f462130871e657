// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashFileDeterministic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "binary")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	first, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	second, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}

	if first != second {
		t.Errorf("digests differ across runs: %s vs %s", first, second)
	}
	if len(first.String()) != 64 {
		t.Errorf("hex digest length = %d, want 64", len(first.String()))
	}
}

func TestHashFileDistinguishesContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pathA := filepath.Join(dir, "a")
	pathB := filepath.Join(dir, "b")
	if err := os.WriteFile(pathA, []byte("build one"), 0755); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := os.WriteFile(pathB, []byte("build two"), 0755); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	digestA, err := HashFile(pathA)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	digestB, err := HashFile(pathB)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}

	if digestA == digestB {
		t.Error("different contents produced identical digests")
	}
}

func TestHashFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := HashFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
