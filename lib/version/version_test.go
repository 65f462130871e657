// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestStringMarksDirtyBuilds(t *testing.T) {
	clean := String()
	if strings.Contains(clean, "-dirty") {
		t.Errorf("clean build rendered as dirty: %q", clean)
	}

	defer func(previous string) { GitDirty = previous }(GitDirty)
	GitDirty = "true"

	dirty := String()
	if !strings.Contains(dirty, GitCommit+"-dirty") {
		t.Errorf("dirty build not marked: %q", dirty)
	}
}

func TestDetailedIncludesPlatform(t *testing.T) {
	detailed := Detailed()
	if !strings.Contains(detailed, String()) {
		t.Errorf("Detailed missing the one-line form: %q", detailed)
	}
	if !strings.Contains(detailed, "platform:") {
		t.Errorf("Detailed missing platform line: %q", detailed)
	}
}
