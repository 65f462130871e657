// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package version exposes build metadata for --version output.
//
// The values are stamped at build time:
//
//	go build -ldflags "-X github.com/addon-foundry/launchkit/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Stamped via -ldflags; the defaults identify an unstamped dev build.
var (
	// Version is the semantic version, set manually for releases.
	Version = "0.1.0-dev"

	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty is "true" when the build had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// String renders the one-line form binaries print for --version, e.g.
// "0.1.0-dev (3f2a91c-dirty, 2026-08-29T10:00:00Z)".
func String() string {
	var b strings.Builder
	b.WriteString(Version)
	b.WriteString(" (")
	b.WriteString(GitCommit)
	if GitDirty == "true" {
		b.WriteString("-dirty")
	}
	b.WriteString(", ")
	b.WriteString(BuildTime)
	b.WriteString(")")
	return b.String()
}

// Detailed renders the multi-line form for the version subcommand,
// including the toolchain and platform the binary was built for.
func Detailed() string {
	return fmt.Sprintf("%s\n  go: %s\n  platform: %s/%s",
		String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
