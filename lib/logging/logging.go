// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging constructs the structured loggers used by launchkit
// binaries.
//
// Add-on entrypoints normally run headless under a container supervisor,
// where stderr is captured into the add-on log. In that case records are
// emitted as JSON so the supervisor's log viewer can parse them. When
// stderr is a terminal (local debugging, `launchkit explain`), a text
// handler is used instead.
package logging

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// New creates a structured logger writing to stderr at the given level.
// Terminal stderr gets human-readable text output; piped or redirected
// stderr gets JSON records.
func New(level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// ParseLevel maps the conventional level names to slog levels. Unknown
// names fall back to info rather than failing startup — a bad log level
// must never prevent an add-on from launching.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
