// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package launcher ties the launch stages together and hands the
// container over to the wrapped service.
//
// An add-on is a [Definition]: the options schema, the environment
// materialization table, the filesystem bootstrap steps, and the exec
// target. [Definition.Run] executes the stages strictly in order —
// load, validate, materialize, bootstrap, exec — and fails fast: every
// error is terminal, nothing is retried, and no stage starts before the
// previous one has fully succeeded. A misconfigured automation or
// search service silently running in a broken state is worse than one
// that refuses to start.
//
// The final stage replaces the launcher's process image via exec(2).
// The wrapped service inherits the launcher's PID, file descriptors,
// and signal delivery, so the supervisor platform's process tracking
// and shutdown signaling keep working without a proxy process in
// between.
package launcher

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/addon-foundry/launchkit/lib/bootstrap"
	"github.com/addon-foundry/launchkit/lib/envmap"
	"github.com/addon-foundry/launchkit/lib/options"
	"github.com/addon-foundry/launchkit/lib/schema"
)

// DefaultOptionsPath is where the supervisor platform writes the add-on
// options document.
const DefaultOptionsPath = "/data/options.json"

// DefaultKeyFile is the add-on's age identity for sealed secret files.
const DefaultKeyFile = "/data/.launchkit.key"

// Definition declares a complete add-on launch.
type Definition struct {
	// Name identifies the add-on in log records.
	Name string

	// OptionsPath is the options document location. Empty means
	// DefaultOptionsPath.
	OptionsPath string

	// Fields is the options schema.
	Fields []schema.Field

	// Rules is the environment materialization table.
	Rules []envmap.Rule

	// Steps is the filesystem bootstrap sequence.
	Steps []bootstrap.Step

	// DataDir, when set, is locked against concurrent launcher
	// instances before bootstrap runs.
	DataDir string

	// RunAs names the service account the wrapped service runs as.
	// Empty means no privilege drop.
	RunAs string

	// Command is the default wrapped-service invocation. Arguments
	// passed to Run override it entirely.
	Command []string

	// Dir is the working directory for the wrapped service. Empty
	// means inherit the launcher's.
	Dir string

	// KeyFile is the age identity file for "!secret <path>.age"
	// indirection. Empty means DefaultKeyFile.
	KeyFile string

	// ExtraEnv, when set, contributes environment variables that
	// depend on bootstrapped filesystem state (generated secrets,
	// materialized config files). It runs after bootstrap and before
	// exec; its entries overwrite the materialized set on collision.
	ExtraEnv func(doc *options.Document) (envmap.Set, error)

	// execFunc substitutes the exec syscall in tests.
	execFunc func(argv0 string, argv []string, envv []string) error
}

// Run executes the launch pipeline. args, when non-empty, override the
// definition's command (debugging and alternate entrypoints). On
// success the call never returns — the process image has been
// replaced. Any returned error is terminal; main logs it and exits
// non-zero.
func (d *Definition) Run(args []string, logger *slog.Logger) error {
	logger = logger.With("addon", d.Name, "launch_id", uuid.NewString())

	optionsPath := d.OptionsPath
	if optionsPath == "" {
		optionsPath = DefaultOptionsPath
	}

	doc, err := options.Load(optionsPath)
	if err != nil {
		logger.Error("loading options failed", "path", optionsPath, "error", err)
		return err
	}
	logger.Info("options loaded", "path", optionsPath, "keys", len(doc.Keys()))

	doc, err = d.resolveSecrets(doc, logger)
	if err != nil {
		logger.Error("secret indirection failed", "error", err)
		return err
	}

	if err := schema.Validate(doc, d.Fields); err != nil {
		logger.Error("options validation failed", "error", err)
		return fmt.Errorf("validating options: %w", err)
	}
	logger.Info("options validated", "fields", len(d.Fields))

	set, err := envmap.Materialize(doc, d.Rules)
	if err != nil {
		logger.Error("environment materialization failed", "error", err)
		return fmt.Errorf("materializing environment: %w", err)
	}
	logger.Info("environment materialized", "variables", len(set))

	if d.DataDir != "" {
		lock, err := bootstrap.Lock(d.DataDir)
		if err != nil {
			logger.Error("data directory lock failed", "dir", d.DataDir, "error", err)
			return err
		}
		// The deferred release keeps the handle reachable for the rest
		// of Run; an unreferenced lock would be finalized by the GC,
		// closing the descriptor and dropping the lock mid-bootstrap.
		// On a successful exec the defer never runs and the
		// close-on-exec descriptor releases at handoff.
		defer lock.Unlock()
	}

	if err := bootstrap.Run(logger, d.Steps); err != nil {
		logger.Error("filesystem bootstrap failed", "error", err)
		return err
	}
	logger.Info("filesystem bootstrapped", "steps", len(d.Steps))

	if d.ExtraEnv != nil {
		extra, err := d.ExtraEnv(doc)
		if err != nil {
			logger.Error("extra environment failed", "error", err)
			return fmt.Errorf("extra environment: %w", err)
		}
		for name, value := range extra {
			set[name] = value
		}
	}

	command := d.Command
	if len(args) > 0 {
		command = args
		logger.Info("command overridden by launcher arguments", "command", command)
	}

	return d.exec(command, set, logger)
}
