// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/addon-foundry/launchkit/lib/bootstrap"
	"github.com/addon-foundry/launchkit/lib/envmap"
	"github.com/addon-foundry/launchkit/lib/identity"
	"github.com/addon-foundry/launchkit/lib/launcher"
	"github.com/addon-foundry/launchkit/lib/options"
	"github.com/addon-foundry/launchkit/lib/schema"
)

const (
	dataDir    = "/data/searxng"
	secretPath = dataDir + "/secret"
	runAs      = "searxng"
)

// newDefinition declares the SearXNG launch. SEARXNG_SECRET is
// contributed by the post-bootstrap hook because the secret file lives
// inside the directory the bootstrap stage creates.
func newDefinition() *launcher.Definition {
	return &launcher.Definition{
		Name: "searxng",
		Fields: []schema.Field{
			{Key: "base_url", Required: true},
			{Key: "instance_name", Default: "SearXNG"},
			{Key: "limiter", Type: schema.Bool},
			{Key: "timezone"},
		},
		Rules: []envmap.Rule{
			envmap.Copy{From: "base_url", To: []string{"SEARXNG_BASE_URL", "SEARXNG_URL"}},
			envmap.Copy{From: "instance_name", To: []string{"SEARXNG_INSTANCE_NAME"}, Default: "SearXNG"},
			envmap.Toggle{From: "limiter", To: "SEARXNG_LIMITER", True: "true", False: "false"},
			envmap.Copy{From: "timezone", To: []string{"TZ"}},
			envmap.Static{To: "SEARXNG_SETTINGS_PATH", Value: dataDir + "/settings.yml"},
		},
		Steps: []bootstrap.Step{
			bootstrap.Dir{Path: dataDir, Mode: 0750},
			bootstrap.Own{Path: dataDir, User: runAs, Recursive: true},
			bootstrap.Symlink{Target: dataDir, Link: "/etc/searxng"},
		},
		DataDir: dataDir,
		RunAs:   runAs,
		Dir:     dataDir,
		Command: []string{"searxng-run"},
		ExtraEnv: func(doc *options.Document) (envmap.Set, error) {
			value, err := ensureSecret(secretPath)
			if err != nil {
				return nil, err
			}
			return envmap.Set{"SEARXNG_SECRET": value}, nil
		},
	}
}

// ensureSecret returns the persisted instance secret, generating it on
// first launch. The value must be stable across restarts or every
// session and signed URL dies with the container.
func ensureSecret(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		existing := strings.TrimSpace(string(data))
		if existing == "" {
			return "", fmt.Errorf("instance secret %s is empty", path)
		}
		return existing, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading instance secret: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating instance secret: %w", err)
	}
	value := hex.EncodeToString(raw)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("writing instance secret: %w", err)
	}
	if _, err := file.WriteString(value + "\n"); err != nil {
		file.Close()
		return "", fmt.Errorf("writing instance secret: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("writing instance secret: %w", err)
	}

	// The service account reads the secret after the privilege drop.
	if identity.IsRoot() {
		if account, err := identity.Lookup(runAs); err == nil {
			if err := os.Chown(path, account.UID, account.GID); err != nil {
				return "", fmt.Errorf("owning instance secret: %w", err)
			}
		}
	}
	return value, nil
}
