// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/addon-foundry/launchkit/lib/bootstrap"
	"github.com/addon-foundry/launchkit/lib/envmap"
	"github.com/addon-foundry/launchkit/lib/launcher"
	"github.com/addon-foundry/launchkit/lib/schema"
)

const tokenPath = "/config/eduvulcan_token.json"

// newDefinition declares the token fetcher launch. The EDUVULCAN_*
// variable names are the fetcher's own configuration contract.
func newDefinition() *launcher.Definition {
	return &launcher.Definition{
		Name: "eduvulcan",
		Fields: []schema.Field{
			{Key: "login", Required: true},
			{Key: "password", Required: true, Secret: true},
			{Key: "login_url"},
		},
		Rules: []envmap.Rule{
			envmap.Copy{From: "login", To: []string{"EDUVULCAN_LOGIN"}},
			envmap.Copy{From: "password", To: []string{"EDUVULCAN_PASSWORD"}},
			envmap.Copy{From: "login_url", To: []string{"EDUVULCAN_LOGIN_URL"}},
			envmap.Static{To: "EDUVULCAN_TOKEN_PATH", Value: tokenPath},
		},
		Steps: []bootstrap.Step{
			// The fetcher refuses to write the token if /config is
			// missing, so create it here rather than fail later.
			bootstrap.Dir{Path: "/config", Mode: 0755},
			bootstrap.Own{Path: "/config", User: "fetcher"},
		},
		RunAs:   "fetcher",
		Command: []string{"eduvulcan-token-fetcher"},
	}
}
