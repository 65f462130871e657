// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/addon-foundry/launchkit/lib/bootstrap"
	"github.com/addon-foundry/launchkit/lib/envmap"
	"github.com/addon-foundry/launchkit/lib/launcher"
	"github.com/addon-foundry/launchkit/lib/schema"
)

const dataDir = "/data/n8n"

// newDefinition declares the n8n launch. The environment variable names
// are n8n's own configuration contract and must match it byte for byte.
func newDefinition() *launcher.Definition {
	return &launcher.Definition{
		Name: "n8n",
		Fields: []schema.Field{
			{Key: "ssl", Type: schema.Bool, Required: true},
			{Key: "certfile", RequiredWhen: "ssl"},
			{Key: "keyfile", RequiredWhen: "ssl"},
			{Key: "timezone"},
			{Key: "webhook_url"},
			{Key: "basic_auth_enabled", Type: schema.Bool},
			{Key: "basic_auth_user"},
			{Key: "basic_auth_password", Secret: true},
		},
		Rules: []envmap.Rule{
			envmap.Toggle{From: "ssl", To: "N8N_PROTOCOL", True: "https", False: "http"},
			envmap.PathPrefix{From: "certfile", To: "N8N_SSL_CERT", Prefix: "/ssl"},
			envmap.PathPrefix{From: "keyfile", To: "N8N_SSL_KEY", Prefix: "/ssl"},
			envmap.Copy{From: "timezone", To: []string{"GENERIC_TIMEZONE", "TZ"}},
			envmap.Copy{From: "webhook_url", To: []string{
				"WEBHOOK_URL", "WEBHOOK_TUNNEL_URL", "VUE_APP_URL_BASE_API",
			}},
			envmap.Static{To: "N8N_USER_FOLDER", Value: dataDir},
			envmap.Conditional{
				FlagVar:     "N8N_BASIC_AUTH_ACTIVE",
				RequireTrue: []string{"basic_auth_enabled"},
				RequireSet:  []string{"basic_auth_user", "basic_auth_password"},
				Then: []envmap.Rule{
					envmap.Copy{From: "basic_auth_user", To: []string{"N8N_BASIC_AUTH_USER"}},
					envmap.Copy{From: "basic_auth_password", To: []string{"N8N_BASIC_AUTH_PASSWORD"}},
				},
			},
		},
		Steps: []bootstrap.Step{
			bootstrap.Dir{Path: dataDir, Mode: 0755},
			bootstrap.Own{Path: dataDir, User: "node", Recursive: true},
			// The node account must traverse /data to reach its folder.
			bootstrap.Chmod{Path: "/data", Mode: 0755},
			bootstrap.Symlink{Target: dataDir, Link: "/home/node/.n8n"},
		},
		DataDir: dataDir,
		RunAs:   "node",
		Dir:     dataDir,
		Command: []string{"n8n", "start"},
	}
}
