// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package envmap

import (
	"reflect"
	"testing"

	"github.com/addon-foundry/launchkit/lib/options"
)

func TestCopyFanOutValueIdentity(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{
		"webhook_url": "https://automation.example.net/",
	})
	rules := []Rule{
		Copy{From: "webhook_url", To: []string{"WEBHOOK_URL", "WEBHOOK_TUNNEL_URL", "VUE_APP_URL_BASE_API"}},
	}

	set, err := Materialize(doc, rules)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	targets := []string{"WEBHOOK_URL", "WEBHOOK_TUNNEL_URL", "VUE_APP_URL_BASE_API"}
	for _, target := range targets {
		if set[target] != "https://automation.example.net/" {
			t.Errorf("%s = %q, want the source value", target, set[target])
		}
	}
	if set[targets[0]] != set[targets[1]] || set[targets[1]] != set[targets[2]] {
		t.Error("fan-out targets differ; all must be byte-identical")
	}
}

func TestCopyEmptyProducesNoVariable(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{"webhook_url": ""})
	set, err := Materialize(doc, []Rule{
		Copy{From: "webhook_url", To: []string{"WEBHOOK_URL"}},
		Copy{From: "absent_key", To: []string{"OTHER"}},
	})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	if _, ok := set["WEBHOOK_URL"]; ok {
		t.Error("empty source must not materialize an empty-string variable")
	}
	if _, ok := set["OTHER"]; ok {
		t.Error("absent source must not materialize a variable")
	}
}

func TestCopyDefault(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{})
	set, err := Materialize(doc, []Rule{
		Copy{From: "instance_name", To: []string{"INSTANCE_NAME"}, Default: "SearXNG"},
	})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if set["INSTANCE_NAME"] != "SearXNG" {
		t.Errorf("INSTANCE_NAME = %q, want default SearXNG", set["INSTANCE_NAME"])
	}
}

func TestPathPrefix(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{"certfile": "fullchain.pem"})
	set, err := Materialize(doc, []Rule{
		PathPrefix{From: "certfile", To: "N8N_SSL_CERT", Prefix: "/ssl"},
	})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if set["N8N_SSL_CERT"] != "/ssl/fullchain.pem" {
		t.Errorf("N8N_SSL_CERT = %q, want /ssl/fullchain.pem", set["N8N_SSL_CERT"])
	}
}

func TestPathPrefixRejectsEscapes(t *testing.T) {
	t.Parallel()

	cases := []string{
		"/etc/shadow",
		"../secrets/key.pem",
		"certs/../../key.pem",
	}
	for _, value := range cases {
		doc := options.New(map[string]any{"certfile": value})
		_, err := Materialize(doc, []Rule{
			PathPrefix{From: "certfile", To: "N8N_SSL_CERT", Prefix: "/ssl"},
		})
		if err == nil {
			t.Errorf("certfile %q accepted; want traversal rejection", value)
		}
	}
}

func TestPathPrefixEmptySkipped(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{})
	set, err := Materialize(doc, []Rule{
		PathPrefix{From: "certfile", To: "N8N_SSL_CERT", Prefix: "/ssl"},
	})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if _, ok := set["N8N_SSL_CERT"]; ok {
		t.Error("absent certfile must not materialize a variable")
	}
}

func TestToggle(t *testing.T) {
	t.Parallel()

	rule := Toggle{From: "ssl", To: "N8N_PROTOCOL", True: "https", False: "http"}

	on, err := Materialize(options.New(map[string]any{"ssl": true}), []Rule{rule})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if on["N8N_PROTOCOL"] != "https" {
		t.Errorf("ssl=true: N8N_PROTOCOL = %q, want https", on["N8N_PROTOCOL"])
	}

	off, err := Materialize(options.New(map[string]any{}), []Rule{rule})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if off["N8N_PROTOCOL"] != "http" {
		t.Errorf("ssl absent: N8N_PROTOCOL = %q, want http", off["N8N_PROTOCOL"])
	}
}

// basicAuthRules is the canonical conditional derivation: the active
// flag requires both the enabled toggle and a non-empty username, and
// the credential variables exist only when the flag is true.
func basicAuthRules() []Rule {
	return []Rule{
		Conditional{
			FlagVar:     "N8N_BASIC_AUTH_ACTIVE",
			RequireTrue: []string{"basic_auth_enabled"},
			RequireSet:  []string{"basic_auth_user"},
			Then: []Rule{
				Copy{From: "basic_auth_user", To: []string{"N8N_BASIC_AUTH_USER"}},
				Copy{From: "basic_auth_password", To: []string{"N8N_BASIC_AUTH_PASSWORD"}},
			},
		},
	}
}

func TestConditionalAuthActive(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{
		"basic_auth_enabled":  true,
		"basic_auth_user":     "admin",
		"basic_auth_password": "hunter2",
	})
	set, err := Materialize(doc, basicAuthRules())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	if set["N8N_BASIC_AUTH_ACTIVE"] != "true" {
		t.Errorf("N8N_BASIC_AUTH_ACTIVE = %q, want true", set["N8N_BASIC_AUTH_ACTIVE"])
	}
	if set["N8N_BASIC_AUTH_USER"] != "admin" {
		t.Errorf("N8N_BASIC_AUTH_USER = %q, want admin", set["N8N_BASIC_AUTH_USER"])
	}
	if set["N8N_BASIC_AUTH_PASSWORD"] != "hunter2" {
		t.Errorf("N8N_BASIC_AUTH_PASSWORD = %q, want hunter2", set["N8N_BASIC_AUTH_PASSWORD"])
	}
}

func TestConditionalEmptyUserForcesInactive(t *testing.T) {
	t.Parallel()

	// Enabled flag is true but the username is empty: the effective
	// flag must be false and neither credential variable may appear.
	doc := options.New(map[string]any{
		"basic_auth_enabled":  true,
		"basic_auth_user":     "",
		"basic_auth_password": "hunter2",
	})
	set, err := Materialize(doc, basicAuthRules())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	if set["N8N_BASIC_AUTH_ACTIVE"] != "false" {
		t.Errorf("N8N_BASIC_AUTH_ACTIVE = %q, want false", set["N8N_BASIC_AUTH_ACTIVE"])
	}
	if _, ok := set["N8N_BASIC_AUTH_USER"]; ok {
		t.Error("N8N_BASIC_AUTH_USER present; must be withheld, not set to empty")
	}
	if _, ok := set["N8N_BASIC_AUTH_PASSWORD"]; ok {
		t.Error("N8N_BASIC_AUTH_PASSWORD present; must be withheld")
	}
}

func TestConditionalDisabledFlag(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{
		"basic_auth_user":     "admin",
		"basic_auth_password": "hunter2",
	})
	set, err := Materialize(doc, basicAuthRules())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	if set["N8N_BASIC_AUTH_ACTIVE"] != "false" {
		t.Errorf("N8N_BASIC_AUTH_ACTIVE = %q, want false when enabled flag is absent", set["N8N_BASIC_AUTH_ACTIVE"])
	}
	if _, ok := set["N8N_BASIC_AUTH_USER"]; ok {
		t.Error("credentials materialized despite disabled flag")
	}
}

func TestMaterializeDeterministic(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{
		"ssl":      true,
		"certfile": "cert.pem",
		"timezone": "Europe/Warsaw",
	})
	rules := []Rule{
		Toggle{From: "ssl", To: "N8N_PROTOCOL", True: "https", False: "http"},
		PathPrefix{From: "certfile", To: "N8N_SSL_CERT", Prefix: "/ssl"},
		Copy{From: "timezone", To: []string{"GENERIC_TIMEZONE", "TZ"}},
	}

	first, err := Materialize(doc, rules)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	second, err := Materialize(doc, rules)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("materialization not deterministic: %v vs %v", first, second)
	}
}

func TestEnviron(t *testing.T) {
	t.Parallel()

	set := Set{
		"TZ":    "Europe/Warsaw",
		"LOGIN": "alice",
	}
	base := []string{"PATH=/usr/bin", "TZ=UTC", "HOME=/root"}

	got := set.Environ(base)
	want := []string{"PATH=/usr/bin", "HOME=/root", "LOGIN=alice", "TZ=Europe/Warsaw"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Environ = %v, want %v", got, want)
	}
}
