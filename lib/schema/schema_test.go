// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/addon-foundry/launchkit/lib/options"
)

func TestValidatePasses(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{
		"login":    "alice",
		"password": "secret",
		"ssl":      false,
	})
	fields := []Field{
		{Key: "login", Required: true},
		{Key: "password", Required: true, Secret: true},
		{Key: "ssl", Type: Bool},
		{Key: "timezone"},
	}

	if err := Validate(doc, fields); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateMissingRequired(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  *options.Document
	}{
		{"absent", options.New(map[string]any{"password": "secret"})},
		{"empty string", options.New(map[string]any{"login": "", "password": "secret"})},
		{"null", options.New(map[string]any{"login": nil, "password": "secret"})},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tc.doc, []Field{
				{Key: "login", Required: true},
				{Key: "password", Required: true},
			})
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("error %v is not a MissingFieldError", err)
			}
			if missing.Key != "login" {
				t.Errorf("missing key = %q, want login", missing.Key)
			}
			if !strings.Contains(err.Error(), "login") {
				t.Errorf("error %q does not name the field", err)
			}
		})
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{})
	err := Validate(doc, []Field{
		{Key: "login", Required: true},
		{Key: "password", Required: true},
	})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}

	message := err.Error()
	for _, key := range []string{"login", "password"} {
		if !strings.Contains(message, key) {
			t.Errorf("batch error %q does not mention %q", message, key)
		}
	}
}

func TestValidateRequiredWhen(t *testing.T) {
	t.Parallel()

	fields := []Field{
		{Key: "ssl", Type: Bool, Required: true},
		{Key: "certfile", RequiredWhen: "ssl"},
		{Key: "keyfile", RequiredWhen: "ssl"},
	}

	// ssl off: certfile may be absent.
	off := options.New(map[string]any{"ssl": false})
	if err := Validate(off, fields); err != nil {
		t.Errorf("ssl=false should not require certfile: %v", err)
	}

	// ssl on: certfile and keyfile become required.
	on := options.New(map[string]any{"ssl": true})
	err := Validate(on, fields)
	if err == nil {
		t.Fatal("ssl=true should require certfile and keyfile")
	}
	for _, key := range []string{"certfile", "keyfile"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %q", err.Error(), key)
		}
	}
}

func TestValidateTypeViolations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		doc   *options.Document
		field Field
	}{
		{"bool gets string", options.New(map[string]any{"ssl": "sometimes"}), Field{Key: "ssl", Type: Bool}},
		{"bool gets number", options.New(map[string]any{"ssl": 1.0}), Field{Key: "ssl", Type: Bool}},
		{"int gets fraction", options.New(map[string]any{"port": 56.78}), Field{Key: "port", Type: Int}},
		{"int gets word", options.New(map[string]any{"port": "many"}), Field{Key: "port", Type: Int}},
		{"string gets object", options.New(map[string]any{"name": map[string]any{}}), Field{Key: "name", Type: String}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := Validate(tc.doc, []Field{tc.field}); err == nil {
				t.Error("expected type violation, got nil")
			}
		})
	}
}

func TestValidateRequiredNonScalarIsTypeViolation(t *testing.T) {
	t.Parallel()

	// A required field holding an array renders to "" through the
	// string accessor; the diagnostic must name the wrong type rather
	// than claim the field is missing.
	doc := options.New(map[string]any{"login": []any{"alice"}})
	err := Validate(doc, []Field{{Key: "login", Required: true}})
	if err == nil {
		t.Fatal("expected type violation, got nil")
	}

	var missing *MissingFieldError
	if errors.As(err, &missing) {
		t.Fatalf("error %v reported as missing field, want type violation", err)
	}
	if !strings.Contains(err.Error(), "scalar") {
		t.Errorf("error %q does not name the type problem", err)
	}
}

func TestValidateEnum(t *testing.T) {
	t.Parallel()

	field := Field{Key: "log_level", Enum: []string{"debug", "info", "warn", "error"}}

	ok := options.New(map[string]any{"log_level": "info"})
	if err := Validate(ok, []Field{field}); err != nil {
		t.Errorf("valid enum value rejected: %v", err)
	}

	bad := options.New(map[string]any{"log_level": "loud"})
	if err := Validate(bad, []Field{field}); err == nil {
		t.Error("invalid enum value accepted")
	}
}

func TestValidateIgnoresUnknownKeys(t *testing.T) {
	t.Parallel()

	doc := options.New(map[string]any{
		"login":        "alice",
		"future_knob":  "whatever",
		"another_knob": 42.0,
	})
	if err := Validate(doc, []Field{{Key: "login", Required: true}}); err != nil {
		t.Errorf("unknown keys must be ignored: %v", err)
	}
}
