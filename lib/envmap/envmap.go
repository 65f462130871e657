// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package envmap materializes the wrapped service's environment from a
// validated options document.
//
// The mapping is a declarative table of [Rule] values, so each add-on's
// translation from option keys to service environment variables is data
// the tests can exercise in isolation from process startup. The result
// is a [Set] — a plain map that stays an ordinary value until the exec
// boundary, where [Set.Environ] serializes it over the base process
// environment. The launcher never mutates its own environment as a way
// of passing configuration.
//
// Empty optional values never materialize empty-string variables: the
// wrapped services treat "unset" and "set to empty" differently (auth
// toggling in particular), so an empty source simply produces no
// variable.
package envmap

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/addon-foundry/launchkit/lib/options"
)

// Set is a materialized environment: variable name to value.
type Set map[string]string

// Environ renders the set merged over a base environment (typically
// os.Environ()). Base entries for variables present in the set are
// replaced; the set's entries are appended in sorted order so the
// result is deterministic.
func (s Set) Environ(base []string) []string {
	merged := make([]string, 0, len(base)+len(s))
	for _, entry := range base {
		name, _, ok := strings.Cut(entry, "=")
		if ok {
			if _, shadowed := s[name]; shadowed {
				continue
			}
		}
		merged = append(merged, entry)
	}

	for _, name := range s.Names() {
		merged = append(merged, name+"="+s[name])
	}
	return merged
}

// Names returns the set's variable names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rule is one entry of an add-on's materialization table. Rules apply
// in declaration order; a later rule may overwrite a variable set by an
// earlier one.
type Rule interface {
	apply(doc *options.Document, set Set) error
}

// Materialize applies the rule table to the document and returns the
// resulting environment set. The document is read-only throughout;
// materializing twice yields identical sets.
func Materialize(doc *options.Document, rules []Rule) (Set, error) {
	set := make(Set)
	for _, rule := range rules {
		if err := rule.apply(doc, set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Copy flows one option value unchanged into one or more target
// variables. Every target receives the byte-identical string — the
// value is read once, never recomputed per target. An empty or absent
// source (after Default) produces no variables at all.
type Copy struct {
	// From is the source option key.
	From string

	// To lists the target variable names.
	To []string

	// Default substitutes when the source is absent or empty.
	Default string
}

func (r Copy) apply(doc *options.Document, set Set) error {
	value := doc.String(r.From, "")
	if value == "" {
		value = r.Default
	}
	if value == "" {
		return nil
	}
	for _, target := range r.To {
		set[target] = value
	}
	return nil
}

// PathPrefix places an option value (a filename) under a fixed mount
// prefix, e.g. certfile "fullchain.pem" under "/ssl" becomes
// "/ssl/fullchain.pem". The filename must stay inside the prefix:
// absolute values and ".." traversal are rejected rather than silently
// pointing the service outside its mount.
type PathPrefix struct {
	From   string
	To     string
	Prefix string
}

func (r PathPrefix) apply(doc *options.Document, set Set) error {
	value := doc.String(r.From, "")
	if value == "" {
		return nil
	}

	if strings.HasPrefix(value, "/") {
		return fmt.Errorf("option %q is an absolute path %q, want a filename under %s", r.From, value, r.Prefix)
	}
	cleaned := path.Clean(value)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("option %q escapes %s: %q", r.From, r.Prefix, value)
	}

	set[r.To] = path.Join(r.Prefix, cleaned)
	return nil
}

// Static sets a fixed variable regardless of the document. Used for
// service-contract constants such as the data folder location.
type Static struct {
	To    string
	Value string
}

func (r Static) apply(doc *options.Document, set Set) error {
	set[r.To] = r.Value
	return nil
}

// Toggle maps a boolean option to one of two fixed strings, e.g. ssl
// true/false to protocol "https"/"http". Unlike Copy, the variable is
// always set — a toggle has a defined value in both states.
type Toggle struct {
	From  string
	To    string
	True  string
	False string
}

func (r Toggle) apply(doc *options.Document, set Set) error {
	if doc.Bool(r.From, false) {
		set[r.To] = r.True
	} else {
		set[r.To] = r.False
	}
	return nil
}

// Conditional derives a feature flag from the presence of other fields
// and withholds the dependent variables when the flag resolves to
// false.
//
// The flag is true only when every RequireTrue option is boolean true
// and every RequireSet option is present and non-empty. When the flag
// is false, the Then rules do not run, so their variables are absent
// from the set entirely — not set to empty strings. A service that saw
// an enabled flag with an empty credential would start in a broken
// half-authenticated state; withholding the variables keeps the feature
// cleanly off instead.
type Conditional struct {
	// FlagVar receives "true" or "false".
	FlagVar string

	// RequireTrue lists boolean options that must all be true.
	RequireTrue []string

	// RequireSet lists options that must all be present and non-empty.
	RequireSet []string

	// Then are the dependent rules, applied only when the flag is true.
	Then []Rule
}

func (r Conditional) apply(doc *options.Document, set Set) error {
	active := true
	for _, key := range r.RequireTrue {
		if !doc.Bool(key, false) {
			active = false
		}
	}
	for _, key := range r.RequireSet {
		if doc.String(key, "") == "" {
			active = false
		}
	}

	if r.FlagVar != "" {
		if active {
			set[r.FlagVar] = "true"
		} else {
			set[r.FlagVar] = "false"
		}
	}
	if !active {
		return nil
	}

	for _, rule := range r.Then {
		if err := rule.apply(doc, set); err != nil {
			return err
		}
	}
	return nil
}
