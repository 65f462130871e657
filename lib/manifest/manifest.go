// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest loads declarative add-on manifests for the generic
// launchkit binary.
//
// A manifest is a YAML document describing everything a compiled-in
// add-on definition would: the options schema, the environment rule
// table, the bootstrap steps, and the exec target. Manifests let an
// add-on be packaged without a dedicated Go entrypoint — the container
// ships the generic binary plus a manifest file.
//
// String values undergo ${VAR} expansion against a fixed variable table
// of mount points before use, so manifests stay portable across
// supervisor layouts. Unknown variables are an error, not an empty
// substitution — a path with a silently missing segment would
// bootstrap the wrong tree.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/addon-foundry/launchkit/lib/bootstrap"
	"github.com/addon-foundry/launchkit/lib/envmap"
	"github.com/addon-foundry/launchkit/lib/launcher"
	"github.com/addon-foundry/launchkit/lib/schema"
)

// Manifest is the YAML form of a launcher definition.
type Manifest struct {
	Name        string      `yaml:"name"`
	OptionsPath string      `yaml:"options_path"`
	RunAs       string      `yaml:"run_as"`
	Dir         string      `yaml:"dir"`
	DataDir     string      `yaml:"data_dir"`
	KeyFile     string      `yaml:"key_file"`
	Command     []string    `yaml:"command"`
	Fields      []FieldSpec `yaml:"fields"`
	Env         []EnvRule   `yaml:"env"`
	Steps       []StepSpec  `yaml:"steps"`
}

// FieldSpec is the YAML form of a schema field.
type FieldSpec struct {
	Key          string   `yaml:"key"`
	Type         string   `yaml:"type"`
	Required     bool     `yaml:"required"`
	RequiredWhen string   `yaml:"required_when"`
	Default      string   `yaml:"default"`
	Enum         []string `yaml:"enum"`
	Secret       bool     `yaml:"secret"`
}

// EnvRule is a tagged union: exactly one of its members must be set.
type EnvRule struct {
	Copy        *CopySpec        `yaml:"copy"`
	Prefix      *PrefixSpec      `yaml:"prefix"`
	Static      *StaticSpec      `yaml:"static"`
	Toggle      *ToggleSpec      `yaml:"toggle"`
	Conditional *ConditionalSpec `yaml:"conditional"`
}

// CopySpec fans one option out to one or more variables.
type CopySpec struct {
	From    string   `yaml:"from"`
	To      []string `yaml:"to"`
	Default string   `yaml:"default"`
}

// PrefixSpec places a filename option under a mount prefix.
type PrefixSpec struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Prefix string `yaml:"prefix"`
}

// StaticSpec sets a fixed variable.
type StaticSpec struct {
	To    string `yaml:"to"`
	Value string `yaml:"value"`
}

// ToggleSpec maps a boolean option to one of two strings.
type ToggleSpec struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	WhenTrue  string `yaml:"when_true"`
	WhenFalse string `yaml:"when_false"`
}

// ConditionalSpec derives a flag and gates dependent rules.
type ConditionalSpec struct {
	FlagVar     string    `yaml:"flag_var"`
	RequireTrue []string  `yaml:"require_true"`
	RequireSet  []string  `yaml:"require_set"`
	Then        []EnvRule `yaml:"then"`
}

// StepSpec is a tagged union: exactly one of its members must be set.
type StepSpec struct {
	Dir     *DirSpec     `yaml:"dir"`
	Own     *OwnSpec     `yaml:"own"`
	Chmod   *ChmodSpec   `yaml:"chmod"`
	Symlink *SymlinkSpec `yaml:"symlink"`
}

// DirSpec creates a directory tree. Mode is octal ("0755").
type DirSpec struct {
	Path string `yaml:"path"`
	Mode string `yaml:"mode"`
}

// OwnSpec transfers ownership to a service account.
type OwnSpec struct {
	Path      string `yaml:"path"`
	User      string `yaml:"user"`
	Recursive bool   `yaml:"recursive"`
}

// ChmodSpec sets permission bits. Mode is octal ("0755").
type ChmodSpec struct {
	Path string `yaml:"path"`
	Mode string `yaml:"mode"`
}

// SymlinkSpec links a fixed service path to the data mount.
type SymlinkSpec struct {
	Target string `yaml:"target"`
	Link   string `yaml:"link"`
}

// Parse decodes a manifest. Unknown YAML keys are rejected so typos
// fail loudly instead of silently dropping a rule.
func Parse(data []byte) (*Manifest, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// LoadFile reads and parses a manifest file.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate checks the manifest for structural errors. All violations
// are reported together.
func (m *Manifest) Validate() error {
	var violations []error

	if m.Name == "" {
		violations = append(violations, fmt.Errorf("name is required"))
	}
	if len(m.Command) == 0 {
		violations = append(violations, fmt.Errorf("command is required"))
	}

	for i, field := range m.Fields {
		if field.Key == "" {
			violations = append(violations, fmt.Errorf("fields[%d]: key is required", i))
		}
		if _, err := parseFieldType(field.Type); err != nil {
			violations = append(violations, fmt.Errorf("fields[%d] (%s): %w", i, field.Key, err))
		}
	}

	for i, rule := range m.Env {
		if err := rule.check(); err != nil {
			violations = append(violations, fmt.Errorf("env[%d]: %w", i, err))
		}
	}

	for i, step := range m.Steps {
		if err := step.check(); err != nil {
			violations = append(violations, fmt.Errorf("steps[%d]: %w", i, err))
		}
	}

	return errors.Join(violations...)
}

func (r EnvRule) check() error {
	count := 0
	if r.Copy != nil {
		count++
	}
	if r.Prefix != nil {
		count++
	}
	if r.Static != nil {
		count++
	}
	if r.Toggle != nil {
		count++
	}
	if r.Conditional != nil {
		count++
		for i, nested := range r.Conditional.Then {
			if err := nested.check(); err != nil {
				return fmt.Errorf("then[%d]: %w", i, err)
			}
		}
	}
	if count != 1 {
		return fmt.Errorf("want exactly one of copy/prefix/static/toggle/conditional, got %d", count)
	}
	return nil
}

func (s StepSpec) check() error {
	count := 0
	if s.Dir != nil {
		count++
		if _, err := parseMode(s.Dir.Mode); err != nil {
			return fmt.Errorf("dir %s: %w", s.Dir.Path, err)
		}
	}
	if s.Own != nil {
		count++
	}
	if s.Chmod != nil {
		count++
		if s.Chmod.Mode == "" {
			return fmt.Errorf("chmod %s: mode is required", s.Chmod.Path)
		}
		if _, err := parseMode(s.Chmod.Mode); err != nil {
			return fmt.Errorf("chmod %s: %w", s.Chmod.Path, err)
		}
	}
	if s.Symlink != nil {
		count++
	}
	if count != 1 {
		return fmt.Errorf("want exactly one of dir/own/chmod/symlink, got %d", count)
	}
	return nil
}

// Definition converts the manifest into a runnable launcher definition,
// expanding ${VAR} references against the variable table.
func (m *Manifest) Definition(vars Variables) (*launcher.Definition, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	expanded, err := m.expand(vars)
	if err != nil {
		return nil, err
	}

	fields := make([]schema.Field, 0, len(expanded.Fields))
	for _, spec := range expanded.Fields {
		fieldType, err := parseFieldType(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", spec.Key, err)
		}
		fields = append(fields, schema.Field{
			Key:          spec.Key,
			Type:         fieldType,
			Required:     spec.Required,
			RequiredWhen: spec.RequiredWhen,
			Default:      spec.Default,
			Enum:         spec.Enum,
			Secret:       spec.Secret,
		})
	}

	rules, err := buildRules(expanded.Env)
	if err != nil {
		return nil, err
	}

	steps, err := buildSteps(expanded.Steps)
	if err != nil {
		return nil, err
	}

	return &launcher.Definition{
		Name:        expanded.Name,
		OptionsPath: expanded.OptionsPath,
		Fields:      fields,
		Rules:       rules,
		Steps:       steps,
		DataDir:     expanded.DataDir,
		RunAs:       expanded.RunAs,
		Command:     expanded.Command,
		Dir:         expanded.Dir,
		KeyFile:     expanded.KeyFile,
	}, nil
}

func buildRules(specs []EnvRule) ([]envmap.Rule, error) {
	rules := make([]envmap.Rule, 0, len(specs))
	for _, spec := range specs {
		switch {
		case spec.Copy != nil:
			rules = append(rules, envmap.Copy{
				From: spec.Copy.From, To: spec.Copy.To, Default: spec.Copy.Default,
			})
		case spec.Prefix != nil:
			rules = append(rules, envmap.PathPrefix{
				From: spec.Prefix.From, To: spec.Prefix.To, Prefix: spec.Prefix.Prefix,
			})
		case spec.Static != nil:
			rules = append(rules, envmap.Static{
				To: spec.Static.To, Value: spec.Static.Value,
			})
		case spec.Toggle != nil:
			rules = append(rules, envmap.Toggle{
				From: spec.Toggle.From, To: spec.Toggle.To,
				True: spec.Toggle.WhenTrue, False: spec.Toggle.WhenFalse,
			})
		case spec.Conditional != nil:
			nested, err := buildRules(spec.Conditional.Then)
			if err != nil {
				return nil, err
			}
			rules = append(rules, envmap.Conditional{
				FlagVar:     spec.Conditional.FlagVar,
				RequireTrue: spec.Conditional.RequireTrue,
				RequireSet:  spec.Conditional.RequireSet,
				Then:        nested,
			})
		default:
			return nil, fmt.Errorf("empty env rule")
		}
	}
	return rules, nil
}

func buildSteps(specs []StepSpec) ([]bootstrap.Step, error) {
	steps := make([]bootstrap.Step, 0, len(specs))
	for _, spec := range specs {
		switch {
		case spec.Dir != nil:
			mode, err := parseMode(spec.Dir.Mode)
			if err != nil {
				return nil, fmt.Errorf("dir %s: %w", spec.Dir.Path, err)
			}
			steps = append(steps, bootstrap.Dir{Path: spec.Dir.Path, Mode: mode})
		case spec.Own != nil:
			steps = append(steps, bootstrap.Own{
				Path: spec.Own.Path, User: spec.Own.User, Recursive: spec.Own.Recursive,
			})
		case spec.Chmod != nil:
			mode, err := parseMode(spec.Chmod.Mode)
			if err != nil {
				return nil, fmt.Errorf("chmod %s: %w", spec.Chmod.Path, err)
			}
			steps = append(steps, bootstrap.Chmod{Path: spec.Chmod.Path, Mode: mode})
		case spec.Symlink != nil:
			steps = append(steps, bootstrap.Symlink{
				Target: spec.Symlink.Target, Link: spec.Symlink.Link,
			})
		default:
			return nil, fmt.Errorf("empty bootstrap step")
		}
	}
	return steps, nil
}

func parseFieldType(name string) (schema.Type, error) {
	switch name {
	case "", "string":
		return schema.String, nil
	case "bool":
		return schema.Bool, nil
	case "int":
		return schema.Int, nil
	default:
		return 0, fmt.Errorf("unknown field type %q (want string, bool, or int)", name)
	}
}

func parseMode(mode string) (os.FileMode, error) {
	if mode == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q", mode)
	}
	return os.FileMode(parsed), nil
}
