// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"regexp"
)

// Variables is the table for ${VAR} expansion in manifest strings.
type Variables map[string]string

// DefaultVariables returns the standard supervisor mount points.
func DefaultVariables() Variables {
	return Variables{
		"DATA":   "/data",
		"SSL":    "/ssl",
		"CONFIG": "/config",
		"SHARE":  "/share",
		"HOME":   "/home",
	}
}

var varPattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)

// expandString substitutes ${VAR} references. Unknown variables are an
// error.
func expandString(s string, vars Variables) (string, error) {
	var unknown []string
	expanded := varPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := varPattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if !ok {
			unknown = append(unknown, name)
			return match
		}
		return value
	})
	if len(unknown) > 0 {
		return "", fmt.Errorf("unknown manifest variable(s) %v in %q", unknown, s)
	}
	return expanded, nil
}

// expand returns a deep copy of the manifest with every string value
// expanded. The receiver is not modified.
func (m *Manifest) expand(vars Variables) (*Manifest, error) {
	expanded := &Manifest{
		Name:   m.Name,
		RunAs:  m.RunAs,
		Fields: append([]FieldSpec(nil), m.Fields...),
	}

	var err error
	expand := func(s string) string {
		if err != nil {
			return s
		}
		var out string
		out, err = expandString(s, vars)
		return out
	}

	expanded.OptionsPath = expand(m.OptionsPath)
	expanded.Dir = expand(m.Dir)
	expanded.DataDir = expand(m.DataDir)
	expanded.KeyFile = expand(m.KeyFile)

	expanded.Command = make([]string, len(m.Command))
	for i, arg := range m.Command {
		expanded.Command[i] = expand(arg)
	}

	expanded.Env = make([]EnvRule, len(m.Env))
	for i, rule := range m.Env {
		expanded.Env[i] = expandRule(rule, expand)
	}

	expanded.Steps = make([]StepSpec, len(m.Steps))
	for i, step := range m.Steps {
		expanded.Steps[i] = expandStep(step, expand)
	}

	if err != nil {
		return nil, err
	}
	return expanded, nil
}

func expandRule(rule EnvRule, expand func(string) string) EnvRule {
	var out EnvRule
	switch {
	case rule.Copy != nil:
		copied := *rule.Copy
		copied.Default = expand(copied.Default)
		out.Copy = &copied
	case rule.Prefix != nil:
		copied := *rule.Prefix
		copied.Prefix = expand(copied.Prefix)
		out.Prefix = &copied
	case rule.Static != nil:
		copied := *rule.Static
		copied.Value = expand(copied.Value)
		out.Static = &copied
	case rule.Toggle != nil:
		copied := *rule.Toggle
		copied.WhenTrue = expand(copied.WhenTrue)
		copied.WhenFalse = expand(copied.WhenFalse)
		out.Toggle = &copied
	case rule.Conditional != nil:
		copied := *rule.Conditional
		copied.Then = make([]EnvRule, len(rule.Conditional.Then))
		for i, nested := range rule.Conditional.Then {
			copied.Then[i] = expandRule(nested, expand)
		}
		out.Conditional = &copied
	}
	return out
}

func expandStep(step StepSpec, expand func(string) string) StepSpec {
	var out StepSpec
	switch {
	case step.Dir != nil:
		copied := *step.Dir
		copied.Path = expand(copied.Path)
		out.Dir = &copied
	case step.Own != nil:
		copied := *step.Own
		copied.Path = expand(copied.Path)
		out.Own = &copied
	case step.Chmod != nil:
		copied := *step.Chmod
		copied.Path = expand(copied.Path)
		out.Chmod = &copied
	case step.Symlink != nil:
		copied := *step.Symlink
		copied.Target = expand(copied.Target)
		copied.Link = expand(copied.Link)
		out.Symlink = &copied
	}
	return out
}
