// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema declares and validates the option fields an add-on
// consumes.
//
// Every key the environment materializer reads must appear in the
// add-on's field list; keys present in the options document but absent
// from the schema are ignored, which keeps old launchers compatible
// with newer supervisor schemas.
//
// Validation is whole-document: all violations are collected and joined
// into a single error, so an operator fixing a broken configuration
// sees every missing field at once instead of one per restart.
package schema

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/addon-foundry/launchkit/lib/options"
)

// Type is the expected JSON type of an option field.
type Type int

const (
	// String accepts any scalar (numbers and booleans are rendered to
	// their string form by the options accessors).
	String Type = iota
	// Bool accepts JSON booleans and the strings "true"/"false".
	Bool
	// Int accepts JSON numbers without a fractional part and numeric
	// strings.
	Int
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Bool:
		return "bool"
	case Int:
		return "int"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Field declares one option key.
type Field struct {
	// Key is the option name in the document.
	Key string

	// Type is the expected value type.
	Type Type

	// Required makes an absent or empty-string value a startup failure.
	Required bool

	// RequiredWhen names a boolean option that gates the requirement:
	// the field is required only when that option is true (e.g. certfile
	// is required only when ssl is enabled).
	RequiredWhen string

	// Default documents the value used downstream when the field is
	// absent. Informational for `launchkit explain`; the materializer
	// rules carry their own defaults.
	Default string

	// Enum restricts the value to a fixed set when non-empty.
	Enum []string

	// Secret marks the value as sensitive. Secret values are masked in
	// explain output and never logged.
	Secret bool
}

// MissingFieldError reports a required field that is absent or empty.
// Match with errors.As; Key names the exact offending option.
type MissingFieldError struct {
	Key string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required option %q is missing or empty", e.Key)
}

// Validate checks the document against the field list. All violations
// are reported together via errors.Join. A nil return means every
// required field is present and non-empty and all present values have
// the declared type.
func Validate(doc *options.Document, fields []Field) error {
	var violations []error

	for _, field := range fields {
		required := field.Required
		if field.RequiredWhen != "" && doc.Bool(field.RequiredWhen, false) {
			required = true
		}

		if !doc.Has(field.Key) {
			if required {
				violations = append(violations, &MissingFieldError{Key: field.Key})
			}
			continue
		}

		// Type before emptiness: a required field holding an array or
		// object renders to "" through the string accessor, and the
		// diagnostic must name the wrong type, not a missing value.
		if err := checkType(doc, field); err != nil {
			violations = append(violations, err)
			continue
		}

		value := doc.String(field.Key, "")
		if required && value == "" {
			violations = append(violations, &MissingFieldError{Key: field.Key})
			continue
		}

		if len(field.Enum) > 0 && value != "" && !contains(field.Enum, value) {
			violations = append(violations, fmt.Errorf(
				"option %q is %q, must be one of %v", field.Key, value, field.Enum))
		}
	}

	return errors.Join(violations...)
}

// checkType verifies a present value against the declared field type.
func checkType(doc *options.Document, field Field) error {
	raw, _ := doc.Raw(field.Key)

	switch field.Type {
	case Bool:
		switch v := raw.(type) {
		case bool:
			return nil
		case string:
			if _, err := strconv.ParseBool(v); err != nil {
				return fmt.Errorf("option %q is %q, want a boolean", field.Key, v)
			}
			return nil
		default:
			return fmt.Errorf("option %q has type %T, want a boolean", field.Key, raw)
		}

	case Int:
		switch v := raw.(type) {
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("option %q is %v, want an integer", field.Key, v)
			}
			return nil
		case string:
			if v == "" {
				return nil
			}
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				return fmt.Errorf("option %q is %q, want an integer", field.Key, v)
			}
			return nil
		default:
			return fmt.Errorf("option %q has type %T, want an integer", field.Key, raw)
		}

	case String:
		switch raw.(type) {
		case string, bool, float64:
			return nil
		default:
			return fmt.Errorf("option %q has type %T, want a scalar", field.Key, raw)
		}

	default:
		return fmt.Errorf("option %q declares unknown type %v", field.Key, field.Type)
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
