// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package options loads the add-on options document written by the
// supervisor platform.
//
// The document is a single JSON object at a well-known path (by
// convention /data/options.json), written before the launcher starts.
// It is loaded exactly once; the launcher never re-reads it, so a
// changed document takes effect only on container restart.
//
// Parsing accepts JSONC (// comments, /* block comments */, trailing
// commas) so hand-edited documents used during development do not break
// startup. The supervisor itself always writes strict JSON.
//
// Lookups are fallback-based: a missing key yields the caller's
// fallback rather than an error, so optional fields flow into later
// stages as empty markers. Required-field enforcement is the schema
// validator's job, not the loader's.
package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/tidwall/jsonc"
)

// ErrUnreadable reports that the options document could not be loaded:
// the file is missing, the contents are not valid JSON, or the root is
// not an object. Match with errors.Is.
var ErrUnreadable = errors.New("options document unreadable")

// Document is the immutable decoded options object. Values are never
// mutated after Load; derived documents (secret indirection) are built
// with New.
type Document struct {
	path   string
	values map[string]any
}

// Load reads and decodes the options document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w (%v)", path, ErrUnreadable, err)
	}

	var values map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w (%v)", path, ErrUnreadable, err)
	}
	if values == nil {
		return nil, fmt.Errorf("parsing %s: %w (root is null, want object)", path, ErrUnreadable)
	}

	return &Document{path: path, values: values}, nil
}

// New builds a document from an in-memory value map. Used for derived
// documents and tests. The map is copied; later changes to the argument
// do not affect the document.
func New(values map[string]any) *Document {
	copied := make(map[string]any, len(values))
	for key, value := range values {
		copied[key] = value
	}
	return &Document{values: copied}
}

// Path returns the file the document was loaded from, or "" for
// in-memory documents.
func (d *Document) Path() string {
	return d.path
}

// Has reports whether the key is present with a non-null value. A key
// set to the empty string is present — Has distinguishes absent from
// empty, which matters for services that treat "unset" and "empty"
// differently.
func (d *Document) Has(key string) bool {
	value, ok := d.values[key]
	return ok && value != nil
}

// String returns the value for key rendered as a string, or fallback
// when the key is absent or null. Booleans render as "true"/"false" and
// numbers in their canonical decimal form, so downstream transforms
// operate uniformly on strings. Non-scalar values (arrays, objects)
// yield the fallback.
func (d *Document) String(key, fallback string) string {
	value, ok := d.values[key]
	if !ok || value == nil {
		return fallback
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fallback
	}
}

// Bool returns the value for key as a boolean, or fallback when the key
// is absent, null, or not interpretable. JSON booleans and the strings
// "true"/"false" are accepted.
func (d *Document) Bool(key string, fallback bool) bool {
	value, ok := d.values[key]
	if !ok || value == nil {
		return fallback
	}

	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

// Raw returns the undecoded value for key. Used by the schema validator
// for type checks; materialization goes through the typed accessors.
func (d *Document) Raw(key string) (any, bool) {
	value, ok := d.values[key]
	return value, ok
}

// Keys returns all present keys in sorted order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.values))
	for key := range d.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// With returns a derived document with the given key replaced. The
// receiver is not modified — documents are immutable once built. Used
// by secret indirection to substitute resolved values.
func (d *Document) With(key string, value any) *Document {
	derived := New(d.values)
	derived.path = d.path
	derived.values[key] = value
	return derived
}
