// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package launcher

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/addon-foundry/launchkit/lib/options"
	"github.com/addon-foundry/launchkit/lib/sealed"
	"github.com/addon-foundry/launchkit/lib/secret"
)

// secretPrefix marks an option value as an indirection to a file:
// "!secret /ssl/portal-password" substitutes the file's trimmed
// contents, "!secret /ssl/portal-password.age" decrypts the file with
// the add-on's identity key first. The options document the supervisor
// stores then never contains the plaintext.
const secretPrefix = "!secret "

// resolveSecrets returns a derived document with every "!secret"
// reference replaced by its resolved plaintext. A reference that cannot
// be resolved fails startup — a required credential silently replaced
// by the literal marker string would flow into validation and the
// child's environment.
func (d *Definition) resolveSecrets(doc *options.Document, logger *slog.Logger) (*options.Document, error) {
	keyFile := d.KeyFile
	if keyFile == "" {
		keyFile = DefaultKeyFile
	}

	for _, key := range doc.Keys() {
		value := doc.String(key, "")
		if !strings.HasPrefix(value, secretPrefix) {
			continue
		}

		path := strings.TrimSpace(strings.TrimPrefix(value, secretPrefix))
		if path == "" {
			return nil, fmt.Errorf("option %q has a !secret reference with no path", key)
		}

		resolved, err := readSecretValue(path, keyFile)
		if err != nil {
			// Never echo the value; the path and key name are enough.
			return nil, fmt.Errorf("resolving secret for option %q: %w", key, err)
		}
		doc = doc.With(key, resolved)
		logger.Info("secret reference resolved", "option", key, "path", path)
	}

	return doc, nil
}

func readSecretValue(path, keyFile string) (string, error) {
	if strings.HasSuffix(path, ".age") {
		buffer, err := sealed.DecryptFile(path, keyFile)
		if err != nil {
			return "", err
		}
		defer buffer.Close()
		return strings.TrimSpace(string(buffer.Bytes())), nil
	}

	buffer, err := secret.ReadFile(path)
	if err != nil {
		return "", err
	}
	defer buffer.Close()
	return string(buffer.Bytes()), nil
}
