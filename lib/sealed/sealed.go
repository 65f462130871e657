// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed wraps filippo.io/age for launchkit's encrypted secret
// files.
//
// Operators may keep sensitive option values (portal passwords, API
// tokens) out of the supervisor-visible options document by storing them
// as age-encrypted files and referencing them with "!secret <path>.age"
// indirection. The launcher unseals them at startup with the add-on's
// identity file (an age x25519 private key, typically at
// /data/.launchkit.key).
//
// Decrypted plaintext and the identity key are handled as
// [secret.Buffer] values so they stay out of swap and core dumps until
// they are serialized into the child's environment at the exec boundary.
package sealed

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"

	"github.com/addon-foundry/launchkit/lib/secret"
)

// GenerateIdentity creates a new age x25519 identity and writes it to
// path with owner-only permissions. Returns the corresponding public
// key (age1... format, safe to publish) so operators can encrypt
// secrets to it. Fails if the file already exists — an identity must
// never be silently overwritten.
func GenerateIdentity(path string) (publicKey string, err error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("generating age identity: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("creating identity file: %w", err)
	}
	if _, err := file.WriteString(identity.String() + "\n"); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing identity file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing identity file: %w", err)
	}

	return identity.Recipient().String(), nil
}

// Encrypt encrypts plaintext to the given age public key and returns
// the binary age ciphertext. Used by `launchkit seal` and by tests;
// decryption is the launcher's startup path.
func Encrypt(plaintext []byte, recipientKey string) ([]byte, error) {
	recipient, err := age.ParseX25519Recipient(recipientKey)
	if err != nil {
		return nil, fmt.Errorf("parsing recipient key: %w", err)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	return ciphertext.Bytes(), nil
}

// DecryptFile decrypts the age ciphertext file at path using the
// identity stored in identityFile. The plaintext is returned in a
// protected buffer; the caller must Close it once the value has been
// handed off.
func DecryptFile(path, identityFile string) (*secret.Buffer, error) {
	key, err := secret.ReadFile(identityFile)
	if err != nil {
		return nil, fmt.Errorf("reading identity file %s: %w", identityFile, err)
	}
	defer key.Close()

	// age.ParseX25519Identity requires a string. The heap copy is brief
	// and startup-scoped.
	identity, err := age.ParseX25519Identity(string(key.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("parsing identity in %s: %w", identityFile, err)
	}

	ciphertext, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sealed secret %s: %w", path, err)
	}
	defer ciphertext.Close()

	reader, err := age.Decrypt(ciphertext, identity)
	if err != nil {
		return nil, fmt.Errorf("unsealing %s: %w", path, err)
	}

	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading unsealed plaintext from %s: %w", path, err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("sealed secret %s decrypted to empty plaintext", path)
	}

	// NewBuffer zeros the heap copy.
	buffer, err := secret.NewBuffer(plaintext)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("protecting unsealed plaintext: %w", err)
	}
	return buffer, nil
}
