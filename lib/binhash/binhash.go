// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash fingerprints the wrapped service binary before the
// launcher hands control to it. The digest is logged at startup so an
// operator inspecting add-on logs can tell exactly which binary build a
// container ran, without relying on image tags.
package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 hash of a binary.
type Digest [32]byte

// HashFile computes the BLAKE3 digest of the file at path. The file is
// streamed through the hash in chunks (via io.Copy) to keep memory
// usage constant regardless of binary size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// String returns the hex encoding of the digest, the format used in
// log output.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
