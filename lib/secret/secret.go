// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret handles sensitive option values on their way into the
// wrapped service's environment.
//
// The launcher's job guarantees that most secrets (basic-auth passwords,
// portal credentials) ultimately become environment variable strings for
// the child process, so perfect in-memory hygiene is impossible. What
// this package does guarantee:
//
//   - Key material that never leaves the launcher (the age identity used
//     to unseal encrypted secret files) lives in a [Buffer]: anonymous
//     mmap memory outside the Go heap, mlock'd against swap and excluded
//     from core dumps, zeroed on Close.
//   - Intermediate copies read from disk are zeroed with [Zero] as soon
//     as the value has been handed off.
package secret

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Zero overwrites the slice with zero bytes. Use on any intermediate
// copy of secret material once it has been handed off.
func Zero(data []byte) {
	for index := range data {
		data[index] = 0
	}
}

// Buffer holds key material in memory that is locked against swapping,
// excluded from core dumps, and zeroed on close. The backing memory is
// allocated via mmap outside the Go heap, so the garbage collector never
// copies or relocates it.
//
// Access after Close panics.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// NewBuffer copies source into a freshly allocated protected region and
// zeros the source in place, so the caller's slice no longer holds the
// secret.
func NewBuffer(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: cannot create buffer from empty source")
	}

	data, err := unix.Mmap(-1, 0, len(source), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}
	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: mlock: %w", err)
	}
	// MADV_DONTDUMP is best effort: not all kernels support it, and the
	// secret is still protected against swap without it.
	unix.Madvise(data, unix.MADV_DONTDUMP)

	copy(data, source)
	Zero(source)

	return &Buffer{data: data}, nil
}

// Bytes returns the protected data. The slice points directly into the
// mmap region — do not retain it beyond the Buffer's lifetime.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("secret: read from closed buffer")
	}
	return b.data
}

// Len returns the size of the protected data.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Close zeros, unlocks, and unmaps the memory. Idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	Zero(b.data)
	unix.Munlock(b.data)
	err := unix.Munmap(b.data)
	b.data = nil
	b.closed = true
	if err != nil {
		return fmt.Errorf("secret: munmap: %w", err)
	}
	return nil
}

// ReadFile reads a secret from a file, trimming surrounding whitespace,
// and moves it into a protected Buffer. The intermediate heap copy is
// zeroed before returning. Returns an error if the file is empty after
// trimming.
func ReadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret file %s is empty", path)
	}

	// NewBuffer zeros the trimmed sub-slice; zero the rest of data to
	// catch any leading/trailing whitespace bytes it does not cover.
	buffer, err := NewBuffer(trimmed)
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}
