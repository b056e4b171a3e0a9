// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package analysis owns the content-addressed store of pronunciation results.
// A result is keyed by a task id derived from the audio bytes and the
// reference text, so identical submissions share one stored analysis.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by a Store when no record exists for a task id.
	ErrNotFound = errors.New("analysis not found")
	// ErrCorrupt is returned by a Store when a record exists but cannot be decoded.
	ErrCorrupt = errors.New("analysis record corrupt")
)

// Record is the persisted outcome of one analysis.
type Record struct {
	RecognizedText     string   `json:"recognizedText"`
	MispronouncedWords []string `json:"mispronouncedWords"`
}

// Store persists records by task id.
type Store interface {
	Load(ctx context.Context, taskID string) (*Record, error)
	Save(ctx context.Context, taskID string, rec *Record) error
}

// Hasher accumulates the fingerprint of an upload while it is being written.
type Hasher struct {
	h hash.Hash
}

func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Write feeds audio bytes into the fingerprint.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum appends the reference text and returns the hex fingerprint.
func (h *Hasher) Sum(referenceText string) string {
	io.WriteString(h.h, referenceText)
	return hex.EncodeToString(h.h.Sum(nil))
}

// Fingerprint hashes the audio bytes followed by the reference text.
func Fingerprint(audio io.Reader, referenceText string) (string, error) {
	h := NewHasher()
	if _, err := io.Copy(h, audio); err != nil {
		return "", err
	}
	return h.Sum(referenceText), nil
}

// TaskID maps a fingerprint to a canonical name-based (version 5) UUID.
func TaskID(fingerprint string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fingerprint)).String()
}
