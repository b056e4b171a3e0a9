// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps each record as analysis.json inside the task directory.
type FileStore struct {
	layout Layout
}

func NewFileStore(layout Layout) *FileStore {
	return &FileStore{layout: layout}
}

func (s *FileStore) Load(_ context.Context, taskID string) (*Record, error) {
	data, err := os.ReadFile(s.layout.AnalysisPath(taskID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read analysis: %w", err)
	}

	return decodeRecord(data)
}

// Save writes the record through a temporary file so readers never observe a
// partially written analysis.
func (s *FileStore) Save(_ context.Context, taskID string, rec *Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	dir := s.layout.TaskDir(taskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create task dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, analysisFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp analysis: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write analysis: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}

	return os.Rename(tmp.Name(), filepath.Join(dir, analysisFile))
}

func encodeRecord(rec *Record) ([]byte, error) {
	out := *rec
	if out.MispronouncedWords == nil {
		out.MispronouncedWords = []string{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if rec.MispronouncedWords == nil {
		rec.MispronouncedWords = []string{}
	}
	return &rec, nil
}
