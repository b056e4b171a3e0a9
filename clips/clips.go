// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package clips serves stored correction clips without letting request
// parameters escape the clip directory of a task.
package clips

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/project-3-sem/backend/analysis"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")

	clipName = regexp.MustCompile(`^[A-Za-z0-9_.\-]+\.mp3$`)
)

// ValidTaskID reports whether id is a UUID in canonical lowercase hyphenated form.
func ValidTaskID(id string) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.String() == id
}

// ValidFilename reports whether name is an acceptable clip file name.
func ValidFilename(name string) bool {
	return clipName.MatchString(name) && !strings.HasPrefix(name, ".")
}

type Server struct {
	layout analysis.Layout
}

func NewServer(layout analysis.Layout) *Server {
	return &Server{layout: layout}
}

// Resolve returns the absolute path of a clip after checking both request
// parameters and confirming the result stays inside the task's clip directory.
func (s *Server) Resolve(taskID, filename string) (string, error) {
	if !ValidTaskID(taskID) || !ValidFilename(filename) {
		return "", ErrInvalidName
	}

	dir, err := resolvePath(s.layout.ClipsDir(taskID))
	if err != nil {
		return "", err
	}
	target, err := resolvePath(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ErrInvalidName
	}

	info, err := os.Stat(target)
	if err != nil {
		return "", ErrNotFound
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotFound
	}

	return target, nil
}

// Open resolves and opens a clip for streaming. The caller closes the file.
func (s *Server) Open(taskID, filename string) (*os.File, os.FileInfo, error) {
	path, err := s.Resolve(taskID, filename)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open clip: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat clip: %w", err)
	}

	return f, info, nil
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidName
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", ErrInvalidName
	}
	return resolved, nil
}
