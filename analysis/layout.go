// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	analysisFile = "analysis.json"
	clipsDir     = "correction_audio"
	uploadFile   = "input.wav"
)

// Layout maps task ids onto the media directories.
//
//	<TasksRoot>/<taskId>/analysis.json
//	<TasksRoot>/<taskId>/correction_audio/<clip>.mp3
//	<TasksRoot>/<taskId>/input.wav            (only when uploads are kept)
//	<TmpRoot>/<random>/input.wav              (in-flight uploads)
type Layout struct {
	TasksRoot string
	TmpRoot   string
}

func (l Layout) TaskDir(taskID string) string {
	return filepath.Join(l.TasksRoot, taskID)
}

func (l Layout) AnalysisPath(taskID string) string {
	return filepath.Join(l.TaskDir(taskID), analysisFile)
}

func (l Layout) ClipsDir(taskID string) string {
	return filepath.Join(l.TaskDir(taskID), clipsDir)
}

func (l Layout) UploadPath(taskID string) string {
	return filepath.Join(l.TaskDir(taskID), uploadFile)
}

// NewTempDir creates a fresh directory for one upload and returns it together
// with the path the upload should be written to.
func (l Layout) NewTempDir() (dir, upload string, err error) {
	dir = filepath.Join(l.TmpRoot, uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	return dir, filepath.Join(dir, uploadFile), nil
}
