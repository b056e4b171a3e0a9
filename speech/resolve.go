// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package speech

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ModelPathEnv overrides the model location when no explicit path is given.
const ModelPathEnv = "VOSK_MODEL_PATH"

// DefaultModelLocations are tried, relative to the working directory and to
// the executable, when neither an explicit path nor ModelPathEnv resolves.
var DefaultModelLocations = []string{
	filepath.Join("AI", "model"),
	filepath.Join("..", "AI", "model"),
}

// ResolveModelPath picks the model location: explicit first, then the
// ModelPathEnv variable, then DefaultModelLocations.
func ResolveModelPath(explicit string) (string, error) {
	if p, ok := existing(explicit); ok {
		return p, nil
	}
	if p, ok := existing(os.Getenv(ModelPathEnv)); ok {
		return p, nil
	}

	var bases []string
	if wd, err := os.Getwd(); err == nil {
		bases = append(bases, wd)
	}
	if exe, err := os.Executable(); err == nil {
		bases = append(bases, filepath.Dir(exe))
	}

	for _, base := range bases {
		for _, loc := range DefaultModelLocations {
			if p, ok := existing(filepath.Join(base, loc)); ok {
				return p, nil
			}
		}
	}

	return "", fmt.Errorf("%w: set %s or place the model at AI/model", ErrModelNotFound, ModelPathEnv)
}

func existing(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	path = expandHome(path)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
