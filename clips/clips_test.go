// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package clips

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-3-sem/backend/analysis"
	"github.com/project-3-sem/backend/tts"
)

const taskID = "27aaac7c-7903-51aa-bf33-4e8ed6f064d7"

func newTestServer(t *testing.T) (*Server, analysis.Layout) {
	t.Helper()
	root := t.TempDir()
	layout := analysis.Layout{
		TasksRoot: filepath.Join(root, "audio_tasks"),
		TmpRoot:   filepath.Join(root, "audio_tmp"),
	}
	require.NoError(t, os.MkdirAll(layout.ClipsDir(taskID), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(layout.ClipsDir(taskID), "1_sat.mp3"), []byte("mp3"), 0o644))
	return NewServer(layout), layout
}

func TestValidTaskID(t *testing.T) {
	assert.True(t, ValidTaskID(taskID))
	assert.False(t, ValidTaskID(strings.ToUpper(taskID)))
	assert.False(t, ValidTaskID("{"+taskID+"}"))
	assert.False(t, ValidTaskID("27aaac7c790351aabf334e8ed6f064d7"))
	assert.False(t, ValidTaskID("../../etc"))
	assert.False(t, ValidTaskID(""))
}

func TestValidFilename(t *testing.T) {
	for _, name := range []string{"1_sat.mp3", "12_v1.2-beta.mp3", "word.mp3"} {
		assert.True(t, ValidFilename(name), name)
	}
	for _, name := range []string{"../secret.mp3", "x.mp3.sh", "a/b.mp3", ".mp3", ".hidden.mp3", "sat.MP3", "", "1 sat.mp3"} {
		assert.False(t, ValidFilename(name), name)
	}
}

func TestResolve(t *testing.T) {
	s, layout := newTestServer(t)

	path, err := s.Resolve(taskID, "1_sat.mp3")
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(filepath.Join(layout.ClipsDir(taskID), "1_sat.mp3"))
	require.NoError(t, err)
	assert.Equal(t, want, path)

	_, err = s.Resolve("../../etc", "passwd.mp3")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = s.Resolve(taskID, "../secret.mp3")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = s.Resolve(taskID, "x.mp3.sh")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = s.Resolve(taskID, "2_mat.mp3")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Resolve("00000000-0000-5000-8000-000000000000", "1_sat.mp3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_SymlinkEscape(t *testing.T) {
	s, layout := newTestServer(t)

	outside := filepath.Join(t.TempDir(), "secret.mp3")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(layout.ClipsDir(taskID), "2_link.mp3")))

	_, err := s.Resolve(taskID, "2_link.mp3")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestResolve_DirectoryIsNotFound(t *testing.T) {
	s, layout := newTestServer(t)
	require.NoError(t, os.Mkdir(filepath.Join(layout.ClipsDir(taskID), "3_dir.mp3"), 0o755))

	_, err := s.Resolve(taskID, "3_dir.mp3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	s, _ := newTestServer(t)

	f, info, err := s.Open(taskID, "1_sat.mp3")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "mp3", string(data))
	assert.Equal(t, int64(3), info.Size())
}

func TestGeneratedNamesAreServable(t *testing.T) {
	for i, word := range []string{"sat", "don't", "привет", strings.Repeat("x", 80), "..", "a.b"} {
		name := tts.ClipFilename(i+1, word)
		assert.True(t, ValidFilename(name), name)
	}
}
