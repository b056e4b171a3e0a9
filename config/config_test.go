// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MEDIA_ROOT", "")

	path := writeConfig(t, `
server:
  host: testhost
  port: 9090

api:
  base_path: /api/v1/
  cors_origins: ["http://localhost:3000"]

storage:
  media_root: /var/lib/pronunciation
  backend: redis
  dedupe_inflight: true
  redis:
    host: cache
    key_ttl: 3600

recognizer:
  engine: whisper
  model_path: /models/ggml-base.bin
  language: en

tts:
  provider: openai
  api_key: sk-file
  max_clips: 5
  verify_clips: false

audio:
  max_file_size_mb: 10

metrics:
  enabled: true
  path: /metrics

auth:
  enabled: true
  tokens: ["abc"]
  redis:
    enabled: true
    host: tokens
    port: 6380
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "testhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/api/v1", cfg.API.BasePath)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.CORSOrigins)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.True(t, cfg.Storage.DedupeInflight)
	assert.Equal(t, "cache", cfg.Storage.Redis.Host)
	assert.Equal(t, 6379, cfg.Storage.Redis.Port)
	assert.Equal(t, 3600, cfg.Storage.Redis.KeyTTL)
	assert.Equal(t, filepath.Join("/var/lib/pronunciation", "audio_tasks"), cfg.TasksRoot())
	assert.Equal(t, "whisper", cfg.Recognizer.Engine)
	assert.Equal(t, "openai", cfg.TTS.Provider)
	assert.Equal(t, "sk-file", cfg.TTS.APIKey)
	assert.Equal(t, 5, cfg.TTS.MaxClips)
	assert.False(t, *cfg.TTS.VerifyClips)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes())
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Auth.Redis.Enabled)
	assert.Equal(t, "tokens", cfg.Auth.Redis.Host)
	assert.Equal(t, 6380, cfg.Auth.Redis.Port)
}

func TestDefaultValues(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/api", cfg.API.BasePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join("media", "audio_tasks"), cfg.TasksRoot())
	assert.Equal(t, filepath.Join("media", "audio_tmp"), cfg.TmpRoot())
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.False(t, cfg.Storage.KeepUploadedAudio)
	assert.Equal(t, "vosk", cfg.Recognizer.Engine)
	assert.Equal(t, "yandex", cfg.TTS.Provider)
	assert.Equal(t, 25, cfg.TTS.MaxClips)
	assert.Equal(t, 15*time.Second, cfg.TTSTimeout())
	assert.True(t, *cfg.TTS.VerifyClips)
	assert.Equal(t, int64(25*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.RetentionMaxAge())
	assert.Equal(t, "@daily", cfg.Retention.Schedule)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MEDIA_ROOT", "/srv/media")
	t.Setenv("YANDEX_API_KEY", "y-key")
	t.Setenv("YANDEX_FOLDER_ID", "folder")
	t.Setenv("PRONUNCIATION_MAX_CLIPS", "3")
	t.Setenv("KEEP_UPLOADED_AUDIO", "yes")
	t.Setenv("CLEANUP_DAYS", "30")

	cfg, err := LoadConfig(writeConfig(t, "tts:\n  api_key: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/media", "audio_tasks"), cfg.TasksRoot())
	assert.Equal(t, "y-key", cfg.TTS.APIKey)
	assert.Equal(t, "folder", cfg.TTS.FolderID)
	assert.Equal(t, 3, cfg.TTS.MaxClips)
	assert.True(t, cfg.Storage.KeepUploadedAudio)
	assert.Equal(t, 30*24*time.Hour, cfg.RetentionMaxAge())
}

func TestEnvOverrides_Invalid(t *testing.T) {
	t.Setenv("KEEP_UPLOADED_AUDIO", "maybe")
	_, err := LoadConfig(writeConfig(t, `{}`))
	assert.ErrorContains(t, err, "KEEP_UPLOADED_AUDIO")
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "storage:\n  backend: sqlite\n"))
	assert.ErrorContains(t, err, "storage backend")

	_, err = LoadConfig(writeConfig(t, "recognizer:\n  engine: kaldi\n"))
	assert.ErrorContains(t, err, "recognizer engine")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PRONUNCIATION_TEST_VAR=from-dotenv\n"), 0o644))
	t.Setenv("PRONUNCIATION_TEST_VAR", "")
	os.Unsetenv("PRONUNCIATION_TEST_VAR")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "from-dotenv", os.Getenv("PRONUNCIATION_TEST_VAR"))
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", " y ", "On"} {
		v, err := ParseBool(s)
		assert.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"0", "false", "No", "n", "off", ""} {
		v, err := ParseBool(s)
		assert.NoError(t, err, s)
		assert.False(t, v, s)
	}
	_, err := ParseBool("maybe")
	assert.Error(t, err)
}
