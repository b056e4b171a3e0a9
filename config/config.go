// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var errInvalidBool = errors.New("invalid boolean")

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password"`
	KeyTTL   int    `yaml:"key_ttl"` // TTL in seconds
}

type PostgresConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Query    string `yaml:"query"` // Parameterized query, $1 is the lookup key
}

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	API struct {
		BasePath    string   `yaml:"base_path"`
		SwaggerHost string   `yaml:"swagger_host"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"api"`

	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text, json
	} `yaml:"log"`

	Storage struct {
		MediaRoot         string      `yaml:"media_root"`
		TasksDir          string      `yaml:"tasks_dir"`
		TmpDir            string      `yaml:"tmp_dir"`
		Backend           string      `yaml:"backend"` // file, redis
		KeepUploadedAudio bool        `yaml:"keep_uploaded_audio"`
		DedupeInflight    bool        `yaml:"dedupe_inflight"`
		Redis             RedisConfig `yaml:"redis"`
	} `yaml:"storage"`

	Recognizer struct {
		Engine    string `yaml:"engine"` // vosk, whisper
		ModelPath string `yaml:"model_path"`
		Language  string `yaml:"language"`
	} `yaml:"recognizer"`

	TTS struct {
		Provider       string  `yaml:"provider"` // yandex, openai
		APIKey         string  `yaml:"api_key"`
		FolderID       string  `yaml:"folder_id"`
		BaseURL        string  `yaml:"base_url"`
		Voice          string  `yaml:"voice"`
		Speed          float64 `yaml:"speed"`
		Model          string  `yaml:"model"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxClips       int     `yaml:"max_clips"`
		VerifyClips    *bool   `yaml:"verify_clips"`
	} `yaml:"tts"`

	Texts struct {
		Postgres PostgresConfig `yaml:"postgres"`
	} `yaml:"texts"`

	Audio struct {
		MaxFileSize int64 `yaml:"max_file_size_mb"`
	} `yaml:"audio"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Auth struct {
		Enabled  bool     `yaml:"enabled"`
		Tokens   []string `yaml:"tokens"` // Fallback static tokens
		Redis    struct {
			Enabled bool `yaml:"enabled"`
			RedisConfig `yaml:",inline"`
		} `yaml:"redis"`
		Postgres PostgresConfig `yaml:"postgres"`
	} `yaml:"auth"`

	Retention struct {
		Enabled    bool   `yaml:"enabled"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Schedule   string `yaml:"schedule"`
	} `yaml:"retention"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(filenames ...string) error {
	for _, name := range filenames {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("error loading %s: %w", name, err)
		}
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.setDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MEDIA_ROOT"); v != "" {
		c.Storage.MediaRoot = v
	}
	if v := os.Getenv("YANDEX_API_KEY"); v != "" && c.ttsProvider() == "yandex" {
		c.TTS.APIKey = v
	}
	if v := os.Getenv("YANDEX_FOLDER_ID"); v != "" {
		c.TTS.FolderID = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.ttsProvider() == "openai" {
		c.TTS.APIKey = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := os.Getenv("PRONUNCIATION_MAX_CLIPS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid PRONUNCIATION_MAX_CLIPS: %w", err)
		}
		c.TTS.MaxClips = n
	}
	if v, ok := os.LookupEnv("KEEP_UPLOADED_AUDIO"); ok {
		keep, err := ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KEEP_UPLOADED_AUDIO: %w", err)
		}
		c.Storage.KeepUploadedAudio = keep
	}
	if v := os.Getenv("CLEANUP_DAYS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid CLEANUP_DAYS: %w", err)
		}
		c.Retention.MaxAgeDays = n
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.API.BasePath == "" {
		c.API.BasePath = "/api"
	}
	c.API.BasePath = "/" + strings.Trim(c.API.BasePath, "/")
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Storage.MediaRoot == "" {
		c.Storage.MediaRoot = "media"
	}
	if c.Storage.TasksDir == "" {
		c.Storage.TasksDir = "audio_tasks"
	}
	if c.Storage.TmpDir == "" {
		c.Storage.TmpDir = "audio_tmp"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Redis.Port == 0 {
		c.Storage.Redis.Port = 6379
	}
	if c.Recognizer.Engine == "" {
		c.Recognizer.Engine = "vosk"
	}
	c.TTS.Provider = c.ttsProvider()
	if c.TTS.TimeoutSeconds == 0 {
		c.TTS.TimeoutSeconds = 15
	}
	if c.TTS.MaxClips == 0 {
		c.TTS.MaxClips = 25
	}
	if c.TTS.VerifyClips == nil {
		verify := true
		c.TTS.VerifyClips = &verify
	}
	if c.Texts.Postgres.Port == 0 {
		c.Texts.Postgres.Port = 5432
	}
	if c.Audio.MaxFileSize == 0 {
		c.Audio.MaxFileSize = 25
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Retention.MaxAgeDays <= 0 {
		c.Retention.MaxAgeDays = 7
	}
	if c.Retention.Schedule == "" {
		c.Retention.Schedule = "@daily"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Recognizer.Engine {
	case "vosk", "whisper":
	default:
		return fmt.Errorf("unknown recognizer engine %q", c.Recognizer.Engine)
	}
	switch c.TTS.Provider {
	case "yandex", "openai":
	default:
		return fmt.Errorf("unknown tts provider %q", c.TTS.Provider)
	}
	return nil
}

func (c *Config) ttsProvider() string {
	if c.TTS.Provider == "" {
		return "yandex"
	}
	return strings.ToLower(c.TTS.Provider)
}

// TasksRoot is where per-task directories live.
func (c *Config) TasksRoot() string {
	return filepath.Join(c.Storage.MediaRoot, c.Storage.TasksDir)
}

// TmpRoot is where in-flight uploads are written.
func (c *Config) TmpRoot() string {
	return filepath.Join(c.Storage.MediaRoot, c.Storage.TmpDir)
}

func (c *Config) MaxUploadBytes() int64 {
	return c.Audio.MaxFileSize * 1024 * 1024
}

func (c *Config) TTSTimeout() time.Duration {
	return time.Duration(c.TTS.TimeoutSeconds) * time.Second
}

func (c *Config) RetentionMaxAge() time.Duration {
	return time.Duration(c.Retention.MaxAgeDays) * 24 * time.Hour
}

// ParseBool accepts the boolean spellings used by form fields and
// environment variables. Empty input is false.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off", "":
		return false, nil
	}
	return false, errInvalidBool
}
