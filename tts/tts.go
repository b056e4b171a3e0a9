// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package tts synthesizes spoken correction clips for mispronounced words.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/amanitaverna/go-mp3"

	"github.com/project-3-sem/backend/metrics"
)

const (
	DefaultMaxClips = 25
	DefaultTimeout  = 15 * time.Second

	maxFilenamePart = 40
)

var (
	// ErrNotConfigured is returned when synthesis is requested without provider credentials.
	ErrNotConfigured = errors.New("text-to-speech provider is not configured")

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)
	underscores = regexp.MustCompile(`_+`)
)

// Synthesizer turns text into MP3 audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Clip is a correction clip stored in a task's clip directory.
type Clip struct {
	Word string `json:"word"`
	File string `json:"file"`
}

type Options struct {
	// MaxClips caps how many words are synthesized per request. Zero or
	// negative disables the cap.
	MaxClips int
	// Timeout bounds each synthesis call.
	Timeout time.Duration
	// Verify rejects provider responses that do not decode as MP3.
	Verify bool
}

// Generator writes one clip per word, reusing clips that already exist.
type Generator struct {
	synth  Synthesizer
	opts   Options
	logger *slog.Logger
}

// NewGenerator returns a generator backed by synth. A nil synth yields a
// generator that reports ErrNotConfigured.
func NewGenerator(synth Synthesizer, opts Options, logger *slog.Logger) *Generator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{synth: synth, opts: opts, logger: logger}
}

// Configured reports whether Generate can reach a provider.
func (g *Generator) Configured() bool {
	return g != nil && g.synth != nil
}

// Generate makes sure a clip exists in outputDir for each of the first
// MaxClips words and returns the clips that are present afterwards, in word
// order. Individual synthesis failures are logged and skipped.
func (g *Generator) Generate(ctx context.Context, words []string, outputDir string) ([]Clip, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clip directory: %w", err)
	}

	if g.opts.MaxClips > 0 && len(words) > g.opts.MaxClips {
		words = words[:g.opts.MaxClips]
	}

	provider := g.synth.Name()
	clips := make([]Clip, 0, len(words))
	for i, word := range words {
		if err := ctx.Err(); err != nil {
			return clips, err
		}

		filename := ClipFilename(i+1, word)
		path := filepath.Join(outputDir, filename)

		if _, err := os.Stat(path); err == nil {
			metrics.ClipSynthesis.WithLabelValues(provider, "reused").Inc()
			clips = append(clips, Clip{Word: word, File: filename})
			continue
		}

		if err := g.synthesize(ctx, word, path); err != nil {
			metrics.ClipSynthesis.WithLabelValues(provider, "failed").Inc()
			g.logger.Warn("failed to synthesize correction clip", "word", word, "provider", provider, "err", err)
			continue
		}

		metrics.ClipSynthesis.WithLabelValues(provider, "created").Inc()
		clips = append(clips, Clip{Word: word, File: filename})
	}

	return clips, nil
}

func (g *Generator) synthesize(ctx context.Context, word, path string) error {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	data, err := g.synth.Synthesize(ctx, word)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty audio response")
	}
	if g.opts.Verify {
		if err := VerifyMP3(data); err != nil {
			return err
		}
	}

	return writeFileAtomic(path, data)
}

// VerifyMP3 checks that data starts with a decodable MPEG audio frame.
func VerifyMP3(data []byte) error {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("response is not MP3 audio: %w", err)
	}
	if dec.SampleRate() <= 0 {
		return errors.New("response is not MP3 audio: no sample rate")
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".clip-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// SafeFilenamePart maps word onto the characters allowed in clip filenames.
func SafeFilenamePart(word string) string {
	part := unsafeChars.ReplaceAllString(word, "_")
	part = underscores.ReplaceAllString(part, "_")
	part = strings.Trim(part, "_")
	if part == "" {
		part = "word"
	}
	if len(part) > maxFilenamePart {
		part = part[:maxFilenamePart]
	}
	return part
}

// ClipFilename names the clip for the index-th (1-based) word.
func ClipFilename(index int, word string) string {
	return fmt.Sprintf("%d_%s.mp3", index, SafeFilenamePart(word))
}
