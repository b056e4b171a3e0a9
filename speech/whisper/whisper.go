// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package whisper adapts whisper.cpp to speech.Engine. Whisper decodes whole
// recordings, so streams buffer PCM and run inference in FinalResult.
package whisper

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/project-3-sem/backend/audio"
	"github.com/project-3-sem/backend/speech"
)

type Engine struct {
	language string
	logger   *slog.Logger
}

// New returns a whisper engine. An empty language lets whisper detect it.
func New(language string, logger *slog.Logger) Engine {
	if language == "" {
		language = "auto"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Engine{language: language, logger: logger}
}

func (e Engine) Name() string {
	return "whisper"
}

func (e Engine) LoadModel(path string) (speech.Model, error) {
	m, err := whisper.New(path)
	if err != nil {
		return nil, err
	}
	return &model{m: m, engine: e}, nil
}

type model struct {
	m      whisper.Model
	engine Engine
}

func (m *model) NewStream(format speech.Format) (speech.Stream, error) {
	ctx, err := m.m.NewContext()
	if err != nil {
		return nil, err
	}
	if err := ctx.SetLanguage(m.engine.language); err != nil {
		return nil, err
	}
	return &stream{ctx: ctx, format: format, logger: m.engine.logger}, nil
}

func (m *model) Close() {
	m.m.Close()
}

type stream struct {
	ctx     whisper.Context
	format  speech.Format
	logger  *slog.Logger
	samples []float32
}

func (s *stream) AcceptWaveform(pcm []byte) (bool, error) {
	s.samples = append(s.samples, audio.PCMToFloat32(pcm, s.format.SampleWidth)...)
	return false, nil
}

func (s *stream) Result() string {
	return ""
}

func (s *stream) FinalResult() (string, error) {
	var text strings.Builder
	segmentCallback := func(seg whisper.Segment) {
		text.WriteString(seg.Text)
	}

	if err := s.ctx.Process(s.samples, segmentCallback, nil); err != nil {
		return "", fmt.Errorf("whisper processing failed: %w", err)
	}
	s.logger.Debug("whisper decoded recording", "samples", len(s.samples))
	return strings.TrimSpace(text.String()), nil
}

func (s *stream) Close() {
	s.samples = nil
}
