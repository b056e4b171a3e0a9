// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package pronunciation runs the analysis pipeline for one submission:
// store the upload, look up the content-addressed cache, recognize and compare
// on a miss, then optionally produce correction clips.
package pronunciation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/project-3-sem/backend/analysis"
	"github.com/project-3-sem/backend/audio"
	"github.com/project-3-sem/backend/compare"
	"github.com/project-3-sem/backend/metrics"
	"github.com/project-3-sem/backend/tts"
)

var (
	// ErrInvalidAudio wraps the container validation failure.
	ErrInvalidAudio = errors.New("invalid audio")
	// ErrTTSNotConfigured is returned before any work when clips are requested
	// but no provider is configured.
	ErrTTSNotConfigured = tts.ErrNotConfigured
)

type Recognizer interface {
	Transcribe(ctx context.Context, audioPath, modelPath string) (string, error)
}

type ClipGenerator interface {
	Configured() bool
	Generate(ctx context.Context, words []string, outputDir string) ([]tts.Clip, error)
}

type Options struct {
	// ModelPath is passed to the recognizer; empty means auto-resolve.
	ModelPath string
	// KeepUpload copies the accepted upload into the task directory.
	KeepUpload bool
	// DedupeInflight computes concurrent identical submissions once.
	DedupeInflight bool
}

type Request struct {
	ReferenceText string
	Audio         io.Reader
	EnableTTS     bool
}

type Result struct {
	TaskID             string
	RecognizedText     string
	MispronouncedWords []string
	Clips              []tts.Clip
	Cached             bool
}

type Service struct {
	layout     analysis.Layout
	store      analysis.Store
	recognizer Recognizer
	clips      ClipGenerator
	opts       Options
	logger     *slog.Logger

	inflight singleflight.Group
}

func NewService(layout analysis.Layout, store analysis.Store, recognizer Recognizer, clips ClipGenerator, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		layout:     layout,
		store:      store,
		recognizer: recognizer,
		clips:      clips,
		opts:       opts,
		logger:     logger,
	}
}

// TTSConfigured reports whether clip synthesis can be requested.
func (s *Service) TTSConfigured() bool {
	return s.clips != nil && s.clips.Configured()
}

// Process analyzes one submission. The upload is written to a private temp
// directory which is removed before Process returns.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if req.EnableTTS && !s.TTSConfigured() {
		return nil, ErrTTSNotConfigured
	}

	tmpDir, upload, err := s.layout.NewTempDir()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			s.logger.Warn("failed to remove temp dir", "dir", tmpDir, "err", err)
		}
	}()

	fingerprint, err := saveUpload(req.Audio, upload, req.ReferenceText)
	if err != nil {
		return nil, err
	}

	taskID := analysis.TaskID(fingerprint)
	logger := s.logger.With("task_id", taskID)

	rec, cached, err := s.analyze(ctx, taskID, upload, req.ReferenceText, logger)
	if err != nil {
		return nil, err
	}

	result := &Result{
		TaskID:             taskID,
		RecognizedText:     rec.RecognizedText,
		MispronouncedWords: rec.MispronouncedWords,
		Clips:              []tts.Clip{},
		Cached:             cached,
	}

	if req.EnableTTS {
		clips, err := s.clips.Generate(ctx, rec.MispronouncedWords, s.layout.ClipsDir(taskID))
		if err != nil {
			logger.Error("correction clip generation failed", "err", err)
		} else {
			result.Clips = clips
		}
	}

	if s.opts.KeepUpload {
		if err := s.keepUpload(taskID, upload); err != nil {
			logger.Warn("failed to keep uploaded audio", "err", err)
		}
	}

	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	logger.Info("analysis complete",
		"cached", cached,
		"mispronounced", len(rec.MispronouncedWords),
		"clips", len(result.Clips))

	return result, nil
}

func (s *Service) analyze(ctx context.Context, taskID, upload, referenceText string, logger *slog.Logger) (*analysis.Record, bool, error) {
	if rec, ok := s.lookup(ctx, taskID, logger); ok {
		return rec, true, nil
	}

	if !s.opts.DedupeInflight {
		rec, err := s.compute(ctx, taskID, upload, referenceText, logger)
		return rec, false, err
	}

	// Joined callers share the result, so one caller going away must not
	// cancel it for the rest.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.inflight.Do(taskID, func() (interface{}, error) {
		if rec, ok := s.lookup(shared, taskID, logger); ok {
			return rec, nil
		}
		return s.compute(shared, taskID, upload, referenceText, logger)
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*analysis.Record), false, nil
}

// lookup treats every load failure as a miss.
func (s *Service) lookup(ctx context.Context, taskID string, logger *slog.Logger) (*analysis.Record, bool) {
	rec, err := s.store.Load(ctx, taskID)
	switch {
	case err == nil:
		metrics.AnalysisCache.WithLabelValues("hit").Inc()
		return rec, true
	case errors.Is(err, analysis.ErrNotFound):
		metrics.AnalysisCache.WithLabelValues("miss").Inc()
	case errors.Is(err, analysis.ErrCorrupt):
		metrics.AnalysisCache.WithLabelValues("corrupt").Inc()
		logger.Warn("ignoring corrupt cached analysis", "err", err)
	default:
		metrics.AnalysisCache.WithLabelValues("miss").Inc()
		logger.Warn("failed to load cached analysis", "err", err)
	}
	return nil, false
}

func (s *Service) compute(ctx context.Context, taskID, upload, referenceText string, logger *slog.Logger) (*analysis.Record, error) {
	info, err := audio.ValidateWAV(upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}
	logger.Debug("accepted audio", "format", info.String(), "duration", info.Duration())

	recognized, err := s.recognizer.Transcribe(ctx, upload, s.opts.ModelPath)
	if err != nil {
		return nil, err
	}

	rec := &analysis.Record{
		RecognizedText:     recognized,
		MispronouncedWords: compare.FindMismatches(referenceText, recognized),
	}

	if err := s.store.Save(ctx, taskID, rec); err != nil {
		logger.Error("failed to store analysis", "err", err)
	}

	return rec, nil
}

func (s *Service) keepUpload(taskID, upload string) error {
	dst := s.layout.UploadPath(taskID)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	if err := os.MkdirAll(s.layout.TaskDir(taskID), 0o755); err != nil {
		return err
	}
	return copyFile(upload, dst)
}

// saveUpload streams r to path and returns the fingerprint of its bytes
// combined with referenceText.
func saveUpload(r io.Reader, path, referenceText string) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	h := analysis.NewHasher()
	if _, err := io.Copy(io.MultiWriter(f, h), r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	return h.Sum(referenceText), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
