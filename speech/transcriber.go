// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/project-3-sem/backend/audio"
	"github.com/project-3-sem/backend/metrics"
)

// ChunkFrames is the number of frames fed to the engine per call.
const ChunkFrames = 4000

// Transcriber streams WAV files through models held by a ModelCache.
type Transcriber struct {
	models *ModelCache
	logger *slog.Logger
}

func NewTranscriber(models *ModelCache, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{models: models, logger: logger}
}

// Transcribe recognizes the speech in audioPath using the model resolved from
// modelPath. It returns ErrNoSpeech when nothing was recognized.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, modelPath string) (string, error) {
	resolved, err := ResolveModelPath(modelPath)
	if err != nil {
		return "", err
	}

	model, err := t.models.Get(resolved)
	if err != nil {
		return "", err
	}

	pcm, err := audio.OpenPCM(audioPath)
	if err != nil {
		return "", err
	}
	defer pcm.Close()

	stream, err := model.NewStream(Format{
		SampleRate:  pcm.Info.SampleRate,
		SampleWidth: pcm.Info.SampleWidth,
		Channels:    pcm.Info.Channels,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create recognizer: %w", err)
	}
	defer stream.Close()

	start := time.Now()
	var text strings.Builder
	var buf []byte
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		buf, err = pcm.ReadFrames(buf, ChunkFrames)
		if err != nil {
			return "", fmt.Errorf("failed to read PCM data: %w", err)
		}
		if len(buf) == 0 {
			break
		}

		done, err := stream.AcceptWaveform(buf)
		if err != nil {
			return "", fmt.Errorf("recognition failed: %w", err)
		}
		if done {
			appendText(&text, stream.Result())
		}
	}
	final, err := stream.FinalResult()
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}
	appendText(&text, final)

	metrics.RecognitionDuration.Observe(time.Since(start).Seconds())
	metrics.AudioDuration.Observe(pcm.Info.Duration().Seconds())

	transcript := strings.TrimSpace(text.String())
	if transcript == "" {
		return "", ErrNoSpeech
	}

	t.logger.Debug("transcribed audio", "model", resolved, "frames", pcm.Info.Frames, "chars", len(transcript))
	return transcript, nil
}

func appendText(b *strings.Builder, s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(s)
}
