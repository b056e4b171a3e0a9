// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package speech transcribes WAV recordings with an offline recognition engine.
package speech

import "errors"

var (
	// ErrNoSpeech is returned when recognition produced an empty transcript.
	ErrNoSpeech = errors.New("could not recognize any speech from the audio")
	// ErrModelNotFound is returned when no model directory can be resolved.
	ErrModelNotFound = errors.New("speech model not found")
)

// Format describes the PCM data fed to a Stream.
type Format struct {
	SampleRate  int
	SampleWidth int // bytes per sample
	Channels    int
}

// Engine loads recognition models. Loading is expensive; use a ModelCache.
type Engine interface {
	Name() string
	LoadModel(path string) (Model, error)
}

// Model is a loaded recognition model that can serve many streams.
type Model interface {
	NewStream(format Format) (Stream, error)
	Close()
}

// Stream is one recognition pass over a recording.
type Stream interface {
	// AcceptWaveform feeds raw PCM bytes. It reports true when an utterance
	// has been completed and Result holds its text.
	AcceptWaveform(pcm []byte) (bool, error)
	// Result returns the text of the last completed utterance.
	Result() string
	// FinalResult flushes the stream and returns the remaining text. An error
	// means decoding failed, not that the recording was silent.
	FinalResult() (string, error)
	Close()
}
