// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package vosk adapts the Vosk offline recognizer to speech.Engine.
package vosk

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/project-3-sem/backend/audio"
	"github.com/project-3-sem/backend/speech"
)

// Engine loads Vosk model directories.
type Engine struct{}

// New returns a Vosk engine. logLevel is passed to the native library;
// -1 silences it.
func New(logLevel int) Engine {
	vosk.SetLogLevel(logLevel)
	return Engine{}
}

func (Engine) Name() string {
	return "vosk"
}

func (Engine) LoadModel(path string) (speech.Model, error) {
	m, err := vosk.NewModel(path)
	if err != nil {
		return nil, err
	}
	return &model{m: m}, nil
}

type model struct {
	m *vosk.VoskModel
}

func (m *model) NewStream(format speech.Format) (speech.Stream, error) {
	if format.Channels != 1 {
		return nil, fmt.Errorf("vosk needs mono audio, got %d channels", format.Channels)
	}

	rec, err := vosk.NewRecognizer(m.m, float64(format.SampleRate))
	if err != nil {
		return nil, err
	}
	return &stream{rec: rec, sampleWidth: format.SampleWidth}, nil
}

func (m *model) Close() {
	m.m.Free()
}

type stream struct {
	rec         *vosk.VoskRecognizer
	sampleWidth int
}

func (s *stream) AcceptWaveform(pcm []byte) (bool, error) {
	if s.sampleWidth != 2 {
		pcm = toPCM16(pcm, s.sampleWidth)
	}

	switch s.rec.AcceptWaveform(pcm) {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, errors.New("vosk rejected waveform")
	}
}

func (s *stream) Result() string {
	return resultText(s.rec.Result())
}

func (s *stream) FinalResult() (string, error) {
	return resultText(s.rec.FinalResult()), nil
}

func (s *stream) Close() {
	s.rec.Free()
}

type result struct {
	Text string `json:"text"`
}

func resultText(raw string) string {
	var r result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return ""
	}
	return r.Text
}

// toPCM16 narrows 24 and 32-bit samples to what the recognizer accepts.
func toPCM16(pcm []byte, sampleWidth int) []byte {
	samples := audio.PCMToFloat32(pcm, sampleWidth)
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		v = float32(math.Max(-1, math.Min(1, float64(v))))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v*math.MaxInt16)))
	}
	return out
}
