// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	loads   atomic.Int32
	loadErr error
	delay   time.Duration

	// utterance is returned by Result after every utteranceEvery chunks.
	utterance      string
	utteranceEvery int
	final          string
	finalErr       error

	mu     sync.Mutex
	fed    int
	closed int
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) LoadModel(path string) (Model, error) {
	e.loads.Add(1)
	time.Sleep(e.delay)
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	return &fakeModel{engine: e}, nil
}

type fakeModel struct {
	engine *fakeEngine
}

func (m *fakeModel) NewStream(format Format) (Stream, error) {
	return &fakeStream{engine: m.engine}, nil
}

func (m *fakeModel) Close() {
	m.engine.mu.Lock()
	m.engine.closed++
	m.engine.mu.Unlock()
}

type fakeStream struct {
	engine *fakeEngine
	chunks int
}

func (s *fakeStream) AcceptWaveform(pcm []byte) (bool, error) {
	s.engine.mu.Lock()
	s.engine.fed += len(pcm)
	s.engine.mu.Unlock()

	s.chunks++
	return s.engine.utteranceEvery > 0 && s.chunks%s.engine.utteranceEvery == 0, nil
}

func (s *fakeStream) Result() string { return s.engine.utterance }
func (s *fakeStream) FinalResult() (string, error) {
	return s.engine.final, s.engine.finalErr
}
func (s *fakeStream) Close() {}

func writeTestWAV(t *testing.T, frames int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 16000},
		SourceBitDepth: 16,
		Data:           make([]int, frames),
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	return path
}

func TestModelCache_LoadsOncePerPath(t *testing.T) {
	engine := &fakeEngine{delay: 20 * time.Millisecond}
	cache := NewModelCache(engine)
	dir := t.TempDir()

	var wg sync.WaitGroup
	models := make([]Model, 8)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := cache.Get(dir)
			assert.NoError(t, err)
			models[i] = m
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), engine.loads.Load())
	for _, m := range models {
		assert.Same(t, models[0], m)
	}

	// Equivalent spellings share the entry.
	m, err := cache.Get(filepath.Join(dir, "."))
	require.NoError(t, err)
	assert.Same(t, models[0], m)
	assert.Equal(t, 1, cache.Len())

	other, err := cache.Get(t.TempDir())
	require.NoError(t, err)
	assert.NotSame(t, models[0], other)
	assert.Equal(t, 2, cache.Len())

	cache.Close()
	assert.Equal(t, 2, engine.closed)
	assert.Equal(t, 0, cache.Len())
}

func TestModelCache_ErrorNotCached(t *testing.T) {
	engine := &fakeEngine{loadErr: errors.New("corrupt model")}
	cache := NewModelCache(engine)
	dir := t.TempDir()

	_, err := cache.Get(dir)
	assert.ErrorContains(t, err, "corrupt model")

	engine.loadErr = nil
	_, err = cache.Get(dir)
	assert.NoError(t, err)
	assert.Equal(t, int32(2), engine.loads.Load())
}

func TestResolveModelPath(t *testing.T) {
	explicit := t.TempDir()
	fromEnv := t.TempDir()

	t.Setenv(ModelPathEnv, fromEnv)

	got, err := ResolveModelPath(explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, got)

	got, err = ResolveModelPath(filepath.Join(explicit, "missing"))
	require.NoError(t, err)
	assert.Equal(t, fromEnv, got)

	got, err = ResolveModelPath("")
	require.NoError(t, err)
	assert.Equal(t, fromEnv, got)

	t.Setenv(ModelPathEnv, filepath.Join(fromEnv, "missing"))
	_, err = ResolveModelPath(filepath.Join(explicit, "missing"))
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestTranscribe(t *testing.T) {
	engine := &fakeEngine{utterance: "hello there", utteranceEvery: 2, final: " world "}
	tr := NewTranscriber(NewModelCache(engine), nil)
	path := writeTestWAV(t, 10000)

	text, err := tr.Transcribe(context.Background(), path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "hello there world", text)
	assert.Equal(t, 10000*2, engine.fed)
}

func TestTranscribe_NoSpeech(t *testing.T) {
	tr := NewTranscriber(NewModelCache(&fakeEngine{}), nil)
	path := writeTestWAV(t, 4000)

	_, err := tr.Transcribe(context.Background(), path, t.TempDir())
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestTranscribe_Errors(t *testing.T) {
	t.Run("ModelMissing", func(t *testing.T) {
		t.Setenv(ModelPathEnv, "")
		tr := NewTranscriber(NewModelCache(&fakeEngine{}), nil)
		_, err := tr.Transcribe(context.Background(), writeTestWAV(t, 100), filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, ErrModelNotFound)
	})

	t.Run("Cancelled", func(t *testing.T) {
		tr := NewTranscriber(NewModelCache(&fakeEngine{final: "text"}), nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := tr.Transcribe(ctx, writeTestWAV(t, 100), t.TempDir())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("DecodeFailureIsNotSilence", func(t *testing.T) {
		decodeErr := errors.New("model failed to decode")
		tr := NewTranscriber(NewModelCache(&fakeEngine{finalErr: decodeErr}), nil)
		_, err := tr.Transcribe(context.Background(), writeTestWAV(t, 100), t.TempDir())
		assert.ErrorIs(t, err, decodeErr)
		assert.NotErrorIs(t, err, ErrNoSpeech)
	})

	t.Run("UnreadableAudio", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.wav")
		require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))
		tr := NewTranscriber(NewModelCache(&fakeEngine{final: "text"}), nil)
		_, err := tr.Transcribe(context.Background(), path, t.TempDir())
		assert.Error(t, err)
	})
}
