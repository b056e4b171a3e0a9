// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	// RequiredChannels is the only channel count accepted for analysis.
	RequiredChannels = 1
	// RequiredSampleRate is the only sample rate accepted for analysis.
	RequiredSampleRate = 16000
)

var (
	// ErrUnreadable is returned when the container cannot be parsed as a PCM WAV file.
	ErrUnreadable = errors.New("unreadable WAV container")
	// ErrChannels is returned when the container is not mono.
	ErrChannels = errors.New("audio must be mono (1 channel)")
	// ErrSampleRate is returned when the container is not sampled at 16000 Hz.
	ErrSampleRate = errors.New("audio must be 16000 Hz sample rate")
	// ErrSampleWidth is returned for sample widths other than 2, 3 or 4 bytes.
	ErrSampleWidth = errors.New("unexpected sample width")
)

// ContainerInfo describes the header of a WAV container.
type ContainerInfo struct {
	Channels    int `json:"channels"`
	SampleRate  int `json:"sample_rate"`
	SampleWidth int `json:"sample_width"` // bytes per sample
	Frames      int `json:"frames"`
}

func (i ContainerInfo) String() string {
	return fmt.Sprintf("channels=%d framerate=%d sampwidth=%d", i.Channels, i.SampleRate, i.SampleWidth)
}

// FrameSize is the number of bytes holding one sample for every channel.
func (i ContainerInfo) FrameSize() int {
	return i.Channels * i.SampleWidth
}

// Duration returns the playback length implied by the header.
func (i ContainerInfo) Duration() time.Duration {
	if i.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(i.Frames) / float64(i.SampleRate) * float64(time.Second))
}

// PCMToFloat32 converts little-endian signed PCM with the given sample width into
// float32 samples in [-1, 1].
func PCMToFloat32(pcm []byte, sampleWidth int) []float32 {
	if sampleWidth <= 0 {
		return nil
	}
	n := len(pcm) / sampleWidth
	samples := make([]float32, n)

	for i := 0; i < n; i++ {
		b := pcm[i*sampleWidth : (i+1)*sampleWidth]
		switch sampleWidth {
		case 2:
			samples[i] = float32(int16(binary.LittleEndian.Uint16(b))) / 32768.0
		case 3:
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v |= ^0xffffff
			}
			samples[i] = float32(v) / 8388608.0
		case 4:
			samples[i] = float32(int32(binary.LittleEndian.Uint32(b))) / 2147483648.0
		default:
			// 8-bit WAV is unsigned
			samples[i] = (float32(b[0]) - 128) / 128.0
		}
	}

	return samples
}
