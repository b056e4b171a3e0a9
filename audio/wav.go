// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// ValidateWAV opens filename and checks its header against the analysis
// constraints. The returned info is filled in whenever the header could be read,
// even if a constraint is violated.
func ValidateWAV(filename string) (ContainerInfo, error) {
	file, err := os.Open(filename)
	if err != nil {
		return ContainerInfo{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer file.Close()

	return Validate(file)
}

// Validate inspects the WAV header read from r without decoding samples.
func Validate(r io.ReadSeeker) (ContainerInfo, error) {
	info, err := readHeader(wav.NewDecoder(r))
	if err != nil {
		return ContainerInfo{}, err
	}

	if info.Channels != RequiredChannels {
		return info, fmt.Errorf("%w: got channels=%d", ErrChannels, info.Channels)
	}
	if info.SampleRate != RequiredSampleRate {
		return info, fmt.Errorf("%w: got framerate=%d", ErrSampleRate, info.SampleRate)
	}
	switch info.SampleWidth {
	case 2, 3, 4:
	default:
		return info, fmt.Errorf("%w (bytes per sample): %d", ErrSampleWidth, info.SampleWidth)
	}

	return info, nil
}

func readHeader(decoder *wav.Decoder) (ContainerInfo, error) {
	decoder.ReadInfo()
	if err := decoder.Err(); err != nil {
		return ContainerInfo{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if decoder.NumChans == 0 || decoder.SampleRate == 0 || decoder.BitDepth == 0 {
		return ContainerInfo{}, fmt.Errorf("%w: missing fmt chunk", ErrUnreadable)
	}
	if decoder.WavAudioFormat != formatPCM && decoder.WavAudioFormat != formatExtensible {
		return ContainerInfo{}, fmt.Errorf("%w: unsupported format tag %d", ErrUnreadable, decoder.WavAudioFormat)
	}
	if err := decoder.FwdToPCM(); err != nil || decoder.PCMChunk == nil {
		return ContainerInfo{}, fmt.Errorf("%w: missing data chunk", ErrUnreadable)
	}

	info := ContainerInfo{
		Channels:    int(decoder.NumChans),
		SampleRate:  int(decoder.SampleRate),
		SampleWidth: (int(decoder.BitDepth) + 7) / 8,
	}
	if frame := info.FrameSize(); frame > 0 {
		info.Frames = decoder.PCMSize / frame
	}

	return info, nil
}

// PCMReader streams the raw PCM data chunk of a WAV file.
type PCMReader struct {
	Info ContainerInfo
	file *os.File
	data io.Reader
}

// OpenPCM opens filename and positions a reader at the start of its PCM data.
// The header is not checked against the analysis constraints; call ValidateWAV
// for that.
func OpenPCM(filename string) (*PCMReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	decoder := wav.NewDecoder(file)
	info, err := readHeader(decoder)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &PCMReader{
		Info: info,
		file: file,
		data: io.LimitReader(decoder.PCMChunk, int64(decoder.PCMSize)),
	}, nil
}

// ReadFrames reads up to n frames into buf, growing it when needed. It returns
// the bytes read, which is empty at the end of the stream.
func (r *PCMReader) ReadFrames(buf []byte, n int) ([]byte, error) {
	want := n * r.Info.FrameSize()
	if cap(buf) < want {
		buf = make([]byte, want)
	}
	buf = buf[:want]

	read, err := io.ReadFull(r.data, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return buf[:read], err
}

func (r *PCMReader) Close() error {
	return r.file.Close()
}
