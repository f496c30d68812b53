package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	pcmBitDepth         = 16
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	monoChannels        = 1
)

// ErrMalformed marks payloads that cannot be decoded as audio.
var ErrMalformed = errors.New("malformed audio")

// WriteWAV encodes b as a mono 16-bit PCM WAV stream.
func WriteWAV(w io.WriteSeeker, b *Buffer) error {
	if b == nil || b.SampleRate <= 0 {
		return errors.New("write wav: buffer has no sample rate")
	}
	enc := wav.NewEncoder(w, b.SampleRate, pcmBitDepth, monoChannels, wavFormatPCM)
	data := make([]int, len(b.Samples))
	for i, s := range b.Samples {
		data[i] = int(s)
	}
	// Write runs even for empty buffers so the header is emitted before Close patches sizes.
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: monoChannels, SampleRate: b.SampleRate},
		Data:           data,
		SourceBitDepth: pcmBitDepth,
	}); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// SaveWAV writes b to path, replacing any existing file.
func SaveWAV(path string, b *Buffer) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteWAV(file, b); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}

// ReadWAV decodes a PCM WAV stream into a mono 16-bit buffer. Multi-channel
// input is downmixed by averaging; 8, 24 and 32-bit input is rescaled.
func ReadWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: wav: %v", ErrMalformed, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: wav: missing format", ErrMalformed)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav: unsupported encoding %d", ErrMalformed, dec.WavAudioFormat)
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	out := &Buffer{SampleRate: buf.Format.SampleRate, Samples: make([]int16, frames)}
	for i := 0; i < frames; i++ {
		var sum int64
		for c := 0; c < channels; c++ {
			sum += int64(to16(buf.Data[i*channels+c], buf.SourceBitDepth))
		}
		out.Samples[i] = saturate(int32(sum / int64(channels)))
	}
	return out, nil
}

// LoadWAV reads a WAV file from disk.
func LoadWAV(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	buf, err := ReadWAV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

func to16(v, bitDepth int) int16 {
	switch bitDepth {
	case 8:
		return saturate(int32(v-128) << 8)
	case 24:
		return saturate(int32(v >> 8))
	case 32:
		return saturate(int32(v >> 16))
	default:
		return saturate(int32(v))
	}
}
