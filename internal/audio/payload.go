package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Codec names accepted in a synthesis output format.
const (
	CodecPCM = "pcm"
	CodecMP3 = "mp3"
)

// PayloadFormat describes what a synthesis endpoint was asked to return.
type PayloadFormat struct {
	Codec      string
	SampleRate int
}

// ParseOutputFormat parses ElevenLabs-style output formats such as
// "pcm_16000" or "mp3_44100_128".
func ParseOutputFormat(value string) (PayloadFormat, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(value)), "_")
	if len(parts) < 2 {
		return PayloadFormat{}, fmt.Errorf("output format %q: expected <codec>_<rate>", value)
	}
	codec := parts[0]
	if codec != CodecPCM && codec != CodecMP3 {
		return PayloadFormat{}, fmt.Errorf("output format %q: unsupported codec %q", value, codec)
	}
	rate, err := strconv.Atoi(parts[1])
	if err != nil || rate <= 0 {
		return PayloadFormat{}, fmt.Errorf("output format %q: invalid sample rate", value)
	}
	return PayloadFormat{Codec: codec, SampleRate: rate}, nil
}

// DecodePayload turns a synthesis response body into a mono buffer. WAV
// containers are recognized by their RIFF header regardless of the requested
// format; MP3 is decoded when requested; otherwise the body is raw
// little-endian PCM16 at format.SampleRate.
func DecodePayload(data []byte, format PayloadFormat) (*Buffer, error) {
	if bytes.HasPrefix(data, []byte("RIFF")) {
		return ReadWAV(bytes.NewReader(data))
	}
	if format.Codec == CodecMP3 || (format.Codec == "" && looksLikeMP3(data)) {
		return ReadMP3(bytes.NewReader(data))
	}
	return DecodeRawPCM(data, format.SampleRate)
}

// DecodeRawPCM interprets data as little-endian signed 16-bit mono samples.
func DecodeRawPCM(data []byte, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: raw pcm: unknown sample rate", ErrMalformed)
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: raw pcm: odd byte count %d", ErrMalformed, len(data))
	}
	out := &Buffer{SampleRate: sampleRate, Samples: make([]int16, len(data)/2)}
	for i := range out.Samples {
		out.Samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out, nil
}

// EncodeRawPCM is the inverse of DecodeRawPCM.
func EncodeRawPCM(b *Buffer) []byte {
	out := make([]byte, b.Len()*2)
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
