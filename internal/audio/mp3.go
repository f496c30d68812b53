package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// ReadMP3 decodes an MP3 stream. go-mp3 always yields interleaved stereo
// s16le, so the channels are averaged into mono at the stream's own rate.
func ReadMP3(r io.Reader) (*Buffer, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %v", ErrMalformed, err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %v", ErrMalformed, err)
	}
	frames := len(pcm) / 4
	out := &Buffer{SampleRate: dec.SampleRate(), Samples: make([]int16, frames)}
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		out.Samples[i] = int16((int32(left) + int32(right)) / 2)
	}
	return out, nil
}

func looksLikeMP3(data []byte) bool {
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}
