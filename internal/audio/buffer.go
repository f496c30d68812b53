package audio

import (
	"fmt"
	"math"
)

// Buffer is mono signed 16-bit PCM at a fixed sample rate.
type Buffer struct {
	SampleRate int
	Samples    []int16
}

// New returns an empty buffer.
func New(sampleRate int) *Buffer {
	return &Buffer{SampleRate: sampleRate}
}

// Len returns the number of samples; nil buffers are empty.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	return &Buffer{SampleRate: b.SampleRate, Samples: append([]int16(nil), b.Samples...)}
}

// SamplesFor converts seconds to a whole sample count, rounding to nearest.
func SamplesFor(sampleRate int, seconds float64) int {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(math.Round(seconds * float64(sampleRate)))
}

// Silence returns a zeroed buffer of the given length.
func Silence(sampleRate int, seconds float64) *Buffer {
	return &Buffer{SampleRate: sampleRate, Samples: make([]int16, SamplesFor(sampleRate, seconds))}
}

// Pad prepends leading silence so the clip starts at offset seconds. The
// result has exactly SamplesFor(rate, offset)+clip.Len() samples.
func Pad(clip *Buffer, offset float64) *Buffer {
	lead := SamplesFor(clip.SampleRate, offset)
	out := make([]int16, lead+clip.Len())
	copy(out[lead:], clip.Samples)
	return &Buffer{SampleRate: clip.SampleRate, Samples: out}
}

// Mix additively overlays a and b starting at sample zero. The shorter operand
// is treated as if padded with trailing silence, so the result length is
// max(a.Len(), b.Len()). Sums saturate to the int16 range; nothing is
// renormalized. An empty operand adopts the other's sample rate.
func Mix(a, b *Buffer) (*Buffer, error) {
	rate, err := commonRate(a, b)
	if err != nil {
		return nil, err
	}
	long, short := a, b
	if short.Len() > long.Len() {
		long, short = short, long
	}
	out := make([]int16, long.Len())
	if long != nil {
		copy(out, long.Samples)
	}
	for i := 0; i < short.Len(); i++ {
		out[i] = saturate(int32(out[i]) + int32(short.Samples[i]))
	}
	return &Buffer{SampleRate: rate, Samples: out}, nil
}

// MixAt overlays src onto dst in place starting at sample offset, growing dst
// with trailing silence when src reaches past its end. It is equivalent to
// Mix(dst, Pad(src, offset)) without materializing the leading silence.
func MixAt(dst, src *Buffer, offset int) error {
	if offset < 0 {
		return fmt.Errorf("mix: negative offset %d", offset)
	}
	if dst.SampleRate <= 0 && dst.Len() == 0 {
		dst.SampleRate = src.SampleRate
	}
	if src.Len() > 0 && src.SampleRate != dst.SampleRate {
		return fmt.Errorf("mix: sample rate mismatch %d != %d", dst.SampleRate, src.SampleRate)
	}
	if end := offset + src.Len(); end > len(dst.Samples) {
		dst.Samples = append(dst.Samples, make([]int16, end-len(dst.Samples))...)
	}
	for i, s := range src.Samples {
		j := offset + i
		dst.Samples[j] = saturate(int32(dst.Samples[j]) + int32(s))
	}
	return nil
}

// Gain multiplies every sample by factor and hard-clips to [-32768, 32767].
func Gain(b *Buffer, factor float64) *Buffer {
	out := &Buffer{SampleRate: b.SampleRate, Samples: make([]int16, b.Len())}
	for i, s := range b.Samples {
		out.Samples[i] = saturateFloat(math.Round(float64(s) * factor))
	}
	return out
}

// Resample converts b to the target rate using linear interpolation.
func Resample(b *Buffer, rate int) *Buffer {
	if b == nil || rate <= 0 || b.SampleRate == rate || b.SampleRate <= 0 {
		return b.Clone()
	}
	ratio := float64(b.SampleRate) / float64(rate)
	n := int(float64(len(b.Samples)) / ratio)
	out := make([]int16, n)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		switch {
		case idx+1 < len(b.Samples):
			v := float64(b.Samples[idx])*(1-frac) + float64(b.Samples[idx+1])*frac
			out[i] = saturateFloat(math.Round(v))
		case idx < len(b.Samples):
			out[i] = b.Samples[idx]
		}
	}
	return &Buffer{SampleRate: rate, Samples: out}
}

func commonRate(a, b *Buffer) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil || (a.Len() == 0 && a.SampleRate <= 0):
		return b.SampleRate, nil
	case b == nil || (b.Len() == 0 && b.SampleRate <= 0):
		return a.SampleRate, nil
	case a.SampleRate != b.SampleRate:
		return 0, fmt.Errorf("mix: sample rate mismatch %d != %d", a.SampleRate, b.SampleRate)
	}
	return a.SampleRate, nil
}

func saturate(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func saturateFloat(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
