package dubbing

import (
	"fmt"
	"math"

	"dubber/internal/audio"
	"dubber/internal/services"
	"dubber/internal/services/whisperx"
)

// Segment is one timed span of source speech. Index is its 1-based position
// in the segment source output and the only ordering key downstream.
type Segment struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// SegmentsFromTranscript converts WhisperX segments, keeping their indices.
func SegmentsFromTranscript(in []whisperx.Segment) []Segment {
	out := make([]Segment, len(in))
	for i, seg := range in {
		out[i] = Segment{Index: seg.Index, Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return out
}

// ValidateSegments checks that indices cover 1..N exactly once and that
// every start offset is a finite, non-negative number. End is not checked.
func ValidateSegments(segments []Segment) error {
	seen := make(map[int]bool, len(segments))
	for _, seg := range segments {
		if seg.Index < 1 || seg.Index > len(segments) {
			return services.Wrap(services.ErrValidation, scheduleStage, "validate segments",
				fmt.Sprintf("segment index %d outside 1..%d", seg.Index, len(segments)), nil)
		}
		if seen[seg.Index] {
			return services.Wrap(services.ErrValidation, scheduleStage, "validate segments",
				fmt.Sprintf("duplicate segment index %d", seg.Index), nil)
		}
		seen[seg.Index] = true
		if seg.Start < 0 || math.IsNaN(seg.Start) || math.IsInf(seg.Start, 0) {
			return services.Wrap(services.ErrValidation, scheduleStage, "validate segments",
				fmt.Sprintf("segment %d has invalid start %v", seg.Index, seg.Start), nil)
		}
	}
	return nil
}

// SynthesizedClip is the speech produced for one segment, before alignment.
type SynthesizedClip struct {
	Index int
	Audio *audio.Buffer
}

// Duration returns the clip length in seconds.
func (c SynthesizedClip) Duration() float64 {
	return c.Audio.Duration()
}

// PaddedClip is a synthesized clip aligned to its segment start. The leading
// silence is carried as a sample count rather than stored, so
// Duration = Start + SynthesizedClip.Duration() to sample resolution.
//
// The speech itself is either held in Audio or persisted at Path.
type PaddedClip struct {
	Index      int
	Start      float64
	Lead       int
	SampleRate int
	Samples    int
	Path       string
	Audio      *audio.Buffer
}

// Duration returns the padded length in seconds.
func (c PaddedClip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Lead+c.Samples) / float64(c.SampleRate)
}

// NewPaddedClip aligns clip to start seconds at the clip's sample rate.
func NewPaddedClip(index int, start float64, clip *audio.Buffer) PaddedClip {
	return PaddedClip{
		Index:      index,
		Start:      start,
		Lead:       audio.SamplesFor(clip.SampleRate, start),
		SampleRate: clip.SampleRate,
		Samples:    clip.Len(),
		Audio:      clip,
	}
}

// Speech loads the unpadded clip audio.
func (c PaddedClip) Speech() (*audio.Buffer, error) {
	if c.Audio != nil {
		return c.Audio, nil
	}
	if c.Path == "" {
		return nil, fmt.Errorf("clip %d has neither audio nor path", c.Index)
	}
	return audio.LoadWAV(c.Path)
}

// Materialize returns the clip with its leading silence prepended.
func (c PaddedClip) Materialize() (*audio.Buffer, error) {
	speech, err := c.Speech()
	if err != nil {
		return nil, err
	}
	out := audio.New(c.SampleRate)
	out.Samples = make([]int16, c.Lead+speech.Len())
	copy(out.Samples[c.Lead:], speech.Samples)
	return out, nil
}
