package dubbing

import (
	"fmt"
	"log/slog"
	"sort"

	"dubber/internal/audio"
	"dubber/internal/logging"
	"dubber/internal/services"
)

const mergeStage = "merge"

// Merger is the ordering barrier in front of the master track. Clips may be
// added in any order; they are mixed strictly by ascending Index starting at
// 1, and early arrivals wait in a pending set until their turn.
type Merger struct {
	total      int
	sampleRate int
	next       int
	pending    map[int]PaddedClip
	master     *audio.Buffer
	logger     *slog.Logger
}

// NewMerger prepares a merger expecting clips 1..total at sampleRate.
func NewMerger(total, sampleRate int, logger *slog.Logger) *Merger {
	return &Merger{
		total:      total,
		sampleRate: sampleRate,
		next:       1,
		pending:    make(map[int]PaddedClip),
		master:     audio.New(sampleRate),
		logger:     logging.NewComponentLogger(logger, "merger"),
	}
}

// Add accepts one clip and merges every clip that is now in order.
func (m *Merger) Add(clip PaddedClip) error {
	if clip.Index < 1 || clip.Index > m.total {
		return services.Wrap(services.ErrValidation, mergeStage, "add",
			fmt.Sprintf("clip index %d outside 1..%d", clip.Index, m.total), nil)
	}
	if _, dup := m.pending[clip.Index]; dup || clip.Index < m.next {
		return services.Wrap(services.ErrValidation, mergeStage, "add",
			fmt.Sprintf("duplicate clip index %d", clip.Index), nil)
	}
	m.pending[clip.Index] = clip
	for {
		ready, ok := m.pending[m.next]
		if !ok {
			break
		}
		delete(m.pending, m.next)
		if err := m.merge(ready); err != nil {
			return err
		}
		m.next++
	}
	if len(m.pending) > 0 {
		m.logger.Debug("clips waiting for ordering barrier",
			logging.Int("next", m.next),
			logging.Int("pending", len(m.pending)),
		)
	}
	return nil
}

func (m *Merger) merge(clip PaddedClip) error {
	speech, err := clip.Speech()
	if err != nil {
		return services.Wrap(services.ErrDecode, mergeStage, "load clip", fmt.Sprintf("segment %d", clip.Index), err)
	}
	if speech.Len() > 0 && speech.SampleRate != m.sampleRate {
		return services.Wrap(services.ErrDecode, mergeStage, "mix",
			fmt.Sprintf("segment %d sample rate %d, want %d", clip.Index, speech.SampleRate, m.sampleRate), nil)
	}
	if err := audio.MixAt(m.master, speech, clip.Lead); err != nil {
		return services.Wrap(services.ErrDecode, mergeStage, "mix", fmt.Sprintf("segment %d", clip.Index), err)
	}
	return nil
}

// Merged returns how many clips have passed the barrier.
func (m *Merger) Merged() int {
	return m.next - 1
}

// Finish returns the master track once every index has been merged.
func (m *Merger) Finish() (*audio.Buffer, error) {
	if m.next <= m.total {
		missing := make([]int, 0, m.total-m.next+1)
		for i := m.next; i <= m.total; i++ {
			if _, ok := m.pending[i]; !ok {
				missing = append(missing, i)
			}
		}
		sort.Ints(missing)
		return nil, services.Wrap(services.ErrValidation, mergeStage, "finish",
			fmt.Sprintf("missing clips %v", missing), nil)
	}
	return m.master, nil
}

// MergeClips mixes padded clips given in index order into one track. It is a
// pure function of its inputs: the same clips always give the same samples.
func MergeClips(clips []PaddedClip, sampleRate int) (*audio.Buffer, error) {
	merger := NewMerger(len(clips), sampleRate, nil)
	for i, clip := range clips {
		clip.Index = i + 1
		if err := merger.Add(clip); err != nil {
			return nil, err
		}
	}
	return merger.Finish()
}
