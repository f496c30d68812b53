package dubbing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dubber/internal/audio"
)

const testRate = 1000

type fakeTranslator struct {
	mu     sync.Mutex
	calls  map[string]int
	delay  time.Duration
	fail   map[string]error
	result func(text string) string
}

func newFakeTranslator() *fakeTranslator {
	return &fakeTranslator{calls: make(map[string]int), fail: make(map[string]error)}
}

func (f *fakeTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	f.mu.Lock()
	f.calls[text]++
	err := f.fail[text]
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if f.result != nil {
		return f.result(text), nil
	}
	return strings.ToUpper(text) + "@" + targetLang, nil
}

func (f *fakeTranslator) count(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}

func (f *fakeTranslator) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// fakeSynth returns len(text) samples of constant value at rate. Delays are
// looked up by text so tests can force a completion order.
type fakeSynth struct {
	rate     int
	value    int16
	delays   map[string]time.Duration
	fail     map[string]error
	block    bool
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func newFakeSynth(rate int) *fakeSynth {
	return &fakeSynth{rate: rate, value: 100, delays: map[string]time.Duration{}, fail: map[string]error{}}
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) (*audio.Buffer, error) {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d := f.delays[text]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.fail[text]; err != nil {
		return nil, err
	}
	buf := audio.New(f.rate)
	buf.Samples = make([]int16, len(text))
	for i := range buf.Samples {
		buf.Samples[i] = f.value
	}
	return buf, nil
}

var errBoom = errors.New("boom")

func constantClip(index int, start float64, value int16, samples int) PaddedClip {
	buf := audio.New(testRate)
	buf.Samples = make([]int16, samples)
	for i := range buf.Samples {
		buf.Samples[i] = value
	}
	return NewPaddedClip(index, start, buf)
}
