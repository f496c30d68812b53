package audio

import (
	"math"
	"slices"
	"testing"
)

const testRate = 1000

func tone(rate int, seconds float64, value int16) *Buffer {
	b := Silence(rate, seconds)
	for i := range b.Samples {
		b.Samples[i] = value
	}
	return b
}

func ramp(n int, start int16) *Buffer {
	b := &Buffer{SampleRate: testRate, Samples: make([]int16, n)}
	for i := range b.Samples {
		b.Samples[i] = start + int16(i%100)
	}
	return b
}

func TestPadPrependsExactLeadingSilence(t *testing.T) {
	clip := tone(testRate, 0.5, 100)
	padded := Pad(clip, 1.25)
	if padded.Len() != 1250+500 {
		t.Fatalf("padded length = %d, want %d", padded.Len(), 1750)
	}
	if math.Abs(padded.Duration()-(1.25+clip.Duration())) > 1e-9 {
		t.Fatalf("padded duration = %v", padded.Duration())
	}
	for i := 0; i < 1250; i++ {
		if padded.Samples[i] != 0 {
			t.Fatalf("sample %d should be silent, got %d", i, padded.Samples[i])
		}
	}
	if padded.Samples[1250] != 100 {
		t.Fatalf("clip should start at offset, got %d", padded.Samples[1250])
	}
}

func TestPadZeroLengthClip(t *testing.T) {
	padded := Pad(New(testRate), 2)
	if padded.Len() != 2000 || padded.Duration() != 2 {
		t.Fatalf("expected 2s of silence, got %d samples", padded.Len())
	}
}

// A at 0 (2.0s) and B at 1.0 (0.5s): result is 2.0s, the overlap is the sum
// and everything else is A alone.
func TestMixOverlapRegion(t *testing.T) {
	a := ramp(2000, 10)
	b := Pad(ramp(500, 1000), 1.0)

	mixed, err := Mix(a, b)
	if err != nil {
		t.Fatalf("Mix returned error: %v", err)
	}
	if mixed.Duration() != 2.0 {
		t.Fatalf("mixed duration = %v, want 2.0", mixed.Duration())
	}
	for i := 0; i < 2000; i++ {
		want := a.Samples[i]
		if i >= 1000 && i < 1500 {
			want = a.Samples[i] + b.Samples[i]
		}
		if mixed.Samples[i] != want {
			t.Fatalf("sample %d = %d, want %d", i, mixed.Samples[i], want)
		}
	}
}

func TestMixIsSymmetricAndExtends(t *testing.T) {
	short := tone(testRate, 0.2, 5)
	long := Pad(tone(testRate, 0.3, 7), 0.5)

	ab, err := Mix(short, long)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Mix(long, short)
	if err != nil {
		t.Fatal(err)
	}
	if ab.Len() != 800 || ba.Len() != 800 {
		t.Fatalf("expected length 800, got %d and %d", ab.Len(), ba.Len())
	}
	for i := range ab.Samples {
		if ab.Samples[i] != ba.Samples[i] {
			t.Fatalf("mix not symmetric at %d", i)
		}
	}
	if ab.Samples[100] != 5 || ab.Samples[300] != 0 || ab.Samples[600] != 7 {
		t.Fatalf("unexpected samples %d %d %d", ab.Samples[100], ab.Samples[300], ab.Samples[600])
	}
}

func TestMixIntoEmptyMaster(t *testing.T) {
	clip := tone(testRate, 0.1, 42)
	mixed, err := Mix(New(testRate), clip)
	if err != nil {
		t.Fatal(err)
	}
	if mixed.Len() != clip.Len() || mixed.Samples[0] != 42 {
		t.Fatalf("mixing into empty master should copy the clip")
	}
	mixed.Samples[0] = 0
	if clip.Samples[0] != 42 {
		t.Fatal("Mix must not alias its inputs")
	}
}

func TestMixSaturates(t *testing.T) {
	a := &Buffer{SampleRate: testRate, Samples: []int16{30000, -30000, 100}}
	b := &Buffer{SampleRate: testRate, Samples: []int16{10000, -10000, -50}}
	mixed, err := Mix(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := []int16{math.MaxInt16, math.MinInt16, 50}
	for i := range want {
		if mixed.Samples[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, mixed.Samples[i], want[i])
		}
	}
}

func TestMixRejectsRateMismatch(t *testing.T) {
	if _, err := Mix(tone(16000, 0.1, 1), tone(22050, 0.1, 1)); err == nil {
		t.Fatal("expected sample rate mismatch error")
	}
}

func TestGainScalesAndSaturates(t *testing.T) {
	in := &Buffer{SampleRate: testRate, Samples: []int16{0, 100, -100, 4000, -5000, 32767, -32768}}
	out := Gain(in, 7.0)
	want := []int16{0, 700, -700, 28000, math.MinInt16, math.MaxInt16, math.MinInt16}
	for i := range want {
		if out.Samples[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, out.Samples[i], want[i])
		}
	}
	if in.Samples[1] != 100 {
		t.Fatal("Gain must not mutate its input")
	}
}

func TestGainFractional(t *testing.T) {
	out := Gain(&Buffer{SampleRate: testRate, Samples: []int16{3, -3, 1000}}, 0.5)
	want := []int16{2, -2, 500}
	for i := range want {
		if out.Samples[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, out.Samples[i], want[i])
		}
	}
}

func TestResample(t *testing.T) {
	src := &Buffer{SampleRate: 8000, Samples: []int16{0, 100, 200, 300}}
	up := Resample(src, 16000)
	if up.SampleRate != 16000 || up.Len() != 8 {
		t.Fatalf("unexpected upsample result rate=%d len=%d", up.SampleRate, up.Len())
	}
	if up.Samples[1] != 50 || up.Samples[2] != 100 {
		t.Fatalf("expected linear interpolation, got %v", up.Samples)
	}

	down := Resample(&Buffer{SampleRate: 32000, Samples: make([]int16, 3200)}, 16000)
	if down.Len() != 1600 {
		t.Fatalf("downsample length = %d, want 1600", down.Len())
	}

	same := Resample(src, 8000)
	same.Samples[0] = 9
	if src.Samples[0] != 0 {
		t.Fatal("same-rate resample must copy")
	}
}

func TestSamplesForRounds(t *testing.T) {
	cases := []struct {
		seconds float64
		want    int
	}{
		{0, 0},
		{-1, 0},
		{0.0004, 0},
		{0.0006, 1},
		{3, 3000},
	}
	for _, tc := range cases {
		if got := SamplesFor(testRate, tc.seconds); got != tc.want {
			t.Fatalf("SamplesFor(%v) = %d, want %d", tc.seconds, got, tc.want)
		}
	}
}

func TestMixAtMatchesMixOfPaddedClip(t *testing.T) {
	master := &Buffer{SampleRate: testRate, Samples: []int16{1, 2, 3, 4, 5}}
	clip := &Buffer{SampleRate: testRate, Samples: []int16{10, 20, 30, 40}}

	want, err := Mix(master, Pad(clip, 0.003))
	if err != nil {
		t.Fatalf("Mix returned error: %v", err)
	}
	got := master.Clone()
	if err := MixAt(got, clip, 3); err != nil {
		t.Fatalf("MixAt returned error: %v", err)
	}
	if !slices.Equal(got.Samples, want.Samples) {
		t.Fatalf("MixAt = %v, Mix(Pad) = %v", got.Samples, want.Samples)
	}
}

func TestMixAtAdoptsRateOfEmptyMaster(t *testing.T) {
	master := &Buffer{}
	if err := MixAt(master, &Buffer{SampleRate: testRate, Samples: []int16{7}}, 2); err != nil {
		t.Fatalf("MixAt returned error: %v", err)
	}
	if master.SampleRate != testRate || !slices.Equal(master.Samples, []int16{0, 0, 7}) {
		t.Fatalf("unexpected master %+v", master)
	}
	if err := MixAt(master, &Buffer{SampleRate: 8000, Samples: []int16{1}}, 0); err == nil {
		t.Fatal("expected rate mismatch error")
	}
	if err := MixAt(master, &Buffer{SampleRate: testRate}, -1); err == nil {
		t.Fatal("expected negative offset error")
	}
}
