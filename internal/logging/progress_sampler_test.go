package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 10},
		{"default bucket size for negative", -1, 10},
		{"custom bucket size", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNilLogsEverything(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(1, 10) {
		t.Error("ShouldLog on nil sampler should always return true")
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		done int
		want bool
	}{
		{1, true},  // first update opens bucket 0
		{2, true},  // 25%
		{3, false}, // 37.5%
		{4, true},  // 50%
		{5, false},
		{6, true},  // 75%
		{7, false}, // 87.5%
		{8, true},  // done
		{8, false}, // repeat
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.done, 8); got != step.want {
			t.Fatalf("ShouldLog(%d, 8) = %v, want %v", step.done, got, step.want)
		}
	}
}

func TestProgressSamplerFinalUnitAlwaysLogs(t *testing.T) {
	s := NewProgressSampler(50)
	if !s.ShouldLog(1, 3) {
		t.Fatal("first update should log")
	}
	if !s.ShouldLog(2, 3) {
		t.Fatal("66% should log in 50% buckets")
	}
	if !s.ShouldLog(3, 3) {
		t.Fatal("completion should always log")
	}
}

func TestProgressSamplerZeroTotal(t *testing.T) {
	s := NewProgressSampler(10)
	if s.ShouldLog(0, 0) {
		t.Fatal("zero total should not log")
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		done, total int
		want        float64
	}{
		{0, 10, 0},
		{5, 10, 50},
		{10, 10, 100},
		{12, 10, 100},
		{3, 0, 0},
	}
	for _, tc := range cases {
		if got := Percent(tc.done, tc.total); got != tc.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tc.done, tc.total, got, tc.want)
		}
	}
}
