package logging

import "testing"

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "inference") {
		t.Fatal("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		percent float64
		stage   string
		want    bool
	}{
		{0, "inference", true},
		{4, "inference", false},
		{10, "inference", true},
		{19.9, "inference", false},
		{100, "inference", true},
		{105, "inference", false},
		{0, "merge", true},
		{-1, "merge", false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, step.stage); got != step.want {
			t.Fatalf("step %d (%v%% %s): got %v want %v", i, step.percent, step.stage, got, step.want)
		}
	}
}

func TestProgressSamplerDefaultsAndReset(t *testing.T) {
	s := NewProgressSampler(0)
	if s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
	s.ShouldLog(50, "  inference  ")
	if s.lastStage != "inference" {
		t.Fatalf("lastStage = %q, want trimmed stage", s.lastStage)
	}
	s.Reset()
	if s.lastStage != "" || s.lastBucket != -1 {
		t.Fatalf("expected cleared state, got %q %d", s.lastStage, s.lastBucket)
	}
	if !s.ShouldLog(50, "inference") {
		t.Fatal("should log after reset")
	}
}
