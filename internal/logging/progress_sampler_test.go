package logging

import "testing"

func TestProgressSamplerSequence(t *testing.T) {
	type step struct {
		stage   string
		percent int
		want    bool
	}
	tests := []struct {
		name   string
		bucket int
		steps  []step
	}{
		{
			name:   "five percent buckets",
			bucket: 5,
			steps: []step{
				{"download", 0, true},
				{"download", 3, false},
				{"download", 5, true},
				{"download", 9, false},
				{"download", 10, true},
				{"download", 100, true},
				{"download", 140, false},
			},
		},
		{
			name:   "stage change resets bucket",
			bucket: 5,
			steps: []step{
				{"download", 50, true},
				{"encode", 0, true},
				{"encode", 10, true},
				{" encode ", 11, false},
			},
		},
		{
			name:   "unknown percent logs only on stage change",
			bucket: 5,
			steps: []step{
				{"whisper", -1, true},
				{"whisper", -1, false},
			},
		},
		{
			name:   "default bucket for zero",
			bucket: 0,
			steps: []step{
				{"s", 0, true},
				{"s", 4, false},
				{"s", 5, true},
			},
		},
		{
			name:   "quarter buckets",
			bucket: 25,
			steps: []step{
				{"s", 0, true},
				{"s", 20, false},
				{"s", 25, true},
				{"s", 49, false},
				{"s", 50, true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucket)
			for i, st := range tt.steps {
				if got := s.ShouldLog(st.stage, st.percent); got != st.want {
					t.Fatalf("step %d (%q, %d): got %v want %v", i, st.stage, st.percent, got, st.want)
				}
			}
		})
	}
}

func TestProgressSamplerNilAndReset(t *testing.T) {
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog("stage", 50) {
		t.Fatal("nil sampler should always log")
	}
	nilSampler.Reset()

	s := NewProgressSampler(5)
	s.ShouldLog("download", 50)
	s.Reset()
	if s.lastStage != "" || s.lastBucket != -1 {
		t.Fatalf("unexpected state after reset: %+v", s)
	}
	if !s.ShouldLog("download", 50) {
		t.Fatal("should log after reset")
	}
}
