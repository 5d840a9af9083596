package result

import (
	"math"
	"testing"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{1, 100},
		{0, 50},
		{-1, 0},
		{0.5, 75},
		{0.2, 60},
	}
	for _, tc := range tests {
		r := New("id", "f.jpg", tc.score)
		if got := r.Percent(); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Percent(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestPercent_Monotonic(t *testing.T) {
	scores := []float64{0.93, 0.71, 0.71, 0.2, -0.05, -0.8}
	prev := math.Inf(1)
	for _, s := range scores {
		r := New("id", "", s)
		p := r.Percent()
		if p > prev {
			t.Fatalf("percent increased: %v after %v", p, prev)
		}
		prev = p
	}
}

func TestNew_UnknownFilename(t *testing.T) {
	r := New("Image_1", "", 0.3)
	if r.Filename() != "Unknown" {
		t.Errorf("expected Unknown, got %q", r.Filename())
	}
	if r.ID() != "Image_1" || r.Score() != 0.3 {
		t.Errorf("unexpected result: %+v", r)
	}
}
