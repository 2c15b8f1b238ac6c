package inference

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	raw := []RawSegment{
		{Text: "second", Start: 2, End: 3, Confidence: 0.5},
		{Text: "   ", Start: 0, End: 1, Confidence: 1},
		{Text: "first", Start: -0.5, End: 1, Confidence: 1.7},
		{Text: "late", Start: 4.5, End: 9, Confidence: math.NaN()},
		{Text: "bad", Start: math.NaN(), End: 1},
		{Text: "backwards", Start: 3.5, End: 3.2, Confidence: 0.4},
	}
	got := Normalize(raw, 5, 7)
	want := []struct {
		text       string
		start, end float64
		conf       float64
	}{
		{"first", 0, 1, 1},
		{"second", 2, 3, 0.5},
		{"backwards", 3.5, 3.5, 0.4},
		{"late", 4.5, 5, 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d segments: %+v", len(got), got)
	}
	for i, w := range want {
		g := got[i]
		if g.Text != w.text || g.Start != w.start || g.End != w.end || g.Confidence != w.conf || g.Chunk != 7 {
			t.Fatalf("segment %d = %+v, want %+v", i, g, w)
		}
	}
}
