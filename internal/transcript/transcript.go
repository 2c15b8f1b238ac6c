// Package transcript defines the time-aligned text produced by a run: segments,
// the gaps left by failed chunks, and the ordering invariant every merged
// transcript must satisfy.
package transcript

import (
	"fmt"
	"math"
)

// Segment is one timestamped span of recognized text. Start and End are in
// seconds; inside the inference engine they are chunk-relative, after merging
// they are file-global.
type Segment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Chunk      int     `json:"chunk"`
}

// Duration returns End-Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Gap records a time range with no transcription because its chunk failed.
type Gap struct {
	Chunk  int     `json:"chunk"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Reason string  `json:"reason"`
}

// Transcript is the merged, file-global result of a run.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Gaps     []Gap     `json:"gaps,omitempty"`
	Duration float64   `json:"duration"`
}

// Empty reports whether the transcript has no segments.
func (t Transcript) Empty() bool {
	return len(t.Segments) == 0
}

// LowConfidence returns the segments whose confidence is below threshold.
func (t Transcript) LowConfidence(threshold float64) []Segment {
	var out []Segment
	for _, seg := range t.Segments {
		if seg.Confidence < threshold {
			out = append(out, seg)
		}
	}
	return out
}

// ClampConfidence maps c into [0, 1]; NaN becomes 0.
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// Validate checks the merged-transcript invariant: each segment has
// Start <= End, start times strictly increase, and no segment ends after the
// next one starts.
func Validate(segments []Segment) error {
	for i, seg := range segments {
		if math.IsNaN(seg.Start) || math.IsNaN(seg.End) {
			return fmt.Errorf("segment %d: non-numeric timestamp", i)
		}
		if seg.Start < 0 {
			return fmt.Errorf("segment %d: negative start %.3f", i, seg.Start)
		}
		if seg.End < seg.Start {
			return fmt.Errorf("segment %d: end %.3f before start %.3f", i, seg.End, seg.Start)
		}
		if i == 0 {
			continue
		}
		prev := segments[i-1]
		if seg.Start <= prev.Start {
			return fmt.Errorf("segment %d: start %.3f not after previous start %.3f", i, seg.Start, prev.Start)
		}
		if prev.End > seg.Start {
			return fmt.Errorf("segment %d: starts at %.3f before previous segment ends at %.3f", i, seg.Start, prev.End)
		}
	}
	return nil
}
