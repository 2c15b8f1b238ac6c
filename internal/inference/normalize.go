package inference

import (
	"math"
	"sort"

	"murmur/internal/textutil"
	"murmur/internal/transcript"
)

// Normalize turns raw backend output into chunk-relative segments: empty
// texts and non-numeric timestamps are dropped, times are clamped to
// [0, duration], confidences to [0, 1], and segments are ordered by start.
func Normalize(raw []RawSegment, duration float64, chunk int) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(raw))
	for _, r := range raw {
		text := textutil.CollapseSpace(r.Text)
		if text == "" || math.IsNaN(r.Start) || math.IsNaN(r.End) {
			continue
		}
		start := clamp(r.Start, 0, duration)
		end := clamp(r.End, start, duration)
		out = append(out, transcript.Segment{
			Text:       text,
			Start:      start,
			End:        end,
			Confidence: transcript.ClampConfidence(r.Confidence),
			Chunk:      chunk,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
