package postfilter

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"murmur/internal/logging"
	"murmur/internal/textutil"
	"murmur/internal/transcript"
)

// Removal reasons.
const (
	ReasonIsolated      = "isolated_hallucination"
	ReasonRepeated      = "repeated_hallucination"
	ReasonMusic         = "music_symbols"
	ReasonTrailing      = "trailing_hallucination"
	ReasonTrailingMusic = "trailing_music"
)

const (
	isolationSeconds      = 30.0
	repeatGapSeconds      = 10.0
	minRepeatRun          = 3
	trailingWindowSeconds = 300.0
)

// Removal records one segment dropped by the filter.
type Removal struct {
	Segment transcript.Segment `json:"segment"`
	Reason  string             `json:"reason"`
}

// Result holds the surviving transcript and everything removed.
type Result struct {
	Transcript transcript.Transcript
	Removals   []Removal
}

// Known hallucination phrases in normalized form.
var phrases = map[string]bool{
	"thank you":                           true,
	"thank you for watching":              true,
	"thanks for watching":                 true,
	"please subscribe":                    true,
	"like and subscribe":                  true,
	"well be right back":                  true,
	"bye":                                 true,
	"bye bye":                             true,
	"see you next time":                   true,
	"see you later":                       true,
	"subtitles by the amara org community": true,
}

// Filter runs the repeated/isolated pass over the whole transcript and then
// sweeps the trailing window. Gaps and duration are carried through
// unchanged.
func Filter(t transcript.Transcript) Result {
	remaining, removals := removeIsolated(t.Segments)
	remaining, trailing := sweepTrailing(remaining, t.Duration)
	removals = append(removals, trailing...)

	out := t
	out.Segments = remaining
	return Result{Transcript: out, Removals: removals}
}

// IsHallucination reports whether text is one of the stock phrases.
func IsHallucination(text string) bool {
	return phrases[textutil.Normalize(text)]
}

func removeIsolated(segments []transcript.Segment) ([]transcript.Segment, []Removal) {
	if len(segments) == 0 {
		return segments, nil
	}
	remove := make([]bool, len(segments))
	var removals []Removal
	markRepeated(segments, remove, &removals)

	for i, seg := range segments {
		if remove[i] {
			continue
		}
		if gapBefore(segments, i) < isolationSeconds || gapAfter(segments, i) < isolationSeconds {
			continue
		}
		switch {
		case IsHallucination(seg.Text):
			remove[i] = true
			removals = append(removals, Removal{Segment: seg, Reason: ReasonIsolated})
		case isMusic(seg.Text):
			remove[i] = true
			removals = append(removals, Removal{Segment: seg, Reason: ReasonMusic})
		}
	}

	kept := make([]transcript.Segment, 0, len(segments))
	for i, seg := range segments {
		if !remove[i] {
			kept = append(kept, seg)
		}
	}
	return kept, removals
}

// markRepeated flags runs of minRepeatRun or more consecutive segments with
// the same normalized text, each separated by more than repeatGapSeconds.
func markRepeated(segments []transcript.Segment, remove []bool, removals *[]Removal) {
	i := 0
	for i < len(segments) {
		norm := textutil.Normalize(segments[i].Text)
		if norm == "" {
			i++
			continue
		}
		end := i + 1
		for end < len(segments) {
			if textutil.Normalize(segments[end].Text) != norm {
				break
			}
			if segments[end].Start-segments[end-1].End <= repeatGapSeconds {
				break
			}
			end++
		}
		if end-i >= minRepeatRun {
			for j := i; j < end; j++ {
				remove[j] = true
				*removals = append(*removals, Removal{Segment: segments[j], Reason: ReasonRepeated})
			}
		}
		i = end
	}
}

func gapBefore(segments []transcript.Segment, i int) float64 {
	if i == 0 {
		return segments[i].Start
	}
	return segments[i].Start - segments[i-1].End
}

func gapAfter(segments []transcript.Segment, i int) float64 {
	if i >= len(segments)-1 {
		return 1e9
	}
	return segments[i+1].Start - segments[i].End
}

// isMusic reports whether text holds only music notation and whitespace.
func isMusic(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, r := range text {
		switch {
		case r == '¶', r == '♪', r == '♫', r == '*':
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return true
}

// sweepTrailing drops stock phrases and music in the last five minutes of
// recordings at least twice that long, without requiring isolation.
func sweepTrailing(segments []transcript.Segment, duration float64) ([]transcript.Segment, []Removal) {
	if duration < 2*trailingWindowSeconds || len(segments) == 0 {
		return segments, nil
	}
	threshold := duration - trailingWindowSeconds
	var removals []Removal
	kept := make([]transcript.Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Start < threshold {
			kept = append(kept, seg)
			continue
		}
		switch {
		case IsHallucination(seg.Text):
			removals = append(removals, Removal{Segment: seg, Reason: ReasonTrailing})
		case isMusic(seg.Text):
			removals = append(removals, Removal{Segment: seg, Reason: ReasonTrailingMusic})
		default:
			kept = append(kept, seg)
		}
	}
	return kept, removals
}

// LogSummary logs a summary at INFO and each removal at DEBUG.
func LogSummary(ctx context.Context, logger *slog.Logger, result Result) {
	if logger == nil || len(result.Removals) == 0 {
		return
	}
	reasons := make(map[string]int)
	for _, r := range result.Removals {
		reasons[r.Reason]++
	}
	attrs := []slog.Attr{
		logging.String(logging.FieldEventType, "hallucination_filter_applied"),
		logging.Int("segments_removed", len(result.Removals)),
		logging.Int("segments_remaining", len(result.Transcript.Segments)),
	}
	for reason, count := range reasons {
		attrs = append(attrs, logging.Int("removed_"+reason, count))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "hallucination filter applied", attrs...)

	for _, r := range result.Removals {
		logger.Debug("hallucination filter removed segment",
			logging.String("text", r.Segment.Text),
			logging.String("reason", r.Reason),
			logging.Float64("start", r.Segment.Start),
			logging.Float64("end", r.Segment.End),
			logging.Int(logging.FieldChunkIndex, r.Segment.Chunk),
		)
	}
}
