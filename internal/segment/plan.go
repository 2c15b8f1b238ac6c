package segment

import (
	"errors"
	"fmt"

	"murmur/internal/audio"
	"murmur/internal/services"
)

// Plan splits w into ordered chunks. Chunks cover the waveform without gaps;
// adjacent chunks overlap by opts.Overlap centred on the cut. A waveform
// shorter than MinDuration yields exactly one chunk.
func Plan(w audio.Waveform, opts Options) ([]Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, services.StageSegment, "plan", "invalid options", err)
	}
	if w.SampleRate <= 0 {
		return nil, services.Wrap(services.ErrValidation, services.StageSegment, "plan",
			fmt.Sprintf("invalid sample rate %d", w.SampleRate), nil)
	}
	total := w.Len()
	if total == 0 {
		return nil, services.Wrap(services.ErrValidation, services.StageSegment, "plan", "empty waveform", errors.New("no samples"))
	}

	rate := w.SampleRate
	maxLen := max(toSamples(opts.MaxDuration, rate), 1)
	minLen := toSamples(opts.MinDuration, rate)
	if total < minLen {
		return []Chunk{{Index: 0, Start: 0, End: total, CutStart: 0, CutEnd: total, SampleRate: rate, Reason: CutEnd}}, nil
	}

	frameLen := max(toSamples(opts.FrameSize, rate), 1)
	energies := frameEnergies(w.Samples, frameLen)
	candidates := findCandidates(energies, frameLen, total, opts.SilenceThresholdDB, toSamples(opts.MinSilence, rate))
	window := toSamples(opts.SearchWindow, rate)

	type cut struct {
		at     int
		reason string
	}
	var cuts []cut
	start := 0
	next := 0
	for start < total {
		for next < len(candidates) && candidates[next].cut < start+minLen {
			next++
		}
		if next < len(candidates) && candidates[next].cut <= start+maxLen && candidates[next].cut < total {
			cuts = append(cuts, cut{candidates[next].cut, CutSilence})
			start = candidates[next].cut
			next++
			continue
		}
		if total-start <= maxLen {
			cuts = append(cuts, cut{total, CutEnd})
			break
		}
		at, reason := forcedCut(energies, frameLen, start, minLen, maxLen, window, opts.SilenceThresholdDB+softThresholdMarginDB)
		cuts = append(cuts, cut{at, reason})
		start = at
	}

	half := toSamples(opts.Overlap/2, rate)
	chunks := make([]Chunk, len(cuts))
	prev := 0
	for i, c := range cuts {
		chunk := Chunk{Index: i, CutStart: prev, CutEnd: c.at, SampleRate: rate, Reason: c.reason}
		chunk.Start = chunk.CutStart
		if i > 0 {
			chunk.Start = max(chunk.CutStart-half, 0)
		}
		chunk.End = chunk.CutEnd
		if i < len(cuts)-1 {
			chunk.End = min(chunk.CutEnd+half, total)
		}
		chunks[i] = chunk
		prev = c.at
	}
	return chunks, nil
}

// forcedCut chooses a boundary when no silence candidate fits before
// start+maxLen: the quietest frame of the trailing window if it is below
// soft, otherwise exactly start+maxLen. Ties prefer the later frame.
func forcedCut(energies []float64, frameLen, start, minLen, maxLen, window int, soft float64) (int, string) {
	limit := start + maxLen
	lower := max(limit-window, start+minLen, start+1)
	best := -1
	for f := lower / frameLen; f < len(energies); f++ {
		centre := f*frameLen + frameLen/2
		if centre < lower {
			continue
		}
		if centre > limit {
			break
		}
		if best < 0 || energies[f] <= energies[best] {
			best = f
		}
	}
	if best >= 0 && energies[best] < soft {
		return best*frameLen + frameLen/2, CutWindow
	}
	return limit, CutHard
}
