package merge

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"murmur/internal/logging"
	"murmur/internal/segment"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

// DefaultTolerance widens the overlap region when looking for duplicates.
const DefaultTolerance = 0.25

// Options configures a Merger.
type Options struct {
	// Tolerance in seconds; zero uses DefaultTolerance.
	Tolerance float64
	Logger    *slog.Logger
}

// Stats counts what the merger changed.
type Stats struct {
	Duplicates int `json:"duplicates_removed"`
	Joined     int `json:"segments_joined"`
	Trimmed    int `json:"segments_trimmed"`
}

// Merger accumulates chunk results in order. It is not safe for concurrent
// use.
type Merger struct {
	tolerance float64
	logger    *slog.Logger

	committed []transcript.Segment
	// tail holds the latest chunk's segments until the next seam is resolved.
	tail      []transcript.Segment
	tailChunk *segment.Chunk
	gaps      []transcript.Gap
	next      int
	duration  float64
	stats     Stats
}

// New returns an empty Merger.
func New(opts Options) *Merger {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Merger{
		tolerance: tol,
		logger:    logging.NewComponentLogger(opts.Logger, "merge"),
	}
}

// Add merges chunk-relative segments produced for chunk.
func (m *Merger) Add(chunk segment.Chunk, segments []transcript.Segment) error {
	if err := m.expect(chunk); err != nil {
		return err
	}
	incoming := resolveOverlaps(m.translate(chunk, segments), &m.stats)

	if m.tailChunk != nil {
		incoming = m.dedupeSeam(*m.tailChunk, chunk, incoming)
	}
	combined := resolveOverlaps(append(m.tail, incoming...), &m.stats)

	// Everything from the first segment of this chunk onward stays open for
	// the next seam; splitting by position keeps committed+tail ordered.
	split := len(combined)
	for i, seg := range combined {
		if seg.Chunk == chunk.Index {
			split = i
			break
		}
	}
	m.committed = append(m.committed, combined[:split]...)
	m.tail = append(m.tail[:0:0], combined[split:]...)
	c := chunk
	m.tailChunk = &c
	return nil
}

// AddGap records that chunk produced no result. The next chunk is not
// compared against it.
func (m *Merger) AddGap(chunk segment.Chunk, reason string) error {
	if err := m.expect(chunk); err != nil {
		return err
	}
	m.committed = append(m.committed, m.tail...)
	m.tail = nil
	m.tailChunk = nil
	m.gaps = append(m.gaps, transcript.Gap{
		Chunk:  chunk.Index,
		Start:  chunk.CutStartSeconds(),
		End:    chunk.CutEndSeconds(),
		Reason: reason,
	})
	return nil
}

// Stats reports merge activity so far.
func (m *Merger) Stats() Stats {
	return m.stats
}

// Transcript returns the merged result after checking its invariant.
func (m *Merger) Transcript() (transcript.Transcript, error) {
	segments := make([]transcript.Segment, 0, len(m.committed)+len(m.tail))
	segments = append(segments, m.committed...)
	segments = append(segments, m.tail...)
	if err := transcript.Validate(segments); err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrMergeInvariant, services.StageMerge, "validate", "merged transcript out of order", err)
	}
	return transcript.Transcript{
		Segments: segments,
		Gaps:     append([]transcript.Gap(nil), m.gaps...),
		Duration: m.duration,
	}, nil
}

func (m *Merger) expect(chunk segment.Chunk) error {
	if chunk.Index != m.next {
		return services.Wrap(services.ErrMergeInvariant, services.StageMerge, "add",
			fmt.Sprintf("chunk %d added out of order; expected %d", chunk.Index, m.next), nil)
	}
	if chunk.SampleRate <= 0 || chunk.End < chunk.Start {
		return services.Wrap(services.ErrMergeInvariant, services.StageMerge, "add",
			fmt.Sprintf("chunk %d has invalid bounds", chunk.Index), nil)
	}
	m.next++
	m.duration = math.Max(m.duration, chunk.EndSeconds())
	return nil
}

// translate converts chunk-relative times to file-global ones, clipped to the
// chunk's range.
func (m *Merger) translate(chunk segment.Chunk, segments []transcript.Segment) []transcript.Segment {
	offset := chunk.StartSeconds()
	limit := chunk.EndSeconds()
	out := make([]transcript.Segment, 0, len(segments))
	for _, seg := range segments {
		seg.Start = math.Min(math.Max(seg.Start+offset, offset), limit)
		seg.End = math.Min(math.Max(seg.End+offset, seg.Start), limit)
		seg.Chunk = chunk.Index
		out = append(out, seg)
	}
	return out
}

// resolveOverlaps orders segments by start, joins segments sharing a start
// time and clips each end to the following start.
func resolveOverlaps(segments []transcript.Segment, stats *Stats) []transcript.Segment {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	out := make([]transcript.Segment, 0, len(segments))
	for _, seg := range segments {
		if len(out) == 0 {
			out = append(out, seg)
			continue
		}
		last := &out[len(out)-1]
		if seg.Start <= last.Start {
			last.Text = last.Text + " " + seg.Text
			last.End = math.Max(last.End, seg.End)
			last.Confidence = math.Min(last.Confidence, seg.Confidence)
			stats.Joined++
			continue
		}
		if last.End > seg.Start {
			last.End = seg.Start
			stats.Trimmed++
		}
		out = append(out, seg)
	}
	return out
}
