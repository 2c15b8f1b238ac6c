package merge

import (
	"strconv"

	"murmur/internal/logging"
	"murmur/internal/segment"
	"murmur/internal/textutil"
	"murmur/internal/transcript"
)

// dedupeSeam removes text heard in both prev and next. Candidates from the
// previous chunk lie entirely inside the overlap region; candidates from the
// next chunk start inside it. Each next-chunk segment is matched at most
// once. The surviving copy is the more confident one, the earlier chunk's on
// a tie, except that a copy containing the other's words always wins.
func (m *Merger) dedupeSeam(prev, next segment.Chunk, incoming []transcript.Segment) []transcript.Segment {
	regionStart := next.StartSeconds() - m.tolerance
	regionEnd := prev.EndSeconds() + m.tolerance

	used := make([]bool, len(incoming))
	dropIncoming := make([]bool, len(incoming))
	keptTail := m.tail[:0:0]

	for _, p := range m.tail {
		if p.Start < regionStart || p.End > regionEnd {
			keptTail = append(keptTail, p)
			continue
		}
		dropPrev := false
		for j, n := range incoming {
			if n.Start >= regionEnd {
				break
			}
			if used[j] {
				continue
			}
			match := textutil.Compare(p.Text, n.Text)
			if match.Kind == textutil.MatchNone {
				continue
			}
			used[j] = true
			keepNext := preferNext(match.Kind, p, n)
			if keepNext {
				dropPrev = true
			} else {
				dropIncoming[j] = true
			}
			m.stats.Duplicates++
			winner := p
			if keepNext {
				winner = n
			}
			m.logger.Debug("seam duplicate resolved",
				logging.Args(append(logging.DecisionAttrs("seam_duplicate", "kept chunk "+strconv.Itoa(winner.Chunk), match.Kind.String()),
					logging.String("text", winner.Text),
					logging.Float64("prev_confidence", p.Confidence),
					logging.Float64("next_confidence", n.Confidence),
					logging.Int(logging.FieldChunkIndex, next.Index),
				)...)...)
			break
		}
		if !dropPrev {
			keptTail = append(keptTail, p)
		}
	}

	m.tail = keptTail
	out := incoming[:0:0]
	for j, n := range incoming {
		if !dropIncoming[j] {
			out = append(out, n)
		}
	}
	return out
}

// preferNext decides which copy of a duplicate survives.
func preferNext(kind textutil.MatchKind, prev, next transcript.Segment) bool {
	switch kind {
	case textutil.MatchAContainsB:
		return false
	case textutil.MatchBContainsA:
		return true
	default:
		return next.Confidence > prev.Confidence
	}
}
