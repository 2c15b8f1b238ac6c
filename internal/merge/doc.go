// Package merge builds the file-global transcript from per-chunk results.
//
// Chunks must be added in sequence order. Each chunk's segments are shifted
// by the chunk start, clipped to the chunk, and overlapping segments inside
// the chunk are resolved. At every seam the overlap region shared with the
// previous chunk is searched for text heard twice; one copy is dropped,
// keeping the higher-confidence version and, on a tie, the earlier chunk.
// Any remaining time overlap is trimmed. Transcript checks the ordering
// invariant and reports a violation as services.ErrMergeInvariant.
package merge
