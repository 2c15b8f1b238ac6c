// Package pipeline runs one transcription end to end: decode, segment,
// inference on a bounded worker pool, ordered merge, post-filtering and
// rendering.
//
// Runner owns the stage sequence and the run report. Decoding and
// segmentation complete before any inference starts. Chunk results pass
// through an index-keyed reorder buffer so the merger always sees them in
// sequence order, whatever order the workers finish in. A chunk result cache
// lets repeated runs over the same audio skip the model.
package pipeline
