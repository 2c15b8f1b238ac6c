// Package cache persists per-chunk inference results in SQLite so repeated
// runs over the same audio skip the model.
//
// Entries are keyed by a SHA-256 digest of the chunk's samples together with
// the engine identity (backend, model, language, beam size). Inference is
// deterministic for a given identity, so a hit returns exactly what the model
// would produce. Segments are stored chunk-relative, as the engine emits
// them.
package cache
