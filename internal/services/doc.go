// Package services defines shared utilities consumed by the pipeline stages
// and the inference backends.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and chunk indices for
//     logging.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     stage that produced them, so the CLI can report which stage failed and
//     choose an exit status.
//
// Backends live in subpackages (whisperx, fasterwhisper, openai) and satisfy
// the inference.Backend contract.
package services
