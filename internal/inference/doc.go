// Package inference runs a speech-recognition backend over individual chunks.
//
// Engine owns the backend lifecycle: the model is loaded once, lazily on the
// first chunk or explicitly through Load, shared read-only by concurrent
// Transcribe calls, and released by Close. Each call writes the chunk to a
// temporary WAV file, hands it to the backend, and normalizes the result so
// downstream stages can rely on chunk-relative, monotonic timestamps and
// confidences in [0, 1].
//
// Backend implementations live under internal/services.
package inference
