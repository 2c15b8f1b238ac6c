// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The decoder uses it to fail fast on inputs without an audio stream and to
// pick which audio stream to transcribe from multi-track containers.
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns the parsed Result
//   - Parse: decodes previously captured ffprobe JSON
package ffprobe
