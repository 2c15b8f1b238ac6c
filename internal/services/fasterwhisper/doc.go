// Package fasterwhisper runs faster-whisper in a resident Python worker.
//
// Load starts one worker process that loads the model and reports ready.
// Chunks are sent as JSON lines on the worker's stdin, each with a request
// id; a single reader goroutine dispatches responses from stdout to the
// waiting callers, so concurrent Transcribe calls share the loaded model.
// Close stops the worker. Tests replace the process with in-memory pipes.
package fasterwhisper
