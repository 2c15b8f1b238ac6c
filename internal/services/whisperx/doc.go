// Package whisperx runs WhisperX through uvx as an inference backend.
//
// Each chunk is one uvx invocation writing WhisperX JSON into a scratch
// directory next to the chunk audio; segments are read back from that JSON.
// There is no resident model, so Load only verifies that uvx is runnable.
// Tests substitute the command runner.
package whisperx
