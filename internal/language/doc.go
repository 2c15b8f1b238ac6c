// Package language maps language codes between ISO 639-1, ISO 639-2, IETF
// tags and display names.
//
// Audio track selection compares container tags with the requested
// transcription language, and inference backends pass ISO 639-1 codes to
// Whisper. Both go through this package.
package language
