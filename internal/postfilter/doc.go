// Package postfilter removes recognizer hallucinations from a merged
// transcript.
//
// Whisper-family models invent stock phrases ("Thank you.", "Thanks for
// watching") and music notation over silence and credits. Filter drops such
// segments when they are isolated by long pauses, when the same phrase
// repeats with wide gaps, or when they fall in the trailing minutes of long
// recordings. Every removal is returned so callers can log and report it.
package postfilter
