// Package output renders a merged transcript into the artifacts a run writes:
// plain text, the indexed subtitle cue format, SubRip, WebVTT and JSON.
//
// Format selectors are parsed before any decoding so an unknown selector
// fails the run immediately. Render is pure; Write places the artifact at
// its default path atomically.
package output
