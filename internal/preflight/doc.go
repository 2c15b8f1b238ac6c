// Package preflight provides readiness checks for the external programs,
// services and filesystem paths murmur depends on.
//
// The CLI "murmur doctor" command renders every check. Checks are gated by
// configuration: only the selected inference backend is probed, and ffmpeg
// is optional when the native WAV decoder is forced.
package preflight
