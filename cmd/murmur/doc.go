// Package main hosts the murmur CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and the console logger once,
// then hands off to internal/pipeline for transcription runs, internal/cache
// for cache maintenance and internal/preflight for dependency checks. The
// mcp subcommand exposes the same pipeline as tools over stdio.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is surfaced here through commands or flags.
package main
