package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"murmur/internal/config"
	"murmur/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory and backend checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Cache.Enabled && strings.TrimSpace(cfg.Cache.Path) != "" {
		results = append(results, CheckDirectoryAccess("Cache directory", filepath.Dir(cfg.Cache.Path)))
	}
	if dir := strings.TrimSpace(cfg.Output.Dir); dir != "" {
		results = append(results, CheckDirectoryAccess("Output directory", dir))
	}

	switch cfg.Inference.Backend {
	case config.BackendOpenAI:
		results = append(results, CheckTranscriptionAPI(ctx, cfg.Inference.APIBaseURL, cfg.Inference.APIKey))
	case config.BackendWhisperX:
		results = append(results, checkWhisperXToken(cfg))
	}
	return results
}

// CheckSystemDeps evaluates the programs the configured decoder and backend
// execute.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	nativeOnly := strings.EqualFold(cfg.Audio.Decoder, "native")
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Decodes non-WAV media",
			Optional:    nativeOnly,
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Audio.FFprobeBinary,
			Description: "Inspects audio streams before decoding",
			Optional:    true,
			VersionArgs: []string{"-version"},
		},
	}
	switch cfg.Inference.Backend {
	case config.BackendFasterWhisper:
		requirements = append(requirements, deps.Requirement{
			Name:        "Python",
			Command:     cfg.Inference.PythonBinary,
			Description: "Runs the faster-whisper worker",
			VersionArgs: []string{"--version"},
		})
	case config.BackendWhisperX:
		requirements = append(requirements, deps.Requirement{
			Name:        "uvx",
			Command:     cfg.Inference.UVXBinary,
			Description: "Runs WhisperX transcription",
			VersionArgs: []string{"--version"},
		})
	}
	statuses := deps.CheckBinaries(ctx, requirements)
	if cfg.Inference.Backend == config.BackendFasterWhisper {
		statuses = append(statuses, deps.CheckPythonModule(ctx, cfg.Inference.PythonBinary, "faster_whisper",
			"Speech recognition models for the faster-whisper backend"))
	}
	return statuses
}

func checkWhisperXToken(cfg *config.Config) Result {
	const name = "Hugging Face token"
	if strings.TrimSpace(cfg.Inference.HFToken) == "" {
		return Result{Name: name, Passed: true, Detail: "not set (silero VAD only)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}
