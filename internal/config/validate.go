package config

import (
	"errors"
	"fmt"
	"strings"

	"murmur/internal/output"
)

// SupportedModels lists the Whisper model names accepted by the local backends.
var SupportedModels = []string{
	"tiny", "tiny.en", "base", "base.en", "small", "small.en",
	"medium", "medium.en", "large", "large-v1", "large-v2", "large-v3",
	"large-v3-turbo", "turbo", "distil-small.en", "distil-medium.en",
	"distil-large-v2", "distil-large-v3",
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSegmenter(); err != nil {
		return err
	}
	if err := c.validateInference(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 48000 {
		return fmt.Errorf("audio.sample_rate must be between 8000 and 48000, got %d", c.Audio.SampleRate)
	}
	switch c.Audio.Decoder {
	case "auto", "ffmpeg", "native":
	default:
		return fmt.Errorf("audio.decoder must be auto, ffmpeg, or native, got %q", c.Audio.Decoder)
	}
	return nil
}

func (c *Config) validateSegmenter() error {
	s := c.Segmenter
	if s.ChunkMaxDuration <= 0 {
		return errors.New("segmenter.chunk_max_duration must be positive")
	}
	if s.ChunkMinDuration < 0 {
		return errors.New("segmenter.chunk_min_duration must be >= 0")
	}
	if s.ChunkMinDuration > s.ChunkMaxDuration {
		return errors.New("segmenter.chunk_min_duration must not exceed segmenter.chunk_max_duration")
	}
	if s.SilenceThresholdDB >= 0 {
		return errors.New("segmenter.silence_threshold_db must be negative (dBFS)")
	}
	if s.ChunkOverlapSeconds < 0 {
		return errors.New("segmenter.chunk_overlap_seconds must be >= 0")
	}
	if s.ChunkOverlapSeconds >= s.ChunkMaxDuration/2 {
		return errors.New("segmenter.chunk_overlap_seconds must be less than half of segmenter.chunk_max_duration")
	}
	if s.ChunkMinDuration < s.ChunkOverlapSeconds {
		return errors.New("segmenter.chunk_min_duration must be at least segmenter.chunk_overlap_seconds")
	}
	if s.FrameMillis < 5 || s.FrameMillis > 500 {
		return errors.New("segmenter.frame_ms must be between 5 and 500")
	}
	if s.MinSilenceMillis < 0 {
		return errors.New("segmenter.min_silence_ms must be >= 0")
	}
	if s.SearchWindowSeconds < 0 || s.SearchWindowSeconds > s.ChunkMaxDuration {
		return errors.New("segmenter.search_window_seconds must be between 0 and segmenter.chunk_max_duration")
	}
	return nil
}

func (c *Config) validateInference() error {
	switch c.Inference.Backend {
	case BackendFasterWhisper, BackendWhisperX:
		if !IsSupportedModel(c.Inference.Model) {
			return fmt.Errorf("inference.model %q is not supported; choose one of %s", c.Inference.Model, strings.Join(SupportedModels, ", "))
		}
	case BackendOpenAI:
		if strings.TrimSpace(c.Inference.APIKey) == "" && strings.Contains(c.Inference.APIBaseURL, "api.openai.com") {
			return errors.New("inference.api_key is required for the openai backend (set OPENAI_API_KEY or edit the config)")
		}
	default:
		return fmt.Errorf("inference.backend must be faster-whisper, whisperx, or openai, got %q", c.Inference.Backend)
	}
	switch c.Inference.Device {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("inference.device must be auto, cpu, or cuda, got %q", c.Inference.Device)
	}
	if c.Inference.BeamSize < 1 {
		return errors.New("inference.beam_size must be >= 1")
	}
	if c.Inference.Concurrency < 1 {
		return errors.New("inference.concurrency must be >= 1")
	}
	if c.Inference.ChunkTimeoutSeconds < 0 {
		return errors.New("inference.chunk_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateOutput() error {
	// Same parser as --format, so aliases and comma lists behave alike.
	if _, err := output.ParseFormats(c.Output.Formats); err != nil {
		return fmt.Errorf("output.formats: %w", err)
	}
	if c.Output.LowConfidence < 0 || c.Output.LowConfidence > 1 {
		return errors.New("output.low_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// IsSupportedModel reports whether name is a known Whisper model.
func IsSupportedModel(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, m := range SupportedModels {
		if m == name {
			return true
		}
	}
	return false
}
