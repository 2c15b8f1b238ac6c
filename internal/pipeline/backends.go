package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"murmur/internal/config"
	"murmur/internal/inference"
	"murmur/internal/services"
	"murmur/internal/services/fasterwhisper"
	"murmur/internal/services/openai"
	"murmur/internal/services/whisperx"
)

// BackendFactory builds the inference backend for cfg and reports the model
// name the backend will use.
type BackendFactory func(cfg *config.Config, logger *slog.Logger) (inference.Backend, string, error)

// NewBackend is the default BackendFactory.
func NewBackend(cfg *config.Config, logger *slog.Logger) (inference.Backend, string, error) {
	inf := cfg.Inference
	switch strings.ToLower(strings.TrimSpace(inf.Backend)) {
	case config.BackendFasterWhisper:
		return fasterwhisper.NewService(fasterwhisper.Config{
			PythonBinary: inf.PythonBinary,
			Model:        inf.Model,
			Device:       inf.Device,
			Logger:       logger,
		}), inf.Model, nil
	case config.BackendWhisperX:
		return whisperx.NewService(whisperx.Config{
			Model:       inf.Model,
			Device:      inf.Device,
			CUDAEnabled: strings.EqualFold(inf.Device, "cuda"),
			HFToken:     inf.HFToken,
			UVXBinary:   inf.UVXBinary,
		}), inf.Model, nil
	case config.BackendOpenAI:
		return openai.New(openai.Config{
			BaseURL: inf.APIBaseURL,
			APIKey:  inf.APIKey,
			Model:   inf.APIModel,
			Timeout: time.Duration(inf.APITimeoutSeconds) * time.Second,
		}), inf.APIModel, nil
	default:
		return nil, "", services.Wrap(services.ErrConfiguration, services.StageInference, "backend",
			fmt.Sprintf("unknown inference backend %q", inf.Backend), nil)
	}
}
