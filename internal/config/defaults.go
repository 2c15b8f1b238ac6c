package config

const (
	defaultConfigPath          = "~/.config/murmur/config.toml"
	defaultWorkDir             = "~/.local/share/murmur/work"
	defaultLogDir              = "~/.local/share/murmur/logs"
	defaultLogRetentionDays    = 14
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultSampleRate          = 16000
	defaultDecoder             = "auto"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultChunkMaxDuration    = 30.0
	defaultChunkMinDuration    = 5.0
	defaultSilenceThresholdDB  = -40.0
	defaultChunkOverlapSeconds = 0.3
	defaultFrameMillis         = 20
	defaultMinSilenceMillis    = 200
	defaultSearchWindowSeconds = 5.0
	defaultBackend             = BackendFasterWhisper
	defaultModel               = "base"
	defaultBeamSize            = 5
	defaultDevice              = "auto"
	defaultConcurrency         = 1
	defaultPythonBinary        = "python3"
	defaultUVXBinary           = "uvx"
	defaultAPIBaseURL          = "https://api.openai.com/v1"
	defaultAPIModel            = "whisper-1"
	defaultAPITimeoutSeconds   = 120
	defaultLowConfidence       = 0.35
)

// Supported inference backends.
const (
	BackendFasterWhisper = "faster-whisper"
	BackendWhisperX      = "whisperx"
	BackendOpenAI        = "openai"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Audio: Audio{
			SampleRate:    defaultSampleRate,
			Decoder:       defaultDecoder,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Segmenter: Segmenter{
			ChunkMaxDuration:    defaultChunkMaxDuration,
			ChunkMinDuration:    defaultChunkMinDuration,
			SilenceThresholdDB:  defaultSilenceThresholdDB,
			ChunkOverlapSeconds: defaultChunkOverlapSeconds,
			FrameMillis:         defaultFrameMillis,
			MinSilenceMillis:    defaultMinSilenceMillis,
			SearchWindowSeconds: defaultSearchWindowSeconds,
		},
		Inference: Inference{
			Backend:           defaultBackend,
			Model:             defaultModel,
			BeamSize:          defaultBeamSize,
			Device:            defaultDevice,
			Concurrency:       defaultConcurrency,
			PythonBinary:      defaultPythonBinary,
			UVXBinary:         defaultUVXBinary,
			APIBaseURL:        defaultAPIBaseURL,
			APIModel:          defaultAPIModel,
			APITimeoutSeconds: defaultAPITimeoutSeconds,
		},
		Output: Output{
			Formats:              []string{"text"},
			FilterHallucinations: true,
			LowConfidence:        defaultLowConfidence,
		},
		Cache: Cache{
			Enabled: true,
			Path:    defaultCachePath(),
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RunLogs:       true,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
