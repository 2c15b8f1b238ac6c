package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working and log directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
}

// Audio contains decoding configuration.
type Audio struct {
	SampleRate    int    `toml:"sample_rate"`
	Decoder       string `toml:"decoder"` // auto, ffmpeg, or native
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Segmenter contains chunking configuration. Durations are in seconds.
type Segmenter struct {
	ChunkMaxDuration    float64 `toml:"chunk_max_duration"`
	ChunkMinDuration    float64 `toml:"chunk_min_duration"`
	SilenceThresholdDB  float64 `toml:"silence_threshold_db"`
	ChunkOverlapSeconds float64 `toml:"chunk_overlap_seconds"`
	FrameMillis         int     `toml:"frame_ms"`
	MinSilenceMillis    int     `toml:"min_silence_ms"`
	SearchWindowSeconds float64 `toml:"search_window_seconds"`
}

// Inference contains model and backend configuration.
type Inference struct {
	Backend             string `toml:"backend"`
	Model               string `toml:"model"`
	Language            string `toml:"language"`
	BeamSize            int    `toml:"beam_size"`
	Device              string `toml:"device"`
	Concurrency         int    `toml:"concurrency"`
	ChunkTimeoutSeconds int    `toml:"chunk_timeout_seconds"`
	PartialOutput       bool   `toml:"partial_output"`
	PythonBinary        string `toml:"python_binary"`
	UVXBinary           string `toml:"uvx_binary"`
	HFToken             string `toml:"hf_token"`
	APIBaseURL          string `toml:"api_base_url"`
	APIKey              string `toml:"api_key"`
	APIModel            string `toml:"api_model"`
	APITimeoutSeconds   int    `toml:"api_timeout_seconds"`
}

// Output contains rendering configuration.
type Output struct {
	Formats              []string `toml:"formats"`
	Dir                  string   `toml:"dir"`
	FilterHallucinations bool     `toml:"filter_hallucinations"`
	LowConfidence        float64  `toml:"low_confidence"`
}

// Cache contains configuration for the chunk result cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RunLogs       bool   `toml:"run_logs"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for murmur.
//
// Configuration sections by subsystem:
//   - Paths: scratch and log directories
//   - Audio: decoder selection and target sample rate
//   - Segmenter: silence detection and chunk bounds
//   - Inference: backend, model and worker pool settings
//   - Output: formats, destination and post-filtering
//   - Cache: per-chunk result cache
//   - Logging: log format, level, run logs and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Audio     Audio     `toml:"audio"`
	Segmenter Segmenter `toml:"segmenter"`
	Inference Inference `toml:"inference"`
	Output    Output    `toml:"output"`
	Cache     Cache     `toml:"cache"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("murmur.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch, log and cache directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Cache.Path), 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", filepath.Dir(c.Cache.Path), err)
		}
	}
	return nil
}

// ChunkTimeout returns the per-chunk inference timeout in seconds; zero means none.
func (c *Config) ChunkTimeout() int {
	if c.Inference.ChunkTimeoutSeconds < 0 {
		return 0
	}
	return c.Inference.ChunkTimeoutSeconds
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "murmur", "chunks.db")
	}
	return "~/.cache/murmur/chunks.db"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
