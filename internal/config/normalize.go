package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeInference()
	c.normalizeOutput()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.Decoder = strings.ToLower(strings.TrimSpace(c.Audio.Decoder))
	if c.Audio.Decoder == "" {
		c.Audio.Decoder = defaultDecoder
	}
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeInference() {
	c.Inference.Backend = strings.ToLower(strings.TrimSpace(c.Inference.Backend))
	if c.Inference.Backend == "" {
		c.Inference.Backend = defaultBackend
	}
	c.Inference.Model = strings.ToLower(strings.TrimSpace(c.Inference.Model))
	if c.Inference.Model == "" {
		c.Inference.Model = defaultModel
	}
	c.Inference.Language = strings.ToLower(strings.TrimSpace(c.Inference.Language))
	c.Inference.Device = strings.ToLower(strings.TrimSpace(c.Inference.Device))
	if c.Inference.Device == "" {
		c.Inference.Device = defaultDevice
	}
	if c.Inference.PythonBinary = strings.TrimSpace(c.Inference.PythonBinary); c.Inference.PythonBinary == "" {
		c.Inference.PythonBinary = defaultPythonBinary
	}
	if c.Inference.UVXBinary = strings.TrimSpace(c.Inference.UVXBinary); c.Inference.UVXBinary == "" {
		c.Inference.UVXBinary = defaultUVXBinary
	}
	if c.Inference.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Inference.HFToken = strings.TrimSpace(value)
		}
	}
	if c.Inference.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Inference.APIKey = strings.TrimSpace(value)
		}
	}
	c.Inference.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Inference.APIBaseURL), "/")
	if c.Inference.APIBaseURL == "" {
		c.Inference.APIBaseURL = defaultAPIBaseURL
	}
	if c.Inference.APIModel = strings.TrimSpace(c.Inference.APIModel); c.Inference.APIModel == "" {
		c.Inference.APIModel = defaultAPIModel
	}
	if c.Inference.APITimeoutSeconds <= 0 {
		c.Inference.APITimeoutSeconds = defaultAPITimeoutSeconds
	}
}

func (c *Config) normalizeOutput() {
	formats := make([]string, 0, len(c.Output.Formats))
	seen := make(map[string]struct{}, len(c.Output.Formats))
	for _, f := range c.Output.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		formats = []string{"text"}
	}
	c.Output.Formats = formats
	if strings.TrimSpace(c.Output.Dir) != "" {
		if expanded, err := expandPath(c.Output.Dir); err == nil {
			c.Output.Dir = expanded
		}
	}
}

func (c *Config) normalizeCache() error {
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath()
	}
	var err error
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
