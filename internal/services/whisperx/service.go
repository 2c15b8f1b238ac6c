package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"murmur/internal/inference"
	"murmur/internal/language"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service is the WhisperX backend.
type Service struct {
	cfg           Config
	commandRunner CommandRunner
	lookPath      func(string) (string, error)
}

// NewService creates a WhisperX backend with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.UVXBinary) == "" {
		cfg.UVXBinary = UVXCommand
	}
	return &Service{cfg: cfg, lookPath: exec.LookPath}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
	s.lookPath = func(name string) (string, error) { return name, nil }
}

// Name implements inference.Backend.
func (s *Service) Name() string {
	return "whisperx"
}

// Model returns the configured model name.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Load verifies uvx is available. WhisperX loads its model per invocation.
func (s *Service) Load(ctx context.Context) error {
	if _, err := s.lookPath(s.cfg.UVXBinary); err != nil {
		return fmt.Errorf("whisperx: %s not found: %w", s.cfg.UVXBinary, err)
	}
	if s.cfg.VADMethod == VADMethodPyannote && strings.TrimSpace(s.cfg.HFToken) == "" {
		return errors.New("whisperx: pyannote VAD requires inference.hf_token")
	}
	return ctx.Err()
}

// Close implements inference.Backend; there is nothing to release.
func (s *Service) Close() error {
	return nil
}

// Transcribe runs WhisperX on one chunk file.
func (s *Service) Transcribe(ctx context.Context, req inference.BackendRequest) ([]inference.RawSegment, error) {
	if req.AudioPath == "" {
		return nil, errors.New("whisperx: audio path required")
	}
	outputDir := filepath.Join(filepath.Dir(req.AudioPath), "whisperx-"+strconv.Itoa(req.Chunk))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("whisperx: ensure output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	if err := s.run(ctx, s.cfg.UVXBinary, s.buildArgs(req, outputDir)...); err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(req.AudioPath), filepath.Ext(req.AudioPath))
	segments, err := LoadSegments(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}
	out := make([]inference.RawSegment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, inference.RawSegment{
			Text:       seg.Text,
			Start:      seg.Start,
			End:        seg.End,
			Confidence: seg.Confidence(),
		})
	}
	return out, nil
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (s *Service) cuda() bool {
	switch strings.ToLower(s.cfg.Device) {
	case CUDADevice:
		return true
	case CPUDevice:
		return false
	default:
		return s.cfg.CUDAEnabled
	}
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(req inference.BackendRequest, outputDir string) []string {
	args := make([]string, 0, 40)
	if s.cuda() {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	beam := req.BeamSize
	if beam <= 0 {
		beam = DefaultBeamSize
	}
	args = append(args,
		"whisperx",
		req.AudioPath,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", strconv.Itoa(beam),
		"--best_of", strconv.Itoa(beam),
		"--temperature", Temperature,
		"--patience", Patience,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := language.ToISO2(req.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cuda() {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}

// Word is a single aligned word from WhisperX output.
type Word struct {
	Word  string   `json:"word"`
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Score *float64 `json:"score"`
}

// Segment is a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// Confidence averages the word alignment scores. Segments without scored
// words report 1.
func (s Segment) Confidence() float64 {
	var sum float64
	var n int
	for _, w := range s.Words {
		if w.Score != nil {
			sum += *w.Score
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}
