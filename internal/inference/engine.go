package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"murmur/internal/audio"
	"murmur/internal/logging"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

// Options configures an Engine.
type Options struct {
	// WorkDir receives per-chunk WAV files; it is created on demand.
	WorkDir    string
	SampleRate int
	Model      string
	Language   string
	BeamSize   int
	Logger     *slog.Logger
}

// Engine is the explicit lifecycle object around a Backend.
type Engine struct {
	backend Backend
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	loaded  bool
	loadErr error
	closed  bool
}

// ErrClosed is returned by Transcribe after Close.
var ErrClosed = errors.New("inference engine closed")

// New wraps backend. Nothing is loaded until Load or the first Transcribe.
func New(backend Backend, opts Options) *Engine {
	return &Engine{
		backend: backend,
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "inference"),
	}
}

// Identity reports the backend and decoding parameters.
func (e *Engine) Identity() Identity {
	return Identity{
		Backend:  e.backend.Name(),
		Model:    e.opts.Model,
		Language: e.opts.Language,
		BeamSize: e.opts.BeamSize,
	}
}

// Load initializes the backend once. A failed load is remembered and returned
// to every later caller.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return services.Wrap(services.ErrInference, services.StageInference, "load", "", ErrClosed)
	}
	if e.loaded {
		return e.loadErr
	}
	started := time.Now()
	err := e.backend.Load(ctx)
	if err != nil && ctx.Err() != nil {
		// cancellation is not a model failure; allow a later retry
		return ctx.Err()
	}
	e.loaded = true
	if err != nil {
		e.loadErr = services.Wrap(services.ErrInference, services.StageInference, "load",
			fmt.Sprintf("%s backend failed to load model %q", e.backend.Name(), e.opts.Model), err)
		return e.loadErr
	}
	e.logger.Info("model loaded",
		logging.String("backend", e.backend.Name()),
		logging.String("model", e.opts.Model),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// Transcribe runs inference on one chunk and returns chunk-relative segments
// tagged with index. It loads the backend on first use.
func (e *Engine) Transcribe(ctx context.Context, index int, samples []float32) ([]transcript.Segment, error) {
	if err := e.Load(ctx); err != nil {
		return nil, err
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	operation := "chunk " + strconv.Itoa(index)
	if closed {
		return nil, services.Wrap(services.ErrInference, services.StageInference, operation, "", ErrClosed)
	}
	if len(samples) == 0 {
		return nil, services.Wrap(services.ErrInference, services.StageInference, operation, "malformed chunk", errors.New("no samples"))
	}

	duration := float64(len(samples)) / float64(e.opts.SampleRate)
	path, err := e.writeChunk(index, samples)
	if err != nil {
		return nil, services.Wrap(services.ErrInference, services.StageInference, operation, "write chunk audio", err)
	}
	defer os.Remove(path)

	started := time.Now()
	raw, err := e.backend.Transcribe(ctx, BackendRequest{
		Chunk:     index,
		AudioPath: path,
		Duration:  duration,
		Language:  e.opts.Language,
		BeamSize:  e.opts.BeamSize,
	})
	if err != nil {
		message := "backend failed"
		if errors.Is(err, context.DeadlineExceeded) {
			message = "timed out"
		}
		return nil, services.Wrap(services.ErrInference, services.StageInference, operation, message, err)
	}
	segments := Normalize(raw, duration, index)
	logging.WithContext(ctx, e.logger).Debug("chunk transcribed",
		logging.Int("segments", len(segments)),
		logging.Int("raw_segments", len(raw)),
		logging.Float64("chunk_seconds", duration),
		logging.Duration("elapsed", time.Since(started)),
	)
	return segments, nil
}

// Close releases the backend. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.backend.Close(); err != nil {
		return fmt.Errorf("close %s backend: %w", e.backend.Name(), err)
	}
	return nil
}

func (e *Engine) writeChunk(index int, samples []float32) (string, error) {
	dir := e.opts.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure work dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("chunk-%05d.wav", index))
	if err := audio.WriteWAV(path, samples, e.opts.SampleRate); err != nil {
		return "", err
	}
	return path, nil
}
