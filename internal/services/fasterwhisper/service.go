package fasterwhisper

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"murmur/internal/inference"
	"murmur/internal/language"
	"murmur/internal/logging"
)

// DefaultPython is the interpreter used when Config.PythonBinary is empty.
const DefaultPython = "python3"

// Config selects the model and runtime for the worker.
type Config struct {
	PythonBinary string
	Model        string
	// Device is auto, cpu or cuda.
	Device      string
	ComputeType string
	Logger      *slog.Logger
}

// ErrWorkerExited is returned for requests outstanding when the worker dies.
var ErrWorkerExited = errors.New("faster-whisper worker exited")

// Service is the faster-whisper backend.
type Service struct {
	cfg    Config
	start  Starter
	logger *slog.Logger

	mu      sync.Mutex
	proc    Process
	pending map[int64]chan response
	done    chan struct{}
	exitErr error

	writeMu sync.Mutex
	nextID  atomic.Int64
}

// NewService builds the backend. The worker starts on Load.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.PythonBinary) == "" {
		cfg.PythonBinary = DefaultPython
	}
	return &Service{
		cfg:    cfg,
		start:  startPython,
		logger: logging.NewComponentLogger(cfg.Logger, "faster-whisper"),
	}
}

// WithStarter replaces the process starter (for testing).
func (s *Service) WithStarter(start Starter) {
	s.start = start
}

// Name implements inference.Backend.
func (s *Service) Name() string {
	return "faster-whisper"
}

// Load starts the worker and waits until it reports the model loaded.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.proc != nil {
		s.mu.Unlock()
		return nil
	}
	proc, err := s.start(ctx, s.cfg.PythonBinary, workerOptions{
		Model:       s.cfg.Model,
		Device:      s.cfg.Device,
		ComputeType: s.cfg.ComputeType,
	})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("faster-whisper: %w", err)
	}
	ready := make(chan response, 1)
	done := make(chan struct{})
	s.proc = proc
	s.pending = map[int64]chan response{0: ready}
	s.done = done
	s.exitErr = nil
	s.mu.Unlock()

	go s.readLoop(proc, done)

	select {
	case resp := <-ready:
		if resp.Error != "" {
			s.stop()
			return fmt.Errorf("faster-whisper: %s", resp.Error)
		}
		return nil
	case <-done:
		s.stop()
		return fmt.Errorf("faster-whisper: %w", s.exitCause())
	case <-ctx.Done():
		s.stop()
		return ctx.Err()
	}
}

// Transcribe sends one chunk to the worker and waits for its response.
func (s *Service) Transcribe(ctx context.Context, req inference.BackendRequest) ([]inference.RawSegment, error) {
	s.mu.Lock()
	proc, done := s.proc, s.done
	if proc == nil {
		s.mu.Unlock()
		return nil, errors.New("faster-whisper: worker not loaded")
	}
	id := s.nextID.Add(1)
	reply := make(chan response, 1)
	s.pending[id] = reply
	s.mu.Unlock()

	line, err := json.Marshal(request{
		ID:       id,
		Path:     req.AudioPath,
		Language: language.ToISO2(req.Language),
		BeamSize: req.BeamSize,
	})
	if err != nil {
		s.forget(id)
		return nil, fmt.Errorf("faster-whisper: encode request: %w", err)
	}
	s.writeMu.Lock()
	_, err = proc.Stdin().Write(append(line, '\n'))
	s.writeMu.Unlock()
	if err != nil {
		s.forget(id)
		return nil, fmt.Errorf("faster-whisper: send request: %w", err)
	}

	select {
	case resp := <-reply:
		if resp.Error != "" {
			return nil, fmt.Errorf("faster-whisper: %s", resp.Error)
		}
		out := make([]inference.RawSegment, 0, len(resp.Segments))
		for _, seg := range resp.Segments {
			out = append(out, inference.RawSegment{
				Text:       seg.Text,
				Start:      seg.Start,
				End:        seg.End,
				Confidence: seg.confidence(),
			})
		}
		return out, nil
	case <-done:
		return nil, fmt.Errorf("faster-whisper: %w", s.exitCause())
	case <-ctx.Done():
		s.forget(id)
		return nil, ctx.Err()
	}
}

// Close stops the worker. Calling Close on a stopped service is a no-op.
func (s *Service) Close() error {
	return s.stop()
}

func (s *Service) stop() error {
	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.Stop()
}

func (s *Service) forget(id int64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *Service) exitCause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exitErr != nil {
		return s.exitErr
	}
	return ErrWorkerExited
}

// readLoop dispatches worker responses by id until stdout closes.
func (s *Service) readLoop(proc Process, done chan struct{}) {
	scanner := bufio.NewScanner(proc.Stdout())
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var resp response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			s.logger.Debug("ignoring non-protocol worker output", logging.String("line", scanner.Text()))
			continue
		}
		s.mu.Lock()
		reply, ok := s.pending[resp.ID]
		delete(s.pending, resp.ID)
		s.mu.Unlock()
		if !ok {
			if resp.Error != "" {
				logging.WarnWithContext(s.logger, "worker reported unmatched error", "worker_error",
					logging.String(logging.FieldErrorHint, resp.Error))
			}
			continue
		}
		reply <- resp
	}

	cause := ErrWorkerExited
	if err := scanner.Err(); err != nil {
		cause = fmt.Errorf("%w: %v", ErrWorkerExited, err)
	}
	if diag, ok := proc.(interface{ Stderr() string }); ok {
		if tail := strings.TrimSpace(diag.Stderr()); tail != "" {
			cause = fmt.Errorf("%w: %s", cause, lastLine(tail))
		}
	}
	s.mu.Lock()
	s.exitErr = cause
	if s.done == done {
		s.pending = map[int64]chan response{}
	}
	close(done)
	s.mu.Unlock()
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
