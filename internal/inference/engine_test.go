package inference

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"murmur/internal/services"
)

type fakeBackend struct {
	mu       sync.Mutex
	loads    int
	closes   int
	loadErr  error
	segments []RawSegment
	err      error
	requests []BackendRequest
	fileSeen bool
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Load(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.loadErr
}

func (f *fakeBackend) Transcribe(_ context.Context, req BackendRequest) ([]RawSegment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if _, err := os.Stat(req.AudioPath); err == nil {
		f.fileSeen = true
	}
	return f.segments, f.err
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func newTestEngine(t *testing.T, backend Backend) *Engine {
	t.Helper()
	return New(backend, Options{WorkDir: t.TempDir(), SampleRate: 100, Model: "base", BeamSize: 5})
}

func TestEngineLoadsOnceAndWritesChunk(t *testing.T) {
	backend := &fakeBackend{segments: []RawSegment{{Text: " hello  world ", Start: 0.1, End: 0.8, Confidence: 0.9}}}
	engine := newTestEngine(t, backend)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			segs, err := engine.Transcribe(context.Background(), i, make([]float32, 100))
			if err != nil {
				t.Errorf("Transcribe %d: %v", i, err)
				return
			}
			if len(segs) != 1 || segs[0].Text != "hello world" || segs[0].Chunk != i {
				t.Errorf("chunk %d segments = %+v", i, segs)
			}
		}(i)
	}
	wg.Wait()

	if backend.loads != 1 {
		t.Fatalf("Load called %d times, want 1", backend.loads)
	}
	if !backend.fileSeen {
		t.Fatal("backend did not see the chunk WAV file")
	}
	for _, req := range backend.requests {
		if req.Duration != 1 || req.BeamSize != 5 {
			t.Fatalf("unexpected request %+v", req)
		}
		if _, err := os.Stat(req.AudioPath); !os.IsNotExist(err) {
			t.Fatalf("chunk file %s not removed", req.AudioPath)
		}
	}
}

func TestEngineLoadFailureIsRemembered(t *testing.T) {
	backend := &fakeBackend{loadErr: errors.New("no such model")}
	engine := newTestEngine(t, backend)

	for i := 0; i < 2; i++ {
		_, err := engine.Transcribe(context.Background(), i, make([]float32, 10))
		if !errors.Is(err, services.ErrInference) {
			t.Fatalf("expected inference error, got %v", err)
		}
	}
	if backend.loads != 1 {
		t.Fatalf("Load called %d times", backend.loads)
	}
}

func TestEngineWrapsBackendErrors(t *testing.T) {
	cause := errors.New("CUDA out of memory")
	engine := newTestEngine(t, &fakeBackend{err: cause})
	_, err := engine.Transcribe(context.Background(), 3, make([]float32, 10))
	if !errors.Is(err, services.ErrInference) || !errors.Is(err, cause) {
		t.Fatalf("unexpected error %v", err)
	}
	if services.FailedStage(err) != services.StageInference {
		t.Fatalf("stage = %q", services.FailedStage(err))
	}
}

func TestEngineRejectsEmptyChunk(t *testing.T) {
	engine := newTestEngine(t, &fakeBackend{})
	if _, err := engine.Transcribe(context.Background(), 0, nil); !errors.Is(err, services.ErrInference) {
		t.Fatalf("expected inference error, got %v", err)
	}
}

func TestEngineCloseIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	engine := newTestEngine(t, backend)
	if err := engine.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if backend.closes != 1 {
		t.Fatalf("backend closed %d times", backend.closes)
	}
	if _, err := engine.Transcribe(context.Background(), 0, make([]float32, 10)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestIdentityString(t *testing.T) {
	engine := newTestEngine(t, &fakeBackend{})
	if got := engine.Identity().String(); got != "fake/base/auto/beam5" {
		t.Fatalf("Identity = %q", got)
	}
}
