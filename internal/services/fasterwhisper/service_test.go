package fasterwhisper

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"murmur/internal/inference"
)

// pipeProcess is an in-memory worker wired to a fake protocol handler.
type pipeProcess struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stops   int
	mu      sync.Mutex
}

func newPipeProcess() *pipeProcess {
	p := &pipeProcess{}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	return p
}

func (p *pipeProcess) Stdin() io.WriteCloser { return p.stdinW }
func (p *pipeProcess) Stdout() io.Reader { return p.stdoutR }
func (p *pipeProcess) Stderr() string { return "Traceback\nRuntimeError: CUDA failed" }

func (p *pipeProcess) Stop() error {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
	_ = p.stdinW.Close()
	_ = p.stdoutW.Close()
	return nil
}

func (p *pipeProcess) send(t *testing.T, resp response) {
	t.Helper()
	data, _ := json.Marshal(resp)
	if _, err := p.stdoutW.Write(append(data, '\n')); err != nil {
		t.Errorf("worker write: %v", err)
	}
}

func (p *pipeProcess) requests() <-chan request {
	out := make(chan request)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(p.stdinR)
		for scanner.Scan() {
			var req request
			if err := json.Unmarshal(scanner.Bytes(), &req); err == nil {
				out <- req
			}
		}
	}()
	return out
}

func serviceWith(proc *pipeProcess, opts *workerOptions) *Service {
	svc := NewService(Config{Model: "base"})
	svc.WithStarter(func(_ context.Context, python string, o workerOptions) (Process, error) {
		if opts != nil {
			*opts = o
		}
		return proc, nil
	})
	return svc
}

func TestLoadWaitsForReady(t *testing.T) {
	proc := newPipeProcess()
	var opts workerOptions
	svc := serviceWith(proc, &opts)
	go proc.send(t, response{ID: 0, Ready: true})

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Model != "base" {
		t.Fatalf("worker model = %q", opts.Model)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if proc.stops != 1 {
		t.Fatalf("Stop called %d times", proc.stops)
	}
}

func TestLoadReportsModelError(t *testing.T) {
	proc := newPipeProcess()
	svc := serviceWith(proc, nil)
	go proc.send(t, response{ID: 0, Error: "load model: unknown size"})

	err := svc.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown size") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestTranscribeDispatchesOutOfOrderResponses(t *testing.T) {
	proc := newPipeProcess()
	svc := serviceWith(proc, nil)
	reqs := proc.requests()
	go func() {
		proc.send(t, response{ID: 0, Ready: true})
		first := <-reqs
		second := <-reqs
		for _, r := range []request{second, first} {
			proc.send(t, response{ID: r.ID, Segments: []segmentDTO{{Text: r.Path, Start: 0, End: 1, AvgLogprob: math.Log(0.5)}}})
		}
	}()
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer svc.Close()

	var wg sync.WaitGroup
	for _, path := range []string{"a.wav", "b.wav"} {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			segs, err := svc.Transcribe(context.Background(), inference.BackendRequest{AudioPath: path, Language: "English", BeamSize: 5})
			if err != nil {
				t.Errorf("Transcribe %s: %v", path, err)
				return
			}
			if len(segs) != 1 || segs[0].Text != path {
				t.Errorf("%s got %+v", path, segs)
				return
			}
			if math.Abs(segs[0].Confidence-0.5) > 1e-9 {
				t.Errorf("confidence = %v", segs[0].Confidence)
			}
		}(path)
	}
	wg.Wait()
}

func TestTranscribeSendsNormalizedLanguage(t *testing.T) {
	proc := newPipeProcess()
	svc := serviceWith(proc, nil)
	reqs := proc.requests()
	got := make(chan request, 1)
	go func() {
		proc.send(t, response{ID: 0, Ready: true})
		r := <-reqs
		got <- r
		proc.send(t, response{ID: r.ID, Error: "decode failed"})
	}()
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer svc.Close()

	_, err := svc.Transcribe(context.Background(), inference.BackendRequest{AudioPath: "c.wav", Language: "deu", BeamSize: 2})
	if err == nil || !strings.Contains(err.Error(), "decode failed") {
		t.Fatalf("expected worker error, got %v", err)
	}
	r := <-got
	if r.Language != "de" || r.BeamSize != 2 || r.Path != "c.wav" {
		t.Fatalf("request = %+v", r)
	}
}

func TestTranscribeFailsWhenWorkerExits(t *testing.T) {
	proc := newPipeProcess()
	svc := serviceWith(proc, nil)
	reqs := proc.requests()
	go func() {
		proc.send(t, response{ID: 0, Ready: true})
		<-reqs
		_ = proc.stdoutW.Close()
	}()
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer svc.Close()

	_, err := svc.Transcribe(context.Background(), inference.BackendRequest{AudioPath: "d.wav"})
	if !errors.Is(err, ErrWorkerExited) {
		t.Fatalf("expected ErrWorkerExited, got %v", err)
	}
	if !strings.Contains(err.Error(), "CUDA failed") {
		t.Fatalf("expected stderr tail in %v", err)
	}
}

func TestTranscribeHonoursContext(t *testing.T) {
	proc := newPipeProcess()
	svc := serviceWith(proc, nil)
	reqs := proc.requests()
	go func() {
		proc.send(t, response{ID: 0, Ready: true})
		for range reqs {
		}
	}()
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := svc.Transcribe(ctx, inference.BackendRequest{AudioPath: "e.wav"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestTranscribeBeforeLoad(t *testing.T) {
	if _, err := NewService(Config{}).Transcribe(context.Background(), inference.BackendRequest{}); err == nil {
		t.Fatal("expected error before Load")
	}
}
