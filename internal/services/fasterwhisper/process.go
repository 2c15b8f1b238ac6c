package fasterwhisper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

//go:embed worker.py
var workerScript string

const stopGrace = 5 * time.Second

// Process is a running worker.
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader
	// Stop ends the worker and releases its resources.
	Stop() error
}

// Starter launches a worker for the given options.
type Starter func(ctx context.Context, python string, opts workerOptions) (Process, error)

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr *stderrBuffer
	once   sync.Once
	err    error
}

// startPython runs the embedded worker script. The process outlives ctx; ctx
// only bounds the start itself.
func startPython(ctx context.Context, python string, opts workerOptions) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("encode worker options: %w", err)
	}
	cmd := exec.Command(python, "-u", "-c", workerScript, string(payload)) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdout: %w", err)
	}
	stderr := &stderrBuffer{}
	cmd.Stderr = stderr
	cmd.WaitDelay = stopGrace
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", python, err)
	}
	return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}, nil
}

func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }

func (p *execProcess) Stdout() io.Reader { return p.stdout }

// Stderr returns the worker's diagnostic output so far.
func (p *execProcess) Stderr() string { return p.stderr.String() }

// Stop closes stdin so the worker exits its read loop, then kills it if it
// has not exited within the grace period.
func (p *execProcess) Stop() error {
	p.once.Do(func() {
		_ = p.stdin.Close()
		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()
		select {
		case err := <-done:
			p.err = err
		case <-time.After(stopGrace):
			_ = p.cmd.Process.Kill()
			p.err = <-done
		}
	})
	var exitErr *exec.ExitError
	if errors.As(p.err, &exitErr) {
		return nil
	}
	return p.err
}

// stderrBuffer keeps the last maxStderr bytes written by the worker.
type stderrBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

const maxStderr = 8 * 1024

func (b *stderrBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if over := b.buf.Len() - maxStderr; over > 0 {
		b.buf.Next(over)
	}
	return len(p), nil
}

func (b *stderrBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
