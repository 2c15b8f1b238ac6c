package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"murmur/internal/audio"
	"murmur/internal/config"
	"murmur/internal/inference"
	"murmur/internal/services"
	"murmur/internal/testsupport"
)

// scriptedBackend returns one segment per chunk and fails chunks listed in
// failChunks.
type scriptedBackend struct {
	mu         sync.Mutex
	calls      int
	failChunks map[int]bool
}

func (b *scriptedBackend) Name() string               { return "fake" }
func (b *scriptedBackend) Load(context.Context) error { return nil }
func (b *scriptedBackend) Close() error               { return nil }

func (b *scriptedBackend) Transcribe(_ context.Context, req inference.BackendRequest) ([]inference.RawSegment, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.failChunks[req.Chunk] {
		return nil, errors.New("model crashed")
	}
	return []inference.RawSegment{{Text: fmt.Sprintf("chunk %d", req.Chunk), Start: 1, End: 2, Confidence: 0.9}}, nil
}

func (b *scriptedBackend) factory() BackendFactory {
	return func(*config.Config, *slog.Logger) (inference.Backend, string, error) {
		return b, "base", nil
	}
}

// countingDecoder wraps a decoder and counts calls.
type countingDecoder struct {
	inner audio.Decoder
	err   error
	calls int
}

func (d *countingDecoder) Decode(ctx context.Context, path string) (audio.Waveform, error) {
	d.calls++
	if d.err != nil {
		return audio.Waveform{}, d.err
	}
	return d.inner.Decode(ctx, path)
}

// writeSpeech writes a 40 s tone with pauses at 18 s and 31 s, which plans
// into three chunks.
func writeSpeech(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "talk.wav")
	samples := testsupport.SpeechWithPauses(16000, 40, 18, 31)
	if err := audio.WriteWAV(path, samples, 16000); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func newTestRunner(t *testing.T, cfg *config.Config, backend *scriptedBackend, decoder audio.Decoder) *Runner {
	t.Helper()
	runner, err := NewRunner(Options{Config: cfg, RunID: "test-run", Backend: backend.factory(), Decoder: decoder})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return runner
}

func TestRunWritesArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithConcurrency(2))
	input := writeSpeech(t, testsupport.BaseDir(cfg))
	outDir := filepath.Join(testsupport.BaseDir(cfg), "out")
	backend := &scriptedBackend{}

	report, err := newTestRunner(t, cfg, backend, nil).Run(context.Background(), Request{
		Input:     input,
		OutputDir: outDir,
		Formats:   []string{"text", "srt"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Chunks != 3 || report.Segments != 3 || backend.calls != 3 {
		t.Fatalf("unexpected report %+v (calls %d)", report, backend.calls)
	}
	if report.Engine != "fake/base/auto/beam5" {
		t.Fatalf("engine = %q", report.Engine)
	}

	text, err := os.ReadFile(filepath.Join(outDir, "talk.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "chunk 0 chunk 1 chunk 2\n" {
		t.Fatalf("text = %q", text)
	}
	srt, err := os.ReadFile(filepath.Join(outDir, "talk.srt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(srt), "1\n00:00:01,000 --> 00:00:02,000\nchunk 0\n") {
		t.Fatalf("srt = %q", srt)
	}
	if len(report.Outputs) != 2 {
		t.Fatalf("outputs = %+v", report.Outputs)
	}
	if _, err := os.Stat(lockPath(outDir, input)); err != nil {
		t.Fatalf("lock file should stay after release: %v", err)
	}
}

func TestRunRejectsUnknownFormatBeforeDecoding(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	decoder := &countingDecoder{}
	report, err := newTestRunner(t, cfg, &scriptedBackend{}, decoder).Run(context.Background(), Request{
		Input:   "/nonexistent/talk.wav",
		Formats: []string{"docx"},
	})
	if !errors.Is(err, services.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if decoder.calls != 0 {
		t.Fatal("decoder must not run when the format is invalid")
	}
	if report.FailedStage != services.StageFormat {
		t.Fatalf("failed stage = %q", report.FailedStage)
	}
}

func TestRunDecodeFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	outDir := filepath.Join(testsupport.BaseDir(cfg), "out")
	decoder := &countingDecoder{err: &audio.DecodeError{Path: "talk.mp4", Reason: audio.ReasonCorruptStream}}
	report, err := newTestRunner(t, cfg, &scriptedBackend{}, decoder).Run(context.Background(), Request{
		Input:     "talk.mp4",
		OutputDir: outDir,
	})
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if report.FailedStage != services.StageDecode || services.ExitCode(err) != 3 {
		t.Fatalf("stage %q exit %d", report.FailedStage, services.ExitCode(err))
	}
	if _, err := os.Stat(filepath.Join(outDir, "talk.txt")); !os.IsNotExist(err) {
		t.Fatal("no output may be written after a decode failure")
	}
}

func TestRunInferenceFailureAborts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCacheDisabled())
	input := writeSpeech(t, testsupport.BaseDir(cfg))
	backend := &scriptedBackend{failChunks: map[int]bool{1: true}}

	report, err := newTestRunner(t, cfg, backend, nil).Run(context.Background(), Request{Input: input})
	if !errors.Is(err, services.ErrInference) {
		t.Fatalf("expected ErrInference, got %v", err)
	}
	if report.FailedStage != services.StageInference || services.ExitCode(err) != 4 {
		t.Fatalf("stage %q exit %d", report.FailedStage, services.ExitCode(err))
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(input), "talk.txt")); !os.IsNotExist(err) {
		t.Fatal("no output may be written after an inference failure")
	}
}

func TestRunPartialOutputRecordsGap(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCacheDisabled())
	cfg.Inference.PartialOutput = true
	input := writeSpeech(t, testsupport.BaseDir(cfg))
	backend := &scriptedBackend{failChunks: map[int]bool{1: true}}

	report, err := newTestRunner(t, cfg, backend, nil).Run(context.Background(), Request{
		Input:   input,
		Formats: []string{"json"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Partial() || len(report.Gaps) != 1 {
		t.Fatalf("expected one gap, got %+v", report.Gaps)
	}
	gap := report.Gaps[0]
	if gap.Chunk != 1 || math.Abs(gap.Start-18) > 0.05 || math.Abs(gap.End-31) > 0.05 || !strings.Contains(gap.Reason, "model crashed") {
		t.Fatalf("unexpected gap %+v", gap)
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(input), "talk.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Segments []struct{ Text string } `json:"segments"`
		Gaps     []struct{ Chunk int }   `json:"gaps"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Segments) != 2 || len(doc.Gaps) != 1 || doc.Gaps[0].Chunk != 1 {
		t.Fatalf("unexpected json output %s", data)
	}
}

func TestRunReusesCachedChunks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := writeSpeech(t, testsupport.BaseDir(cfg))

	first := &scriptedBackend{}
	if _, err := newTestRunner(t, cfg, first, nil).Run(context.Background(), Request{Input: input}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second := &scriptedBackend{}
	report, err := newTestRunner(t, cfg, second, nil).Run(context.Background(), Request{Input: input})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.calls != 0 || report.CacheHits != 3 {
		t.Fatalf("expected all chunks from cache, calls=%d hits=%d", second.calls, report.CacheHits)
	}

	third := &scriptedBackend{}
	report, err = newTestRunner(t, cfg, third, nil).Run(context.Background(), Request{Input: input, NoCache: true})
	if err != nil {
		t.Fatalf("no-cache run: %v", err)
	}
	if third.calls != 3 || report.CacheHits != 0 {
		t.Fatalf("no-cache run used cache: calls=%d hits=%d", third.calls, report.CacheHits)
	}
}

func TestRunRefusesConcurrentWriterOfSameOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := writeSpeech(t, testsupport.BaseDir(cfg))
	held, err := acquireOutputLock(filepath.Dir(input), input)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	_, err = newTestRunner(t, cfg, &scriptedBackend{}, nil).Run(context.Background(), Request{Input: input})
	if !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), "another murmur run") {
		t.Fatalf("expected lock conflict, got %v", err)
	}
}

func TestOutputLockReacquiredAfterRelease(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "talk.wav")
	first, err := acquireOutputLock(dir, input)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := acquireOutputLock(dir, input); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected conflict while held, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(lockPath(dir, input)); err != nil {
		t.Fatalf("lock file should remain on disk: %v", err)
	}
	second, err := acquireOutputLock(dir, input)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestRunSavesDecodedAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := writeSpeech(t, testsupport.BaseDir(cfg))
	audioOut := filepath.Join(testsupport.BaseDir(cfg), "extracted", "talk.16k.wav")

	report, err := newTestRunner(t, cfg, &scriptedBackend{}, nil).Run(context.Background(), Request{Input: input, AudioOut: audioOut})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.AudioOut != audioOut {
		t.Fatalf("audio out = %q", report.AudioOut)
	}
	w, err := audio.NewWAVDecoder(16000).Decode(context.Background(), audioOut)
	if err != nil {
		t.Fatalf("decode saved audio: %v", err)
	}
	if d := w.Duration(); d < 39.99 || d > 40.01 {
		t.Fatalf("saved audio duration = %v", d)
	}
}

func TestNewBackendRejectsUnknown(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend("kaldi"))
	if _, _, err := NewBackend(cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	for _, name := range []string{config.BackendFasterWhisper, config.BackendWhisperX, config.BackendOpenAI} {
		cfg := testsupport.NewConfig(t, testsupport.WithBackend(name))
		backend, model, err := NewBackend(cfg, nil)
		if err != nil || backend.Name() != name || model == "" {
			t.Fatalf("%s: backend=%v model=%q err=%v", name, backend, model, err)
		}
	}
}
