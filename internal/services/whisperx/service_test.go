package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"murmur/internal/inference"
)

func valueAfter(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func TestTranscribeParsesJSONOutput(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "chunk-00002.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotArgs []string
	svc := NewService(Config{Model: "small", Device: "cpu"})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != UVXCommand {
			t.Errorf("command = %q", name)
		}
		gotArgs = args
		out := valueAfter(args, "--output_dir")
		payload := `{"segments":[
			{"text":" okay so","start":0.2,"end":1.1,"words":[{"word":"okay","score":0.8},{"word":"so","score":0.6}]},
			{"text":"unscored","start":1.5,"end":2.0}
		]}`
		return os.WriteFile(filepath.Join(out, "chunk-00002.json"), []byte(payload), 0o644)
	})
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	segs, err := svc.Transcribe(context.Background(), inference.BackendRequest{
		Chunk: 2, AudioPath: audioPath, Duration: 3, Language: "eng", BeamSize: 3,
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments", len(segs))
	}
	if segs[0].Text != " okay so" || segs[0].Confidence < 0.69 || segs[0].Confidence > 0.71 {
		t.Fatalf("segment 0 = %+v", segs[0])
	}
	if segs[1].Confidence != 1 {
		t.Fatalf("unscored segment confidence = %v", segs[1].Confidence)
	}
	for flag, want := range map[string]string{
		"--language": "en", "--beam_size": "3", "--model": "small", "--device": "cpu", "--output_format": "json",
	} {
		if got := valueAfter(gotArgs, flag); got != want {
			t.Fatalf("%s = %q, want %q (args %s)", flag, got, want, strings.Join(gotArgs, " "))
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "whisperx-2")); !os.IsNotExist(err) {
		t.Fatal("scratch output dir not removed")
	}
}

func TestTranscribeRunnerFailure(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	_, err := svc.Transcribe(context.Background(), inference.BackendRequest{AudioPath: filepath.Join(t.TempDir(), "a.wav")})
	if err == nil || !strings.Contains(err.Error(), "exit status 1") {
		t.Fatalf("expected runner error, got %v", err)
	}
}

func TestBuildArgsCUDAAndPyannote(t *testing.T) {
	svc := NewService(Config{Device: "cuda", VADMethod: VADMethodPyannote, HFToken: "hf_x"})
	args := svc.buildArgs(inference.BackendRequest{AudioPath: "/tmp/a.wav"}, "/tmp/out")
	if valueAfter(args, "--index-url") != CUDAIndexURL || valueAfter(args, "--device") != CUDADevice {
		t.Fatalf("expected CUDA args: %v", args)
	}
	if valueAfter(args, "--hf_token") != "hf_x" || valueAfter(args, "--beam_size") != "5" {
		t.Fatalf("unexpected args: %v", args)
	}
	if slices.Contains(args, "--language") {
		t.Fatal("language should be omitted for auto detection")
	}
}

func TestLoadRequiresTokenForPyannote(t *testing.T) {
	svc := NewService(Config{VADMethod: VADMethodPyannote})
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return nil })
	if err := svc.Load(context.Background()); err == nil {
		t.Fatal("expected missing token error")
	}
}

func TestLoadMissingBinary(t *testing.T) {
	svc := NewService(Config{UVXBinary: filepath.Join(t.TempDir(), "missing-uvx")})
	if err := svc.Load(context.Background()); err == nil {
		t.Fatal("expected lookup error")
	}
}
