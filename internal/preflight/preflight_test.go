package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"murmur/internal/config"
	"murmur/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("expected failure for missing dir, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckTranscriptionAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" || r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckTranscriptionAPI(context.Background(), srv.URL+"/v1/", "good-key"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckTranscriptionAPI(context.Background(), srv.URL+"/v1", "bad-key"); result.Passed || !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("expected auth failure, got %+v", result)
	}
	if result := CheckTranscriptionAPI(context.Background(), srv.URL, ""); result.Passed {
		t.Fatal("expected failure for missing key")
	}
	if result := CheckTranscriptionAPI(context.Background(), "", "key"); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DefaultBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := RunAll(context.Background(), cfg)
	// work, log and cache directories
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_IncludesAPIForOpenAIBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendOpenAI), testsupport.WithCacheDisabled())
	cfg.Inference.APIBaseURL = srv.URL
	cfg.Inference.APIKey = "test"
	results := RunAll(context.Background(), cfg)
	found := false
	for _, r := range results {
		if r.Name == "Transcription API" {
			found = true
			if !r.Passed {
				t.Errorf("API check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected API check in results")
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg", "ffprobe", "python3"))
	statuses := CheckSystemDeps(context.Background(), cfg)
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
		if s.Name != "FFmpeg" && s.Name != "FFprobe" && s.Name != "Python" && !strings.HasPrefix(s.Name, "Python module") {
			t.Fatalf("unexpected dependency %q", s.Name)
		}
		if !s.Available {
			t.Fatalf("%s should be available via stub: %s", s.Name, s.Detail)
		}
	}
	if len(statuses) != 4 {
		t.Fatalf("dependencies = %v", names)
	}

	cfg.Inference.Backend = config.BackendWhisperX
	cfg.Audio.Decoder = "native"
	statuses = CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 3 || statuses[2].Name != "uvx" || !statuses[0].Optional {
		t.Fatalf("unexpected whisperx dependencies %+v", statuses)
	}
}
