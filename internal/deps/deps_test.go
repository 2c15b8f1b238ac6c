package deps

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStub(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	writeStub(t, present, `echo "present version 6.1"; echo "built with gcc"`)
	reqs := []Requirement{
		{Name: "Present", Command: present, VersionArgs: []string{"-version"}},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Version != "present version 6.1" {
		t.Fatalf("version = %q", results[0].Version)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" || !results[2].Optional {
		t.Fatalf("unexpected status for unset command: %#v", results[2])
	}
}

func TestCheckPythonModule(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "python-good")
	writeStub(t, good, "exit 0")
	bad := filepath.Join(dir, "python-bad")
	writeStub(t, bad, `echo "Traceback (most recent call last):" >&2; echo "ModuleNotFoundError: No module named 'faster_whisper'" >&2; exit 1`)

	if st := CheckPythonModule(context.Background(), good, "faster_whisper", ""); !st.Available {
		t.Fatalf("expected module available, got %#v", st)
	}
	st := CheckPythonModule(context.Background(), bad, "faster_whisper", "")
	if st.Available || !strings.Contains(st.Detail, "No module named 'faster_whisper'") {
		t.Fatalf("unexpected status %#v", st)
	}
	if st := CheckPythonModule(context.Background(), filepath.Join(dir, "missing"), "x", ""); st.Available || !strings.Contains(st.Detail, "not found") {
		t.Fatalf("unexpected status for missing python %#v", st)
	}
}
