package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"murmur/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrDecode, services.StageDecode, "ffmpeg", "stream failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"decode", "ffmpeg", "stream failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestFailedStageSurvivesWrapping(t *testing.T) {
	err := services.Wrap(services.ErrInference, services.StageInference, "chunk 3", "", nil)
	wrapped := fmt.Errorf("run: %w", err)
	if stage := services.FailedStage(wrapped); stage != services.StageInference {
		t.Fatalf("expected inference stage, got %q", stage)
	}
	if stage := services.FailedStage(errors.New("plain")); stage != "" {
		t.Fatalf("expected empty stage for plain error, got %q", stage)
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{services.Wrap(services.ErrFormat, services.StageFormat, "parse", "bad selector", nil), 2},
		{services.Wrap(services.ErrDecode, services.StageDecode, "", "", nil), 3},
		{services.Wrap(services.ErrInference, services.StageInference, "", "", nil), 4},
		{services.Wrap(services.ErrMergeInvariant, services.StageMerge, "", "", nil), 70},
		{fmt.Errorf("run: %w", context.Canceled), 130},
		{errors.New("other"), 1},
	}
	for _, tc := range cases {
		if got := services.ExitCode(tc.err); got != tc.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
