package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeLoggerRespectsPerHandlerLevel(t *testing.T) {
	var consoleBuf, runBuf bytes.Buffer
	console := slog.New(slog.NewJSONHandler(&consoleBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	runLog := slog.NewJSONHandler(&runBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := TeeLogger(console, runLog).With(slog.String("component", "pipeline"))
	logger.Debug("chunk planned")
	logger.Info("run complete")

	if bytes.Contains(consoleBuf.Bytes(), []byte("chunk planned")) {
		t.Fatal("info handler should not receive debug records")
	}
	if !bytes.Contains(runBuf.Bytes(), []byte("chunk planned")) {
		t.Fatal("debug handler should receive debug records")
	}
	for name, buf := range map[string]*bytes.Buffer{"console": &consoleBuf, "run": &runBuf} {
		if !bytes.Contains(buf.Bytes(), []byte(`"component":"pipeline"`)) {
			t.Fatalf("expected component attr in %s output: %s", name, buf.String())
		}
	}
}

func TestTeeLoggerNilBase(t *testing.T) {
	var teeBuf bytes.Buffer
	logger := TeeLogger(nil, slog.NewJSONHandler(&teeBuf, nil))
	logger.Info("no base")
	if teeBuf.Len() == 0 {
		t.Fatal("expected output in tee buffer")
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestFanoutHandlerKeepsConsoleWhenRunLogFails(t *testing.T) {
	var consoleBuf bytes.Buffer
	console := slog.NewJSONHandler(&consoleBuf, nil)
	h := newFanoutHandler(console, failingHandler{slog.NewJSONHandler(&bytes.Buffer{}, nil)})

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "chunk transcribed", 0)
	if err := h.Handle(context.Background(), record); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected joined run log error, got %v", err)
	}
	if !bytes.Contains(consoleBuf.Bytes(), []byte("chunk transcribed")) {
		t.Fatal("console should still receive the record")
	}
}
